package router

import (
	"github.com/voicepipe/voicepipe-core/core/events"
)

const defaultChannelSize = 64

// Router classifies inbound events and forwards them unmodified to the
// consumer declared for their class: playback control to the playback sink,
// transcript-bearing variants to the aggregator, everything else to
// diagnostics. Dispatch is order-preserving; events leave on each channel in
// the exact order they were routed.
type Router struct {
	playback    chan events.Event
	transcript  chan events.Event
	diagnostics chan events.Event

	// lastTurnIndex enforces non-decreasing turn ordering. Out-of-order
	// arrival is a protocol violation, never silently reordered.
	lastTurnIndex int
	sawTurn       bool

	protocolErrors func(error)
}

type Option func(*Router)

// WithChannelSize bounds each consumer channel. A consumer that stops
// draining eventually blocks dispatch rather than reordering or dropping.
func WithChannelSize(size int) Option {
	return func(r *Router) {
		if size > 0 {
			r.playback = make(chan events.Event, size)
			r.transcript = make(chan events.Event, size)
			r.diagnostics = make(chan events.Event, size)
		}
	}
}

// WithProtocolErrorCallback registers the consumer of protocol violations.
// The offending event is dropped either way.
func WithProtocolErrorCallback(callback func(error)) Option {
	return func(r *Router) {
		if callback != nil {
			r.protocolErrors = callback
		}
	}
}

func New(opts ...Option) *Router {
	router := &Router{
		playback:       make(chan events.Event, defaultChannelSize),
		transcript:     make(chan events.Event, defaultChannelSize),
		diagnostics:    make(chan events.Event, defaultChannelSize),
		protocolErrors: func(error) {},
	}
	for _, opt := range opts {
		opt(router)
	}
	return router
}

func (r *Router) Playback() <-chan events.Event    { return r.playback }
func (r *Router) Transcript() <-chan events.Event  { return r.transcript }
func (r *Router) Diagnostics() <-chan events.Event { return r.diagnostics }

// Route dispatches one event. It returns a FatalServerError after
// diagnostics delivery when the server reported a session-ending error;
// every other outcome returns nil and the stream continues.
func (r *Router) Route(event events.Event) error {
	switch event := event.(type) {
	case events.AgentAudioStarted, events.AgentAudioStopped, events.AudioChunk:
		r.playback <- event

	case events.TranscriptMessage:
		r.transcript <- event

	case events.TurnUpdate:
		if !r.admitTurnIndex(event.TurnIndex, event) {
			return nil
		}
		r.transcript <- event

	case events.EndOfTurn:
		if !r.admitTurnIndex(event.TurnIndex, event) {
			return nil
		}
		r.transcript <- event

	case events.ServerError:
		r.diagnostics <- event
		if event.Fatal {
			return &FatalServerError{Code: event.Code, Message: event.Message}
		}

	default:
		r.diagnostics <- event
	}

	return nil
}

// Close releases the consumer channels. Call only after the last Route.
func (r *Router) Close() {
	close(r.playback)
	close(r.transcript)
	close(r.diagnostics)
}

func (r *Router) admitTurnIndex(turnIndex int, event events.Event) bool {
	if r.sawTurn && turnIndex < r.lastTurnIndex {
		err := &ProtocolError{
			Reason: "turn index went backwards",
			Event:  event,
		}
		logger.Warn("dropping out-of-order turn event",
			"turn_index", turnIndex, "last_turn_index", r.lastTurnIndex)
		r.protocolErrors(err)
		return false
	}

	r.sawTurn = true
	r.lastTurnIndex = turnIndex
	return true
}
