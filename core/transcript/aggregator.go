package transcript

import (
	"sync"

	"github.com/voicepipe/voicepipe-core/core/events"
)

// Aggregator turns a stream of turn-indexed word updates into finalized,
// renderable transcript lines. Words accumulate under the current turn until
// a newer turn index or a matching end-of-turn arrives, at which point the
// line is finalized, colored and handed to the rendering collaborator.
//
// In verbose mode aggregation is bypassed entirely and raw events are
// forwarded instead; the two modes are mutually exclusive for a session.
type Aggregator struct {
	mu      sync.Mutex
	current *Line
	// finalizedThrough is the highest turn index already finalized. Updates
	// at or below it are stale and ignored; a finalized line never reopens.
	finalizedThrough int

	verbose   bool
	raw       func(events.Event)
	finalized func(Line)
	messages  func(events.TranscriptMessage)
}

type Option func(*Aggregator)

// WithLineCallback registers the consumer of finalized lines.
func WithLineCallback(callback func(Line)) Option {
	return func(a *Aggregator) {
		if callback != nil {
			a.finalized = callback
		}
	}
}

// WithMessageCallback registers the consumer of role-attributed conversation
// text, which flows through unaggregated.
func WithMessageCallback(callback func(events.TranscriptMessage)) Option {
	return func(a *Aggregator) {
		if callback != nil {
			a.messages = callback
		}
	}
}

// WithVerboseCallback switches the aggregator to verbose mode: every event
// is forwarded raw and no lines are produced.
func WithVerboseCallback(callback func(events.Event)) Option {
	return func(a *Aggregator) {
		if callback != nil {
			a.verbose = true
			a.raw = callback
		}
	}
}

func NewAggregator(opts ...Option) *Aggregator {
	aggregator := &Aggregator{
		finalizedThrough: -1,
		raw:              func(events.Event) {},
		finalized:        func(Line) {},
		messages:         func(events.TranscriptMessage) {},
	}
	for _, opt := range opts {
		opt(aggregator)
	}
	return aggregator
}

// HandleEvent consumes one routed transcript event.
func (a *Aggregator) HandleEvent(event events.Event) {
	if a.verbose {
		a.raw(event)
		return
	}

	switch event := event.(type) {
	case events.TurnUpdate:
		a.handleTurnUpdate(event)
	case events.EndOfTurn:
		a.handleEndOfTurn(event)
	case events.TranscriptMessage:
		a.messages(event)
	}
}

// Flush finalizes the in-progress line, if any. Call at session end so the
// last turn is not lost.
func (a *Aggregator) Flush() {
	a.mu.Lock()
	line := a.takeCurrentLocked()
	a.mu.Unlock()

	if line != nil {
		a.finalized(*line)
	}
}

func (a *Aggregator) handleTurnUpdate(update events.TurnUpdate) {
	a.mu.Lock()

	if update.TurnIndex <= a.finalizedThrough ||
		(a.current != nil && update.TurnIndex < a.current.TurnIndex) {
		a.mu.Unlock()
		return
	}

	var finalized *Line
	if a.current != nil && update.TurnIndex > a.current.TurnIndex {
		finalized = a.takeCurrentLocked()
	}

	if a.current == nil {
		a.current = &Line{
			TurnIndex:  update.TurnIndex,
			ColorIndex: update.TurnIndex % len(palette),
		}
	}
	a.current.Words = append(a.current.Words, update.Words...)
	a.mu.Unlock()

	if finalized != nil {
		a.finalized(*finalized)
	}
}

func (a *Aggregator) handleEndOfTurn(endOfTurn events.EndOfTurn) {
	a.mu.Lock()
	var finalized *Line
	if a.current != nil && endOfTurn.TurnIndex == a.current.TurnIndex {
		finalized = a.takeCurrentLocked()
	}
	a.mu.Unlock()

	if finalized != nil {
		a.finalized(*finalized)
	}
}

func (a *Aggregator) takeCurrentLocked() *Line {
	line := a.current
	a.current = nil
	if line != nil && line.TurnIndex > a.finalizedThrough {
		a.finalizedThrough = line.TurnIndex
	}
	return line
}
