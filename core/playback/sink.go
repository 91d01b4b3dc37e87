package playback

import (
	"sync"

	"github.com/google/uuid"

	"github.com/voicepipe/voicepipe-core/core/audio"
	"github.com/voicepipe/voicepipe-core/core/events"
)

// OutputClient drives one audio output device. Implementations buffer
// submitted audio internally and report playback progress through marks:
// a mark's callback fires once every byte submitted before the mark has
// left the buffer.
type OutputClient interface {
	Start() error
	Stop() error
	SendAudio(audio []byte) error
	Mark(mark string, callback func(string)) error
	ClearBuffer()
	EncodingInfo() audio.EncodingInfo
}

// Sink accepts opaque audio payloads addressed for playback, decodes them to
// PCM and drives the output device. It emits PlaybackStarted the moment a
// contiguous response begins playing and PlaybackStopped once the device has
// drained everything queued for it. A new response arriving while another is
// still playing is queued behind it and does not produce a stop/start pair in
// between.
type Sink struct {
	client OutputClient

	mu        sync.Mutex
	playing   bool
	responses []*response

	decodePayload decodeFunc
	lifecycle     func(events.Event)
	decodeErrors  func(error)
}

type response struct {
	id    string
	ended bool
}

// NewSink builds a sink around an output client. The client is not started;
// call Start before enqueueing audio.
func NewSink(client OutputClient, opts ...Option) *Sink {
	sink := &Sink{
		client:        client,
		decodePayload: passthroughDecode,
		lifecycle:     func(events.Event) {},
		decodeErrors:  func(error) {},
	}
	for _, opt := range opts {
		opt(sink)
	}
	return sink
}

// Start brings up the output device.
func (s *Sink) Start() error {
	if err := s.client.Start(); err != nil {
		return &audio.DeviceError{Op: "start playback", Err: err}
	}
	return nil
}

// Stop shuts the output device down, discarding anything still buffered.
func (s *Sink) Stop() error {
	s.Interrupt()
	if err := s.client.Stop(); err != nil {
		return &audio.DeviceError{Op: "stop playback", Err: err}
	}
	return nil
}

// HandleEvent feeds the sink from a routed inbound stream. Speech lifecycle
// events delimit responses; audio chunks are queued for the response in
// progress. Anything else is ignored.
func (s *Sink) HandleEvent(event events.Event) {
	switch event := event.(type) {
	case events.AgentAudioStarted:
		s.BeginResponse()
	case events.AudioChunk:
		s.EnqueueAudio(event.Audio)
	case events.AgentAudioStopped:
		s.EndResponse()
	}
}

// BeginResponse opens a new contiguous audio response. Subsequent audio is
// attributed to it until EndResponse.
func (s *Sink) BeginResponse() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	response := &response{id: uuid.NewString()}
	s.responses = append(s.responses, response)
	return response.id
}

// EnqueueAudio decodes one payload and queues it on the output device. A
// payload that fails to decode is reported and skipped; playback of
// everything else continues.
func (s *Sink) EnqueueAudio(payload []byte) {
	pcm, err := s.decodePayload(payload)
	if err != nil {
		logger.Debug("skipping unplayable payload", "error", err)
		s.decodeErrors(&DecodeError{Err: err})
		return
	}

	s.mu.Lock()
	if len(s.responses) == 0 {
		// Audio before any lifecycle delimiter still plays; open an
		// implicit response for it.
		s.responses = append(s.responses, &response{id: uuid.NewString()})
	}
	current := s.responses[len(s.responses)-1]
	started := !s.playing
	s.playing = true
	s.mu.Unlock()

	if err := s.client.SendAudio(pcm); err != nil {
		s.decodeErrors(&audio.DeviceError{Op: "queue audio", Err: err})
		return
	}

	if started {
		s.lifecycle(events.NewPlaybackStarted(current.id))
	}
}

// EndResponse closes the response in progress. A mark is placed behind its
// last queued byte; the stopped event fires when the device drains past it.
func (s *Sink) EndResponse() {
	s.mu.Lock()
	if len(s.responses) == 0 {
		s.mu.Unlock()
		return
	}
	current := s.responses[len(s.responses)-1]
	if current.ended {
		s.mu.Unlock()
		return
	}
	current.ended = true
	s.mu.Unlock()

	if err := s.client.Mark(current.id, s.onDrained); err != nil {
		s.decodeErrors(&audio.DeviceError{Op: "mark response end", Err: err})
		// The device cannot report drain; release the gate now rather
		// than leaving it muted forever.
		s.onDrained(current.id)
	}
}

// Interrupt discards all buffered audio and pending responses. If playback
// was active a stopped event is emitted for the newest response so the gate
// feedback loop is not left dangling.
func (s *Sink) Interrupt() {
	s.client.ClearBuffer()

	s.mu.Lock()
	var interruptedID string
	if s.playing && len(s.responses) > 0 {
		interruptedID = s.responses[len(s.responses)-1].id
	}
	s.playing = false
	s.responses = nil
	s.mu.Unlock()

	if interruptedID != "" {
		s.lifecycle(events.NewPlaybackStopped(interruptedID))
	}
}

// onDrained runs when the device has played everything queued for the given
// response. The stopped event is suppressed when a newer response is already
// queued behind it so continuous playback never bounces the gate.
func (s *Sink) onDrained(responseID string) {
	s.mu.Lock()
	index := -1
	for i, response := range s.responses {
		if response.id == responseID {
			index = i
			break
		}
	}
	if index == -1 {
		// Already cleared by an interrupt.
		s.mu.Unlock()
		return
	}

	last := index == len(s.responses)-1
	s.responses = s.responses[index+1:]
	if last {
		s.playing = false
	}
	s.mu.Unlock()

	if last {
		s.lifecycle(events.NewPlaybackStopped(responseID))
	}
}
