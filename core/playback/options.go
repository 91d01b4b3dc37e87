package playback

import "github.com/voicepipe/voicepipe-core/core/events"

type Option func(*Sink)

// WithBase64Payloads decodes payloads as base64 text before queueing. Use
// this when the transport frames audio inside text messages instead of
// binary frames.
func WithBase64Payloads() Option {
	return func(s *Sink) {
		s.decodePayload = base64Decode
	}
}

// WithLifecycleCallback registers the consumer of PlaybackStarted and
// PlaybackStopped events. The callback runs on the sink's internal flows and
// must not block.
func WithLifecycleCallback(callback func(events.Event)) Option {
	return func(s *Sink) {
		if callback != nil {
			s.lifecycle = callback
		}
	}
}

// WithErrorCallback registers the consumer of isolated per-payload failures.
func WithErrorCallback(callback func(error)) Option {
	return func(s *Sink) {
		if callback != nil {
			s.decodeErrors = callback
		}
	}
}
