package events

const (
	// KindPlaybackStarted identifies the start of device playback for a response.
	KindPlaybackStarted Kind = "playback.started"
	// KindPlaybackStopped identifies the drain of everything queued on the device.
	KindPlaybackStopped Kind = "playback.stopped"
)

// PlaybackStarted marks the instant device output of a contiguous audio
// response begins.
type PlaybackStarted struct {
	Base
	ResponseID string
}

// NewPlaybackStarted creates a playback started event.
func NewPlaybackStarted(responseID string) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), ResponseID: responseID}
}

// PlaybackStopped marks the point where the output device has played all
// audio queued for the response, buffering included.
type PlaybackStopped struct {
	Base
	ResponseID string
}

// NewPlaybackStopped creates a playback stopped event.
func NewPlaybackStopped(responseID string) PlaybackStopped {
	return PlaybackStopped{Base: NewBase(KindPlaybackStopped), ResponseID: responseID}
}
