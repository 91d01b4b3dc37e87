package pipeline

import (
	"time"

	"github.com/voicepipe/voicepipe-core/core/events"
	"github.com/voicepipe/voicepipe-core/core/playback"
	"github.com/voicepipe/voicepipe-core/core/session"
	"github.com/voicepipe/voicepipe-core/core/transcript"
)

type PipelineOption func(*Pipeline)

// WithSessionConfig replaces the default session configuration.
func WithSessionConfig(config session.Config) PipelineOption {
	return func(p *Pipeline) {
		p.config = config
	}
}

// WithCaptureClient sets the microphone device backend.
func WithCaptureClient(client CaptureClient) PipelineOption {
	return func(p *Pipeline) {
		p.capture = client
	}
}

// WithOutputClient sets the playback device backend.
func WithOutputClient(client playback.OutputClient) PipelineOption {
	return func(p *Pipeline) {
		p.output = client
	}
}

// WithFrameDuration sets the fixed outbound frame duration.
func WithFrameDuration(duration time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if duration > 0 {
			p.frameDuration = duration
		}
	}
}

// WithGateReleaseDelay sets how long the mic stays muted after playback
// stops.
func WithGateReleaseDelay(delay time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.gateOptions = append(p.gateOptions, WithReleaseDelay(delay))
	}
}

// WithoutMicGate disables mic gating entirely; live audio is always
// forwarded. Only sensible when playback cannot reach the microphone.
func WithoutMicGate() PipelineOption {
	return func(p *Pipeline) {
		p.gateOptions = append(p.gateOptions, WithGateDisabled())
	}
}

// WithBase64AudioPayloads decodes inbound audio payloads as base64 text
// before playback.
func WithBase64AudioPayloads() PipelineOption {
	return func(p *Pipeline) {
		p.base64Audio = true
	}
}

// WithTranscriptLineCallback registers the consumer of finalized transcript
// lines.
func WithTranscriptLineCallback(callback func(transcript.Line)) PipelineOption {
	return func(p *Pipeline) {
		p.transcriptOptions = append(p.transcriptOptions, transcript.WithLineCallback(callback))
	}
}

// WithConversationMessageCallback registers the consumer of role-attributed
// conversation text.
func WithConversationMessageCallback(callback func(events.TranscriptMessage)) PipelineOption {
	return func(p *Pipeline) {
		p.transcriptOptions = append(p.transcriptOptions, transcript.WithMessageCallback(callback))
	}
}

// WithVerboseEventCallback bypasses transcript aggregation and forwards raw
// transcript events instead.
func WithVerboseEventCallback(callback func(events.Event)) PipelineOption {
	return func(p *Pipeline) {
		p.transcriptOptions = append(p.transcriptOptions, transcript.WithVerboseCallback(callback))
	}
}

// WithDiagnosticCallback registers the consumer of warnings, server errors,
// metadata and unrecognized messages.
func WithDiagnosticCallback(callback func(events.Event)) PipelineOption {
	return func(p *Pipeline) {
		if callback != nil {
			p.onDiagnostic = callback
		}
	}
}

// WithPlaybackEventCallback observes playback lifecycle events after they
// have been applied to the mic gate.
func WithPlaybackEventCallback(callback func(events.Event)) PipelineOption {
	return func(p *Pipeline) {
		if callback != nil {
			p.onPlayback = callback
		}
	}
}
