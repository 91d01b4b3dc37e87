package pipeline

import (
	"context"
	"time"

	"github.com/voicepipe/voicepipe-core/core/audio"
)

// SilenceInjector produces synthetic silence frames with the same duration
// and encoding as the live source, so substituting them preserves the
// outbound cadence exactly.
type SilenceInjector struct {
	encoding      audio.EncodingInfo
	frameDuration time.Duration
}

func NewSilenceInjector(encoding audio.EncodingInfo, frameDuration time.Duration) *SilenceInjector {
	if frameDuration <= 0 {
		frameDuration = defaultFrameDuration
	}

	return &SilenceInjector{encoding: encoding, frameDuration: frameDuration}
}

// Frame returns one silence frame.
func (s *SilenceInjector) Frame() audio.Frame {
	return audio.SilenceFrame(s.encoding, s.frameDuration)
}

// gatedFrameSource selects between live and silent frames per the mic gate.
// Timing always comes from the live source, so switching never introduces a
// gap or a duplicate frame.
type gatedFrameSource struct {
	source  *FrameSource
	silence *SilenceInjector
	gate    *MicGate
}

// NextFrame waits for the next captured frame, then substitutes silence when
// the gate is not open. The gate is read after the frame is ready, so a mute
// applied by the playback lifecycle is in effect for this frame onward.
func (g *gatedFrameSource) NextFrame(ctx context.Context) (audio.Frame, error) {
	frame, err := g.source.NextFrame(ctx)
	if err != nil {
		return audio.Frame{}, err
	}

	if !g.gate.IsOpen() {
		return g.silence.Frame(), nil
	}
	return frame, nil
}
