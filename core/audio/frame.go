package audio

import (
	"fmt"
	"time"
)

// Frame is an immutable block of mono linear PCM covering a fixed duration.
//
// Frames are created by the capture path (or synthesized as silence) and
// consumed exactly once by the transport; nothing mutates Samples after
// construction.
type Frame struct {
	// Samples holds little-endian PCM bytes in the frame's encoding.
	Samples []byte

	Encoding EncodingInfo
	Duration time.Duration
}

// NewFrame validates that the sample payload matches the claimed duration.
func NewFrame(samples []byte, encoding EncodingInfo, duration time.Duration) (Frame, error) {
	if expected := encoding.BytesFor(duration); len(samples) != expected {
		return Frame{}, fmt.Errorf("frame payload is %d bytes, expected %d for %s at %dHz %s",
			len(samples), expected, duration, encoding.SampleRate, encoding.Format.Name())
	}

	return Frame{Samples: samples, Encoding: encoding, Duration: duration}, nil
}

// SilenceFrame returns a frame of the given duration with all-zero (or the
// encoding's silence value) samples.
func SilenceFrame(encoding EncodingInfo, duration time.Duration) Frame {
	samples := make([]byte, encoding.BytesFor(duration))
	if silence := encoding.SilenceValue(); silence != 0 {
		for i := range samples {
			samples[i] = silence
		}
	}

	return Frame{Samples: samples, Encoding: encoding, Duration: duration}
}

// IsSilence reports whether every sample byte matches the encoding's silence
// value.
func (f Frame) IsSilence() bool {
	silence := f.Encoding.SilenceValue()
	for _, b := range f.Samples {
		if b != silence {
			return false
		}
	}
	return true
}
