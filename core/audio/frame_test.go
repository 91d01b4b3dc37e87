package audio

import (
	"testing"
	"time"
)

func TestNewFrameEnforcesLengthInvariant(t *testing.T) {
	encoding := EncodingInfo{SampleRate: 16000, Format: EncodingLinear16}

	if _, err := NewFrame(make([]byte, encoding.BytesFor(20*time.Millisecond)), encoding, 20*time.Millisecond); err != nil {
		t.Fatalf("expected valid frame, got %v", err)
	}

	if _, err := NewFrame(make([]byte, 100), encoding, 20*time.Millisecond); err == nil {
		t.Fatalf("expected mismatched payload to be rejected")
	}
}

func TestSilenceFrameMatchesLiveFrameCadence(t *testing.T) {
	encoding := EncodingInfo{SampleRate: 16000, Format: EncodingLinear16}
	duration := 50 * time.Millisecond

	silence := SilenceFrame(encoding, duration)

	if len(silence.Samples) != encoding.BytesFor(duration) {
		t.Fatalf("expected silence frame of %d bytes, got %d", encoding.BytesFor(duration), len(silence.Samples))
	}
	if !silence.IsSilence() {
		t.Fatalf("expected all-silence samples")
	}
	if silence.Duration != duration {
		t.Fatalf("expected duration %s, got %s", duration, silence.Duration)
	}
}

func TestSilenceFrameUsesEncodingSilenceValue(t *testing.T) {
	encoding := EncodingInfo{SampleRate: 8000, Format: EncodingMulaw}

	silence := SilenceFrame(encoding, 20*time.Millisecond)

	for i, b := range silence.Samples {
		if b != 0xFF {
			t.Fatalf("expected mulaw silence byte 0xFF at %d, got %#x", i, b)
		}
	}
}

func TestBytesForAndDurationOfRoundTrip(t *testing.T) {
	encoding := EncodingInfo{SampleRate: 24000, Format: EncodingLinear16}

	byteCount := encoding.BytesFor(100 * time.Millisecond)
	if byteCount != 4800 {
		t.Fatalf("expected 4800 bytes for 100ms at 24kHz linear16, got %d", byteCount)
	}
	if got := encoding.DurationOf(byteCount); got != 100*time.Millisecond {
		t.Fatalf("expected 100ms, got %s", got)
	}
}
