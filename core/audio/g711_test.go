package audio

import "testing"

func TestDecodeMulawKnownValues(t *testing.T) {
	if got := decodeMulawSample(0x00); got != -32124 {
		t.Fatalf("expected mulaw 0x00 to decode to -32124, got %d", got)
	}
	if got := decodeMulawSample(0xFF); got != 0 {
		t.Fatalf("expected mulaw 0xFF to decode to 0, got %d", got)
	}
	if got := decodeMulawSample(0x7F); got != 0 {
		t.Fatalf("expected mulaw 0x7F to decode to 0, got %d", got)
	}
}

func TestDecodeMulawSilenceIsQuiet(t *testing.T) {
	encoding := EncodingInfo{SampleRate: 8000, Format: EncodingMulaw}
	pcm := DecodeMulaw([]byte{encoding.SilenceValue(), encoding.SilenceValue()})

	if len(pcm) != 4 {
		t.Fatalf("expected 2 bytes per sample, got %d bytes", len(pcm))
	}
	for i, b := range pcm {
		if b != 0 {
			t.Fatalf("expected silent pcm, got %#x at byte %d", b, i)
		}
	}
}

func TestDecodeALawIsSignSymmetric(t *testing.T) {
	for b := range 128 {
		negative := decodeALawSample(byte(b))
		positive := decodeALawSample(byte(b) | 0x80)
		if positive != -negative {
			t.Fatalf("expected symmetric decode for %#x, got %d and %d", b, negative, positive)
		}
	}
}

func TestDecodeALawOutputLength(t *testing.T) {
	pcm := DecodeALaw(make([]byte, 160))
	if len(pcm) != 320 {
		t.Fatalf("expected one 16-bit sample per byte, got %d bytes", len(pcm))
	}
}
