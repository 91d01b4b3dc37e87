package texttospeech

import "github.com/voicepipe/voicepipe-core/core/audio"

type SynthesisOptions struct {
	// EncodingInfo selects the output encoding and sample rate.
	EncodingInfo audio.EncodingInfo
	// Speed scales speaking rate; 1.0 is the provider default and is not
	// transmitted.
	Speed float64
}

type SynthesisOption func(*SynthesisOptions)

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SynthesisOption {
	return func(o *SynthesisOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

func WithSpeed(speed float64) SynthesisOption {
	return func(o *SynthesisOptions) {
		if speed > 0 {
			o.Speed = speed
		}
	}
}
