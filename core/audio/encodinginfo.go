package audio

import "time"

const (
	DefaultSampleRate = 16000
	DefaultFormat     = "linear16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: encodingFormat(DefaultFormat)}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	case EncodingLinear16:
		return 0
	}

	return 0
}

// BytesFor returns how many bytes of mono audio in this encoding cover the
// given duration.
func (e EncodingInfo) BytesFor(duration time.Duration) int {
	return int(float64(duration) / float64(time.Second) * float64(e.SampleRate) * float64(e.Format.ByteSize()))
}

// DurationOf returns how long the given number of mono audio bytes play for
// in this encoding.
func (e EncodingInfo) DurationOf(byteCount int) time.Duration {
	return time.Duration(float64(byteCount) / float64(e.SampleRate) * float64(time.Second) / float64(e.Format.ByteSize()))
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
