package audio

import (
	"encoding/binary"
	"math"
)

// SampleFormat identifies the native sample layout a capture device delivers.
type SampleFormat string

const (
	SampleFormatS16 SampleFormat = "s16"
	SampleFormatU16 SampleFormat = "u16"
	SampleFormatF32 SampleFormat = "f32"
)

func (f SampleFormat) byteSize() int {
	switch f {
	case SampleFormatF32:
		return 4
	case SampleFormatS16, SampleFormatU16:
		return 2
	}
	return -1
}

// DeviceFormat describes whatever the OS audio subsystem negotiated for a
// capture device. Normalize converts it to the transport's mono linear16.
type DeviceFormat struct {
	SampleFormat SampleFormat
	SampleRate   int
	Channels     int
}

// Normalize converts raw interleaved device bytes to mono signed 16-bit
// little-endian PCM at the target sample rate.
//
// Channels are down-mixed by averaging, sample width is converted first, and
// the result is linearly resampled only when rates differ.
func Normalize(raw []byte, from DeviceFormat, targetRate int) []byte {
	mono := downmixToInt16(raw, from)
	if from.SampleRate == targetRate || from.SampleRate <= 0 || targetRate <= 0 {
		return int16ToBytes(mono)
	}

	return int16ToBytes(resampleLinear(mono, from.SampleRate, targetRate))
}

func downmixToInt16(raw []byte, from DeviceFormat) []int16 {
	channels := from.Channels
	if channels < 1 {
		channels = 1
	}

	sampleSize := from.SampleFormat.byteSize()
	if sampleSize <= 0 {
		return nil
	}

	frameSize := sampleSize * channels
	frameCount := len(raw) / frameSize

	mono := make([]int16, frameCount)
	for i := range frameCount {
		sum := 0
		for ch := range channels {
			offset := i*frameSize + ch*sampleSize
			sum += int(decodeSample(raw[offset:offset+sampleSize], from.SampleFormat))
		}
		mono[i] = int16(sum / channels)
	}

	return mono
}

func decodeSample(b []byte, format SampleFormat) int16 {
	switch format {
	case SampleFormatS16:
		return int16(binary.LittleEndian.Uint16(b))
	case SampleFormatU16:
		return int16(int(binary.LittleEndian.Uint16(b)) - 1<<15)
	case SampleFormatF32:
		f := math.Float32frombits(binary.LittleEndian.Uint32(b))
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		return int16(f * math.MaxInt16)
	}
	return 0
}

// resampleLinear interpolates between neighboring samples. Quality is not
// critical on this path, the transport's recognizer tolerates it.
func resampleLinear(in []int16, fromRate, toRate int) []int16 {
	if len(in) == 0 {
		return nil
	}

	outLen := int(int64(len(in)) * int64(toRate) / int64(fromRate))
	if outLen == 0 {
		return nil
	}

	out := make([]int16, outLen)
	ratio := float64(fromRate) / float64(toRate)
	for i := range outLen {
		pos := float64(i) * ratio
		left := int(pos)
		if left >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(left)
		out[i] = int16(float64(in[left])*(1-frac) + float64(in[left+1])*frac)
	}

	return out
}

func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
