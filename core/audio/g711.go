package audio

// G.711 companded audio arrives as raw bytes with no container, so generic
// format probing cannot recognize it. These decoders expand it to 16-bit
// linear PCM, one sample per input byte.

// DecodeMulaw expands G.711 mu-law bytes to little-endian linear16.
func DecodeMulaw(data []byte) []byte {
	pcm := make([]byte, 0, len(data)*2)
	for _, b := range data {
		sample := decodeMulawSample(b)
		pcm = append(pcm, byte(sample), byte(sample>>8))
	}
	return pcm
}

// DecodeALaw expands G.711 A-law bytes to little-endian linear16.
func DecodeALaw(data []byte) []byte {
	pcm := make([]byte, 0, len(data)*2)
	for _, b := range data {
		sample := decodeALawSample(b)
		pcm = append(pcm, byte(sample), byte(sample>>8))
	}
	return pcm
}

func decodeMulawSample(b byte) int16 {
	b = ^b
	t := (int32(b&0x0F) << 3) + 0x84
	t <<= (b & 0x70) >> 4
	if b&0x80 != 0 {
		return int16(0x84 - t)
	}
	return int16(t - 0x84)
}

func decodeALawSample(b byte) int16 {
	b ^= 0x55
	t := int32(b&0x0F) << 1
	t++
	exponent := (b & 0x70) >> 4
	if exponent != 0 {
		t += 0x20
		t <<= exponent - 1
	}
	if b&0x80 != 0 {
		return int16(t)
	}
	return int16(-t)
}
