package playback

import (
	"encoding/base64"
	"fmt"
)

// decodeFunc turns one opaque payload into playable PCM.
type decodeFunc func(payload []byte) ([]byte, error)

// passthroughDecode treats payloads as raw PCM. This is the default for
// transports that frame audio as binary messages.
func passthroughDecode(payload []byte) ([]byte, error) {
	return payload, nil
}

// base64Decode handles transports that frame audio as text.
func base64Decode(payload []byte) ([]byte, error) {
	pcm := make([]byte, base64.StdEncoding.DecodedLen(len(payload)))
	n, err := base64.StdEncoding.Decode(pcm, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return pcm[:n], nil
}
