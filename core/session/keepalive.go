package session

import (
	"time"

	"github.com/voicepipe/voicepipe-core/core/audio"
	"github.com/voicepipe/voicepipe-core/internal/utils"
)

// keepAliveLoop keeps the connection warm when the caller stops sending.
// After 50ms of quiet it fills the gap with silence chunks; after a full
// second of that it switches to periodic KeepAlive messages. Any real send
// resets it. This is a safety net behind the caller's own frame cadence,
// covering capture stalls and paused sources.
func (s *Session) keepAliveLoop(encoding audio.EncodingInfo) {
	type keepAliveState string
	const (
		keepAliveStateWaiting   keepAliveState = "waiting"
		keepAliveStateSilence   keepAliveState = "silence"
		keepAliveStateKeepAlive keepAliveState = "keepAlive"
	)

	const chunkDuration = 50 * time.Millisecond
	ticker := time.NewTicker(chunkDuration)

	chunk := audio.SilenceFrame(encoding, chunkDuration)

	var state = keepAliveStateWaiting
	var firstSilenceTime *time.Time
	var lastKeepAliveTime *time.Time
	for {
		select {
		case <-s.quit:
			ticker.Stop()
			return
		case <-ticker.C:
			switch state {
			case keepAliveStateWaiting:
				if s.sinceLastSend() > chunkDuration {
					state = keepAliveStateSilence
					firstSilenceTime = utils.Ptr(time.Now())
					continue
				}

			case keepAliveStateSilence:
				if s.sinceLastSend() < chunkDuration {
					state = keepAliveStateWaiting
					firstSilenceTime = nil
					continue
				}
				if time.Since(*firstSilenceTime).Milliseconds() >= 1000 {
					state = keepAliveStateKeepAlive
					lastKeepAliveTime = utils.Ptr(time.Now())
					firstSilenceTime = nil
					continue
				}

				if err := s.writeBinary(chunk.Samples); err != nil {
					logger.Debug("failed to send silence chunk", "error", err)
				}

			case keepAliveStateKeepAlive:
				if s.sinceLastSend() < chunkDuration {
					state = keepAliveStateWaiting
					continue
				}

				if time.Since(*lastKeepAliveTime).Seconds() >= 5 {
					lastKeepAliveTime = utils.Ptr(time.Now())
					if err := s.writeJSON(struct {
						Type string `json:"type"`
					}{Type: "KeepAlive"}); err != nil {
						logger.Debug("failed to send keep alive", "error", err)
					}
				}
			}
		}
	}
}
