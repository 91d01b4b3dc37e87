package session

import (
	"encoding/json"

	"github.com/voicepipe/voicepipe-core/core/events"
)

type inboundMessage struct {
	Type string `json:"type"`

	// ConversationText
	Role    string `json:"role"`
	Content string `json:"content"`

	// TurnInfo
	TurnIndex int           `json:"turn_index"`
	Words     []inboundWord `json:"words"`
	EndOfTurn bool          `json:"end_of_turn"`

	// Warning / Error
	Code        string `json:"code"`
	Description string `json:"description"`
	Message     string `json:"message"`
	Fatal       bool   `json:"fatal"`
}

type inboundWord struct {
	Word       string  `json:"word"`
	Confidence float64 `json:"confidence"`
}

// messageDecoder maps raw text payloads onto typed events. It is stateful:
// TurnInfo messages carry the turn's cumulative word list, so the decoder
// remembers how many words it has already delivered for the current turn and
// emits only the new suffix. One decoder serves one session's read loop.
type messageDecoder struct {
	turnIndex int
	delivered int
}

// decodeMessage produces zero or more events for one payload. Unknown types
// and undecodable payloads never fail the stream; they come through as
// Unrecognized so the caller can log and move on.
func (d *messageDecoder) decodeMessage(raw []byte) []events.Event {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug("failed to decode inbound message", "error", err)
		return []events.Event{events.NewUnrecognized("", raw)}
	}

	switch msg.Type {
	case "ConversationText":
		return []events.Event{events.NewTranscriptMessage(msg.Role, msg.Content, true)}
	case "AgentThinking":
		return []events.Event{events.NewAgentThinking()}
	case "AgentStartedSpeaking":
		return []events.Event{events.NewAgentAudioStarted()}
	case "AgentAudioDone":
		return []events.Event{events.NewAgentAudioStopped()}
	case "TurnInfo":
		return d.decodeTurnInfo(msg)
	case "Warning":
		return []events.Event{events.NewWarning(msg.Code, description(msg))}
	case "Error":
		return []events.Event{events.NewServerError(msg.Code, description(msg), msg.Fatal)}
	case "Welcome", "SettingsApplied":
		return []events.Event{events.NewMetadata(msg.Type, raw)}
	default:
		return []events.Event{events.NewUnrecognized(msg.Type, raw)}
	}
}

// decodeTurnInfo reduces a cumulative word list to the not-yet-delivered
// suffix. A message that both carries new words and ends the turn produces a
// TurnUpdate for the tail words followed by the EndOfTurn, so no word is
// lost to finalization.
func (d *messageDecoder) decodeTurnInfo(msg inboundMessage) []events.Event {
	if msg.TurnIndex != d.turnIndex {
		d.turnIndex = msg.TurnIndex
		d.delivered = 0
	}

	var delta []events.Word
	if len(msg.Words) > d.delivered {
		delta = make([]events.Word, 0, len(msg.Words)-d.delivered)
		for _, word := range msg.Words[d.delivered:] {
			delta = append(delta, events.Word{Text: word.Word, Confidence: word.Confidence})
		}
		d.delivered = len(msg.Words)
	}

	var out []events.Event
	if len(delta) > 0 {
		out = append(out, events.NewTurnUpdate(msg.TurnIndex, delta))
	}
	if msg.EndOfTurn {
		out = append(out, events.NewEndOfTurn(msg.TurnIndex))
	}
	return out
}

func description(msg inboundMessage) string {
	if msg.Description != "" {
		return msg.Description
	}
	return msg.Message
}
