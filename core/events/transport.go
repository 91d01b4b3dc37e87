package events

import "encoding/json"

const (
	// KindTranscriptMessage identifies role-attributed conversation text.
	KindTranscriptMessage Kind = "transport.transcript"
	// KindAgentThinking identifies the agent-composing notification.
	KindAgentThinking Kind = "transport.agent_thinking"
	// KindAgentAudioStarted identifies the start of remote speech streaming.
	KindAgentAudioStarted Kind = "transport.agent_audio_started"
	// KindAgentAudioStopped identifies the end of remote speech streaming.
	KindAgentAudioStopped Kind = "transport.agent_audio_stopped"
	// KindAudioChunk identifies binary audio addressed for playback.
	KindAudioChunk Kind = "transport.audio_chunk"
	// KindTurnUpdate identifies incremental word updates for one turn.
	KindTurnUpdate Kind = "transport.turn_update"
	// KindEndOfTurn identifies turn completion.
	KindEndOfTurn Kind = "transport.end_of_turn"
	// KindWarning identifies non-fatal server conditions.
	KindWarning Kind = "transport.warning"
	// KindServerError identifies server-reported errors.
	KindServerError Kind = "transport.error"
	// KindMetadata identifies pass-through session metadata.
	KindMetadata Kind = "transport.metadata"
	// KindUnrecognized identifies messages with an unknown discriminator.
	KindUnrecognized Kind = "transport.unrecognized"
)

// TranscriptMessage carries conversation text attributed to a role.
type TranscriptMessage struct {
	Base
	Role  string
	Text  string
	Final bool
}

// NewTranscriptMessage creates a transcript message event.
func NewTranscriptMessage(role, text string, final bool) TranscriptMessage {
	return TranscriptMessage{Base: NewBase(KindTranscriptMessage), Role: role, Text: text, Final: final}
}

// AgentThinking marks that the remote agent started composing a response.
type AgentThinking struct{ Base }

// NewAgentThinking creates an agent thinking event.
func NewAgentThinking() AgentThinking {
	return AgentThinking{Base: NewBase(KindAgentThinking)}
}

// AgentAudioStarted marks the start of remote speech streaming.
type AgentAudioStarted struct{ Base }

// NewAgentAudioStarted creates an agent audio started event.
func NewAgentAudioStarted() AgentAudioStarted {
	return AgentAudioStarted{Base: NewBase(KindAgentAudioStarted)}
}

// AgentAudioStopped marks the end of remote speech streaming.
type AgentAudioStopped struct{ Base }

// NewAgentAudioStopped creates an agent audio stopped event.
func NewAgentAudioStopped() AgentAudioStopped {
	return AgentAudioStopped{Base: NewBase(KindAgentAudioStopped)}
}

// AudioChunk carries binary audio addressed for playback.
type AudioChunk struct {
	Base
	Audio []byte
}

// NewAudioChunk creates an audio chunk event.
func NewAudioChunk(audio []byte) AudioChunk {
	return AudioChunk{Base: NewBase(KindAudioChunk), Audio: audio}
}

// Word is one recognized word with its confidence score.
type Word struct {
	Text       string
	Confidence float64
}

// TurnUpdate carries newly recognized words for one turn.
type TurnUpdate struct {
	Base
	TurnIndex int
	Words     []Word
}

// NewTurnUpdate creates a turn update event.
func NewTurnUpdate(turnIndex int, words []Word) TurnUpdate {
	return TurnUpdate{Base: NewBase(KindTurnUpdate), TurnIndex: turnIndex, Words: words}
}

// EndOfTurn marks the completion of the turn with the given index.
type EndOfTurn struct {
	Base
	TurnIndex int
}

// NewEndOfTurn creates an end-of-turn event.
func NewEndOfTurn(turnIndex int) EndOfTurn {
	return EndOfTurn{Base: NewBase(KindEndOfTurn), TurnIndex: turnIndex}
}

// Warning carries a non-fatal server condition.
type Warning struct {
	Base
	Code    string
	Message string
}

// NewWarning creates a warning event.
func NewWarning(code, message string) Warning {
	return Warning{Base: NewBase(KindWarning), Code: code, Message: message}
}

// ServerError carries a server-reported error. Fatal errors terminate the
// session after diagnostics are delivered.
type ServerError struct {
	Base
	Code    string
	Message string
	Fatal   bool
}

// NewServerError creates a server error event.
func NewServerError(code, message string, fatal bool) ServerError {
	return ServerError{Base: NewBase(KindServerError), Code: code, Message: message, Fatal: fatal}
}

// Metadata carries structured session metadata without interpretation.
type Metadata struct {
	Base
	Type string
	Raw  json.RawMessage
}

// NewMetadata creates a metadata event.
func NewMetadata(messageType string, raw json.RawMessage) Metadata {
	return Metadata{Base: NewBase(KindMetadata), Type: messageType, Raw: raw}
}

// Unrecognized carries a message whose discriminator is unknown.
type Unrecognized struct {
	Base
	Type string
	Raw  json.RawMessage
}

// NewUnrecognized creates an unrecognized message event.
func NewUnrecognized(messageType string, raw json.RawMessage) Unrecognized {
	return Unrecognized{Base: NewBase(KindUnrecognized), Type: messageType, Raw: raw}
}
