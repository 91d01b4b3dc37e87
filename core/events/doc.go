// Package events defines the typed session event contract.
//
// Event kinds are grouped by producer-facing namespaces:
//
//   - transport.*
//   - playback.*
//
// Semantics used across the package:
//
//   - Chunk: binary audio payload delivered over the session.
//   - Turn: a contiguous span of speech attributed to one speaker,
//     identified by an index that never decreases within a session.
//   - Final: terminal immutable text/state for the current turn phase.
//
// transport events (deserialized arrivals, consumed exactly once by the
// router in arrival order)
//
//   - TranscriptMessage (transport.transcript): conversation text attributed
//     to a role; Final marks the terminal revision.
//   - AgentThinking (transport.agent_thinking): the remote agent started
//     composing a response.
//   - AgentAudioStarted (transport.agent_audio_started): the remote agent
//     began streaming synthesized speech.
//   - AgentAudioStopped (transport.agent_audio_stopped): the remote agent
//     finished streaming synthesized speech.
//   - AudioChunk (transport.audio_chunk): binary audio addressed for
//     playback.
//   - TurnUpdate (transport.turn_update): cumulative recognized words for a
//     turn plus per-word confidence.
//   - EndOfTurn (transport.end_of_turn): the turn with the given index is
//     complete.
//   - Warning (transport.warning): non-fatal server condition.
//   - ServerError (transport.error): server error; Fatal terminates the
//     session after diagnostics are delivered.
//   - Metadata (transport.metadata): structured session metadata, passed
//     through unparsed.
//   - Unrecognized (transport.unrecognized): unknown discriminator; carried
//     for diagnostics, never fatal.
//
// playback events (emitted by the playback sink, consumed by the mic gate)
//
//   - PlaybackStarted (playback.started): output of a contiguous audio
//     response began on the device.
//   - PlaybackStopped (playback.stopped): the device drained everything
//     queued for the response(s); not merely "bytes stopped arriving".
package events
