package router

import (
	"fmt"

	"github.com/voicepipe/voicepipe-core/core/events"
)

// ProtocolError reports a malformed or out-of-order inbound event. The event
// is dropped and the session continues.
type ProtocolError struct {
	Reason string
	Event  events.Event
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation: %s (%s)", e.Reason, e.Event.Kind())
}

// FatalServerError reports a server-declared session-ending condition. It is
// returned from Route after the diagnostic event has been delivered.
type FatalServerError struct {
	Code    string
	Message string
}

func (e *FatalServerError) Error() string {
	return fmt.Sprintf("fatal server error: %s: %s", e.Code, e.Message)
}
