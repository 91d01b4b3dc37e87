package session

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Receive after the peer completed a normal close
// handshake, and by the send paths once shutdown has begun. It is distinct
// from a TransportError: the stream ended as negotiated.
var ErrClosed = errors.New("session closed")

// ConnectionError reports a failure to establish a session. The caller may
// retry with a fresh Open; the failed session holds no resources.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransportError reports an abnormal send or receive failure on an
// established session. It is surfaced, never silently retried; the caller
// decides between tearing down and reopening.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
