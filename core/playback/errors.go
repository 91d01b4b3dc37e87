package playback

import "fmt"

// DecodeError reports one unplayable payload. It is isolated to that payload;
// the queue keeps playing.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unplayable audio payload: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
