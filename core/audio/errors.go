package audio

import "fmt"

// DeviceError reports a capture or output device failure. It is fatal to the
// sub-path that owns the device but not necessarily to the whole session.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device error: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}
