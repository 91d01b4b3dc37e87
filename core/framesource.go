package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/voicepipe/voicepipe-core/core/audio"
)

const defaultFrameDuration = 20 * time.Millisecond

// ErrSourceClosed reports that the frame source was closed while a caller
// was waiting for a frame.
var ErrSourceClosed = errors.New("frame source closed")

// CaptureClient abstracts one microphone device. Capture delivers raw device
// buffers in whatever format the OS negotiated; CaptureFormat describes that
// format so the source can normalize it.
type CaptureClient interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	CaptureFormat() audio.DeviceFormat
}

// FrameSource turns irregular device buffers into fixed-duration mono
// linear16 frames at the target sample rate. Frame duration is fixed for the
// source's lifetime.
type FrameSource struct {
	client        CaptureClient
	encoding      audio.EncodingInfo
	frameDuration time.Duration
	frameBytes    int

	mu      sync.Mutex
	pending []byte
	closed  bool

	frames chan audio.Frame
}

// NewFrameSource builds a source producing frames of the given duration in
// the given target encoding. The capture device is not started; call Start.
func NewFrameSource(client CaptureClient, encoding audio.EncodingInfo, frameDuration time.Duration) *FrameSource {
	if frameDuration <= 0 {
		frameDuration = defaultFrameDuration
	}

	return &FrameSource{
		client:        client,
		encoding:      encoding,
		frameDuration: frameDuration,
		frameBytes:    encoding.BytesFor(frameDuration),
		frames:        make(chan audio.Frame, 16),
	}
}

// Start begins capture. Device buffers are normalized and re-blocked into
// fixed frames as they arrive.
func (s *FrameSource) Start(ctx context.Context) error {
	if err := s.client.StartCapture(ctx, s.onAudio); err != nil {
		return &audio.DeviceError{Op: "start capture", Err: err}
	}
	return nil
}

// NextFrame blocks until a frame is ready, the context ends, or the source
// is closed.
func (s *FrameSource) NextFrame(ctx context.Context) (audio.Frame, error) {
	select {
	case <-ctx.Done():
		return audio.Frame{}, ctx.Err()
	case frame, ok := <-s.frames:
		if !ok {
			return audio.Frame{}, &audio.DeviceError{Op: "capture", Err: ErrSourceClosed}
		}
		return frame, nil
	}
}

// FrameDuration reports the fixed frame duration.
func (s *FrameSource) FrameDuration() time.Duration {
	return s.frameDuration
}

// Encoding reports the normalized output encoding.
func (s *FrameSource) Encoding() audio.EncodingInfo {
	return s.encoding
}

// Close stops capture and wakes any blocked NextFrame caller.
func (s *FrameSource) Close() error {
	err := s.client.StopCapture()

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
	s.mu.Unlock()

	if err != nil {
		return &audio.DeviceError{Op: "stop capture", Err: err}
	}
	return nil
}

// onAudio runs on the device callback. It must never block: when the frame
// queue is full the oldest frame is dropped so a stalled consumer cannot
// stall capture.
func (s *FrameSource) onAudio(raw []byte) {
	normalized := audio.Normalize(raw, s.client.CaptureFormat(), s.encoding.SampleRate)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.pending = append(s.pending, normalized...)
	for len(s.pending) >= s.frameBytes {
		samples := make([]byte, s.frameBytes)
		copy(samples, s.pending[:s.frameBytes])
		s.pending = s.pending[s.frameBytes:]

		frame, err := audio.NewFrame(samples, s.encoding, s.frameDuration)
		if err != nil {
			continue
		}

		select {
		case s.frames <- frame:
		default:
			select {
			case <-s.frames:
			default:
			}
			select {
			case s.frames <- frame:
			default:
			}
		}
	}
}
