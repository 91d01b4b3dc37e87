package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voicepipe/voicepipe-core/core/audio"
)

// fakeCaptureClient lets tests push device buffers by hand.
type fakeCaptureClient struct {
	mu      sync.Mutex
	onAudio func([]byte)
	format  audio.DeviceFormat
	stopped bool
}

func newFakeCaptureClient(format audio.DeviceFormat) *fakeCaptureClient {
	return &fakeCaptureClient{format: format}
}

func (c *fakeCaptureClient) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAudio = onAudio
	return nil
}

func (c *fakeCaptureClient) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.onAudio = nil
	return nil
}

func (c *fakeCaptureClient) CaptureFormat() audio.DeviceFormat {
	return c.format
}

func (c *fakeCaptureClient) push(buffer []byte) {
	c.mu.Lock()
	onAudio := c.onAudio
	c.mu.Unlock()
	if onAudio != nil {
		onAudio(buffer)
	}
}

func monoS16Format(sampleRate int) audio.DeviceFormat {
	return audio.DeviceFormat{
		SampleFormat: audio.SampleFormatS16,
		SampleRate:   sampleRate,
		Channels:     1,
	}
}

func TestFrameSourceReblocksDeviceBuffers(t *testing.T) {
	encoding := audio.GetDefaultEncodingInfo()
	client := newFakeCaptureClient(monoS16Format(encoding.SampleRate))
	source := NewFrameSource(client, encoding, 20*time.Millisecond)

	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("failed to start source: %v", err)
	}

	frameBytes := encoding.BytesFor(20 * time.Millisecond)

	// Push one and a half frames, then the remaining half.
	client.push(make([]byte, frameBytes+frameBytes/2))
	client.push(make([]byte, frameBytes/2))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := range 2 {
		frame, err := source.NextFrame(ctx)
		if err != nil {
			t.Fatalf("failed to get frame %d: %v", i, err)
		}
		if len(frame.Samples) != frameBytes {
			t.Fatalf("expected %d bytes per frame, got %d", frameBytes, len(frame.Samples))
		}
		if frame.Duration != 20*time.Millisecond {
			t.Fatalf("expected fixed 20ms duration, got %v", frame.Duration)
		}
	}
}

func TestFrameSourceNormalizesDeviceRate(t *testing.T) {
	encoding := audio.GetDefaultEncodingInfo()
	client := newFakeCaptureClient(monoS16Format(encoding.SampleRate * 3))
	source := NewFrameSource(client, encoding, 20*time.Millisecond)

	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("failed to start source: %v", err)
	}

	frameBytes := encoding.BytesFor(20 * time.Millisecond)

	// 20ms of device audio at triple rate normalizes to exactly one frame.
	client.push(make([]byte, frameBytes*3))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	frame, err := source.NextFrame(ctx)
	if err != nil {
		t.Fatalf("failed to get frame: %v", err)
	}
	if len(frame.Samples) != frameBytes {
		t.Fatalf("expected normalized frame of %d bytes, got %d", frameBytes, len(frame.Samples))
	}
}

func TestFrameSourceCloseFailsBlockedCaller(t *testing.T) {
	encoding := audio.GetDefaultEncodingInfo()
	client := newFakeCaptureClient(monoS16Format(encoding.SampleRate))
	source := NewFrameSource(client, encoding, 20*time.Millisecond)

	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("failed to start source: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := source.NextFrame(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	if err := source.Close(); err != nil {
		t.Fatalf("failed to close source: %v", err)
	}

	select {
	case err := <-done:
		var deviceErr *audio.DeviceError
		if !errors.As(err, &deviceErr) {
			t.Fatalf("expected DeviceError after close, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected NextFrame to return after close")
	}

	if !client.stopped {
		t.Fatalf("expected capture device stopped")
	}
}

func TestGatedSourceSubstitutesSilenceExhaustively(t *testing.T) {
	encoding := audio.GetDefaultEncodingInfo()
	client := newFakeCaptureClient(monoS16Format(encoding.SampleRate))
	source := NewFrameSource(client, encoding, 20*time.Millisecond)
	gate := NewMicGate()
	gated := &gatedFrameSource{
		source:  source,
		silence: NewSilenceInjector(encoding, 20*time.Millisecond),
		gate:    gate,
	}

	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("failed to start source: %v", err)
	}

	gate.PlaybackStarted()

	frameBytes := encoding.BytesFor(20 * time.Millisecond)
	loud := make([]byte, frameBytes)
	for i := range loud {
		loud[i] = 0x7F
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for range 5 {
		client.push(loud)
		frame, err := gated.NextFrame(ctx)
		if err != nil {
			t.Fatalf("failed to get frame: %v", err)
		}
		if !frame.IsSilence() {
			t.Fatalf("expected silence while gate is muted")
		}
		if len(frame.Samples) != frameBytes || frame.Duration != 20*time.Millisecond {
			t.Fatalf("expected cadence-identical silence frame")
		}
	}
}

func TestGatedSourcePassesLiveAudioWhenOpen(t *testing.T) {
	encoding := audio.GetDefaultEncodingInfo()
	client := newFakeCaptureClient(monoS16Format(encoding.SampleRate))
	source := NewFrameSource(client, encoding, 20*time.Millisecond)
	gated := &gatedFrameSource{
		source:  source,
		silence: NewSilenceInjector(encoding, 20*time.Millisecond),
		gate:    NewMicGate(),
	}

	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("failed to start source: %v", err)
	}

	frameBytes := encoding.BytesFor(20 * time.Millisecond)
	loud := make([]byte, frameBytes)
	for i := range loud {
		loud[i] = 0x01
	}
	client.push(loud)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	frame, err := gated.NextFrame(ctx)
	if err != nil {
		t.Fatalf("failed to get frame: %v", err)
	}
	if frame.IsSilence() {
		t.Fatalf("expected live audio through an open gate")
	}
}
