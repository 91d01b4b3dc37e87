// Package miniaudio drives capture and playback devices through malgo.
// It is the default device backend: capture feeds the frame source and the
// playback side satisfies the sink's output client contract, reporting
// drain through marks.
package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"

	"github.com/voicepipe/voicepipe-core/core/audio"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext

	playback playbackClient
	capture  captureClient
}

type ClientOption func(*Client)

// WithCaptureSampleRate overrides the capture device sample rate.
func WithCaptureSampleRate(sampleRate int) ClientOption {
	return func(c *Client) {
		if sampleRate > 0 {
			c.capture.sampleRate = uint32(sampleRate)
		}
	}
}

// WithPlaybackSampleRate overrides the playback device sample rate. Match it
// to the transport's output encoding so received audio plays at pitch.
func WithPlaybackSampleRate(sampleRate int) ClientOption {
	return func(c *Client) {
		if sampleRate > 0 {
			c.playback.sampleRate = uint32(sampleRate)
		}
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
	}
	client.capture.sampleRate = uint32(audio.DefaultSampleRate)
	client.playback.sampleRate = uint32(audio.DefaultSampleRate)
	for _, opt := range opts {
		opt(&client)
	}

	if err := client.playback.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := client.capture.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	return c.capture.Start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.capture.Stop()
}

// CaptureFormat reports the negotiated capture device format for
// normalization downstream.
func (c *Client) CaptureFormat() audio.DeviceFormat {
	return c.capture.format()
}

// Start brings up the playback device.
func (c *Client) Start() error {
	return c.playback.Start()
}

// Stop halts playback and discards anything buffered.
func (c *Client) Stop() error {
	return c.playback.Stop()
}

func (c *Client) SendAudio(audio []byte) error {
	return c.playback.SendAudio(audio)
}

func (c *Client) Mark(mark string, callback func(string)) error {
	return c.playback.Mark(mark, callback)
}

func (c *Client) ClearBuffer() {
	c.playback.ClearBuffer()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: int(c.playback.sampleRate),
		Format:     audio.EncodingLinear16,
	}
}

func (c *Client) Close() {
	_ = c.capture.Uninit()
	_ = c.playback.Uninit()
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}
