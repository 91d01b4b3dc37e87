// Package portaudio is an alternative device backend built on the blocking
// PortAudio stream API. It shares one duplex stream between capture and
// playback, which keeps it simple but makes playback synchronous: audio is
// written to the device as it is sent.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/voicepipe/voicepipe-core/core/audio"
)

type Client struct {
	bufferSize    int
	stream        *portaudio.Stream
	leftoverAudio []byte

	in  []int16
	out []int16

	mu            sync.Mutex
	started       bool
	captureCancel context.CancelFunc
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &audio.DeviceError{Op: "initialize portaudio", Err: err}
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		portaudio.Terminate()
		return nil, &audio.DeviceError{Op: "open default stream", Err: err}
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		out:        out,
	}, nil
}

func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}

	if err := c.stream.Start(); err != nil {
		return &audio.DeviceError{Op: "start stream", Err: err}
	}
	c.started = true
	return nil
}

func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}

	c.ClearBuffer()
	if err := c.stream.Stop(); err != nil {
		return &audio.DeviceError{Op: "stop stream", Err: err}
	}
	c.started = false
	return nil
}

// StartCapture pulls device buffers on a dedicated goroutine until
// StopCapture or context cancellation.
func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	if err := c.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.captureCancel != nil {
		c.mu.Unlock()
		cancel()
		return fmt.Errorf("capture already started")
	}
	c.captureCancel = cancel
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if err := c.stream.Read(); err != nil {
					logger.Debug("failed to read from stream", "error", err)
					continue
				}

				audioBuffer := bytes.Buffer{}
				binary.Write(&audioBuffer, binary.LittleEndian, c.in)
				onAudio(audioBuffer.Bytes())
			}
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	c.mu.Lock()
	cancel := c.captureCancel
	c.captureCancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// CaptureFormat reports the negotiated capture format for normalization
// downstream.
func (c *Client) CaptureFormat() audio.DeviceFormat {
	return audio.DeviceFormat{
		SampleFormat: audio.SampleFormatS16,
		SampleRate:   audio.DefaultSampleRate,
		Channels:     1,
	}
}

// SendAudio writes full device buffers to the stream and carries the
// remainder over to the next call.
func (c *Client) SendAudio(audio []byte) error {
	bufferSize := c.bufferSize * 2

	audio = append(c.leftoverAudio, audio...)
	for i := range len(audio)/bufferSize + 1 {
		if (i+1)*bufferSize > len(audio) {
			c.leftoverAudio = make([]byte, len(audio)-i*bufferSize)
			copy(c.leftoverAudio, audio[i*bufferSize:])
			break
		}

		binary.Read(bytes.NewBuffer(audio[i*bufferSize:(i+1)*bufferSize]), binary.LittleEndian, c.out)
		if err := c.stream.Write(); err != nil {
			logger.Debug("failed to write to stream", "error", err)
		}
	}

	return nil
}

// Mark flushes the carried-over remainder to the device and then fires the
// callback. Writes are synchronous, so once the flush returns everything
// sent before the mark has been played.
func (c *Client) Mark(mark string, callback func(string)) error {
	audio := c.leftoverAudio
	c.leftoverAudio = nil
	if len(audio) > 0 {
		padded := make([]byte, c.bufferSize*2)
		copy(padded, audio)
		binary.Read(bytes.NewBuffer(padded), binary.LittleEndian, c.out)
		if err := c.stream.Write(); err != nil {
			logger.Debug("failed to write to stream", "error", err)
		}
	}

	callback(mark)
	return nil
}

func (c *Client) ClearBuffer() {
	c.leftoverAudio = make([]byte, 0)
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}

func (c *Client) Close() {
	_ = c.StopCapture()
	c.stream.Close()
	portaudio.Terminate()
}
