package playback

import (
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	"github.com/voicepipe/voicepipe-core/core/audio"
	"github.com/voicepipe/voicepipe-core/core/events"
)

type fakeOutputClient struct {
	mu      sync.Mutex
	started bool
	audio   [][]byte
	marks   []fakeMark
	cleared int
}

type fakeMark struct {
	name     string
	callback func(string)
}

func (c *fakeOutputClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
	return nil
}

func (c *fakeOutputClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	return nil
}

func (c *fakeOutputClient) SendAudio(audio []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audio = append(c.audio, audio)
	return nil
}

func (c *fakeOutputClient) Mark(mark string, callback func(string)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marks = append(c.marks, fakeMark{name: mark, callback: callback})
	return nil
}

func (c *fakeOutputClient) ClearBuffer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audio = nil
	c.marks = nil
	c.cleared++
}

func (c *fakeOutputClient) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

// drain simulates the device playing through everything queued so far.
func (c *fakeOutputClient) drain() {
	c.mu.Lock()
	marks := c.marks
	c.marks = nil
	c.mu.Unlock()

	for _, mark := range marks {
		mark.callback(mark.name)
	}
}

type lifecycleRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *lifecycleRecorder) record(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *lifecycleRecorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]events.Kind, 0, len(r.events))
	for _, event := range r.events {
		kinds = append(kinds, event.Kind())
	}
	return kinds
}

func TestSinkEmitsStartAndStopAroundOneResponse(t *testing.T) {
	client := &fakeOutputClient{}
	recorder := &lifecycleRecorder{}
	sink := NewSink(client, WithLifecycleCallback(recorder.record))

	responseID := sink.BeginResponse()
	sink.EnqueueAudio([]byte{1, 2, 3, 4})
	sink.EnqueueAudio([]byte{5, 6, 7, 8})
	sink.EndResponse()

	kinds := recorder.kinds()
	if len(kinds) != 1 || kinds[0] != events.KindPlaybackStarted {
		t.Fatalf("expected a single started event before drain, got %v", kinds)
	}

	client.drain()

	kinds = recorder.kinds()
	if len(kinds) != 2 || kinds[1] != events.KindPlaybackStopped {
		t.Fatalf("expected stopped event after drain, got %v", kinds)
	}
	stopped := recorder.events[1].(events.PlaybackStopped)
	if stopped.ResponseID != responseID {
		t.Fatalf("expected stopped for response %q, got %q", responseID, stopped.ResponseID)
	}
}

func TestSinkQueuedResponseDoesNotBounceLifecycle(t *testing.T) {
	client := &fakeOutputClient{}
	recorder := &lifecycleRecorder{}
	sink := NewSink(client, WithLifecycleCallback(recorder.record))

	sink.BeginResponse()
	sink.EnqueueAudio([]byte{1, 2})
	sink.EndResponse()

	// Second response arrives while the first is still on the device.
	sink.BeginResponse()
	sink.EnqueueAudio([]byte{3, 4})

	client.drain() // first response's mark fires

	kinds := recorder.kinds()
	if len(kinds) != 1 || kinds[0] != events.KindPlaybackStarted {
		t.Fatalf("expected no stop/start pair between queued responses, got %v", kinds)
	}

	sink.EndResponse()
	client.drain()

	kinds = recorder.kinds()
	if len(kinds) != 2 || kinds[1] != events.KindPlaybackStopped {
		t.Fatalf("expected a single stopped event at the end, got %v", kinds)
	}
}

func TestSinkDecodeFailureIsIsolated(t *testing.T) {
	client := &fakeOutputClient{}
	var decodeErr error
	sink := NewSink(client,
		WithBase64Payloads(),
		WithErrorCallback(func(err error) { decodeErr = err }),
	)

	sink.BeginResponse()
	sink.EnqueueAudio([]byte("%%%not-base64%%%"))

	var asDecode *DecodeError
	if !errors.As(decodeErr, &asDecode) {
		t.Fatalf("expected DecodeError, got %v", decodeErr)
	}

	pcm := []byte{9, 9, 9, 9}
	sink.EnqueueAudio([]byte(base64.StdEncoding.EncodeToString(pcm)))

	if len(client.audio) != 1 {
		t.Fatalf("expected the valid payload to reach the device, got %d chunks", len(client.audio))
	}
	if string(client.audio[0]) != string(pcm) {
		t.Fatalf("expected decoded pcm %v, got %v", pcm, client.audio[0])
	}
}

func TestSinkInterruptStopsPlayback(t *testing.T) {
	client := &fakeOutputClient{}
	recorder := &lifecycleRecorder{}
	sink := NewSink(client, WithLifecycleCallback(recorder.record))

	sink.BeginResponse()
	sink.EnqueueAudio([]byte{1, 2})
	sink.Interrupt()

	if client.cleared != 1 {
		t.Fatalf("expected device buffer cleared once, got %d", client.cleared)
	}
	kinds := recorder.kinds()
	if len(kinds) != 2 || kinds[1] != events.KindPlaybackStopped {
		t.Fatalf("expected stopped event on interrupt, got %v", kinds)
	}

	// A mark confirmed after the interrupt must not emit a second stop.
	client.drain()
	if got := recorder.kinds(); len(got) != 2 {
		t.Fatalf("expected no further lifecycle events, got %v", got)
	}
}

func TestSinkHandleEventRoutesLifecycleAndAudio(t *testing.T) {
	client := &fakeOutputClient{}
	recorder := &lifecycleRecorder{}
	sink := NewSink(client, WithLifecycleCallback(recorder.record))

	sink.HandleEvent(events.NewAgentAudioStarted())
	sink.HandleEvent(events.NewAudioChunk([]byte{1, 2, 3, 4}))
	sink.HandleEvent(events.NewAgentAudioStopped())
	client.drain()

	if len(client.audio) != 1 {
		t.Fatalf("expected one chunk on the device, got %d", len(client.audio))
	}
	kinds := recorder.kinds()
	if len(kinds) != 2 || kinds[0] != events.KindPlaybackStarted || kinds[1] != events.KindPlaybackStopped {
		t.Fatalf("expected full lifecycle from routed events, got %v", kinds)
	}
}
