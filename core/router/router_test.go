package router

import (
	"errors"
	"testing"

	"github.com/voicepipe/voicepipe-core/core/events"
)

func drainKinds(ch <-chan events.Event) []events.Kind {
	kinds := []events.Kind{}
	for {
		select {
		case event := <-ch:
			kinds = append(kinds, event.Kind())
		default:
			return kinds
		}
	}
}

func TestRouteClassifiesByConsumer(t *testing.T) {
	r := New()

	inbound := []events.Event{
		events.NewAgentAudioStarted(),
		events.NewAudioChunk([]byte{1, 2}),
		events.NewTranscriptMessage("user", "hello", true),
		events.NewTurnUpdate(0, []events.Word{{Text: "hello", Confidence: 0.9}}),
		events.NewAgentThinking(),
		events.NewWarning("DEGRADED", "reduced quality"),
		events.NewAgentAudioStopped(),
	}
	for _, event := range inbound {
		if err := r.Route(event); err != nil {
			t.Fatalf("unexpected routing error: %v", err)
		}
	}

	playback := drainKinds(r.Playback())
	if len(playback) != 3 || playback[0] != events.KindAgentAudioStarted ||
		playback[1] != events.KindAudioChunk || playback[2] != events.KindAgentAudioStopped {
		t.Fatalf("unexpected playback events: %v", playback)
	}

	transcript := drainKinds(r.Transcript())
	if len(transcript) != 2 || transcript[0] != events.KindTranscriptMessage ||
		transcript[1] != events.KindTurnUpdate {
		t.Fatalf("unexpected transcript events: %v", transcript)
	}

	diagnostics := drainKinds(r.Diagnostics())
	if len(diagnostics) != 2 || diagnostics[0] != events.KindAgentThinking ||
		diagnostics[1] != events.KindWarning {
		t.Fatalf("unexpected diagnostics events: %v", diagnostics)
	}
}

func TestRouteFatalServerErrorTerminatesAfterDiagnostics(t *testing.T) {
	r := New()

	if err := r.Route(events.NewServerError("NOPE", "harmless", false)); err != nil {
		t.Fatalf("expected non-fatal error to continue the stream, got %v", err)
	}

	err := r.Route(events.NewServerError("AUTH", "token expired", true))
	var fatal *FatalServerError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected FatalServerError, got %v", err)
	}
	if fatal.Code != "AUTH" {
		t.Fatalf("expected code AUTH, got %q", fatal.Code)
	}

	// Both errors must have reached diagnostics before termination.
	diagnostics := drainKinds(r.Diagnostics())
	if len(diagnostics) != 2 {
		t.Fatalf("expected both server errors in diagnostics, got %v", diagnostics)
	}
}

func TestRouteDropsOutOfOrderTurnEvents(t *testing.T) {
	var protocolErr error
	r := New(WithProtocolErrorCallback(func(err error) { protocolErr = err }))

	r.Route(events.NewTurnUpdate(1, []events.Word{{Text: "later"}}))
	r.Route(events.NewTurnUpdate(0, []events.Word{{Text: "earlier"}}))

	var asProtocol *ProtocolError
	if !errors.As(protocolErr, &asProtocol) {
		t.Fatalf("expected ProtocolError, got %v", protocolErr)
	}

	transcript := drainKinds(r.Transcript())
	if len(transcript) != 1 {
		t.Fatalf("expected the out-of-order event to be dropped, got %v", transcript)
	}
}

func TestRouteAllowsEqualTurnIndex(t *testing.T) {
	r := New()

	r.Route(events.NewTurnUpdate(2, []events.Word{{Text: "a"}}))
	r.Route(events.NewTurnUpdate(2, []events.Word{{Text: "b"}}))
	r.Route(events.NewEndOfTurn(2))

	transcript := drainKinds(r.Transcript())
	if len(transcript) != 3 {
		t.Fatalf("expected all same-turn events admitted, got %v", transcript)
	}
}

func TestRouteUnrecognizedGoesToDiagnostics(t *testing.T) {
	r := New()

	r.Route(events.NewUnrecognized("SomethingNew", []byte(`{}`)))
	r.Route(events.NewMetadata("Welcome", []byte(`{}`)))

	diagnostics := drainKinds(r.Diagnostics())
	if len(diagnostics) != 2 {
		t.Fatalf("expected tolerated unknown messages in diagnostics, got %v", diagnostics)
	}
}
