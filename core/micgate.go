package pipeline

import (
	"sync"
	"time"

	"github.com/voicepipe/voicepipe-core/core/events"
)

// GateState is the mic gate's position. The gate decides whether live
// microphone audio or synthetic silence goes out on the transport.
type GateState string

const (
	GateOpen           GateState = "open"
	GateMuted          GateState = "muted"
	GateReleasePending GateState = "releasePending"
)

const defaultReleaseDelay = 600 * time.Millisecond

// MicGate mutes the microphone while synthesized audio is playing so it does
// not re-enter the capture path, and holds the mute for a release delay after
// playback stops to absorb the acoustic tail. Exactly one flow writes it
// (the playback lifecycle consumer); the outbound frame selection only reads.
type MicGate struct {
	mu    sync.Mutex
	state GateState
	// deadline backs the ReleasePending state so reads can resolve an
	// expired release even if the timer has not fired yet.
	deadline time.Time
	// generation invalidates in-flight release timers. A timer only
	// releases the gate if no transition happened after it was armed;
	// a mute arriving exactly at expiry therefore wins.
	generation uint64

	releaseDelay time.Duration
	disabled     bool
}

type MicGateOption func(*MicGate)

// WithReleaseDelay overrides how long the gate stays closed after playback
// stops.
func WithReleaseDelay(delay time.Duration) MicGateOption {
	return func(g *MicGate) {
		if delay > 0 {
			g.releaseDelay = delay
		}
	}
}

// WithGateDisabled forces the gate permanently open. Operator opt-out for
// setups where feedback cannot occur, e.g. headphones.
func WithGateDisabled() MicGateOption {
	return func(g *MicGate) {
		g.disabled = true
	}
}

func NewMicGate(opts ...MicGateOption) *MicGate {
	gate := &MicGate{
		state:        GateOpen,
		releaseDelay: defaultReleaseDelay,
	}
	for _, opt := range opts {
		opt(gate)
	}
	return gate
}

// HandleEvent consumes one playback lifecycle event.
func (g *MicGate) HandleEvent(event events.Event) {
	switch event.(type) {
	case events.PlaybackStarted:
		g.PlaybackStarted()
	case events.PlaybackStopped:
		g.PlaybackStopped()
	}
}

// PlaybackStarted mutes the gate. A pending release is cancelled; no release
// armed before this call can fire afterwards.
func (g *MicGate) PlaybackStarted() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.disabled {
		return
	}

	g.generation++
	g.state = GateMuted
}

// PlaybackStopped schedules the release. The gate stays effectively closed
// until the release delay elapses with no intervening PlaybackStarted.
func (g *MicGate) PlaybackStopped() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.disabled || g.state != GateMuted {
		return
	}

	g.generation++
	g.state = GateReleasePending
	g.deadline = time.Now().Add(g.releaseDelay)

	generation := g.generation
	time.AfterFunc(g.releaseDelay, func() { g.release(generation) })
}

// State reports the gate's position, resolving an expired release in place
// so readers never observe a stale ReleasePending.
func (g *MicGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == GateReleasePending && !time.Now().Before(g.deadline) {
		g.generation++
		g.state = GateOpen
	}
	return g.state
}

// IsOpen reports whether live microphone audio may pass.
func (g *MicGate) IsOpen() bool {
	return g.State() == GateOpen
}

// Reset returns the gate to Open. Called at session teardown so a dropped
// connection cannot leave the microphone permanently muted.
func (g *MicGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.generation++
	g.state = GateOpen
}

func (g *MicGate) release(generation uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// A newer transition owns the gate now.
	if g.generation != generation || g.state != GateReleasePending {
		return
	}

	g.generation++
	g.state = GateOpen
}
