package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/voicepipe/voicepipe-core/core/events"
	"github.com/voicepipe/voicepipe-core/core/playback"
	"github.com/voicepipe/voicepipe-core/core/router"
	"github.com/voicepipe/voicepipe-core/core/session"
	"github.com/voicepipe/voicepipe-core/core/transcript"
)

// Pipeline wires the full-duplex loop together: capture flows through the
// mic gate to the transport, inbound events are routed to playback,
// transcript and diagnostics, and playback lifecycle feeds back into the
// gate.
type Pipeline struct {
	config  session.Config
	capture CaptureClient
	output  playback.OutputClient

	frameDuration time.Duration
	gateOptions   []MicGateOption
	base64Audio   bool

	transcriptOptions []transcript.Option
	onDiagnostic      func(events.Event)
	onPlayback        func(events.Event)

	closeOnce sync.Once
	cancel    context.CancelFunc

	gate *MicGate
}

func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		config:        session.DefaultConfig(),
		frameDuration: defaultFrameDuration,
		onDiagnostic:  func(events.Event) {},
		onPlayback:    func(events.Event) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Gate exposes the mic gate for state inspection. It is non-nil only while
// Run is active.
func (p *Pipeline) Gate() *MicGate { return p.gate }

// Close requests shutdown of a running pipeline. It returns immediately;
// Run performs the ordered teardown and returns when it is complete.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
}

// Run opens the session and drives the pipeline until the context ends, the
// peer closes the stream, or an unrecoverable error occurs. Teardown is
// ordered: capture stops first, the session closes gracefully, playback
// stops last. Contract: call Run at most once per pipeline instance.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "run pipeline")
	defer span.End()

	ctx, p.cancel = context.WithCancel(ctx)
	defer p.cancel()

	if p.capture == nil || p.output == nil {
		err := fmt.Errorf("pipeline requires capture and output clients")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	sess, err := session.Open(ctx, p.config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	p.gate = NewMicGate(p.gateOptions...)
	defer p.gate.Reset()

	source := NewFrameSource(p.capture, p.config.InputEncodingInfo(), p.frameDuration)
	gated := &gatedFrameSource{
		source:  source,
		silence: NewSilenceInjector(source.Encoding(), source.FrameDuration()),
		gate:    p.gate,
	}

	sinkOptions := []playback.Option{
		playback.WithLifecycleCallback(func(event events.Event) {
			p.gate.HandleEvent(event)
			p.onPlayback(event)
		}),
		playback.WithErrorCallback(func(err error) {
			logger.Warn("playback error", "error", err)
		}),
	}
	if p.base64Audio {
		sinkOptions = append(sinkOptions, playback.WithBase64Payloads())
	}
	sink := playback.NewSink(p.output, sinkOptions...)

	eventRouter := router.New(router.WithProtocolErrorCallback(func(err error) {
		logger.Warn("protocol violation", "error", err)
	}))
	aggregator := transcript.NewAggregator(p.transcriptOptions...)

	if err := sink.Start(); err != nil {
		_ = sess.Close()
		return err
	}
	if err := source.Start(ctx); err != nil {
		_ = sink.Stop()
		_ = sess.Close()
		return err
	}

	// Shutdown order: capture first so no more live frames are produced,
	// then the session so pending frames flush and the peer sees a close
	// signal. Playback stops after the workers drain.
	shutdown := func() {
		_ = source.Close()
		_ = sess.Close()
	}
	defer close(withContextCancelHook(ctx, shutdown))

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error

	start := func(name string, run workerRun) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				span.RecordError(err)
				shutdown()
			}
		}()
	}

	start("outbound", panicSafeNamedWorker("outbound", func(ctx context.Context) error {
		return p.runOutbound(ctx, gated, sess)
	}))
	start("inbound", panicSafeNamedWorker("inbound", func(ctx context.Context) error {
		// The inbound stream ending means the session is gone, whether the
		// peer closed it or an error tore it down. Either way capture must
		// stop so the outbound worker can exit.
		defer shutdown()
		return p.runInbound(ctx, sess, eventRouter)
	}))
	start("playback", panicSafeNamedWorker("playback", func(context.Context) error {
		for event := range eventRouter.Playback() {
			sink.HandleEvent(event)
		}
		return nil
	}))
	start("transcript", panicSafeNamedWorker("transcript", func(context.Context) error {
		for event := range eventRouter.Transcript() {
			aggregator.HandleEvent(event)
		}
		aggregator.Flush()
		return nil
	}))
	start("diagnostics", panicSafeNamedWorker("diagnostics", func(context.Context) error {
		for event := range eventRouter.Diagnostics() {
			p.onDiagnostic(event)
		}
		return nil
	}))

	wg.Wait()

	if err := sink.Stop(); err != nil {
		logger.Warn("failed to stop playback", "error", err)
	}

	errMu.Lock()
	defer errMu.Unlock()
	if firstErr != nil {
		span.SetStatus(codes.Error, firstErr.Error())
	}
	return firstErr
}

// runOutbound forwards gate-selected frames in capture order until the
// source or session is closed.
func (p *Pipeline) runOutbound(ctx context.Context, source *gatedFrameSource, sess *session.Session) error {
	for {
		frame, err := source.NextFrame(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrSourceClosed) {
				return nil
			}
			return err
		}

		if err := sess.SendAudio(frame); err != nil {
			if errors.Is(err, session.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// runInbound routes received events in arrival order. It owns the router's
// channels: they close when the stream ends, releasing the consumers.
func (p *Pipeline) runInbound(ctx context.Context, sess *session.Session, eventRouter *router.Router) error {
	defer eventRouter.Close()

	for {
		event, err := sess.Receive(ctx)
		if err != nil {
			if errors.Is(err, session.ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := eventRouter.Route(event); err != nil {
			return err
		}
	}
}
