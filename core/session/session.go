package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/codes"

	"github.com/voicepipe/voicepipe-core/core/audio"
	"github.com/voicepipe/voicepipe-core/core/events"
)

const (
	conversePath = "/v1/agent/converse"

	defaultOutboundQueueSize = 64
	closeGracePeriod         = 2 * time.Second
	flushPollInterval        = 10 * time.Millisecond
)

// Session owns one persistent full-duplex connection. The raw websocket is
// never handed out; all traffic goes through SendAudio, SendControl and
// Receive.
type Session struct {
	id     string
	config Config

	conn   *websocket.Conn
	connMu sync.Mutex

	outbound chan []byte
	inbound  chan events.Event

	// lastSendNano feeds the keepalive state machine.
	lastSendNano atomic.Int64

	closing   atomic.Bool
	closeOnce sync.Once
	closeAck  chan struct{}
	quit      chan struct{}

	writerDone chan struct{}

	// sendErr records the first asynchronous outbound write failure so the
	// next SendAudio call can surface it.
	sendErr atomic.Pointer[TransportError]

	// terminalErr is set before inbound is closed.
	terminalErr error
}

type openOptions struct {
	outboundQueueSize int
}

type OpenOption func(*openOptions)

// WithOutboundQueueSize bounds the outbound frame queue. When the queue is
// full the oldest frame is dropped so capture never blocks on a stalled
// network path.
func WithOutboundQueueSize(size int) OpenOption {
	return func(o *openOptions) {
		if size > 0 {
			o.outboundQueueSize = size
		}
	}
}

// Open establishes the connection and transmits the Settings handshake.
// It fails fast: any negotiation or serialization failure is reported as a
// ConnectionError before a Session exists.
func Open(ctx context.Context, config Config, opts ...OpenOption) (*Session, error) {
	options := openOptions{outboundQueueSize: defaultOutboundQueueSize}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "open session")
	defer span.End()

	if err := config.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	config, err := config.clone()
	if err != nil {
		return nil, err
	}

	apiKey, err := config.apiKey()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	endpoint := strings.TrimRight(config.Endpoint, "/")
	converseURL, err := url.Parse(endpoint + conversePath)
	if err != nil {
		return nil, &ConnectionError{Endpoint: config.Endpoint, Err: err}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, converseURL.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &ConnectionError{Endpoint: config.Endpoint, Err: err}
	}

	if err := conn.WriteJSON(config.settings()); err != nil {
		conn.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &ConnectionError{Endpoint: config.Endpoint, Err: fmt.Errorf("failed to send settings: %w", err)}
	}

	s := &Session{
		id:         uuid.NewString(),
		config:     config,
		conn:       conn,
		outbound:   make(chan []byte, options.outboundQueueSize),
		inbound:    make(chan events.Event, 256),
		closeAck:   make(chan struct{}),
		quit:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	s.lastSendNano.Store(time.Now().UnixNano())

	go s.writeLoop()
	go s.readLoop()
	go s.keepAliveLoop(config.InputEncodingInfo())

	return s, nil
}

func (s *Session) ID() string     { return s.id }
func (s *Session) Config() Config { return s.config }

// SendAudio queues a captured frame for transmission. Frames are sent in
// queue order; the call never blocks beyond the bounded queue. Once shutdown
// has begun it fails with ErrClosed, and the first asynchronous write
// failure since the last call is surfaced here.
func (s *Session) SendAudio(frame audio.Frame) error {
	if s.closing.Load() {
		return fmt.Errorf("send audio: %w", ErrClosed)
	}

	if err := s.sendErr.Load(); err != nil {
		return err
	}

	for {
		select {
		case s.outbound <- frame.Samples:
			return nil
		default:
		}

		// Queue full: drop the oldest frame to keep capture unblocked.
		select {
		case <-s.outbound:
			logger.Warn("outbound queue full, dropping oldest frame", "session_id", s.id)
		default:
		}
	}
}

// SendControl transmits a structured command immediately, bypassing the
// frame queue.
func (s *Session) SendControl(message any) error {
	if s.closing.Load() {
		return fmt.Errorf("send control: %w", ErrClosed)
	}

	if err := s.writeJSON(message); err != nil {
		return &TransportError{Op: "send control", Err: err}
	}
	return nil
}

// Receive produces the next inbound event in arrival order. After the
// stream ends it returns ErrClosed for a negotiated close and a
// TransportError otherwise.
func (s *Session) Receive(ctx context.Context) (events.Event, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case event, ok := <-s.inbound:
		if !ok {
			return nil, s.terminalErr
		}
		return event, nil
	}
}

// Close initiates graceful shutdown: pending frames are flushed, a close
// signal is sent, and the peer's acknowledgment is awaited up to a bounded
// grace period before the socket is forced shut. A peer that stopped
// responding cannot make Close hang.
func (s *Session) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		s.closing.Store(true)

		flushDeadline := time.Now().Add(closeGracePeriod)
		for len(s.outbound) > 0 && time.Now().Before(flushDeadline) {
			time.Sleep(flushPollInterval)
		}
		close(s.quit)
		<-s.writerDone

		if err := s.writeJSON(struct {
			Type string `json:"type"`
		}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
			closeErr = fmt.Errorf("failed to send close signal: %w", err)
		}

		select {
		case <-s.closeAck:
		case <-time.After(closeGracePeriod):
			logger.Warn("close acknowledgment timed out, forcing close", "session_id", s.id)
		}

		if err := s.conn.Close(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to close connection: %w", err)
		}
	})

	return closeErr
}

func (s *Session) writeLoop() {
	defer close(s.writerDone)

	for {
		select {
		case <-s.quit:
			return
		case payload := <-s.outbound:
			s.lastSendNano.Store(time.Now().UnixNano())
			if err := s.writeBinary(payload); err != nil {
				if s.sendErr.Load() == nil {
					s.sendErr.Store(&TransportError{Op: "send audio", Err: err})
				}
				return
			}
		}
	}
}

func (s *Session) readLoop() {
	defer close(s.inbound)
	decoder := &messageDecoder{}

	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.terminalErr = ErrClosed
			} else {
				s.terminalErr = &TransportError{Op: "receive", Err: err}
			}
			close(s.closeAck)
			return
		}

		var batch []events.Event
		switch msgType {
		case websocket.BinaryMessage:
			batch = []events.Event{events.NewAudioChunk(msg)}
		case websocket.TextMessage:
			batch = decoder.decodeMessage(msg)
		}

		for _, event := range batch {
			select {
			case s.inbound <- event:
			case <-s.quit:
				// A stalled Receive consumer must not make Close wait out
				// the full grace period behind a full inbound queue.
				s.terminalErr = ErrClosed
				close(s.closeAck)
				return
			}
		}
	}
}

func (s *Session) writeBinary(payload []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if err := s.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		return fmt.Errorf("failed to write binary frame: %w", err)
	}
	return nil
}

func (s *Session) writeJSON(message any) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if err := s.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (s *Session) sinceLastSend() time.Duration {
	return time.Since(time.Unix(0, s.lastSendNano.Load()))
}
