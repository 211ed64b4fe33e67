// Package realtime maintains one websocket connection to the real-time
// estimates feed and dispatches decoded snapshots to a Handler.
package realtime

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/navid-fn/gasradar/configs"
	"github.com/navid-fn/gasradar/gasprice"
	"github.com/sirupsen/logrus"
)

// DefaultEndpoint is the path of the estimates feed under the websocket base URL.
const DefaultEndpoint = "realtime"

// ErrStreamUsed is returned by Run on a stream that already ran or was closed.
// Build a new Stream to reconnect.
var ErrStreamUsed = errors.New("realtime: stream already started")

// State is the lifecycle stage of a Stream. It only moves forward.
type State int

// Stream states, in lifecycle order.
const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Stats counts what a stream has received so far.
type Stats struct {
	Messages      uint64
	DecodeErrors  uint64
	LastMessageAt time.Time
}

// Stream owns exactly one websocket connection.
type Stream struct {
	config  configs.RealtimeConfig
	url     string
	handler Handler
	logger  *logrus.Entry

	mu     sync.Mutex
	state  State
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}

	statsMu sync.Mutex
	stats   Stats
}

// NewStream binds a handler and an endpoint path to a stream. It does not connect;
// call Run for that. Zero durations in cfg fall back to the package defaults.
func NewStream(cfg *configs.RealtimeConfig, endpoint string, handler Handler, logger *logrus.Logger) *Stream {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if handler == nil {
		handler = HandlerFuncs{}
	}

	config := withDefaults(*cfg)
	streamURL := strings.TrimSuffix(config.BaseURL, "/") + "/" + strings.TrimPrefix(endpoint, "/")

	return &Stream{
		config:  config,
		url:     streamURL,
		handler: handler,
		logger:  logger.WithFields(logrus.Fields{"component": "realtime", "url": streamURL}),
		done:    make(chan struct{}),
	}
}

func withDefaults(cfg configs.RealtimeConfig) configs.RealtimeConfig {
	defaults := configs.DefaultRealtimeConfig(cfg.BaseURL)
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaults.PingInterval
	}
	if cfg.CloseGracePeriod <= 0 {
		cfg.CloseGracePeriod = defaults.CloseGracePeriod
	}
	return cfg
}

// URL returns the full websocket URL of the stream.
func (s *Stream) URL() string {
	return s.url
}

// State returns the current lifecycle stage.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns a snapshot of the message counters.
func (s *Stream) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// Run connects and blocks until the connection ends. Frames are decoded and handed
// to the handler one at a time in arrival order; a frame that fails to decode is
// reported through OnError and the connection stays open. Cancelling ctx has the
// same effect as Close. Run returns nil after a close handshake or a local Close,
// and the transport error otherwise.
func (s *Stream) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrStreamUsed
	}
	s.state = StateConnecting
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	stop := context.AfterFunc(runCtx, func() { _ = s.Close() })
	defer stop()

	conn, err := s.dial(runCtx)
	if err != nil {
		if s.State() == StateClosed {
			return nil
		}
		s.setState(StateClosed)
		s.logger.WithError(err).Error("Failed to connect to WebSocket")
		s.handler.OnError(err)
		return err
	}
	defer conn.Close()

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.conn = conn
	s.state = StateOpen
	s.mu.Unlock()

	s.logger.Info("Connected to WebSocket")
	return s.serve(conn)
}

// Close ends the stream. It sends a normal-closure frame and tears the socket
// down if the peer does not answer within the grace period. Calling it again is a
// no-op. Close never calls OnClose itself.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosed
	conn := s.conn
	cancel := s.cancel
	s.mu.Unlock()

	close(s.done)
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.config.WriteTimeout))
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			s.logger.WithError(err).Debug("Failed to send close frame")
		}
	}
	s.logger.Info("Stream closed")
	return nil
}

func (s *Stream) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Stream) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  s.config.HandshakeTimeout,
		EnableCompression: true,
	}
	if s.config.InsecureSkipVerify {
		s.logger.Warn("TLS certificate verification is DISABLED for the realtime feed, the peer is not authenticated")
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-in
	}

	conn, resp, err := dialer.DialContext(ctx, s.url, handshakeHeaders())
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to WebSocket (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect to WebSocket: %w", err)
	}
	return conn, nil
}

// handshakeHeaders keeps intermediaries from serving a cached upgrade response.
func handshakeHeaders() http.Header {
	header := http.Header{}
	header.Set("Pragma", "no-cache")
	header.Set("Cache-Control", "no-cache")
	header.Set("Sec-Fetch-Dest", "websocket")
	header.Set("Sec-Fetch-Mode", "websocket")
	header.Set("Sec-Fetch-Site", "same-site")
	return header
}

// serve runs the event loop of an open connection.
func (s *Stream) serve(conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	quit := make(chan struct{})
	defer close(quit)

	// frames is unbuffered so every frame read before an error is dispatched
	// before that error is seen.
	frames := make(chan []byte)
	readErrors := make(chan error, 1)

	go func() {
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				readErrors <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

			select {
			case frames <- message:
			case <-quit:
				return
			}
		}
	}()

	pingTicker := time.NewTicker(s.config.PingInterval)
	defer pingTicker.Stop()

	done := s.done
	var forceClose <-chan time.Time

	for {
		select {
		case message := <-frames:
			s.dispatch(message)

		case err := <-readErrors:
			return s.finish(err)

		case <-pingTicker.C:
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout))
			if err != nil && s.State() != StateClosed {
				s.setState(StateClosed)
				s.logger.WithError(err).Error("Failed to send ping")
				s.handler.OnError(err)
				return fmt.Errorf("failed to send ping: %w", err)
			}

		case <-done:
			// wait for the peer's close frame, then give up on it
			done = nil
			forceClose = time.After(s.config.CloseGracePeriod)

		case <-forceClose:
			forceClose = nil
			s.logger.Debug("No close frame from peer, dropping connection")
			_ = conn.Close()
		}
	}
}

// finish maps the error that ended the read loop to handler calls.
func (s *Stream) finish(err error) error {
	localClose := s.State() == StateClosed
	s.setState(StateClosed)

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code != websocket.CloseAbnormalClosure {
		code := closeErr.Code
		if code == websocket.CloseNoStatusReceived {
			code = 0
		}
		if code != 0 || closeErr.Text != "" {
			s.logger.WithFields(logrus.Fields{"code": code, "reason": closeErr.Text}).Info("Connection closed by peer")
			s.handler.OnClose(code, closeErr.Text)
		}
		return nil
	}

	if localClose {
		return nil
	}
	s.logger.WithError(err).Error("WebSocket read error")
	s.handler.OnError(err)
	return fmt.Errorf("WebSocket read error: %w", err)
}

func (s *Stream) dispatch(message []byte) {
	set, err := decodeFrame(message)

	s.statsMu.Lock()
	s.stats.Messages++
	s.stats.LastMessageAt = time.Now()
	if err != nil {
		s.stats.DecodeErrors++
	}
	s.statsMu.Unlock()

	if err != nil {
		s.logger.WithError(err).Warn("Failed to decode message")
		s.handler.OnError(err)
		return
	}
	s.handler.OnData(set)
}

type frame struct {
	Data json.RawMessage `json:"data"`
}

func decodeFrame(message []byte) (gasprice.FeeEstimateSet, error) {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil {
		return gasprice.FeeEstimateSet{}, &gasprice.DecodeError{Field: "message", Err: fmt.Errorf("%w: %v", gasprice.ErrWrongType, err)}
	}

	set, err := gasprice.DecodeFeeEstimateSet(f.Data)
	if err != nil {
		var decodeErr *gasprice.DecodeError
		if errors.As(err, &decodeErr) {
			if decodeErr.Field == "" {
				decodeErr.Field = "data"
			} else {
				decodeErr.Field = "data." + decodeErr.Field
			}
		}
		return gasprice.FeeEstimateSet{}, err
	}
	return set, nil
}
