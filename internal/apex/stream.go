package apex

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yesmonga/karting-sub000/internal/logger"
	"github.com/yesmonga/karting-sub000/internal/metrics"
)

// Handler receives every text message of a feed
type Handler func(msg string)

// Feed delivers feed messages to a handler until its context is cancelled
type Feed interface {
	Run(ctx context.Context) error
	Name() string
}

// StreamConfig controls the WebSocket connection to the timing vendor
type StreamConfig struct {
	URL              string
	ReconnectMin     time.Duration
	ReconnectMax     time.Duration
	ReadTimeout      time.Duration
	HandshakeTimeout time.Duration
	Header           http.Header
}

// DefaultStreamConfig returns default connection settings for url
func DefaultStreamConfig(url string) StreamConfig {
	return StreamConfig{
		URL:              url,
		ReconnectMin:     time.Second,
		ReconnectMax:     30 * time.Second,
		ReadTimeout:      60 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// StreamClient reads the live feed over a WebSocket, reconnecting with
// exponential backoff whenever the connection drops
type StreamClient struct {
	cfg     StreamConfig
	dialer  websocket.Dialer
	handler Handler
	logger  *logger.LiveLogger

	mu          sync.RWMutex
	connected   bool
	lastMessage time.Time
}

// NewStreamClient creates a new stream client
func NewStreamClient(cfg StreamConfig, handler Handler, log *logger.LiveLogger) *StreamClient {
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = time.Second
	}
	if cfg.ReconnectMax < cfg.ReconnectMin {
		cfg.ReconnectMax = cfg.ReconnectMin
	}
	if log == nil {
		log = logger.NewLiveLogger(logger.NewNopLogger())
	}
	return &StreamClient{
		cfg:     cfg,
		dialer:  websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout, Proxy: http.ProxyFromEnvironment},
		handler: handler,
		logger:  log,
	}
}

// Name returns the feed URL
func (c *StreamClient) Name() string {
	return c.cfg.URL
}

// Run connects and reads until ctx is cancelled. It only returns ctx's error.
func (c *StreamClient) Run(ctx context.Context) error {
	backoff := c.cfg.ReconnectMin
	for attempt := 1; ; attempt++ {
		received, err := c.session(ctx, attempt)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if received {
			backoff = c.cfg.ReconnectMin
		}

		c.logger.LogDisconnected(c.cfg.URL, err, backoff)
		metrics.RecordReconnect()

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if backoff > c.cfg.ReconnectMax {
			backoff = c.cfg.ReconnectMax
		}
	}
}

// session runs one connection and reports whether any message was read
func (c *StreamClient) session(ctx context.Context, attempt int) (bool, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
	if err != nil {
		return false, fmt.Errorf("failed to connect to feed: %w", err)
	}
	defer conn.Close()

	c.setConnected(true)
	defer c.setConnected(false)
	c.logger.LogConnected(c.cfg.URL, attempt)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	received := false
	for {
		if c.cfg.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
				return received, err
			}
		}
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return received, fmt.Errorf("failed to read feed: %w", err)
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		received = true
		c.touch()
		c.handler(string(data))
	}
}

func (c *StreamClient) setConnected(connected bool) {
	c.mu.Lock()
	c.connected = connected
	c.mu.Unlock()
	metrics.SetLiveConnected(connected)
}

func (c *StreamClient) touch() {
	c.mu.Lock()
	c.lastMessage = time.Now()
	c.mu.Unlock()
}

// IsConnected returns whether the stream is connected
func (c *StreamClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// LastMessageTime returns the time of the last received message
func (c *StreamClient) LastMessageTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastMessage
}
