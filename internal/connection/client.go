package connection

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn is a Conn backed by gorilla/websocket.
type wsConn struct {
	cfg    ClientConfig
	req    DialRequest
	sink   Sink
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// Write serialization
	writeMu sync.Mutex

	// State
	mu         sync.RWMutex
	conn       *websocket.Conn
	state      ReadyState
	failed     bool // error already reported to sink
	lastPingAt time.Time
}

// NewDialer returns a Dialer that opens gorilla/websocket handles.
func NewDialer(cfg ClientConfig, logger *slog.Logger) Dialer {
	if logger == nil {
		logger = slog.Default()
	}

	return func(req DialRequest, sink Sink) Conn {
		ctx, cancel := context.WithCancel(context.Background())
		c := &wsConn{
			cfg:    cfg,
			req:    req,
			sink:   sink,
			logger: logger.With("attempt_id", req.AttemptID.String()),
			ctx:    ctx,
			cancel: cancel,
			state:  Connecting,
		}
		go c.run()
		return c
	}
}

// run dials, reports open, and reads until the connection ends.
func (c *wsConn) run() {
	defer c.finish()

	header := http.Header{}
	header.Set("X-Connection-Id", c.req.AttemptID.String())
	if c.cfg.UserAgent != "" {
		header.Set("User-Agent", c.cfg.UserAgent)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(c.ctx, c.req.URL, header)
	if err != nil {
		// Close during connect is not a transport error
		if c.ctx.Err() == nil {
			c.logger.Debug("websocket dial failed", "url", c.req.URL, "error", err)
			c.reportError(err)
		}
		return
	}

	c.mu.Lock()
	if c.state != Connecting {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state = Open
	c.lastPingAt = time.Now()
	c.mu.Unlock()

	// Server sends ping, we respond with pong
	conn.SetPingHandler(func(data string) error {
		c.touch()
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	conn.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	c.logger.Debug("websocket connected", "url", c.req.URL)
	c.sink.OnOpen()

	if c.cfg.PingInterval > 0 {
		go c.heartbeatLoop(conn)
	}

	c.readLoop(conn)
}

// readLoop forwards frames to the sink until the connection fails or closes.
func (c *wsConn) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.RLock()
			closing := c.state == Closing
			c.mu.RUnlock()

			if !closing && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.reportError(err)
			}
			c.logger.Debug("websocket read ended", "error", err)
			return
		}

		c.sink.OnMessage(data)
	}
}

// heartbeatLoop pings the server and fails the handle when it goes quiet.
func (c *wsConn) heartbeatLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}
			c.writeMu.Unlock()

			c.mu.RLock()
			lastPing := c.lastPingAt
			c.mu.RUnlock()

			if c.cfg.PingTimeout > 0 && time.Since(lastPing) > c.cfg.PingTimeout {
				c.logger.Warn("no ping received, connection stale",
					"last_ping", lastPing,
					"timeout", c.cfg.PingTimeout,
				)
				c.reportError(ErrStaleConnection)
				conn.Close()
				return
			}
		}
	}
}

// reportError forwards the first transport error to the sink.
func (c *wsConn) reportError(err error) {
	c.mu.Lock()
	if c.failed {
		c.mu.Unlock()
		return
	}
	c.failed = true
	c.mu.Unlock()

	c.sink.OnError(err)
}

func (c *wsConn) touch() {
	c.mu.Lock()
	c.lastPingAt = time.Now()
	c.mu.Unlock()
}

// finish marks the handle closed and reports OnClose exactly once.
func (c *wsConn) finish() {
	c.cancel()

	c.mu.Lock()
	c.state = Closed
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}

	c.sink.OnClose()
}

// Send writes one text frame.
func (c *wsConn) Send(data []byte) error {
	c.mu.RLock()
	if c.state != Open {
		c.mu.RUnlock()
		return ErrNotConnected
	}
	conn := c.conn
	c.mu.RUnlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close starts a graceful close. Safe to call more than once.
func (c *wsConn) Close() error {
	c.mu.Lock()
	switch c.state {
	case Closing, Closed:
		c.mu.Unlock()
		return nil
	case Connecting:
		c.state = Closing
		c.mu.Unlock()
		c.cancel()
		return nil
	}
	c.state = Closing
	conn := c.conn
	c.mu.Unlock()

	c.cancel()

	c.writeMu.Lock()
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()

	// Unblocks readLoop, which then reports OnClose
	return conn.Close()
}

// State returns the current ready state.
func (c *wsConn) State() ReadyState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}
