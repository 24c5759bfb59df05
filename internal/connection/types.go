package connection

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrInvalidOrigin   = errors.New("invalid origin")
	ErrEmptyPlayerID   = errors.New("player id is required")
)

// Defaults for the reconnect policy and connection target.
const (
	DefaultReconnectDelay       = 3 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultPath                 = "/ws"
)

// Defaults for the gorilla/websocket handle.
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultPingInterval     = 30 * time.Second
	DefaultPingTimeout      = 90 * time.Second
)

// Event is a listener category.
type Event string

const (
	EventOpen    Event = "open"
	EventClose   Event = "close"
	EventError   Event = "error"
	EventMessage Event = "message"
)

// Events lists every recognized listener category.
var Events = []Event{EventOpen, EventClose, EventError, EventMessage}

// Valid reports whether e is a recognized category.
func (e Event) Valid() bool {
	switch e {
	case EventOpen, EventClose, EventError, EventMessage:
		return true
	}
	return false
}

// ReadyState is the state of a connection handle.
type ReadyState int32

const (
	// Connecting means the handshake has not completed yet.
	Connecting ReadyState = iota
	// Open means the connection is established and can send.
	Open
	// Closing means Close was called and the handle is shutting down.
	Closing
	// Closed means the connection is closed or could not be opened.
	Closed
)

func (s ReadyState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is a single connection attempt. Handles are never reused: a reconnect
// dials a new one.
type Conn interface {
	// Send writes one text frame. Returns ErrNotConnected unless Open.
	Send(data []byte) error

	// Close starts closing the handle. The sink's OnClose follows.
	Close() error

	// State returns the current ready state.
	State() ReadyState
}

// Sink receives lifecycle callbacks from a Conn. A Conn reports OnOpen at most
// once and OnClose exactly once, always last. OnError may precede OnClose.
type Sink interface {
	OnOpen()
	OnClose()
	OnError(err error)
	OnMessage(data []byte)
}

// DialRequest describes one connection attempt.
type DialRequest struct {
	URL       string    // Full ws:// or wss:// target
	PlayerID  string    // Player identity carried in the query string
	AttemptID uuid.UUID // Unique per handle, sent as X-Connection-Id
}

// Dialer creates a new handle for req. It must return without blocking on the
// network; the outcome is reported through sink.
type Dialer func(req DialRequest, sink Sink) Conn

// ClientConfig configures the gorilla/websocket handle.
type ClientConfig struct {
	HandshakeTimeout time.Duration // Dial + upgrade deadline
	WriteTimeout     time.Duration // Write deadline for sends and control frames
	PingInterval     time.Duration // Keepalive ping period (0 disables)
	PingTimeout      time.Duration // Max time without ping/pong before the handle is considered stale
	UserAgent        string        // Optional User-Agent header
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		PingInterval:     DefaultPingInterval,
		PingTimeout:      DefaultPingTimeout,
	}
}

// Metrics receives connection lifecycle counters.
type Metrics interface {
	IncConnections()
	IncDisconnects()
	IncReconnects()
	IncMessages()
	IncDecodeErrors()
	SetConnectionStatus(status float64)
}

type nopMetrics struct{}

func (nopMetrics) IncConnections()                    {}
func (nopMetrics) IncDisconnects()                    {}
func (nopMetrics) IncReconnects()                     {}
func (nopMetrics) IncMessages()                       {}
func (nopMetrics) IncDecodeErrors()                   {}
func (nopMetrics) SetConnectionStatus(status float64) {}
