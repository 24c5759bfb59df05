package connection

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithReconnectDelay sets the fixed wait before each reconnect attempt.
func WithReconnectDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d < 0 {
			d = 0
		}
		m.delay = d
	}
}

// WithMaxReconnectAttempts sets how many consecutive reconnects are tried
// before giving up. Zero disables reconnection.
func WithMaxReconnectAttempts(n int) Option {
	return func(m *Manager) {
		if n < 0 {
			n = 0
		}
		m.maxAttempts = n
	}
}

// WithPath overrides the WebSocket path on the origin host.
func WithPath(path string) Option {
	return func(m *Manager) {
		m.path = path
	}
}

// WithClientConfig configures the default gorilla/websocket dialer.
// Ignored when WithDialer is also given.
func WithClientConfig(cfg ClientConfig) Option {
	return func(m *Manager) {
		m.clientCfg = cfg
	}
}

// WithDialer replaces the transport.
func WithDialer(dial Dialer) Option {
	return func(m *Manager) {
		m.dial = dial
	}
}

// WithScheduler replaces the timer used for reconnect delays.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) {
		m.sched = s
	}
}

// WithMetrics sets a metrics collector.
func WithMetrics(metrics Metrics) Option {
	return func(m *Manager) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// WithListener registers l under ev before the first dial, so it cannot miss
// the initial open.
func WithListener(ev Event, l Listener) Option {
	return func(m *Manager) {
		m.listeners.add(ev, l)
	}
}

type eventKind int

const (
	kindOpen eventKind = iota
	kindClose
	kindError
	kindMessage
	kindRetry
)

// event is one queued transport callback or timer firing.
type event struct {
	kind    eventKind
	attempt *attempt
	data    []byte
	err     error
	retry   uint64
}

// attempt is one connection handle plus the sink it reports through.
type attempt struct {
	m      *Manager
	id     uuid.UUID
	conn   Conn
	logger *slog.Logger
}

func (a *attempt) OnOpen()  { a.m.enqueue(event{kind: kindOpen, attempt: a}) }
func (a *attempt) OnClose() { a.m.enqueue(event{kind: kindClose, attempt: a}) }
func (a *attempt) OnError(err error) {
	a.m.enqueue(event{kind: kindError, attempt: a, err: err})
}
func (a *attempt) OnMessage(data []byte) {
	a.m.enqueue(event{kind: kindMessage, attempt: a, data: data})
}

// Manager owns one player's connection, its listeners and the reconnect
// counter.
type Manager struct {
	id       uuid.UUID
	playerID string
	target   string
	path     string

	delay       time.Duration
	maxAttempts int
	clientCfg   ClientConfig

	dial      Dialer
	sched     Scheduler
	metrics   Metrics
	logger    *slog.Logger
	listeners *registry

	// Dispatch loop
	wake chan struct{}
	done chan struct{}

	mu       sync.Mutex
	queue    []event
	current  *attempt // handle eligible to send, nil when none
	closing  *attempt // handle closed by Close, awaiting its close event
	attempts int      // consecutive reconnects since the last open
	retry    Task     // pending reconnect
	retrySeq uint64
	stopped  bool
}

// New creates a Manager for playerID and starts connecting immediately.
// origin is the address the client was served from (for example
// https://game.example.com); it decides between ws and wss.
func New(origin, playerID string, opts ...Option) (*Manager, error) {
	m := &Manager{
		id:          uuid.New(),
		playerID:    playerID,
		path:        DefaultPath,
		delay:       DefaultReconnectDelay,
		maxAttempts: DefaultMaxReconnectAttempts,
		clientCfg:   DefaultClientConfig(),
		sched:       timerScheduler{},
		metrics:     nopMetrics{},
		logger:      slog.Default(),
		listeners:   newRegistry(),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	target, err := TargetURL(origin, m.path, playerID)
	if err != nil {
		return nil, fmt.Errorf("derive target: %w", err)
	}
	m.target = target

	m.logger = m.logger.With("player_id", playerID, "manager_id", m.id.String())
	if m.dial == nil {
		m.dial = NewDialer(m.clientCfg, m.logger)
	}

	m.connect()
	go m.run()

	m.logger.Info("connection manager started",
		"url", m.target,
		"reconnect_delay", m.delay,
		"max_attempts", m.maxAttempts,
	)

	return m, nil
}

// ID returns the manager's instance ID.
func (m *Manager) ID() uuid.UUID {
	return m.id
}

// PlayerID returns the identity the manager connects as.
func (m *Manager) PlayerID() string {
	return m.playerID
}

// URL returns the derived connection target.
func (m *Manager) URL() string {
	return m.target
}

// Send transmits data unmodified if the connection is open. Otherwise the
// data is dropped; nothing is queued.
func (m *Manager) Send(data []byte) {
	conn := m.currentConn()
	if conn == nil || conn.State() != Open {
		m.logger.Debug("dropping send, not connected", "bytes", len(data))
		return
	}

	if err := conn.Send(data); err != nil {
		m.logger.Debug("send failed", "error", err)
	}
}

// Close closes the current handle, cancels any pending reconnect and stops
// further automatic reconnection. Close listeners still see the handle's
// final close event. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true

	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}

	var conn Conn
	if a := m.current; a != nil {
		m.closing = a
		m.current = nil
		conn = a.conn
	}
	m.mu.Unlock()

	m.logger.Info("closing connection manager")
	m.signal()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected reports whether the current handle is open.
func (m *Manager) IsConnected() bool {
	conn := m.currentConn()
	return conn != nil && conn.State() == Open
}

// State returns the ready state of the current handle, or Closed when there
// is none.
func (m *Manager) State() ReadyState {
	m.mu.Lock()
	a := m.current
	var conn Conn
	if a != nil {
		conn = a.conn
	}
	m.mu.Unlock()

	switch {
	case a == nil:
		return Closed
	case conn == nil:
		return Connecting
	default:
		return conn.State()
	}
}

// Attempts returns the number of consecutive reconnects since the last open.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Done is closed once the manager has been closed and its last close event
// has been dispatched.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// On registers l under ev. Unknown categories are ignored.
func (m *Manager) On(ev Event, l Listener) {
	if !m.listeners.add(ev, l) {
		m.logger.Debug("ignoring listener registration", "event", ev)
	}
}

// Off removes every registration of l under ev. Unknown categories are
// ignored.
func (m *Manager) Off(ev Event, l Listener) {
	m.listeners.remove(ev, l)
}

func (m *Manager) currentConn() Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	return m.current.conn
}

// connect dials a new handle and makes it current.
func (m *Manager) connect() {
	a := &attempt{m: m, id: uuid.New()}
	a.logger = m.logger.With("attempt_id", a.id.String())

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.current = a
	attempts := m.attempts
	m.mu.Unlock()

	a.logger.Info("connecting", "url", m.target, "attempt", attempts)

	conn := m.dial(DialRequest{
		URL:       m.target,
		PlayerID:  m.playerID,
		AttemptID: a.id,
	}, a)

	m.mu.Lock()
	a.conn = conn
	closeNow := m.closing == a
	m.mu.Unlock()

	// Close raced with the dial
	if closeNow {
		conn.Close()
	}
}

func (m *Manager) enqueue(ev event) {
	m.mu.Lock()
	m.queue = append(m.queue, ev)
	m.mu.Unlock()
	m.signal()
}

func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) next() (event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return event{}, false
	}
	ev := m.queue[0]
	m.queue[0] = event{}
	m.queue = m.queue[1:]
	return ev, true
}

// drained reports whether the manager is closed and has nothing left to
// deliver.
func (m *Manager) drained() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped && m.closing == nil && len(m.queue) == 0
}

// run is the dispatch loop. Every listener call happens here.
func (m *Manager) run() {
	defer close(m.done)

	for {
		<-m.wake

		for {
			ev, ok := m.next()
			if !ok {
				break
			}
			m.handle(ev)
		}

		if m.drained() {
			m.logger.Info("connection manager stopped")
			return
		}
	}
}

func (m *Manager) handle(ev event) {
	switch ev.kind {
	case kindOpen:
		m.handleOpen(ev.attempt)
	case kindClose:
		m.handleClose(ev.attempt)
	case kindError:
		m.handleError(ev.attempt, ev.err)
	case kindMessage:
		m.handleMessage(ev.attempt, ev.data)
	case kindRetry:
		m.handleRetry(ev.retry)
	}
}

// owns reports whether a's events should still reach listeners.
func (m *Manager) owns(a *attempt) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return a == m.current || a == m.closing
}

func (m *Manager) handleOpen(a *attempt) {
	m.mu.Lock()
	if a != m.current {
		m.mu.Unlock()
		return
	}
	m.attempts = 0
	m.mu.Unlock()

	a.logger.Info("connection open")
	m.metrics.IncConnections()
	m.metrics.SetConnectionStatus(1)

	m.dispatch(EventOpen, nil)
}

func (m *Manager) handleClose(a *attempt) {
	m.mu.Lock()
	var wasCurrent bool
	switch a {
	case m.current:
		m.current = nil
		wasCurrent = true
	case m.closing:
		m.closing = nil
	default:
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	a.logger.Info("connection closed")
	m.metrics.IncDisconnects()
	m.metrics.SetConnectionStatus(0)

	m.dispatch(EventClose, nil)

	if wasCurrent {
		m.scheduleRetry()
	}
}

// scheduleRetry arms a reconnect unless the manager was closed or the
// attempt budget is spent.
func (m *Manager) scheduleRetry() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	if m.attempts >= m.maxAttempts {
		attempts := m.attempts
		m.mu.Unlock()
		m.logger.Warn("reconnect attempts exhausted, giving up",
			"attempts", attempts,
			"max_attempts", m.maxAttempts,
		)
		return
	}
	m.retrySeq++
	seq := m.retrySeq
	next := m.attempts + 1
	m.mu.Unlock()

	task := m.sched.AfterFunc(m.delay, func() {
		m.enqueue(event{kind: kindRetry, retry: seq})
	})

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		task.Stop()
		return
	}
	m.retry = task
	m.mu.Unlock()

	m.metrics.IncReconnects()
	m.logger.Info("reconnect scheduled",
		"delay", m.delay,
		"attempt", next,
		"max_attempts", m.maxAttempts,
	)
}

func (m *Manager) handleRetry(seq uint64) {
	m.mu.Lock()
	if m.stopped || m.retry == nil || seq != m.retrySeq {
		m.mu.Unlock()
		return
	}
	m.retry = nil
	m.attempts++
	m.mu.Unlock()

	m.connect()
}

func (m *Manager) handleError(a *attempt, err error) {
	if !m.owns(a) {
		return
	}

	a.logger.Warn("connection error", "error", err)
	m.dispatch(EventError, nil)
}

func (m *Manager) handleMessage(a *attempt, data []byte) {
	if !m.owns(a) {
		return
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		a.logger.Error("error parsing websocket message",
			"error", err,
			"bytes", len(data),
		)
		m.metrics.IncDecodeErrors()
		return
	}

	m.metrics.IncMessages()
	m.dispatch(EventMessage, v)
}

// dispatch calls every listener for ev in registration order.
func (m *Manager) dispatch(ev Event, data any) {
	for _, l := range m.listeners.snapshot(ev) {
		m.invoke(ev, l, data)
	}
}

func (m *Manager) invoke(ev Event, l Listener, data any) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("listener panicked", "event", ev, "panic", r)
		}
	}()
	l.Handle(data)
}
