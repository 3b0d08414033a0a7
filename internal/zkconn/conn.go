package zkconn

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/Shopify/zk"

	"github.com/yndnr/zkmesh-go/internal/core/domain"
	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

// WaitForever makes WaitConnected block until a session is established.
const WaitForever time.Duration = -1

// DefaultSessionTimeout is the session timeout requested from the ensemble.
const DefaultSessionTimeout = 10 * time.Second

// Auth holds credentials added to every new connection.
type Auth struct {
	Scheme      string
	Credentials string
}

// Options configures a Conn.
type Options struct {
	SessionTimeout time.Duration
	// ConnectRate caps dial attempts per second across the ensemble.
	ConnectRate float64
	Auth        *Auth
	Logger      logger.Logger
	// HostProvider overrides the DNS host provider.
	HostProvider func() zk.HostProvider
	// TLS, when set, wraps every connection to the ensemble.
	TLS *tls.Config
}

// Conn is a reopenable ZooKeeper connection.
type Conn struct {
	servers []string
	opts    Options
	watcher zk.EventCallback
	logger  logger.Logger

	mu         sync.RWMutex
	conn       *zk.Conn
	generation uint64
	paused     bool
	closed     bool

	stateMu sync.Mutex
	state   zk.State
	changed chan struct{}
}

// Dial connects to servers and waits up to timeout for a session.
// watcher receives every event of the connection, session and node alike,
// and must not block.
func Dial(servers []string, timeout time.Duration, watcher zk.EventCallback, opts Options) (*Conn, error) {
	if len(servers) == 0 {
		return nil, domain.ErrInvalidConfig.WithDetails("no servers")
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = DefaultSessionTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	c := &Conn{
		servers: append([]string(nil), servers...),
		opts:    opts,
		watcher: watcher,
		logger:  opts.Logger.With("component", "zkconn"),
		state:   zk.StateDisconnected,
		changed: make(chan struct{}),
	}

	c.mu.Lock()
	err := c.dialLocked()
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := c.WaitConnected(timeout); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Factory returns a constructor bound to opts.
func Factory(opts Options) func(servers []string, timeout time.Duration, watcher zk.EventCallback) (*Conn, error) {
	return func(servers []string, timeout time.Duration, watcher zk.EventCallback) (*Conn, error) {
		return Dial(servers, timeout, watcher, opts)
	}
}

// dialLocked replaces c.conn with a fresh connection. c.mu must be held.
func (c *Conn) dialLocked() error {
	c.generation++
	gen := c.generation
	c.setState(zk.StateConnecting)

	var hp zk.HostProvider
	if c.opts.HostProvider != nil {
		hp = c.opts.HostProvider()
	}

	dialer := zk.Dialer(net.DialTimeout)
	if c.opts.TLS != nil {
		dialer = TLSDialer(c.opts.TLS)
	}

	conn, _, err := zk.Connect(c.servers, c.opts.SessionTimeout,
		zk.WithEventCallback(c.callback(gen)),
		zk.WithLogger(logger.NewPrintfAdapter(c.logger, slog.LevelDebug, "zk")),
		zk.WithHostProvider(NewThrottledHostProvider(hp, c.opts.ConnectRate)),
		zk.WithDialer(dialer),
	)
	if err != nil {
		c.setState(zk.StateDisconnected)
		return fmt.Errorf("dial %v: %w", c.servers, err)
	}
	c.conn = conn

	if a := c.opts.Auth; a != nil && a.Scheme != "" {
		go c.authenticate(conn, a)
	}

	c.logger.Debug("dialed ensemble", "servers", c.servers, "generation", gen)
	return nil
}

// authenticate adds credentials once the request can be sent. The zk
// library replays them itself after a transparent reconnect.
func (c *Conn) authenticate(conn *zk.Conn, a *Auth) {
	if err := conn.AddAuth(a.Scheme, []byte(a.Credentials)); err != nil {
		c.logger.Warn("add auth failed", "scheme", a.Scheme, "error", err)
	}
}

// callback tracks session state for the connection of generation gen and
// forwards its events to the watcher. Events from replaced connections are
// dropped.
func (c *Conn) callback(gen uint64) zk.EventCallback {
	return func(ev zk.Event) {
		c.mu.RLock()
		current := c.generation == gen
		c.mu.RUnlock()
		if !current {
			return
		}

		if ev.Type == zk.EventSession {
			c.setState(ev.State)
		}
		if c.watcher != nil {
			c.watcher(ev)
		}
	}
}

func (c *Conn) setState(s zk.State) {
	c.stateMu.Lock()
	c.state = s
	close(c.changed)
	c.changed = make(chan struct{})
	c.stateMu.Unlock()
}

func (c *Conn) sessionState() (zk.State, <-chan struct{}) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state, c.changed
}

// WaitConnected waits for the current connection to hold a session.
// A zero timeout returns immediately, WaitForever never times out.
func (c *Conn) WaitConnected(timeout time.Duration) error {
	if timeout == 0 {
		return nil
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		state, changed := c.sessionState()
		switch state {
		case zk.StateHasSession:
			return nil
		case zk.StateAuthFailed:
			return domain.ErrAuthFailed
		}
		if c.isClosed() {
			return domain.ErrClientClosed
		}

		select {
		case <-changed:
		case <-deadline:
			return domain.ErrConnectTimeout.WithDetails(fmt.Sprintf("no session after %s (state %s)", timeout, state))
		}
	}
}

// Reopen closes the current connection and dials a new one, then waits up
// to timeout for its session.
func (c *Conn) Reopen(timeout time.Duration) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrClientClosed
	}
	old := c.conn
	c.conn = nil
	err := c.dialLocked()
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	if err != nil {
		return err
	}
	return c.WaitConnected(timeout)
}

// PauseBeforeFork closes the underlying connection so none of its
// goroutines survive. Data operations fail until ResumeAfterFork.
func (c *Conn) PauseBeforeFork() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrClientClosed
	}
	if c.paused {
		c.mu.Unlock()
		return domain.ErrInvalidState.WithDetails("connection already paused")
	}
	c.paused = true
	old := c.conn
	c.conn = nil
	c.generation++
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	c.setState(zk.StateDisconnected)
	return nil
}

// ResumeAfterFork dials a fresh connection without waiting for a session.
func (c *Conn) ResumeAfterFork() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrClientClosed
	}
	if !c.paused {
		return domain.ErrInvalidState.WithDetails("connection not paused")
	}
	if err := c.dialLocked(); err != nil {
		return err
	}
	c.paused = false
	return nil
}

// Close closes the connection. It is idempotent.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	old := c.conn
	c.conn = nil
	c.generation++
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	c.setState(zk.StateDisconnected)
	return nil
}

func (c *Conn) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Conn) current() (*zk.Conn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, domain.ErrClientClosed
	}
	if c.conn == nil {
		return nil, domain.ErrNotConnected
	}
	return c.conn, nil
}

// State returns the session state of the current connection.
func (c *Conn) State() zk.State {
	conn, err := c.current()
	if err != nil {
		return zk.StateDisconnected
	}
	return conn.State()
}

// SessionID returns the current session ID, or 0 when not connected.
func (c *Conn) SessionID() int64 {
	conn, err := c.current()
	if err != nil {
		return 0
	}
	return conn.SessionID()
}

// Server returns the ensemble member the connection is attached to.
func (c *Conn) Server() string {
	conn, err := c.current()
	if err != nil {
		return ""
	}
	return conn.Server()
}

// Servers returns the configured ensemble.
func (c *Conn) Servers() []string {
	return append([]string(nil), c.servers...)
}
