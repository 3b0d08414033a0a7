package client

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/zkmesh-go/internal/core/domain"
	"github.com/yndnr/zkmesh-go/internal/eventhandler"
	"github.com/yndnr/zkmesh-go/internal/infra/procid"
	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
	"github.com/yndnr/zkmesh-go/internal/threadpool"
)

// Client is a ZooKeeper client whose session survives reconnects, fork
// boundaries and shutdown from any goroutine.
type Client struct {
	id       ulid.ULID
	cfg      Config
	logger   logger.Logger
	observer Observer
	pool     *threadpool.Pool
	events   *eventhandler.Handler

	// forkMu serializes PauseBeforeFork, ResumeAfterFork and the child path.
	// Callbacks never take it.
	forkMu sync.Mutex

	// lock guards state and conn. It is a pointer so the child path can
	// swap in a fresh mutex when the old holder did not survive the fork.
	lock  atomic.Pointer[sync.Mutex]
	state domain.ClientState
	conn  Connection
	done  chan struct{} // closed once state is closed

	owner atomic.Pointer[procid.Identity]
}

// New creates a client. With AutoConnect set it connects before
// returning, waiting up to cfg.Timeout.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	c := &Client{
		id:       domain.NewID(),
		cfg:      cfg,
		observer: cfg.Observer,
		state:    domain.StateRunning,
		done:     make(chan struct{}),
	}
	c.logger = cfg.Logger.With("client_id", c.id.String())
	c.lock.Store(&sync.Mutex{})
	owner := cfg.Identity()
	c.owner.Store(&owner)

	pool, err := threadpool.New(cfg.PoolSize,
		threadpool.WithLogger(c.logger),
		threadpool.WithObserver(cfg.Observer),
		threadpool.WithReleaseTimeout(cfg.ShutdownTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create callback pool: %w", err)
	}
	c.pool = pool
	c.events = eventhandler.New(pool,
		eventhandler.WithLogger(c.logger),
		eventhandler.WithObserver(cfg.Observer),
	)
	c.events.RegisterSession(c.handleSessionEvent)
	c.observer.SetClientState(c.state.String())

	if cfg.AutoConnect {
		if err := c.Connect(cfg.connectTimeout()); err != nil {
			_ = pool.Shutdown(cfg.ShutdownTimeout)
			return nil, err
		}
	}

	c.logger.Info("client created", "servers", cfg.Servers, "pool_size", cfg.PoolSize, "reconnect", cfg.Reconnect)
	return c, nil
}

// ID returns the client instance ID.
func (c *Client) ID() string {
	return c.id.String()
}

// lockPollInterval is how often acquireContext and the child path retry a
// contended lock.
const lockPollInterval = time.Millisecond

// acquire locks the current mutex and returns its unlock. A waiter woken on
// a mutex the child path has since replaced retries on the new one.
func (c *Client) acquire() func() {
	for {
		mu := c.lock.Load()
		mu.Lock()
		if c.lock.Load() == mu {
			return mu.Unlock
		}
		mu.Unlock()
	}
}

// tryAcquire is acquire without blocking.
func (c *Client) tryAcquire() (func(), bool) {
	mu := c.lock.Load()
	if !mu.TryLock() {
		return nil, false
	}
	if c.lock.Load() != mu {
		mu.Unlock()
		return nil, false
	}
	return mu.Unlock, true
}

// acquireContext is acquire that gives up once ctx is done.
func (c *Client) acquireContext(ctx context.Context) (func(), error) {
	if unlock, ok := c.tryAcquire(); ok {
		return unlock, nil
	}
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			if unlock, ok := c.tryAcquire(); ok {
				return unlock, nil
			}
		}
	}
}

// lockWithin tries to lock mu until d elapses.
func lockWithin(mu *sync.Mutex, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for !mu.TryLock() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(lockPollInterval)
	}
	return true
}

func (c *Client) setStateLocked(s domain.ClientState) {
	if c.state == s {
		return
	}
	c.logger.Debug("client state changed", "from", c.state.String(), "to", s.String())
	c.state = s
	c.observer.SetClientState(s.String())
}

// State returns the current lifecycle state.
func (c *Client) State() domain.ClientState {
	unlock := c.acquire()
	defer unlock()
	return c.state
}

// IsRunning reports whether the client is running.
func (c *Client) IsRunning() bool { return c.State() == domain.StateRunning }

// IsPaused reports whether the client is paused for a fork.
func (c *Client) IsPaused() bool { return c.State() == domain.StatePaused }

// IsCloseRequested reports whether Close has started but not finished.
func (c *Client) IsCloseRequested() bool { return c.State() == domain.StateCloseRequested }

// IsClosed reports whether the shutdown sequence has completed.
func (c *Client) IsClosed() bool { return c.State() == domain.StateClosed }

// OnException registers fn to receive panics raised by callbacks.
func (c *Client) OnException(fn func(recovered any)) {
	c.pool.OnException(fn)
}

// OnThreadpool reports whether ctx belongs to a callback running on this
// client's pool.
func (c *Client) OnThreadpool(ctx context.Context) bool {
	return c.pool.OnThreadpool(ctx)
}

// Register subscribes fn to node events for path. The watch itself must be
// armed with one of the W data operations.
func (c *Client) Register(path string, fn eventhandler.Callback) eventhandler.Subscription {
	return c.events.Register(path, fn)
}

// RegisterSession subscribes fn to session events.
func (c *Client) RegisterSession(fn eventhandler.Callback) eventhandler.Subscription {
	return c.events.RegisterSession(fn)
}

// Unregister removes a subscription.
func (c *Client) Unregister(s eventhandler.Subscription) bool {
	return c.events.Unregister(s)
}
