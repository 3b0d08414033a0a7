package client

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/Shopify/zk"

	"github.com/yndnr/zkmesh-go/internal/core/domain"
	"github.com/yndnr/zkmesh-go/internal/eventhandler"
	"github.com/yndnr/zkmesh-go/internal/infra/procid"
	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
	"github.com/yndnr/zkmesh-go/internal/threadpool"
	"github.com/yndnr/zkmesh-go/internal/zkconn"
)

// WaitForever makes Connect and Reopen block until a session is established.
const WaitForever = zkconn.WaitForever

// DefaultShutdownTimeout bounds how long Close waits for pool workers.
const DefaultShutdownTimeout = 10 * time.Second

// DefaultForkLockWait bounds how long the child path waits for the client
// lock before replacing it.
const DefaultForkLockWait = 2 * time.Second

// Connection is the handle the client guards.
type Connection interface {
	Reopen(timeout time.Duration) error
	Close() error
	PauseBeforeFork() error
	ResumeAfterFork() error
	State() zk.State
}

// Factory creates a connection to servers, waiting up to timeout for a
// session. watcher must receive every event of the connection.
type Factory func(servers []string, timeout time.Duration, watcher zk.EventCallback) (Connection, error)

// Observer receives lifecycle statistics. Implemented by metric.Registry.
type Observer interface {
	threadpool.Observer
	eventhandler.Observer
	SetClientState(state string)
	IncReconnects()
}

type nopObserver struct{}

func (nopObserver) SetBufferedTasks(int)   {}
func (nopObserver) IncCallbackPanics()     {}
func (nopObserver) IncSessionEvent(string) {}
func (nopObserver) SetClientState(string)  {}
func (nopObserver) IncReconnects()         {}

// Config configures a Client. Start from DefaultConfig.
type Config struct {
	Servers        []string
	SessionTimeout time.Duration
	// Timeout bounds the initial connect. Zero waits forever.
	Timeout         time.Duration
	PoolSize        int
	Reconnect       bool
	AutoConnect     bool
	ShutdownTimeout time.Duration
	// ForkLockWait bounds how long ReopenAfterFork waits for the client
	// lock before assuming its holder did not survive the fork.
	ForkLockWait time.Duration

	// ConnectRate caps dial attempts per second across the ensemble.
	ConnectRate float64
	Auth        *zkconn.Auth
	// TLS, when set, secures connections to the ensemble.
	TLS *tls.Config

	Logger   logger.Logger
	Observer Observer
	// Factory overrides how connections are made. Defaults to zkconn.Dial.
	Factory Factory
	// Identity reports the current process. Defaults to procid.Current.
	Identity func() procid.Identity
}

// DefaultConfig returns a config for servers with reconnect and
// auto-connect enabled.
func DefaultConfig(servers ...string) Config {
	return Config{
		Servers:         servers,
		SessionTimeout:  zkconn.DefaultSessionTimeout,
		PoolSize:        threadpool.DefaultSize,
		Reconnect:       true,
		AutoConnect:     true,
		ShutdownTimeout: DefaultShutdownTimeout,
		ForkLockWait:    DefaultForkLockWait,
		ConnectRate:     5,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	if len(c.Servers) == 0 {
		return domain.ErrInvalidConfig.WithDetails("at least one server is required")
	}
	if c.PoolSize < 1 {
		return domain.ErrInvalidConfig.WithDetails(fmt.Sprintf("pool size %d < 1", c.PoolSize))
	}
	if c.Timeout < 0 && c.Timeout != WaitForever {
		return domain.ErrInvalidConfig.WithDetails("negative connect timeout")
	}
	if c.SessionTimeout < 0 || c.ShutdownTimeout < 0 || c.ForkLockWait < 0 {
		return domain.ErrInvalidConfig.WithDetails("negative timeout")
	}
	return nil
}

// connectTimeout maps the config's "zero waits forever" onto WaitForever.
func (c Config) connectTimeout() time.Duration {
	if c.Timeout == 0 {
		return WaitForever
	}
	return c.Timeout
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = logger.Default()
	}
	if c.Observer == nil {
		c.Observer = nopObserver{}
	}
	if c.Identity == nil {
		c.Identity = procid.Current
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.ForkLockWait == 0 {
		c.ForkLockWait = DefaultForkLockWait
	}
	if c.Factory == nil {
		c.Factory = zkFactory(c)
	}
	return c
}

func zkFactory(c Config) Factory {
	dial := zkconn.Factory(zkconn.Options{
		SessionTimeout: c.SessionTimeout,
		ConnectRate:    c.ConnectRate,
		Auth:           c.Auth,
		Logger:         c.Logger,
		TLS:            c.TLS,
	})
	return func(servers []string, timeout time.Duration, watcher zk.EventCallback) (Connection, error) {
		conn, err := dial(servers, timeout, watcher)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}
