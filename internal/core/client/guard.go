package client

import (
	"fmt"
	"time"

	"github.com/Shopify/zk"

	"github.com/yndnr/zkmesh-go/internal/core/domain"
)

// Connect creates the connection if there is none, waiting up to timeout
// for a session. WaitForever waits indefinitely, zero does not wait.
func (c *Client) Connect(timeout time.Duration) error {
	unlock := c.acquire()
	defer unlock()

	if c.state.DeadOrDying() {
		return domain.ErrClientClosed
	}
	if c.state == domain.StatePaused {
		return domain.ErrInvalidState.WithDetails("client is paused")
	}
	return c.connectLocked(timeout)
}

func (c *Client) connectLocked(timeout time.Duration) error {
	if c.conn != nil {
		return nil
	}

	conn, err := c.cfg.Factory(c.cfg.Servers, timeout, c.events.DefaultWatcher())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.conn = conn
	c.logger.Info("connected", "servers", c.cfg.Servers)
	return nil
}

// Reopen re-establishes the session and returns the connection state
// afterwards. In a forked child it takes the child path.
func (c *Client) Reopen(timeout time.Duration) (zk.State, error) {
	if c.forked() {
		return c.ReopenAfterFork(timeout)
	}

	unlock := c.acquire()
	defer unlock()

	if c.state.DeadOrDying() {
		return zk.StateDisconnected, domain.ErrClientClosed
	}
	if c.state == domain.StatePaused {
		return zk.StateDisconnected, domain.ErrInvalidState.WithDetails("client is paused")
	}
	return c.reopenLocked(timeout)
}

func (c *Client) reopenLocked(timeout time.Duration) (zk.State, error) {
	if c.conn == nil {
		if err := c.connectLocked(timeout); err != nil {
			return zk.StateDisconnected, err
		}
		return c.conn.State(), nil
	}

	if err := c.conn.Reopen(timeout); err != nil {
		return c.conn.State(), fmt.Errorf("reopen: %w", err)
	}
	return c.conn.State(), nil
}

// connection returns a snapshot of the handle.
func (c *Client) connection() (Connection, error) {
	unlock := c.acquire()
	defer unlock()

	if c.state.DeadOrDying() {
		return nil, domain.ErrClientClosed
	}
	if c.conn == nil {
		return nil, domain.ErrNotConnected
	}
	return c.conn, nil
}

// DataPlane is implemented by connections that serve znode operations.
type DataPlane interface {
	Get(path string) ([]byte, *zk.Stat, error)
	GetW(path string) ([]byte, *zk.Stat, <-chan zk.Event, error)
	Children(path string) ([]string, *zk.Stat, error)
	ChildrenW(path string) ([]string, *zk.Stat, <-chan zk.Event, error)
	Exists(path string) (bool, *zk.Stat, error)
	ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error)
	Set(path string, data []byte, version int32) (*zk.Stat, error)
	Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
	Delete(path string, version int32) error
	SessionID() int64
	Server() string
}

// Data returns the current connection for znode operations. The returned
// value is a snapshot: a later reopen may replace the handle, in which case
// operations on it fail with domain.ErrClientClosed or domain.ErrNotConnected.
func (c *Client) Data() (DataPlane, error) {
	conn, err := c.connection()
	if err != nil {
		return nil, err
	}
	dp, ok := conn.(DataPlane)
	if !ok {
		return nil, domain.ErrNotConnected.WithDetails("connection has no data operations")
	}
	return dp, nil
}
