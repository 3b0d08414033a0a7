package client

import (
	"fmt"
	"sync"
	"time"

	"github.com/Shopify/zk"

	"github.com/yndnr/zkmesh-go/internal/core/domain"
)

// forked reports whether the client now runs in a process other than the
// one that opened its connection.
func (c *Client) forked() bool {
	return !c.owner.Load().SameProcess(c.cfg.Identity())
}

// PauseBeforeFork suspends the connection, the event handler and the
// callback pool, in that order, so no goroutine of the client is running
// when the process forks. Requires running. On failure the client is
// running again.
//
// Must not be called from a callback: the pool waits for in-flight
// callbacks to return.
func (c *Client) PauseBeforeFork() error {
	c.forkMu.Lock()
	defer c.forkMu.Unlock()

	unlock := c.acquire()
	if c.state != domain.StateRunning {
		state := c.state
		unlock()
		return domain.ErrInvalidState.WithDetails("pause requires running, client is " + state.String())
	}
	c.setStateLocked(domain.StatePaused)
	conn := c.conn

	if conn != nil {
		if err := conn.PauseBeforeFork(); err != nil {
			c.setStateLocked(domain.StateRunning)
			unlock()
			return fmt.Errorf("pause connection: %w", err)
		}
	}
	if err := c.events.PauseBeforeFork(); err != nil {
		c.resumeCollaboratorsLocked(conn, false)
		c.setStateLocked(domain.StateRunning)
		unlock()
		return fmt.Errorf("pause event handler: %w", err)
	}
	unlock()

	// In-flight callbacks may be waiting for the lock, so the pool drains
	// outside it. They observe paused and return.
	if err := c.pool.PauseBeforeFork(); err != nil {
		unlock := c.acquire()
		defer unlock()
		if c.state == domain.StatePaused {
			c.resumeCollaboratorsLocked(conn, true)
			c.setStateLocked(domain.StateRunning)
		}
		return fmt.Errorf("pause callback pool: %w", err)
	}

	c.logger.Info("paused before fork")
	return nil
}

// resumeCollaboratorsLocked undoes a partial pause. Errors are logged.
func (c *Client) resumeCollaboratorsLocked(conn Connection, events bool) {
	if conn != nil {
		if err := conn.ResumeAfterFork(); err != nil {
			c.logger.Warn("resume connection after failed pause", "error", err)
		}
	}
	if events {
		if err := c.events.ResumeAfterFork(); err != nil {
			c.logger.Warn("resume event handler after failed pause", "error", err)
		}
	}
}

// ResumeAfterFork restarts the connection, the event handler and the
// callback pool, in that order, and returns to running. Requires paused.
//
// In a process other than the one that paused, it takes the child path
// instead; see ReopenAfterFork.
func (c *Client) ResumeAfterFork() error {
	c.forkMu.Lock()
	defer c.forkMu.Unlock()

	if c.forked() {
		_, err := c.reopenAfterFork(0)
		return err
	}

	unlock := c.acquire()
	defer unlock()

	if c.state != domain.StatePaused {
		return domain.ErrInvalidState.WithDetails("resume requires paused, client is " + c.state.String())
	}
	if c.conn != nil {
		if err := c.conn.ResumeAfterFork(); err != nil {
			return fmt.Errorf("resume connection: %w", err)
		}
	}
	if err := c.events.ResumeAfterFork(); err != nil {
		return fmt.Errorf("resume event handler: %w", err)
	}
	if err := c.pool.ResumeAfterFork(); err != nil {
		return fmt.Errorf("resume callback pool: %w", err)
	}
	c.setStateLocked(domain.StateRunning)

	c.logger.Info("resumed after fork")
	return nil
}

// ReopenAfterFork reinitializes the client in a forked child: fresh lock,
// owner set to the current process, state forced to running, stale handle
// discarded, event handler and pool pruned, then a new connection waiting up
// to timeout for a session. A closed client stays closed.
func (c *Client) ReopenAfterFork(timeout time.Duration) (zk.State, error) {
	c.forkMu.Lock()
	defer c.forkMu.Unlock()
	return c.reopenAfterFork(timeout)
}

// reopenAfterFork requires forkMu. The client lock is replaced: the child
// waits up to ForkLockWait for the current holder, then assumes it was a
// goroutine of the parent that did not survive the fork.
func (c *Client) reopenAfterFork(timeout time.Duration) (zk.State, error) {
	old := c.lock.Load()
	held := lockWithin(old, c.cfg.ForkLockWait)
	if !held {
		c.logger.Warn("client lock still held, replacing it", "waited", c.cfg.ForkLockWait)
	}

	mu := &sync.Mutex{}
	mu.Lock()
	defer mu.Unlock()
	c.lock.Store(mu)
	if held {
		// Waiters on the old mutex retry on the new one.
		old.Unlock()
	}

	if c.state.DeadOrDying() {
		return zk.StateDisconnected, domain.ErrClientClosed
	}

	owner := c.cfg.Identity()
	c.owner.Store(&owner)
	c.setStateLocked(domain.StateRunning)

	if stale := c.conn; stale != nil {
		c.conn = nil
		c.discard(stale)
	}

	c.events.ReopenAfterFork()
	if err := c.pool.ReopenAfterFork(); err != nil {
		return zk.StateDisconnected, fmt.Errorf("reopen callback pool: %w", err)
	}

	if err := c.connectLocked(timeout); err != nil {
		return zk.StateDisconnected, err
	}

	c.logger.Info("reopened after fork", "pid", owner.PID)
	return c.conn.State(), nil
}

// discard closes a stale handle, swallowing errors and panics.
func (c *Client) discard(conn Connection) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("closing stale connection panicked", "panic", r)
		}
	}()
	if err := conn.Close(); err != nil {
		c.logger.Debug("closing stale connection failed", "error", err)
	}
}
