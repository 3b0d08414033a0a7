package client

import (
	"context"

	"github.com/yndnr/zkmesh-go/internal/core/domain"
)

// Close shuts the client down: the callback pool is drained (bounded by
// ShutdownTimeout), the connection closed, and the state set to closed.
//
// Called from outside the pool, Close returns once the client is closed or
// ctx is done. Called from a callback on the pool (pass the callback's
// context), it returns immediately and shutdown continues in the
// background. Repeated calls start nothing new; external callers still wait
// for closed.
//
// A concurrent Connect or Reopen holds the client lock while it waits for a
// session. If ctx is done before Close gets the lock, Close returns
// ctx.Err() and no shutdown is requested.
func (c *Client) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	onPool := c.pool.OnThreadpool(ctx)

	unlock, err := c.acquireContext(ctx)
	if err != nil {
		return err
	}
	done := c.done
	if c.state.DeadOrDying() {
		unlock()
		if onPool {
			return nil
		}
		return c.waitClosed(ctx, done)
	}
	c.setStateLocked(domain.StateCloseRequested)
	unlock()

	c.logger.Info("closing client", "on_pool", onPool)
	go c.shutdown(done)

	if onPool {
		return nil
	}
	return c.waitClosed(ctx, done)
}

func (c *Client) waitClosed(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed once the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) shutdown(done chan struct{}) {
	if err := c.pool.Shutdown(c.cfg.ShutdownTimeout); err != nil {
		c.logger.Warn("callback pool did not drain", "error", err)
	}

	unlock := c.acquire()
	conn := c.conn
	c.conn = nil
	unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			c.logger.Warn("close connection failed", "error", err)
		}
	}

	unlock = c.acquire()
	c.setStateLocked(domain.StateClosed)
	unlock()

	close(done)
	c.logger.Info("client closed")
}
