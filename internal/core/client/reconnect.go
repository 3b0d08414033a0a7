package client

import (
	"context"
	"fmt"

	"github.com/yndnr/zkmesh-go/internal/core/domain"
)

// handleSessionEvent is the raw session handler. It runs on a pool worker
// and never panics or returns an error to its caller.
func (c *Client) handleSessionEvent(_ context.Context, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("session event handler panicked", "event", ev.String(), "panic", fmt.Sprint(r))
		}
	}()

	if !ev.IsSession() || !ev.InvalidatesSession() {
		return
	}
	if !c.cfg.Reconnect {
		c.logger.Warn("session invalidated, reconnect disabled", "state", ev.State)
		return
	}

	if c.forked() {
		c.logger.Warn("session invalidated in a process that did not open it, waiting for ResumeAfterFork")
		return
	}

	unlock := c.acquire()
	defer unlock()

	switch {
	case c.state.DeadOrDying():
		c.logger.Debug("session invalidated during shutdown", "state", ev.State)
		return
	case c.state == domain.StatePaused:
		c.logger.Debug("session invalidated while paused", "state", ev.State)
		return
	}

	c.logger.Warn("session invalidated, reopening", "state", ev.State, "server", ev.Server)
	c.observer.IncReconnects()
	if _, err := c.reopenLocked(0); err != nil {
		c.logger.Error("reopen after session invalidation failed", "error", err)
	}
}
