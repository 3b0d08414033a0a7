package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Shopify/zk"

	"github.com/yndnr/zkmesh-go/internal/core/domain"
	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no servers", func(c *Config) { c.Servers = nil }},
		{"zero pool", func(c *Config) { c.PoolSize = 0 }},
		{"negative timeout", func(c *Config) { c.Timeout = -5 * time.Second }},
		{"negative session timeout", func(c *Config) { c.SessionTimeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("127.0.0.1:2181")
			cfg.Logger = logger.Discard()
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNew_AutoConnect(t *testing.T) {
	h := newHarness(t)

	if h.factory.count() != 1 {
		t.Fatalf("factory called %d times, want 1", h.factory.count())
	}
	if got := h.factory.timeouts[0]; got != time.Second {
		t.Errorf("connect timeout = %v, want 1s", got)
	}
	if !h.client.IsRunning() {
		t.Errorf("state = %s, want running", h.client.State())
	}
}

func TestNew_ZeroTimeoutWaitsForever(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Timeout = 0 })
	if got := h.factory.timeouts[0]; got != WaitForever {
		t.Errorf("connect timeout = %v, want WaitForever", got)
	}
}

func TestNew_ConnectFailure(t *testing.T) {
	f := &fakeFactory{err: errBoom}
	cfg := DefaultConfig("127.0.0.1:2181")
	cfg.Logger = logger.Discard()
	cfg.Factory = f.dial

	if _, err := New(cfg); !errors.Is(err, errBoom) {
		t.Errorf("New() error = %v, want %v", err, errBoom)
	}
}

func TestConnect_Idempotent(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.AutoConnect = false })

	if h.factory.count() != 0 {
		t.Fatal("AutoConnect=false should not dial")
	}
	if _, err := h.client.Data(); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("Data() before connect error = %v, want ErrNotConnected", err)
	}

	for i := 0; i < 3; i++ {
		if err := h.client.Connect(WaitForever); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
	}
	if h.factory.count() != 1 {
		t.Errorf("factory called %d times, want 1", h.factory.count())
	}
}

func TestReopen_DelegatesToHandle(t *testing.T) {
	h := newHarness(t)
	conn := h.factory.last()

	state, err := h.client.Reopen(3 * time.Second)
	if err != nil {
		t.Fatalf("Reopen() error = %v", err)
	}
	if state != zk.StateHasSession {
		t.Errorf("Reopen() state = %v, want StateHasSession", state)
	}
	if got := conn.reopenCalls(); len(got) != 1 || got[0] != 3*time.Second {
		t.Errorf("handle Reopen calls = %v, want [3s]", got)
	}
	if h.factory.count() != 1 {
		t.Error("Reopen in the same process must not create a new handle")
	}
}

// Pause needs running and resume needs paused.
func TestPauseResume_Preconditions(t *testing.T) {
	h := newHarness(t)
	c := h.client

	if err := c.ResumeAfterFork(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("ResumeAfterFork() while running error = %v, want ErrInvalidState", err)
	}
	if !c.IsRunning() {
		t.Fatal("failed resume changed state")
	}

	if err := c.PauseBeforeFork(); err != nil {
		t.Fatalf("PauseBeforeFork() error = %v", err)
	}
	if !c.IsPaused() {
		t.Fatalf("state = %s, want paused", c.State())
	}
	if !h.factory.last().paused {
		t.Error("connection not paused")
	}

	if err := c.PauseBeforeFork(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("PauseBeforeFork() while paused error = %v, want ErrInvalidState", err)
	}
	if !c.IsPaused() {
		t.Fatal("failed pause changed state")
	}

	if err := c.ResumeAfterFork(); err != nil {
		t.Fatalf("ResumeAfterFork() error = %v", err)
	}
	if !c.IsRunning() {
		t.Fatalf("state = %s, want running", c.State())
	}
	if conn := h.factory.last(); conn.paused || conn.resumes != 1 {
		t.Errorf("connection paused=%v resumes=%d, want resumed once", conn.paused, conn.resumes)
	}
}

func TestPause_ConnectionFailureLeavesRunning(t *testing.T) {
	h := newHarness(t)
	h.factory.last().pauseErr = errBoom

	if err := h.client.PauseBeforeFork(); !errors.Is(err, errBoom) {
		t.Fatalf("PauseBeforeFork() error = %v, want %v", err, errBoom)
	}
	if !h.client.IsRunning() {
		t.Errorf("state = %s, want running", h.client.State())
	}
}

func TestPause_BlocksOperationsUntilResume(t *testing.T) {
	h := newHarness(t)
	if err := h.client.PauseBeforeFork(); err != nil {
		t.Fatalf("PauseBeforeFork() error = %v", err)
	}
	if _, err := h.client.Reopen(0); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("Reopen() while paused error = %v, want ErrInvalidState", err)
	}
	if err := h.client.ResumeAfterFork(); err != nil {
		t.Fatalf("ResumeAfterFork() error = %v", err)
	}
}

// A closed client refuses both halves of the fork protocol.
func TestPauseResume_AfterClose(t *testing.T) {
	h := newHarness(t)
	c := h.client

	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.PauseBeforeFork(); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("PauseBeforeFork() after close error = %v, want ErrInvalidState", err)
	}
	if err := c.ResumeAfterFork(); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("ResumeAfterFork() after close error = %v, want ErrInvalidState", err)
	}
	if !c.IsClosed() {
		t.Errorf("state = %s, want closed", c.State())
	}
	if err := c.Connect(0); !errors.Is(err, domain.ErrClientClosed) {
		t.Errorf("Connect() after close error = %v, want ErrClientClosed", err)
	}
	if _, err := c.Reopen(0); !errors.Is(err, domain.ErrClientClosed) {
		t.Errorf("Reopen() after close error = %v, want ErrClientClosed", err)
	}
}

// Concurrent closes shut down once and all return after closed.
func TestClose_Concurrent(t *testing.T) {
	h := newHarness(t)
	conn := h.factory.last()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- h.client.Close(context.Background())
			if !h.client.IsClosed() {
				errs <- errors.New("Close returned before closed")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
	if conn.closeCount() != 1 {
		t.Errorf("connection closed %d times, want 1", conn.closeCount())
	}
	if !h.client.pool.IsClosed() {
		t.Error("pool not shut down")
	}
}

// Session events after close was requested never reconnect.
func TestReconnect_IgnoredWhenDeadOrDying(t *testing.T) {
	h := newHarness(t)
	conn := h.factory.last()

	unlock := h.client.acquire()
	h.client.setStateLocked(domain.StateCloseRequested)
	unlock()

	h.client.handleSessionEvent(context.Background(), domain.Event{
		Kind: domain.EventKindSession, State: "StateExpired", Invalidated: true,
	})
	if got := conn.reopenCalls(); len(got) != 0 {
		t.Errorf("reopen calls while close_requested = %v, want none", got)
	}

	unlock = h.client.acquire()
	h.client.setStateLocked(domain.StateRunning)
	unlock()
}

// An invalidated session is reopened on the same handle.
func TestReconnect_OnInvalidation(t *testing.T) {
	h := newHarness(t)
	conn := h.factory.last()

	h.factory.emit(zk.Event{Type: zk.EventSession, State: zk.StateExpired})

	eventually(t, "reopen", func() bool { return len(conn.reopenCalls()) == 1 })
	time.Sleep(20 * time.Millisecond)

	if got := conn.reopenCalls(); len(got) != 1 || got[0] != 0 {
		t.Errorf("reopen calls = %v, want exactly [0]", got)
	}
	if h.obs.reconnects.Load() != 1 {
		t.Errorf("reconnects observed = %d, want 1", h.obs.reconnects.Load())
	}
	if !h.client.IsRunning() {
		t.Errorf("state = %s, want running", h.client.State())
	}
}

func TestReconnect_Filters(t *testing.T) {
	tests := []struct {
		name      string
		reconnect bool
		event     zk.Event
	}{
		{"node event", true, zk.Event{Type: zk.EventNodeDeleted, Path: "/a"}},
		{"non-invalidating session event", true, zk.Event{Type: zk.EventSession, State: zk.StateDisconnected}},
		{"reconnect disabled", false, zk.Event{Type: zk.EventSession, State: zk.StateExpired}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(c *Config) { c.Reconnect = tt.reconnect })
			conn := h.factory.last()

			h.factory.emit(tt.event)
			time.Sleep(20 * time.Millisecond)

			if got := conn.reopenCalls(); len(got) != 0 {
				t.Errorf("reopen calls = %v, want none", got)
			}
		})
	}
}

func TestReconnect_AuthFailedTriggersReopen(t *testing.T) {
	h := newHarness(t)
	conn := h.factory.last()

	h.factory.emit(zk.Event{Type: zk.EventSession, State: zk.StateAuthFailed})
	eventually(t, "reopen", func() bool { return len(conn.reopenCalls()) == 1 })
}

// Close from a callback returns at once and finishes in the background.
func TestClose_FromPoolWorker(t *testing.T) {
	h := newHarness(t)

	returned := make(chan error, 1)
	err := h.client.pool.Submit(func(ctx context.Context) {
		if !h.client.OnThreadpool(ctx) {
			returned <- errors.New("task context not marked as pool")
			return
		}
		returned <- h.client.Close(ctx)
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case err := <-returned:
		if err != nil {
			t.Fatalf("Close() from pool error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close() from a pool worker blocked")
	}

	select {
	case <-h.client.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown never completed")
	}
	if !h.client.IsClosed() {
		t.Errorf("state = %s, want closed", h.client.State())
	}
}

func TestClose_RepeatFromPoolReturnsImmediately(t *testing.T) {
	h := newHarness(t)

	unlock := h.client.acquire()
	h.client.setStateLocked(domain.StateCloseRequested)
	unlock()

	returned := make(chan error, 1)
	_ = h.client.pool.Submit(func(ctx context.Context) {
		returned <- h.client.Close(ctx)
	})
	select {
	case err := <-returned:
		if err != nil {
			t.Errorf("Close() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("repeat Close() from pool blocked")
	}

	unlock = h.client.acquire()
	h.client.setStateLocked(domain.StateRunning)
	unlock()
}

func TestClose_ContextCanceled(t *testing.T) {
	h := newHarness(t)

	unlock := h.client.acquire()
	h.client.setStateLocked(domain.StateCloseRequested)
	unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.client.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Close() error = %v, want DeadlineExceeded", err)
	}

	unlock = h.client.acquire()
	h.client.setStateLocked(domain.StateRunning)
	unlock()
}

// The child path replaces the handle, lock and owner.
func TestForkChildPath(t *testing.T) {
	h := newHarness(t)
	c := h.client
	parentConn := h.factory.last()

	if err := c.PauseBeforeFork(); err != nil {
		t.Fatalf("PauseBeforeFork() error = %v", err)
	}
	h.proc.pid.Store(200)

	if err := c.ResumeAfterFork(); err != nil {
		t.Fatalf("ResumeAfterFork() in child error = %v", err)
	}

	unlock := c.acquire()
	conn := c.conn
	unlock()

	if conn == nil {
		t.Fatal("handle is nil after child path")
	}
	if conn == Connection(parentConn) {
		t.Error("handle was not replaced")
	}
	if parentConn.closeCount() != 1 {
		t.Errorf("stale handle closed %d times, want 1", parentConn.closeCount())
	}
	if parentConn.resumes != 0 {
		t.Error("child path must not resume the parent's handle")
	}
	if got := c.owner.Load().PID; got != 200 {
		t.Errorf("recorded pid = %d, want 200", got)
	}
	if !c.IsRunning() {
		t.Errorf("state = %s, want running", c.State())
	}

	// callbacks run on the rebuilt pool
	ran := make(chan struct{})
	_ = c.pool.Submit(func(context.Context) { close(ran) })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("pool not usable after child path")
	}
}

func TestReopenAfterFork_WaitsForLockHolder(t *testing.T) {
	h := newHarness(t)
	parentConn := h.factory.last()
	entered, release := parentConn.blockNextReopen()

	reopened := make(chan error, 1)
	go func() {
		_, err := h.client.Reopen(time.Second)
		reopened <- err
	}()
	<-entered

	h.proc.pid.Store(200)
	childDone := make(chan error, 1)
	go func() {
		_, err := h.client.ReopenAfterFork(0)
		childDone <- err
	}()

	select {
	case err := <-childDone:
		t.Fatalf("ReopenAfterFork() returned %v while Reopen held the lock", err)
	case <-time.After(50 * time.Millisecond):
	}
	if parentConn.closeCount() != 0 {
		t.Fatal("handle discarded while Reopen was using it")
	}

	close(release)
	if err := <-reopened; err != nil {
		t.Fatalf("Reopen() error = %v", err)
	}
	if err := <-childDone; err != nil {
		t.Fatalf("ReopenAfterFork() error = %v", err)
	}
	if parentConn.closeCount() != 1 {
		t.Errorf("stale handle closed %d times, want 1", parentConn.closeCount())
	}
	if h.factory.count() != 2 {
		t.Errorf("factory called %d times, want 2", h.factory.count())
	}
}

func TestReopenAfterFork_ReplacesAbandonedLock(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.ForkLockWait = 20 * time.Millisecond })

	// A holder that never unlocks, like a goroutine lost in the fork.
	h.client.lock.Load().Lock()

	h.proc.pid.Store(200)
	if _, err := h.client.ReopenAfterFork(0); err != nil {
		t.Fatalf("ReopenAfterFork() error = %v", err)
	}
	if !h.client.IsRunning() {
		t.Errorf("state = %s, want running", h.client.State())
	}
	if h.factory.count() != 2 {
		t.Errorf("factory called %d times, want 2", h.factory.count())
	}
}

func TestClose_GivesUpWhileLockHeld(t *testing.T) {
	h := newHarness(t)
	conn := h.factory.last()
	entered, release := conn.blockNextReopen()

	reopened := make(chan struct{})
	go func() {
		_, _ = h.client.Reopen(WaitForever)
		close(reopened)
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := h.client.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Close() error = %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Close() took %v with an expired context", elapsed)
	}

	close(release)
	<-reopened
	if !h.client.IsRunning() {
		t.Errorf("state = %s, want running after Close gave up", h.client.State())
	}
}

func TestReopen_DetectsFork(t *testing.T) {
	h := newHarness(t)
	parentConn := h.factory.last()
	parentConn.closeErr = errBoom

	h.proc.pid.Store(300)
	if _, err := h.client.Reopen(0); err != nil {
		t.Fatalf("Reopen() in child error = %v", err)
	}
	if h.factory.count() != 2 {
		t.Errorf("factory called %d times, want 2", h.factory.count())
	}
	if len(parentConn.reopenCalls()) != 0 {
		t.Error("child must not reuse the parent's handle")
	}
}

func TestReopenAfterFork_Closed(t *testing.T) {
	h := newHarness(t)
	_ = h.client.Close(context.Background())

	if _, err := h.client.ReopenAfterFork(0); !errors.Is(err, domain.ErrClientClosed) {
		t.Errorf("ReopenAfterFork() after close error = %v, want ErrClientClosed", err)
	}
	if !h.client.IsClosed() {
		t.Errorf("state = %s, want closed", h.client.State())
	}
}

// Example scenario: reconnect on invalidation, then close from outside.
func TestScenario_ReconnectThenClose(t *testing.T) {
	h := newHarness(t)
	conn := h.factory.last()

	h.factory.emit(zk.Event{Type: zk.EventSession, State: zk.StateExpired})
	eventually(t, "reopen", func() bool { return len(conn.reopenCalls()) == 1 })
	if !h.client.IsRunning() {
		t.Fatalf("state = %s, want running", h.client.State())
	}

	if err := h.client.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !h.client.IsClosed() {
		t.Fatalf("Close returned in state %s", h.client.State())
	}

	want := []string{"running", "close_requested", "closed"}
	got := h.obs.history()
	if len(got) != len(want) {
		t.Fatalf("state history = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("state history = %v, want %v", got, want)
			break
		}
	}
}

func TestOnException(t *testing.T) {
	h := newHarness(t)

	got := make(chan any, 1)
	h.client.OnException(func(r any) { got <- r })
	h.client.Register("/boom", func(context.Context, domain.Event) { panic("callback") })

	h.factory.emit(zk.Event{Type: zk.EventNodeDataChanged, Path: "/boom"})

	select {
	case r := <-got:
		if r != "callback" {
			t.Errorf("recovered = %v, want callback", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("exception hook not called")
	}
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	h.client.Register("/a", func(context.Context, domain.Event) {})

	st := h.client.Status()
	if st.State != "running" || !st.Connected || st.PID != 100 {
		t.Errorf("Status() = %+v", st)
	}
	if st.Events.WatchedPaths != 1 || st.Events.SessionHandlers != 1 {
		t.Errorf("Status().Events = %+v", st.Events)
	}
	if st.ID != h.client.ID() {
		t.Errorf("Status().ID = %s, want %s", st.ID, h.client.ID())
	}

	ms := h.client.MetricStats()
	if !ms.Connected || ms.WatchedPaths != 1 {
		t.Errorf("MetricStats() = %+v", ms)
	}
}
