package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shopify/zk"

	"github.com/yndnr/zkmesh-go/internal/infra/procid"
	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

type fakeConn struct {
	mu      sync.Mutex
	reopens []time.Duration
	closes  int
	paused  bool
	resumes int

	pauseErr error
	closeErr error

	// reopenEntered is closed when Reopen starts, which then blocks until
	// reopenRelease is closed.
	reopenEntered chan struct{}
	reopenRelease chan struct{}
}

func (f *fakeConn) Reopen(timeout time.Duration) error {
	f.mu.Lock()
	f.reopens = append(f.reopens, timeout)
	entered, release := f.reopenEntered, f.reopenRelease
	f.reopenEntered, f.reopenRelease = nil, nil
	f.mu.Unlock()

	if entered != nil {
		close(entered)
		<-release
	}
	return nil
}

// blockNextReopen makes the next Reopen block until release is closed.
func (f *fakeConn) blockNextReopen() (entered, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reopenEntered = make(chan struct{})
	f.reopenRelease = make(chan struct{})
	return f.reopenEntered, f.reopenRelease
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return f.closeErr
}

func (f *fakeConn) PauseBeforeFork() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pauseErr != nil {
		return f.pauseErr
	}
	f.paused = true
	return nil
}

func (f *fakeConn) ResumeAfterFork() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
	f.resumes++
	return nil
}

func (f *fakeConn) State() zk.State {
	return zk.StateHasSession
}

func (f *fakeConn) reopenCalls() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.reopens...)
}

func (f *fakeConn) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

type fakeFactory struct {
	mu       sync.Mutex
	conns    []*fakeConn
	timeouts []time.Duration
	watcher  zk.EventCallback
	err      error
}

func (f *fakeFactory) dial(servers []string, timeout time.Duration, watcher zk.EventCallback) (Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeouts = append(f.timeouts, timeout)
	if f.err != nil {
		return nil, f.err
	}
	conn := &fakeConn{}
	f.conns = append(f.conns, conn)
	f.watcher = watcher
	return conn, nil
}

func (f *fakeFactory) last() *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.conns) == 0 {
		return nil
	}
	return f.conns[len(f.conns)-1]
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

func (f *fakeFactory) emit(ev zk.Event) {
	f.mu.Lock()
	w := f.watcher
	f.mu.Unlock()
	w(ev)
}

// stateRecorder is an Observer that records client state transitions.
type stateRecorder struct {
	nopObserver
	mu         sync.Mutex
	states     []string
	reconnects atomic.Int32
}

func (r *stateRecorder) SetClientState(s string) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) IncReconnects() { r.reconnects.Add(1) }

func (r *stateRecorder) history() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.states...)
}

// fakeProcess lets tests pretend the client moved to another process.
type fakeProcess struct {
	pid atomic.Int64
}

func (p *fakeProcess) identity() procid.Identity {
	return procid.Identity{PID: int(p.pid.Load())}
}

type harness struct {
	client  *Client
	factory *fakeFactory
	obs     *stateRecorder
	proc    *fakeProcess
}

func newHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()
	h := &harness{
		factory: &fakeFactory{},
		obs:     &stateRecorder{},
		proc:    &fakeProcess{},
	}
	h.proc.pid.Store(100)

	cfg := DefaultConfig("127.0.0.1:2181")
	cfg.Timeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.Logger = logger.Discard()
	cfg.Observer = h.obs
	cfg.Factory = h.factory.dial
	cfg.Identity = h.proc.identity
	for _, m := range mutate {
		m(&cfg)
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.client = c
	t.Cleanup(func() {
		done := make(chan struct{})
		go func() {
			_ = c.Close(context.Background())
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("Close did not finish during cleanup")
		}
	})
	return h
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

var errBoom = errors.New("boom")
