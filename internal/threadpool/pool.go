package threadpool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/panjf2000/ants/v2"

	"github.com/yndnr/zkmesh-go/internal/core/domain"
	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

// DefaultSize is the worker count used when none is configured.
const DefaultSize = 1

// DefaultReleaseTimeout bounds how long PauseBeforeFork waits for worker
// goroutines to exit.
const DefaultReleaseTimeout = 5 * time.Second

// Task is a unit of work. ctx carries the pool marker.
type Task func(ctx context.Context)

// ExceptionHandler receives the value recovered from a panicking task.
type ExceptionHandler func(recovered any)

// Observer receives pool statistics. Implemented by the metrics package.
type Observer interface {
	SetBufferedTasks(n int)
	IncCallbackPanics()
}

type nopObserver struct{}

func (nopObserver) SetBufferedTasks(int) {}
func (nopObserver) IncCallbackPanics()   {}

type poolState int32

const (
	stateRunning poolState = iota
	statePaused
	stateClosed
)

func (s poolState) String() string {
	switch s {
	case stateRunning:
		return "running"
	case statePaused:
		return "paused"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type markerKey struct{}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// WithReleaseTimeout bounds how long PauseBeforeFork waits for worker
// goroutines to exit.
func WithReleaseTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.releaseTimeout = d
		}
	}
}

// WithObserver sets the statistics observer.
func WithObserver(o Observer) Option {
	return func(p *Pool) {
		if o != nil {
			p.observer = o
		}
	}
}

// Pool is a FIFO callback pool backed by ants workers.
type Pool struct {
	size           int
	releaseTimeout time.Duration
	logger         logger.Logger
	observer       Observer

	mu         sync.Mutex
	cond       *sync.Cond
	state      poolState
	workers    *ants.Pool
	pending    *queue.Queue
	inflight   *sync.WaitGroup
	dispatched chan struct{} // closed when the current dispatcher exits

	onException atomic.Pointer[ExceptionHandler]
	panics      atomic.Uint64
}

// New creates a pool with size workers and starts dispatching.
func New(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		size = DefaultSize
	}

	p := &Pool{
		size:           size,
		releaseTimeout: DefaultReleaseTimeout,
		logger:         logger.Default(),
		observer:       nopObserver{},
		pending:        queue.New(),
		inflight:       &sync.WaitGroup{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cond = sync.NewCond(&p.mu)

	workers, err := p.newWorkers()
	if err != nil {
		return nil, err
	}
	p.workers = workers

	p.mu.Lock()
	p.startDispatcherLocked()
	p.mu.Unlock()

	return p, nil
}

func (p *Pool) newWorkers() (*ants.Pool, error) {
	workers, err := ants.NewPool(p.size,
		ants.WithPanicHandler(p.handlePanic),
		ants.WithLogger(logger.NewPrintfAdapter(p.logger, slog.LevelWarn, "threadpool")),
	)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return workers, nil
}

// Size returns the configured worker count.
func (p *Pool) Size() int {
	return p.size
}

// Submit queues task for execution. It never blocks. While the pool is
// paused the task waits in the queue; after Shutdown it is rejected with
// domain.ErrPoolClosed.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return nil
	}

	p.mu.Lock()
	if p.state == stateClosed {
		p.mu.Unlock()
		return domain.ErrPoolClosed
	}
	p.pending.Add(task)
	n := p.pending.Length()
	p.cond.Signal()
	p.mu.Unlock()

	p.observer.SetBufferedTasks(n)
	return nil
}

// OnException registers the handler for panics raised by tasks. A nil
// handler restores the default, which logs the panic.
func (p *Pool) OnException(fn ExceptionHandler) {
	if fn == nil {
		p.onException.Store(nil)
		return
	}
	p.onException.Store(&fn)
}

// OnThreadpool reports whether ctx was handed to a task by this pool.
func (p *Pool) OnThreadpool(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	owner, ok := ctx.Value(markerKey{}).(*Pool)
	return ok && owner == p
}

// OnPool reports whether ctx was handed to a task by any Pool.
func OnPool(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	_, ok := ctx.Value(markerKey{}).(*Pool)
	return ok
}

// PauseBeforeFork stops dispatch, waits for in-flight tasks and releases the
// workers, waiting for every ants goroutine to exit. Queued and newly
// submitted tasks are kept. If the workers do not exit within the release
// timeout the pool runs again on fresh workers and the error is returned.
// Must not be called from a task.
func (p *Pool) PauseBeforeFork() error {
	p.mu.Lock()
	if p.state != stateRunning {
		state := p.state
		p.mu.Unlock()
		return domain.ErrInvalidState.WithDetails("threadpool is " + state.String())
	}
	p.state = statePaused
	p.cond.Broadcast()
	dispatched := p.dispatched
	inflight := p.inflight
	workers := p.workers
	p.mu.Unlock()

	<-dispatched
	inflight.Wait()
	if err := workers.ReleaseTimeout(p.releaseTimeout); err != nil {
		if rerr := p.restart(); rerr != nil {
			p.logger.Error("threadpool restart after failed pause", "error", rerr)
		}
		return fmt.Errorf("release workers: %w", err)
	}

	p.logger.Debug("threadpool paused", "buffered", p.Buffered())
	return nil
}

// ResumeAfterFork starts fresh workers and flushes tasks queued while
// paused.
func (p *Pool) ResumeAfterFork() error {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()
	if state != statePaused {
		return domain.ErrInvalidState.WithDetails("threadpool is " + state.String())
	}
	if err := p.restart(); err != nil {
		return err
	}

	p.logger.Debug("threadpool resumed", "buffered", p.Buffered())
	return nil
}

// restart moves a paused pool back to running on new workers. Released
// ants pools are never rebooted.
func (p *Pool) restart() error {
	workers, err := p.newWorkers()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != statePaused {
		workers.Release()
		return domain.ErrInvalidState.WithDetails("threadpool is " + p.state.String())
	}
	p.workers = workers
	p.state = stateRunning
	p.startDispatcherLocked()
	return nil
}

// ReopenAfterFork discards the worker pool and any bookkeeping about tasks
// that were running before the fork, then starts fresh workers. Queued tasks
// are kept and run on the new workers. A closed pool stays closed.
func (p *Pool) ReopenAfterFork() error {
	workers, err := p.newWorkers()
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.state == stateClosed {
		p.mu.Unlock()
		workers.Release()
		return domain.ErrPoolClosed
	}
	old := p.workers
	p.workers = workers
	p.inflight = &sync.WaitGroup{}
	p.state = stateRunning
	p.cond.Broadcast()
	p.startDispatcherLocked()
	p.mu.Unlock()

	old.Release()
	p.logger.Debug("threadpool reopened after fork")
	return nil
}

// Shutdown rejects new tasks, drops queued ones and waits up to timeout for
// running tasks to finish. It is idempotent.
func (p *Pool) Shutdown(timeout time.Duration) error {
	p.mu.Lock()
	if p.state == stateClosed {
		p.mu.Unlock()
		return nil
	}
	wasPaused := p.state == statePaused
	p.state = stateClosed
	dropped := p.pending.Length()
	p.pending = queue.New()
	p.cond.Broadcast()
	dispatched := p.dispatched
	workers := p.workers
	p.mu.Unlock()

	p.observer.SetBufferedTasks(0)
	if dropped > 0 {
		p.logger.Warn("threadpool shutdown dropped queued tasks", "dropped", dropped)
	}

	var err error
	if !wasPaused {
		if rerr := workers.ReleaseTimeout(timeout); rerr != nil {
			err = fmt.Errorf("release workers: %w", rerr)
		}
	}

	select {
	case <-dispatched:
	case <-time.After(timeout):
		if err == nil {
			err = fmt.Errorf("dispatcher did not exit: %w", ants.ErrTimeout)
		}
	}
	return err
}

// IsClosed reports whether Shutdown has been called.
func (p *Pool) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == stateClosed
}

// Buffered returns the number of queued tasks not yet handed to a worker.
func (p *Pool) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.Length()
}

// Stats is a point-in-time snapshot of the pool.
type Stats struct {
	State    string `json:"state"`
	Size     int    `json:"size"`
	Running  int    `json:"running"`
	Buffered int    `json:"buffered"`
	Panics   uint64 `json:"panics"`
}

// Stats returns a snapshot of the pool.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		State:    p.state.String(),
		Size:     p.size,
		Running:  p.workers.Running(),
		Buffered: p.pending.Length(),
		Panics:   p.panics.Load(),
	}
}

// startDispatcherLocked starts a dispatcher bound to the current workers.
// p.mu must be held.
func (p *Pool) startDispatcherLocked() {
	done := make(chan struct{})
	p.dispatched = done
	go p.dispatch(done, p.workers, p.inflight)
}

func (p *Pool) dispatch(done chan struct{}, workers *ants.Pool, inflight *sync.WaitGroup) {
	defer close(done)

	for {
		p.mu.Lock()
		for p.state == stateRunning && p.workers == workers && p.pending.Length() == 0 {
			p.cond.Wait()
		}
		if p.state != stateRunning || p.workers != workers {
			p.mu.Unlock()
			return
		}
		task := p.pending.Remove().(Task)
		n := p.pending.Length()
		inflight.Add(1)
		p.mu.Unlock()

		p.observer.SetBufferedTasks(n)

		err := workers.Submit(func() {
			defer inflight.Done()
			task(context.WithValue(context.Background(), markerKey{}, p))
		})
		if err != nil {
			inflight.Done()
			p.logger.Warn("threadpool dropped task", "error", err)
		}
	}
}

func (p *Pool) handlePanic(recovered any) {
	p.panics.Add(1)
	p.observer.IncCallbackPanics()

	fn := p.onException.Load()
	if fn == nil {
		p.logger.Error("callback panicked", "panic", recovered, "stack", string(debug.Stack()))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("exception handler panicked", "panic", r, "original", recovered)
		}
	}()
	(*fn)(recovered)
}
