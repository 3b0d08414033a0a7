package watch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Shopify/zk"

	"github.com/yndnr/zkmesh-go/internal/core/client"
	"github.com/yndnr/zkmesh-go/internal/core/domain"
	"github.com/yndnr/zkmesh-go/internal/eventhandler"
	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

// Client is the subset of *client.Client the watcher uses.
type Client interface {
	Register(path string, fn eventhandler.Callback) eventhandler.Subscription
	RegisterSession(fn eventhandler.Callback) eventhandler.Subscription
	Unregister(s eventhandler.Subscription) bool
	Data() (client.DataPlane, error)
}

// PathWatcher logs every event on its paths and keeps them watched.
type PathWatcher struct {
	client Client
	paths  []string
	logger logger.Logger

	onEvent eventhandler.Callback

	mu   sync.Mutex
	subs []eventhandler.Subscription

	events atomic.Int64
	armed  atomic.Int64
}

// Option configures a PathWatcher.
type Option func(*PathWatcher)

// OnEvent replaces the default event logging with fn. The watch is re-armed
// after fn returns.
func OnEvent(fn eventhandler.Callback) Option {
	return func(w *PathWatcher) { w.onEvent = fn }
}

// New creates a watcher for paths. Nothing is registered until Start.
func New(c Client, paths []string, l logger.Logger, opts ...Option) *PathWatcher {
	if l == nil {
		l = logger.Default()
	}
	w := &PathWatcher{
		client: c,
		paths:  append([]string(nil), paths...),
		logger: l.With("component", "watch"),
	}
	w.onEvent = w.logEvent
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start registers the callbacks and arms every path. Paths that cannot be
// armed yet are armed when the session is established.
func (w *PathWatcher) Start() {
	w.mu.Lock()
	w.subs = append(w.subs, w.client.RegisterSession(w.handleSession))
	for _, p := range w.paths {
		w.subs = append(w.subs, w.client.Register(p, w.handleEvent))
	}
	w.mu.Unlock()

	w.armAll()
}

// Stop unregisters every callback.
func (w *PathWatcher) Stop() {
	w.mu.Lock()
	subs := w.subs
	w.subs = nil
	w.mu.Unlock()

	for _, s := range subs {
		w.client.Unregister(s)
	}
}

// Events returns how many znode events were received.
func (w *PathWatcher) Events() int64 { return w.events.Load() }

// Armed returns how many watches were set successfully.
func (w *PathWatcher) Armed() int64 { return w.armed.Load() }

func (w *PathWatcher) logEvent(ctx context.Context, ev domain.Event) {
	logger.L(ctx).With("component", "watch").Info("znode event",
		"path", ev.Path,
		"kind", ev.Kind.String(),
		"server", ev.Server,
	)
}

func (w *PathWatcher) handleEvent(ctx context.Context, ev domain.Event) {
	w.events.Add(1)
	w.onEvent(ctx, ev)
	if ev.Kind == domain.EventKindNotWatching {
		return
	}
	if err := w.arm(ev.Path); err != nil {
		w.logger.Warn("re-arm watch failed", "path", ev.Path, "error", err)
	}
}

func (w *PathWatcher) handleSession(_ context.Context, ev domain.Event) {
	if ev.State != zk.StateHasSession.String() {
		return
	}
	w.armAll()
}

func (w *PathWatcher) armAll() {
	for _, p := range w.paths {
		if err := w.arm(p); err != nil {
			if errors.Is(err, domain.ErrNotConnected) || errors.Is(err, domain.ErrClientClosed) {
				w.logger.Debug("watch deferred until session", "path", p, "error", err)
				continue
			}
			w.logger.Warn("arm watch failed", "path", p, "error", err)
		}
	}
}

// arm sets an exists watch, which fires on create, delete and data change.
func (w *PathWatcher) arm(path string) error {
	dp, err := w.client.Data()
	if err != nil {
		return err
	}
	if _, _, _, err := dp.ExistsW(path); err != nil {
		return err
	}
	w.armed.Add(1)
	return nil
}
