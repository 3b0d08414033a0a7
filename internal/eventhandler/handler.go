package eventhandler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Shopify/zk"
	"github.com/eapache/queue"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/zkmesh-go/internal/core/domain"
	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
	"github.com/yndnr/zkmesh-go/internal/threadpool"
	"github.com/yndnr/zkmesh-go/pkg/cmap"
)

// Callback receives an event on a pool worker. ctx carries the handler's
// logger; logger.L(ctx) returns it.
type Callback func(ctx context.Context, ev domain.Event)

// Dispatcher runs tasks off the notifying goroutine.
type Dispatcher interface {
	Submit(task threadpool.Task) error
}

// Observer receives event statistics. Implemented by the metrics package.
type Observer interface {
	IncSessionEvent(state string)
}

type nopObserver struct{}

func (nopObserver) IncSessionEvent(string) {}

// Subscription identifies a registered callback.
type Subscription struct {
	ID ulid.ULID
	// Path is empty for session subscriptions.
	Path string
}

// IsSession reports whether the subscription receives session events.
func (s Subscription) IsSession() bool {
	return s.Path == ""
}

type subscriber struct {
	id ulid.ULID
	fn Callback
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithObserver sets the statistics observer.
func WithObserver(o Observer) Option {
	return func(h *Handler) {
		if o != nil {
			h.observer = o
		}
	}
}

// Handler registers callbacks and dispatches events to them.
type Handler struct {
	dispatcher Dispatcher
	logger     logger.Logger
	observer   Observer

	watches *cmap.Map[[]subscriber]

	sessionMu sync.RWMutex
	session   []subscriber

	mu      sync.Mutex
	paused  bool
	pending *queue.Queue

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a Handler dispatching through d.
func New(d Dispatcher, opts ...Option) *Handler {
	h := &Handler{
		dispatcher: d,
		logger:     logger.Default(),
		observer:   nopObserver{},
		watches:    cmap.New[[]subscriber](),
		pending:    queue.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register subscribes fn to node events for path.
func (h *Handler) Register(path string, fn Callback) Subscription {
	sub := subscriber{id: domain.NewID(), fn: fn}
	h.watches.Update(path, func(subs []subscriber, _ bool) ([]subscriber, bool) {
		return append(subs, sub), true
	})
	return Subscription{ID: sub.id, Path: path}
}

// RegisterSession subscribes fn to session-level events.
func (h *Handler) RegisterSession(fn Callback) Subscription {
	sub := subscriber{id: domain.NewID(), fn: fn}
	h.sessionMu.Lock()
	h.session = append(h.session, sub)
	h.sessionMu.Unlock()
	return Subscription{ID: sub.id}
}

// Unregister removes a subscription. It reports whether it was registered.
func (h *Handler) Unregister(s Subscription) bool {
	if s.IsSession() {
		h.sessionMu.Lock()
		defer h.sessionMu.Unlock()
		for i, sub := range h.session {
			if sub.id == s.ID {
				h.session = append(h.session[:i:i], h.session[i+1:]...)
				return true
			}
		}
		return false
	}

	found := false
	h.watches.Update(s.Path, func(subs []subscriber, exists bool) ([]subscriber, bool) {
		if !exists {
			return nil, false
		}
		kept := make([]subscriber, 0, len(subs))
		for _, sub := range subs {
			if sub.id == s.ID {
				found = true
				continue
			}
			kept = append(kept, sub)
		}
		return kept, len(kept) > 0
	})
	return found
}

// WatchedPaths returns the paths that have at least one subscriber.
func (h *Handler) WatchedPaths() []string {
	return h.watches.Keys()
}

// DefaultWatcher returns the callback to install on the zk connection.
func (h *Handler) DefaultWatcher() zk.EventCallback {
	return func(ev zk.Event) {
		h.Dispatch(Convert(ev))
	}
}

// Convert maps a zk event onto a domain event.
func Convert(ev zk.Event) domain.Event {
	out := domain.Event{
		State:  ev.State.String(),
		Path:   ev.Path,
		Server: ev.Server,
		Err:    ev.Err,
	}

	switch ev.Type {
	case zk.EventSession:
		out.Kind = domain.EventKindSession
		out.Invalidated = ev.State == zk.StateExpired || ev.State == zk.StateAuthFailed
	case zk.EventNodeCreated:
		out.Kind = domain.EventKindNodeCreated
	case zk.EventNodeDeleted:
		out.Kind = domain.EventKindNodeDeleted
	case zk.EventNodeDataChanged:
		out.Kind = domain.EventKindNodeDataChanged
	case zk.EventNodeChildrenChanged:
		out.Kind = domain.EventKindNodeChildrenChanged
	case zk.EventNotWatching:
		out.Kind = domain.EventKindNotWatching
	default:
		out.Kind = domain.EventKindOther
	}
	return out
}

// Dispatch delivers ev to its subscribers, or buffers it while paused.
// It never blocks on subscriber callbacks.
func (h *Handler) Dispatch(ev domain.Event) {
	if ev.IsSession() {
		h.observer.IncSessionEvent(ev.State)
	}

	h.mu.Lock()
	if h.paused {
		h.pending.Add(ev)
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	h.deliver(ev)
}

func (h *Handler) deliver(ev domain.Event) {
	var subs []subscriber
	if ev.IsSession() {
		h.sessionMu.RLock()
		subs = append(subs, h.session...)
		h.sessionMu.RUnlock()
	} else if ev.Path != "" {
		subs, _ = h.watches.Get(ev.Path)
	}

	for _, sub := range subs {
		fn := sub.fn
		err := h.dispatcher.Submit(func(ctx context.Context) {
			fn(logger.WithLogger(ctx, h.logger), ev)
		})
		if err != nil {
			h.dropped.Add(1)
			h.logger.Debug("event dropped", "event", ev.String(), "error", err)
			continue
		}
		h.delivered.Add(1)
	}
}

// PauseBeforeFork starts buffering events.
func (h *Handler) PauseBeforeFork() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.paused {
		return domain.ErrInvalidState.WithDetails("event handler already paused")
	}
	h.paused = true
	return nil
}

// ResumeAfterFork replays buffered events in arrival order and resumes
// direct delivery.
func (h *Handler) ResumeAfterFork() error {
	h.mu.Lock()
	if !h.paused {
		h.mu.Unlock()
		return domain.ErrInvalidState.WithDetails("event handler not paused")
	}
	// Drain under the lock so events arriving meanwhile queue behind the
	// replayed ones.
	for h.pending.Length() > 0 {
		h.deliver(h.pending.Remove().(domain.Event))
	}
	h.paused = false
	h.mu.Unlock()
	return nil
}

// ReopenAfterFork forgets events buffered in the parent and clears the
// paused flag. Subscriptions are kept.
func (h *Handler) ReopenAfterFork() {
	h.mu.Lock()
	stale := h.pending.Length()
	h.pending = queue.New()
	h.paused = false
	h.mu.Unlock()

	if stale > 0 {
		h.logger.Debug("discarded events buffered before fork", "count", stale)
	}
}

// Stats is a point-in-time snapshot of the handler.
type Stats struct {
	Paused          bool   `json:"paused"`
	Buffered        int    `json:"buffered"`
	Delivered       uint64 `json:"delivered"`
	Dropped         uint64 `json:"dropped"`
	WatchedPaths    int    `json:"watched_paths"`
	SessionHandlers int    `json:"session_handlers"`
}

// Stats returns a snapshot of the handler.
func (h *Handler) Stats() Stats {
	h.mu.Lock()
	paused, buffered := h.paused, h.pending.Length()
	h.mu.Unlock()

	h.sessionMu.RLock()
	sessionHandlers := len(h.session)
	h.sessionMu.RUnlock()

	return Stats{
		Paused:          paused,
		Buffered:        buffered,
		Delivered:       h.delivered.Load(),
		Dropped:         h.dropped.Load(),
		WatchedPaths:    h.watches.Count(),
		SessionHandlers: sessionHandlers,
	}
}
