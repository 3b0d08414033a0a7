package domain

import "fmt"

// EventKind distinguishes session-level notifications from znode notifications.
type EventKind int

const (
	EventKindSession EventKind = iota
	EventKindNodeCreated
	EventKindNodeDeleted
	EventKindNodeDataChanged
	EventKindNodeChildrenChanged
	EventKindNotWatching
	EventKindOther
)

func (k EventKind) String() string {
	switch k {
	case EventKindSession:
		return "session"
	case EventKindNodeCreated:
		return "node_created"
	case EventKindNodeDeleted:
		return "node_deleted"
	case EventKindNodeDataChanged:
		return "node_data_changed"
	case EventKindNodeChildrenChanged:
		return "node_children_changed"
	case EventKindNotWatching:
		return "not_watching"
	default:
		return "other"
	}
}

// Event is a notification delivered by the event handler.
//
// For session events Path is empty and State carries the connection state
// name reported by the ensemble client (e.g. "StateExpired").
type Event struct {
	Kind   EventKind
	State  string
	Path   string
	Server string
	Err    error

	// Invalidated is set when the session can no longer be used and must be
	// re-established (expired or rejected credentials).
	Invalidated bool
}

// IsSession reports whether the event concerns the session rather than a znode.
func (e Event) IsSession() bool {
	return e.Kind == EventKindSession
}

// InvalidatesSession reports whether the event is a session event that
// renders the current session unusable.
func (e Event) InvalidatesSession() bool {
	return e.IsSession() && e.Invalidated
}

func (e Event) String() string {
	if e.IsSession() {
		return fmt.Sprintf("session(%s)", e.State)
	}
	return fmt.Sprintf("%s(%s)", e.Kind, e.Path)
}
