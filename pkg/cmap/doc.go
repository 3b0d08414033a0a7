// Package cmap provides a sharded concurrent map keyed by string.
//
// Keys are spread over shards with murmur3, each shard guarded by its own
// RWMutex. The event handler uses it to hold watch registrations keyed by
// znode path, where many watcher goroutines read while registrations come
// and go.
//
//	m := cmap.New[[]Subscription]()
//	m.Set("/app/config", subs)
//	subs, ok := m.Get("/app/config")
package cmap
