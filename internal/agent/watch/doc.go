// Package watch keeps one-shot znode watches armed for a fixed set of paths.
//
// ZooKeeper watches fire once. A PathWatcher re-arms a path after each of
// its events and re-arms every path whenever the client gains a session,
// since a reopened connection carries no watches.
package watch
