// Package eventhandler turns ZooKeeper watch notifications into callbacks.
//
// The zk library invokes a single event callback for every notification and
// requires it not to block. DefaultWatcher returns that callback: it converts
// the event, looks up the subscribers and submits one task per subscriber to
// the callback pool. Session-level events go to session subscribers, node
// events to the subscribers registered for the event's path.
//
// While paused, events are buffered in arrival order and replayed on resume.
package eventhandler
