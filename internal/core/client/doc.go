// Package client is the session lifecycle layer in front of a ZooKeeper
// connection.
//
// A Client owns one connection handle, a callback pool and an event
// handler, and keeps an explicit lifecycle state:
//
//	running → paused          PauseBeforeFork
//	paused → running          ResumeAfterFork
//	running|paused → close_requested → closed   Close
//
// Every state transition and every swap of the connection handle happens
// under one mutex. Methods whose name ends in Locked expect that mutex to be
// held by the caller; they are the non-reentrant replacement for calling a
// public method from inside another one's critical section.
//
// Session invalidation (expiry or rejected credentials) arrives on a pool
// worker and, when reconnect is enabled, triggers a zero-wait reopen unless
// the client is paused or shutting down.
//
// Go cannot fork a running process, so the fork boundary is a cooperative
// protocol: PauseBeforeFork stops every goroutine-owning subsystem,
// ResumeAfterFork restarts them. When ResumeAfterFork or Reopen run in a
// process other than the one that opened the connection, the client takes
// the child path instead: fresh lock, fresh pool workers, fresh connection.
package client
