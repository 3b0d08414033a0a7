// Package zkconn wraps a Shopify/zk connection with the lifecycle the
// client needs: bounded waits for a session, reopen, and suspend/resume
// around a fork boundary.
//
// The zk library reconnects on its own after transient network loss but has
// no way to resume a session on a new socket once the old connection object
// is closed, so Reopen and ResumeAfterFork dial a fresh *zk.Conn with the same
// options. Digest credentials are re-applied after every dial.
package zkconn
