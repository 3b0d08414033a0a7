// Package threadpool runs user callbacks on a fixed set of workers.
//
// Tasks are queued FIFO and handed to an ants pool by a single dispatcher
// goroutine, so Submit never blocks and a callback may submit further work
// without deadlocking a pool of size one. Every task runs with a context that
// carries the pool marker; OnThreadpool reports whether a context belongs to
// one of this pool's workers.
//
// Around a fork boundary the pool is paused (dispatch stops, in-flight tasks
// drain, workers are released) and later resumed or rebuilt from scratch.
// Tasks submitted while paused stay queued and run after resume.
package threadpool
