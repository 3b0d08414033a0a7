// Package procid identifies the running OS process.
//
// A forked child shares the parent's memory image but gets a new PID, so a
// client that recorded its creator's Identity can tell, after a fork, that
// it is now running in a different process. The creation time is recorded
// as well so PID reuse is not mistaken for the same process.
package procid
