// Package pool is the public entry point to the callback-dispatching
// thread-pool runtime: submit immediate work, handle waits, periodic or
// deadline timers, and asynchronous file I-O against a shared or owned
// worker set, with uniform submission, replacement, cancellation, and
// drain semantics across all four object kinds.
package pool
