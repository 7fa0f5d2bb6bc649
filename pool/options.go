// File: pool/options.go
//
// Functional options for New: closures mutating a config struct before
// construction proceeds.
package pool

import "github.com/gontp/taskpool/api"

// Option customizes pool construction.
type Option func(*config)

type config struct {
	owned       bool
	minThreads  int
	maxThreads  int
	affinityIDs []int
	cancelPred  api.CancelPredicate
}

// WithOwnedThreads builds the pool with its own worker band instead of the
// shared, platform-global default. The band is normalized (see
// internal/traits).
func WithOwnedThreads(min, max int) Option {
	return func(c *config) {
		c.owned = true
		c.minThreads = min
		c.maxThreads = max
	}
}

// WithAffinity pins owned-pool workers round-robin across the given logical
// CPU ids. Has no effect on a shared (system-default) pool.
func WithAffinity(cpuIDs ...int) Option {
	return func(c *config) {
		c.affinityIDs = cpuIDs
	}
}

// WithCancelPredicate overrides the default "never cancel" predicate polled
// by WaitWorks.
func WithCancelPredicate(p api.CancelPredicate) Option {
	return func(c *config) {
		c.cancelPred = p
	}
}
