// Package bufpool provides generic, NUMA-segmented buffer pooling that the
// I/O manager draws scratch receive buffers from: a get/put pool over
// sync.Pool, keyed by NUMA node behind one manager.
package bufpool

import "sync"

// ObjectPool is a generic get/put pool.
type ObjectPool[T any] interface {
	Get() T
	Put(T)
}

// SyncPool wraps sync.Pool for generic usage.
type SyncPool[T any] struct {
	pool *sync.Pool
}

// NewSyncPool creates a SyncPool whose zero value is produced by creator.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	return &SyncPool[T]{pool: &sync.Pool{New: func() any { return creator() }}}
}

func (sp *SyncPool[T]) Get() T { return sp.pool.Get().(T) }

func (sp *SyncPool[T]) Put(obj T) { sp.pool.Put(obj) }
