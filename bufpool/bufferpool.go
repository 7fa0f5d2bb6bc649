// File: bufpool/bufferpool.go
//
// Manager hands out fixed-size []byte scratch buffers for the I-O
// manager's reads, segmented by NUMA node: one *SyncPool[[]byte] per node,
// created lazily and cached in a map guarded by a RWMutex (read-mostly,
// write-rarely).
package bufpool

import "sync"

// DefaultSize is a reasonable single-read scratch size absent an
// application-supplied buffer.
const DefaultSize = 65536

// Manager segments buffer pools by NUMA node (-1 means "no preference").
type Manager struct {
	size int

	mu    sync.RWMutex
	pools map[int]*SyncPool[[]byte]
}

// NewManager constructs a Manager handing out buffers of the given size.
// size <= 0 defaults to DefaultSize.
func NewManager(size int) *Manager {
	if size <= 0 {
		size = DefaultSize
	}
	return &Manager{size: size, pools: make(map[int]*SyncPool[[]byte])}
}

// Get returns a buffer of m's configured size from node's pool, creating the
// pool on first use.
func (m *Manager) Get(node int) []byte {
	return m.poolFor(node).Get()
}

// Put returns buf to node's pool, re-sliced to m's configured length. A
// buffer whose capacity is below that size is dropped instead. Callers must
// not retain buf afterward.
func (m *Manager) Put(node int, buf []byte) {
	if cap(buf) < m.size {
		return
	}
	m.poolFor(node).Put(buf[:m.size])
}

func (m *Manager) poolFor(node int) *SyncPool[[]byte] {
	m.mu.RLock()
	p, ok := m.pools[node]
	m.mu.RUnlock()
	if ok {
		return p
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pools[node]; ok {
		return p
	}
	size := m.size
	p = NewSyncPool(func() []byte { return make([]byte, size) })
	m.pools[node] = p
	return p
}
