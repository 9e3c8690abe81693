package store

import (
	"sync"

	"github.com/loganszeto/recordkv/internal/record"
)

// MemTable guards one map with one RWMutex: gets share the lock, sets take it
// exclusively. Unlocks are deferred so a panic inside a critical section never
// leaves the mutex held.
type MemTable struct {
	mu sync.RWMutex
	m  map[string]record.Record
}

func NewMemTable() *MemTable {
	return &MemTable{
		m: make(map[string]record.Record),
	}
}

func (t *MemTable) Get(key string) (record.Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.m[key]
	if !ok {
		return record.Record{}, false
	}
	// Clone before the read lock is released.
	return rec.Clone(), true
}

func (t *MemTable) Set(key string, value record.Record) {
	rec := value.Clone()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[key] = rec
}

func (t *MemTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}
