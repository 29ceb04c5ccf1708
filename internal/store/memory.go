package store

import (
	"context"
	"strings"
	"sync"
)

// Memory is an in-process Store with the same atomic-commit semantics
// as the Postgres implementation. Used by unit tests and local runs
// without a database.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
	order   []string
	seq     int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(key, value)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return ErrNotFound
	}
	m.remove(key)
	return nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, key := range m.order {
		if strings.HasPrefix(key, prefix) {
			out = append(out, m.entries[key])
		}
	}
	return out, nil
}

func (m *Memory) AtomicCommit(_ context.Context, checks []Check, writes []Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range checks {
		e, ok := m.entries[c.Key]
		if c.Version == VersionAbsent {
			if ok {
				return ErrConflict
			}
			continue
		}
		if !ok || e.Version != c.Version {
			return ErrConflict
		}
	}

	for _, w := range writes {
		if w.Delete {
			m.remove(w.Key)
			continue
		}
		m.put(w.Key, w.Value)
	}
	return nil
}

// put stores value at key, preserving insertion order for List.
// Versions come from one store-wide counter, so a re-created key never
// repeats a version from before its deletion. Caller holds the lock.
func (m *Memory) put(key string, value []byte) {
	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.seq++
	// Copy so callers cannot mutate stored bytes afterwards.
	buf := make([]byte, len(value))
	copy(buf, value)
	m.entries[key] = Entry{Key: key, Value: buf, Version: m.seq}
}

// remove drops key from the map and the insertion-order list.
// Caller holds the lock.
func (m *Memory) remove(key string) {
	if _, ok := m.entries[key]; !ok {
		return
	}
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
