package artifact

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryObjects is an in-memory ObjectStore for tests and the smoke binary.
type MemoryObjects struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryObjects returns an empty in-memory object store.
func NewMemoryObjects() *MemoryObjects {
	return &MemoryObjects{objects: make(map[string][]byte)}
}

func (m *MemoryObjects) Upload(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(body))
	copy(buf, body)
	m.objects[key] = buf
	return nil
}

func (m *MemoryObjects) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("object %s not found", key)
	}
	return fmt.Sprintf("memory://%s?expires_in=%d", key, int(expiry.Seconds())), nil
}

// Get returns the stored bytes, for assertions in tests.
func (m *MemoryObjects) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key]
	return b, ok
}

// Len reports how many objects are stored.
func (m *MemoryObjects) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// MemoryMetadata is an in-memory MetadataStore. The mutex makes the
// supersede-and-insert step atomic, matching the transactional guarantee of
// the Postgres implementation.
type MemoryMetadata struct {
	mu   sync.RWMutex
	rows map[string]Artifact
}

// NewMemoryMetadata returns an empty in-memory metadata store.
func NewMemoryMetadata() *MemoryMetadata {
	return &MemoryMetadata{rows: make(map[string]Artifact)}
}

func (m *MemoryMetadata) InsertCurrent(_ context.Context, a Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, row := range m.rows {
		if row.PayrollID == a.PayrollID && row.DocumentType == a.DocumentType && row.IsCurrent {
			row.IsCurrent = false
			m.rows[id] = row
		}
	}
	a.IsCurrent = true
	m.rows[a.ID] = a
	return nil
}

func (m *MemoryMetadata) ByID(_ context.Context, id string) (Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.rows[id]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	return a, nil
}

func (m *MemoryMetadata) ListCurrent(_ context.Context, payrollID string) ([]Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Artifact
	for _, a := range m.rows {
		if a.PayrollID == payrollID && a.IsCurrent {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out, nil
}

// All returns every row, current or not, for test assertions.
func (m *MemoryMetadata) All() []Artifact {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Artifact, 0, len(m.rows))
	for _, a := range m.rows {
		out = append(out, a)
	}
	return out
}
