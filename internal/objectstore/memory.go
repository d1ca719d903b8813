package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryBlobs keeps objects in process for tests and local runs without MinIO.
type MemoryBlobs struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{objects: make(map[string][]byte)}
}

func (m *MemoryBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	m.mu.Lock()
	m.objects[key] = b
	m.mu.Unlock()
	return nil
}

func (m *MemoryBlobs) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	b, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get object %s: not found", key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// Overwrite replaces stored bytes in place, as tampering with the bucket would.
func (m *MemoryBlobs) Overwrite(key string, b []byte) {
	m.mu.Lock()
	m.objects[key] = b
	m.mu.Unlock()
}

// Raw returns the stored bytes of key.
func (m *MemoryBlobs) Raw(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key]
	return b, ok
}

func (m *MemoryBlobs) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
