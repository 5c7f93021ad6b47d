// Package archive stores the raw payload of bulk uploads in object storage.
package archive

import (
	"context"
	"maps"
	"path"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

const contentType = "text/csv"

var ErrEmptyBucket = goerr.New("bucket name is required")

// objectKey joins the optional prefix of a store with the key
func objectKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}

// Memory keeps archived objects in process
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

// Get returns an archived object
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}

// Objects returns a snapshot of every archived object
func (m *Memory) Objects() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.objects)
}
