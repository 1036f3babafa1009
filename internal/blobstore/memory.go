package blobstore

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store used by tests in this module and by
// other packages' tests that need a blob store without a network
// dependency. Blob content is kept as raw bytes keyed by path.
type MemoryStore struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore for bucket.
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{bucket: bucket, objects: make(map[string][]byte)}
}

// Put seeds the store with an object, for test setup.
func (m *MemoryStore) Put(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = content
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Descriptor
	for path := range m.objects {
		if strings.HasPrefix(path, prefix) {
			out = append(out, Descriptor{Bucket: m.bucket, Path: path})
		}
	}
	return out, nil
}

func (m *MemoryStore) Download(ctx context.Context, desc Descriptor, destFile string) error {
	m.mu.Lock()
	content, ok := m.objects[desc.Path]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, desc.Path)
	}
	return os.WriteFile(destFile, content, 0o644)
}

func (m *MemoryStore) Copy(ctx context.Context, src Descriptor, dstPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.objects[src.Path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, src.Path)
	}
	m.objects[dstPath] = content
	return nil
}

func (m *MemoryStore) DeleteMany(ctx context.Context, descs []Descriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range descs {
		delete(m.objects, d.Path)
	}
	return nil
}
