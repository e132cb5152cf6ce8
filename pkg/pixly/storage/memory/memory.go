// Package memory provides an in-memory object-storage backend for tests
// and development.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pixly/pixly/pkg/pixly"
)

// Backend is an in-memory implementation of pixly.BlobStore. Uploaded
// objects get URLs under a fixed memory scheme so callers can still derive
// deterministic, non-empty locations.
type Backend struct {
	mu          sync.RWMutex
	objects     map[string][]byte
	contentType map[string]string
}

// New creates a new in-memory storage backend.
func New() *Backend {
	return &Backend{
		objects:     make(map[string][]byte),
		contentType: make(map[string]string),
	}
}

// Upload stores the stream under the given key.
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params pixly.UploadParams) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = data
	contentType := params.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	b.contentType[params.ObjectKey] = contentType

	return fmt.Sprintf("memory://bucket/%s", params.ObjectKey), nil
}

// Delete removes the object.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return errors.New("object not found")
	}
	delete(b.objects, objectKey)
	delete(b.contentType, objectKey)
	return nil
}

// Object returns the stored bytes for a key.
func (b *Backend) Object(objectKey string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	return data, exists
}

// ContentType returns the stored content type for a key.
func (b *Backend) ContentType(objectKey string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ct, exists := b.contentType[objectKey]
	return ct, exists
}

// Len reports how many objects are stored.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
