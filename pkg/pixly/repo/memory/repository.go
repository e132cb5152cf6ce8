// Package memory implements pixly.Repository in process memory, for tests
// and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pixly/pixly/pkg/pixly"
)

// Repository implements pixly.Repository using in-memory storage. IDs are
// assigned from a monotonic counter, mirroring the serial column of the
// Postgres implementation.
type Repository struct {
	mu     sync.RWMutex
	photos map[int64]*pixly.PhotoAsset
	nextID int64
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{
		photos: make(map[int64]*pixly.PhotoAsset),
		nextID: 1,
	}
}

func (r *Repository) CreatePhoto(ctx context.Context, photo *pixly.PhotoAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.create(photo)
	return nil
}

// CreatePhotoBatch assigns ids to every photo under one lock acquisition;
// in-memory inserts cannot partially fail.
func (r *Repository) CreatePhotoBatch(ctx context.Context, photos []*pixly.PhotoAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, photo := range photos {
		r.create(photo)
	}
	return nil
}

func (r *Repository) create(photo *pixly.PhotoAsset) {
	photo.ID = r.nextID
	r.nextID++

	// Store a copy to avoid external modifications.
	photoCopy := clone(photo)
	r.photos[photo.ID] = photoCopy
}

func (r *Repository) GetPhoto(ctx context.Context, id int64) (*pixly.PhotoAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	photo, exists := r.photos[id]
	if !exists {
		return nil, pixly.ErrPhotoNotFound
	}
	return clone(photo), nil
}

func (r *Repository) ListPhotos(ctx context.Context) ([]*pixly.PhotoAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(*pixly.PhotoAsset) bool { return true }), nil
}

func (r *Repository) UpdatePhoto(ctx context.Context, photo *pixly.PhotoAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.photos[photo.ID]; !exists {
		return pixly.ErrPhotoNotFound
	}
	r.photos[photo.ID] = clone(photo)
	return nil
}

func (r *Repository) DeletePhoto(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.photos[id]; !exists {
		return pixly.ErrPhotoNotFound
	}
	delete(r.photos, id)
	return nil
}

func (r *Repository) SearchByCaption(ctx context.Context, query string) ([]*pixly.PhotoAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	return r.collect(func(p *pixly.PhotoAsset) bool {
		return strings.Contains(strings.ToLower(p.Caption), needle)
	}), nil
}

func (r *Repository) SearchByMetadata(ctx context.Context, query string) ([]*pixly.PhotoAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	return r.collect(func(p *pixly.PhotoAsset) bool {
		for _, v := range p.Metadata {
			if strings.Contains(strings.ToLower(fmt.Sprintf("%v", v)), needle) {
				return true
			}
		}
		return false
	}), nil
}

// collect returns copies of all matching photos ordered by id. Callers hold
// at least a read lock.
func (r *Repository) collect(match func(*pixly.PhotoAsset) bool) []*pixly.PhotoAsset {
	photos := make([]*pixly.PhotoAsset, 0)
	for _, photo := range r.photos {
		if match(photo) {
			photos = append(photos, clone(photo))
		}
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].ID < photos[j].ID })
	return photos
}

func clone(photo *pixly.PhotoAsset) *pixly.PhotoAsset {
	photoCopy := *photo
	photoCopy.Metadata = pixly.Metadata{}
	for k, v := range photo.Metadata {
		photoCopy.Metadata[k] = v
	}
	return &photoCopy
}
