package pixly

import (
	"context"
	"io"
)

// BlobStore defines the interface for object-storage backends.
type BlobStore interface {
	// Upload stores the full byte stream under params.ObjectKey and returns
	// the public URL of the stored object. Uploading to an existing key
	// overwrites the object silently; key uniqueness is the caller's
	// responsibility.
	Upload(ctx context.Context, reader io.Reader, params UploadParams) (string, error)

	// Delete removes the named object. Callers treat deletion as
	// best-effort and absorb failures.
	Delete(ctx context.Context, objectKey string) error
}

// UploadParams contains parameters for uploading an object.
type UploadParams struct {
	ObjectKey   string
	ContentType string
}

// Repository defines the interface for photo record persistence.
//
// Implementations assign PhotoAsset.ID on creation and must return
// ErrPhotoNotFound for operations against an unknown id.
type Repository interface {
	CreatePhoto(ctx context.Context, photo *PhotoAsset) error
	// CreatePhotoBatch persists all photos in a single transaction.
	// Either every photo is persisted with an assigned id or none is.
	CreatePhotoBatch(ctx context.Context, photos []*PhotoAsset) error
	GetPhoto(ctx context.Context, id int64) (*PhotoAsset, error)
	ListPhotos(ctx context.Context) ([]*PhotoAsset, error)
	UpdatePhoto(ctx context.Context, photo *PhotoAsset) error
	DeletePhoto(ctx context.Context, id int64) error

	// SearchByCaption matches the query as a case-insensitive substring of
	// the caption column.
	SearchByCaption(ctx context.Context, query string) ([]*PhotoAsset, error)
	// SearchByMetadata matches the query against the flattened metadata
	// mapping's values.
	SearchByMetadata(ctx context.Context, query string) ([]*PhotoAsset, error)
}

// Fetcher retrieves bytes from a remote URL. Implementations must bound
// every fetch with a timeout and consume the body exactly once.
type Fetcher interface {
	// Fetch returns the body bytes and the content type of the resource.
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Normalizer extracts an image's embedded tag table and reduces every value
// to a JSON-safe scalar. A missing or unreadable tag table yields an empty
// mapping, never an error.
type Normalizer interface {
	Normalize(r io.Reader) Metadata
}
