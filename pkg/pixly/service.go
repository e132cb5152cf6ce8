package pixly

import "context"

// Service is the photo-management API: ingestion, edit previews, and the
// record operations callers use to read and mutate persisted assets.
type Service interface {
	// IngestUpload uploads the stream under req.FileName, extracts its
	// metadata and persists a new PhotoAsset. A failed upload aborts with
	// no record created.
	IngestUpload(ctx context.Context, req IngestUploadRequest) (*PhotoAsset, error)

	// IngestFromURLs fetches each item's bytes from its URL and ingests
	// them as IngestUpload does. Items that fail to fetch or upload are
	// skipped; surviving items persist in a single transaction.
	IngestFromURLs(ctx context.Context, req IngestFromURLsRequest) (*BulkIngestResult, error)

	// ApplyEdit produces a transformed copy of the photo's bytes, uploads
	// it under a derived key and returns the new asset descriptor. The
	// source record is never mutated.
	ApplyEdit(ctx context.Context, req ApplyEditRequest) (*EditResult, error)

	GetPhoto(ctx context.Context, id int64) (*PhotoAsset, error)
	ListPhotos(ctx context.Context) ([]*PhotoAsset, error)
	UpdateCaption(ctx context.Context, req UpdateCaptionRequest) (*PhotoAsset, error)
	UpdatePhoto(ctx context.Context, req UpdatePhotoRequest) (*PhotoAsset, error)
	DeletePhoto(ctx context.Context, id int64) error
	SearchPhotos(ctx context.Context, req SearchRequest) ([]*PhotoAsset, error)
}
