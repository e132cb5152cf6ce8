package pixly

import "io"

// IngestUploadRequest contains parameters for ingesting a photo from an
// upload stream.
type IngestUploadRequest struct {
	Caption     string
	FileName    string
	ContentType string
	Reader      io.Reader
}

// IngestFromURLsRequest contains parameters for bulk ingestion from
// external URLs.
type IngestFromURLsRequest struct {
	Items []BulkItem
}

// BulkIngestResult reports the persisted assets and the items skipped
// because their fetch or upload failed.
type BulkIngestResult struct {
	Photos  []*PhotoAsset
	Skipped []BulkItemFailure
}

// ApplyEditRequest contains parameters for generating an edit preview.
type ApplyEditRequest struct {
	PhotoID  int64
	EditType EditType
}

// UpdateCaptionRequest updates only the caption of a photo.
type UpdateCaptionRequest struct {
	PhotoID int64
	Caption string
}

// UpdatePhotoRequest replaces every mutable field of a photo. When
// StorageURL differs from the stored value, the previous object is deleted
// best-effort.
type UpdatePhotoRequest struct {
	PhotoID    int64
	Caption    string
	FileName   string
	StorageURL string
	Metadata   Metadata
}

// SearchRequest carries the free-text queries. Either field may be empty;
// results are the union of both matches, deduplicated by id.
type SearchRequest struct {
	Caption  string
	Metadata string
}
