package pixly

import "time"

// EditType selects one of the supported image transforms.
type EditType string

// Edit type constants (typed).
const (
	EditBlackAndWhite EditType = "blackAndWhite"
	EditAddBorder     EditType = "addBorder"
	EditInvertColors  EditType = "invertColors"
	EditSketch        EditType = "sketch"
)

// EditedKeyPrefix is prepended to the source file name when a transformed
// copy is uploaded.
const EditedKeyPrefix = "edited-"

// Metadata is a flat string-keyed mapping whose values are restricted to
// strings and integers, safe for direct JSON encoding. It is rebuilt from
// the image bytes on every ingestion or edit, never merged incrementally.
type Metadata map[string]any

// PhotoAsset is a stored photo record plus the object-storage location of
// its bytes. FileName, when non-empty, is the object key backing StorageURL.
type PhotoAsset struct {
	ID         int64     `json:"id"`
	Caption    string    `json:"caption"`
	FileName   string    `json:"file_name"`
	StorageURL string    `json:"storage_url"`
	Metadata   Metadata  `json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EditResult describes the transformed copy produced by an edit preview.
// It is a candidate for a later update call; producing it never mutates the
// source asset's record.
type EditResult struct {
	FileName string   `json:"file_name"`
	URL      string   `json:"url"`
	Metadata Metadata `json:"metadata"`
}

// BulkItem is one entry in a URL-sourced bulk ingestion.
type BulkItem struct {
	Caption string `json:"caption"`
	URL     string `json:"url"`
}

// BulkItemFailure records an item that was skipped during bulk ingestion.
type BulkItemFailure struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	Err   string `json:"error"`
}
