package pixly

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrPhotoNotFound indicates the referenced photo id does not exist.
	ErrPhotoNotFound = errors.New("photo not found")

	// ErrUploadFailed indicates an object-store upload failed. No record is
	// persisted when this is returned.
	ErrUploadFailed = errors.New("upload failed")

	// ErrFetchFailed indicates remote byte retrieval by URL failed.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrUnsupportedEditType indicates an edit type outside the supported set.
	ErrUnsupportedEditType = errors.New("unsupported edit type")

	// ErrEmptyFileName indicates an ingestion request without an object key.
	ErrEmptyFileName = errors.New("file name is required")
)

// PhotoError represents an error related to a photo operation.
type PhotoError struct {
	PhotoID int64
	Op      string
	Err     error
}

func (e *PhotoError) Error() string {
	return fmt.Sprintf("photo operation %s failed for photo %d: %v", e.Op, e.PhotoID, e.Err)
}

func (e *PhotoError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to object-storage operations.
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
