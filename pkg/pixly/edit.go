package pixly

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/pixly/pixly/pkg/pixly/transform"
)

// ApplyEdit runs the edit-preview pipeline: fetch the photo's current bytes
// from its storage URL, spool them to a transient scratch file, apply the
// selected transform, upload the result under a derived key and re-extract
// its metadata. The scratch file is removed on every exit path. The source
// record is never mutated; the returned descriptor is a candidate a later
// update call may commit.
func (s *service) ApplyEdit(ctx context.Context, req ApplyEditRequest) (*EditResult, error) {
	// Reject unknown edit types before any lookup or network traffic.
	fn, ok := transform.For(string(req.EditType))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEditType, req.EditType)
	}

	photo, err := s.repository.GetPhoto(ctx, req.PhotoID)
	if err != nil {
		return nil, err
	}

	data, _, err := s.fetcher.Fetch(ctx, photo.StorageURL)
	if err != nil {
		return nil, &PhotoError{PhotoID: req.PhotoID, Op: "fetch_source", Err: err}
	}

	scratch, err := os.CreateTemp("", "pixly-edit-"+uuid.NewString()+"-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch buffer: %w", err)
	}
	defer os.Remove(scratch.Name())
	defer scratch.Close()

	if _, err := scratch.Write(data); err != nil {
		return nil, fmt.Errorf("writing scratch buffer: %w", err)
	}
	if err := scratch.Close(); err != nil {
		return nil, fmt.Errorf("closing scratch buffer: %w", err)
	}

	img, err := imaging.Open(scratch.Name())
	if err != nil {
		return nil, &PhotoError{PhotoID: req.PhotoID, Op: "decode", Err: err}
	}

	edited := fn(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, edited, imaging.JPEG); err != nil {
		return nil, &PhotoError{PhotoID: req.PhotoID, Op: "encode", Err: err}
	}

	editedKey := EditedKeyPrefix + editedBaseName(photo)
	editedURL, err := s.blobStore.Upload(ctx, bytes.NewReader(buf.Bytes()), UploadParams{
		ObjectKey:   editedKey,
		ContentType: "image/jpeg",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, &StorageError{Key: editedKey, Op: "upload", Err: err})
	}

	// Metadata of the transform is independent of the source asset's
	// metadata, not merged or carried over.
	metadata := s.normalizer.Normalize(bytes.NewReader(buf.Bytes()))

	s.logger.Info("edit preview generated",
		"photo_id", req.PhotoID, "edit_type", req.EditType, "key", editedKey)

	return &EditResult{
		FileName: editedKey,
		URL:      editedURL,
		Metadata: metadata,
	}, nil
}

// editedBaseName returns the source file name, falling back to the last
// path segment of the storage URL for records ingested without one.
func editedBaseName(photo *PhotoAsset) string {
	if photo.FileName != "" {
		return photo.FileName
	}
	if u, err := url.Parse(photo.StorageURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			return base
		}
	}
	return fmt.Sprintf("photo-%d", photo.ID)
}
