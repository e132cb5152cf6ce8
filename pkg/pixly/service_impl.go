package pixly

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// service implements the Service interface.
type service struct {
	repository      Repository
	blobStore       BlobStore
	fetcher         Fetcher
	normalizer      Normalizer
	logger          *slog.Logger
	bulkConcurrency int
}

// Option represents a functional option for configuring the service.
type Option func(*service)

// WithRepository sets the record store for the service.
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the object-storage backend.
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithFetcher sets the remote byte fetcher used by bulk ingestion and the
// edit pipeline.
func WithFetcher(fetcher Fetcher) Option {
	return func(s *service) {
		s.fetcher = fetcher
	}
}

// WithNormalizer sets the metadata normalizer.
func WithNormalizer(n Normalizer) Option {
	return func(s *service) {
		s.normalizer = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithBulkConcurrency bounds how many bulk items are fetched and uploaded
// at once. Values below one fall back to the default of 4.
func WithBulkConcurrency(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.bulkConcurrency = n
		}
	}
}

// New creates a new service instance with the given options. A repository,
// a blob store, a fetcher and a normalizer are required.
func New(options ...Option) (Service, error) {
	s := &service{
		bulkConcurrency: 4,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if s.normalizer == nil {
		return nil, fmt.Errorf("normalizer is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// IngestUpload runs the ingestion pipeline: buffer the stream once, upload
// it under the caller-supplied file name, extract metadata from the same
// bytes and persist the record. A second upload with the same file name
// overwrites the object while creating a new record.
func (s *service) IngestUpload(ctx context.Context, req IngestUploadRequest) (*PhotoAsset, error) {
	if req.FileName == "" {
		return nil, ErrEmptyFileName
	}

	data, err := io.ReadAll(req.Reader)
	if err != nil {
		return nil, fmt.Errorf("reading upload stream: %w", err)
	}

	return s.ingestBytes(ctx, req.Caption, req.FileName, req.ContentType, data)
}

// ingestBytes uploads the buffered image, normalizes its metadata and
// persists the resulting record. Shared by single and bulk ingestion.
func (s *service) ingestBytes(ctx context.Context, caption, fileName, contentType string, data []byte) (*PhotoAsset, error) {
	photo, err := s.buildAsset(ctx, caption, fileName, contentType, data)
	if err != nil {
		return nil, err
	}

	if err := s.repository.CreatePhoto(ctx, photo); err != nil {
		return nil, &PhotoError{Op: "create", Err: err}
	}

	s.logger.Info("photo ingested", "id", photo.ID, "file_name", photo.FileName)
	return photo, nil
}

// buildAsset uploads the bytes and assembles an unsaved PhotoAsset.
func (s *service) buildAsset(ctx context.Context, caption, fileName, contentType string, data []byte) (*PhotoAsset, error) {
	url, err := s.blobStore.Upload(ctx, bytes.NewReader(data), UploadParams{
		ObjectKey:   fileName,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, &StorageError{Key: fileName, Op: "upload", Err: err})
	}

	metadata := s.normalizer.Normalize(bytes.NewReader(data))

	now := time.Now().UTC()
	return &PhotoAsset{
		Caption:    caption,
		FileName:   fileName,
		StorageURL: url,
		Metadata:   metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *service) GetPhoto(ctx context.Context, id int64) (*PhotoAsset, error) {
	return s.repository.GetPhoto(ctx, id)
}

func (s *service) ListPhotos(ctx context.Context) ([]*PhotoAsset, error) {
	return s.repository.ListPhotos(ctx)
}

// UpdateCaption changes only the caption; file name, storage URL and
// metadata remain untouched.
func (s *service) UpdateCaption(ctx context.Context, req UpdateCaptionRequest) (*PhotoAsset, error) {
	photo, err := s.repository.GetPhoto(ctx, req.PhotoID)
	if err != nil {
		return nil, err
	}

	photo.Caption = req.Caption
	photo.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdatePhoto(ctx, photo); err != nil {
		return nil, &PhotoError{PhotoID: req.PhotoID, Op: "update_caption", Err: err}
	}

	return photo, nil
}

// UpdatePhoto replaces every mutable field. Replacing the storage URL
// triggers a best-effort delete of the object previously backing the record.
func (s *service) UpdatePhoto(ctx context.Context, req UpdatePhotoRequest) (*PhotoAsset, error) {
	photo, err := s.repository.GetPhoto(ctx, req.PhotoID)
	if err != nil {
		return nil, err
	}

	previousKey := photo.FileName
	replaced := req.StorageURL != photo.StorageURL

	photo.Caption = req.Caption
	photo.FileName = req.FileName
	photo.StorageURL = req.StorageURL
	photo.Metadata = req.Metadata
	if photo.Metadata == nil {
		photo.Metadata = Metadata{}
	}
	photo.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdatePhoto(ctx, photo); err != nil {
		return nil, &PhotoError{PhotoID: req.PhotoID, Op: "update", Err: err}
	}

	if replaced && previousKey != "" {
		s.deleteObject(ctx, previousKey)
	}

	return photo, nil
}

// DeletePhoto removes the record and attempts to delete its backing object.
// An object that fails to delete does not keep the record alive.
func (s *service) DeletePhoto(ctx context.Context, id int64) error {
	photo, err := s.repository.GetPhoto(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repository.DeletePhoto(ctx, id); err != nil {
		return &PhotoError{PhotoID: id, Op: "delete", Err: err}
	}

	if photo.FileName != "" {
		s.deleteObject(ctx, photo.FileName)
	}

	return nil
}

// deleteObject is best-effort: failure is logged and swallowed.
func (s *service) deleteObject(ctx context.Context, key string) {
	if err := s.blobStore.Delete(ctx, key); err != nil {
		s.logger.Warn("object delete failed, record operation proceeds",
			"key", key, "error", err)
	}
}

// SearchPhotos runs the caption and metadata free-text queries and merges
// the results, deduplicated by id. Both queries empty yields an empty slice.
func (s *service) SearchPhotos(ctx context.Context, req SearchRequest) ([]*PhotoAsset, error) {
	seen := make(map[int64]bool)
	results := make([]*PhotoAsset, 0)

	if req.Caption != "" {
		photos, err := s.repository.SearchByCaption(ctx, req.Caption)
		if err != nil {
			return nil, err
		}
		for _, p := range photos {
			if !seen[p.ID] {
				seen[p.ID] = true
				results = append(results, p)
			}
		}
	}

	if req.Metadata != "" {
		photos, err := s.repository.SearchByMetadata(ctx, req.Metadata)
		if err != nil {
			return nil, err
		}
		for _, p := range photos {
			if !seen[p.ID] {
				seen[p.ID] = true
				results = append(results, p)
			}
		}
	}

	return results, nil
}
