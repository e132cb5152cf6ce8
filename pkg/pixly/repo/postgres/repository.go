// Package postgres implements pixly.Repository on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pixly/pixly/pkg/pixly"
)

// DBTX is satisfied by both a pgx connection pool and a transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements pixly.Repository using PostgreSQL.
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool
}

// New creates a repository over an existing connection or transaction.
// Batch creation requires a pool; use NewWithPool for full functionality.
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a repository backed by a connection pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// Schema is the photos table DDL, applied by the server at startup.
const Schema = `
CREATE TABLE IF NOT EXISTS photos (
    id          BIGSERIAL PRIMARY KEY,
    caption     TEXT NOT NULL DEFAULT '',
    file_name   TEXT NOT NULL DEFAULT '',
    storage_url TEXT NOT NULL,
    metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS photos_caption_idx ON photos (caption);
CREATE INDEX IF NOT EXISTS photos_metadata_idx ON photos USING gin (metadata);
`

// Migrate creates the photos table if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("applying photos schema: %w", err)
	}
	return nil
}

func (r *Repository) CreatePhoto(ctx context.Context, photo *pixly.PhotoAsset) error {
	metadata, err := metadataJSON(photo.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO photos (caption, file_name, storage_url, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err = r.db.QueryRow(ctx, query,
		photo.Caption, photo.FileName, photo.StorageURL, metadata,
		photo.CreatedAt, photo.UpdatedAt).Scan(&photo.ID)
	if err != nil {
		return fmt.Errorf("database error in create photo: %w", err)
	}

	return nil
}

// CreatePhotoBatch persists all photos inside one transaction; a failing
// insert rolls the whole batch back.
func (r *Repository) CreatePhotoBatch(ctx context.Context, photos []*pixly.PhotoAsset) error {
	if len(photos) == 0 {
		return nil
	}
	if r.pool == nil {
		return errors.New("batch creation requires a connection pool")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning batch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txRepo := &Repository{db: tx}
	for _, photo := range photos {
		if err := txRepo.CreatePhoto(ctx, photo); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing batch transaction: %w", err)
	}
	return nil
}

const selectColumns = `id, caption, file_name, storage_url, metadata, created_at, updated_at`

func (r *Repository) GetPhoto(ctx context.Context, id int64) (*pixly.PhotoAsset, error) {
	query := `SELECT ` + selectColumns + ` FROM photos WHERE id = $1`
	photo, err := scanPhoto(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pixly.ErrPhotoNotFound
		}
		return nil, err
	}
	return photo, nil
}

func (r *Repository) ListPhotos(ctx context.Context) ([]*pixly.PhotoAsset, error) {
	query := `SELECT ` + selectColumns + ` FROM photos ORDER BY id`
	return r.queryPhotos(ctx, query)
}

func (r *Repository) UpdatePhoto(ctx context.Context, photo *pixly.PhotoAsset) error {
	metadata, err := metadataJSON(photo.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE photos SET
			caption = $2, file_name = $3, storage_url = $4,
			metadata = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		photo.ID, photo.Caption, photo.FileName, photo.StorageURL,
		metadata, photo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("database error in update photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pixly.ErrPhotoNotFound
	}

	return nil
}

func (r *Repository) DeletePhoto(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("database error in delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pixly.ErrPhotoNotFound
	}

	return nil
}

func (r *Repository) SearchByCaption(ctx context.Context, q string) ([]*pixly.PhotoAsset, error) {
	query := `SELECT ` + selectColumns + `
		FROM photos
		WHERE caption ILIKE '%' || $1 || '%'
		ORDER BY id`
	return r.queryPhotos(ctx, query, q)
}

// SearchByMetadata matches the query against every flattened metadata value.
func (r *Repository) SearchByMetadata(ctx context.Context, q string) ([]*pixly.PhotoAsset, error) {
	query := `SELECT ` + selectColumns + `
		FROM photos
		WHERE EXISTS (
			SELECT 1 FROM jsonb_each_text(metadata) AS kv
			WHERE kv.value ILIKE '%' || $1 || '%'
		)
		ORDER BY id`
	return r.queryPhotos(ctx, query, q)
}

func (r *Repository) queryPhotos(ctx context.Context, query string, args ...interface{}) ([]*pixly.PhotoAsset, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error in query photos: %w", err)
	}
	defer rows.Close()

	photos := make([]*pixly.PhotoAsset, 0)
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error in query photos: %w", err)
	}

	return photos, nil
}

func scanPhoto(row pgx.Row) (*pixly.PhotoAsset, error) {
	var photo pixly.PhotoAsset
	var metadata []byte

	err := row.Scan(&photo.ID, &photo.Caption, &photo.FileName,
		&photo.StorageURL, &metadata, &photo.CreatedAt, &photo.UpdatedAt)
	if err != nil {
		return nil, err
	}

	photo.Metadata = pixly.Metadata{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &photo.Metadata); err != nil {
			return nil, fmt.Errorf("decoding photo metadata: %w", err)
		}
	}

	return &photo, nil
}

func metadataJSON(m pixly.Metadata) ([]byte, error) {
	if m == nil {
		m = pixly.Metadata{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding photo metadata: %w", err)
	}
	return data, nil
}
