// Package pixly provides a photo management library with pluggable
// repository and blob storage backends.
//
// It exposes a single Service interface covering photo ingestion (direct
// uploads and URL-sourced bulk batches), EXIF metadata normalization,
// non-destructive edit previews, and record search. Implementations of
// repositories (memory, Postgres) and blob stores (memory, S3) live under
// subpackages.
//
// Metadata Strategy
//
// Caption, FileName, and StorageURL are authoritative first-class fields on
// PhotoAsset. The Metadata map holds normalized EXIF tags only, restricted
// to string and int64 values; it is rebuilt from the image bytes on every
// ingestion or edit rather than merged incrementally.
package pixly
