package pixly

import (
	"context"
	"net/url"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"
)

// bulkOutcome holds the per-item result of the concurrent phase.
type bulkOutcome struct {
	photo *PhotoAsset
	err   error
}

// IngestFromURLs runs the bulk pipeline. Items are fetched and uploaded
// concurrently, bounded by the configured limit; they share no state. An
// item whose fetch or upload fails is skipped and reported, the rest of the
// batch proceeds. Surviving records are persisted in a single transaction.
func (s *service) IngestFromURLs(ctx context.Context, req IngestFromURLsRequest) (*BulkIngestResult, error) {
	outcomes := make([]bulkOutcome, len(req.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.bulkConcurrency)

	for i, item := range req.Items {
		g.Go(func() error {
			outcomes[i] = s.ingestOneURL(gctx, item)
			// Item failures never fail the batch.
			return nil
		})
	}
	g.Wait()

	result := &BulkIngestResult{}
	var survivors []*PhotoAsset
	for i, out := range outcomes {
		if out.err != nil {
			s.logger.Warn("bulk item skipped", "url", req.Items[i].URL, "error", out.err)
			result.Skipped = append(result.Skipped, BulkItemFailure{
				Index: i,
				URL:   req.Items[i].URL,
				Err:   out.err.Error(),
			})
			continue
		}
		survivors = append(survivors, out.photo)
	}

	if len(survivors) > 0 {
		if err := s.repository.CreatePhotoBatch(ctx, survivors); err != nil {
			return nil, &PhotoError{Op: "create_batch", Err: err}
		}
	}

	result.Photos = survivors
	s.logger.Info("bulk ingestion finished",
		"requested", len(req.Items), "persisted", len(survivors), "skipped", len(result.Skipped))
	return result, nil
}

// ingestOneURL fetches an item's bytes and builds its unsaved asset.
func (s *service) ingestOneURL(ctx context.Context, item BulkItem) bulkOutcome {
	data, contentType, err := s.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		return bulkOutcome{err: err}
	}

	photo, err := s.buildAsset(ctx, item.Caption, deriveBulkKey(item.Caption, item.URL), contentType, data)
	if err != nil {
		return bulkOutcome{err: err}
	}
	return bulkOutcome{photo: photo}
}

// deriveBulkKey names the object after the caption, borrowing the source
// URL's extension. Captions are not deduplicated, so identical captions
// overwrite each other's objects just as repeated upload file names do.
func deriveBulkKey(caption, rawURL string) string {
	ext := ""
	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		ext = path.Ext(u.Path)
		base = path.Base(u.Path)
	}

	key := strings.TrimSpace(caption)
	if key == "" {
		if base != "" && base != "." && base != "/" {
			return base
		}
		return "photo" + ext
	}

	key = strings.ReplaceAll(key, " ", "-")
	if path.Ext(key) == "" {
		key += ext
	}
	return key
}
