package pixly_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixly/pixly/pkg/pixly"
	"github.com/pixly/pixly/pkg/pixly/internal/imagetest"
)

func TestIngestFromURLs(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	stream := imagetest.TIFF(imagetest.ShortEntry(imagetest.TagISOSpeedRatings, 800))
	f.fetcher.set("https://photos.example.com/a.jpg", stream)
	f.fetcher.set("https://photos.example.com/b.jpg", imagetest.JPEG(8, 8))

	result, err := f.svc.IngestFromURLs(ctx, pixly.IngestFromURLsRequest{
		Items: []pixly.BulkItem{
			{Caption: "sunset", URL: "https://photos.example.com/a.jpg"},
			{Caption: "bird", URL: "https://photos.example.com/b.jpg"},
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Photos, 2)
	assert.Empty(t, result.Skipped)

	for _, photo := range result.Photos {
		assert.NotZero(t, photo.ID)
		assert.NotEmpty(t, photo.StorageURL)
		assert.NotNil(t, photo.Metadata)
	}

	assert.Equal(t, "sunset.jpg", result.Photos[0].FileName)
	assert.Equal(t, pixly.Metadata{"ISOSpeedRatings": int64(800)}, result.Photos[0].Metadata)
	assert.Equal(t, "bird.jpg", result.Photos[1].FileName)

	photos, err := f.svc.ListPhotos(ctx)
	require.NoError(t, err)
	assert.Len(t, photos, 2)
}

func TestIngestFromURLsSkipsFailedItems(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.fetcher.set("https://photos.example.com/good.jpg", imagetest.JPEG(8, 8))

	result, err := f.svc.IngestFromURLs(ctx, pixly.IngestFromURLsRequest{
		Items: []pixly.BulkItem{
			{Caption: "good", URL: "https://photos.example.com/good.jpg"},
			{Caption: "bad", URL: "https://photos.example.com/missing.jpg"},
		},
	})
	require.NoError(t, err)

	// Exactly one asset is persisted; the failed item is reported, not fatal.
	require.Len(t, result.Photos, 1)
	assert.Equal(t, "good", result.Photos[0].Caption)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 1, result.Skipped[0].Index)
	assert.Equal(t, "https://photos.example.com/missing.jpg", result.Skipped[0].URL)

	photos, err := f.svc.ListPhotos(ctx)
	require.NoError(t, err)
	assert.Len(t, photos, 1)
}

func TestIngestFromURLsAllFailed(t *testing.T) {
	f := setup(t)

	result, err := f.svc.IngestFromURLs(context.Background(), pixly.IngestFromURLsRequest{
		Items: []pixly.BulkItem{
			{Caption: "a", URL: "https://photos.example.com/x.jpg"},
			{Caption: "b", URL: "https://photos.example.com/y.jpg"},
		},
	})
	require.NoError(t, err)

	assert.Empty(t, result.Photos)
	assert.Len(t, result.Skipped, 2)
}

func TestIngestFromURLsEmptyBatch(t *testing.T) {
	f := setup(t)

	result, err := f.svc.IngestFromURLs(context.Background(), pixly.IngestFromURLsRequest{})
	require.NoError(t, err)
	assert.Empty(t, result.Photos)
	assert.Empty(t, result.Skipped)
}

func TestIngestFromURLsBoundedConcurrency(t *testing.T) {
	f := setup(t, pixly.WithBulkConcurrency(1))

	items := make([]pixly.BulkItem, 8)
	for i := range items {
		url := "https://photos.example.com/n" + string(rune('a'+i)) + ".jpg"
		f.fetcher.set(url, imagetest.JPEG(4, 4))
		items[i] = pixly.BulkItem{Caption: "photo " + string(rune('a'+i)), URL: url}
	}

	result, err := f.svc.IngestFromURLs(context.Background(), pixly.IngestFromURLsRequest{Items: items})
	require.NoError(t, err)
	assert.Len(t, result.Photos, 8)
}

func TestDeriveBulkKeyFallsBackToURLName(t *testing.T) {
	f := setup(t)

	f.fetcher.set("https://photos.example.com/album/IMG_0042.jpeg", imagetest.JPEG(4, 4))

	result, err := f.svc.IngestFromURLs(context.Background(), pixly.IngestFromURLsRequest{
		Items: []pixly.BulkItem{{Caption: "", URL: "https://photos.example.com/album/IMG_0042.jpeg"}},
	})
	require.NoError(t, err)
	require.Len(t, result.Photos, 1)
	assert.Equal(t, "IMG_0042.jpeg", result.Photos[0].FileName)
}
