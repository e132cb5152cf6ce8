package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixly/pixly/pkg/pixly"
	"github.com/pixly/pixly/pkg/pixly/api"
	"github.com/pixly/pixly/pkg/pixly/exif"
	"github.com/pixly/pixly/pkg/pixly/internal/imagetest"
	memoryrepo "github.com/pixly/pixly/pkg/pixly/repo/memory"
	memorystorage "github.com/pixly/pixly/pkg/pixly/storage/memory"
)

type mapFetcher struct {
	responses map[string][]byte
}

func (f *mapFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	data, ok := f.responses[url]
	if !ok {
		return nil, "", fmt.Errorf("%w: no response for %s", pixly.ErrFetchFailed, url)
	}
	return data, "image/jpeg", nil
}

func newTestServer(t *testing.T) (*httptest.Server, *mapFetcher) {
	t.Helper()

	fetcher := &mapFetcher{responses: map[string][]byte{}}
	svc, err := pixly.New(
		pixly.WithRepository(memoryrepo.New()),
		pixly.WithBlobStore(memorystorage.New()),
		pixly.WithFetcher(fetcher),
		pixly.WithNormalizer(exif.New(nil)),
		pixly.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)

	handler := api.NewPhotoHandler(svc, slog.New(slog.DiscardHandler))
	mux := http.NewServeMux()
	mux.Handle("/api/photos/", http.StripPrefix("/api/photos", handler.Routes()))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, fetcher
}

func multipartUpload(t *testing.T, caption, fileName string, data []byte) (io.Reader, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("caption", caption))
	part, err := mw.CreateFormFile("fileObject", fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func createPhoto(t *testing.T, srv *httptest.Server, caption, fileName string) api.PhotoResponse {
	t.Helper()

	body, contentType := multipartUpload(t, caption, fileName, imagetest.JPEG(10, 10))
	resp, err := http.Post(srv.URL+"/api/photos/", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Photo api.PhotoResponse `json:"photo"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Photo
}

func doJSON(t *testing.T, method, url string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestCreateAndGetPhoto(t *testing.T) {
	srv, _ := newTestServer(t)

	created := createPhoto(t, srv, "at the beach", "beach.jpg")
	assert.NotZero(t, created.ID)
	assert.Equal(t, "at the beach", created.Caption)
	assert.Equal(t, "beach.jpg", created.FileName)
	assert.NotEmpty(t, created.StorageURL)
	assert.NotNil(t, created.Metadata)

	resp, err := http.Get(fmt.Sprintf("%s/api/photos/%d", srv.URL, created.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Photo api.PhotoResponse `json:"photo"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, created.ID, out.Photo.ID)
	assert.Equal(t, created.StorageURL, out.Photo.StorageURL)
}

func TestCreatePhotoMissingFile(t *testing.T) {
	srv, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("caption", "no file"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/photos/", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListPhotos(t *testing.T) {
	srv, _ := newTestServer(t)
	createPhoto(t, srv, "one", "one.jpg")
	createPhoto(t, srv, "two", "two.jpg")

	resp, err := http.Get(srv.URL + "/api/photos/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Photos []api.PhotoResponse `json:"photos"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out.Photos, 2)
}

func TestGetPhotoNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/photos/12345")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetPhotoInvalidID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/photos/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateCaption(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createPhoto(t, srv, "before", "photo.jpg")

	resp := doJSON(t, http.MethodPatch, fmt.Sprintf("%s/api/photos/%d", srv.URL, created.ID),
		map[string]string{"caption": "after"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Photo api.PhotoResponse `json:"photo"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "after", out.Photo.Caption)
	assert.Equal(t, created.FileName, out.Photo.FileName)
	assert.Equal(t, created.StorageURL, out.Photo.StorageURL)
}

func TestUpdatePhotoRequiresStorageURL(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createPhoto(t, srv, "caption", "photo.jpg")

	resp := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/photos/%d", srv.URL, created.ID),
		map[string]string{"caption": "new"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeletePhoto(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createPhoto(t, srv, "doomed", "doomed.jpg")

	resp := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/photos/%d", srv.URL, created.ID), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Deleted int64 `json:"deleted"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, created.ID, out.Deleted)

	check, err := http.Get(fmt.Sprintf("%s/api/photos/%d", srv.URL, created.ID))
	require.NoError(t, err)
	defer check.Body.Close()
	assert.Equal(t, http.StatusNotFound, check.StatusCode)
}

func TestDeletePhotoNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/photos/999", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchPhotos(t *testing.T) {
	srv, _ := newTestServer(t)
	sunset := createPhoto(t, srv, "sunset over water", "sunset.jpg")
	createPhoto(t, srv, "city at night", "city.jpg")

	resp, err := http.Get(srv.URL + "/api/photos/search?caption=sunset")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Photos []api.PhotoResponse `json:"photos"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Photos, 1)
	assert.Equal(t, sunset.ID, out.Photos[0].ID)
}

func TestBulkCreate(t *testing.T) {
	srv, fetcher := newTestServer(t)
	fetcher.responses["https://example.com/a.jpg"] = imagetest.JPEG(6, 6)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/photos/bulk", map[string]any{
		"items": []map[string]string{
			{"caption": "fetched", "url": "https://example.com/a.jpg"},
			{"caption": "broken", "url": "https://example.com/missing.jpg"},
		},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Photos  []api.PhotoResponse     `json:"photos"`
		Skipped []pixly.BulkItemFailure `json:"skipped"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Photos, 1)
	assert.Equal(t, "fetched", out.Photos[0].Caption)
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, 1, out.Skipped[0].Index)
}

func TestBulkCreateEmptyItems(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/photos/bulk", map[string]any{"items": []any{}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApplyEditUnsupportedType(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createPhoto(t, srv, "caption", "photo.jpg")

	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/photos/%d/edits", srv.URL, created.ID),
		map[string]string{"edit_type": "sepia"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(strings.ToLower(string(data)), "edit"), "got %q", data)
}

func TestApplyEdit(t *testing.T) {
	srv, fetcher := newTestServer(t)
	created := createPhoto(t, srv, "caption", "photo.jpg")
	fetcher.responses[created.StorageURL] = imagetest.JPEG(10, 10)

	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/photos/%d/edits", srv.URL, created.ID),
		map[string]string{"edit_type": string(pixly.EditBlackAndWhite)})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Edit pixly.EditResult `json:"edit"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "edited-photo.jpg", out.Edit.FileName)
	assert.NotEmpty(t, out.Edit.URL)
}
