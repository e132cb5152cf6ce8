// Package api exposes the photo service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/pixly/pixly/pkg/pixly"
)

// maxUploadBytes bounds a multipart upload held in memory before spilling
// to disk.
const maxUploadBytes = 32 << 20

// PhotoHandler handles HTTP requests for photos.
type PhotoHandler struct {
	service pixly.Service
	logger  *slog.Logger
}

// NewPhotoHandler creates a new photo handler.
func NewPhotoHandler(service pixly.Service, logger *slog.Logger) *PhotoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PhotoHandler{service: service, logger: logger}
}

// Routes returns the routes for photos.
func (h *PhotoHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPhotos)
	r.Post("/", h.CreatePhoto)
	r.Get("/search", h.SearchPhotos)
	r.Post("/bulk", h.BulkCreate)

	r.Get("/{id}", h.GetPhoto)
	r.Patch("/{id}", h.UpdateCaption)
	r.Put("/{id}", h.UpdatePhoto)
	r.Delete("/{id}", h.DeletePhoto)
	r.Post("/{id}/edits", h.ApplyEdit)

	return r
}

// PhotoResponse is the response body for a photo.
type PhotoResponse struct {
	ID         int64          `json:"id"`
	Caption    string         `json:"caption"`
	FileName   string         `json:"file_name"`
	StorageURL string         `json:"storage_url"`
	Metadata   pixly.Metadata `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func toPhotoResponse(p *pixly.PhotoAsset) PhotoResponse {
	return PhotoResponse{
		ID:         p.ID,
		Caption:    p.Caption,
		FileName:   p.FileName,
		StorageURL: p.StorageURL,
		Metadata:   p.Metadata,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toPhotoResponses(photos []*pixly.PhotoAsset) []PhotoResponse {
	out := make([]PhotoResponse, 0, len(photos))
	for _, p := range photos {
		out = append(out, toPhotoResponse(p))
	}
	return out
}

// ListPhotos returns all photos in the system.
func (h *PhotoHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.service.ListPhotos(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"photos": toPhotoResponses(photos)})
}

// CreatePhoto ingests a multipart upload: a caption field plus a
// fileObject part carrying the image bytes.
func (h *PhotoHandler) CreatePhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("fileObject")
	if err != nil {
		http.Error(w, "fileObject part is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	photo, err := h.service.IngestUpload(r.Context(), pixly.IngestUploadRequest{
		Caption:     r.FormValue("caption"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{"photo": toPhotoResponse(photo)})
}

// BulkCreateRequest is the request body for bulk ingestion.
type BulkCreateRequest struct {
	Items []pixly.BulkItem `json:"items"`
}

// BulkCreate ingests a batch of photos fetched from external URLs.
func (h *PhotoHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req BulkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "items is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.IngestFromURLs(r.Context(), pixly.IngestFromURLsRequest{Items: req.Items})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"photos":  toPhotoResponses(result.Photos),
		"skipped": result.Skipped,
	})
}

// GetPhoto returns data on a specific photo.
func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.photoID(w, r)
	if !ok {
		return
	}

	photo, err := h.service.GetPhoto(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"photo": toPhotoResponse(photo)})
}

// UpdateCaptionRequest is the request body for a caption update.
type UpdateCaptionRequest struct {
	Caption string `json:"caption"`
}

// UpdateCaption updates the photo caption only.
func (h *PhotoHandler) UpdateCaption(w http.ResponseWriter, r *http.Request) {
	id, ok := h.photoID(w, r)
	if !ok {
		return
	}

	var req UpdateCaptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	photo, err := h.service.UpdateCaption(r.Context(), pixly.UpdateCaptionRequest{
		PhotoID: id,
		Caption: req.Caption,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"photo": toPhotoResponse(photo)})
}

// UpdatePhotoRequest is the request body for a full-field replacement.
type UpdatePhotoRequest struct {
	Caption    string         `json:"caption"`
	FileName   string         `json:"file_name"`
	StorageURL string         `json:"storage_url"`
	Metadata   pixly.Metadata `json:"metadata"`
}

// UpdatePhoto replaces every mutable field of a photo.
func (h *PhotoHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.photoID(w, r)
	if !ok {
		return
	}

	var req UpdatePhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.StorageURL == "" {
		http.Error(w, "storage_url is required", http.StatusBadRequest)
		return
	}

	photo, err := h.service.UpdatePhoto(r.Context(), pixly.UpdatePhotoRequest{
		PhotoID:    id,
		Caption:    req.Caption,
		FileName:   req.FileName,
		StorageURL: req.StorageURL,
		Metadata:   req.Metadata,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"photo": toPhotoResponse(photo)})
}

// DeletePhoto deletes a photo and returns a confirmation.
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.photoID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePhoto(r.Context(), id); err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"deleted": id})
}

// ApplyEditRequest is the request body for an edit preview.
type ApplyEditRequest struct {
	EditType string `json:"edit_type"`
}

// ApplyEdit generates a transformed preview of the photo's bytes.
func (h *PhotoHandler) ApplyEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.photoID(w, r)
	if !ok {
		return
	}

	var req ApplyEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.ApplyEdit(r.Context(), pixly.ApplyEditRequest{
		PhotoID:  id,
		EditType: pixly.EditType(req.EditType),
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{"edit": result})
}

// SearchPhotos runs the caption and metadata free-text queries.
func (h *PhotoHandler) SearchPhotos(w http.ResponseWriter, r *http.Request) {
	req := pixly.SearchRequest{
		Caption:  r.URL.Query().Get("caption"),
		Metadata: r.URL.Query().Get("metadata"),
	}

	photos, err := h.service.SearchPhotos(r.Context(), req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"photos": toPhotoResponses(photos)})
}

func (h *PhotoHandler) photoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid photo id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *PhotoHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pixly.ErrPhotoNotFound):
		http.Error(w, "photo not found", http.StatusNotFound)
	case errors.Is(err, pixly.ErrUnsupportedEditType), errors.Is(err, pixly.ErrEmptyFileName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, pixly.ErrFetchFailed), errors.Is(err, pixly.ErrUploadFailed):
		h.logger.Error("upstream failure", "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		h.logger.Error("internal error", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
