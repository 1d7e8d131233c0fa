package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keveinliu/inkwell/internal/db"
	"github.com/keveinliu/inkwell/internal/models"
)

// maxUploadBytes caps image uploads at 10MB.
const maxUploadBytes = 10 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

type ImagesHandler struct {
	store      *db.Store
	uploadsDir string
}

func NewImagesHandler(store *db.Store, uploadsDir string) *ImagesHandler {
	return &ImagesHandler{store: store, uploadsDir: uploadsDir}
}

// Upload stores a multipart "image" file under the uploads directory
// and records its metadata row.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[mimeType]
	if !ok {
		respondError(w, http.StatusBadRequest, "unsupported image type")
		return
	}

	if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
		slog.Error("create uploads dir failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	filename := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	destPath := filepath.Join(h.uploadsDir, filename)
	dest, err := os.Create(destPath)
	if err != nil {
		slog.Error("create image file failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store image")
		return
	}
	size, err := io.Copy(dest, file)
	closeErr := dest.Close()
	if err != nil || closeErr != nil {
		_ = os.Remove(destPath)
		slog.Error("write image file failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	created, err := h.store.CreateImage(r.Context(), models.Image{
		Filename:     filename,
		OriginalName: filepath.Base(header.Filename),
		FilePath:     destPath,
		FileSize:     size,
		MimeType:     mimeType,
	})
	if err != nil {
		_ = os.Remove(destPath)
		slog.Error("create image row failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store image")
		return
	}
	url := "/uploads/" + created.Filename
	created.URL = &url
	respondDataMessage(w, http.StatusCreated, created, "image uploaded")
}

func (h *ImagesHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parsePositiveInt(r.URL.Query().Get("page"), 1)
	limit := parsePositiveInt(r.URL.Query().Get("limit"), 20)
	if limit > 100 {
		limit = 100
	}
	images, total, err := h.store.ListImages(r.Context(), limit, (page-1)*limit)
	if err != nil {
		slog.Error("list images failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load images")
		return
	}
	for i := range images {
		url := "/uploads/" + images[i].Filename
		images[i].URL = &url
	}
	respondPaged(w, images, total, page, limit)
}

func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid image id")
		return
	}
	image, err := h.store.GetImage(r.Context(), id)
	if err != nil {
		slog.Error("get image failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load image")
		return
	}
	if image == nil {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}
	url := "/uploads/" + image.Filename
	image.URL = &url
	respondData(w, http.StatusOK, image)
}

// Delete removes the metadata row and, best effort, the stored file.
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid image id")
		return
	}
	image, err := h.store.GetImage(r.Context(), id)
	if err != nil {
		slog.Error("get image failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete image")
		return
	}
	if image == nil {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}
	if _, err := h.store.DeleteImage(r.Context(), id); err != nil {
		slog.Error("delete image row failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete image")
		return
	}
	if image.FilePath != "" && strings.HasPrefix(filepath.Clean(image.FilePath), filepath.Clean(h.uploadsDir)) {
		if err := os.Remove(image.FilePath); err != nil && !os.IsNotExist(err) {
			slog.Error("delete image file failed", "error", err, "path", image.FilePath)
		}
	}
	respondMessage(w, http.StatusOK, "image deleted")
}
