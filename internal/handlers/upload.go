package handlers

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/flockshop/wishlist-api/internal/storage"
	"github.com/go-chi/chi/v5"
)

const (
	maxUploadMemory = 8 << 20
	maxImageBytes   = 8 << 20
	formFieldImage  = "image"
)

// UploadHandler stores product images in object storage and hands back a
// public URL suitable for a product's imageUrl field.
type UploadHandler struct {
	storage       *storage.Storage
	publicBaseURL string
}

// NewUploadHandler constructs an UploadHandler with the provided storage.
func NewUploadHandler(store *storage.Storage, publicBaseURL string) *UploadHandler {
	return &UploadHandler{
		storage:       store,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// UploadRouter registers upload routes on the given router.
func UploadRouter(r chi.Router, store *storage.Storage, publicBaseURL string, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUploadHandler(store, publicBaseURL)

	r.With(authMiddleware).Post("/", handler.UploadImage)
}

// UploadImage accepts a multipart image upload and returns its public URL.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if _, err := userIDFromContext(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	filename, data, err := parseImageFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "file is not an image")
		return
	}

	key := newObjectKey(filename)
	if err := h.storage.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		ImageURL: fmt.Sprintf("%s/%s", h.publicBaseURL, key),
	})
}

// UploadResponse carries the public URL of a stored image.
type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

func parseImageFile(r *http.Request) (string, []byte, error) {
	if r.MultipartForm == nil {
		return "", nil, errors.New("missing form data")
	}

	files := r.MultipartForm.File[formFieldImage]
	if len(files) == 0 {
		return "", nil, errors.New("image file is required")
	}
	if len(files) > 1 {
		return "", nil, errors.New("only one image file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, errors.New("failed to read image file")
	}

	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		return "", nil, err
	}
	return fileHeader.Filename, data, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

func newObjectKey(filename string) string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "products/" + filename
	}
	key := hex.EncodeToString(buf[:])
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		key += ext
	}
	return "products/" + key
}
