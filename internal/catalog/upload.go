package catalog

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/satriajanaka/backend-mart/internal/common"
)

const defaultUploadMax = 5 << 20

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UploadHandler stores product images submitted by the admin screens. Files
// are renamed to a random name under Dir and served back from URLPrefix, so
// the client never controls what lands on disk.
type UploadHandler struct {
	Dir       string
	URLPrefix string
	MaxSize   int64
}

func (h UploadHandler) maxSize() int64 {
	if h.MaxSize > 0 {
		return h.MaxSize
	}
	return defaultUploadMax
}

func (h UploadHandler) urlPrefix() string {
	if h.URLPrefix != "" {
		return h.URLPrefix
	}
	return "/uploads/"
}

// Upload handles POST /api/upload. The multipart field is named "image" to
// match the storefront client.
func (h UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize())
	if err := r.ParseMultipartForm(h.maxSize()); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "no image file provided")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		common.JSONError(w, http.StatusBadRequest, "images only (jpg, jpeg, png, webp)")
		return
	}

	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "could not store image")
		return
	}
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.Dir, name))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "could not store image")
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "could not store image")
		return
	}

	common.JSON(w, http.StatusCreated, map[string]string{
		"message": "Image uploaded",
		"image":   h.urlPrefix() + name,
	})
}
