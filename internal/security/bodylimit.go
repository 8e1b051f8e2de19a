package security

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/satriajanaka/backend-mart/internal/common"
)

// BodyLimit caps request payload size before handlers decode anything.
// Multipart uploads are exempt; the upload handler enforces its own larger
// cap with http.MaxBytesReader.
type BodyLimit struct {
	Max int64
}

var errBodyTooLarge = errors.New("body exceeds limit")

// Middleware answers 413 when the payload exceeds Max. Bodies within the
// limit are buffered and handed to the next handler intact.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || isMultipart(r) {
			next.ServeHTTP(w, r)
			return
		}

		buf, err := b.readCapped(r)
		switch {
		case errors.Is(err, errBodyTooLarge):
			common.JSONError(w, http.StatusRequestEntityTooLarge, "request entity too large")
			return
		case err != nil:
			common.JSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(buf))
		next.ServeHTTP(w, r)
	})
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (b BodyLimit) readCapped(r *http.Request) ([]byte, error) {
	if r.ContentLength > b.Max {
		return nil, errBodyTooLarge
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, b.Max+1))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if int64(len(buf)) > b.Max {
		return nil, errBodyTooLarge
	}
	return buf, nil
}
