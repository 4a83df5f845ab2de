// Package upload validates and decodes multipart image uploads before they
// reach the image service.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxFileSize bounds a single uploaded image.
const MaxFileSize = 10 << 20 // 10 MiB

// MaxFiles bounds the number of images accepted in one request.
const MaxFiles = 10

// memoryLimit is how much of the form net/http keeps in memory while parsing.
const memoryLimit = 32 << 20

var allowedFormats = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

// File is one decoded upload held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ValidationError reports a rejected upload. It is a client error, never a
// system fault, and is raised before any storage backend is touched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// IsValidation reports whether err is an upload validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// FromRequest parses the multipart form of r and returns the validated files
// sent under field. A request without multipart content yields no files and
// no error, so handlers can share one code path for metadata-only updates.
func FromRequest(r *http.Request, field string) ([]File, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, nil
	}
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		return nil, &ValidationError{Reason: "malformed multipart form"}
	}
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File[field]
	if len(headers) > MaxFiles {
		return nil, &ValidationError{Reason: fmt.Sprintf("too many files: at most %d images per request", MaxFiles)}
	}

	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		f, err := decode(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, nil
}

func decode(fh *multipart.FileHeader) (*File, error) {
	if fh.Size > MaxFileSize {
		return nil, &ValidationError{Reason: fmt.Sprintf("%s exceeds the %d MiB limit", fh.Filename, MaxFileSize>>20)}
	}
	contentType := fh.Header.Get("Content-Type")
	if err := Validate(fh.Filename, contentType); err != nil {
		return nil, err
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}
	if len(data) > MaxFileSize {
		return nil, &ValidationError{Reason: fmt.Sprintf("%s exceeds the %d MiB limit", fh.Filename, MaxFileSize>>20)}
	}

	return &File{Name: fh.Filename, ContentType: contentType, Data: data}, nil
}

// Validate checks both the file extension and the declared content type
// against the allowed image formats. Both must match, mirroring the intake
// rules the admin UI has always relied on.
func Validate(name, contentType string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if !allowedFormats[ext] || !typeAllowed(contentType) {
		return &ValidationError{Reason: "only JPEG, PNG, GIF and WEBP images are allowed"}
	}
	return nil
}

func typeAllowed(contentType string) bool {
	contentType = strings.ToLower(contentType)
	for format := range allowedFormats {
		if strings.Contains(contentType, format) {
			return true
		}
	}
	return false
}
