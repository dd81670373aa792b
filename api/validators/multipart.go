package validators

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
)

// multipartMemory keeps small forms in memory; larger parts spill to disk.
const multipartMemory = 8 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/heic": true,
}

// UploadedImage is a validated image part of a multipart form.
type UploadedImage struct {
	ContentType string
	Filename    string
	Data        []byte
}

// ParseImageForm parses a multipart request and returns the image under
// field. maxBytes caps the whole request body.
func ParseImageForm(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*UploadedImage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is too large").WithDetails(map[string]any{"maxBytes": maxBytes})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "No image file provided").WithDetails(map[string]any{"field": field})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to read image")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is empty").WithDetails(map[string]any{"field": field})
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(header.Header.Get("Content-Type"), ";", 2)[0]))
	if !allowedImageTypes[contentType] {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if !allowedImageTypes[contentType] {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported image type").WithDetails(map[string]any{"contentType": contentType})
	}

	return &UploadedImage{
		ContentType: contentType,
		Filename:    header.Filename,
		Data:        bytes.Clone(data),
	}, nil
}

// FormValue returns a trimmed multipart or query value.
func FormValue(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.FormValue(key), maxLen)
}
