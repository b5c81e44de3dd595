// Package upload decides whether an uploaded file may start a chat.
//
// The declared Content-Type of a multipart part is whatever the browser
// guessed, so the bytes are sniffed with gabriel-vasile/mimetype and the
// sniffed type is what counts.
package upload

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Shimizu-Technology/docgenie-api/internal/models"
)

// PDFContentType is the only accepted media type.
const PDFContentType = "application/pdf"

// DefaultMaxBytes is the upload ceiling when the caller passes 0 (10MB).
const DefaultMaxBytes = 10 << 20

// Sentinel errors returned by Validate.
// Go Pattern: Sentinel errors let callers branch with errors.Is while the
// wrapped message still carries the specifics.
var (
	ErrEmpty    = errors.New("file is empty")
	ErrNotPDF   = errors.New("file is not a PDF")
	ErrTooLarge = errors.New("file is too large")
)

// Validate checks an upload and returns it as an UploadedFile.
// A file of exactly maxBytes is accepted.
func Validate(name, declaredType string, data []byte, maxBytes int64) (models.UploadedFile, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	size := int64(len(data))
	if size == 0 {
		return models.UploadedFile{}, ErrEmpty
	}
	if size > maxBytes {
		return models.UploadedFile{}, fmt.Errorf("%w: %.2f MB exceeds the %.0f MB limit",
			ErrTooLarge, float64(size)/(1<<20), float64(maxBytes)/(1<<20))
	}

	detected := mimetype.Detect(data)
	if !detected.Is(PDFContentType) {
		return models.UploadedFile{}, fmt.Errorf("%w: detected %s (declared %q)",
			ErrNotPDF, detected.String(), declaredType)
	}

	if name == "" {
		name = "document.pdf"
	}

	return models.UploadedFile{
		Name:        name,
		Size:        size,
		ContentType: PDFContentType,
		Data:        data,
	}, nil
}

// Message is the user-facing explanation for a Validate error.
func Message(err error, maxBytes int64) string {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	switch {
	case errors.Is(err, ErrTooLarge):
		return fmt.Sprintf("File size must be less than %dMB", maxBytes>>20)
	case errors.Is(err, ErrNotPDF):
		return "Please upload a PDF file"
	case errors.Is(err, ErrEmpty):
		return "The selected file is empty"
	default:
		return "Could not read the uploaded file"
	}
}
