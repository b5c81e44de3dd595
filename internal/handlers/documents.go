// documents.go accepts PDF uploads and opens a chat for each one.
package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docgenie-api/internal/services/upload"
)

// multipartOverhead is allowed on top of the file size for the multipart
// envelope (boundaries and part headers).
const multipartOverhead = 1 << 20

// UploadDocument validates an uploaded PDF and opens a chat around it.
// POST /api/v1/documents
//
// Accepts multipart file upload with field name "file". Rejected files
// never create a chat session.
func (h *Handler) UploadDocument(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	maxBytes := h.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = upload.DefaultMaxBytes
	}
	// Limit request body size
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "file_too_large", upload.Message(upload.ErrTooLarge, maxBytes))
			return
		}
		respondError(c, http.StatusBadRequest, "invalid_request", "No PDF file provided. Upload a file with the field name 'file'.")
		return
	}
	defer file.Close()

	// Read one byte past the limit so oversize files are detected without
	// buffering all of them.
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "read_error", "Failed to read uploaded file")
		return
	}

	uploaded, err := upload.Validate(displayName(header.Filename), header.Header.Get("Content-Type"), data, maxBytes)
	if err != nil {
		status, code := http.StatusBadRequest, "invalid_file"
		if errors.Is(err, upload.ErrTooLarge) {
			status, code = http.StatusRequestEntityTooLarge, "file_too_large"
		}
		log.Printf("⚠️  Upload rejected: %v", err)
		respondError(c, status, code, upload.Message(err, maxBytes))
		return
	}

	session := h.Chats.Open(user.ID, uploaded)
	h.showChat(user.ID, session.ID)
	c.JSON(http.StatusCreated, session)
}

// displayName strips directories and control characters from a client
// supplied filename.
func displayName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "." || name == "/" {
		return ""
	}
	if len([]rune(name)) > 255 {
		name = string([]rune(name)[:255])
	}
	return name
}
