// Package history serves the fixed list of previously analyzed documents.
//
// The list is sample data. Nothing is recorded when a user uploads a file,
// and the entries carry no content: opening one starts a chat around an
// empty placeholder of the recorded size.
package history

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/Shimizu-Technology/docgenie-api/internal/models"
)

// Errors returned by Open.
var (
	ErrNotFound   = errors.New("history entry not found")
	ErrIncomplete = errors.New("analysis is still in progress for this document")
)

// Status labels shown next to each entry.
const (
	StatusAnalyzed   = "Analyzed"
	StatusProcessing = "Processing"
)

// mb converts megabytes to whole bytes.
func mb(v float64) int64 {
	return int64(v * 1024 * 1024)
}

func day(d int) time.Time {
	return time.Date(2024, time.December, d, 0, 0, 0, 0, time.UTC)
}

var entries = []models.HistoryEntry{
	{ID: "1", Name: "Annual Report 2023.pdf", Size: mb(2.4), UploadDate: day(15), AnalysisComplete: true},
	{ID: "2", Name: "Product Specifications.pdf", Size: mb(1.8), UploadDate: day(12), AnalysisComplete: true},
	{ID: "3", Name: "User Manual v2.1.pdf", Size: mb(5.6), UploadDate: day(8), AnalysisComplete: true},
	{ID: "4", Name: "Research Paper Draft.pdf", Size: mb(3.2), UploadDate: day(5), AnalysisComplete: false},
	{ID: "5", Name: "Meeting Notes Q4.pdf", Size: mb(0.8), UploadDate: day(1), AnalysisComplete: true},
}

// List returns every entry with display labels, newest first.
func List() []models.HistoryItem {
	items := make([]models.HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, Item(e))
	}
	return items
}

// Item decorates an entry with its display labels.
func Item(e models.HistoryEntry) models.HistoryItem {
	status := StatusProcessing
	if e.AnalysisComplete {
		status = StatusAnalyzed
	}
	return models.HistoryItem{
		HistoryEntry: e,
		SizeLabel:    FormatFileSize(e.Size),
		DateLabel:    FormatDate(e.UploadDate),
		Status:       status,
	}
}

// Find looks an entry up by ID.
func Find(id string) (models.HistoryEntry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.HistoryEntry{}, false
}

// Open returns the placeholder file for a completed entry.
// The file has the recorded size but no bytes, so any question about it
// ends in the pipeline's fallback message.
func Open(id string) (models.UploadedFile, error) {
	e, ok := Find(id)
	if !ok {
		return models.UploadedFile{}, ErrNotFound
	}
	if !e.AnalysisComplete {
		return models.UploadedFile{}, ErrIncomplete
	}
	return models.UploadedFile{
		Name:        e.Name,
		Size:        e.Size,
		ContentType: "application/pdf",
	}, nil
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count with a binary unit and at most two
// decimals, dropping trailing zeros: 2516582 → "2.4 MB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// FormatDate renders a date as "Dec 15, 2024".
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
