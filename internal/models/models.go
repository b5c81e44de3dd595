// Package models defines the data structures used throughout the application.
//
// Go Pattern: Models are plain structs with JSON tags for serialization.
// Nothing here talks to the network or the database; the services and
// handlers own behavior, models only describe shapes.
package models

import (
	"time"
)

// ChatMessage is one entry in a chat session.
// Messages are append-only: once added to a session they are never edited
// or removed, and they disappear together with the session.
type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
}

// UploadedFile is the raw PDF plus the metadata the chat view shows.
// Data is never serialized. Clients only ever see name and size.
type UploadedFile struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// SizeMB renders the file size the way the chat header shows it ("2.40").
func (f UploadedFile) SizeMB() float64 {
	return float64(f.Size) / 1024 / 1024
}

// HistoryEntry is a document in the (static) upload history.
type HistoryEntry struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Size             int64     `json:"size"`
	UploadDate       time.Time `json:"upload_date"`
	AnalysisComplete bool      `json:"analysis_complete"`
}

// Setting is one row of the key-value settings table.
type Setting struct {
	Name      string    `json:"name" db:"name"`
	Value     string    `json:"-" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// User is the fabricated account produced by the mock login/signup flow.
// Nothing about it is verified or stored.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// --- Request/Response DTOs (Data Transfer Objects) ---
// Go Pattern: Separate structs for API input/output vs internal models.

// LoginRequest is the JSON body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the JSON body for POST /api/v1/auth/signup.
type SignupRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// AuthResponse is returned after login or signup.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
	View  string `json:"view"`
}

// ViewResponse reports which screen the client should render.
type ViewResponse struct {
	Page     string `json:"page"`
	LoggedIn bool   `json:"logged_in"`
	ChatID   string `json:"chat_id,omitempty"`
}

// SaveAPIKeyRequest is the JSON body for PUT /api/v1/settings/api-key.
type SaveAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// SettingsResponse describes the stored API key without revealing it.
type SettingsResponse struct {
	APIKeyConfigured bool   `json:"api_key_configured"`
	APIKeyPreview    string `json:"api_key_preview,omitempty"`
}

// CreateChatMessageRequest is the JSON body for POST /api/v1/chats/:id/messages.
type CreateChatMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatSession is the API view of an open chat.
type ChatSession struct {
	ID             string        `json:"id"`
	FileName       string        `json:"file_name"`
	FileSizeMB     string        `json:"file_size_mb"`
	Busy           bool          `json:"busy"`
	CreatedAt      time.Time     `json:"created_at"`
	Messages       []ChatMessage `json:"messages"`
	QuickQuestions []string      `json:"quick_questions,omitempty"`
}

// ChatReply is returned after a question: the user's message and the answer.
type ChatReply struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
}

// HistoryItem is a HistoryEntry with display strings pre-formatted.
type HistoryItem struct {
	HistoryEntry
	SizeLabel string `json:"size_label"`
	DateLabel string `json:"date_label"`
	Status    string `json:"status"`
}

// HistoryResponse wraps the history list.
type HistoryResponse struct {
	Documents []HistoryItem `json:"documents"`
	Total     int           `json:"total"`
}

// ErrorResponse is a standard error format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Settings     string `json:"settings"`
	OpenSessions int    `json:"open_sessions"`
	Workers      int    `json:"workers"`
	QueuedJobs   int    `json:"queued_jobs"`
}
