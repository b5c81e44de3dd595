// Package chat keeps the open chat sessions: one uploaded file, its
// append-only message list, and a busy flag that allows one question in
// flight at a time.
//
// Sessions live in process memory only. They end when the user closes the
// chat, logs out, or leaves the session idle past the configured TTL.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/Shimizu-Technology/docgenie-api/internal/models"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/qa"
)

// Errors returned by Manager methods.
var (
	ErrNotFound      = errors.New("chat session not found")
	ErrBusy          = errors.New("a question is already being answered in this chat")
	ErrEmptyQuestion = errors.New("question is empty")
)

// MsgNoAPIKey is the reply when no API key has been saved at all.
const MsgNoAPIKey = "Please add your Google Studio API key in Settings to enable real-time answers. Click the ⚙️ Settings button in the top-right corner to get started."

// QuickQuestions are the canned prompts offered under every chat.
var QuickQuestions = []string{
	"Summarize this document",
	"What are the key points?",
	"Find important dates",
	"Extract main conclusions",
}

// Greeting is the first assistant message of a new session.
func Greeting(fileName string) string {
	return fmt.Sprintf("I've successfully analyzed your PDF \"%s\". I can now answer questions about its content, summarize key points, or help you extract specific information. What would you like to know?", fileName)
}

// Answerer produces the reply text for a question. *qa.Pipeline satisfies it.
type Answerer interface {
	Answer(ctx context.Context, question string, file models.UploadedFile, apiKey string) string
}

// KeySource returns the stored API key, "" when none is configured.
// *settings.Service satisfies it.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

type session struct {
	// inflight admits one question at a time; busy mirrors it for readers.
	inflight *semaphore.Weighted

	mu         sync.Mutex
	id         string
	owner      string
	file       models.UploadedFile
	messages   []models.ChatMessage
	busy       bool
	createdAt  time.Time
	lastActive time.Time
}

// snapshot copies the session into its API shape. Caller holds s.mu.
func (s *session) snapshot() models.ChatSession {
	msgs := make([]models.ChatMessage, len(s.messages))
	copy(msgs, s.messages)
	return models.ChatSession{
		ID:             s.id,
		FileName:       s.file.Name,
		FileSizeMB:     fmt.Sprintf("%.2f", s.file.SizeMB()),
		Busy:           s.busy,
		CreatedAt:      s.createdAt,
		Messages:       msgs,
		QuickQuestions: QuickQuestions,
	}
}

// Manager owns every open session.
// Go Pattern: The map is guarded by one RWMutex; each session has its own
// mutex so a slow question in one chat never blocks another.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session

	answerer Answerer
	keys     KeySource
	idleTTL  time.Duration
	now      func() time.Time
}

// NewManager creates an empty manager. idleTTL ≤ 0 disables reaping.
func NewManager(answerer Answerer, keys KeySource, idleTTL time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*session),
		answerer: answerer,
		keys:     keys,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func newMessage(text string, isUser bool, at time.Time) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.New().String(),
		Text:      text,
		IsUser:    isUser,
		Timestamp: at,
	}
}

// Open starts a session for owner around file, seeded with the greeting.
func (m *Manager) Open(owner string, file models.UploadedFile) models.ChatSession {
	now := m.now()
	s := &session{
		inflight:   semaphore.NewWeighted(1),
		id:         uuid.New().String(),
		owner:      owner,
		file:       file,
		messages:   []models.ChatMessage{newMessage(Greeting(file.Name), false, now)},
		createdAt:  now,
		lastActive: now,
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	log.Printf("💬 Chat %s opened for %q (%.2f MB)", s.id, file.Name, file.SizeMB())
	return s.snapshot()
}

// lookup returns the session if it exists and belongs to owner.
// Another user's session is reported as not found.
func (m *Manager) lookup(owner, id string) (*session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.owner != owner {
		return nil, ErrNotFound
	}
	return s, nil
}

// Get returns a copy of the session.
func (m *Manager) Get(owner, id string) (models.ChatSession, error) {
	s, err := m.lookup(owner, id)
	if err != nil {
		return models.ChatSession{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Ask appends the question, waits for the answer, appends it, and returns
// both messages. While it runs, other questions on the same session fail
// with ErrBusy.
func (m *Manager) Ask(ctx context.Context, owner, id, question string) (models.ChatReply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.ChatReply{}, ErrEmptyQuestion
	}

	s, err := m.lookup(owner, id)
	if err != nil {
		return models.ChatReply{}, err
	}

	if !s.inflight.TryAcquire(1) {
		return models.ChatReply{}, ErrBusy
	}
	defer s.inflight.Release(1)

	s.mu.Lock()
	s.busy = true
	userMsg := newMessage(question, true, m.now())
	s.messages = append(s.messages, userMsg)
	s.lastActive = userMsg.Timestamp
	file := s.file
	s.mu.Unlock()

	// The slow part runs without holding the session lock.
	answer := m.answer(ctx, question, file)

	s.mu.Lock()
	replyMsg := newMessage(answer, false, m.now())
	s.messages = append(s.messages, replyMsg)
	s.lastActive = replyMsg.Timestamp
	s.busy = false
	s.mu.Unlock()

	return models.ChatReply{
		SessionID: id,
		Messages:  []models.ChatMessage{userMsg, replyMsg},
	}, nil
}

func (m *Manager) answer(ctx context.Context, question string, file models.UploadedFile) string {
	key, err := m.keys.APIKey(ctx)
	if err != nil {
		log.Printf("❌ Failed to load API key: %v", err)
		return qa.MsgFallback
	}
	if key == "" {
		return MsgNoAPIKey
	}
	return m.answerer.Answer(ctx, question, file, key)
}

// Close ends a session and discards its messages and file.
func (m *Manager) Close(owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.owner != owner {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// DropUser closes every session owned by owner and returns how many.
func (m *Manager) DropUser(owner string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.owner == owner {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap closes sessions idle longer than the TTL. Busy sessions are kept.
func (m *Manager) Reap() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := !s.busy && s.lastActive.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Run reaps idle sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	// Go Pattern: time.Ticker sends values at regular intervals.
	// Always defer ticker.Stop() to release resources.
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Reap(); n > 0 {
				log.Printf("🧹 Closed %d idle chat session(s)", n)
			}
		}
	}
}
