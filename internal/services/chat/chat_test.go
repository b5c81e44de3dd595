package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/docgenie-api/internal/models"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/qa"
)

type staticKeys struct {
	key string
	err error
}

func (k staticKeys) APIKey(context.Context) (string, error) { return k.key, k.err }

// echoAnswerer answers with a fixed string, optionally waiting on a gate.
type echoAnswerer struct {
	mu      sync.Mutex
	calls   int
	reply   string
	started chan struct{}
	gate    chan struct{}
}

func (a *echoAnswerer) Answer(_ context.Context, _ string, _ models.UploadedFile, _ string) string {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.started != nil {
		a.started <- struct{}{}
	}
	if a.gate != nil {
		<-a.gate
	}
	return a.reply
}

func testFile() models.UploadedFile {
	return models.UploadedFile{Name: "report.pdf", Size: 3 << 20, Data: []byte("%PDF-1.4")}
}

func TestOpenSeedsGreeting(t *testing.T) {
	m := NewManager(&echoAnswerer{}, staticKeys{key: "AIzaValidKey1"}, time.Hour)
	s := m.Open("user-1", testFile())

	require.Len(t, s.Messages, 1)
	assert.False(t, s.Messages[0].IsUser)
	assert.Equal(t, `I've successfully analyzed your PDF "report.pdf". I can now answer questions about its content, summarize key points, or help you extract specific information. What would you like to know?`, s.Messages[0].Text)
	assert.Equal(t, "report.pdf", s.FileName)
	assert.Equal(t, "3.00", s.FileSizeMB)
	assert.Equal(t, QuickQuestions, s.QuickQuestions)
	assert.Equal(t, 1, m.Count())
}

func TestAskAppendsInOrder(t *testing.T) {
	ans := &echoAnswerer{reply: "The total is $40."}
	m := NewManager(ans, staticKeys{key: "AIzaValidKey1"}, time.Hour)
	s := m.Open("user-1", testFile())

	reply, err := m.Ask(context.Background(), "user-1", s.ID, "  What is the total?  ")
	require.NoError(t, err)
	require.Len(t, reply.Messages, 2)
	assert.Equal(t, "What is the total?", reply.Messages[0].Text)
	assert.True(t, reply.Messages[0].IsUser)
	assert.Equal(t, "The total is $40.", reply.Messages[1].Text)
	assert.False(t, reply.Messages[1].IsUser)

	got, err := m.Get("user-1", s.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 3)
	// The earlier prefix is untouched.
	assert.Equal(t, s.Messages[0], got.Messages[0])
	assert.Equal(t, reply.Messages, got.Messages[1:])
	assert.False(t, got.Busy)
}

func TestAskEmptyQuestion(t *testing.T) {
	ans := &echoAnswerer{reply: "x"}
	m := NewManager(ans, staticKeys{key: "AIzaValidKey1"}, time.Hour)
	s := m.Open("user-1", testFile())

	_, err := m.Ask(context.Background(), "user-1", s.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	got, _ := m.Get("user-1", s.ID)
	assert.Len(t, got.Messages, 1)
	assert.Zero(t, ans.calls)
}

func TestAskWithoutKeyPromptsForSettings(t *testing.T) {
	ans := &echoAnswerer{reply: "unused"}
	m := NewManager(ans, staticKeys{}, time.Hour)
	s := m.Open("user-1", testFile())

	reply, err := m.Ask(context.Background(), "user-1", s.ID, "Summarize this document")
	require.NoError(t, err)
	assert.Equal(t, MsgNoAPIKey, reply.Messages[1].Text)
	assert.Zero(t, ans.calls)
}

func TestAskKeyStoreFailure(t *testing.T) {
	m := NewManager(&echoAnswerer{}, staticKeys{err: errors.New("db down")}, time.Hour)
	s := m.Open("user-1", testFile())

	reply, err := m.Ask(context.Background(), "user-1", s.ID, "q")
	require.NoError(t, err)
	assert.Equal(t, qa.MsgFallback, reply.Messages[1].Text)
}

func TestAskWhileBusy(t *testing.T) {
	ans := &echoAnswerer{
		reply:   "done",
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	m := NewManager(ans, staticKeys{key: "AIzaValidKey1"}, time.Hour)
	s := m.Open("user-1", testFile())

	errc := make(chan error, 1)
	go func() {
		_, err := m.Ask(context.Background(), "user-1", s.ID, "first")
		errc <- err
	}()
	<-ans.started

	_, err := m.Ask(context.Background(), "user-1", s.ID, "second")
	assert.ErrorIs(t, err, ErrBusy)

	snap, _ := m.Get("user-1", s.ID)
	assert.True(t, snap.Busy)
	assert.Len(t, snap.Messages, 2, "greeting + first question only")

	close(ans.gate)
	require.NoError(t, <-errc)

	snap, _ = m.Get("user-1", s.ID)
	assert.False(t, snap.Busy)
	assert.Len(t, snap.Messages, 3)
}

func TestOwnerScoping(t *testing.T) {
	m := NewManager(&echoAnswerer{reply: "x"}, staticKeys{key: "AIzaValidKey1"}, time.Hour)
	s := m.Open("alice", testFile())

	_, err := m.Get("bob", s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Ask(context.Background(), "bob", s.ID, "hi")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Close("bob", s.ID), ErrNotFound)

	require.NoError(t, m.Close("alice", s.ID))
	_, err = m.Get("alice", s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDropUser(t *testing.T) {
	m := NewManager(&echoAnswerer{}, staticKeys{}, time.Hour)
	m.Open("alice", testFile())
	m.Open("alice", testFile())
	m.Open("bob", testFile())

	assert.Equal(t, 2, m.DropUser("alice"))
	assert.Equal(t, 1, m.Count())
}

func TestReap(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(&echoAnswerer{}, staticKeys{}, time.Hour)
	m.now = func() time.Time { return now }

	old := m.Open("alice", testFile())
	now = now.Add(50 * time.Minute)
	fresh := m.Open("alice", testFile())
	now = now.Add(20 * time.Minute)

	assert.Equal(t, 1, m.Reap())
	_, err := m.Get("alice", old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get("alice", fresh.ID)
	assert.NoError(t, err)
}

func TestReapDisabled(t *testing.T) {
	m := NewManager(&echoAnswerer{}, staticKeys{}, 0)
	m.now = func() time.Time { return time.Unix(0, 0) }
	m.Open("alice", testFile())
	m.now = time.Now
	assert.Zero(t, m.Reap())
}
