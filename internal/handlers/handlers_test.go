package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/docgenie-api/internal/handlers"
	"github.com/Shimizu-Technology/docgenie-api/internal/middleware"
	"github.com/Shimizu-Technology/docgenie-api/internal/models"
	"github.com/Shimizu-Technology/docgenie-api/internal/router"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/chat"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/gemini"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/qa"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/settings"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/worker"
	"github.com/Shimizu-Technology/docgenie-api/internal/view"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeGenerator stands in for the generative endpoint.
type fakeGenerator struct {
	mu     sync.Mutex
	calls  int
	answer string
	err    error
}

func (f *fakeGenerator) GenerateContent(context.Context, string, string, gemini.GenerationConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.answer, f.err
}

type testServer struct {
	engine   *gin.Engine
	gen      *fakeGenerator
	settings *settings.Service
	chats    *chat.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gen := &fakeGenerator{answer: "Revenue grew 12%.\nConfidence: High"}
	svc := settings.NewService(settings.NewMemoryStore())
	chats := chat.NewManager(qa.New(gen, qa.Options{}), svc, time.Hour)

	h := &handlers.Handler{
		Settings:       svc,
		Chats:          chats,
		Views:          view.NewRegistry(),
		Revoked:        middleware.NewRevocations(),
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		MaxUploadBytes: 10 << 20,
	}
	return &testServer{
		engine:   router.Setup(h, middleware.NewRateLimiter(1000, 1000), []string{"http://localhost:3000"}),
		gen:      gen,
		settings: svc,
		chats:    chats,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T, token, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: email, Password: "pw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.AuthResponse
	decode(t, w, &resp)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	decode(t, w, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Settings)
}

func TestDocs(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/docs/openapi.yaml", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "title: DocGenie API")

	w = s.do(t, http.MethodGet, "/api/docs", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), handlers.OpenAPIPath)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: "ada@example.com", Password: "x"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.AuthResponse
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada", resp.User.Name)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, "landing", resp.View)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	decode(t, w, &me)
	assert.Equal(t, resp.User, me)
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		req     models.SignupRequest
		status  int
		message string
	}{
		{
			name:    "missing field",
			req:     models.SignupRequest{Email: "a@b.c", Password: "secret", ConfirmPassword: "secret"},
			status:  http.StatusBadRequest,
			message: "All fields are required",
		},
		{
			name:    "mismatch",
			req:     models.SignupRequest{FullName: "Ada", Email: "a@b.c", Password: "secret1", ConfirmPassword: "secret2"},
			status:  http.StatusBadRequest,
			message: "Passwords do not match",
		},
		{
			name:    "too short",
			req:     models.SignupRequest{FullName: "Ada", Email: "a@b.c", Password: "abc", ConfirmPassword: "abc"},
			status:  http.StatusBadRequest,
			message: "Password must be at least 6 characters",
		},
		{
			name:   "ok",
			req:    models.SignupRequest{FullName: "Ada Lovelace", Email: "a@b.c", Password: "secret", ConfirmPassword: "secret"},
			status: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", tt.req)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.message != "" {
				var e models.ErrorResponse
				decode(t, w, &e)
				assert.Equal(t, tt.message, e.Message)
				return
			}
			var resp models.AuthResponse
			decode(t, w, &resp)
			assert.Equal(t, "Ada Lovelace", resp.User.Name)
		})
	}
}

func TestViewRouting(t *testing.T) {
	s := newTestServer(t)

	var v models.ViewResponse
	w := s.do(t, http.MethodGet, "/api/v1/view", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &v)
	assert.Equal(t, "login", v.Page)
	assert.False(t, v.LoggedIn)

	token := s.login(t, "ada@example.com")
	decode(t, s.do(t, http.MethodGet, "/api/v1/view", token, nil), &v)
	assert.Equal(t, models.ViewResponse{Page: "landing", LoggedIn: true}, v)

	w = s.upload(t, token, "report.pdf", pdfBytes())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session models.ChatSession
	decode(t, w, &session)

	decode(t, s.do(t, http.MethodGet, "/api/v1/view", token, nil), &v)
	assert.Equal(t, models.ViewResponse{Page: "chat", LoggedIn: true, ChatID: session.ID}, v)

	// Back drops the file: the chat is gone.
	w = s.do(t, http.MethodPost, "/api/v1/view/back", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &v)
	assert.Equal(t, "landing", v.Page)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/chats/"+session.ID, token, nil).Code)

	w = s.do(t, http.MethodPost, "/api/v1/view/teleport", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "ada@example.com")

	w := s.upload(t, token, "notes.pdf", []byte("plain text pretending to be a pdf"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var e models.ErrorResponse
	decode(t, w, &e)
	assert.Equal(t, "Please upload a PDF file", e.Message)

	big := append(pdfBytes(), bytes.Repeat([]byte(" "), 10<<20)...)
	w = s.upload(t, token, "big.pdf", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	assert.Zero(t, s.chats.Count(), "rejected uploads never open a chat")

	w = s.upload(t, token, `C:\Users\ada\report.pdf`, pdfBytes())
	require.Equal(t, http.StatusCreated, w.Code)
	var session models.ChatSession
	decode(t, w, &session)
	assert.Equal(t, "report.pdf", session.FileName)
	require.Len(t, session.Messages, 1)
	assert.Contains(t, session.Messages[0].Text, `"report.pdf"`)
	assert.Len(t, session.QuickQuestions, 4)
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "ada@example.com")

	w := s.upload(t, token, "report.pdf", pdfBytes())
	require.Equal(t, http.StatusCreated, w.Code)
	var session models.ChatSession
	decode(t, w, &session)
	path := "/api/v1/chats/" + session.ID + "/messages"

	ask := func(msg string) *httptest.ResponseRecorder {
		return s.do(t, http.MethodPost, path, token, models.CreateChatMessageRequest{Message: msg})
	}
	lastAnswer := func(w *httptest.ResponseRecorder) string {
		var reply models.ChatReply
		decode(t, w, &reply)
		require.Len(t, reply.Messages, 2)
		return reply.Messages[1].Text
	}

	// No key stored yet.
	w = ask("Summarize this document")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, chat.MsgNoAPIKey, lastAnswer(w))

	// A stored but too-short key is rejected without calling out.
	require.NoError(t, s.settings.SaveAPIKey(context.Background(), "short"))
	w = ask("What are the key points?")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, qa.MsgKeyInvalid, lastAnswer(w))
	assert.Zero(t, s.gen.calls)

	// Blank messages are refused and not recorded.
	assert.Equal(t, http.StatusBadRequest, ask("   ").Code)
	assert.Equal(t, http.StatusBadRequest, ask("").Code)

	var got models.ChatSession
	decode(t, s.do(t, http.MethodGet, "/api/v1/chats/"+session.ID, token, nil), &got)
	assert.Len(t, got.Messages, 5)
	assert.Equal(t, session.Messages[0], got.Messages[0])

	// Unknown chat.
	w = s.do(t, http.MethodPost, "/api/v1/chats/nope/messages", token, models.CreateChatMessageRequest{Message: "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// History entries carry no bytes, so questions about them always end in
// the fallback message without reaching the generator.
func TestHistoryFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "ada@example.com")
	require.NoError(t, s.settings.SaveAPIKey(context.Background(), "AIzaSyValidLookingKey"))

	w := s.do(t, http.MethodGet, "/api/v1/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.HistoryResponse
	decode(t, w, &list)
	assert.Equal(t, 5, list.Total)
	assert.Equal(t, "2.4 MB", list.Documents[0].SizeLabel)
	assert.Equal(t, "Dec 15, 2024", list.Documents[0].DateLabel)

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/v1/history/4/open", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/history/99/open", token, nil).Code)

	w = s.do(t, http.MethodPost, "/api/v1/history/1/open", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var session models.ChatSession
	decode(t, w, &session)
	assert.Equal(t, "Annual Report 2023.pdf", session.FileName)
	assert.Equal(t, "2.40", session.FileSizeMB)

	w = s.do(t, http.MethodPost, "/api/v1/chats/"+session.ID+"/messages", token, models.CreateChatMessageRequest{Message: "What is this?"})
	require.Equal(t, http.StatusOK, w.Code)
	var reply models.ChatReply
	decode(t, w, &reply)
	assert.Equal(t, qa.MsgFallback, reply.Messages[1].Text)
	assert.Zero(t, s.gen.calls)
}

func TestChatOwnership(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice@example.com")
	bob := s.login(t, "bob@example.com")

	w := s.upload(t, alice, "a.pdf", pdfBytes())
	require.Equal(t, http.StatusCreated, w.Code)
	var session models.ChatSession
	decode(t, w, &session)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/chats/"+session.ID, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/chats/"+session.ID, bob, nil).Code)

	w = s.do(t, http.MethodDelete, "/api/v1/chats/"+session.ID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var v models.ViewResponse
	decode(t, w, &v)
	assert.Equal(t, "landing", v.Page)
}

func TestSettingsEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "ada@example.com")

	var st models.SettingsResponse
	decode(t, s.do(t, http.MethodGet, "/api/v1/settings", token, nil), &st)
	assert.False(t, st.APIKeyConfigured)

	w := s.do(t, http.MethodPut, "/api/v1/settings/api-key", token, models.SaveAPIKeyRequest{APIKey: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/settings/api-key", token, models.SaveAPIKeyRequest{APIKey: " AIzaSyExampleKey1234 "})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &st)
	assert.True(t, st.APIKeyConfigured)
	assert.True(t, strings.HasPrefix(st.APIKeyPreview, "AIza"))
	assert.NotContains(t, w.Body.String(), "AIzaSyExampleKey1234")

	stored, _ := s.settings.APIKey(context.Background())
	assert.Equal(t, "AIzaSyExampleKey1234", stored)

	w = s.do(t, http.MethodDelete, "/api/v1/settings/api-key", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stored, _ = s.settings.APIKey(context.Background())
	assert.Empty(t, stored)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "ada@example.com")
	require.Equal(t, http.StatusCreated, s.upload(t, token, "a.pdf", pdfBytes()).Code)
	require.Equal(t, 1, s.chats.Count())

	w := s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var v models.ViewResponse
	decode(t, w, &v)
	assert.Equal(t, "login", v.Page)
	assert.Zero(t, s.chats.Count())

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil).Code)
	decode(t, s.do(t, http.MethodGet, "/api/v1/view", token, nil), &v)
	assert.Equal(t, "login", v.Page)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/v1/settings", "/api/v1/history", "/api/v1/auth/me"} {
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, path, "", nil).Code, path)
	}
}

// TestChatAnswerTimeout checks that a question stuck in the worker queue
// comes back as chat text once the answer deadline passes.
func TestChatAnswerTimeout(t *testing.T) {
	gen := &fakeGenerator{answer: "unused"}
	svc := settings.NewService(settings.NewMemoryStore())
	require.NoError(t, svc.SaveAPIKey(context.Background(), "AIzaSyValidLookingKey"))

	// The pool is never started, so the job waits in the queue.
	wp := worker.NewPool(1, 1, qa.New(gen, qa.Options{}))
	h := &handlers.Handler{
		Settings:       svc,
		Chats:          chat.NewManager(wp, svc, time.Hour),
		Views:          view.NewRegistry(),
		Revoked:        middleware.NewRevocations(),
		Workers:        wp,
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		MaxUploadBytes: 10 << 20,
		AnswerTimeout:  50 * time.Millisecond,
	}
	s := &testServer{
		engine:   router.Setup(h, middleware.NewRateLimiter(1000, 1000), []string{"http://localhost:3000"}),
		gen:      gen,
		settings: svc,
		chats:    h.Chats,
	}
	token := s.login(t, "ada@example.com")

	w := s.upload(t, token, "report.pdf", pdfBytes())
	require.Equal(t, http.StatusCreated, w.Code)
	var session models.ChatSession
	decode(t, w, &session)

	w = s.do(t, http.MethodPost, "/api/v1/chats/"+session.ID+"/messages", token, models.CreateChatMessageRequest{Message: "Summarize this document"})
	require.Equal(t, http.StatusOK, w.Code)
	var reply models.ChatReply
	decode(t, w, &reply)
	require.Len(t, reply.Messages, 2)
	assert.Equal(t, worker.MsgCancelled, reply.Messages[1].Text)
	assert.Zero(t, gen.calls)
}
