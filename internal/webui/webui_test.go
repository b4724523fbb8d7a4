// ABOUTME: Tests for the chat UI handlers and view models
// ABOUTME: Covers the full ask-to-transcript path including chips and reference links

package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lympik/erpnext-chatgpt/internal/assist"
	"github.com/lympik/erpnext-chatgpt/internal/render"
	"github.com/lympik/erpnext-chatgpt/internal/session"
	"github.com/lympik/erpnext-chatgpt/internal/state"
	"github.com/lympik/erpnext-chatgpt/internal/store"
)

type fakeBackend struct {
	access    bool
	accessErr error

	answer    json.RawMessage
	answerErr error

	summaries []store.SessionSummary
	listErr   error

	nextID   int
	archived []string
}

func (f *fakeBackend) CheckAccess(ctx context.Context) (bool, error) {
	return f.access, f.accessErr
}

func (f *fakeBackend) CreateConversation(ctx context.Context) (string, error) {
	f.nextID++
	return fmt.Sprintf("SESSION-%04d", f.nextID), nil
}

func (f *fakeBackend) GetConversation(ctx context.Context, id string) (*store.Session, error) {
	return nil, store.ErrNotFound
}

func (f *fakeBackend) ArchiveConversation(ctx context.Context, id string) error {
	f.archived = append(f.archived, id)
	return nil
}

func (f *fakeBackend) ListConversations(ctx context.Context, status store.SessionStatus, limit int) ([]store.SessionSummary, error) {
	return f.summaries, f.listErr
}

func (f *fakeBackend) Ask(ctx context.Context, sessionID, message string) (json.RawMessage, error) {
	return f.answer, f.answerErr
}

func newServer(t *testing.T, backend *fakeBackend) (*Server, *session.Store) {
	t.Helper()
	sessions := session.New(backend, state.NewMemoryState(), nil)
	controller := assist.NewController(sessions, backend, nil)
	srv := New(backend, backend, sessions, controller, render.New(), nil)
	srv.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return srv, sessions
}

func doRequest(srv *Server, method, target string, form url.Values) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestChatPageGatedOnAccess(t *testing.T) {
	srv, _ := newServer(t, &fakeBackend{access: true})
	rec := doRequest(srv, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERPNext AI Assistant")
}

func TestChatPageDenied(t *testing.T) {
	srv, _ := newServer(t, &fakeBackend{access: false})
	rec := doRequest(srv, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "unavailable")
}

func TestChatPageAccessCheckErrorDenies(t *testing.T) {
	srv, _ := newServer(t, &fakeBackend{accessErr: errors.New("backend down")})
	rec := doRequest(srv, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTranscriptEmptyShowsWelcomePrompts(t *testing.T) {
	srv, _ := newServer(t, &fakeBackend{access: true})
	rec := doRequest(srv, http.MethodGet, "/transcript", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Welcome to ERPNext AI Assistant")
	assert.Equal(t, 4, strings.Count(body, "suggestion-prompt"))
}

func TestAskRendersFullExchange(t *testing.T) {
	backend := &fakeBackend{
		access: true,
		answer: json.RawMessage(`{
			"message": {
				"content": "I found Sales Invoice: SINV-2025-00001 for you.",
				"session_id": "SESSION-0001",
				"tool_usage": [{
					"tool_name": "get_sales_invoices",
					"status": "success",
					"parameters": {"limit": 10},
					"result_summary": "1 invoice found",
					"fetched_entities": [{"id": "SINV-2025-00001", "doctype": "Sales Invoice", "label": "SINV-2025-00001"}]
				}]
			}
		}`),
	}
	srv, _ := newServer(t, backend)

	rec := doRequest(srv, http.MethodPost, "/ask", url.Values{"question": {"show me that invoice"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	// Both turns rendered
	assert.Contains(t, body, `id="msg-0"`)
	assert.Contains(t, body, `id="msg-1"`)
	assert.Contains(t, body, "show me that invoice")

	// Labeled invoice reference rewritten into a reference link
	assert.Contains(t, body, `data-doctype="Sales Invoice"`)
	assert.Contains(t, body, `data-name="SINV-2025-00001"`)

	// Entity chip with the invoice icon linking to the document
	assert.Contains(t, body, "entity-chip")
	assert.Contains(t, body, "🧾")
	assert.Contains(t, body, "/app/sales-invoice/SINV-2025-00001")

	// Collapsed detail section behind the toggle
	assert.Contains(t, body, "Show data access info (1 query)")
	assert.Contains(t, body, `id="msg-1-details"`)
	assert.Contains(t, body, "1 invoice found")

	// Bindings exported for post-insertion attachment
	assert.Contains(t, body, "data-bindings=")
}

func TestAskFailureReturnsInlineError(t *testing.T) {
	backend := &fakeBackend{access: true, answerErr: errors.New("gateway timeout")}
	srv, sessions := newServer(t, backend)

	rec := doRequest(srv, http.MethodPost, "/ask", url.Values{"question": {"will fail"}})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "inline-error")
	assert.Zero(t, sessions.MessageCount())
}

func TestAskEmptyQuestionShowsWelcome(t *testing.T) {
	srv, _ := newServer(t, &fakeBackend{access: true})
	rec := doRequest(srv, http.MethodPost, "/ask", url.Values{"question": {"   "}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to ERPNext AI Assistant")
}

func TestSessionsListRendersItems(t *testing.T) {
	last := time.Date(2026, 3, 15, 11, 30, 0, 0, time.UTC)
	backend := &fakeBackend{
		access: true,
		summaries: []store.SessionSummary{
			{ID: "SESSION-0001", Title: "Invoice review", MessageCount: 4, LastMessageAt: &last},
			{ID: "SESSION-0002", Title: "", MessageCount: 0},
		},
	}
	srv, _ := newServer(t, backend)

	rec := doRequest(srv, http.MethodGet, "/sessions", nil)
	body := rec.Body.String()
	assert.Contains(t, body, "Invoice review")
	assert.Contains(t, body, "30m ago")
	assert.Contains(t, body, "Untitled")
	assert.Contains(t, body, "Just created")
	assert.Contains(t, body, `data-session-switch="SESSION-0001"`)
	assert.Contains(t, body, `data-session-archive="SESSION-0001"`)
}

func TestSessionsListFailureShowsInlineMessage(t *testing.T) {
	backend := &fakeBackend{access: true, listErr: errors.New("unavailable")}
	srv, _ := newServer(t, backend)

	rec := doRequest(srv, http.MethodGet, "/sessions", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not load conversations.")
}

func TestSessionArchiveRefreshesList(t *testing.T) {
	backend := &fakeBackend{access: true}
	srv, _ := newServer(t, backend)

	rec := doRequest(srv, http.MethodPost, "/sessions/SESSION-0009/archive", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"SESSION-0009"}, backend.archived)
}

func TestSessionNewShowsWelcome(t *testing.T) {
	backend := &fakeBackend{access: true}
	srv, sessions := newServer(t, backend)

	rec := doRequest(srv, http.MethodPost, "/sessions/new", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to ERPNext AI Assistant")
	assert.Equal(t, "SESSION-0001", sessions.CurrentID())
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "Just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{48 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatRelativeTime(now.Add(-tt.ago), now))
	}

	old := now.Add(-30 * 24 * time.Hour)
	assert.Equal(t, old.Format("Jan 2, 2006"), formatRelativeTime(old, now))
}

func TestBuildMessageViewUserHasNoToolUsage(t *testing.T) {
	view := buildMessageView(render.New(), store.Message{Role: store.RoleUser, Content: "hello"}, 0)
	assert.Equal(t, "msg-0", view.ID)
	assert.Empty(t, view.ToggleID)
	assert.Empty(t, view.ChipsHTML)
	assert.Contains(t, string(view.BodyHTML), "hello")
}
