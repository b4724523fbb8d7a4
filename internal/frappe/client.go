// ABOUTME: HTTP client for the remote Frappe conversation store and Q&A endpoint
// ABOUTME: JSON POSTs to /api/method/<method> with the host-supplied CSRF token

package frappe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lympik/erpnext-chatgpt/internal/store"
)

// Remote method names. The server side owns these endpoints; the client
// only knows their request/response shapes.
const (
	methodCheckAccess = "erpnext_chatgpt.erpnext_chatgpt.api.check_openai_key_and_role"
	methodCreate      = "erpnext_chatgpt.erpnext_chatgpt.api.create_conversation"
	methodGet         = "erpnext_chatgpt.erpnext_chatgpt.api.get_conversation"
	methodList        = "erpnext_chatgpt.erpnext_chatgpt.api.list_conversations"
	methodArchive     = "erpnext_chatgpt.erpnext_chatgpt.api.archive_conversation"
	methodAsk         = "erpnext_chatgpt.erpnext_chatgpt.api.ask_openai_question"
)

// Client talks to the two remote services: the conversation store (session
// CRUD) and the question-answering endpoint. Both are opaque JSON-over-HTTP
// services; the client never re-sends prior turns, the server owns history.
type Client struct {
	baseURL   string
	http      *http.Client
	csrfToken func() string
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCSRFToken supplies the host environment's CSRF token. The function is
// consulted per request so rotating tokens stay fresh.
func WithCSRFToken(fn func() string) Option {
	return func(c *Client) { c.csrfToken = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the Frappe instance at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 120 * time.Second},
		csrfToken: func() string { return "" },
		logger:    slog.Default().With("component", "frappe"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call performs one JSON POST to /api/method/<method> and returns the raw
// response body.
func (c *Client) call(ctx context.Context, method string, args any) (json.RawMessage, error) {
	if args == nil {
		args = struct{}{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", method, err)
	}

	url := c.baseURL + "/api/method/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.csrfToken(); token != "" {
		req.Header.Set("X-Frappe-CSRF-Token", token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", method, err)
	}

	c.logger.Debug("remote call completed",
		"method", method,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("calling %s: unexpected status %d", method, resp.StatusCode)
	}
	return raw, nil
}

// callMessage unwraps the standard {"message": ...} envelope into out.
func (c *Client) callMessage(ctx context.Context, method string, args, out any) error {
	raw, err := c.call(ctx, method, args)
	if err != nil {
		return err
	}
	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decoding %s envelope: %w", method, err)
	}
	if err := json.Unmarshal(envelope.Message, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	return nil
}

// CheckAccess reports whether the current user may see the assistant.
func (c *Client) CheckAccess(ctx context.Context) (bool, error) {
	var out struct {
		ShowButton bool `json:"show_button"`
	}
	if err := c.callMessage(ctx, methodCheckAccess, nil, &out); err != nil {
		return false, err
	}
	return out.ShowButton, nil
}

// CreateConversation mints a new session on the remote store and returns
// its identifier.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	var out struct {
		Success   bool   `json:"success"`
		SessionID string `json:"session_id"`
		Error     string `json:"error"`
	}
	if err := c.callMessage(ctx, methodCreate, nil, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", fmt.Errorf("%w: %s", store.ErrCreateFailed, out.Error)
	}
	return out.SessionID, nil
}

// GetConversation fetches a session's title and full message history.
// A success=false reply maps to store.ErrNotFound; callers treat it the
// same as a transport failure and self-heal by creating a fresh session.
func (c *Client) GetConversation(ctx context.Context, sessionID string) (*store.Session, error) {
	var out struct {
		Success  bool            `json:"success"`
		Title    string          `json:"title"`
		Messages []store.Message `json:"messages"`
		Error    string          `json:"error"`
	}
	args := map[string]string{"session_id": sessionID}
	if err := c.callMessage(ctx, methodGet, args, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, out.Error)
	}
	return &store.Session{
		ID:       sessionID,
		Title:    out.Title,
		Messages: out.Messages,
		Status:   store.SessionActive,
	}, nil
}

// ListConversations returns summaries of sessions in the given status.
func (c *Client) ListConversations(ctx context.Context, status store.SessionStatus, limit int) ([]store.SessionSummary, error) {
	var out struct {
		Success       bool                   `json:"success"`
		Conversations []store.SessionSummary `json:"conversations"`
	}
	args := map[string]any{"status": string(status), "limit": limit}
	if err := c.callMessage(ctx, methodList, args, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("listing conversations failed")
	}
	return out.Conversations, nil
}

// ArchiveConversation marks a session archived on the remote store.
func (c *Client) ArchiveConversation(ctx context.Context, sessionID string) error {
	var out struct {
		Success bool `json:"success"`
	}
	args := map[string]string{"session_id": sessionID}
	if err := c.callMessage(ctx, methodArchive, args, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("archiving conversation %s failed", sessionID)
	}
	return nil
}

// Ask sends one user question for a session and returns the raw response
// payload. Parsing is left to the caller: the payload shape varies and the
// response parser is total over all of them.
func (c *Client) Ask(ctx context.Context, sessionID, message string) (json.RawMessage, error) {
	args := map[string]string{"session_id": sessionID, "message": message}
	return c.call(ctx, methodAsk, args)
}
