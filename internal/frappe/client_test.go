// ABOUTME: Tests for the Frappe HTTP client
// ABOUTME: Uses httptest to verify request shape, envelope unwrapping, and error mapping

package frappe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lympik/erpnext-chatgpt/internal/store"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, WithCSRFToken(func() string { return "tok-123" }))
	return srv, client
}

func TestClient_CreateConversation(t *testing.T) {
	var gotPath, gotToken string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Frappe-CSRF-Token")
		fmt.Fprint(w, `{"message": {"success": true, "session_id": "CHAT-0001"}}`)
	})

	id, err := client.CreateConversation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "CHAT-0001", id)
	assert.Equal(t, "/api/method/"+methodCreate, gotPath)
	assert.Equal(t, "tok-123", gotToken)
}

func TestClient_CreateConversation_Failure(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": {"success": false, "error": "quota exceeded"}}`)
	})

	_, err := client.CreateConversation(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrCreateFailed))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestClient_GetConversation(t *testing.T) {
	var gotArgs map[string]string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotArgs))
		fmt.Fprint(w, `{"message": {"success": true, "title": "Invoices", "messages": [
			{"role": "user", "content": "show invoices"},
			{"role": "assistant", "content": "here"}
		]}}`)
	})

	sess, err := client.GetConversation(context.Background(), "CHAT-0002")
	require.NoError(t, err)
	assert.Equal(t, "CHAT-0002", gotArgs["session_id"])
	assert.Equal(t, "Invoices", sess.Title)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, store.RoleUser, sess.Messages[0].Role)
	assert.Equal(t, "show invoices", sess.Messages[0].Content)
}

func TestClient_GetConversation_NotFound(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": {"success": false, "error": "Session not found"}}`)
	})

	_, err := client.GetConversation(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestClient_GetConversation_TransportFailure(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.GetConversation(context.Background(), "any")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestClient_ListConversations(t *testing.T) {
	var gotArgs map[string]any
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotArgs))
		fmt.Fprint(w, `{"message": {"success": true, "conversations": [
			{"name": "CHAT-0001", "title": "First", "message_count": 4}
		]}}`)
	})

	list, err := client.ListConversations(context.Background(), store.SessionActive, 20)
	require.NoError(t, err)
	assert.Equal(t, "Active", gotArgs["status"])
	assert.Equal(t, float64(20), gotArgs["limit"])
	require.Len(t, list, 1)
	assert.Equal(t, "CHAT-0001", list[0].ID)
	assert.Equal(t, 4, list[0].MessageCount)
}

func TestClient_ArchiveConversation(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": {"success": true}}`)
	})
	require.NoError(t, client.ArchiveConversation(context.Background(), "CHAT-0001"))
}

func TestClient_Ask_ReturnsRawPayload(t *testing.T) {
	var gotBody map[string]string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"message": {"content": "hello", "session_id": "CHAT-0001"}}`)
	})

	raw, err := client.Ask(context.Background(), "CHAT-0001", "hi")
	require.NoError(t, err)
	assert.Equal(t, "CHAT-0001", gotBody["session_id"])
	assert.Equal(t, "hi", gotBody["message"])
	assert.JSONEq(t, `{"message": {"content": "hello", "session_id": "CHAT-0001"}}`, string(raw))
}

func TestClient_CheckAccess(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": {"show_button": true}}`)
	})

	ok, err := client.CheckAccess(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
