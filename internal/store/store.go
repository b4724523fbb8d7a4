// ABOUTME: Data types for assistant conversation sessions and messages
// ABOUTME: Defines Session, Message, ToolInvocation, EntityRef and shared sentinel errors

package store

import (
	"errors"
	"regexp"
	"time"
)

// ErrNotFound is returned when the remote store reports a session does not exist.
var ErrNotFound = errors.New("not found")

// ErrCreateFailed is returned when the remote store refuses to mint a new session.
var ErrCreateFailed = errors.New("create conversation failed")

// SessionStatus is the lifecycle state of a conversation session.
type SessionStatus string

const (
	SessionActive   SessionStatus = "Active"
	SessionArchived SessionStatus = "Archived"
)

// Role identifies which side of the conversation authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolStatus is the outcome of a single tool invocation.
type ToolStatus string

const (
	ToolSuccess ToolStatus = "success"
	ToolFailure ToolStatus = "failure"
)

// Session is the client-side view of a server-owned conversation.
// The remote store is the source of truth for existence, title and
// persisted history; the client holds a read/write-through copy.
type Session struct {
	ID            string    `json:"name"`
	Title         string    `json:"title"`
	Messages      []Message `json:"messages"`
	Status        SessionStatus
	LastMessageAt time.Time `json:"last_message_at"`
}

// SessionSummary is one row of the conversation list.
type SessionSummary struct {
	ID            string     `json:"name"`
	Title         string     `json:"title"`
	MessageCount  int        `json:"message_count"`
	LastMessageAt *time.Time `json:"last_message_at"`
}

// Message is one turn within a session. Content holds the raw payload
// (markdown plus inline document references for strings, but any decoded
// JSON shape is legal). ContentDisplay, when present, is the pre-sanitized
// variant the UI should prefer.
type Message struct {
	Role           Role             `json:"role"`
	Content        any              `json:"content"`
	ContentDisplay any              `json:"content_display,omitempty"`
	ToolUsage      []ToolInvocation `json:"tool_usage,omitempty"`
}

// hiddenAnnotation matches the trailing machine-readable comment blocks the
// answering service appends to content: a blank line followed by an HTML
// comment running to end of text.
var hiddenAnnotation = regexp.MustCompile(`(?s)\n\n<!--.*?-->`)

// StripAnnotations removes hidden annotation comment blocks from content
// text.
func StripAnnotations(s string) string {
	return hiddenAnnotation.ReplaceAllString(s, "")
}

// Display returns the content variant intended for rendering. It prefers
// ContentDisplay and otherwise derives one by stripping hidden annotation
// comments from string content. The derivation is a pure function of
// Content, so repeated calls always agree.
func (m *Message) Display() any {
	if m.ContentDisplay != nil {
		if s, ok := m.ContentDisplay.(string); !ok || s != "" {
			return m.ContentDisplay
		}
	}
	if s, ok := m.Content.(string); ok {
		return StripAnnotations(s)
	}
	return m.Content
}

// ToolInvocation records one backend data-access operation performed while
// producing an assistant reply.
type ToolInvocation struct {
	ToolName        string         `json:"tool_name"`
	Status          ToolStatus     `json:"status"`
	Parameters      map[string]any `json:"parameters,omitempty"`
	ResultSummary   string         `json:"result_summary,omitempty"`
	Error           string         `json:"error,omitempty"`
	FetchedEntities []EntityRef    `json:"fetched_entities,omitempty"`
}

// EntityRef is a domain document mentioned by a tool invocation.
// Two refs are the same entity when both ID and Doctype match.
type EntityRef struct {
	ID      string `json:"id"`
	Doctype string `json:"doctype"`
	Label   string `json:"label"`
}

// titleLimit is the display budget for session titles; longer titles are
// cut to leave room for the ellipsis.
const titleLimit = 40

// TruncateTitle shortens a title to at most 40 characters, appending "..."
// when text was dropped. The caller keeps the full text for tooltips.
func TruncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= titleLimit {
		return title
	}
	return string(runes[:titleLimit-3]) + "..."
}
