// ABOUTME: Conversation controller driving the question/answer exchange cycle
// ABOUTME: Owns optimistic appends, remote calls, and session reconciliation

package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lympik/erpnext-chatgpt/internal/session"
	"github.com/lympik/erpnext-chatgpt/internal/store"
)

// QuestionAnswerer sends one user question to the remote answering
// service. The service owns the full conversation history on its side;
// only the new question travels.
type QuestionAnswerer interface {
	Ask(ctx context.Context, sessionID, message string) (json.RawMessage, error)
}

// Controller drives the request/response cycle for user questions against
// a session store and the answering service.
type Controller struct {
	sessions *session.Store
	qa       QuestionAnswerer
	logger   *slog.Logger
}

// NewController wires a controller over the given session store and
// answering service.
func NewController(sessions *session.Store, qa QuestionAnswerer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		sessions: sessions,
		qa:       qa,
		logger:   logger.With("component", "assist"),
	}
}

// Ask runs one question/answer exchange. Empty or whitespace-only input
// is a no-op returning (nil, nil). The user message is appended
// optimistically before the remote call and reverted if that call fails,
// so the cache never retains a question with no attempted answer. On
// success the parsed assistant message is appended and returned.
func (c *Controller) Ask(ctx context.Context, question string) (*store.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil
	}

	logger := c.logger.With("exchange_id", uuid.NewString())

	sessionID := c.sessions.CurrentID()
	if sessionID == "" {
		id, err := c.sessions.Create(ctx)
		if err != nil {
			return nil, err
		}
		sessionID = id
	}

	c.sessions.AppendLocal(store.Message{Role: store.RoleUser, Content: question})

	raw, err := c.qa.Ask(ctx, sessionID, question)
	if err != nil {
		c.sessions.RevertLocal()
		logger.Warn("question failed", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("asking question: %w", err)
	}

	parsed := ParseResponse(raw)
	answer := store.Message{
		Role:           store.RoleAssistant,
		Content:        parsed.Content,
		ContentDisplay: parsed.ContentDisplay,
		ToolUsage:      parsed.ToolUsage,
	}
	c.sessions.AppendLocal(answer)
	c.sessions.AdoptSessionID(ctx, parsed.SessionID)

	if c.sessions.UserMessageCount() == 1 {
		c.sessions.SetTitle(question)
	}

	logger.Debug("exchange completed",
		"session_id", c.sessions.CurrentID(),
		"tool_invocations", len(parsed.ToolUsage))
	return &answer, nil
}
