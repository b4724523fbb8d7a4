// ABOUTME: View model construction for the chat transcript and session list
// ABOUTME: Bridges stored messages to rendered HTML plus reference bindings

package webui

import (
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/lympik/erpnext-chatgpt/internal/render"
	"github.com/lympik/erpnext-chatgpt/internal/store"
	"github.com/lympik/erpnext-chatgpt/internal/toolusage"
)

// messageView is one transcript entry ready for the template. BodyHTML and
// the tool-usage fragments are sanitizer output and inserted as-is; the
// reference bindings ride along as a JSON data attribute so the client
// script can attach click behavior after insertion.
type messageView struct {
	ID           string
	Role         store.Role
	BodyHTML     template.HTML
	ChipsHTML    template.HTML
	DetailHTML   template.HTML
	ToggleID     string
	ToggleLabel  string
	BindingsJSON string
}

// buildMessageViews renders every cached message. Message ids are
// positional: a full transcript re-render reassigns them, which is fine
// because bindings are re-emitted alongside.
func buildMessageViews(r *render.Renderer, msgs []store.Message) []messageView {
	views := make([]messageView, 0, len(msgs))
	for i, msg := range msgs {
		views = append(views, buildMessageView(r, msg, i))
	}
	return views
}

func buildMessageView(r *render.Renderer, msg store.Message, index int) messageView {
	id := fmt.Sprintf("msg-%d", index)
	body := r.Render(msg.Display())

	view := messageView{
		ID:       id,
		Role:     msg.Role,
		BodyHTML: template.HTML(body.HTML),
	}

	if len(body.Bindings) > 0 {
		if data, err := json.Marshal(body.Bindings); err == nil {
			view.BindingsJSON = string(data)
		}
	}

	if msg.Role == store.RoleAssistant && len(msg.ToolUsage) > 0 {
		usage := toolusage.Present(msg.ToolUsage, id)
		view.ChipsHTML = template.HTML(usage.ChipsHTML)
		view.DetailHTML = template.HTML(usage.DetailHTML)
		view.ToggleID = usage.ToggleID
		view.ToggleLabel = usage.ToggleLabel
	}

	return view
}

// sessionItem is one entry in the session list.
type sessionItem struct {
	ID           string
	Title        string
	MessageCount int
	LastMessage  string
	Active       bool
}

func buildSessionItems(summaries []store.SessionSummary, currentID string, now time.Time) []sessionItem {
	items := make([]sessionItem, 0, len(summaries))
	for _, s := range summaries {
		title := s.Title
		if title == "" {
			title = "Untitled"
		}
		last := "Just created"
		if s.LastMessageAt != nil {
			last = formatRelativeTime(*s.LastMessageAt, now)
		}
		items = append(items, sessionItem{
			ID:           s.ID,
			Title:        title,
			MessageCount: s.MessageCount,
			LastMessage:  last,
			Active:       s.ID == currentID,
		})
	}
	return items
}

// formatRelativeTime renders a timestamp as a coarse "how long ago" label,
// falling back to the date once it is a week old.
func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	mins := int(diff.Minutes())
	hours := int(diff.Hours())
	days := int(diff.Hours() / 24)

	switch {
	case mins < 1:
		return "Just now"
	case mins < 60:
		return fmt.Sprintf("%dm ago", mins)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("Jan 2, 2006")
	}
}
