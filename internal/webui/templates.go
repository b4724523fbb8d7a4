// ABOUTME: Template rendering functions for the chat UI
// ABOUTME: Loads templates from embedded filesystem and renders them

package webui

import (
	"html/template"
	"net/http"
)

// Template data types
type chatPageData struct {
	Title     string
	FullTitle string
	SessionID string
}

type deniedPageData struct {
	Title string
}

type transcriptData struct {
	Messages []messageView
}

type welcomeData struct {
	Prompts []string
}

type sessionsListData struct {
	Sessions []sessionItem
	Error    string
}

type errorData struct {
	Message string
}

// renderChatPage renders the full chat shell
func (s *Server) renderChatPage(w http.ResponseWriter, data chatPageData) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/chat.html"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render chat page", "error", err)
	}
}

// renderDeniedPage renders the access-denied page
func (s *Server) renderDeniedPage(w http.ResponseWriter) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/denied.html"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	if err := tmpl.Execute(w, deniedPageData{Title: "ERPNext AI Assistant"}); err != nil {
		s.logger.Error("failed to render denied page", "error", err)
	}
}

func (s *Server) renderPartial(w http.ResponseWriter, name string, data any) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/partials/"+name))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render partial", "partial", name, "error", err)
	}
}

// renderError renders the dismissible inline error block. The status code
// still signals failure so callers can distinguish without parsing HTML.
func (s *Server) renderError(w http.ResponseWriter, status int, message string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/partials/error.html"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, errorData{Message: message}); err != nil {
		s.logger.Error("failed to render error block", "error", err)
	}
}
