// ABOUTME: Web UI server for the ERPNext assistant chat surface
// ABOUTME: Serves the chat shell and the transcript/session partials it swaps in

package webui

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lympik/erpnext-chatgpt/internal/assist"
	"github.com/lympik/erpnext-chatgpt/internal/render"
	"github.com/lympik/erpnext-chatgpt/internal/session"
	"github.com/lympik/erpnext-chatgpt/internal/store"
)

// AccessChecker gates the UI on the backend's key-and-role check.
type AccessChecker interface {
	CheckAccess(ctx context.Context) (bool, error)
}

// SessionLister fetches session summaries for the session list view.
type SessionLister interface {
	ListConversations(ctx context.Context, status store.SessionStatus, limit int) ([]store.SessionSummary, error)
}

// sessionListLimit caps how many sessions the list view fetches.
const sessionListLimit = 50

// Server handles the chat UI routes.
type Server struct {
	gate       AccessChecker
	lister     SessionLister
	sessions   *session.Store
	controller *assist.Controller
	renderer   *render.Renderer
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a web UI server over the given collaborators.
func New(gate AccessChecker, lister SessionLister, sessions *session.Store, controller *assist.Controller, renderer *render.Renderer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		gate:       gate,
		lister:     lister,
		sessions:   sessions,
		controller: controller,
		renderer:   renderer,
		logger:     logger.With("component", "webui"),
		now:        time.Now,
	}
}

// RegisterRoutes registers all chat UI routes on the given mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleChatPage)
	mux.HandleFunc("GET /transcript", s.handleTranscript)
	mux.HandleFunc("POST /ask", s.handleAsk)

	mux.HandleFunc("GET /sessions", s.handleSessionsList)
	mux.HandleFunc("POST /sessions/new", s.handleSessionNew)
	mux.HandleFunc("POST /sessions/{id}/switch", s.handleSessionSwitch)
	mux.HandleFunc("POST /sessions/{id}/archive", s.handleSessionArchive)
}

// handleChatPage serves the chat shell, gated on the backend access check.
// A check that fails outright is treated as denied: the backend is the
// authority and an unreachable authority means no UI.
func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	ok, err := s.gate.CheckAccess(r.Context())
	if err != nil {
		s.logger.Warn("access check failed", "error", err)
		s.renderDeniedPage(w)
		return
	}
	if !ok {
		s.renderDeniedPage(w)
		return
	}

	s.renderChatPage(w, chatPageData{
		Title:     s.sessions.Title(),
		FullTitle: s.sessions.FullTitle(),
		SessionID: s.sessions.CurrentID(),
	})
}

// handleTranscript renders the current transcript, or the welcome view
// with suggestion prompts when the conversation is empty.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	msgs := s.sessions.Messages()
	if len(msgs) == 0 {
		s.renderPartial(w, "welcome.html", welcomeData{Prompts: assist.SuggestedPrompts()})
		return
	}
	s.renderPartial(w, "transcript.html", transcriptData{Messages: buildMessageViews(s.renderer, msgs)})
}

// handleAsk runs one question/answer exchange and re-renders the
// transcript. Failures return the inline error block; the optimistic
// append has already been reverted by then, so the client's next
// transcript fetch shows the pre-question state.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "Could not read the question.")
		return
	}
	question := strings.TrimSpace(r.PostFormValue("question"))
	if question == "" {
		s.handleTranscript(w, r)
		return
	}

	if _, err := s.controller.Ask(r.Context(), question); err != nil {
		s.renderError(w, http.StatusBadGateway, "The assistant could not answer. Please try again.")
		return
	}

	s.renderPartial(w, "transcript.html", transcriptData{
		Messages: buildMessageViews(s.renderer, s.sessions.Messages()),
	})
}

// handleSessionsList renders the active-session list. A listing failure
// renders an inline message inside the list panel so the rest of the view
// stays intact.
func (s *Server) handleSessionsList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.lister.ListConversations(r.Context(), store.SessionActive, sessionListLimit)
	if err != nil {
		s.logger.Warn("listing sessions failed", "error", err)
		s.renderPartial(w, "sessions.html", sessionsListData{Error: "Could not load conversations."})
		return
	}
	s.renderPartial(w, "sessions.html", sessionsListData{
		Sessions: buildSessionItems(summaries, s.sessions.CurrentID(), s.now()),
	})
}

func (s *Server) handleSessionNew(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.Create(r.Context()); err != nil {
		s.renderError(w, http.StatusBadGateway, "Could not start a new conversation.")
		return
	}
	s.handleTranscript(w, r)
}

func (s *Server) handleSessionSwitch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Switch(r.Context(), id); err != nil {
		s.renderError(w, http.StatusBadGateway, "Could not switch conversations.")
		return
	}
	s.handleTranscript(w, r)
}

func (s *Server) handleSessionArchive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Archive(r.Context(), id); err != nil {
		s.renderError(w, http.StatusBadGateway, "Could not archive the conversation.")
		return
	}
	s.handleSessionsList(w, r)
}
