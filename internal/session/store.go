// ABOUTME: SessionStore owns the authoritative-vs-local conversation session state
// ABOUTME: Current session id, message cache, and the persisted last-used pointer

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lympik/erpnext-chatgpt/internal/store"
)

// ConversationService is what the store needs from the remote conversation
// service. The remote side is the source of truth for session existence,
// titles and persisted history.
type ConversationService interface {
	CreateConversation(ctx context.Context) (string, error)
	GetConversation(ctx context.Context, sessionID string) (*store.Session, error)
	ArchiveConversation(ctx context.Context, sessionID string) error
}

// PointerStore persists the last-used session pointer across restarts.
type PointerStore interface {
	LastSessionID(ctx context.Context) (string, error)
	SetLastSessionID(ctx context.Context, id string) error
	ClearLastSessionID(ctx context.Context) error
}

// defaultTitle is shown until the first exchange names the session.
const defaultTitle = "New Conversation"

// Store maintains the client's view of the active conversation session.
// All state transitions take the internal lock, so concurrent loads cannot
// interleave messages from two sessions: the cache is swapped, never
// merged, and the last completed operation wins.
type Store struct {
	svc     ConversationService
	pointer PointerStore
	logger  *slog.Logger

	mu        sync.Mutex
	currentID string
	messages  []store.Message
	title     string
	fullTitle string
}

// New creates a session store backed by the given remote service and
// pointer storage.
func New(svc ConversationService, pointer PointerStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		svc:       svc,
		pointer:   pointer,
		logger:    logger.With("component", "session"),
		title:     defaultTitle,
		fullTitle: defaultTitle,
	}
}

// Create mints a new session on the remote store. On success the new
// session becomes current with an empty message cache and the persisted
// pointer is updated. On failure local state is left untouched.
func (s *Store) Create(ctx context.Context) (string, error) {
	id, err := s.svc.CreateConversation(ctx)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}

	s.mu.Lock()
	s.currentID = id
	s.messages = nil
	s.title = defaultTitle
	s.fullTitle = defaultTitle
	s.mu.Unlock()

	s.persistPointer(ctx, id)
	s.logger.Info("session created", "session_id", id)
	return id, nil
}

// Load fetches a session's detail from the remote store and swaps it in
// atomically. Any failure, not-found included, falls back unconditionally
// to Create: a dangling pointer from a session deleted elsewhere must
// self-heal into a fresh session rather than leave the client session-less.
func (s *Store) Load(ctx context.Context, id string) error {
	sess, err := s.svc.GetConversation(ctx, id)
	if err != nil {
		s.logger.Warn("session load failed, creating fresh session",
			"session_id", id, "error", err)
		if _, cerr := s.Create(ctx); cerr != nil {
			// The pointer is dangling and no replacement exists; clear
			// it so the next start does not chase the same dead id
			if perr := s.pointer.ClearLastSessionID(ctx); perr != nil {
				s.logger.Warn("clearing session pointer failed", "error", perr)
			}
			return cerr
		}
		return nil
	}

	s.mu.Lock()
	s.currentID = sess.ID
	s.messages = append([]store.Message(nil), sess.Messages...)
	s.fullTitle = sess.Title
	s.title = store.TruncateTitle(sess.Title)
	s.mu.Unlock()

	s.logger.Debug("session loaded", "session_id", sess.ID, "messages", len(sess.Messages))
	return nil
}

// Switch loads a session and records it as the last-used one.
func (s *Store) Switch(ctx context.Context, id string) error {
	if err := s.Load(ctx, id); err != nil {
		return err
	}
	// Load may have fallen back to a fresh session; persist whatever is
	// current now
	s.persistPointer(ctx, s.CurrentID())
	return nil
}

// Archive marks a session archived on the remote store. When the archived
// session is the current one, a fresh session is created before returning,
// so the store never ends an archive pointed at an archived session.
func (s *Store) Archive(ctx context.Context, id string) error {
	if err := s.svc.ArchiveConversation(ctx, id); err != nil {
		return fmt.Errorf("archiving session %s: %w", id, err)
	}
	if s.CurrentID() == id {
		if _, err := s.Create(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Resume restores the last-used session from the persisted pointer. An
// absent pointer means no prior session, which is not an error; the next
// question will create one.
func (s *Store) Resume(ctx context.Context) error {
	id, err := s.pointer.LastSessionID(ctx)
	if err != nil {
		s.logger.Warn("reading session pointer failed", "error", err)
		return nil
	}
	if id == "" {
		return nil
	}
	return s.Load(ctx, id)
}

// AppendLocal appends a message to the local cache only. It exists to show
// the user's question before the remote round trip completes; callers must
// revert it with RevertLocal if that round trip fails.
func (s *Store) AppendLocal(msg store.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// RevertLocal removes the most recently appended message, undoing an
// optimistic append whose remote call failed.
func (s *Store) RevertLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) > 0 {
		s.messages = s.messages[:len(s.messages)-1]
	}
}

// AdoptSessionID reconciles the current session id with one reported by
// the answering service (which may have created the session during the
// call) and refreshes the persisted pointer. The message cache is kept: it
// is the same logical conversation.
func (s *Store) AdoptSessionID(ctx context.Context, id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	s.currentID = id
	s.mu.Unlock()
	s.persistPointer(ctx, id)
}

// SetTitle records the session's display title, truncating for display and
// keeping the full text for tooltips.
func (s *Store) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullTitle = title
	s.title = store.TruncateTitle(title)
}

// CurrentID returns the active session id, or "" when there is none.
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Title returns the truncated display title.
func (s *Store) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// FullTitle returns the untruncated title for tooltip use.
func (s *Store) FullTitle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullTitle
}

// Messages returns a copy of the cached message sequence.
func (s *Store) Messages() []store.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.Message(nil), s.messages...)
}

// MessageCount returns the number of cached messages.
func (s *Store) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// UserMessageCount returns how many cached messages were authored by the
// user. The first exchange is detected by this reaching one.
func (s *Store) UserMessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.Role == store.RoleUser {
			n++
		}
	}
	return n
}

// persistPointer writes the last-used pointer. Pointer writes are
// best-effort: a failure is logged but never fails the session operation.
func (s *Store) persistPointer(ctx context.Context, id string) {
	if err := s.pointer.SetLastSessionID(ctx, id); err != nil {
		s.logger.Warn("persisting session pointer failed", "session_id", id, "error", err)
	}
}
