// ABOUTME: Package documentation for the session package
// ABOUTME: Describes the session lifecycle and pointer persistence model

// Package session tracks the active conversation session.
//
// The remote conversation service is the source of truth; this package
// keeps a local cache of the active session's messages plus the persisted
// last-used pointer that lets a restarted client resume where it left off.
//
// # Lifecycle
//
// A session is created lazily: Resume restores the pointed-to session on
// startup when a pointer exists, and Load falls back to Create whenever a
// session cannot be fetched, so the client self-heals from dangling
// pointers. Archiving the current session immediately creates a fresh one.
//
// # Optimistic appends
//
// AppendLocal and RevertLocal support showing the user's question before
// the answer round trip completes. The caller owning the round trip is
// responsible for reverting on failure.
package session
