// Package store defines the conversation data model shared across the
// assistant client: sessions, messages, tool invocations and entity
// references, along with the sentinel errors the remote store surfaces.
//
// The remote conversation service owns session existence, titles and
// persisted history. Types here describe the client's local copy of that
// state; nothing in this package talks to the network.
package store
