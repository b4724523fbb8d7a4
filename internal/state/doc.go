// Package state provides durable client-local storage for the assistant.
//
// The only value written in normal operation is the last-used session
// pointer, read at startup to resume the previous conversation. SQLiteState
// persists it across restarts; MemoryState is the ephemeral equivalent used
// in tests.
package state
