// ABOUTME: Package documentation for the assist package
// ABOUTME: Describes the question/answer exchange cycle and response parsing

// Package assist drives question/answer exchanges with the answering
// service.
//
// The Controller sequences one exchange: ensure a session exists, append
// the user's question optimistically, send it, and on success append the
// parsed assistant answer. The answering service owns conversation
// history on its side, so only the new question is sent.
//
// ParseResponse is a pure function normalizing the service's loosely
// shaped payloads (bare strings, content objects, content tuples, or an
// enclosing message envelope) into a single message shape. Unknown shapes
// degrade to a pretty-printed dump rather than being dropped.
package assist
