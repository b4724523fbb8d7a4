// ABOUTME: Pure parser for the answering service's loosely-shaped responses
// ABOUTME: Normalizes string, object, array, and envelope payloads into one message shape

package assist

import (
	"bytes"
	"encoding/json"

	"github.com/lympik/erpnext-chatgpt/internal/store"
)

// noResponseContent is shown when the answering service returns nothing.
const noResponseContent = "No response received."

// Parsed is the normalized result of parsing an answer payload.
type Parsed struct {
	Content        any
	ContentDisplay any
	ToolUsage      []store.ToolInvocation

	// SessionID is the session id the service reported, if any. The
	// service may create the session during the call.
	SessionID string
}

// ParseResponse normalizes a raw answer payload. The service returns
// whatever its model pipeline produced: a bare string, an object with a
// content field, an array of content tuples, or any of those inside a
// {"message": ...} envelope. Nothing is ever silently dropped; unknown
// shapes come back as a pretty-printed dump.
func ParseResponse(raw json.RawMessage) Parsed {
	payload := decodePayload(raw)
	if payload == nil {
		return Parsed{Content: noResponseContent, ContentDisplay: noResponseContent}
	}

	// Unwrap one layer of {"message": ...} envelope.
	message := payload
	if obj, ok := payload.(map[string]any); ok {
		if inner, ok := obj["message"]; ok && inner != nil {
			message = inner
		}
	}

	parsed := Parsed{}
	if obj, ok := message.(map[string]any); ok {
		parsed.ToolUsage = decodeToolUsage(obj["tool_usage"])
		if id, ok := obj["session_id"].(string); ok {
			parsed.SessionID = id
		}
	}

	switch m := message.(type) {
	case string:
		parsed.Content = m
		parsed.ContentDisplay = m
		return parsed

	case map[string]any:
		if _, ok := m["content"]; ok {
			content := m["content"]
			if content == nil {
				content = ""
			}
			parsed.Content = content
			parsed.ContentDisplay = displayVariant(m, content)
			return parsed
		}

	case []any:
		if content, ok := findArrayContent(m); ok {
			parsed.Content = content
			parsed.ContentDisplay = content
			return parsed
		}
	}

	dump := prettyDump(message)
	parsed.Content = dump
	parsed.ContentDisplay = dump
	return parsed
}

// decodePayload unmarshals raw JSON into generic values, preserving number
// text via json.Number. A nil, empty, null, or malformed payload decodes
// to nil.
func decodePayload(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil
	}
	return payload
}

// displayVariant picks the object's own content_display when present and
// non-empty, otherwise derives one by stripping trailing hidden annotation
// comments from string content.
func displayVariant(obj map[string]any, content any) any {
	if display, ok := obj["content_display"]; ok && display != nil {
		if s, ok := display.(string); !ok || s != "" {
			return display
		}
	}
	if s, ok := content.(string); ok {
		return store.StripAnnotations(s)
	}
	return content
}

// findArrayContent scans an array payload for the first element carrying
// content: either a ["content", value] tuple or an object with a content
// field.
func findArrayContent(items []any) (any, bool) {
	for _, item := range items {
		if tuple, ok := item.([]any); ok && len(tuple) >= 2 {
			if tag, ok := tuple[0].(string); ok && tag == "content" {
				return tuple[1], true
			}
		}
		if obj, ok := item.(map[string]any); ok {
			if content, ok := obj["content"]; ok {
				return content, true
			}
		}
	}
	return nil, false
}

// decodeToolUsage re-marshals a generic tool_usage value into typed
// invocations. Anything that does not fit the shape yields an empty slice.
func decodeToolUsage(v any) []store.ToolInvocation {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var usage []store.ToolInvocation
	if err := json.Unmarshal(data, &usage); err != nil {
		return nil
	}
	return usage
}

func prettyDump(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return noResponseContent
	}
	return string(data)
}
