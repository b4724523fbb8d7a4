// Package toolusage converts the tool invocation records attached to an
// assistant message into a deduplicated entity chip summary and a
// collapsible detail panel. One toggle controls the panel per message and
// defaults to collapsed; messages with no invocations produce no output at
// all.
package toolusage
