// ABOUTME: Package documentation for the webui package
// ABOUTME: Describes the chat surface, partial swapping, and binding attachment

// Package webui serves the assistant's chat surface.
//
// The shell page is rendered once; the transcript and session list are
// partials the client script fetches and swaps in. Rendering a message is
// a two-phase contract: the server emits sanitized HTML plus the document
// reference bindings as a JSON data attribute, and the client attaches
// click behavior to the reference links after insertion. Elements are
// looked up by identifier at attach time, so a binding whose element has
// already been replaced is a silent no-op.
//
// Access is gated on the backend's key-and-role check before the shell is
// served; failures during an exchange render a dismissible inline error
// block instead of navigating away.
package webui
