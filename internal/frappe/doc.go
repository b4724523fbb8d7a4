// Package frappe implements the HTTP client for the two remote services
// this client core depends on: the conversation store (session create,
// load, list, archive, access check) and the question-answering endpoint.
//
// Every call is a JSON POST to /api/method/<method> carrying the
// X-Frappe-CSRF-Token header supplied by the host environment. Responses
// use the standard Frappe {"message": ...} envelope, which this package
// unwraps for the typed endpoints and passes through verbatim for Ask.
package frappe
