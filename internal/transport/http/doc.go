// Package http contains the chi HTTP handlers for the release notes
// API. Handlers translate requests into service calls and service
// errors into RFC 7807 problem responses; no business logic lives here.
package http
