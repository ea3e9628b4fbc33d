// Package client is the single network egress of the storefront CLI.
//
// # Overview
//
// Client describes every REST call the CLI makes; HTTPClient implements it
// on top of a pooled net/http client. Each request carries the stored bearer
// token (when a session exists), JSON content headers and a fresh
// X-Request-ID.
//
// # Authentication failures
//
// A 401 from any endpoint wipes the local session and cart in one transaction
// and fires the unauthorized hook before the error reaches the caller, so no
// feature code has to handle it.
//
// # Error Handling
//
// Failures are classified by KindOf:
//
//   - *ValidationError   local precondition, never sent
//   - ErrUnauthorized    401, session already torn down
//   - ErrUnavailable     timeout or no response
//   - *StatusError       any other non-2xx
//   - ErrUnexpected      undecodable response and the rest
//
// UserMessage turns any of them into a line fit for the console.
package client
