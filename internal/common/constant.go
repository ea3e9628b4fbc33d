// Package common contains shared constants and helpers used across the
// storefront client packages.
package common

// Header names attached by the API gateway to every outgoing request.
const (
	AuthorizationHeaderName = "Authorization"
	RequestIDHeaderName     = "X-Request-ID"
	BearerPrefix            = "Bearer "
)
