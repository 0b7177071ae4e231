// Package common contains shared constants, sentinel errors and helpers used
// by both the client and the development server.
package common

// Fallback identity headers understood by the attendance API when the
// session cookie is missing.
const (
	UserIDHeaderName    = "X-User-ID"
	UserRoleHeaderName  = "X-User-Role"
	RequestIDHeaderName = "X-Request-ID"
)

// SessionCookieName is the cookie carrying the server-side session.
const SessionCookieName = "attendance_session"
