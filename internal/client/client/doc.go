// Package client contains the client-side transport for the attendance API.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     authentication checks, login/registration, class and QR session
//     management, and attendance recording/reporting.
//  2. HTTPClient, a JSON-over-HTTP client that merges default headers with
//     per-request overrides, keeps server cookies in a jar, and retries a
//     denied request once with basic auth from a CredentialSource.
//  3. APIClient, the typed implementation of Client over HTTPClient.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable; 401/403 wrap ErrUnauthorized; any
// other non-2xx status, or a body with success:false, is a *ServerError.
// Match with errors.Is / errors.As.
//
// All operations accept context.Context and honor cancellation/timeouts.
package client
