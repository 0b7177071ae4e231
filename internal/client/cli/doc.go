// Package cli provides the interactive attendance command-line client.
//
// It wires configuration, the local identity store, the HTTP API client, the
// application services and the QR countdown into a REPL. On start-up the
// session-scoped keys are reset and the cached identity is resolved through
// the cookie → header → token fallback chain.
//
// Key features:
//   - Login / Register / Logout / WhoAmI
//   - Teacher: classes, QR generation with a live countdown, sessions,
//     attendance reports and XLSX export
//   - Student: QR scanning from an image or a frame directory, manual
//     attendance recording, attendance history
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
