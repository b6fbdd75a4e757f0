// Package types provides the shared data structures of the hovershell core.
//
// Core Types:
//   - TriggerBinding: Input signal to visibility action mapping
//   - VisibilityState: Hidden/revealing/visible/hiding lifecycle
//   - SessionSummary: Public view of a terminal session
//   - Provider: Completion backend configuration
//   - Event: Rendering-layer notification envelope
//
// Error Taxonomy:
//
// Sentinel errors (ErrValidation, ErrConflict, ErrNotFound, ErrParse,
// ErrProvider, ErrNoProvider, ErrIndex) classify every recoverable failure
// in the daemon. Components wrap them with context via the *f helpers and
// callers branch with errors.Is; none of them ever terminates the process.
package types
