package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Gateways and stores return these
// (optionally wrapped) so the orchestrator can translate them into coded errors.
//
//   - ErrNotFound: row does not exist in the store
//   - ErrConflict: row collides with an existing one
//   - ErrUnknownKind: the store has no table/layer for the requested kind
//   - ErrUnavailable: backend temporarily unavailable
//
// Template and input validation use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnknownKind = errors.New("unknown kind")
	ErrUnavailable = errors.New("unavailable")
)
