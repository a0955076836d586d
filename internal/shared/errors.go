package shared

import "errors"

// Error kinds carried by every failure the core surfaces. The HTTP layer is
// the only place these are turned into status codes (httpx.RespondError).
var (
	// ErrAuthentication means the caller's identity could not be established:
	// missing, malformed, unverifiable, or revoked token.
	ErrAuthentication = errors.New("unauthorized")
	// ErrAuthorization means the caller is known but not permitted to act on
	// the target resource.
	ErrAuthorization = errors.New("forbidden")
	// ErrNotFound indicates a referenced user, franchise, store, or menu item
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a unique-constraint violation such as a duplicate
	// email or franchise name.
	ErrConflict = errors.New("conflict")
	// ErrDependency indicates a multi-step mutation could not complete
	// atomically and was rolled back.
	ErrDependency = errors.New("dependency failure")
	// ErrInfrastructure indicates the backing store is unusable; the process
	// keeps running in degraded mode.
	ErrInfrastructure = errors.New("infrastructure failure")
)
