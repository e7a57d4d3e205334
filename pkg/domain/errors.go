package domain

import "errors"

// Typed outcomes shared across services. Handlers map these onto transport
// status codes; services return them wrapped with %w so callers can use
// errors.Is.
var (
	// ErrNotFound signals the referenced ticket/event/user does not exist.
	ErrNotFound = errors.New("domain: not found")

	// ErrSoldOut signals a purchase exceeded remaining capacity. No mutation
	// occurred.
	ErrSoldOut = errors.New("domain: ticket sold out")

	// ErrAlreadyScanned signals a second scan of an already scanned ticket.
	ErrAlreadyScanned = errors.New("domain: ticket already scanned")

	// ErrConflict signals an optimistic update exhausted its retry budget.
	// Transient; callers may retry.
	ErrConflict = errors.New("domain: concurrent update conflict")

	// ErrForbidden signals the caller does not own the referenced event.
	ErrForbidden = errors.New("domain: not the event owner")

	// ErrDuplicate signals a uniqueness violation (email, event name).
	ErrDuplicate = errors.New("domain: already exists")

	// ErrInvalidToken signals a verification/reset/refresh token mismatch.
	ErrInvalidToken = errors.New("domain: invalid token")

	// ErrTokenExpired signals a verification/reset/refresh token past its
	// expiry.
	ErrTokenExpired = errors.New("domain: token expired")

	// ErrInvalidCredentials signals a failed email/password check.
	ErrInvalidCredentials = errors.New("domain: invalid credentials")
)
