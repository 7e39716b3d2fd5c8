package errors

import "errors"

var (
	// ErrPermissionDenied rejects registry writes from anyone but the admin.
	ErrPermissionDenied = errors.New("royalty registry permission denied")

	// ErrEntryNotFound marks a lookup for an unregistered asset type.
	ErrEntryNotFound = errors.New("royalty entry not found")

	// ErrRateInvalid rejects basis-point rates above 10000.
	ErrRateInvalid = errors.New("royalty rate exceeds 10000 basis points")

	// ErrInvalidUpdate rejects writes with blank type tags or accounts.
	ErrInvalidUpdate = errors.New("invalid royalty update request")

	// ErrStoreInvariantBroken marks adapter-level corruption, such as a
	// missing singleton config row.
	ErrStoreInvariantBroken = errors.New("royalty store invariant broken")
)
