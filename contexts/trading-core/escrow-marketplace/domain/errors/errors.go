package errors

import "errors"

var (
	ErrPermissionDenied     = errors.New("caller lacks the required role")
	ErrMarketPaused         = errors.New("marketplace is paused")
	ErrNotOwner             = errors.New("caller is not the listing owner")
	ErrListingNotFound      = errors.New("listing not found")
	ErrInsufficientPayment  = errors.New("payment is below the listing price")
	ErrFeeExceedsPrice      = errors.New("combined fees reach or exceed the price")
	ErrFeeRateInvalid       = errors.New("fee basis points exceed 10000")
	ErrInvalidListRequest   = errors.New("invalid listing request")
	ErrInvalidPurchase      = errors.New("invalid purchase request")
	ErrInvalidConfigUpdate  = errors.New("invalid marketplace configuration update")
	ErrEmptyBatch           = errors.New("force delist batch is empty")
	ErrStoreInvariantBroken = errors.New("store invariant violated")
)
