package entities

import "time"

// MaxBasisPoints is the whole of a price expressed in basis points. Fee and
// royalty rates can never exceed it.
const MaxBasisPoints = 10000

// MarketConfig is the singleton marketplace configuration row. It is seeded
// once at bootstrap and mutated only through admin commands.
type MarketConfig struct {
	Admin           string
	Beneficiary     string
	FeeBasisPoints  uint16
	Paused          bool
	AccumulatedFees uint64
	UpdatedAt       time.Time
}

func (c MarketConfig) IsAdmin(caller string) bool {
	return caller != "" && caller == c.Admin
}

// CanWithdraw reports whether the caller may drain the accumulated service
// fees. Both the admin and the beneficiary are allowed; the funds always land
// with the beneficiary.
func (c MarketConfig) CanWithdraw(caller string) bool {
	if caller == "" {
		return false
	}
	return caller == c.Admin || caller == c.Beneficiary
}
