package entities

import "time"

// MaxBasisPoints caps royalty rates at 100%.
const MaxBasisPoints = 10000

// RegistryConfig is the singleton control record for the registry.
type RegistryConfig struct {
	Admin     string
	UpdatedAt time.Time
}

func (c RegistryConfig) IsAdmin(account string) bool {
	return account != "" && account == c.Admin
}

// RoyaltyEntry binds one asset type to its creator and rate. setRoyalty
// replaces the whole entry; there is no field-level merge.
type RoyaltyEntry struct {
	TypeTag     string
	Creator     string
	BasisPoints uint16
	UpdatedAt   time.Time
}
