package entities

import "time"

// Listing binds an escrowed asset to its asking price and original owner.
// The row embeds the asset itself: a listing exists iff the asset is in
// custody, and removal always carries a release instruction.
type Listing struct {
	ItemID    string
	Price     uint64
	Owner     string
	TypeTag   string
	Asset     Asset
	ListedAt  time.Time
	UpdatedAt time.Time
}
