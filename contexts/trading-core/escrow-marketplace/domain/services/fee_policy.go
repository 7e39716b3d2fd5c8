package services

import (
	"math/bits"

	domainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
)

// BasisPointShare computes floor(amount * bps / 10000) through a 128-bit
// intermediate product, so the multiplication cannot overflow for any uint64
// amount. The quotient always fits back into 64 bits because bps <= 10000.
func BasisPointShare(amount uint64, bps uint16) uint64 {
	hi, lo := bits.Mul64(amount, uint64(bps))
	quo, _ := bits.Div64(hi, lo, 10000)
	return quo
}

// Settlement is the deterministic split of a purchase price.
type Settlement struct {
	ServiceFee     uint64
	RoyaltyFee     uint64
	SellerProceeds uint64
}

// SettleFees validates the fee split invariant and returns the seller's net
// proceeds. The combined fees must stay strictly below the price; anything
// else is an internal-consistency fault, not a user error.
func SettleFees(price uint64, serviceFee uint64, royaltyFee uint64) (Settlement, error) {
	if serviceFee >= price || royaltyFee >= price-serviceFee {
		return Settlement{}, domainerrors.ErrFeeExceedsPrice
	}
	return Settlement{
		ServiceFee:     serviceFee,
		RoyaltyFee:     royaltyFee,
		SellerProceeds: price - serviceFee - royaltyFee,
	}, nil
}
