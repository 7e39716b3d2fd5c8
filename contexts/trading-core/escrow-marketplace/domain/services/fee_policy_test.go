package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
)

func TestBasisPointShareFloorDivision(t *testing.T) {
	assert.Equal(t, uint64(200), BasisPointShare(10000, 200))
	assert.Equal(t, uint64(500), BasisPointShare(10000, 500))
	assert.Equal(t, uint64(0), BasisPointShare(0, 500))
	assert.Equal(t, uint64(0), BasisPointShare(19, 500))
	assert.Equal(t, uint64(1), BasisPointShare(20, 500))
	// 9999 * 250 / 10000 = 249.975, floored.
	assert.Equal(t, uint64(249), BasisPointShare(9999, 250))
}

func TestBasisPointShareWideningDoesNotOverflow(t *testing.T) {
	// MaxUint64 * 10000 overflows 64-bit multiplication; the 128-bit
	// intermediate keeps the result exact.
	assert.Equal(t, uint64(math.MaxUint64), BasisPointShare(math.MaxUint64, 10000))
	assert.Equal(t, uint64(math.MaxUint64/2), BasisPointShare(math.MaxUint64, 5000))
	assert.Equal(t, uint64(0), BasisPointShare(math.MaxUint64, 0))
}

func TestSettleFeesSplitsDeterministically(t *testing.T) {
	settlement, err := SettleFees(10000, BasisPointShare(10000, 200), BasisPointShare(10000, 500))
	require.NoError(t, err)
	assert.Equal(t, uint64(200), settlement.ServiceFee)
	assert.Equal(t, uint64(500), settlement.RoyaltyFee)
	assert.Equal(t, uint64(9300), settlement.SellerProceeds)
	assert.Equal(t, settlement.SellerProceeds+settlement.ServiceFee+settlement.RoyaltyFee, uint64(10000))
}

func TestSettleFeesRejectsFeesReachingPrice(t *testing.T) {
	_, err := SettleFees(100, 60, 40)
	require.ErrorIs(t, err, domainerrors.ErrFeeExceedsPrice)

	_, err = SettleFees(100, 120, 0)
	require.ErrorIs(t, err, domainerrors.ErrFeeExceedsPrice)

	// A zero price can never cover any settlement, fees included.
	_, err = SettleFees(0, 0, 0)
	require.ErrorIs(t, err, domainerrors.ErrFeeExceedsPrice)
}

func TestSettleFeesGuardsAgainstSumOverflow(t *testing.T) {
	// serviceFee + royaltyFee would wrap around uint64 if summed naively.
	_, err := SettleFees(math.MaxUint64, math.MaxUint64-1, math.MaxUint64-1)
	require.ErrorIs(t, err, domainerrors.ErrFeeExceedsPrice)
}
