// Package tickmath wraps the daoleno/uniswapv3-sdk tick<->sqrt-price
// bijection with the pool core's own tick bounds and Q64.64 convention.
package tickmath

import (
	"fmt"
	"math/big"

	"github.com/daoleno/uniswapv3-sdk/utils"
	"lukechampine.com/uint128"
)

// MinTick and MaxTick bound every valid tick index, mirroring Uniswap-v3's
// own grid so get_sqrt_price_at_tick/tick_at_sqrt_price stay bijective.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// MinSqrtPrice and MaxSqrtPrice are the sqrt-price bounds corresponding to
// MinTick and MaxTick, cached at init so callers don't repeatedly pay for
// the big.Int conversion.
var (
	MinSqrtPrice uint128.Uint128
	MaxSqrtPrice uint128.Uint128
)

func init() {
	minBI, err := utils.GetSqrtRatioAtTick(int(MinTick))
	if err != nil {
		panic(fmt.Sprintf("tickmath: init MinSqrtPrice: %v", err))
	}
	maxBI, err := utils.GetSqrtRatioAtTick(int(MaxTick))
	if err != nil {
		panic(fmt.Sprintf("tickmath: init MaxSqrtPrice: %v", err))
	}
	MinSqrtPrice = uint128.FromBig(minBI)
	MaxSqrtPrice = uint128.FromBig(maxBI)
}

// GetSqrtPriceAtTick returns the Q64.64 sqrt-price for a valid tick index.
func GetSqrtPriceAtTick(tick int32) (uint128.Uint128, error) {
	if tick < MinTick || tick > MaxTick {
		return uint128.Zero, fmt.Errorf("tickmath: tick %d out of range [%d,%d]", tick, MinTick, MaxTick)
	}
	bi, err := utils.GetSqrtRatioAtTick(int(tick))
	if err != nil {
		return uint128.Zero, fmt.Errorf("tickmath: get_sqrt_price_at_tick(%d): %w", tick, err)
	}
	return uint128.FromBig(bi), nil
}

// TickAtSqrtPrice returns the largest tick whose sqrt-price is <= price.
func TickAtSqrtPrice(price uint128.Uint128) (int32, error) {
	t, err := utils.GetTickAtSqrtRatio(price.Big())
	if err != nil {
		return 0, fmt.Errorf("tickmath: tick_at_sqrt_price: %w", err)
	}
	return int32(t), nil
}

// IsValidTick reports whether tick lies in [MinTick, MaxTick].
func IsValidTick(tick int32) bool {
	return tick >= MinTick && tick <= MaxTick
}

// IsTickSpacingAligned reports whether tick is a multiple of spacing.
func IsTickSpacingAligned(tick int32, spacing uint16) bool {
	if spacing == 0 {
		return false
	}
	return tick%int32(spacing) == 0
}

// bigFromUint128 is a small readability helper that converts a sqrt-price
// into a *big.Int for mulDiv style arithmetic; nothing in the module calls it.
func bigFromUint128(v uint128.Uint128) *big.Int { return v.Big() }
