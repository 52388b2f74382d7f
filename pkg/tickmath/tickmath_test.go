package tickmath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSqrtPriceTickRoundTrip(t *testing.T) {
	for _, tick := range []int32{-887272, -1000, -1, 0, 1, 1000, 887272} {
		price, err := GetSqrtPriceAtTick(tick)
		require.NoError(t, err)
		got, err := TickAtSqrtPrice(price)
		require.NoError(t, err)
		require.Equal(t, tick, got, "tick %d should round-trip through its sqrt price", tick)
	}
}

func TestGetSqrtPriceAtTickOutOfRange(t *testing.T) {
	_, err := GetSqrtPriceAtTick(MaxTick + 1)
	require.Error(t, err)
	_, err = GetSqrtPriceAtTick(MinTick - 1)
	require.Error(t, err)
}

func TestIsValidTick(t *testing.T) {
	require.True(t, IsValidTick(0))
	require.True(t, IsValidTick(MinTick))
	require.True(t, IsValidTick(MaxTick))
	require.False(t, IsValidTick(MinTick-1))
	require.False(t, IsValidTick(MaxTick+1))
}

func TestIsTickSpacingAligned(t *testing.T) {
	require.True(t, IsTickSpacingAligned(60, 60))
	require.True(t, IsTickSpacingAligned(-120, 60))
	require.False(t, IsTickSpacingAligned(61, 60))
	require.False(t, IsTickSpacingAligned(1, 0))
}

func TestMinMaxSqrtPriceOrdered(t *testing.T) {
	require.Equal(t, -1, MinSqrtPrice.Cmp(MaxSqrtPrice))
}
