package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestGrowthAddWrapWraps(t *testing.T) {
	max := GrowthFromUint128(uint128.Max)
	one := GrowthFromUint128(uint128.From64(1))
	got := max.AddWrap(one)
	require.True(t, got.IsZero(), "adding 1 to max growth should wrap to zero")
}

func TestGrowthSubWrapUnderflows(t *testing.T) {
	zero := ZeroGrowth
	one := GrowthFromUint128(uint128.From64(1))
	got := zero.SubWrap(one)
	require.Equal(t, uint128.Max, got.Uint128())
}

func TestMulDivFloorAndCeil(t *testing.T) {
	a := big.NewInt(7)
	b := big.NewInt(3)
	c := big.NewInt(2)
	require.Equal(t, big.NewInt(10), MulDivFloor(a, b, c)) // 21/2 = 10.5 -> 10
	require.Equal(t, big.NewInt(11), MulDivCeil(a, b, c))  // 21/2 -> 11
}

func TestCheckedAddU64Overflow(t *testing.T) {
	_, err := CheckedAddU64(^uint64(0), 1)
	require.ErrorIs(t, err, ErrOverflow)

	sum, err := CheckedAddU64(3, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(7), sum)
}

func TestCheckedSubU64Underflow(t *testing.T) {
	_, err := CheckedSubU64(1, 2)
	require.ErrorIs(t, err, ErrOverflow)

	diff, err := CheckedSubU64(5, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(3), diff)
}

func TestCheckedAddI128BoundsEnforced(t *testing.T) {
	_, err := CheckedAddI128(maxInt128, big.NewInt(1))
	require.ErrorIs(t, err, ErrOverflow)

	sum, err := CheckedAddI128(big.NewInt(10), big.NewInt(-3))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(7), sum)
}

func TestBigToUint64Checked(t *testing.T) {
	v, err := BigToUint64Checked(big.NewInt(42))
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)

	tooBig := new(big.Int).Lsh(big.NewInt(1), 64)
	_, err = BigToUint64Checked(tooBig)
	require.ErrorIs(t, err, ErrOverflow)

	_, err = BigToUint64Checked(big.NewInt(-1))
	require.ErrorIs(t, err, ErrOverflow)
}
