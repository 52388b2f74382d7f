package clmmmath

import (
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/tickmath"
)

func sqrtAt(t *testing.T, tick int32) uint128.Uint128 {
	t.Helper()
	p, err := tickmath.GetSqrtPriceAtTick(tick)
	require.NoError(t, err)
	return p
}

func TestComputeSwapStepExactInStaysWithinRange(t *testing.T) {
	current := sqrtAt(t, 0)
	target := sqrtAt(t, 60)
	liquidity := uint128.From64(1_000_000_000_000)

	step, err := ComputeSwapStep(current, target, liquidity, 1_000_000, 3000, 1_000_000, false, true)
	require.NoError(t, err)
	require.Greater(t, step.AmountIn, uint64(0))
	require.Greater(t, step.AmountOut, uint64(0))
	require.LessOrEqual(t, step.AmountIn+step.FeeAmount, uint64(1_000_000))
	require.True(t, step.NextSqrtPrice.Cmp(current) >= 0)
	require.True(t, step.NextSqrtPrice.Cmp(target) <= 0)
}

func TestComputeSwapStepExactInReachesTargetWithLargeAmount(t *testing.T) {
	current := sqrtAt(t, 0)
	target := sqrtAt(t, 60)
	liquidity := uint128.From64(1_000)

	step, err := ComputeSwapStep(current, target, liquidity, ^uint64(0)>>1, 3000, 1_000_000, false, true)
	require.NoError(t, err)
	require.Equal(t, 0, step.NextSqrtPrice.Cmp(target))
}

func TestComputeSwapStepExactOutClampsToRemaining(t *testing.T) {
	current := sqrtAt(t, 0)
	target := sqrtAt(t, 60)
	liquidity := uint128.From64(1_000_000_000_000)

	step, err := ComputeSwapStep(current, target, liquidity, 10, 3000, 1_000_000, false, false)
	require.NoError(t, err)
	require.LessOrEqual(t, step.AmountOut, uint64(10))
}

func TestComputeSwapStepZeroLiquidityJumpsStraightToTargetWithNoAmounts(t *testing.T) {
	current := sqrtAt(t, 0)
	target := sqrtAt(t, 60)
	step, err := ComputeSwapStep(current, target, uint128.Zero, 100, 3000, 1_000_000, false, true)
	require.NoError(t, err)
	require.Equal(t, 0, step.NextSqrtPrice.Cmp(target))
	require.Zero(t, step.AmountIn)
	require.Zero(t, step.AmountOut)
	require.Zero(t, step.FeeAmount)
}

func TestAmountLiquidityRoundTrip(t *testing.T) {
	tickLower := int32(-600)
	tickUpper := int32(600)
	tickCurrent := int32(0)

	sqrtLower := sqrtAt(t, tickLower)
	sqrtUpper := sqrtAt(t, tickUpper)
	sqrtCurrent := sqrtAt(t, tickCurrent)

	liquidity, err := GetLiquidityByAmount(tickCurrent, tickLower, tickUpper, sqrtCurrent, sqrtLower, sqrtUpper, 1_000_000, true)
	require.NoError(t, err)
	require.False(t, liquidity.IsZero())

	amountA, amountB, err := GetAmountByLiquidity(tickCurrent, tickLower, tickUpper, sqrtCurrent, sqrtLower, sqrtUpper, liquidity, true)
	require.NoError(t, err)
	require.Greater(t, amountA, uint64(0))
	require.Greater(t, amountB, uint64(0))
}

func TestGetAmountByLiquidityOutOfRangeSidesAreZero(t *testing.T) {
	tickLower := int32(600)
	tickUpper := int32(1200)
	tickCurrent := int32(0) // below the range: only token A is needed

	sqrtLower := sqrtAt(t, tickLower)
	sqrtUpper := sqrtAt(t, tickUpper)
	sqrtCurrent := sqrtAt(t, tickCurrent)

	amountA, amountB, err := GetAmountByLiquidity(tickCurrent, tickLower, tickUpper, sqrtCurrent, sqrtLower, sqrtUpper, uint128.From64(1_000_000), true)
	require.NoError(t, err)
	require.Greater(t, amountA, uint64(0))
	require.Equal(t, uint64(0), amountB)
}
