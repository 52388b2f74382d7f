package position

import (
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/fixedpoint"
)

func TestOpenRejectsMisalignedOrOutOfBoundsRange(t *testing.T) {
	m := NewManager(60)

	_, err := m.Open("pool-1", 60, 0, -1000, 1000)
	require.Error(t, err, "tick_lower must be < tick_upper")

	_, err = m.Open("pool-1", -61, 60, -1000, 1000)
	require.Error(t, err, "tick_lower not aligned to tick_spacing")

	_, err = m.Open("pool-1", -1200, 1200, -1000, 1000)
	require.Error(t, err, "range exceeds min/max tick bounds")

	info, err := m.Open("pool-1", -60, 60, -1000, 1000)
	require.NoError(t, err)
	require.True(t, info.Liquidity.IsZero())
	require.True(t, info.IsEmpty())
}

func TestCloseRequiresEmptyPosition(t *testing.T) {
	m := NewManager(60)
	info, err := m.Open("pool-1", -60, 60, -1000, 1000)
	require.NoError(t, err)

	require.NoError(t, info.IncreaseLiquidity(uint128.From64(100)))
	require.Error(t, m.Close(info.ID), "non-empty position must not close")

	require.NoError(t, info.DecreaseLiquidity(uint128.From64(100)))
	require.NoError(t, m.Close(info.ID))
	require.Nil(t, m.Get(info.ID))
}

func TestUpdateFeeAccruesWrappingDelta(t *testing.T) {
	// a clean 2^64-scale delta: liquidity=2, delta=3*2^64 -> owed += 6
	info := &Info{Liquidity: uint128.From64(2)}
	three := uint128.From64(3)
	threeShifted := three.Lsh(64)
	inside := fixedpoint.GrowthFromUint128(threeShifted)
	info.UpdateFee(inside, inside)
	require.Equal(t, uint64(6), info.FeeOwedA)
	require.Equal(t, uint64(6), info.FeeOwedB)
	require.True(t, info.FeeGrowthInsideSnapshotA.Equal(inside))
}

func TestStakeUnstakeRejectsDoubleTransition(t *testing.T) {
	info := &Info{Liquidity: uint128.From64(10)}
	require.NoError(t, info.Stake())
	require.Error(t, info.Stake())

	require.Error(t, info.IncreaseLiquidity(uint128.From64(1)), "staked position rejects liquidity changes")

	require.NoError(t, info.Unstake())
	require.Error(t, info.Unstake())
}

func TestResetFeeZeroesOwed(t *testing.T) {
	info := &Info{FeeOwedA: 5, FeeOwedB: 7}
	a, b := info.ResetFee()
	require.Equal(t, uint64(5), a)
	require.Equal(t, uint64(7), b)
	require.Equal(t, uint64(0), info.FeeOwedA)
	require.Equal(t, uint64(0), info.FeeOwedB)
}

func TestResizeRewardSlotsSeedsFromCurrentGlobal(t *testing.T) {
	info := &Info{}
	seed := fixedpoint.GrowthFromUint128(uint128.From64(42))
	info.ResizeRewardSlots(2, []fixedpoint.Growth{seed, fixedpoint.ZeroGrowth})
	require.Len(t, info.RewardsInsideSnapshot, 2)
	require.True(t, info.RewardsInsideSnapshot[0].Equal(seed))
	require.True(t, info.RewardsInsideSnapshot[1].IsZero())
}

func TestCloneDeepCopiesSlices(t *testing.T) {
	m := NewManager(60)
	info, err := m.Open("pool-1", -60, 60, -1000, 1000)
	require.NoError(t, err)
	info.ResizeRewardSlots(1, []fixedpoint.Growth{fixedpoint.ZeroGrowth})

	clone := m.Clone()
	clone.Get(info.ID).RewardsOwed[0] = 99

	require.Equal(t, uint64(0), info.RewardsOwed[0], "mutating clone must not affect original")
}
