package tick

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/fixedpoint"
)

func TestIncreaseDecreaseLiquidityPrunesOnZero(t *testing.T) {
	m := NewManager(60)
	globals := GrowthGlobals{}

	require.NoError(t, m.IncreaseLiquidity(60, 0, uint128.From64(100), false, 0, globals))
	tk := m.Get(60)
	require.NotNil(t, tk)
	require.Equal(t, uint128.From64(100), tk.LiquidityGross)

	require.NoError(t, m.DecreaseLiquidity(60, uint128.From64(100), false))
	require.Nil(t, m.Get(60), "tick should be pruned once liquidity_gross reaches zero")
}

func TestFirstScoreForSwapDirections(t *testing.T) {
	m := NewManager(60)
	globals := GrowthGlobals{}
	require.NoError(t, m.IncreaseLiquidity(-60, 0, uint128.From64(1), false, 0, globals))
	require.NoError(t, m.IncreaseLiquidity(60, 0, uint128.From64(1), false, 0, globals))
	require.NoError(t, m.IncreaseLiquidity(120, 0, uint128.From64(1), false, 0, globals))

	idx, ok := m.FirstScoreForSwap(0, true) // a2b: strictly below current
	require.True(t, ok)
	require.Equal(t, int32(-60), idx)

	idx, ok = m.FirstScoreForSwap(0, false) // b2a: at-or-above current
	require.True(t, ok)
	require.Equal(t, int32(60), idx)

	_, ok = m.FirstScoreForSwap(200, false)
	require.False(t, ok)
}

func TestCrossBySwapFlipsGrowthOutside(t *testing.T) {
	m := NewManager(60)
	globals := GrowthGlobals{
		FeeGrowthGlobalA: fixedpoint.GrowthFromUint128(uint128.From64(1000)),
		FeeGrowthGlobalB: fixedpoint.GrowthFromUint128(uint128.From64(2000)),
	}
	// seed while current_tick == index, so the tick's growth-outside starts
	// at the global snapshot instead of zero.
	require.NoError(t, m.IncreaseLiquidity(60, 60, uint128.From64(500), false, 0, globals))

	// crossing from below: global has moved on since the tick was seeded
	newGlobals := GrowthGlobals{
		FeeGrowthGlobalA: fixedpoint.GrowthFromUint128(uint128.From64(1500)),
		FeeGrowthGlobalB: fixedpoint.GrowthFromUint128(uint128.From64(2500)),
	}
	newActive, newStaked, err := m.CrossBySwap(60, false, uint128.From64(1000), uint128.Zero, newGlobals)
	require.NoError(t, err)
	require.Equal(t, uint128.From64(1500), newActive) // +500 net liquidity crossing upward
	require.True(t, newStaked.IsZero())

	tk := m.Get(60)
	// outside flips to global - outside = 1500 - 1000 = 500
	require.Equal(t, uint128.From64(500), tk.FeeGrowthOutsideA.Uint128())
}

func TestCrossBySwapZeroesActiveLiquidityAtUpperTick(t *testing.T) {
	m := NewManager(60)
	globals := GrowthGlobals{}

	// a position spanning [-60, 60): lower endpoint gets +delta, upper
	// endpoint gets -delta, so liquidity_net sums to zero across the range.
	require.NoError(t, m.IncreaseLiquidity(-60, 0, uint128.From64(500), false, 0, globals))
	require.NoError(t, m.IncreaseLiquidity(60, 0, uint128.From64(500), true, 0, globals))

	active, _ := m.CalcCurrentLiquidity(0)
	require.Equal(t, uint128.From64(500), active)

	// crossing the upper tick upward must subtract the position's
	// liquidity back out, not add it again.
	newActive, _, err := m.CrossBySwap(60, false, uint128.From64(500), uint128.Zero, globals)
	require.NoError(t, err)
	require.True(t, newActive.IsZero(), "crossing a position's upper tick upward must zero out its liquidity")
}

func TestCrossBySwapUnknownTickErrors(t *testing.T) {
	m := NewManager(60)
	_, _, err := m.CrossBySwap(60, true, uint128.Zero, uint128.Zero, GrowthGlobals{})
	require.Error(t, err)
}

func TestFeeGrowthInRangeInsideCurrentTick(t *testing.T) {
	m := NewManager(60)
	global := fixedpoint.GrowthFromUint128(uint128.From64(1000))
	globals := GrowthGlobals{FeeGrowthGlobalA: global, FeeGrowthGlobalB: global}

	// seed both endpoints while current tick is inside [-60, 60): per
	// getOrInit's "index <= currentTick" rule, -60 seeds to the current
	// global and 60 (above the current tick) seeds to zero.
	require.NoError(t, m.IncreaseLiquidity(-60, 0, uint128.From64(10), false, 0, globals))
	require.NoError(t, m.IncreaseLiquidity(60, 0, uint128.From64(10), false, 0, globals))

	insideA, insideB := m.FeeGrowthInRange(0, -60, 60, global, global)
	require.True(t, insideA.IsZero(), "growth inside should be zero immediately after seeding")
	require.True(t, insideB.IsZero())
}

func TestUpdateFullsailStakeLowerUpperSigns(t *testing.T) {
	m := NewManager(60)
	globals := GrowthGlobals{}
	require.NoError(t, m.IncreaseLiquidity(-60, 0, uint128.From64(10), false, 0, globals))
	require.NoError(t, m.IncreaseLiquidity(60, 0, uint128.From64(10), false, 0, globals))

	delta := big.NewInt(500)
	require.NoError(t, m.UpdateFullsailStake(-60, delta, false))
	require.NoError(t, m.UpdateFullsailStake(60, delta, true))

	require.Equal(t, big.NewInt(500), m.Get(-60).StakedLiquidityNet)
	require.Equal(t, big.NewInt(-500), m.Get(60).StakedLiquidityNet)
}

func TestCalcCurrentLiquiditySumsNetUpToCurrentTick(t *testing.T) {
	m := NewManager(60)
	globals := GrowthGlobals{}
	require.NoError(t, m.IncreaseLiquidity(-120, 0, uint128.From64(100), false, 0, globals))
	require.NoError(t, m.IncreaseLiquidity(60, 0, uint128.From64(50), false, 0, globals))

	l, ls := m.CalcCurrentLiquidity(0)
	require.Equal(t, uint128.From64(100), l)
	require.Equal(t, big.NewInt(0), ls)
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewManager(60)
	globals := GrowthGlobals{}
	require.NoError(t, m.IncreaseLiquidity(60, 0, uint128.From64(10), false, 0, globals))

	clone := m.Clone()
	require.NoError(t, clone.IncreaseLiquidity(60, 0, uint128.From64(5), false, 0, globals))

	require.Equal(t, uint128.From64(10), m.Get(60).LiquidityGross)
	require.Equal(t, uint128.From64(15), clone.Get(60).LiquidityGross)
}
