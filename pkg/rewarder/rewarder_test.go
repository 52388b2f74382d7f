package rewarder

import (
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestAddRewarderIsAppendOnlyAndUnique(t *testing.T) {
	m := NewManager(0)
	idx, err := m.AddRewarder("TOKEN_A")
	require.NoError(t, err)
	require.Equal(t, 0, idx)

	_, err = m.AddRewarder("TOKEN_A")
	require.Error(t, err, "duplicate token type must be rejected")

	idx, err = m.AddRewarder("TOKEN_B")
	require.NoError(t, err)
	require.Equal(t, 1, idx)
}

func TestManagerSettleAccruesOnlyWhileStaked(t *testing.T) {
	m := NewManager(0)
	idx, err := m.AddRewarder("TOKEN_A")
	require.NoError(t, err)
	require.NoError(t, m.UpdateEmission(idx, uint128.From64(1).Lsh(64))) // 1 token/sec in Q64.64

	m.Settle(10, uint128.Zero) // no staked liquidity: nothing accrues
	require.True(t, m.Rewarders[idx].GrowthGlobal.IsZero())
	require.Equal(t, int64(10), m.LastUpdated)

	m.Settle(20, uint128.From64(1)) // 10s * 1/sec / 1 staked = growth 10<<64
	require.False(t, m.Rewarders[idx].GrowthGlobal.IsZero())
}

func TestEmissionUpdateGrowthGlobalDistributesFromReserve(t *testing.T) {
	e := NewEmission(0)
	e.Rate = uint128.From64(1).Lsh(64) // 1 token/sec
	e.Reserve = 100
	e.StakedLiquidity = uint128.From64(10)

	distributed := e.UpdateEmissionGrowthGlobal(5)
	require.Equal(t, uint64(5), distributed)
	require.Equal(t, uint64(95), e.Reserve)
	require.True(t, e.Rollover == 0)
}

func TestEmissionUpdateGrowthGlobalCapsAtReserve(t *testing.T) {
	e := NewEmission(0)
	e.Rate = uint128.From64(10).Lsh(64) // 10 tokens/sec
	e.Reserve = 20
	e.StakedLiquidity = uint128.From64(1)

	distributed := e.UpdateEmissionGrowthGlobal(5) // would-be 50, capped at reserve 20
	require.Equal(t, uint64(20), distributed)
	require.Equal(t, uint64(0), e.Reserve)
}

func TestEmissionRollsOverWhenNoStakedLiquidity(t *testing.T) {
	e := NewEmission(0)
	e.Rate = uint128.From64(1).Lsh(64)
	e.Reserve = 100
	e.StakedLiquidity = uint128.Zero

	distributed := e.UpdateEmissionGrowthGlobal(5)
	require.Equal(t, uint64(5), distributed)
	require.Equal(t, uint64(5), e.Rollover)
	require.True(t, e.GrowthGlobal.IsZero())
}

func TestEmissionUpdateGrowthGlobalZeroDtIsNoop(t *testing.T) {
	e := NewEmission(10)
	e.Reserve = 50
	distributed := e.UpdateEmissionGrowthGlobal(10)
	require.Equal(t, uint64(0), distributed)
	require.Equal(t, uint64(50), e.Reserve)
}

func TestSyncEmissionRejectsPastFinishTime(t *testing.T) {
	e := NewEmission(100)
	err := e.SyncEmission(100, uint128.From64(1), 50, 99)
	require.Error(t, err)
}

func TestSyncEmissionAccruesBeforeOverwriting(t *testing.T) {
	e := NewEmission(0)
	e.Rate = uint128.From64(1).Lsh(64)
	e.Reserve = 100
	e.StakedLiquidity = uint128.From64(1)

	require.NoError(t, e.SyncEmission(10, uint128.From64(2).Lsh(64), 200, 1000))
	require.False(t, e.GrowthGlobal.IsZero(), "the old rate must accrue before being overwritten")
	require.Equal(t, uint64(200), e.Reserve) // new reserve wins after accrual
	require.Equal(t, int64(1000), e.PeriodFinish)
}
