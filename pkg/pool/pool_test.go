package pool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/config"
	"github.com/fullsail-labs/clmm-core/pkg/errs"
	"github.com/fullsail-labs/clmm-core/pkg/events"
	"github.com/fullsail-labs/clmm-core/pkg/tickmath"
)

func newTestPool(t *testing.T, tickSpacing uint16, feeRate uint64) (*Pool, *events.SliceSink) {
	t.Helper()
	sink := &events.SliceSink{}
	cfg := config.NewDefault()
	p := New("pool-1", common.HexToAddress("0xA"), common.HexToAddress("0xB"), tickSpacing, feeRate, 0, cfg, sink, 0)
	sqrtPrice, err := tickmath.GetSqrtPriceAtTick(0)
	require.NoError(t, err)
	require.NoError(t, p.Initialize(sqrtPrice))
	return p, sink
}

func TestInitializeRejectsDoubleInit(t *testing.T) {
	p, _ := newTestPool(t, 60, 3000)
	sqrtPrice, _ := tickmath.GetSqrtPriceAtTick(0)
	require.Error(t, p.Initialize(sqrtPrice))
}

func TestAddRemoveLiquidityRoundTrip(t *testing.T) {
	p, sink := newTestPool(t, 60, 3000)

	info, err := p.OpenPosition(-600, 600)
	require.NoError(t, err)

	receipt, err := p.AddLiquidity(info.ID, true, false, 0, uint128.From64(1_000_000), 0)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.Greater(t, receipt.AmountA, uint64(0))
	require.Greater(t, receipt.AmountB, uint64(0))

	require.NoError(t, p.RepayAddLiquidity(receipt, receipt.AmountA, receipt.AmountB))
	require.Equal(t, receipt.AmountA, p.ReserveA)
	require.Equal(t, receipt.AmountB, p.ReserveB)
	require.Equal(t, 0, p.ActiveLiquidity.Cmp(uint128.From64(1_000_000)))

	// repaying twice must fail: the receipt is a move-only handle
	require.Error(t, p.RepayAddLiquidity(receipt, receipt.AmountA, receipt.AmountB))

	amountA, amountB, err := p.RemoveLiquidity(info.ID, uint128.From64(1_000_000), 0)
	require.NoError(t, err)
	require.Greater(t, amountA, uint64(0))
	require.Greater(t, amountB, uint64(0))
	require.True(t, p.ActiveLiquidity.IsZero())

	require.NoError(t, p.ClosePosition(info.ID))

	var sawAdd, sawRemove bool
	for _, e := range sink.Events {
		switch e.(type) {
		case events.AddLiquidity:
			sawAdd = true
		case events.RemoveLiquidity:
			sawRemove = true
		}
	}
	require.True(t, sawAdd)
	require.True(t, sawRemove)
}

func TestSwapInPoolSingleTickExactIn(t *testing.T) {
	p, sink := newTestPool(t, 60, 3000)

	info, err := p.OpenPosition(-60000, 60000)
	require.NoError(t, err)
	receipt, err := p.AddLiquidity(info.ID, true, false, 0, uint128.From64(1_000_000_000_000), 0)
	require.NoError(t, err)
	require.NoError(t, p.RepayAddLiquidity(receipt, receipt.AmountA, receipt.AmountB))

	result, err := p.SwapInPool(true, true, tickmath.MinSqrtPrice, 1_000_000, 0, 200_000, 0)
	require.NoError(t, err)
	require.Greater(t, result.AmountIn, uint64(0))
	require.Greater(t, result.AmountOut, uint64(0))
	require.Greater(t, result.FeeAmount, uint64(0))
	require.Greater(t, result.ProtocolFee, uint64(0))
	require.False(t, p.FeeGrowthGlobalA.IsZero())

	var sawSwap bool
	for _, e := range sink.Events {
		if _, ok := e.(events.Swap); ok {
			sawSwap = true
		}
	}
	require.True(t, sawSwap)
}

func TestSwapInPoolRejectsZeroAmount(t *testing.T) {
	p, _ := newTestPool(t, 60, 3000)
	_, err := p.SwapInPool(true, true, tickmath.MinSqrtPrice, 0, 0, 0, 0)
	require.True(t, errs.Is(err, errs.ZeroAmount))
}

func TestSwapInPoolRejectsInvalidPriceLimit(t *testing.T) {
	p, _ := newTestPool(t, 60, 3000)
	// a2b swap requires sqrt_price_limit < current price
	_, err := p.SwapInPool(true, true, p.SqrtPrice, 100, 0, 0, 0)
	require.True(t, errs.Is(err, errs.InvalidPriceLimit))
}

func TestCalculateSwapResultExceedsAvailableLiquidity(t *testing.T) {
	p, _ := newTestPool(t, 60, 3000)

	info, err := p.OpenPosition(-60, 60)
	require.NoError(t, err)
	receipt, err := p.AddLiquidity(info.ID, true, false, 0, uint128.From64(1_000), 0)
	require.NoError(t, err)
	require.NoError(t, p.RepayAddLiquidity(receipt, receipt.AmountA, receipt.AmountB))

	result, err := p.CalculateSwapResult(true, true, tickmath.MinSqrtPrice, 1_000_000, 0, 0, 0)
	require.NoError(t, err)
	require.True(t, result.IsExceed, "swapping past every initialized tick should report is_exceed")

	// the live path must hard-fail on the same condition instead
	_, err = p.SwapInPool(true, true, tickmath.MinSqrtPrice, 1_000_000, 0, 0, 0)
	require.True(t, errs.Is(err, errs.NextTickNotFound))
}

func TestFlashSwapRequiresExactRepayment(t *testing.T) {
	p, _ := newTestPool(t, 60, 3000)

	info, err := p.OpenPosition(-60000, 60000)
	require.NoError(t, err)
	receipt, err := p.AddLiquidity(info.ID, true, false, 0, uint128.From64(1_000_000_000_000), 0)
	require.NoError(t, err)
	require.NoError(t, p.RepayAddLiquidity(receipt, receipt.AmountA, receipt.AmountB))

	flashReceipt, result, err := p.FlashSwap("", true, true, tickmath.MinSqrtPrice, 1_000_000, 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, result.AmountIn+result.FeeAmount, flashReceipt.PayAmount)

	// underpaying must fail
	err = p.RepayFlashSwap(flashReceipt, p.ID, flashReceipt.PayAmount-1, 0)
	require.Error(t, err)

	// correct repayment succeeds exactly once
	require.NoError(t, p.RepayFlashSwap(flashReceipt, p.ID, flashReceipt.PayAmount, 0))
	require.Error(t, p.RepayFlashSwap(flashReceipt, p.ID, flashReceipt.PayAmount, 0))
}

func TestPauseBlocksMutatingOpsExceptUnpause(t *testing.T) {
	p, _ := newTestPool(t, 60, 3000)
	require.NoError(t, p.Pause())
	require.Error(t, p.Pause(), "double pause rejected")

	_, err := p.SwapInPool(true, true, tickmath.MinSqrtPrice, 100, 0, 0, 0)
	require.True(t, errs.Is(err, errs.PoolPaused))

	require.NoError(t, p.Unpause())
	require.Error(t, p.Unpause(), "double unpause rejected")
}

func TestUpdateFeeRateEnforcesCeilingAndChange(t *testing.T) {
	p, _ := newTestPool(t, 60, 3000)
	require.Error(t, p.UpdateFeeRate(3000), "no-op update rejected")
	require.Error(t, p.UpdateFeeRate(10_000_000), "exceeds max_fee_rate")
	require.NoError(t, p.UpdateFeeRate(5000))
	require.Equal(t, uint64(5000), p.FeeRate)
}

func TestStakeUnstakeAdjustsStakedLiquidity(t *testing.T) {
	p, _ := newTestPool(t, 60, 3000)
	info, err := p.OpenPosition(-600, 600)
	require.NoError(t, err)
	receipt, err := p.AddLiquidity(info.ID, true, false, 0, uint128.From64(1_000_000), 0)
	require.NoError(t, err)
	require.NoError(t, p.RepayAddLiquidity(receipt, receipt.AmountA, receipt.AmountB))

	require.NoError(t, p.Stake(info.ID, 100))
	require.Equal(t, 0, p.StakedLiquidity.Cmp(uint128.From64(1_000_000)))
	require.Equal(t, 0, p.Emission.StakedLiquidity.Cmp(uint128.From64(1_000_000)), "stake must refresh the emission descriptor's staked liquidity")

	require.NoError(t, p.Unstake(info.ID, 200))
	require.True(t, p.StakedLiquidity.IsZero())
	require.True(t, p.Emission.StakedLiquidity.IsZero(), "unstake must refresh the emission descriptor's staked liquidity")
}

func TestRestoreFullsailDistributionStakedLiquidityRepairsState(t *testing.T) {
	p, _ := newTestPool(t, 60, 3000)
	info, err := p.OpenPosition(-600, 600)
	require.NoError(t, err)
	receipt, err := p.AddLiquidity(info.ID, true, false, 0, uint128.From64(1_000_000), 0)
	require.NoError(t, err)
	require.NoError(t, p.RepayAddLiquidity(receipt, receipt.AmountA, receipt.AmountB))
	require.NoError(t, p.Stake(info.ID, 100))

	p.StakedLiquidity = uint128.Zero // simulate drift
	require.NoError(t, p.RestoreFullsailDistributionStakedLiquidity())
	require.Equal(t, 0, p.StakedLiquidity.Cmp(uint128.From64(1_000_000)))
}
