package pool

import (
	"math/big"

	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/clmmmath"
	"github.com/fullsail-labs/clmm-core/pkg/errs"
	"github.com/fullsail-labs/clmm-core/pkg/events"
	"github.com/fullsail-labs/clmm-core/pkg/fixedpoint"
	"github.com/fullsail-labs/clmm-core/pkg/tickmath"
)

// SwapResult is the accumulated outcome of swap_in_pool (§4.2).
type SwapResult struct {
	AmountIn    uint64
	AmountOut   uint64
	FeeAmount   uint64
	ProtocolFee uint64
	RefFee      uint64
	GaugeFee    uint64
	Steps       int
	IsExceed    bool
}

// maxSwapSteps bounds the per-call tick traversal, mirroring the
// teacher's own loop safety counter in HandleSwap.
const maxSwapSteps = 4096

// SwapInPool executes swap_in_pool per §4.2: a multi-step tick traversal
// with exact-in/exact-out modes, a price limit, and fee splitting across
// referral, protocol, gauge and LP-growth destinations.
func (p *Pool) SwapInPool(
	a2b bool,
	byAmountIn bool,
	sqrtPriceLimit uint128.Uint128,
	amount uint64,
	refFeeRate uint64,
	protocolFeeRate uint64,
	now int64,
) (SwapResult, error) {
	result, err := p.executeSwap(a2b, byAmountIn, sqrtPriceLimit, amount, refFeeRate, protocolFeeRate, now)
	if err != nil {
		return SwapResult{}, err
	}

	if a2b {
		p.ReserveA += result.AmountIn + result.FeeAmount - result.RefFee
		p.ReserveB -= result.AmountOut
	} else {
		p.ReserveB += result.AmountIn + result.FeeAmount - result.RefFee
		p.ReserveA -= result.AmountOut
	}
	return result, nil
}

// executeSwap validates preconditions, runs the step loop and credits the
// protocol/gauge escrows and the Swap event — everything except the
// reserve movement that belongs to the caller's payment side (settled
// immediately by SwapInPool, deferred to repay by FlashSwap).
func (p *Pool) executeSwap(
	a2b bool,
	byAmountIn bool,
	sqrtPriceLimit uint128.Uint128,
	amount uint64,
	refFeeRate uint64,
	protocolFeeRate uint64,
	now int64,
) (SwapResult, error) {
	if err := p.requireNotPaused(); err != nil {
		return SwapResult{}, err
	}
	if amount == 0 {
		return SwapResult{}, errs.New(errs.ZeroAmount, "swap_in_pool: amount is zero")
	}
	if refFeeRate > p.Config.FeeRateDenom() {
		return SwapResult{}, errs.New(errs.InvalidRefFeeRate, "swap_in_pool: ref_fee_rate exceeds denom")
	}
	if a2b {
		if !(p.SqrtPrice.Cmp(sqrtPriceLimit) > 0 && sqrtPriceLimit.Cmp(tickmath.MinSqrtPrice) >= 0) {
			return SwapResult{}, errs.New(errs.InvalidPriceLimit, "swap_in_pool: invalid price limit for a2b swap")
		}
	} else {
		if !(p.SqrtPrice.Cmp(sqrtPriceLimit) < 0 && sqrtPriceLimit.Cmp(tickmath.MaxSqrtPrice) <= 0) {
			return SwapResult{}, errs.New(errs.InvalidPriceLimit, "swap_in_pool: invalid price limit for b2a swap")
		}
	}

	result, err := p.runSwap(a2b, byAmountIn, sqrtPriceLimit, amount, refFeeRate, protocolFeeRate, now, false)
	if err != nil {
		return SwapResult{}, err
	}

	if a2b {
		p.ProtocolFeeA += result.ProtocolFee
		p.GaugeFeeA += result.GaugeFee
	} else {
		p.ProtocolFeeB += result.ProtocolFee
		p.GaugeFeeB += result.GaugeFee
	}

	p.emit(events.Swap{
		PoolID: p.ID, A2B: a2b, ByAmountIn: byAmountIn,
		AmountIn: result.AmountIn, AmountOut: result.AmountOut, FeeAmount: result.FeeAmount,
		ProtocolFee: result.ProtocolFee, RefFee: result.RefFee, GaugeFee: result.GaugeFee,
		Steps: result.Steps, SqrtPriceAfter: decU128(p.SqrtPrice), TickAfter: p.TickCurrent,
	})
	if result.FeeAmount > 0 {
		p.emit(events.UpdateFeeGrowth{
			PoolID:           p.ID,
			FeeGrowthGlobalA: decU128(p.FeeGrowthGlobalA.Uint128()),
			FeeGrowthGlobalB: decU128(p.FeeGrowthGlobalB.Uint128()),
		})
	}
	return result, nil
}

// CalculateSwapResult is a read-only simulation of SwapInPool run against
// a cloned copy of pool state. If the tick iterator runs out before
// `amount` drains, IsExceed is set true and the partial result returned
// instead of an error.
func (p *Pool) CalculateSwapResult(
	a2b bool,
	byAmountIn bool,
	sqrtPriceLimit uint128.Uint128,
	amount uint64,
	refFeeRate uint64,
	protocolFeeRate uint64,
	now int64,
) (SwapResult, error) {
	scratch := p.Clone()
	result, err := scratch.runSwap(a2b, byAmountIn, sqrtPriceLimit, amount, refFeeRate, protocolFeeRate, now, true)
	if err != nil {
		if errs.Is(err, errs.NextTickNotFound) {
			result.IsExceed = true
			return result, nil
		}
		return SwapResult{}, err
	}
	return result, nil
}

// runSwap is the shared step loop behind SwapInPool and
// CalculateSwapResult; it mutates the receiver's price/tick/liquidity/
// growth state directly, so previews must call it on a Clone().
func (p *Pool) runSwap(
	a2b bool,
	byAmountIn bool,
	sqrtPriceLimit uint128.Uint128,
	amount uint64,
	refFeeRate uint64,
	protocolFeeRate uint64,
	now int64,
	preview bool,
) (SwapResult, error) {
	remaining := amount
	var result SwapResult

	feeRateDenom := p.Config.FeeRateDenom()
	unstakedFeeDenom := p.Config.UnstakedFeeDenom()
	unstakedFeeRate := p.effectiveUnstakedFeeRate()

	logrus.Debugf("pool %s swap start: a2b=%t by_amount_in=%t amount=%d limit=%s", p.ID, a2b, byAmountIn, amount, sqrtPriceLimit)

	for remaining > 0 && p.SqrtPrice.Cmp(sqrtPriceLimit) != 0 {
		result.Steps++
		if result.Steps > maxSwapSteps {
			return result, errs.New(errs.NextTickNotFound, "swap: exceeded max steps without converging")
		}

		nextTickIdx, found := p.TickManager.FirstScoreForSwap(p.TickCurrent, a2b)
		if !found {
			return result, errs.New(errs.NextTickNotFound, "swap: no further initialized tick in direction")
		}
		if !tickmath.IsValidTick(nextTickIdx) {
			if nextTickIdx < tickmath.MinTick {
				nextTickIdx = tickmath.MinTick
			} else {
				nextTickIdx = tickmath.MaxTick
			}
		}
		tickSqrtPrice, err := tickmath.GetSqrtPriceAtTick(nextTickIdx)
		if err != nil {
			return result, err
		}

		var target uint128.Uint128
		if a2b {
			target = maxU128(sqrtPriceLimit, tickSqrtPrice)
		} else {
			target = minU128(sqrtPriceLimit, tickSqrtPrice)
		}

		step, err := clmmmath.ComputeSwapStep(p.SqrtPrice, target, p.ActiveLiquidity, remaining, p.FeeRate, feeRateDenom, a2b, byAmountIn)
		if err != nil {
			return result, err
		}

		var consumed uint64
		if byAmountIn {
			consumed = step.AmountIn + step.FeeAmount
		} else {
			consumed = step.AmountOut
		}
		if consumed > remaining {
			return result, errs.New(errs.InsufficientAmount, "swap: step consumed more than remaining")
		}
		remaining -= consumed

		ref, protocol, gauge, lpFee, err := splitFee(step.FeeAmount, refFeeRate, protocolFeeRate, unstakedFeeRate, feeRateDenom, unstakedFeeDenom, p.ActiveLiquidity, p.StakedLiquidity)
		if err != nil {
			return result, err
		}

		if !p.ActiveLiquidity.IsZero() && lpFee > 0 {
			num := new(big.Int).Lsh(new(big.Int).SetUint64(lpFee), 64)
			delta := fixedpoint.MulDivFloorGrowth(num, p.ActiveLiquidity.Big())
			if a2b {
				p.FeeGrowthGlobalA = p.FeeGrowthGlobalA.AddWrap(delta)
			} else {
				p.FeeGrowthGlobalB = p.FeeGrowthGlobalB.AddWrap(delta)
			}
		}

		prevSqrtPrice := p.SqrtPrice
		p.SqrtPrice = step.NextSqrtPrice

		if step.NextSqrtPrice.Cmp(tickSqrtPrice) == 0 {
			if a2b {
				p.TickCurrent = nextTickIdx - 1
			} else {
				p.TickCurrent = nextTickIdx
			}
			// ordering guarantee (§5): update_emission_growth_global runs
			// between setting current_tick_index and cross_by_swap.
			if !preview {
				p.settleRewarder(now)
			} else {
				p.Emission.UpdateEmissionGrowthGlobal(now)
			}
			newActive, newStaked, err := p.TickManager.CrossBySwap(nextTickIdx, a2b, p.ActiveLiquidity, p.StakedLiquidity, p.growthGlobals())
			if err != nil {
				return result, err
			}
			p.ActiveLiquidity = newActive
			p.StakedLiquidity = newStaked
		} else if step.NextSqrtPrice.Cmp(prevSqrtPrice) != 0 {
			tickAtPrice, err := tickmath.TickAtSqrtPrice(step.NextSqrtPrice)
			if err != nil {
				return result, err
			}
			p.TickCurrent = tickAtPrice
		}

		result.AmountIn, err = fixedpoint.CheckedAddU64(result.AmountIn, step.AmountIn)
		if err != nil {
			return result, errs.New(errs.AmountInOverflow, "swap: amount_in overflow")
		}
		result.AmountOut, err = fixedpoint.CheckedAddU64(result.AmountOut, step.AmountOut)
		if err != nil {
			return result, errs.New(errs.AmountOutOverflow, "swap: amount_out overflow")
		}
		result.FeeAmount, err = fixedpoint.CheckedAddU64(result.FeeAmount, step.FeeAmount)
		if err != nil {
			return result, errs.New(errs.FeeAmountOverflow, "swap: fee_amount overflow")
		}
		result.ProtocolFee, _ = fixedpoint.CheckedAddU64(result.ProtocolFee, protocol)
		result.RefFee, _ = fixedpoint.CheckedAddU64(result.RefFee, ref)
		result.GaugeFee, _ = fixedpoint.CheckedAddU64(result.GaugeFee, gauge)

		logrus.Tracef("pool %s swap step %d: tick=%d price=%s in=%d out=%d fee=%d", p.ID, result.Steps, p.TickCurrent, p.SqrtPrice, step.AmountIn, step.AmountOut, step.FeeAmount)
	}

	return result, nil
}

// splitFee implements the ordered fee split of §4.2 step 5: referral,
// then protocol, then the gauge/LP split governed by staked vs active
// liquidity.
func splitFee(
	fee uint64,
	refFeeRate, protocolFeeRate, unstakedFeeRate uint64,
	feeRateDenom, unstakedFeeDenom uint64,
	activeLiquidity, stakedLiquidity uint128.Uint128,
) (ref, protocol, gauge, lpFee uint64, err error) {
	feeBI := new(big.Int).SetUint64(fee)
	denomBI := new(big.Int).SetUint64(feeRateDenom)

	refBI := fixedpoint.MulDivCeil(feeBI, new(big.Int).SetUint64(refFeeRate), denomBI)
	remainingFee := new(big.Int).Sub(feeBI, refBI)

	protocolBI := fixedpoint.MulDivCeil(remainingFee, new(big.Int).SetUint64(protocolFeeRate), denomBI)
	afterProtocol := new(big.Int).Sub(remainingFee, protocolBI)

	var gaugeBI *big.Int
	if stakedLiquidity.Cmp(activeLiquidity) >= 0 && !activeLiquidity.IsZero() {
		gaugeBI = new(big.Int).Set(afterProtocol)
	} else if !stakedLiquidity.IsZero() {
		unstakedDenomBI := new(big.Int).SetUint64(unstakedFeeDenom)
		stakedAttributable := fixedpoint.MulDivCeil(afterProtocol, stakedLiquidity.Big(), activeLiquidity.Big())
		gaugeBI = fixedpoint.MulDivCeil(stakedAttributable, new(big.Int).SetUint64(unstakedFeeRate), unstakedDenomBI)
	} else {
		unstakedDenomBI := new(big.Int).SetUint64(unstakedFeeDenom)
		gaugeBI = fixedpoint.MulDivCeil(afterProtocol, new(big.Int).SetUint64(unstakedFeeRate), unstakedDenomBI)
	}
	if gaugeBI.Cmp(afterProtocol) > 0 {
		gaugeBI = new(big.Int).Set(afterProtocol)
	}
	lpFeeBI := new(big.Int).Sub(afterProtocol, gaugeBI)

	ref, err = fixedpoint.BigToUint64Checked(refBI)
	if err != nil {
		return 0, 0, 0, 0, errs.New(errs.InvalidRefFeeAmount, "split_fee: ref_fee overflow")
	}
	protocol, err = fixedpoint.BigToUint64Checked(protocolBI)
	if err != nil {
		return 0, 0, 0, 0, errs.New(errs.FeeAmountOverflow, "split_fee: protocol_fee overflow")
	}
	gauge, err = fixedpoint.BigToUint64Checked(gaugeBI)
	if err != nil {
		return 0, 0, 0, 0, errs.New(errs.FeeAmountOverflow, "split_fee: gauge_fee overflow")
	}
	lpFee, err = fixedpoint.BigToUint64Checked(lpFeeBI)
	if err != nil {
		return 0, 0, 0, 0, errs.New(errs.FeeAmountOverflow, "split_fee: lp_fee overflow")
	}
	return ref, protocol, gauge, lpFee, nil
}

func maxU128(a, b uint128.Uint128) uint128.Uint128 {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

func minU128(a, b uint128.Uint128) uint128.Uint128 {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
