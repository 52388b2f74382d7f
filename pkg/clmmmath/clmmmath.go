// Package clmmmath implements the CLMM swap-step and liquidity/amount
// conversion math: compute_swap_step, get_liquidity_by_amount and
// get_amount_by_liquidity, all operating on Q64.64 sqrt-prices and
// arbitrary-precision intermediates so no step loses precision before the
// final round to a checked 64-bit amount.
package clmmmath

import (
	"fmt"
	"math/big"

	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/fixedpoint"
)

// StepResult is the outcome of one compute_swap_step call.
type StepResult struct {
	NextSqrtPrice uint128.Uint128
	AmountIn      uint64
	AmountOut     uint64
	FeeAmount     uint64
}

func bi(v uint128.Uint128) *big.Int { return v.Big() }

func u128(v *big.Int) uint128.Uint128 { return uint128.FromBig(v) }

// getTokenAmountAFromLiquidity computes the amount of token A (the lower
// side, "coin A" in the source's naming) represented by liquidity over
// [priceLo, priceHi], per the standard getAmount0Delta formula.
func getTokenAmountAFromLiquidity(priceLo, priceHi, liquidity *big.Int, roundUp bool) *big.Int {
	if priceLo.Cmp(priceHi) > 0 {
		priceLo, priceHi = priceHi, priceLo
	}
	numerator1 := new(big.Int).Lsh(liquidity, fixedpoint.Q64Shift)
	numerator2 := new(big.Int).Sub(priceHi, priceLo)
	if roundUp {
		t := fixedpoint.MulDivCeil(numerator1, numerator2, priceHi)
		return fixedpoint.MulDivCeil(t, big.NewInt(1), priceLo)
	}
	t := fixedpoint.MulDivFloor(numerator1, numerator2, priceHi)
	return new(big.Int).Div(t, priceLo)
}

// getTokenAmountBFromLiquidity computes the amount of token B (the upper
// side) represented by liquidity over [priceLo, priceHi].
func getTokenAmountBFromLiquidity(priceLo, priceHi, liquidity *big.Int, roundUp bool) *big.Int {
	if priceLo.Cmp(priceHi) > 0 {
		priceLo, priceHi = priceHi, priceLo
	}
	diff := new(big.Int).Sub(priceHi, priceLo)
	if roundUp {
		return fixedpoint.MulDivCeil(liquidity, diff, fixedpoint.Q64Big)
	}
	return fixedpoint.MulDivFloor(liquidity, diff, fixedpoint.Q64Big)
}

// getNextSqrtPriceFromARoundingUp derives the next sqrt-price from an
// exact amount of token A, rounding up so liquidity is never
// over-promised to the trader.
func getNextSqrtPriceFromARoundingUp(sqrtPrice, liquidity, amount *big.Int, add bool) *big.Int {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPrice)
	}
	liqShift := new(big.Int).Lsh(liquidity, fixedpoint.Q64Shift)
	if add {
		denom := new(big.Int).Add(liqShift, new(big.Int).Mul(amount, sqrtPrice))
		if denom.Cmp(liqShift) >= 0 {
			return fixedpoint.MulDivCeil(liqShift, sqrtPrice, denom)
		}
		t := new(big.Int).Div(liqShift, sqrtPrice)
		t.Add(t, amount)
		return fixedpoint.MulDivCeil(liqShift, big.NewInt(1), t)
	}
	prod := new(big.Int).Mul(amount, sqrtPrice)
	denom := new(big.Int).Sub(liqShift, prod)
	return fixedpoint.MulDivCeil(liqShift, sqrtPrice, denom)
}

// getNextSqrtPriceFromBRoundingDown derives the next sqrt-price from an
// exact amount of token B, rounding down.
func getNextSqrtPriceFromBRoundingDown(sqrtPrice, liquidity, amount *big.Int, add bool) *big.Int {
	deltaY := new(big.Int).Lsh(amount, fixedpoint.Q64Shift)
	if add {
		return new(big.Int).Add(sqrtPrice, new(big.Int).Div(deltaY, liquidity))
	}
	q := fixedpoint.MulDivCeil(deltaY, big.NewInt(1), liquidity)
	return new(big.Int).Sub(sqrtPrice, q)
}

// getNextSqrtPriceFromInput picks the A/B rounding-up-for-A derivation
// based on swap direction for an exact-input step.
func getNextSqrtPriceFromInput(sqrtPrice, liquidity, amountIn *big.Int, a2b bool) *big.Int {
	if a2b {
		return getNextSqrtPriceFromARoundingUp(sqrtPrice, liquidity, amountIn, true)
	}
	return getNextSqrtPriceFromBRoundingDown(sqrtPrice, liquidity, amountIn, true)
}

// getNextSqrtPriceFromOutput mirrors getNextSqrtPriceFromInput for
// exact-output steps (output leaves on the opposite side from input).
func getNextSqrtPriceFromOutput(sqrtPrice, liquidity, amountOut *big.Int, a2b bool) *big.Int {
	if a2b {
		return getNextSqrtPriceFromBRoundingDown(sqrtPrice, liquidity, amountOut, false)
	}
	return getNextSqrtPriceFromARoundingUp(sqrtPrice, liquidity, amountOut, false)
}

// ComputeSwapStep is the single-step price-traversal computation shared by
// swap_in_pool and its read-only preview. fee_rate and fee_rate_denom are
// the pool's fee rate and FEE_RATE_DENOM. Fee is charged on the gross
// input for by_amount_in steps so that amount_in + fee never exceeds
// amount_remaining.
func ComputeSwapStep(
	current, target, liquidity uint128.Uint128,
	amountRemaining uint64,
	feeRate, feeRateDenom uint64,
	a2b bool,
	byAmountIn bool,
) (StepResult, error) {
	// liquidity == 0 is a valid gap between two non-overlapping positions:
	// the step still must succeed, advancing straight to target with zero
	// amounts/fees rather than erroring the whole swap out.
	curBI, tgtBI, liqBI := bi(current), bi(target), bi(liquidity)
	remaining := new(big.Int).SetUint64(amountRemaining)
	feeRateBI := new(big.Int).SetUint64(feeRate)
	feeRateDenomBI := new(big.Int).SetUint64(feeRateDenom)

	var (
		nextPrice *big.Int
		amtIn     = new(big.Int)
		amtOut    = new(big.Int)
		feeAmt    = new(big.Int)
	)

	if byAmountIn {
		remainingLessFee := fixedpoint.MulDivFloor(remaining, new(big.Int).Sub(feeRateDenomBI, feeRateBI), feeRateDenomBI)
		if a2b {
			amtIn = getTokenAmountAFromLiquidity(tgtBI, curBI, liqBI, true)
		} else {
			amtIn = getTokenAmountBFromLiquidity(curBI, tgtBI, liqBI, true)
		}
		if remainingLessFee.Cmp(amtIn) >= 0 {
			nextPrice = new(big.Int).Set(tgtBI)
		} else {
			nextPrice = getNextSqrtPriceFromInput(curBI, liqBI, remainingLessFee, a2b)
		}
	} else {
		if a2b {
			amtOut = getTokenAmountBFromLiquidity(tgtBI, curBI, liqBI, false)
		} else {
			amtOut = getTokenAmountAFromLiquidity(curBI, tgtBI, liqBI, false)
		}
		if remaining.Cmp(amtOut) >= 0 {
			nextPrice = new(big.Int).Set(tgtBI)
		} else {
			nextPrice = getNextSqrtPriceFromOutput(curBI, liqBI, remaining, a2b)
		}
	}

	reachedTarget := nextPrice.Cmp(tgtBI) == 0

	if a2b {
		if !(reachedTarget && byAmountIn) {
			amtIn = getTokenAmountAFromLiquidity(nextPrice, curBI, liqBI, true)
		}
		if !(reachedTarget && !byAmountIn) {
			amtOut = getTokenAmountBFromLiquidity(nextPrice, curBI, liqBI, false)
		}
	} else {
		if !(reachedTarget && byAmountIn) {
			amtIn = getTokenAmountBFromLiquidity(curBI, nextPrice, liqBI, true)
		}
		if !(reachedTarget && !byAmountIn) {
			amtOut = getTokenAmountAFromLiquidity(curBI, nextPrice, liqBI, false)
		}
	}

	// exact-output: amount_out must not exceed what was asked for.
	if !byAmountIn && amtOut.Cmp(remaining) > 0 {
		amtOut = new(big.Int).Set(remaining)
	}

	if byAmountIn && reachedTarget {
		feeAmt = fixedpoint.MulDivCeil(amtIn, feeRateBI, new(big.Int).Sub(feeRateDenomBI, feeRateBI))
	} else if byAmountIn {
		feeAmt = new(big.Int).Sub(remaining, amtIn)
		if feeAmt.Sign() < 0 {
			feeAmt.SetInt64(0)
		}
	} else {
		feeAmt = fixedpoint.MulDivCeil(amtIn, feeRateBI, new(big.Int).Sub(feeRateDenomBI, feeRateBI))
	}

	amtInU64, err := fixedpoint.BigToUint64Checked(amtIn)
	if err != nil {
		return StepResult{}, fmt.Errorf("clmmmath: amount_in overflow: %w", err)
	}
	amtOutU64, err := fixedpoint.BigToUint64Checked(amtOut)
	if err != nil {
		return StepResult{}, fmt.Errorf("clmmmath: amount_out overflow: %w", err)
	}
	feeU64, err := fixedpoint.BigToUint64Checked(feeAmt)
	if err != nil {
		return StepResult{}, fmt.Errorf("clmmmath: fee_amount overflow: %w", err)
	}

	return StepResult{
		NextSqrtPrice: u128(nextPrice),
		AmountIn:      amtInU64,
		AmountOut:     amtOutU64,
		FeeAmount:     feeU64,
	}, nil
}

// GetAmountByLiquidity derives (amount_a, amount_b) backing `liquidity`
// over [sqrtPriceLower, sqrtPriceUpper] given the pool's current price and
// tick position relative to the range. roundUp controls rounding
// direction: true when adding liquidity (round up, against the user, i.e.
// in the pool's favour), false when removing it (round down).
func GetAmountByLiquidity(
	tickCurrent, tickLower, tickUpper int32,
	sqrtPriceCurrent, sqrtPriceLower, sqrtPriceUpper uint128.Uint128,
	liquidity uint128.Uint128,
	roundUp bool,
) (amountA, amountB uint64, err error) {
	liqBI := bi(liquidity)
	var aBI, bBI *big.Int
	switch {
	case tickCurrent < tickLower:
		aBI = getTokenAmountAFromLiquidity(bi(sqrtPriceLower), bi(sqrtPriceUpper), liqBI, roundUp)
		bBI = big.NewInt(0)
	case tickCurrent >= tickUpper:
		aBI = big.NewInt(0)
		bBI = getTokenAmountBFromLiquidity(bi(sqrtPriceLower), bi(sqrtPriceUpper), liqBI, roundUp)
	default:
		aBI = getTokenAmountAFromLiquidity(bi(sqrtPriceCurrent), bi(sqrtPriceUpper), liqBI, roundUp)
		bBI = getTokenAmountBFromLiquidity(bi(sqrtPriceLower), bi(sqrtPriceCurrent), liqBI, roundUp)
	}
	amountA, err = fixedpoint.BigToUint64Checked(aBI)
	if err != nil {
		return 0, 0, fmt.Errorf("clmmmath: amount_a overflow: %w", err)
	}
	amountB, err = fixedpoint.BigToUint64Checked(bBI)
	if err != nil {
		return 0, 0, fmt.Errorf("clmmmath: amount_b overflow: %w", err)
	}
	return amountA, amountB, nil
}

// GetLiquidityByAmount solves liquidity from one fixed side's amount (the
// "fixed-amount" add_liquidity mode), then the caller derives the other
// side via GetAmountByLiquidity. fixA selects which side's amount is
// fixed.
func GetLiquidityByAmount(
	tickCurrent, tickLower, tickUpper int32,
	sqrtPriceCurrent, sqrtPriceLower, sqrtPriceUpper uint128.Uint128,
	amount uint64,
	fixA bool,
) (uint128.Uint128, error) {
	amtBI := new(big.Int).SetUint64(amount)
	var liq *big.Int
	switch {
	case tickCurrent < tickLower:
		if !fixA {
			return uint128.Zero, fmt.Errorf("clmmmath: range entirely above current tick requires amount_a fixed")
		}
		liq = liquidityFromAmountA(bi(sqrtPriceLower), bi(sqrtPriceUpper), amtBI)
	case tickCurrent >= tickUpper:
		if fixA {
			return uint128.Zero, fmt.Errorf("clmmmath: range entirely below current tick requires amount_b fixed")
		}
		liq = liquidityFromAmountB(bi(sqrtPriceLower), bi(sqrtPriceUpper), amtBI)
	default:
		if fixA {
			liq = liquidityFromAmountA(bi(sqrtPriceCurrent), bi(sqrtPriceUpper), amtBI)
		} else {
			liq = liquidityFromAmountB(bi(sqrtPriceLower), bi(sqrtPriceCurrent), amtBI)
		}
	}
	if liq.Sign() < 0 {
		liq = big.NewInt(0)
	}
	return u128(liq), nil
}

// liquidityFromAmountA inverts getTokenAmountAFromLiquidity: L = amount *
// priceLo * priceHi / (2^64 * (priceHi - priceLo)).
func liquidityFromAmountA(priceLo, priceHi, amount *big.Int) *big.Int {
	if priceLo.Cmp(priceHi) > 0 {
		priceLo, priceHi = priceHi, priceLo
	}
	intermediate := fixedpoint.MulDivFloor(priceLo, priceHi, fixedpoint.Q64Big)
	diff := new(big.Int).Sub(priceHi, priceLo)
	if diff.Sign() == 0 {
		return big.NewInt(0)
	}
	return fixedpoint.MulDivFloor(amount, intermediate, diff)
}

// liquidityFromAmountB inverts getTokenAmountBFromLiquidity: L = amount *
// 2^64 / (priceHi - priceLo).
func liquidityFromAmountB(priceLo, priceHi, amount *big.Int) *big.Int {
	if priceLo.Cmp(priceHi) > 0 {
		priceLo, priceHi = priceHi, priceLo
	}
	diff := new(big.Int).Sub(priceHi, priceLo)
	if diff.Sign() == 0 {
		return big.NewInt(0)
	}
	return fixedpoint.MulDivFloor(amount, fixedpoint.Q64Big, diff)
}
