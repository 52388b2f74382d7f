package pool

import (
	"math/big"

	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/clmmmath"
	"github.com/fullsail-labs/clmm-core/pkg/errs"
	"github.com/fullsail-labs/clmm-core/pkg/events"
	"github.com/fullsail-labs/clmm-core/pkg/fixedpoint"
	"github.com/fullsail-labs/clmm-core/pkg/position"
	"github.com/fullsail-labs/clmm-core/pkg/tickmath"
)

// OpenPosition validates the requested range and creates a zero-liquidity
// position (§4.3).
func (p *Pool) OpenPosition(tickLower, tickUpper int32) (*position.Info, error) {
	if err := p.requireNotPaused(); err != nil {
		return nil, err
	}
	info, err := p.PositionManager.Open(p.ID, tickLower, tickUpper, tickmath.MinTick, tickmath.MaxTick)
	if err != nil {
		return nil, err
	}
	p.emit(events.OpenPosition{PoolID: p.ID, PositionID: string(info.ID), TickLower: tickLower, TickUpper: tickUpper})
	return info, nil
}

// ClosePosition removes an empty position.
func (p *Pool) ClosePosition(id position.ID) error {
	if err := p.requireNotPaused(); err != nil {
		return err
	}
	if err := p.PositionManager.Close(id); err != nil {
		return err
	}
	p.emit(events.ClosePosition{PoolID: p.ID, PositionID: string(id)})
	return nil
}

// lowerUpperSqrtPrice resolves the sqrt-price bounds for a tick range.
func lowerUpperSqrtPrice(tickLower, tickUpper int32) (lower, upper uint128.Uint128, err error) {
	lower, err = tickmath.GetSqrtPriceAtTick(tickLower)
	if err != nil {
		return
	}
	upper, err = tickmath.GetSqrtPriceAtTick(tickUpper)
	return
}

// applyGrowthSnapshot recomputes growth-inside for a position's range
// across every dimension and folds the accrued delta into its owed
// fields — the per-position half of the O(1) accrual the spec requires.
func (p *Pool) applyGrowthSnapshot(info *position.Info) {
	insideA, insideB := p.TickManager.FeeGrowthInRange(p.TickCurrent, info.TickLower, info.TickUpper, p.FeeGrowthGlobalA, p.FeeGrowthGlobalB)
	info.UpdateFee(insideA, insideB)

	insidePoints := p.TickManager.PointsGrowthInRange(p.TickCurrent, info.TickLower, info.TickUpper, p.RewarderManager.PointsGrowthGlobal)
	info.UpdatePoints(insidePoints)

	if info.IsStaked {
		insideEmission := p.TickManager.EmissionGrowthInRange(p.TickCurrent, info.TickLower, info.TickUpper, p.Emission.GrowthGlobal)
		info.UpdateEmission(insideEmission, p.StakedLiquidity)
	}

	rewardGlobals := p.RewarderManager.RewardGrowthGlobal()
	if len(rewardGlobals) > 0 {
		insideRewards := make([]fixedpoint.Growth, len(rewardGlobals))
		for i := range rewardGlobals {
			insideRewards[i] = p.TickManager.RewardGrowthInRange(p.TickCurrent, info.TickLower, info.TickUpper, i, rewardGlobals[i])
		}
		info.UpdateRewards(insideRewards)
	}
}

// AddLiquidityReceipt is the hot-potato returned by AddLiquidity: a
// move-only handle that must be consumed by exactly one RepayAddLiquidity
// call in the same atomic operation (§9).
type AddLiquidityReceipt struct {
	id       uint64
	PoolID   string
	AmountA  uint64
	AmountB  uint64
	consumed bool
}

// AddLiquidity implements add_liquidity/add_liquidity_fix_coin (§4.3). If
// fixLiquidity is true, amount is interpreted as a target liquidity
// delta; otherwise amount is a token amount on the side selected by
// fixA, and liquidity is solved from it.
func (p *Pool) AddLiquidity(id position.ID, fixLiquidity, fixA bool, amount uint64, liquidityIn uint128.Uint128, now int64) (*AddLiquidityReceipt, error) {
	if err := p.requireNotPaused(); err != nil {
		return nil, err
	}
	info := p.PositionManager.Get(id)
	if info == nil {
		return nil, errs.New(errs.NotOwner, "add_liquidity: position not found")
	}
	if info.IsStaked {
		return nil, errs.New(errs.PositionIsStaked, "add_liquidity: position is staked")
	}

	p.settleRewarder(now)

	sqrtLower, sqrtUpper, err := lowerUpperSqrtPrice(info.TickLower, info.TickUpper)
	if err != nil {
		return nil, err
	}

	var liquidity uint128.Uint128
	var amountA, amountB uint64
	if fixLiquidity {
		liquidity = liquidityIn
		amountA, amountB, err = clmmmath.GetAmountByLiquidity(p.TickCurrent, info.TickLower, info.TickUpper, p.SqrtPrice, sqrtLower, sqrtUpper, liquidity, true)
		if err != nil {
			return nil, err
		}
	} else {
		liquidity, err = clmmmath.GetLiquidityByAmount(p.TickCurrent, info.TickLower, info.TickUpper, p.SqrtPrice, sqrtLower, sqrtUpper, amount, fixA)
		if err != nil {
			return nil, err
		}
		amountA, amountB, err = clmmmath.GetAmountByLiquidity(p.TickCurrent, info.TickLower, info.TickUpper, p.SqrtPrice, sqrtLower, sqrtUpper, liquidity, true)
		if err != nil {
			return nil, err
		}
	}
	if liquidity.IsZero() {
		return nil, errs.New(errs.ZeroLiquidity, "add_liquidity: resolved liquidity is zero")
	}

	if err := p.TickManager.IncreaseLiquidity(info.TickLower, p.TickCurrent, liquidity, false, len(p.RewarderManager.Rewarders), p.growthGlobals()); err != nil {
		return nil, err
	}
	if err := p.TickManager.IncreaseLiquidity(info.TickUpper, p.TickCurrent, liquidity, true, len(p.RewarderManager.Rewarders), p.growthGlobals()); err != nil {
		return nil, err
	}

	if info.TickLower <= p.TickCurrent && p.TickCurrent < info.TickUpper {
		newActive := p.ActiveLiquidity.Add(liquidity)
		if newActive.Cmp(p.ActiveLiquidity) < 0 {
			return nil, errs.New(errs.LiquidityAdditionOverflow, "add_liquidity: active_liquidity overflow")
		}
		p.ActiveLiquidity = newActive
	}

	p.applyGrowthSnapshot(info)
	if err := info.IncreaseLiquidity(liquidity); err != nil {
		return nil, err
	}

	p.receiptSeq++
	receipt := &AddLiquidityReceipt{id: p.receiptSeq, PoolID: p.ID, AmountA: amountA, AmountB: amountB}
	p.outstandingAdd[receipt.id] = receipt

	p.emit(events.AddLiquidity{PoolID: p.ID, PositionID: string(id), AmountA: amountA, AmountB: amountB, Liquidity: decU128(liquidity)})
	logrus.Debugf("pool %s add_liquidity: position=%s liquidity=%s amount_a=%d amount_b=%d", p.ID, id, liquidity, amountA, amountB)
	return receipt, nil
}

// RepayAddLiquidity consumes an AddLiquidityReceipt, joining the balances
// the caller paid into the reserves. The receipt is un-copyable (private
// fields) and can only be repaid once — a second call fails because the
// registry entry is gone.
func (p *Pool) RepayAddLiquidity(receipt *AddLiquidityReceipt, paidA, paidB uint64) error {
	if receipt == nil || receipt.consumed {
		return errs.New(errs.ZeroAmount, "repay_add_liquidity: receipt already consumed")
	}
	if _, ok := p.outstandingAdd[receipt.id]; !ok {
		return errs.New(errs.PoolIdMismatch, "repay_add_liquidity: unknown receipt")
	}
	if paidA != receipt.AmountA || paidB != receipt.AmountB {
		return errs.New(errs.InsufficientAmount, "repay_add_liquidity: paid balances do not match receipt")
	}
	delete(p.outstandingAdd, receipt.id)
	receipt.consumed = true
	p.ReserveA += paidA
	p.ReserveB += paidB
	return nil
}

// RemoveLiquidity implements remove_liquidity (§4.3): the mirror of
// AddLiquidity, rounding towards the pool on withdrawal.
func (p *Pool) RemoveLiquidity(id position.ID, liquidity uint128.Uint128, now int64) (amountA, amountB uint64, err error) {
	if err := p.requireNotPaused(); err != nil {
		return 0, 0, err
	}
	info := p.PositionManager.Get(id)
	if info == nil {
		return 0, 0, errs.New(errs.NotOwner, "remove_liquidity: position not found")
	}
	if info.IsStaked {
		return 0, 0, errs.New(errs.PositionIsStaked, "remove_liquidity: position is staked")
	}
	if liquidity.Cmp(info.Liquidity) > 0 {
		return 0, 0, errs.New(errs.InsufficientLiquidity, "remove_liquidity: exceeds position liquidity")
	}

	p.settleRewarder(now)

	sqrtLower, sqrtUpper, err := lowerUpperSqrtPrice(info.TickLower, info.TickUpper)
	if err != nil {
		return 0, 0, err
	}
	amountA, amountB, err = clmmmath.GetAmountByLiquidity(p.TickCurrent, info.TickLower, info.TickUpper, p.SqrtPrice, sqrtLower, sqrtUpper, liquidity, false)
	if err != nil {
		return 0, 0, err
	}

	if err := p.TickManager.DecreaseLiquidity(info.TickLower, liquidity, false); err != nil {
		return 0, 0, err
	}
	if err := p.TickManager.DecreaseLiquidity(info.TickUpper, liquidity, true); err != nil {
		return 0, 0, err
	}

	if info.TickLower <= p.TickCurrent && p.TickCurrent < info.TickUpper {
		if liquidity.Cmp(p.ActiveLiquidity) > 0 {
			return 0, 0, errs.New(errs.InsufficientLiquidity, "remove_liquidity: active_liquidity underflow")
		}
		p.ActiveLiquidity = p.ActiveLiquidity.Sub(liquidity)
	}

	p.applyGrowthSnapshot(info)
	if err := info.DecreaseLiquidity(liquidity); err != nil {
		return 0, 0, err
	}

	p.ReserveA -= amountA
	p.ReserveB -= amountB

	p.emit(events.RemoveLiquidity{PoolID: p.ID, PositionID: string(id), AmountA: amountA, AmountB: amountB, Liquidity: decU128(liquidity)})
	return amountA, amountB, nil
}

// CollectFee implements collect_fee (§4.3): optionally refresh the
// growth-inside snapshot, then zero and return the owed amounts.
func (p *Pool) CollectFee(id position.ID, updateFee bool) (amountA, amountB uint64, err error) {
	info := p.PositionManager.Get(id)
	if info == nil {
		return 0, 0, errs.New(errs.NotOwner, "collect_fee: position not found")
	}
	if updateFee && !info.Liquidity.IsZero() {
		p.applyGrowthSnapshot(info)
	}
	amountA, amountB = info.ResetFee()
	p.ReserveA -= amountA
	p.ReserveB -= amountB
	p.emit(events.CollectPositionFee{PoolID: p.ID, PositionID: string(id), AmountA: amountA, AmountB: amountB})
	return amountA, amountB, nil
}

// Stake marks a position staked and folds its liquidity into
// staked_liquidity (if its range covers the current tick) and into the
// endpoint ticks' staked_liquidity_net. Rewarder/emission growth is
// settled against the pre-stake staked_liquidity first, per §4.4's
// "update_emission_growth_global runs inside every stake" rule.
func (p *Pool) Stake(id position.ID, now int64) error {
	info := p.PositionManager.Get(id)
	if info == nil {
		return errs.New(errs.NotOwner, "stake: position not found")
	}
	p.settleRewarder(now)
	p.applyGrowthSnapshot(info)

	if err := info.Stake(); err != nil {
		return err
	}
	delta := info.Liquidity.Big()
	if err := p.TickManager.UpdateFullsailStake(info.TickLower, delta, false); err != nil {
		return err
	}
	if err := p.TickManager.UpdateFullsailStake(info.TickUpper, delta, true); err != nil {
		return err
	}
	if info.TickLower <= p.TickCurrent && p.TickCurrent < info.TickUpper {
		newStaked := new(big.Int).Add(p.StakedLiquidity.Big(), delta)
		if newStaked.Cmp(p.ActiveLiquidity.Big()) > 0 {
			return errs.New(errs.InsufficientLiquidity, "stake: staked_liquidity would exceed active_liquidity")
		}
		p.StakedLiquidity = uint128.FromBig(newStaked)
	}
	p.Emission.StakedLiquidity = p.StakedLiquidity
	p.emit(events.UpdateStakedLiquidity{PoolID: p.ID, PositionID: string(id), StakedLiquidity: decU128(p.StakedLiquidity)})
	return nil
}

// Unstake clears a position's staked flag and reverses its Stake effects.
// Rewarder/emission growth is settled first so the position is credited
// for everything it earned while still staked, per §4.4's "... every
// stake, unstake, settle" rule.
func (p *Pool) Unstake(id position.ID, now int64) error {
	info := p.PositionManager.Get(id)
	if info == nil {
		return errs.New(errs.NotOwner, "unstake: position not found")
	}
	p.settleRewarder(now)
	p.applyGrowthSnapshot(info)

	if err := info.Unstake(); err != nil {
		return err
	}
	delta := info.Liquidity.Big()
	if err := p.TickManager.UpdateFullsailStake(info.TickLower, new(big.Int).Neg(delta), false); err != nil {
		return err
	}
	if err := p.TickManager.UpdateFullsailStake(info.TickUpper, new(big.Int).Neg(delta), true); err != nil {
		return err
	}
	if info.TickLower <= p.TickCurrent && p.TickCurrent < info.TickUpper {
		newStaked := new(big.Int).Sub(p.StakedLiquidity.Big(), delta)
		if newStaked.Sign() < 0 {
			return errs.New(errs.InsufficientStakedLiquidity, "unstake: staked_liquidity underflow")
		}
		p.StakedLiquidity = uint128.FromBig(newStaked)
	}
	p.Emission.StakedLiquidity = p.StakedLiquidity
	p.emit(events.UpdateStakedLiquidity{PoolID: p.ID, PositionID: string(id), StakedLiquidity: decU128(p.StakedLiquidity)})
	return nil
}
