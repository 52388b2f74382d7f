package pool

import (
	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/errs"
	"github.com/fullsail-labs/clmm-core/pkg/events"
	"github.com/fullsail-labs/clmm-core/pkg/position"
)

// AddRewarder attaches a new reward-token stream (§4.4 rewarder
// container). The rewarder list is append-only.
func (p *Pool) AddRewarder(tokenType string, now int64) (int, error) {
	p.settleRewarder(now)
	idx, err := p.RewarderManager.AddRewarder(tokenType)
	if err != nil {
		return 0, err
	}
	p.emit(events.AddRewarder{PoolID: p.ID, RewarderIndex: idx, RewardType: tokenType})
	return idx, nil
}

// UpdateEmission changes a rewarder's per-second emission rate. Growth is
// settled to now first so the old rate is never applied past this instant.
func (p *Pool) UpdateEmission(idx int, perSecond uint128.Uint128, now int64) error {
	p.settleRewarder(now)
	if err := p.RewarderManager.UpdateEmission(idx, perSecond); err != nil {
		return err
	}
	p.emit(events.UpdateEmission{PoolID: p.ID, RewarderIndex: idx, PerSecond: decU128(perSecond)})
	return nil
}

// SyncEmission overwrites the gauge-capability emission descriptor's
// (rate, reserve, period_finish), per §4.4's gauge entry point. Growth is
// accrued up to now under the old parameters first.
func (p *Pool) SyncEmission(rate uint128.Uint128, reserve uint64, periodFinish int64, now int64) error {
	if err := p.Emission.SyncEmission(now, rate, reserve, periodFinish); err != nil {
		return err
	}
	p.Emission.StakedLiquidity = p.StakedLiquidity
	p.emit(events.SyncEmission{PoolID: p.ID, Rate: decU128(rate), Reserve: reserve, PeriodFinish: periodFinish})
	return nil
}

// InitGauge marks a pool's gauge-capability emission descriptor as
// attached; emitted once, the first time a gauge is wired to the pool.
func (p *Pool) InitGauge() {
	p.emit(events.InitGauge{PoolID: p.ID})
}

// CollectReward pays out a position's owed amount for one attached
// rewarder, refreshing growth-inside first if requested.
func (p *Pool) CollectReward(id position.ID, idx int, updateBeforeCollect bool, now int64) (uint64, error) {
	info := p.PositionManager.Get(id)
	if info == nil {
		return 0, errs.New(errs.NotOwner, "collect_reward: position not found")
	}
	if idx < 0 || idx >= len(p.RewarderManager.Rewarders) {
		return 0, errs.New(errs.RewarderIndexNotFound, "collect_reward: index out of range")
	}
	if updateBeforeCollect {
		p.settleRewarder(now)
		p.applyGrowthSnapshot(info)
	}
	info.ResizeRewardSlots(len(p.RewarderManager.Rewarders), p.RewarderManager.RewardGrowthGlobal())
	amount := info.RewardsOwed[idx]
	info.RewardsOwed[idx] = 0
	p.emit(events.CollectRewardV2{PoolID: p.ID, PositionID: string(id), RewarderIndex: idx, Amount: amount})
	return amount, nil
}

// CollectGaugeFee withdraws the accumulated gauge-fee escrow.
func (p *Pool) CollectGaugeFee() (amountA, amountB uint64) {
	amountA, amountB = p.GaugeFeeA, p.GaugeFeeB
	p.GaugeFeeA, p.GaugeFeeB = 0, 0
	p.emit(events.CollectGaugeFee{PoolID: p.ID, AmountA: amountA, AmountB: amountB})
	return amountA, amountB
}
