// Package rewarder implements the emission-distribution state machine
// (§4.4): a time-based reward stream with reserve, rate, finish time and a
// rollover bucket for intervals with zero staked liquidity, plus the
// append-only Rewarder list a pool's RewarderManager maintains for its
// (typically 3) external reward tokens.
package rewarder

import (
	"math/big"

	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/errs"
	"github.com/fullsail-labs/clmm-core/pkg/fixedpoint"
)

// Rewarder is one external reward-token stream attached to a pool.
type Rewarder struct {
	RewardTokenType   string
	EmissionPerSecond uint128.Uint128 // Q64.64 / sec
	GrowthGlobal      fixedpoint.Growth
}

// Manager owns the pool's append-only rewarder list plus the points
// accumulator, which is settled on the same cadence as rewards.
type Manager struct {
	Rewarders          []*Rewarder
	PointsGrowthGlobal fixedpoint.Growth
	LastUpdated        int64
}

// NewManager returns an empty RewarderManager.
func NewManager(now int64) *Manager {
	return &Manager{LastUpdated: now}
}

// RewarderIndex returns the slot index of tokenType, if attached.
func (m *Manager) RewarderIndex(tokenType string) (int, bool) {
	for i, r := range m.Rewarders {
		if r.RewardTokenType == tokenType {
			return i, true
		}
	}
	return 0, false
}

// AddRewarder appends a new reward-token stream. The list is append-only:
// no rewarder is ever removed, per §3's Rewarder lifetime.
func (m *Manager) AddRewarder(tokenType string) (int, error) {
	if _, ok := m.RewarderIndex(tokenType); ok {
		return 0, errs.New(errs.RewarderIndexNotFound, "add_rewarder: token type already attached")
	}
	m.Rewarders = append(m.Rewarders, &Rewarder{RewardTokenType: tokenType, EmissionPerSecond: uint128.Zero, GrowthGlobal: fixedpoint.ZeroGrowth})
	return len(m.Rewarders) - 1, nil
}

// UpdateEmission changes the per-second emission rate for an attached
// rewarder; callers must settle growth before changing the rate.
func (m *Manager) UpdateEmission(idx int, perSecond uint128.Uint128) error {
	if idx < 0 || idx >= len(m.Rewarders) {
		return errs.New(errs.RewarderIndexNotFound, "update_emission: index out of range")
	}
	m.Rewarders[idx].EmissionPerSecond = perSecond
	return nil
}

// RewardGrowthGlobal returns the current growth_global for every attached
// rewarder, in slot order — used to seed newly-initialized ticks and to
// feed tick.GrowthGlobals.
func (m *Manager) RewardGrowthGlobal() []fixedpoint.Growth {
	out := make([]fixedpoint.Growth, len(m.Rewarders))
	for i, r := range m.Rewarders {
		out[i] = r.GrowthGlobal
	}
	return out
}

// Settle advances every attached rewarder's growth_global by its constant
// per-second rate over (now - LastUpdated), using the pool's current
// staked liquidity as the accrual base (rewarder streams, unlike the
// emission descriptor, have no reserve/rollover — they simply compound
// while staked_liquidity > 0, mirroring the teacher's fee-growth-global
// update pattern generalised to a time base instead of a per-swap one).
func (m *Manager) Settle(now int64, stakedLiquidity uint128.Uint128) {
	dt := now - m.LastUpdated
	if dt <= 0 {
		m.LastUpdated = now
		return
	}
	if !stakedLiquidity.IsZero() {
		for _, r := range m.Rewarders {
			if r.EmissionPerSecond.IsZero() {
				continue
			}
			produced := new(big.Int).Mul(r.EmissionPerSecond.Big(), big.NewInt(dt))
			delta := fixedpoint.MulDivFloorGrowth(produced, stakedLiquidity.Big())
			r.GrowthGlobal = r.GrowthGlobal.AddWrap(delta)
		}
	}
	m.LastUpdated = now
}

// Emission is the (rate, reserve, period_finish, rollover, last_updated,
// staked_liquidity, growth_global) state machine described in §4.4.
type Emission struct {
	Rate            uint128.Uint128 // Q64.64 tokens/sec
	Reserve         uint64
	PeriodFinish    int64
	Rollover        uint64
	LastUpdated     int64
	StakedLiquidity uint128.Uint128
	GrowthGlobal    fixedpoint.Growth
}

// NewEmission returns a zeroed emission descriptor anchored at now.
func NewEmission(now int64) *Emission {
	return &Emission{LastUpdated: now}
}

// UpdateEmissionGrowthGlobal is the function of the same name in §4.4:
// accrues `rate` over (now - last_updated) out of `reserve`, folding the
// distributed amount into growth_global (if staked liquidity > 0) or
// rollover (if not), and returns the amount distributed this call.
func (e *Emission) UpdateEmissionGrowthGlobal(now int64) uint64 {
	dt := now - e.LastUpdated
	if dt <= 0 {
		return 0
	}
	if e.Reserve == 0 {
		e.LastUpdated = now
		return 0
	}
	produced := new(big.Int).Mul(e.Rate.Big(), big.NewInt(dt))
	produced.Rsh(produced, 64)

	reserveBI := new(big.Int).SetUint64(e.Reserve)
	distributedBI := produced
	if distributedBI.Cmp(reserveBI) > 0 {
		distributedBI = reserveBI
	}
	distributed := distributedBI.Uint64()

	e.Reserve -= distributed
	if !e.StakedLiquidity.IsZero() {
		num := new(big.Int).Lsh(distributedBI, 64)
		delta := fixedpoint.MulDivFloorGrowth(num, e.StakedLiquidity.Big())
		e.GrowthGlobal = e.GrowthGlobal.AddWrap(delta)
	} else {
		e.Rollover += distributed
	}
	e.LastUpdated = now
	return distributed
}

// Clone returns a deep copy of the emission descriptor.
func (e *Emission) Clone() *Emission {
	c := *e
	return &c
}

// Clone returns a deep copy of the rewarder manager.
func (m *Manager) Clone() *Manager {
	c := &Manager{PointsGrowthGlobal: m.PointsGrowthGlobal, LastUpdated: m.LastUpdated}
	for _, r := range m.Rewarders {
		cr := *r
		c.Rewarders = append(c.Rewarders, &cr)
	}
	return c
}

// SyncEmission overwrites (rate, reserve, period_finish) after first
// accruing up to now, per §4.4's gauge-capability entry point.
func (e *Emission) SyncEmission(now int64, rate uint128.Uint128, reserve uint64, periodFinish int64) error {
	if periodFinish < now {
		return errs.New(errs.InvalidSyncEmissionTime, "sync_emission: period_finish is in the past")
	}
	e.UpdateEmissionGrowthGlobal(now)
	e.Rate = rate
	e.Reserve = reserve
	e.PeriodFinish = periodFinish
	return nil
}
