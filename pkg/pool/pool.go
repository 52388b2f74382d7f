// Package pool implements the Pool entity: the swap engine, liquidity
// operations, flash-swap/add-liquidity hot-potato receipts, emission
// distribution wiring and the protocol control surface (pause,
// collect_protocol_fee, fee-rate updates, staked-liquidity recovery).
//
// Grounded on the teacher's CorePool (pool.go in the retrieval pack): the
// same single-object-holds-everything shape and the same swapState/step
// loop texture (the teacher's Flush persistence hook lives in
// pkg/snapshot as Store.Save, not on Pool) — generalised from
// Uniswap-v3's two-growth-accumulator model to the full CLMM state machine
// (staked liquidity, emission, gauge fees, referral splits) the
// specification describes.
package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/config"
	"github.com/fullsail-labs/clmm-core/pkg/errs"
	"github.com/fullsail-labs/clmm-core/pkg/events"
	"github.com/fullsail-labs/clmm-core/pkg/fixedpoint"
	"github.com/fullsail-labs/clmm-core/pkg/position"
	"github.com/fullsail-labs/clmm-core/pkg/rewarder"
	"github.com/fullsail-labs/clmm-core/pkg/tick"
	"github.com/fullsail-labs/clmm-core/pkg/tickmath"
)

// decU128 formats a uint128 value as a decimal.Decimal for event display;
// every quantity inside the core stays on uint128/big.Int, this is a
// display-only conversion at the event boundary.
func decU128(v uint128.Uint128) decimal.Decimal { return decimal.NewFromBigInt(v.Big(), 0) }

// decBig formats a *big.Int value (a signed delta) as a decimal.Decimal.
func decBig(v *big.Int) decimal.Decimal { return decimal.NewFromBigInt(v, 0) }

// UnstakedFeeRateInherit is the sentinel meaning "inherit from global
// config at swap time" for Pool.UnstakedFeeRate (§4.5).
const UnstakedFeeRateInherit = ^uint64(0)

// Pool is the CLMM core: price state, growth accumulators, reserves, fee
// escrows and the three collaborator sub-objects, behind a single-writer
// API. Every mutating method requires exclusive access to the Pool; there
// is no internal concurrency (§5).
type Pool struct {
	ID          string
	TokenA      common.Address
	TokenB      common.Address
	TickSpacing uint16
	Index       uint64
	URL         string

	FeeRate         uint64
	UnstakedFeeRate uint64 // UnstakedFeeRateInherit means "use config default"

	SqrtPrice       uint128.Uint128
	TickCurrent     int32
	ActiveLiquidity uint128.Uint128
	StakedLiquidity uint128.Uint128

	FeeGrowthGlobalA fixedpoint.Growth
	FeeGrowthGlobalB fixedpoint.Growth

	ReserveA uint64
	ReserveB uint64

	ProtocolFeeA uint64
	ProtocolFeeB uint64
	GaugeFeeA    uint64
	GaugeFeeB    uint64

	Paused bool

	TickManager     *tick.Manager
	PositionManager *position.Manager
	RewarderManager *rewarder.Manager
	Emission        *rewarder.Emission

	Config config.GlobalConfig
	Sink   events.Sink

	outstandingFlash map[uint64]*FlashSwapReceipt
	outstandingAdd   map[uint64]*AddLiquidityReceipt
	receiptSeq       uint64
}

// New constructs an empty, uninitialized Pool (SqrtPrice still zero;
// Initialize must be called before any swap/liquidity operation).
func New(id string, tokenA, tokenB common.Address, tickSpacing uint16, feeRate uint64, idx uint64, cfg config.GlobalConfig, sink events.Sink, now int64) *Pool {
	return &Pool{
		ID:              id,
		TokenA:          tokenA,
		TokenB:          tokenB,
		TickSpacing:     tickSpacing,
		Index:           idx,
		FeeRate:         feeRate,
		UnstakedFeeRate: UnstakedFeeRateInherit,
		ActiveLiquidity: uint128.Zero,
		StakedLiquidity: uint128.Zero,
		TickManager:     tick.NewManager(tickSpacing),
		PositionManager: position.NewManager(tickSpacing),
		RewarderManager: rewarder.NewManager(now),
		Emission:        rewarder.NewEmission(now),
		Config:          cfg,
		Sink:            sink,
		outstandingFlash: make(map[uint64]*FlashSwapReceipt),
		outstandingAdd:   make(map[uint64]*AddLiquidityReceipt),
	}
}

// Initialize sets the pool's starting sqrt-price and derives the current
// tick from it. May only be called once.
func (p *Pool) Initialize(sqrtPrice uint128.Uint128) error {
	if !p.SqrtPrice.IsZero() {
		return fmt.Errorf("pool: already initialized")
	}
	tickIdx, err := tickmath.TickAtSqrtPrice(sqrtPrice)
	if err != nil {
		return fmt.Errorf("pool: initialize: %w", err)
	}
	p.SqrtPrice = sqrtPrice
	p.TickCurrent = tickIdx
	logrus.Debugf("pool %s initialized: sqrt_price=%s tick=%d", p.ID, sqrtPrice, tickIdx)
	return nil
}

func (p *Pool) emit(e any) {
	if p.Sink != nil {
		p.Sink.Emit(e)
	}
}

func (p *Pool) requireNotPaused() error {
	if p.Paused {
		return errs.New(errs.PoolPaused, "pool is paused")
	}
	return nil
}

func (p *Pool) effectiveUnstakedFeeRate() uint64 {
	if p.UnstakedFeeRate == UnstakedFeeRateInherit {
		return p.Config.DefaultUnstakedFeeRate()
	}
	return p.UnstakedFeeRate
}

// growthGlobals bundles the pool's current accumulators for tick seeding.
func (p *Pool) growthGlobals() tick.GrowthGlobals {
	return tick.GrowthGlobals{
		FeeGrowthGlobalA:     p.FeeGrowthGlobalA,
		FeeGrowthGlobalB:     p.FeeGrowthGlobalB,
		PointsGrowthGlobal:   p.RewarderManager.PointsGrowthGlobal,
		EmissionGrowthGlobal: p.Emission.GrowthGlobal,
		RewardGrowthGlobal:   p.RewarderManager.RewardGrowthGlobal(),
	}
}

// settleRewarder advances the rewarder manager and the emission
// descriptor up to `now`. Ordering guarantee (§5): rewarder is always
// settled before any position's growth snapshot is taken.
func (p *Pool) settleRewarder(now int64) {
	p.RewarderManager.Settle(now, p.StakedLiquidity)
	distributed := p.Emission.UpdateEmissionGrowthGlobal(now)
	if distributed > 0 || p.Emission.Rollover > 0 {
		p.emit(events.UpdateEmissionGrowth{
			PoolID:       p.ID,
			Distributed:  distributed,
			GrowthGlobal: decU128(p.Emission.GrowthGlobal.Uint128()),
			Rollover:     p.Emission.Rollover,
		})
	}
}

// ---- Protocol controls (§4.5) ----

// Pause toggles the pool into the paused state. Caller is expected to have
// already checked the pool-manager role.
func (p *Pool) Pause() error {
	if p.Paused {
		return errs.New(errs.PoolAlreadyPaused, "pause: already paused")
	}
	p.Paused = true
	p.emit(events.Pause{PoolID: p.ID})
	return nil
}

// Unpause clears the paused flag. Allowed even while paused, per §9
// invariant 9 (the one mutating op always permitted).
func (p *Pool) Unpause() error {
	if !p.Paused {
		return errs.New(errs.PoolNotPaused, "unpause: not paused")
	}
	p.Paused = false
	p.emit(events.Unpause{PoolID: p.ID})
	return nil
}

// CollectProtocolFee moves protocol_fee_{a,b} out as fresh balances and
// zeroes the escrow. The source disallows this while paused and the spec
// follows the source (§4.5, §9 open question resolved in DESIGN.md).
func (p *Pool) CollectProtocolFee() (amountA, amountB uint64, err error) {
	if err := p.requireNotPaused(); err != nil {
		return 0, 0, err
	}
	amountA, amountB = p.ProtocolFeeA, p.ProtocolFeeB
	p.ProtocolFeeA, p.ProtocolFeeB = 0, 0
	p.emit(events.CollectProtocolFee{PoolID: p.ID, AmountA: amountA, AmountB: amountB})
	return amountA, amountB, nil
}

// UpdateFeeRate validates and applies a new base fee rate.
func (p *Pool) UpdateFeeRate(newRate uint64) error {
	if newRate == p.FeeRate {
		return errs.New(errs.InvalidFeeRate, "update_fee_rate: rate unchanged")
	}
	if newRate > p.Config.MaxFeeRate() {
		return errs.New(errs.InvalidFeeRate, "update_fee_rate: exceeds max_fee_rate")
	}
	old := p.FeeRate
	p.FeeRate = newRate
	p.emit(events.UpdateFeeRate{PoolID: p.ID, Old: old, New: newRate})
	return nil
}

// UpdateUnstakedLiquidityFeeRate sets a pool-specific unstaked fee rate,
// or reverts to "inherit from config" via UnstakedFeeRateInherit.
func (p *Pool) UpdateUnstakedLiquidityFeeRate(newRate uint64) error {
	if newRate != UnstakedFeeRateInherit && newRate > p.Config.MaxUnstakedFeeRate() {
		return errs.New(errs.InvalidFeeRate, "update_unstaked_liquidity_fee_rate: exceeds max_unstaked_fee_rate")
	}
	old := p.UnstakedFeeRate
	p.UnstakedFeeRate = newRate
	p.emit(events.UpdateUnstakedFeeRate{PoolID: p.ID, Old: old, New: newRate, UseDefault: newRate == UnstakedFeeRateInherit})
	return nil
}

// RestoreFullsailDistributionStakedLiquidity recomputes (L, Ls) from tick
// net sums at the current tick, asserts the recomputed active liquidity
// matches the live value, and repairs staked_liquidity from the
// recomputation — the recovery hatch for invariant 3.
func (p *Pool) RestoreFullsailDistributionStakedLiquidity() error {
	recomputedL, recomputedLsBig := p.TickManager.CalcCurrentLiquidity(p.TickCurrent)
	if recomputedL.Cmp(p.ActiveLiquidity) != 0 {
		return errs.New(errs.LiquidityMismatch, "restore_fullsail_distribution_staked_liquidity: recomputed active liquidity mismatch")
	}
	if recomputedLsBig.Sign() < 0 {
		recomputedLsBig = big.NewInt(0)
	}
	p.StakedLiquidity = uint128.FromBig(recomputedLsBig)
	p.emit(events.RestoreStakedLiquidity{
		PoolID:          p.ID,
		ActiveLiquidity: decU128(p.ActiveLiquidity),
		StakedLiquidity: decU128(p.StakedLiquidity),
	})
	return nil
}

// Clone returns a deep copy of the pool used by the read-only swap
// preview (calculate_swap_result*) so the real loop can mutate a scratch
// copy without touching live state.
func (p *Pool) Clone() *Pool {
	c := *p
	c.TickManager = p.TickManager.Clone()
	c.PositionManager = p.PositionManager.Clone()
	c.RewarderManager = p.RewarderManager.Clone()
	c.Emission = p.Emission.Clone()
	c.Sink = nil // preview never emits events
	c.outstandingFlash = make(map[uint64]*FlashSwapReceipt)
	c.outstandingAdd = make(map[uint64]*AddLiquidityReceipt)
	return &c
}
