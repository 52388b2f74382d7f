// Package events defines the structured event payloads the pool core
// emits for every mutating operation, and the Sink interface implementations
// publish them through. Ordering of Sink.Emit calls always matches
// operation ordering, per §6.
//
// Display-only 128-bit fields (liquidity, growth accumulators, emission
// rates) are carried as decimal.Decimal, the teacher's own numeric type
// for anything leaving the core to a human or a UI — everything inside
// the core itself stays on uint128/big.Int so wrapping and overflow
// semantics are exact; decimal only formats the result for display.
package events

import "github.com/shopspring/decimal"

// Sink receives events in emission order. Implementations may fan out to
// a log, a message bus, or (in tests) a slice recorder.
type Sink interface {
	Emit(event any)
}

// SliceSink is a Sink that appends every event to an in-memory slice, used
// by tests and local simulation.
type SliceSink struct {
	Events []any
}

func (s *SliceSink) Emit(event any) {
	s.Events = append(s.Events, event)
}

// OpenPosition is emitted by open_position.
type OpenPosition struct {
	PoolID    string
	PositionID string
	TickLower int32
	TickUpper int32
}

// ClosePosition is emitted by close_position.
type ClosePosition struct {
	PoolID     string
	PositionID string
}

// AddLiquidity is emitted by add_liquidity{,_fix_coin}.
type AddLiquidity struct {
	PoolID     string
	PositionID string
	AmountA    uint64
	AmountB    uint64
	Liquidity  decimal.Decimal
}

// RemoveLiquidity is emitted by remove_liquidity.
type RemoveLiquidity struct {
	PoolID     string
	PositionID string
	AmountA    uint64
	AmountB    uint64
	Liquidity  decimal.Decimal
}

// Swap is emitted by swap_in_pool / flash_swap.
type Swap struct {
	PoolID         string
	A2B            bool
	ByAmountIn     bool
	AmountIn       uint64
	AmountOut      uint64
	FeeAmount      uint64
	ProtocolFee    uint64
	RefFee         uint64
	GaugeFee       uint64
	Steps          int
	SqrtPriceAfter decimal.Decimal
	TickAfter      int32
}

// CollectProtocolFee is emitted by collect_protocol_fee.
type CollectProtocolFee struct {
	PoolID  string
	AmountA uint64
	AmountB uint64
}

// CollectPositionFee is emitted by collect_fee.
type CollectPositionFee struct {
	PoolID     string
	PositionID string
	AmountA    uint64
	AmountB    uint64
}

// CollectRewardV1 is emitted for the legacy single-reward collect path.
type CollectRewardV1 struct {
	PoolID     string
	PositionID string
	RewardType string
	Amount     uint64
}

// CollectRewardV2 is emitted for the indexed multi-reward collect path.
type CollectRewardV2 struct {
	PoolID         string
	PositionID     string
	RewarderIndex  int
	Amount         uint64
}

// CollectGaugeFee is emitted by the gauge-fee withdrawal path.
type CollectGaugeFee struct {
	PoolID  string
	AmountA uint64
	AmountB uint64
}

// UpdateFeeRate is emitted by update_fee_rate.
type UpdateFeeRate struct {
	PoolID string
	Old    uint64
	New    uint64
}

// UpdateUnstakedFeeRate is emitted by update_unstaked_liquidity_fee_rate.
type UpdateUnstakedFeeRate struct {
	PoolID      string
	Old         uint64
	New         uint64
	UseDefault  bool
}

// UpdateURL is emitted when the pool's display URL changes.
type UpdateURL struct {
	PoolID string
	Old    string
	New    string
}

// Pause is emitted by pause.
type Pause struct{ PoolID string }

// Unpause is emitted by unpause.
type Unpause struct{ PoolID string }

// UpdateFeeGrowth is emitted on every fee-growth-global accrual step.
type UpdateFeeGrowth struct {
	PoolID            string
	FeeGrowthGlobalA  decimal.Decimal
	FeeGrowthGlobalB  decimal.Decimal
}

// UpdateEmissionGrowth is emitted on every update_emission_growth_global call.
type UpdateEmissionGrowth struct {
	PoolID       string
	Distributed  uint64
	GrowthGlobal decimal.Decimal
	Rollover     uint64
}

// UpdateStakedLiquidity is emitted by stake/unstake.
type UpdateStakedLiquidity struct {
	PoolID          string
	PositionID      string
	StakedLiquidity decimal.Decimal
}

// RestoreStakedLiquidity is emitted by
// restore_fullsail_distribution_staked_liquidity.
type RestoreStakedLiquidity struct {
	PoolID          string
	ActiveLiquidity decimal.Decimal
	StakedLiquidity decimal.Decimal
}

// AddRewarder is emitted by rewarder-container add_rewarder.
type AddRewarder struct {
	PoolID        string
	RewarderIndex int
	RewardType    string
}

// UpdateEmission is emitted by rewarder-container update_emission.
type UpdateEmission struct {
	PoolID        string
	RewarderIndex int
	PerSecond     decimal.Decimal
}

// InitGauge is emitted when a pool first attaches its gauge-capability
// emission descriptor.
type InitGauge struct {
	PoolID string
}

// SyncEmission is emitted by sync_emission.
type SyncEmission struct {
	PoolID       string
	Rate         decimal.Decimal
	Reserve      uint64
	PeriodFinish int64
}
