// Package tick implements the sparse tick grid: the Tick entity and the
// TickManager that stores initialized ticks ordered by index, crosses
// them during a swap and computes growth-inside for any range.
//
// Grounded on the teacher's TickManager calling convention
// (GetNextInitializedTick / GetTickAndInitIfAbsent, referenced from
// pool.go's HandleSwap) and on the Orca/Raydium tick-crossing shape found
// in the retrieval pack's other_examples.
package tick

import (
	"math/big"
	"sort"

	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/errs"
	"github.com/fullsail-labs/clmm-core/pkg/fixedpoint"
)

// Tick is one initialized price point in the grid.
type Tick struct {
	Index int32

	LiquidityGross uint128.Uint128
	LiquidityNet   *big.Int // signed i128

	StakedLiquidityNet *big.Int // signed i128

	FeeGrowthOutsideA fixedpoint.Growth
	FeeGrowthOutsideB fixedpoint.Growth

	RewardGrowthOutside   []fixedpoint.Growth
	PointsGrowthOutside   fixedpoint.Growth
	EmissionGrowthOutside fixedpoint.Growth
}

func newTick(index int32) *Tick {
	return &Tick{
		Index:              index,
		LiquidityGross:     uint128.Zero,
		LiquidityNet:       big.NewInt(0),
		StakedLiquidityNet: big.NewInt(0),
	}
}

// Manager is the sparse tick store: a map keyed by tick index plus a
// sorted index slice giving O(log n) ordered neighbour lookup in either
// swap direction, the container shape §9 calls out as acceptable.
type Manager struct {
	TickSpacing uint16
	ticks       map[int32]*Tick
	order       []int32 // ascending, kept in sync with ticks
}

// NewManager creates an empty TickManager for the given tick spacing.
func NewManager(tickSpacing uint16) *Manager {
	return &Manager{
		TickSpacing: tickSpacing,
		ticks:       make(map[int32]*Tick),
	}
}

// Get returns the tick at index, or nil if uninitialized.
func (m *Manager) Get(index int32) *Tick {
	return m.ticks[index]
}

func (m *Manager) insertOrdered(index int32) {
	pos := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= index })
	m.order = append(m.order, 0)
	copy(m.order[pos+1:], m.order[pos:])
	m.order[pos] = index
}

func (m *Manager) removeOrdered(index int32) {
	pos := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= index })
	if pos < len(m.order) && m.order[pos] == index {
		m.order = append(m.order[:pos], m.order[pos+1:]...)
	}
}

// getOrInit returns the tick at index, creating and seeding it if absent.
// Seeding rule (§4.1): ticks at or below the current tick seed their
// growth-outside to the current global (past growth attributed outside);
// ticks above the current tick seed to zero.
func (m *Manager) getOrInit(index, currentTick int32, rewarderCount int, global GrowthGlobals) *Tick {
	if t, ok := m.ticks[index]; ok {
		return t
	}
	t := newTick(index)
	if index <= currentTick {
		t.FeeGrowthOutsideA = global.FeeGrowthGlobalA
		t.FeeGrowthOutsideB = global.FeeGrowthGlobalB
		t.PointsGrowthOutside = global.PointsGrowthGlobal
		t.EmissionGrowthOutside = global.EmissionGrowthGlobal
		t.RewardGrowthOutside = append([]fixedpoint.Growth(nil), global.RewardGrowthGlobal...)
	}
	for len(t.RewardGrowthOutside) < rewarderCount {
		t.RewardGrowthOutside = append(t.RewardGrowthOutside, fixedpoint.ZeroGrowth)
	}
	m.ticks[index] = t
	m.insertOrdered(index)
	return t
}

// prune removes a tick once its liquidity_gross has dropped to zero.
func (m *Manager) prune(index int32) {
	delete(m.ticks, index)
	m.removeOrdered(index)
}

// GrowthGlobals bundles every accumulator a newly-initialized tick must
// seed its growth-outside from.
type GrowthGlobals struct {
	FeeGrowthGlobalA      fixedpoint.Growth
	FeeGrowthGlobalB      fixedpoint.Growth
	PointsGrowthGlobal    fixedpoint.Growth
	EmissionGrowthGlobal  fixedpoint.Growth
	RewardGrowthGlobal    []fixedpoint.Growth
}

// FirstScoreForSwap returns the next initialized tick strictly-below (a2b)
// or at-or-above (!a2b) currentTick, and whether one was found.
func (m *Manager) FirstScoreForSwap(currentTick int32, a2b bool) (int32, bool) {
	if len(m.order) == 0 {
		return 0, false
	}
	if a2b {
		pos := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= currentTick })
		if pos == 0 {
			return 0, false
		}
		return m.order[pos-1], true
	}
	pos := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= currentTick })
	if pos == len(m.order) {
		return 0, false
	}
	return m.order[pos], true
}

// CrossBySwap flips every growth-outside dimension at tick to
// global-minus-outside (wrapping), then returns the updated
// (activeLiquidity, stakedLiquidity) after applying the tick's net
// liquidity in the swap direction.
func (m *Manager) CrossBySwap(
	index int32,
	a2b bool,
	activeLiquidity, stakedLiquidity uint128.Uint128,
	global GrowthGlobals,
) (newActive, newStaked uint128.Uint128, err error) {
	t, ok := m.ticks[index]
	if !ok {
		return activeLiquidity, stakedLiquidity, errs.New(errs.NextTickNotFound, "cross_by_swap: tick not initialized")
	}

	t.FeeGrowthOutsideA = global.FeeGrowthGlobalA.SubWrap(t.FeeGrowthOutsideA)
	t.FeeGrowthOutsideB = global.FeeGrowthGlobalB.SubWrap(t.FeeGrowthOutsideB)
	t.PointsGrowthOutside = global.PointsGrowthGlobal.SubWrap(t.PointsGrowthOutside)
	t.EmissionGrowthOutside = global.EmissionGrowthGlobal.SubWrap(t.EmissionGrowthOutside)
	for i := range t.RewardGrowthOutside {
		if i < len(global.RewardGrowthGlobal) {
			t.RewardGrowthOutside[i] = global.RewardGrowthGlobal[i].SubWrap(t.RewardGrowthOutside[i])
		}
	}

	liqNet := t.LiquidityNet
	stakedNet := t.StakedLiquidityNet
	if a2b {
		liqNet = new(big.Int).Neg(liqNet)
		stakedNet = new(big.Int).Neg(stakedNet)
	}

	newActiveBI, err := applySignedDelta(activeLiquidity, liqNet)
	if err != nil {
		return activeLiquidity, stakedLiquidity, errs.New(errs.InsufficientLiquidity, "cross_by_swap: active liquidity underflow")
	}
	newStakedBI, err := applySignedDelta(stakedLiquidity, stakedNet)
	if err != nil {
		return activeLiquidity, stakedLiquidity, errs.New(errs.InsufficientStakedLiquidity, "cross_by_swap: staked liquidity underflow")
	}
	return newActiveBI, newStakedBI, nil
}

func applySignedDelta(base uint128.Uint128, delta *big.Int) (uint128.Uint128, error) {
	result := new(big.Int).Add(base.Big(), delta)
	if result.Sign() < 0 {
		return uint128.Zero, fixedpoint.ErrOverflow
	}
	return uint128.FromBig(result), nil
}

// FeeGrowthInRange returns growth-inside for fee side `a` or `b`.
func (m *Manager) FeeGrowthInRange(currentTick, tickLower, tickUpper int32, globalA, globalB fixedpoint.Growth) (insideA, insideB fixedpoint.Growth) {
	lower := m.ticks[tickLower]
	upper := m.ticks[tickUpper]
	insideA = growthInRangeGeneric(currentTick, tickLower, tickUpper, globalA, lower, upper, func(t *Tick) fixedpoint.Growth { return t.FeeGrowthOutsideA })
	insideB = growthInRangeGeneric(currentTick, tickLower, tickUpper, globalB, lower, upper, func(t *Tick) fixedpoint.Growth { return t.FeeGrowthOutsideB })
	return
}

// PointsGrowthInRange returns growth-inside for the points accumulator.
func (m *Manager) PointsGrowthInRange(currentTick, tickLower, tickUpper int32, global fixedpoint.Growth) fixedpoint.Growth {
	lower := m.ticks[tickLower]
	upper := m.ticks[tickUpper]
	return growthInRangeGeneric(currentTick, tickLower, tickUpper, global, lower, upper, func(t *Tick) fixedpoint.Growth { return t.PointsGrowthOutside })
}

// EmissionGrowthInRange returns growth-inside for the emission accumulator.
func (m *Manager) EmissionGrowthInRange(currentTick, tickLower, tickUpper int32, global fixedpoint.Growth) fixedpoint.Growth {
	lower := m.ticks[tickLower]
	upper := m.ticks[tickUpper]
	return growthInRangeGeneric(currentTick, tickLower, tickUpper, global, lower, upper, func(t *Tick) fixedpoint.Growth { return t.EmissionGrowthOutside })
}

// RewardGrowthInRange returns growth-inside for rewarder slot idx.
func (m *Manager) RewardGrowthInRange(currentTick, tickLower, tickUpper int32, idx int, global fixedpoint.Growth) fixedpoint.Growth {
	lower := m.ticks[tickLower]
	upper := m.ticks[tickUpper]
	return growthInRangeGeneric(currentTick, tickLower, tickUpper, global, lower, upper, func(t *Tick) fixedpoint.Growth {
		if idx < len(t.RewardGrowthOutside) {
			return t.RewardGrowthOutside[idx]
		}
		return fixedpoint.ZeroGrowth
	})
}

func growthInRangeGeneric(currentTick, tickLower, tickUpper int32, global fixedpoint.Growth, lower, upper *Tick, pick func(*Tick) fixedpoint.Growth) fixedpoint.Growth {
	outsideLower := fixedpoint.ZeroGrowth
	if lower != nil {
		outsideLower = pick(lower)
	}
	outsideUpper := fixedpoint.ZeroGrowth
	if upper != nil {
		outsideUpper = pick(upper)
	}

	var below fixedpoint.Growth
	if currentTick >= tickLower {
		below = outsideLower
	} else {
		below = global.SubWrap(outsideLower)
	}

	var above fixedpoint.Growth
	if currentTick < tickUpper {
		above = outsideUpper
	} else {
		above = global.SubWrap(outsideUpper)
	}

	return global.SubWrap(below).SubWrap(above)
}

// IncreaseLiquidity applies +delta to a tick's liquidity_gross and +delta
// (lower endpoint) or -delta (upper endpoint, isUpper=true) to its
// liquidity_net, initializing the tick if absent. rewarderCount sizes the
// reward-outside vector per §9's "rewarder slot stability" note.
func (m *Manager) IncreaseLiquidity(index, currentTick int32, delta uint128.Uint128, isUpper bool, rewarderCount int, global GrowthGlobals) error {
	t := m.getOrInit(index, currentTick, rewarderCount, global)
	newGross := t.LiquidityGross.Add(delta)
	if newGross.Cmp(t.LiquidityGross) < 0 {
		return errs.New(errs.LiquidityAdditionOverflow, "increase_liquidity: liquidity_gross overflow")
	}
	t.LiquidityGross = newGross
	netDelta := delta.Big()
	if isUpper {
		netDelta = new(big.Int).Neg(netDelta)
	}
	newNet, err := fixedpoint.CheckedAddI128(t.LiquidityNet, netDelta)
	if err != nil {
		return errs.New(errs.LiquidityAdditionOverflow, "increase_liquidity: liquidity_net overflow")
	}
	t.LiquidityNet = newNet
	return nil
}

// DecreaseLiquidity applies -delta to a tick's liquidity_gross and -delta
// (lower endpoint) or +delta (upper endpoint, isUpper=true) to its
// liquidity_net — the mirror of IncreaseLiquidity — pruning the tick once
// liquidity_gross reaches zero.
func (m *Manager) DecreaseLiquidity(index int32, delta uint128.Uint128, isUpper bool) error {
	t, ok := m.ticks[index]
	if !ok {
		return errs.New(errs.NextTickNotFound, "decrease_liquidity: tick not initialized")
	}
	if delta.Cmp(t.LiquidityGross) > 0 {
		return errs.New(errs.InsufficientLiquidity, "decrease_liquidity: liquidity_gross underflow")
	}
	t.LiquidityGross = t.LiquidityGross.Sub(delta)
	netDelta := new(big.Int).Neg(delta.Big())
	if isUpper {
		netDelta = new(big.Int).Neg(netDelta)
	}
	newNet, err := fixedpoint.CheckedAddI128(t.LiquidityNet, netDelta)
	if err != nil {
		return errs.New(errs.LiquidityAdditionOverflow, "decrease_liquidity: liquidity_net overflow")
	}
	t.LiquidityNet = newNet
	if t.LiquidityGross.IsZero() {
		m.prune(index)
	}
	return nil
}

// UpdateFullsailStake adjusts staked_liquidity_net by +delta on the lower
// endpoint and -delta on the upper endpoint of a staked range.
func (m *Manager) UpdateFullsailStake(index int32, delta *big.Int, isUpper bool) error {
	t, ok := m.ticks[index]
	if !ok {
		return errs.New(errs.NextTickNotFound, "update_fullsail_stake: tick not initialized")
	}
	d := delta
	if isUpper {
		d = new(big.Int).Neg(delta)
	}
	newNet, err := fixedpoint.CheckedAddI128(t.StakedLiquidityNet, d)
	if err != nil {
		return errs.New(errs.InsufficientStakedLiquidity, "update_fullsail_stake: staked_liquidity_net overflow")
	}
	t.StakedLiquidityNet = newNet
	return nil
}

// Clone returns a deep copy, used by the read-only swap preview to mutate
// a scratch copy of pool state without touching the live pool.
func (m *Manager) Clone() *Manager {
	clone := NewManager(m.TickSpacing)
	clone.order = append([]int32(nil), m.order...)
	for idx, t := range m.ticks {
		ct := *t
		ct.LiquidityNet = new(big.Int).Set(t.LiquidityNet)
		ct.StakedLiquidityNet = new(big.Int).Set(t.StakedLiquidityNet)
		ct.RewardGrowthOutside = append([]fixedpoint.Growth(nil), t.RewardGrowthOutside...)
		clone.ticks[idx] = &ct
	}
	return clone
}

// CalcCurrentLiquidity recomputes (L, Ls) from scratch by summing net
// deltas for every initialized tick at or below currentTick; used by
// restore_fullsail_distribution_staked_liquidity (§4.5).
func (m *Manager) CalcCurrentLiquidity(currentTick int32) (activeLiquidity uint128.Uint128, stakedLiquidity *big.Int) {
	l := big.NewInt(0)
	ls := big.NewInt(0)
	for _, idx := range m.order {
		if idx > currentTick {
			break
		}
		t := m.ticks[idx]
		l.Add(l, t.LiquidityNet)
		ls.Add(ls, t.StakedLiquidityNet)
	}
	if l.Sign() < 0 {
		l.SetInt64(0)
	}
	return uint128.FromBig(l), ls
}
