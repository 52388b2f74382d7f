// Package snapshot persists a Pool's top-level scalar state (price, tick,
// active and staked liquidity, fee growth, reserves, protocol and gauge
// escrows, pause flag) to a SQL database. The tick, position and rewarder
// trees and the emission descriptor are not persisted. Grounded on the
// teacher's CorePool.Flush: the same has-this-row-been-created-yet upsert,
// extended to the CLMM's staked liquidity and gauge escrows and backed by
// gorm.io/gorm over github.com/glebarez/sqlite instead of a caller-supplied
// driver, matching the teacher's own default stack.
package snapshot

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/pool"
)

// Row is the gorm model a Pool is flattened into. The tick/position/rewarder
// trees are not persisted here — a snapshot captures enough to resume
// swapping and accruing from the same price and growth state; the detailed
// per-tick and per-position ledgers are expected to live in their own
// tables, out of this package's scope.
type Row struct {
	gorm.Model
	PoolID      string `gorm:"uniqueIndex"`
	HasCreated  bool
	TokenA      string
	TokenB      string
	TickSpacing uint16
	FeeRate     uint64

	SqrtPrice       decimal.Decimal
	TickCurrent     int32
	ActiveLiquidity decimal.Decimal
	StakedLiquidity decimal.Decimal

	FeeGrowthGlobalA decimal.Decimal
	FeeGrowthGlobalB decimal.Decimal

	ReserveA uint64
	ReserveB uint64

	ProtocolFeeA uint64
	ProtocolFeeB uint64
	GaugeFeeA    uint64
	GaugeFeeB    uint64

	Paused bool
}

// Store wraps a gorm.DB opened against a glebarez/sqlite file, auto
// migrating the Row table on Open.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) a sqlite-backed snapshot store at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Row{}); err != nil {
		return nil, fmt.Errorf("snapshot: automigrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Save flushes p's top-level state to its row, creating it on first use and
// updating in place thereafter — mirrors Flush's has_created branch.
func (s *Store) Save(p *pool.Pool) error {
	var row Row
	err := s.db.Where("pool_id = ?", p.ID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		row = toRow(p)
		row.HasCreated = true
		if err := s.db.Create(&row).Error; err != nil {
			return fmt.Errorf("snapshot: create %s: %w", p.ID, err)
		}
		logrus.Debugf("snapshot: created row for pool %s", p.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("snapshot: lookup %s: %w", p.ID, err)
	}

	fresh := toRow(p)
	updates := map[string]any{
		"sqrt_price":         fresh.SqrtPrice,
		"tick_current":       fresh.TickCurrent,
		"active_liquidity":   fresh.ActiveLiquidity,
		"staked_liquidity":   fresh.StakedLiquidity,
		"fee_growth_global_a": fresh.FeeGrowthGlobalA,
		"fee_growth_global_b": fresh.FeeGrowthGlobalB,
		"reserve_a":          fresh.ReserveA,
		"reserve_b":          fresh.ReserveB,
		"protocol_fee_a":     fresh.ProtocolFeeA,
		"protocol_fee_b":     fresh.ProtocolFeeB,
		"gauge_fee_a":        fresh.GaugeFeeA,
		"gauge_fee_b":        fresh.GaugeFeeB,
		"paused":             fresh.Paused,
	}
	if err := s.db.Model(&row).Updates(updates).Error; err != nil {
		return fmt.Errorf("snapshot: update %s: %w", p.ID, err)
	}
	return nil
}

// Load fetches the most recent row for poolID, or (nil, nil) if none exists.
func (s *Store) Load(poolID string) (*Row, error) {
	var row Row
	err := s.db.Where("pool_id = ?", poolID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: load %s: %w", poolID, err)
	}
	return &row, nil
}

func toRow(p *pool.Pool) Row {
	return Row{
		PoolID:           p.ID,
		TokenA:           p.TokenA.Hex(),
		TokenB:           p.TokenB.Hex(),
		TickSpacing:      p.TickSpacing,
		FeeRate:          p.FeeRate,
		SqrtPrice:        decimal.NewFromBigInt(p.SqrtPrice.Big(), 0),
		TickCurrent:      p.TickCurrent,
		ActiveLiquidity:  decimal.NewFromBigInt(p.ActiveLiquidity.Big(), 0),
		StakedLiquidity:  decimal.NewFromBigInt(p.StakedLiquidity.Big(), 0),
		FeeGrowthGlobalA: decimal.NewFromBigInt(p.FeeGrowthGlobalA.Big(), 0),
		FeeGrowthGlobalB: decimal.NewFromBigInt(p.FeeGrowthGlobalB.Big(), 0),
		ReserveA:         p.ReserveA,
		ReserveB:         p.ReserveB,
		ProtocolFeeA:     p.ProtocolFeeA,
		ProtocolFeeB:     p.ProtocolFeeB,
		GaugeFeeA:        p.GaugeFeeA,
		GaugeFeeB:        p.GaugeFeeB,
		Paused:           p.Paused,
	}
}

// SqrtPriceUint128 parses a Row's stored SqrtPrice back into a uint128, for
// callers resuming a Pool from a loaded snapshot.
func (r *Row) SqrtPriceUint128() (uint128.Uint128, error) {
	bi := r.SqrtPrice.BigInt()
	if bi.Sign() < 0 {
		return uint128.Zero, fmt.Errorf("snapshot: negative sqrt_price in row")
	}
	return uint128.FromBig(bi), nil
}
