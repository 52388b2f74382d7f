// Package config describes the external, protocol-owned configuration
// object the pool core reads but never owns: fee-rate ceilings, the
// protocol fee split, role checks and the package-version gate.
package config

// GlobalConfig is the collaborator interface the core consumes for
// protocol-wide parameters. The concrete object (roles, on-chain storage)
// lives outside this module; only the shape it must expose is specified
// here.
type GlobalConfig interface {
	// MaxFeeRate is the ceiling update_fee_rate enforces.
	MaxFeeRate() uint64
	// MaxUnstakedFeeRate is the ceiling update_unstaked_liquidity_fee_rate enforces.
	MaxUnstakedFeeRate() uint64
	// FeeRateDenom is the denominator fee rates, protocol splits and
	// referral splits are expressed against (FEE_RATE_DENOM).
	FeeRateDenom() uint64
	// UnstakedFeeDenom is the denominator the unstaked-liquidity gauge
	// split is expressed against (UNSTAKED_FEE_DENOM).
	UnstakedFeeDenom() uint64
	// ProtocolFeeRate is the current protocol-wide fee split rate.
	ProtocolFeeRate() uint64
	// DefaultUnstakedFeeRate is used when a pool's own unstaked fee rate
	// is set to the "inherit" sentinel.
	DefaultUnstakedFeeRate() uint64
	// PackageVersion gates calls against a protocol upgrade boundary.
	PackageVersion() uint64
	// CheckPoolManagerRole reports whether caller holds the pool-manager role.
	CheckPoolManagerRole(caller string) bool
	// CheckProtocolFeeClaimRole reports whether caller may collect protocol fees.
	CheckProtocolFeeClaimRole(caller string) bool
}

// InMemory is a reference GlobalConfig for tests and local simulation. It
// is not meant to be the production config object — the real one is a
// protocol-owned collaborator out of this module's scope.
type InMemory struct {
	MaxFeeRateVal            uint64
	MaxUnstakedFeeRateVal    uint64
	FeeRateDenomVal          uint64
	UnstakedFeeDenomVal      uint64
	ProtocolFeeRateVal       uint64
	DefaultUnstakedFeeRateVal uint64
	PackageVersionVal        uint64
	PoolManagers             map[string]bool
	ProtocolFeeClaimers      map[string]bool
}

// NewDefault returns an InMemory config with the conventional defaults
// used across the retrieval pack's Uniswap-v3-family examples: a
// 1_000_000 fee-rate denominator, a 20% protocol fee split and a 10%
// default unstaked fee rate.
func NewDefault() *InMemory {
	return &InMemory{
		MaxFeeRateVal:             200_000,
		MaxUnstakedFeeRateVal:     1_000_000,
		FeeRateDenomVal:           1_000_000,
		UnstakedFeeDenomVal:       1_000_000,
		ProtocolFeeRateVal:        200_000,
		DefaultUnstakedFeeRateVal: 100_000,
		PackageVersionVal:         1,
		PoolManagers:              map[string]bool{},
		ProtocolFeeClaimers:       map[string]bool{},
	}
}

func (c *InMemory) MaxFeeRate() uint64            { return c.MaxFeeRateVal }
func (c *InMemory) MaxUnstakedFeeRate() uint64     { return c.MaxUnstakedFeeRateVal }
func (c *InMemory) FeeRateDenom() uint64           { return c.FeeRateDenomVal }
func (c *InMemory) UnstakedFeeDenom() uint64       { return c.UnstakedFeeDenomVal }
func (c *InMemory) ProtocolFeeRate() uint64        { return c.ProtocolFeeRateVal }
func (c *InMemory) DefaultUnstakedFeeRate() uint64 { return c.DefaultUnstakedFeeRateVal }
func (c *InMemory) PackageVersion() uint64         { return c.PackageVersionVal }

func (c *InMemory) CheckPoolManagerRole(caller string) bool {
	if c.PoolManagers == nil {
		return false
	}
	return c.PoolManagers[caller]
}

func (c *InMemory) CheckProtocolFeeClaimRole(caller string) bool {
	if c.ProtocolFeeClaimers == nil {
		return false
	}
	return c.ProtocolFeeClaimers[caller]
}
