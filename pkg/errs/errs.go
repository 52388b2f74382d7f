// Package errs defines the closed set of error kinds the CLMM core can
// raise. Every mutating entry point is synchronous and fatal on error: the
// core never retries, the host is expected to roll back the transaction.
package errs

import "errors"

// Kind is a stable, 1-to-1 identifier for an error condition the core can
// raise. Values are never renumbered once shipped.
type Kind uint32

const (
	ZeroAmount Kind = iota + 1
	ZeroLiquidity
	ZeroOutputAmount
	InsufficientAmount
	InsufficientLiquidity
	InsufficientStakedLiquidity
	LiquidityAdditionOverflow
	AmountInOverflow
	AmountOutOverflow
	FeeAmountOverflow
	InvalidFeeRate
	InvalidRefFeeRate
	InvalidRefFeeAmount
	InvalidPriceLimit
	InvalidTickRange
	InvalidSyncEmissionTime
	InvalidGaugeCap
	PoolIdMismatch
	PartnerIdMismatch
	PartnerIdNotEmpty
	PositionPoolIdMismatch
	PositionIsStaked
	StakeAlreadyStaked
	UnstakeNotStaked
	PoolPaused
	PoolAlreadyPaused
	PoolNotPaused
	NextTickNotFound
	RewarderIndexNotFound
	GaugerIdNotFound
	LiquidityMismatch
	NotOwner
	InvalidPoolOrPartnerId
)

var names = map[Kind]string{
	ZeroAmount:                  "zero_amount",
	ZeroLiquidity:               "zero_liquidity",
	ZeroOutputAmount:            "zero_output_amount",
	InsufficientAmount:          "insufficient_amount",
	InsufficientLiquidity:       "insufficient_liquidity",
	InsufficientStakedLiquidity: "insufficient_staked_liquidity",
	LiquidityAdditionOverflow:   "liquidity_addition_overflow",
	AmountInOverflow:            "amount_in_overflow",
	AmountOutOverflow:           "amount_out_overflow",
	FeeAmountOverflow:           "fee_amount_overflow",
	InvalidFeeRate:              "invalid_fee_rate",
	InvalidRefFeeRate:           "invalid_ref_fee_rate",
	InvalidRefFeeAmount:         "invalid_ref_fee_amount",
	InvalidPriceLimit:           "invalid_price_limit",
	InvalidTickRange:            "invalid_tick_range",
	InvalidSyncEmissionTime:     "invalid_sync_emission_time",
	InvalidGaugeCap:             "invalid_gauge_cap",
	PoolIdMismatch:              "pool_id_mismatch",
	PartnerIdMismatch:           "partner_id_mismatch",
	PartnerIdNotEmpty:           "partner_id_not_empty",
	PositionPoolIdMismatch:      "position_pool_id_mismatch",
	PositionIsStaked:            "position_is_staked",
	StakeAlreadyStaked:          "stake_already_staked",
	UnstakeNotStaked:            "unstake_not_staked",
	PoolPaused:                  "pool_paused",
	PoolAlreadyPaused:           "pool_already_paused",
	PoolNotPaused:               "pool_not_paused",
	NextTickNotFound:            "next_tick_not_found",
	RewarderIndexNotFound:       "rewarder_index_not_found",
	GaugerIdNotFound:            "gauger_id_not_found",
	LiquidityMismatch:           "liquidity_mismatch",
	NotOwner:                    "not_owner",
	InvalidPoolOrPartnerId:      "invalid_pool_or_partner_id",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown_error_kind"
}

// Code returns the stable 64-bit identifier for this kind. The mapping is
// 1-to-1 and stable: Kind's own iota sequence doubles as the code.
func (k Kind) Code() uint64 { return uint64(k) }

// Error is a core error carrying a stable Kind alongside the human message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Kind.String() + ": " + e.Msg
	}
	return e.Kind.String()
}

// New builds an *Error for the given kind with an optional message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Is reports whether err, or an error it wraps, is an *Error carrying the
// given Kind (found with errors.As).
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
