// Package fixedpoint implements the Q64.64 numeric core the pool uses for
// sqrt-price, liquidity and growth accumulators: wrapping 128-bit growth
// arithmetic, checked 128-bit liquidity/amount arithmetic, and the
// mul_div_floor/mul_div_ceil helpers every fee and swap-step computation
// is built from.
package fixedpoint

import (
	"errors"
	"math/big"

	"lukechampine.com/uint128"
)

// Q64Shift is the fixed-point bit shift (64, i.e. a factor of 2**64) used
// throughout growth and liquidity-delta math. 2**64 itself does not fit a
// uint64, so it is only ever represented as the *big.Int Q64Big.
const Q64Shift = 64

// Q64Big is 2**64 as a *big.Int, used by the mulDiv helpers.
var Q64Big = new(big.Int).Lsh(big.NewInt(1), Q64Shift)

// two128 is 2**128, the modulus growth accumulators wrap at.
var two128 = new(big.Int).Lsh(big.NewInt(1), 128)

// ErrOverflow is returned by the checked helpers in this package when an
// amount would not fit in the target width.
var ErrOverflow = errors.New("fixedpoint: overflow")

// Growth is an unsigned 128-bit Q64.64 accumulator that wraps (mod 2^128)
// on overflow, per the spec's invariant that growth deltas are always
// representable even if the accumulator itself has wrapped many times
// over a pool's lifetime.
type Growth struct {
	v uint128.Uint128
}

// ZeroGrowth is the additive identity.
var ZeroGrowth = Growth{v: uint128.Zero}

// GrowthFromUint128 lifts a raw uint128 value into a Growth.
func GrowthFromUint128(v uint128.Uint128) Growth { return Growth{v: v} }

// Uint128 returns the raw 128-bit value.
func (g Growth) Uint128() uint128.Uint128 { return g.v }

// Big returns the value as a *big.Int in [0, 2^128).
func (g Growth) Big() *big.Int { return g.v.Big() }

// AddWrap returns g + other, reduced modulo 2^128.
func (g Growth) AddWrap(other Growth) Growth {
	sum := new(big.Int).Add(g.Big(), other.Big())
	sum.Mod(sum, two128)
	return Growth{v: uint128.FromBig(sum)}
}

// SubWrap returns g - other, reduced modulo 2^128 (i.e. wrapping
// underflow), matching the source's wrapping_sub semantics used for
// growth-outside flips and growth-inside deltas.
func (g Growth) SubWrap(other Growth) Growth {
	diff := new(big.Int).Sub(g.Big(), other.Big())
	diff.Mod(diff, two128)
	if diff.Sign() < 0 {
		diff.Add(diff, two128)
	}
	return Growth{v: uint128.FromBig(diff)}
}

// IsZero reports whether the growth value is exactly zero.
func (g Growth) IsZero() bool { return g.v.IsZero() }

// Equal reports bitwise equality.
func (g Growth) Equal(other Growth) bool { return g.v.Cmp(other.v) == 0 }

// MulDivFloorGrowth computes floor(numerator / denominator), reduced
// modulo 2^128, and returns it as a Growth (zero when denominator is
// zero); used for fee-growth-global accrual (floor rounding per §6).
func MulDivFloorGrowth(numerator *big.Int, denominator *big.Int) Growth {
	if denominator.Sign() == 0 {
		return ZeroGrowth
	}
	q := new(big.Int).Div(numerator, denominator)
	q.Mod(q, two128)
	return Growth{v: uint128.FromBig(q)}
}

// MulDivFloor computes floor(a*b/c) in arbitrary precision.
func MulDivFloor(a, b, c *big.Int) *big.Int {
	prod := new(big.Int).Mul(a, b)
	return prod.Div(prod, c)
}

// MulDivCeil computes ceil(a*b/c) in arbitrary precision.
func MulDivCeil(a, b, c *big.Int) *big.Int {
	prod := new(big.Int).Mul(a, b)
	q, r := new(big.Int).QuoRem(prod, c, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// CheckedAddU64 adds two uint64 amounts, returning ErrOverflow on wraparound.
func CheckedAddU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// CheckedSubU64 subtracts b from a, returning ErrOverflow on underflow.
func CheckedSubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// maxInt128 / minInt128 bound the signed 128-bit range staked_liquidity_net
// and liquidity_net are required to fit in (§9 "signed deltas for staked
// liquidity").
var (
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// CheckedAddI128 adds two signed 128-bit values, returning ErrOverflow if
// the sum falls outside [-2^127, 2^127).
func CheckedAddI128(a, b *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(a, b)
	if sum.Cmp(maxInt128) > 0 || sum.Cmp(minInt128) < 0 {
		return nil, ErrOverflow
	}
	return sum, nil
}

// FitsUint64 reports whether v fits in 64 bits.
func FitsUint64(v *big.Int) bool {
	return v.Sign() >= 0 && v.BitLen() <= 64
}

// BigToUint64Checked converts v to uint64, returning ErrOverflow if it
// does not fit.
func BigToUint64Checked(v *big.Int) (uint64, error) {
	if !FitsUint64(v) {
		return 0, ErrOverflow
	}
	return v.Uint64(), nil
}
