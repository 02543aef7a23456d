// Package fixedpoint holds the scaled integer helpers used for reward-per-share accrual.
//
// All values are non-negative integers. Intermediate products are computed in 256 bits and every operation
// reports ErrOverflow / ErrUnderflow instead of wrapping, so results are bit-exact across implementations.
package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
)

// Precision is the scale factor applied to reward-per-share values.
const Precision = 1_000_000_000_000

var (
	ErrOverflow     = errors.New("arithmetic overflow")
	ErrUnderflow    = errors.New("arithmetic underflow")
	ErrDivideByZero = errors.New("division by zero")
)

var precision = uint256.NewInt(Precision)

// Zero returns a fresh zero accumulator value.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// Product multiplies the factors in 256 bits.
func Product(factors ...uint64) (*uint256.Int, error) {
	z := uint256.NewInt(1)
	for _, f := range factors {
		if _, overflow := z.MulOverflow(z, uint256.NewInt(f)); overflow {
			return nil, ErrOverflow
		}
	}
	return z, nil
}

// Quo divides x by d (truncating) and returns the quotient as a uint64.
func Quo(x *uint256.Int, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivideByZero
	}
	q := new(uint256.Int).Div(x, uint256.NewInt(d))
	if !q.IsUint64() {
		return 0, ErrOverflow
	}
	return q.Uint64(), nil
}

// MulDiv returns a*b/d, truncating.
func MulDiv(a, b, d uint64) (uint64, error) {
	p, err := Product(a, b)
	if err != nil {
		return 0, err
	}
	return Quo(p, d)
}

// Scale converts reward units distributed over shares into a per-share value: reward*Precision/shares.
// Dust below one scaled unit is dropped.
func Scale(reward, shares uint64) (*uint256.Int, error) {
	if shares == 0 {
		return nil, ErrDivideByZero
	}
	z, err := Product(reward, Precision)
	if err != nil {
		return nil, err
	}
	return z.Div(z, uint256.NewInt(shares)), nil
}

// Unscale converts a per-share value back into reward units for amount shares: amount*perShare/Precision.
func Unscale(amount uint64, perShare *uint256.Int) (uint64, error) {
	z, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(amount), perShare)
	if overflow {
		return 0, ErrOverflow
	}
	z.Div(z, precision)
	if !z.IsUint64() {
		return 0, ErrOverflow
	}
	return z.Uint64(), nil
}

// Accumulate returns acc+delta as a new value.
func Accumulate(acc, delta *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(acc, delta)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

func Add(a, b uint64) (uint64, error) {
	s := a + b
	if s < a {
		return 0, ErrOverflow
	}
	return s, nil
}

func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// Parse reads a decimal accumulator value as written by Format.
func Parse(s string) (*uint256.Int, error) {
	if s == "" {
		return Zero(), nil
	}
	return uint256.FromDecimal(s)
}

// Format renders an accumulator value as a base-10 string.
func Format(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
