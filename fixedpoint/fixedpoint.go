// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fixedpoint implements checked unsigned 256-bit arithmetic on big integers.
// Every result that does not fit 256 bits, or would go below zero, fails with
// reverts.ErrArithmeticOverflow instead of wrapping.
package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/ledger"
)

func toU256(x *big.Int) (*uint256.Int, error) {
	if x == nil {
		return new(uint256.Int), nil
	}
	if x.Sign() < 0 {
		return nil, errors.WithMessagef(reverts.ErrArithmeticOverflow, "negative operand %v", x)
	}
	v, overflow := uint256.FromBig(x)
	if overflow {
		return nil, errors.WithMessagef(reverts.ErrArithmeticOverflow, "operand %v exceeds 256 bits", x)
	}
	return v, nil
}

func operands(x, y *big.Int) (*uint256.Int, *uint256.Int, error) {
	a, err := toU256(x)
	if err != nil {
		return nil, nil, err
	}
	b, err := toU256(y)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// Add returns x + y.
func Add(x, y *big.Int) (*big.Int, error) {
	a, b, err := operands(x, y)
	if err != nil {
		return nil, err
	}
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, errors.WithMessage(reverts.ErrArithmeticOverflow, "add")
	}
	return z.ToBig(), nil
}

// Sub returns x - y, failing if y > x.
func Sub(x, y *big.Int) (*big.Int, error) {
	a, b, err := operands(x, y)
	if err != nil {
		return nil, err
	}
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, errors.WithMessage(reverts.ErrArithmeticOverflow, "sub")
	}
	return z.ToBig(), nil
}

// Mul returns x * y.
func Mul(x, y *big.Int) (*big.Int, error) {
	a, b, err := operands(x, y)
	if err != nil {
		return nil, err
	}
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, errors.WithMessage(reverts.ErrArithmeticOverflow, "mul")
	}
	return z.ToBig(), nil
}

// MulDiv returns floor(x * y / d). The intermediate product may use 512 bits,
// only the quotient has to fit 256 bits.
func MulDiv(x, y, d *big.Int) (*big.Int, error) {
	a, b, err := operands(x, y)
	if err != nil {
		return nil, err
	}
	c, err := toU256(d)
	if err != nil {
		return nil, err
	}
	if c.IsZero() {
		return nil, errors.WithMessage(reverts.ErrArithmeticOverflow, "division by zero")
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, c)
	if overflow {
		return nil, errors.WithMessage(reverts.ErrArithmeticOverflow, "muldiv")
	}
	return z.ToBig(), nil
}

// Min returns the smaller of x and y.
func Min(x, y *big.Int) *big.Int {
	if x.Cmp(y) <= 0 {
		return new(big.Int).Set(x)
	}
	return new(big.Int).Set(y)
}

// CheckRate fails with reverts.ErrRateOverflow if the rate does not fit 128 bits.
func CheckRate(rate *big.Int) error {
	if rate.Sign() < 0 || rate.Cmp(ledger.MaxRate) > 0 {
		return errors.WithMessagef(reverts.ErrRateOverflow, "rate %v", rate)
	}
	return nil
}

// Elapsed returns to - from in seconds, zero when to <= from.
func Elapsed(from, to uint64) *big.Int {
	if to <= from {
		return new(big.Int)
	}
	return new(big.Int).SetUint64(to - from)
}
