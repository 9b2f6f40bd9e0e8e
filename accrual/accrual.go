// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accrual computes linear, non-compounding reward.
package accrual

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/thor"
)

// rate denominator times seconds of a year
var divisor = new(uint256.Int).Mul(
	uint256.NewInt(thor.RateDenominator),
	uint256.NewInt(thor.SecondsPerYear),
)

// Accrue returns the reward earned by principal at annualRate over elapsed seconds:
//
//	principal * annualRate * elapsed / (RateDenominator * SecondsPerYear)
//
// Multiplication happens before the single floor division, in 256-bit arithmetic.
// ErrOverflow is returned if an intermediate product does not fit.
func Accrue(principal *big.Int, annualRate uint64, elapsed uint64) (*big.Int, error) {
	if principal == nil || principal.Sign() == 0 || annualRate == 0 || elapsed == 0 {
		return new(big.Int), nil
	}
	if principal.Sign() < 0 {
		return nil, errors.WithMessage(reverts.ErrOverflow, "negative principal")
	}
	p, overflow := uint256.FromBig(principal)
	if overflow {
		return nil, errors.WithMessage(reverts.ErrOverflow, "principal exceeds 256 bits")
	}

	r, overflow := new(uint256.Int).MulOverflow(p, uint256.NewInt(annualRate))
	if overflow {
		return nil, errors.WithMessage(reverts.ErrOverflow, "principal * rate")
	}
	if _, overflow = r.MulOverflow(r, uint256.NewInt(elapsed)); overflow {
		return nil, errors.WithMessage(reverts.ErrOverflow, "principal * rate * elapsed")
	}
	return r.Div(r, divisor).ToBig(), nil
}

// Pending returns the reward accrued since lastClaim. A clock at or before
// lastClaim yields zero.
func Pending(principal *big.Int, annualRate uint64, lastClaim, now uint64) (*big.Int, error) {
	if now <= lastClaim {
		return new(big.Int), nil
	}
	return Accrue(principal, annualRate, now-lastClaim)
}
