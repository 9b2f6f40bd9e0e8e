// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"math/big"
	mathrand "math/rand/v2"
)

func RandIntN(n int) int {
	return mathrand.N(n) //#nosec G404
}

// RandAmount returns a random amount in [1, max] whole tokens of 18 decimals.
func RandAmount(max int64) *big.Int {
	n := big.NewInt(mathrand.Int64N(max) + 1) //#nosec G404
	return n.Mul(n, big.NewInt(1e18))
}
