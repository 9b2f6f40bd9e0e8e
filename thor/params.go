// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

// Constants of the staking vault.
const (
	RateDenominator uint64 = 100000             // annual rate is expressed in 1/100000 of principal per year.
	SecondsPerYear  uint64 = 365 * 24 * 60 * 60 // a year is 365 days, leap days are not accounted.

	HarvestCooldown uint64 = 60 * 60      // (unit: second) min interval between two reward settlements.
	UnstakeLockup   uint64 = 24 * 60 * 60 // (unit: second) min interval between the last stake and an unstake.

	InitialAprRate uint64 = 1000 // 1% per year.
)
