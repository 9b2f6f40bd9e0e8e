// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package timelock gates reward settlement and principal withdrawal on elapsed time.
package timelock

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/thor"
)

// Policy holds the cooldown durations, in seconds.
type Policy struct {
	HarvestCooldown uint64 `yaml:"harvestCooldown" json:"harvestCooldown"`
	UnstakeLockup   uint64 `yaml:"unstakeLockup" json:"unstakeLockup"`
}

// Default returns the protocol default policy.
func Default() Policy {
	return Policy{
		HarvestCooldown: thor.HarvestCooldown,
		UnstakeLockup:   thor.UnstakeLockup,
	}
}

// Validate rejects zero durations.
func (p Policy) Validate() error {
	if p.HarvestCooldown == 0 {
		return errors.New("harvest cooldown must be positive")
	}
	if p.UnstakeLockup == 0 {
		return errors.New("unstake lockup must be positive")
	}
	return nil
}

// elapsed reports whether at least d seconds passed from since to now.
// A clock behind since never elapses.
func elapsed(since, now, d uint64) bool {
	return now >= since && now-since >= d
}

// CanHarvest checks the harvest cooldown since the last settlement.
func (p Policy) CanHarvest(lastClaimTime, now uint64) error {
	if !elapsed(lastClaimTime, now, p.HarvestCooldown) {
		return reverts.ErrInvalidClaimTime
	}
	return nil
}

// CanUnstake checks an unstake of amount against the lockup and principal.
// The lockup is checked before the principal.
func (p Policy) CanUnstake(lastStakeTime, now uint64, amount, principal *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrInvalidAmount
	}
	if !elapsed(lastStakeTime, now, p.UnstakeLockup) {
		return reverts.ErrInvalidUnstakeTime
	}
	if principal == nil || amount.Cmp(principal) > 0 {
		return reverts.ErrInsufficientPrincipal
	}
	return nil
}

// HarvestableAt returns the earliest time a harvest is allowed.
func (p Policy) HarvestableAt(lastClaimTime uint64) uint64 {
	return lastClaimTime + p.HarvestCooldown
}

// UnlockedAt returns the earliest time an unstake is allowed.
func (p Policy) UnlockedAt(lastStakeTime uint64) uint64 {
	return lastStakeTime + p.UnstakeLockup
}
