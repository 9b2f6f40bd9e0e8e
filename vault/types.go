// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/vechain/stakevault/thor"
	"github.com/vechain/stakevault/timelock"
)

// Position is the stake of one account. It is never deleted.
type Position struct {
	Principal     *big.Int
	LastStakeTime uint64
	LastClaimTime uint64
}

func (p *Position) principal() *big.Int {
	if p.Principal == nil {
		return new(big.Int)
	}
	return p.Principal
}

// Config is the owner managed configuration.
type Config struct {
	Owner          thor.Address
	PrincipalAsset thor.Address
	RewardAsset    thor.Address
	AprRate        uint64
}

// Initialized returns whether genesis has been applied.
func (c *Config) Initialized() bool {
	return !c.Owner.IsZero()
}

// UserInfo is the read-only projection of a position at a point in time.
type UserInfo struct {
	Principal     *big.Int
	PendingReward *big.Int
	LastStakeTime uint64
	LastClaimTime uint64
}

// Genesis initializes a vault.
type Genesis struct {
	Owner          thor.Address    `yaml:"owner"`
	PrincipalAsset thor.Address    `yaml:"principalAsset"`
	RewardAsset    thor.Address    `yaml:"rewardAsset"`
	AprRate        uint64          `yaml:"aprRate"`
	Policy         timelock.Policy `yaml:"policy"`
}

// Event names.
const (
	UserStakeEvent      = "UserStake"
	UserUnstakeEvent    = "UserUnstake"
	UserHarvestEvent    = "UserHarvest"
	AprRateUpdatedEvent = "AprRateUpdated"
	AssetsUpdatedEvent  = "AssetsUpdated"
)

type UserStake struct {
	Account thor.Address
	Amount  *big.Int
	Time    uint64
}

type UserUnstake struct {
	Account    thor.Address
	Amount     *big.Int
	RewardPaid *big.Int
	Time       uint64
}

type UserHarvest struct {
	Account    thor.Address
	RewardPaid *big.Int
	Time       uint64
}

type AprRateUpdated struct {
	Rate uint64
	Time uint64
}

type AssetsUpdated struct {
	PrincipalAsset thor.Address
	RewardAsset    thor.Address
	Time           uint64
}
