// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakevault/api/auth"
	"github.com/vechain/stakevault/thor"
	"github.com/vechain/stakevault/vault"
)

type Summary struct {
	Address         thor.Address          `json:"address"`
	Owner           thor.Address          `json:"owner"`
	PrincipalAsset  thor.Address          `json:"principalAsset"`
	RewardAsset     thor.Address          `json:"rewardAsset"`
	AprRate         uint64                `json:"aprRate"`
	HarvestCooldown uint64                `json:"harvestCooldown"`
	UnstakeLockup   uint64                `json:"unstakeLockup"`
	TotalStaked     *math.HexOrDecimal256 `json:"totalStaked"`
}

type Position struct {
	Principal     *math.HexOrDecimal256 `json:"principal"`
	PendingReward *math.HexOrDecimal256 `json:"pendingReward"`
	LastStakeTime uint64                `json:"lastStakeTime"`
	LastClaimTime uint64                `json:"lastClaimTime"`
	HarvestableAt uint64                `json:"harvestableAt"`
	UnlockedAt    uint64                `json:"unlockedAt"`
}

// AmountRequest is the body of stake and unstake calls.
type AmountRequest struct {
	auth.Request
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type HarvestRequest struct {
	auth.Request
}

type AprRateRequest struct {
	auth.Request
	Rate uint64 `json:"rate"`
}

type AssetsRequest struct {
	auth.Request
	PrincipalAsset thor.Address `json:"principalAsset"`
	RewardAsset    thor.Address `json:"rewardAsset"`
}

// Receipt describes the outcome of a ledger operation.
type Receipt struct {
	Event      string                `json:"event"`
	Account    *thor.Address         `json:"account,omitempty"`
	Amount     *math.HexOrDecimal256 `json:"amount,omitempty"`
	RewardPaid *math.HexOrDecimal256 `json:"rewardPaid,omitempty"`
	Rate       *uint64               `json:"rate,omitempty"`
	Time       uint64                `json:"time"`
}

func hex256(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		return nil
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

func convertStake(ev *vault.UserStake) *Receipt {
	return &Receipt{Event: vault.UserStakeEvent, Account: &ev.Account, Amount: hex256(ev.Amount), Time: ev.Time}
}

func convertUnstake(ev *vault.UserUnstake) *Receipt {
	return &Receipt{
		Event:      vault.UserUnstakeEvent,
		Account:    &ev.Account,
		Amount:     hex256(ev.Amount),
		RewardPaid: hex256(ev.RewardPaid),
		Time:       ev.Time,
	}
}

func convertHarvest(ev *vault.UserHarvest) *Receipt {
	return &Receipt{Event: vault.UserHarvestEvent, Account: &ev.Account, RewardPaid: hex256(ev.RewardPaid), Time: ev.Time}
}
