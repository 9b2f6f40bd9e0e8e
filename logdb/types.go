// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math/big"

	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/thor"
	"github.com/vechain/stakevault/vault"
)

// Event is a vault event as stored in the db.
type Event struct {
	Seq     uint64
	Time    uint64
	Name    string
	Account *thor.Address // nil for admin events
	Amount  *big.Int      // staked/unstaked amount, or the new rate for AprRateUpdated
	Reward  *big.Int
}

// NewEvent converts a committed vault event, returns false for any other record.
func NewEvent(ev state.Event) (*Event, bool) {
	switch data := ev.Data.(type) {
	case *vault.UserStake:
		return &Event{Time: data.Time, Name: ev.Name, Account: &data.Account, Amount: data.Amount}, true
	case *vault.UserUnstake:
		return &Event{Time: data.Time, Name: ev.Name, Account: &data.Account, Amount: data.Amount, Reward: data.RewardPaid}, true
	case *vault.UserHarvest:
		return &Event{Time: data.Time, Name: ev.Name, Account: &data.Account, Reward: data.RewardPaid}, true
	case *vault.AprRateUpdated:
		return &Event{Time: data.Time, Name: ev.Name, Amount: new(big.Int).SetUint64(data.Rate)}, true
	case *vault.AssetsUpdated:
		return &Event{Time: data.Time, Name: ev.Name}, true
	}
	return nil, false
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive time range. To below From means unbounded.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventFilter selects events. Nil fields match everything.
type EventFilter struct {
	Account *thor.Address
	Names   []string
	Range   *Range
	Options *Options
	Order   Order // default asc
}
