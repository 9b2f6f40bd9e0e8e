// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logs

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakevault/logdb"
	"github.com/vechain/stakevault/thor"
)

// Event is the json form of a vault event. Seq is zero for events not yet stored.
type Event struct {
	Seq     uint64                `json:"seq,omitempty"`
	Name    string                `json:"name"`
	Account *thor.Address         `json:"account,omitempty"`
	Amount  *math.HexOrDecimal256 `json:"amount,omitempty"`
	Reward  *math.HexOrDecimal256 `json:"reward,omitempty"`
	Time    uint64                `json:"time"`
}

func ConvertEvent(e *logdb.Event) *Event {
	return &Event{
		Seq:     e.Seq,
		Name:    e.Name,
		Account: e.Account,
		Amount:  (*math.HexOrDecimal256)(e.Amount),
		Reward:  (*math.HexOrDecimal256)(e.Reward),
		Time:    e.Time,
	}
}
