// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/thor"
)

var (
	logger = log.WithContext("pkg", "asset")

	balancesSlot   = thor.BytesToBytes32([]byte("balances"))
	allowancesSlot = thor.BytesToBytes32([]byte("allowances"))
	supplySlot     = thor.BytesToBytes32([]byte("total-supply"))
)

// Event names.
const (
	TransferEventName = "Transfer"
	ApprovalEventName = "Approval"
)

type TransferEvent struct {
	From   thor.Address
	To     thor.Address
	Amount *big.Int
}

type ApprovalEvent struct {
	Owner   thor.Address
	Spender thor.Address
	Amount  *big.Int
}

// Info describes a token.
type Info struct {
	Name     string `yaml:"name" json:"name"`
	Symbol   string `yaml:"symbol" json:"symbol"`
	Decimals uint8  `yaml:"decimals" json:"decimals"`
}

// Token is a fungible token living on the shared state.
type Token struct {
	addr  thor.Address
	info  Info
	state *state.State

	balances   *state.Mapping[thor.Address, *big.Int]
	allowances *state.Mapping[thor.Bytes32, *big.Int]
	supply     *state.Value[*big.Int]
}

func NewToken(st *state.State, addr thor.Address, info Info) *Token {
	return &Token{
		addr:       addr,
		info:       info,
		state:      st,
		balances:   state.NewMapping[thor.Address, *big.Int](st, addr, balancesSlot),
		allowances: state.NewMapping[thor.Bytes32, *big.Int](st, addr, allowancesSlot),
		supply:     state.NewValue[*big.Int](st, addr, supplySlot),
	}
}

func allowanceKey(owner, spender thor.Address) thor.Bytes32 {
	return thor.Blake2b(owner.Bytes(), spender.Bytes())
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return reverts.ErrInvalidAmount
	}
	return nil
}

func (t *Token) Address() thor.Address { return t.addr }
func (t *Token) Info() Info            { return t.info }

func (t *Token) BalanceOf(ctx context.Context, account thor.Address) (*big.Int, error) {
	return t.balances.Get(ctx, account)
}

func (t *Token) Allowance(ctx context.Context, owner, spender thor.Address) (*big.Int, error) {
	return t.allowances.Get(ctx, allowanceKey(owner, spender))
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.supply.Get(ctx)
}

// Mint creates amount new units credited to to.
func (t *Token) Mint(ctx context.Context, to thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to.IsZero() {
		return reverts.ErrZeroAddress
	}
	return t.state.Exec(ctx, func(ctx context.Context) error {
		supply, err := t.supply.Get(ctx)
		if err != nil {
			return err
		}
		if err := t.supply.Set(ctx, new(big.Int).Add(supply, amount)); err != nil {
			return err
		}
		if err := t.credit(ctx, to, amount); err != nil {
			return err
		}
		logger.Debug("minted", "token", t.info.Symbol, "to", to, "amount", amount)
		return t.state.Emit(ctx, t.addr, TransferEventName, &TransferEvent{To: to, Amount: amount})
	})
}

// Transfer moves amount from from to to.
func (t *Token) Transfer(ctx context.Context, from, to thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to.IsZero() {
		return reverts.ErrZeroAddress
	}
	return t.state.Exec(ctx, func(ctx context.Context) error {
		if err := t.debit(ctx, from, amount); err != nil {
			return err
		}
		if err := t.credit(ctx, to, amount); err != nil {
			return err
		}
		metricTransferCount().AddWithLabel(1, map[string]string{"token": t.info.Symbol})
		return t.state.Emit(ctx, t.addr, TransferEventName, &TransferEvent{From: from, To: to, Amount: amount})
	})
}

// TransferFrom moves amount from from to to, spending the allowance of spender.
func (t *Token) TransferFrom(ctx context.Context, spender, from, to thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return t.state.Exec(ctx, func(ctx context.Context) error {
		key := allowanceKey(from, spender)
		allowance, err := t.allowances.Get(ctx, key)
		if err != nil {
			return err
		}
		if allowance.Cmp(amount) < 0 {
			return errors.WithMessagef(reverts.ErrInsufficientAllowance, "allowance %v, required %v", allowance, amount)
		}
		if err := t.allowances.Set(ctx, key, new(big.Int).Sub(allowance, amount)); err != nil {
			return err
		}
		return t.Transfer(ctx, from, to, amount)
	})
}

// Approve sets the allowance of spender over the owner's balance.
func (t *Token) Approve(ctx context.Context, owner, spender thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if spender.IsZero() {
		return reverts.ErrZeroAddress
	}
	return t.state.Exec(ctx, func(ctx context.Context) error {
		if err := t.allowances.Set(ctx, allowanceKey(owner, spender), amount); err != nil {
			return err
		}
		return t.state.Emit(ctx, t.addr, ApprovalEventName, &ApprovalEvent{Owner: owner, Spender: spender, Amount: amount})
	})
}

func (t *Token) credit(ctx context.Context, account thor.Address, amount *big.Int) error {
	bal, err := t.balances.Get(ctx, account)
	if err != nil {
		return err
	}
	return t.balances.Set(ctx, account, new(big.Int).Add(bal, amount))
}

func (t *Token) debit(ctx context.Context, account thor.Address, amount *big.Int) error {
	bal, err := t.balances.Get(ctx, account)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return errors.WithMessagef(reverts.ErrInsufficientBalance, "balance %v, required %v", bal, amount)
	}
	return t.balances.Set(ctx, account, new(big.Int).Sub(bal, amount))
}

// Bind returns a port acting as sender.
func (t *Token) Bind(sender thor.Address) Port {
	return &boundPort{t, sender}
}

type boundPort struct {
	token  *Token
	sender thor.Address
}

func (p *boundPort) TransferFrom(ctx context.Context, from, to thor.Address, amount *big.Int) error {
	return p.token.TransferFrom(ctx, p.sender, from, to, amount)
}

func (p *boundPort) Transfer(ctx context.Context, to thor.Address, amount *big.Int) error {
	return p.token.Transfer(ctx, p.sender, to, amount)
}

func (p *boundPort) BalanceOf(ctx context.Context, account thor.Address) (*big.Int, error) {
	return p.token.BalanceOf(ctx, account)
}

func (p *boundPort) Approve(ctx context.Context, spender thor.Address, amount *big.Int) error {
	return p.token.Approve(ctx, p.sender, spender, amount)
}
