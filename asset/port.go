// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"context"
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/stakevault/thor"
)

// Port moves units of one asset on behalf of the sender it is bound to.
type Port interface {
	// TransferFrom moves amount from an account that approved the sender.
	TransferFrom(ctx context.Context, from, to thor.Address, amount *big.Int) error
	// Transfer moves amount out of the sender's own balance.
	Transfer(ctx context.Context, to thor.Address, amount *big.Int) error
	BalanceOf(ctx context.Context, account thor.Address) (*big.Int, error)
	// Approve sets the allowance of spender over the sender's balance.
	Approve(ctx context.Context, spender thor.Address, amount *big.Int) error
}

// Resolver maps asset identifiers to ports.
type Resolver interface {
	Port(asset, sender thor.Address) (Port, error)
}

// Registry is a Resolver over in-process tokens.
type Registry struct {
	lock   sync.RWMutex
	tokens map[thor.Address]*Token
}

func NewRegistry(tokens ...*Token) *Registry {
	r := &Registry{tokens: make(map[thor.Address]*Token)}
	for _, t := range tokens {
		r.Register(t)
	}
	return r
}

// Register adds or replaces the token at its address.
func (r *Registry) Register(t *Token) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.tokens[t.Address()] = t
}

// Token returns the token registered at addr.
func (r *Registry) Token(addr thor.Address) (*Token, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	t, ok := r.tokens[addr]
	return t, ok
}

// Tokens returns all registered tokens.
func (r *Registry) Tokens() []*Token {
	r.lock.RLock()
	defer r.lock.RUnlock()
	list := make([]*Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		list = append(list, t)
	}
	return list
}

func (r *Registry) Port(asset, sender thor.Address) (Port, error) {
	t, ok := r.Token(asset)
	if !ok {
		return nil, errors.Errorf("unknown asset %v", asset)
	}
	return t.Bind(sender), nil
}
