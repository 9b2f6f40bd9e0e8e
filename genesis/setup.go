// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakevault/asset"
	"github.com/vechain/stakevault/clock"
	"github.com/vechain/stakevault/kv"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/thor"
	"github.com/vechain/stakevault/vault"
)

var (
	logger = log.WithContext("pkg", "genesis")

	markerKey = []byte("genesis-id")
)

// ErrMismatch is returned when the database was initialized with another genesis.
var ErrMismatch = errors.New("genesis mismatch")

// Ledger is the in-process ledger a genesis describes.
type Ledger struct {
	ID       thor.Bytes32
	Registry *asset.Registry
	Vault    *vault.Vault
}

// Setup builds the ledger over st. Allocations and vault initialization are written
// once, the genesis id is kept in meta to detect a database reused with another genesis.
func (g *Genesis) Setup(ctx context.Context, st *state.State, meta kv.Store, clk clock.Clock) (*Ledger, error) {
	id, err := g.ID()
	if err != nil {
		return nil, err
	}

	registry := asset.NewRegistry()
	for _, a := range g.Assets {
		registry.Register(asset.NewToken(st, a.Address, a.Info))
	}
	ledger := &Ledger{
		ID:       id,
		Registry: registry,
		Vault:    vault.New(g.Vault.Address, st, registry, clk),
	}

	stored, err := meta.Get(markerKey)
	if err != nil && !meta.IsNotFound(err) {
		return nil, errors.Wrap(err, "read genesis id")
	}
	if err == nil {
		if !bytes.Equal(stored, id.Bytes()) {
			return nil, errors.WithMessagef(ErrMismatch, "want %v, have %v", thor.BytesToBytes32(stored), id)
		}
		logger.Debug("genesis already applied", "id", id)
		return ledger, nil
	}

	if err := st.Exec(ctx, func(ctx context.Context) error {
		return g.apply(ctx, ledger)
	}); err != nil {
		return nil, errors.WithMessage(err, "apply genesis")
	}
	if err := meta.Put(markerKey, id.Bytes()); err != nil {
		return nil, errors.Wrap(err, "write genesis id")
	}
	logger.Info("genesis applied", "id", id, "assets", len(g.Assets))
	return ledger, nil
}

func (g *Genesis) apply(ctx context.Context, ledger *Ledger) error {
	vaultAddr := g.Vault.Address
	for _, a := range g.Assets {
		token, _ := ledger.Registry.Token(a.Address)
		for _, b := range a.Balances {
			amount := (*big.Int)(b.Amount)
			if err := token.Mint(ctx, b.Address, amount); err != nil {
				return errors.WithMessagef(err, "mint %v to %v", a.Symbol, b.Address)
			}
			if b.Approve {
				if err := token.Approve(ctx, b.Address, vaultAddr, amount); err != nil {
					return err
				}
			}
		}
	}

	if reserve := g.Vault.RewardReserve; reserve != nil && (*big.Int)(reserve).Sign() > 0 {
		token, _ := ledger.Registry.Token(g.Vault.RewardAsset)
		if err := token.Mint(ctx, vaultAddr, (*big.Int)(reserve)); err != nil {
			return errors.WithMessage(err, "mint reward reserve")
		}
	}

	return ledger.Vault.Initialize(ctx, &vault.Genesis{
		Owner:          g.Vault.Owner,
		PrincipalAsset: g.Vault.PrincipalAsset,
		RewardAsset:    g.Vault.RewardAsset,
		AprRate:        g.Vault.AprRate,
		Policy:         g.Vault.Policy,
	})
}
