// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testvault builds an in-memory solo ledger for integration tests.
package testvault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/vechain/stakevault/asset"
	"github.com/vechain/stakevault/clock"
	"github.com/vechain/stakevault/genesis"
	"github.com/vechain/stakevault/kv"
	"github.com/vechain/stakevault/logdb"
	"github.com/vechain/stakevault/lvldb"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/thor"
)

// LaunchTime is the initial time of the mock clock.
const LaunchTime uint64 = 1_700_000_000

// Vault is a devnet ledger over memory databases.
type Vault struct {
	db      *lvldb.LevelDB
	state   *state.State
	clock   *clock.Mock
	genesis *genesis.Genesis
	ledger  *genesis.Ledger
	logDB   *logdb.LogDB
}

// New creates the devnet ledger at LaunchTime.
func New() (*Vault, error) {
	return NewWithGenesis(genesis.NewDevnet())
}

func NewWithGenesis(gen *genesis.Genesis) (*Vault, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	st := state.New(kv.Bucket("s").NewStore(db))
	clk := clock.NewMock(LaunchTime)

	ledger, err := gen.Setup(context.Background(), st, kv.Bucket("m").NewStore(db), clk)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to setup genesis: %w", err)
	}
	logDB, err := logdb.NewMem()
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Vault{
		db:      db,
		state:   st,
		clock:   clk,
		genesis: gen,
		ledger:  ledger,
		logDB:   logDB,
	}, nil
}

func (v *Vault) State() *state.State            { return v.state }
func (v *Vault) Clock() *clock.Mock             { return v.clock }
func (v *Vault) Genesis() *genesis.Genesis      { return v.genesis }
func (v *Vault) Ledger() *genesis.Ledger        { return v.ledger }
func (v *Vault) LogDB() *logdb.LogDB            { return v.logDB }
func (v *Vault) Accounts() []genesis.DevAccount { return genesis.DevAccounts() }
func (v *Vault) Owner() genesis.DevAccount      { return genesis.DevAccounts()[0] }
func (v *Vault) Registry() *asset.Registry      { return v.ledger.Registry }
func (v *Vault) Principal() *asset.Token        { return v.token(v.genesis.Vault.PrincipalAsset) }
func (v *Vault) Reward() *asset.Token           { return v.token(v.genesis.Vault.RewardAsset) }

func (v *Vault) Close() {
	v.logDB.Close()
	v.state.Close()
	v.db.Close()
}

func (v *Vault) token(addr thor.Address) *asset.Token {
	t, _ := v.ledger.Registry.Token(addr)
	return t
}

// Ether returns n whole tokens of 18 decimals.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}
