// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/asset"
	"github.com/vechain/stakevault/clock"
	"github.com/vechain/stakevault/lvldb"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/thor"
	"github.com/vechain/stakevault/timelock"
)

const t0 uint64 = 1_700_000_000

var (
	vaultAddr     = thor.BytesToAddress([]byte("vault"))
	owner         = thor.BytesToAddress([]byte("owner"))
	alice         = thor.BytesToAddress([]byte("alice"))
	bob           = thor.BytesToAddress([]byte("bob"))
	principalAddr = thor.BytesToAddress([]byte("tokenA"))
	rewardAddr    = thor.BytesToAddress([]byte("tokenB"))
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type testEnv struct {
	state     *state.State
	clock     *clock.Mock
	registry  *asset.Registry
	principal *asset.Token
	reward    *asset.Token
	vault     *Vault
}

type envOption func(*envConfig)

type envConfig struct {
	resolver      func(asset.Resolver) asset.Resolver
	rewardReserve *big.Int
	skipInit      bool
}

func withResolver(wrap func(asset.Resolver) asset.Resolver) envOption {
	return func(c *envConfig) { c.resolver = wrap }
}

func withRewardReserve(amount *big.Int) envOption {
	return func(c *envConfig) { c.rewardReserve = amount }
}

func withoutInit() envOption {
	return func(c *envConfig) { c.skipInit = true }
}

// newTestEnv creates an initialized vault at t0. alice holds 8000 and bob 2000 of the
// principal asset, both fully approved to the vault.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	cfg := envConfig{rewardReserve: ether(1_000_000)}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	env := &testEnv{
		state:     st,
		clock:     clock.NewMock(t0),
		principal: asset.NewToken(st, principalAddr, asset.Info{Name: "TokenA", Symbol: "TKA", Decimals: 18}),
		reward:    asset.NewToken(st, rewardAddr, asset.Info{Name: "TokenB", Symbol: "TKB", Decimals: 18}),
	}
	env.registry = asset.NewRegistry(env.principal, env.reward)

	var resolver asset.Resolver = env.registry
	if cfg.resolver != nil {
		resolver = cfg.resolver(resolver)
	}
	env.vault = New(vaultAddr, st, resolver, env.clock)

	ctx := context.Background()
	if !cfg.skipInit {
		require.NoError(t, env.vault.Initialize(ctx, &Genesis{
			Owner:          owner,
			PrincipalAsset: principalAddr,
			RewardAsset:    rewardAddr,
			AprRate:        thor.InitialAprRate,
			Policy:         timelock.Default(),
		}))
	}

	require.NoError(t, env.principal.Mint(ctx, alice, ether(8000)))
	require.NoError(t, env.principal.Mint(ctx, bob, ether(2000)))
	require.NoError(t, env.principal.Approve(ctx, alice, vaultAddr, ether(8000)))
	require.NoError(t, env.principal.Approve(ctx, bob, vaultAddr, ether(2000)))
	if cfg.rewardReserve.Sign() > 0 {
		require.NoError(t, env.reward.Mint(ctx, vaultAddr, cfg.rewardReserve))
	}
	return env
}

func (env *testEnv) balance(t *testing.T, token *asset.Token, addr thor.Address) *big.Int {
	bal, err := token.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return bal
}

func (env *testEnv) userInfo(t *testing.T, addr thor.Address) *UserInfo {
	info, err := env.vault.UserInfo(context.Background(), addr)
	require.NoError(t, err)
	return info
}

type TestFunc func(t *testing.T)

// TestSequence runs vault operations in order against a mock clock.
type TestSequence struct {
	env *testEnv

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(env *testEnv) *TestSequence {
	return &TestSequence{env: env, funcs: make([]TestFunc, 0)}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

// At moves the clock to t0 + offset seconds.
func (st *TestSequence) At(offset uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.env.clock.Set(t0 + offset)
	})
}

func (st *TestSequence) Stake(addr thor.Address, amount *big.Int) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		ev, err := st.env.vault.Stake(context.Background(), addr, amount)
		if err != nil {
			t.Fatalf("failed to stake %s for %s: %v", amount, addr, err)
		}
		assert.Equal(t, addr, ev.Account)
		assert.Equal(t, 0, amount.Cmp(ev.Amount))
		t.Logf("staked %s for %s", amount, addr)
	})
}

func (st *TestSequence) Harvest(addr thor.Address, check func(reward *big.Int)) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		ev, err := st.env.vault.Harvest(context.Background(), addr)
		if err != nil {
			t.Fatalf("failed to harvest for %s: %v", addr, err)
		}
		if check != nil {
			check(ev.RewardPaid)
		}
		t.Logf("harvested %s for %s", ev.RewardPaid, addr)
	})
}

func (st *TestSequence) Unstake(addr thor.Address, amount *big.Int, check func(reward *big.Int)) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		ev, err := st.env.vault.Unstake(context.Background(), addr, amount)
		if err != nil {
			t.Fatalf("failed to unstake %s for %s: %v", amount, addr, err)
		}
		if check != nil {
			check(ev.RewardPaid)
		}
		t.Logf("unstaked %s for %s, reward %s", amount, addr, ev.RewardPaid)
	})
}

func (st *TestSequence) HarvestFails(addr thor.Address, want error) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		_, err := st.env.vault.Harvest(context.Background(), addr)
		assert.ErrorIs(t, err, want, "harvest for %s at %d", addr, st.env.clock.Now())
	})
}

func (st *TestSequence) UnstakeFails(addr thor.Address, amount *big.Int, want error) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		_, err := st.env.vault.Unstake(context.Background(), addr, amount)
		assert.ErrorIs(t, err, want, "unstake %s for %s at %d", amount, addr, st.env.clock.Now())
	})
}

func (st *TestSequence) Run(t *testing.T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, f := range st.funcs {
		f(t)
	}
}
