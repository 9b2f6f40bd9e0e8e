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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/asset"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/thor"
)

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return v
}

func TestStakeHarvestUnstakeScenario(t *testing.T) {
	env := newTestEnv(t)

	var aliceReward, bobReward *big.Int
	NewSequence(env).
		Stake(alice, ether(3000)).
		Stake(bob, ether(1000)).
		AddFunc(func(t *testing.T) {
			info := env.userInfo(t, alice)
			assert.Equal(t, 0, ether(3000).Cmp(info.Principal))
			assert.Equal(t, 0, info.PendingReward.Sign())
			assert.Equal(t, t0, info.LastStakeTime)
			assert.Equal(t, info.LastStakeTime, info.LastClaimTime)
		}).
		HarvestFails(alice, reverts.ErrInvalidClaimTime).
		HarvestFails(bob, reverts.ErrInvalidClaimTime).
		At(1800).
		HarvestFails(alice, reverts.ErrInvalidClaimTime).
		HarvestFails(bob, reverts.ErrInvalidClaimTime).
		At(3600).
		Harvest(alice, func(r *big.Int) { aliceReward = r }).
		Harvest(bob, func(r *big.Int) { bobReward = r }).
		AddFunc(func(t *testing.T) {
			assert.Equal(t, wei("3424657534246575"), aliceReward)
			assert.Equal(t, wei("1141552511415525"), bobReward)
			assert.Equal(t, 0, new(big.Int).Mul(bobReward, big.NewInt(3)).Cmp(aliceReward))
			assert.Equal(t, aliceReward, env.balance(t, env.reward, alice))
		}).
		At(5400).
		HarvestFails(alice, reverts.ErrInvalidClaimTime).
		At(7200).
		Harvest(alice, nil).
		Harvest(bob, nil).
		UnstakeFails(alice, ether(1500), reverts.ErrInvalidUnstakeTime).
		At(7200+21*3600).
		UnstakeFails(alice, ether(1500), reverts.ErrInvalidUnstakeTime).
		UnstakeFails(bob, ether(1500), reverts.ErrInvalidUnstakeTime).
		At(7200+24*3600).
		Unstake(alice, ether(1500), func(r *big.Int) {
			assert.Equal(t, wei("82191780821917808"), r)
		}).
		AddFunc(func(t *testing.T) {
			assert.Equal(t, 0, ether(6500).Cmp(env.balance(t, env.principal, alice)))
			info := env.userInfo(t, alice)
			assert.Equal(t, 0, ether(1500).Cmp(info.Principal))
			assert.Equal(t, 0, info.PendingReward.Sign())
		}).
		UnstakeFails(bob, ether(5000), reverts.ErrInsufficientPrincipal).
		Unstake(bob, ether(1000), func(r *big.Int) {
			assert.Equal(t, wei("27397260273972602"), r)
		}).
		AddFunc(func(t *testing.T) {
			assert.Equal(t, 0, ether(2000).Cmp(env.balance(t, env.principal, bob)))
			info := env.userInfo(t, bob)
			assert.Equal(t, 0, info.Principal.Sign())
			assert.Equal(t, t0, info.LastStakeTime)
			assert.Equal(t, t0+7200+24*3600, info.LastClaimTime)
		}).
		// a top-up re-locks the whole position
		Stake(alice, ether(1500)).
		UnstakeFails(alice, ether(1500), reverts.ErrInvalidUnstakeTime).
		At(7200+48*3600).
		Unstake(alice, ether(3000), func(r *big.Int) {
			assert.Equal(t, wei("82191780821917808"), r)
		}).
		AddFunc(func(t *testing.T) {
			assert.Equal(t, 0, ether(8000).Cmp(env.balance(t, env.principal, alice)))
			total, err := env.vault.TotalStaked(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, total.Sign())
			assert.Equal(t, 0, env.balance(t, env.principal, vaultAddr).Sign())
		}).
		Run(t)
}

func TestStakeInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.vault.Stake(ctx, alice, big.NewInt(0))
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)
	_, err = env.vault.Stake(ctx, alice, big.NewInt(-1))
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)
	_, err = env.vault.Stake(ctx, alice, nil)
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)
	_, err = env.vault.Stake(ctx, thor.Address{}, big.NewInt(1))
	assert.ErrorIs(t, err, reverts.ErrZeroAddress)

	env.clock.Add(86400)
	_, err = env.vault.Unstake(ctx, alice, big.NewInt(0))
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)
}

func TestPartialUnstakeKeepsStakeTime(t *testing.T) {
	env := newTestEnv(t)

	NewSequence(env).
		Stake(alice, ether(1000)).
		At(86400).
		Unstake(alice, ether(400), nil).
		At(86400+1).
		// lockup is still measured from the original stake
		Unstake(alice, ether(100), nil).
		AddFunc(func(t *testing.T) {
			info := env.userInfo(t, alice)
			assert.Equal(t, t0, info.LastStakeTime)
			assert.Equal(t, t0+86400+1, info.LastClaimTime)
			assert.Equal(t, 0, ether(500).Cmp(info.Principal))
		}).
		Run(t)
}

func TestTopUpKeepsClaimTime(t *testing.T) {
	env := newTestEnv(t)

	NewSequence(env).
		Stake(alice, ether(1000)).
		At(1800).
		Stake(alice, ether(1000)).
		AddFunc(func(t *testing.T) {
			info := env.userInfo(t, alice)
			assert.Equal(t, t0+1800, info.LastStakeTime)
			assert.Equal(t, t0, info.LastClaimTime)
			// the unsettled window accrues on the whole principal, top-up included
			assert.Equal(t, wei("1141552511415525"), info.PendingReward)
		}).
		At(3600).
		Harvest(alice, nil).
		Run(t)
}

func TestRestakeAfterFullExit(t *testing.T) {
	env := newTestEnv(t)

	NewSequence(env).
		Stake(alice, ether(1000)).
		At(86400).
		Unstake(alice, ether(1000), nil).
		At(10*86400).
		Stake(alice, ether(1000)).
		AddFunc(func(t *testing.T) {
			info := env.userInfo(t, alice)
			// idle window earns nothing
			assert.Equal(t, 0, info.PendingReward.Sign())
			assert.Equal(t, t0+10*86400, info.LastClaimTime)
		}).
		HarvestFails(alice, reverts.ErrInvalidClaimTime).
		Run(t)
}

func TestHarvestZeroReward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.vault.SetAprRate(ctx, owner, 0)
	require.NoError(t, err)

	NewSequence(env).
		Stake(alice, ether(1000)).
		At(3600).
		Harvest(alice, func(r *big.Int) { assert.Equal(t, 0, r.Sign()) }).
		AddFunc(func(t *testing.T) {
			assert.Equal(t, t0+3600, env.userInfo(t, alice).LastClaimTime)
			assert.Equal(t, 0, env.balance(t, env.reward, alice).Sign())
		}).
		HarvestFails(alice, reverts.ErrInvalidClaimTime).
		Run(t)
}

func TestNoDoubleSettlement(t *testing.T) {
	env := newTestEnv(t)

	NewSequence(env).
		Stake(alice, ether(1000)).
		At(86400).
		Harvest(alice, nil).
		AddFunc(func(t *testing.T) {
			assert.Equal(t, 0, env.userInfo(t, alice).PendingReward.Sign())
		}).
		HarvestFails(alice, reverts.ErrInvalidClaimTime).
		Unstake(alice, ether(1000), func(r *big.Int) {
			assert.Equal(t, 0, r.Sign())
		}).
		Run(t)
}

func TestRateChangeAppliesToUnsettled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	NewSequence(env).
		Stake(alice, ether(1000)).
		At(3600).
		AddFunc(func(t *testing.T) {
			_, err := env.vault.SetAprRate(ctx, owner, 2*thor.InitialAprRate)
			require.NoError(t, err)
		}).
		Harvest(alice, func(r *big.Int) {
			assert.Equal(t, wei("2283105022831050"), r)
		}).
		Run(t)
}

func TestTransferFailureIsAtomic(t *testing.T) {
	env := newTestEnv(t, withRewardReserve(big.NewInt(0)))
	ctx := context.Background()

	events := make(chan []state.Event, 16)
	sub := env.state.SubscribeEvents(events)
	defer sub.Unsubscribe()

	_, err := env.vault.Stake(ctx, alice, ether(1000))
	require.NoError(t, err)
	<-events

	env.clock.Add(3600)
	_, err = env.vault.Harvest(ctx, alice)
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)
	assert.ErrorIs(t, err, reverts.ErrInsufficientBalance)
	assert.True(t, reverts.IsRevertErr(err))

	info := env.userInfo(t, alice)
	assert.Equal(t, t0, info.LastClaimTime)
	assert.Equal(t, 1, info.PendingReward.Sign())

	// not approved beyond the balance
	_, err = env.vault.Stake(ctx, alice, ether(8000))
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)
	assert.ErrorIs(t, err, reverts.ErrInsufficientAllowance)

	info = env.userInfo(t, alice)
	assert.Equal(t, 0, ether(1000).Cmp(info.Principal))
	assert.Equal(t, t0, info.LastStakeTime)
	total, err := env.vault.TotalStaked(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ether(1000).Cmp(total))

	assert.Len(t, events, 0, "reverted calls publish nothing")
}

func TestUnknownAssetFailsTransfer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unknown := thor.BytesToAddress([]byte("unknown"))
	_, err := env.vault.SetAssets(ctx, owner, unknown, rewardAddr)
	require.NoError(t, err)

	_, err = env.vault.Stake(ctx, alice, ether(1))
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)
	assert.Equal(t, 0, env.userInfo(t, alice).Principal.Sign())
}

func TestEventsAfterCommit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	events := make(chan []state.Event, 16)
	sub := env.state.SubscribeEvents(events)
	defer sub.Unsubscribe()

	_, err := env.vault.Stake(ctx, alice, ether(1000))
	require.NoError(t, err)

	select {
	case batch := <-events:
		require.Len(t, batch, 2)
		assert.Equal(t, UserStakeEvent, batch[0].Name)
		assert.Equal(t, vaultAddr, batch[0].Emitter)
		ev := batch[0].Data.(*UserStake)
		assert.Equal(t, alice, ev.Account)
		assert.Equal(t, 0, ether(1000).Cmp(ev.Amount))

		assert.Equal(t, asset.TransferEventName, batch[1].Name)
		assert.Equal(t, principalAddr, batch[1].Emitter)
	case <-time.After(time.Second):
		t.Fatal("events not delivered")
	}

	env.clock.Add(86400)
	_, err = env.vault.Unstake(ctx, alice, ether(1000))
	require.NoError(t, err)

	batch := <-events
	require.Len(t, batch, 3)
	assert.Equal(t, UserUnstakeEvent, batch[0].Name)
	ev := batch[0].Data.(*UserUnstake)
	assert.Equal(t, 0, ether(1000).Cmp(ev.Amount))
	assert.Equal(t, 1, ev.RewardPaid.Sign())
	assert.Equal(t, rewardAddr, batch[1].Emitter)
	assert.Equal(t, principalAddr, batch[2].Emitter)
}

func TestConservation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var staked, unstaked big.Int
	amounts := []int64{100, 250, 40, 900, 10}
	for i, amount := range amounts {
		_, err := env.vault.Stake(ctx, alice, ether(amount))
		require.NoError(t, err)
		staked.Add(&staked, ether(amount))

		env.clock.Add(86400)
		out := ether(amount / 2)
		if i%2 == 1 {
			out = ether(amount)
		}
		_, err = env.vault.Unstake(ctx, alice, out)
		require.NoError(t, err)
		unstaked.Add(&unstaked, out)

		// never more out than in
		_, err = env.vault.Unstake(ctx, alice, new(big.Int).Add(env.userInfo(t, alice).Principal, big.NewInt(1)))
		assert.ErrorIs(t, err, reverts.ErrInsufficientPrincipal)
	}

	assert.True(t, unstaked.Cmp(&staked) <= 0)
	held := new(big.Int).Sub(&staked, &unstaked)
	assert.Equal(t, 0, held.Cmp(env.userInfo(t, alice).Principal))
	assert.Equal(t, 0, held.Cmp(env.balance(t, env.principal, vaultAddr)))

	withdrawn := new(big.Int).Sub(env.balance(t, env.principal, alice), new(big.Int).Sub(ether(8000), &staked))
	assert.Equal(t, 0, withdrawn.Cmp(&unstaked))
}

func TestConcurrentStakes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		for _, addr := range []thor.Address{alice, bob} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.vault.Stake(ctx, addr, ether(10))
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	total, err := env.vault.TotalStaked(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ether(400).Cmp(total))
	assert.Equal(t, 0, ether(200).Cmp(env.userInfo(t, alice).Principal))
	assert.Equal(t, 0, ether(200).Cmp(env.userInfo(t, bob).Principal))
}

func TestNotInitialized(t *testing.T) {
	env := newTestEnv(t, withoutInit())
	ctx := context.Background()

	_, err := env.vault.Stake(ctx, alice, ether(1))
	assert.ErrorIs(t, err, reverts.ErrNotInitialized)
	_, err = env.vault.Harvest(ctx, alice)
	assert.ErrorIs(t, err, reverts.ErrNotInitialized)
	_, err = env.vault.UserInfo(ctx, alice)
	assert.ErrorIs(t, err, reverts.ErrNotInitialized)
	_, err = env.vault.SetAprRate(ctx, owner, 1)
	assert.ErrorIs(t, err, reverts.ErrNotInitialized)
}
