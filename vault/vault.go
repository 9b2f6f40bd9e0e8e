// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"context"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/stakevault/accrual"
	"github.com/vechain/stakevault/asset"
	"github.com/vechain/stakevault/clock"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/thor"
	"github.com/vechain/stakevault/timelock"
)

var (
	logger = log.WithContext("pkg", "vault")

	positionsSlot   = thor.BytesToBytes32([]byte("positions"))
	configSlot      = thor.BytesToBytes32([]byte("config"))
	policySlot      = thor.BytesToBytes32([]byte("policy"))
	totalStakedSlot = thor.BytesToBytes32([]byte("total-staked"))
)

func SetLogger(l log.Logger) {
	logger = l
}

// Vault is the staking ledger. Every operation is atomic with respect to every other.
type Vault struct {
	addr   thor.Address
	state  *state.State
	assets asset.Resolver
	clock  clock.Clock

	positions   *state.Mapping[thor.Address, *Position]
	config      *state.Value[*Config]
	policy      *state.Value[*timelock.Policy]
	totalStaked *state.Value[*big.Int]
}

// New create a vault living at addr. The vault holds staked principal and reward
// reserve in its own balance of the configured assets.
func New(addr thor.Address, st *state.State, assets asset.Resolver, clk clock.Clock) *Vault {
	return &Vault{
		addr:        addr,
		state:       st,
		assets:      assets,
		clock:       clk,
		positions:   state.NewMapping[thor.Address, *Position](st, addr, positionsSlot),
		config:      state.NewValue[*Config](st, addr, configSlot),
		policy:      state.NewValue[*timelock.Policy](st, addr, policySlot),
		totalStaked: state.NewValue[*big.Int](st, addr, totalStakedSlot),
	}
}

// Address returns the account holding the vault funds.
func (v *Vault) Address() thor.Address {
	return v.addr
}

//
// Getters - no state change
//

// Config returns the current configuration.
func (v *Vault) Config(ctx context.Context) (cfg *Config, err error) {
	err = v.state.View(ctx, func(ctx context.Context) error {
		cfg, err = v.loadConfig(ctx)
		return err
	})
	return
}

// Policy returns the timelock policy.
func (v *Vault) Policy(ctx context.Context) (p timelock.Policy, err error) {
	err = v.state.View(ctx, func(ctx context.Context) error {
		pp, err := v.policy.Get(ctx)
		if err != nil {
			return err
		}
		p = *pp
		return nil
	})
	return
}

// TotalStaked returns the sum of all principals.
func (v *Vault) TotalStaked(ctx context.Context) (total *big.Int, err error) {
	err = v.state.View(ctx, func(ctx context.Context) error {
		total, err = v.totalStaked.Get(ctx)
		return err
	})
	return
}

// UserInfo returns the position of account with the reward pending at the current time.
func (v *Vault) UserInfo(ctx context.Context, account thor.Address) (info *UserInfo, err error) {
	err = v.state.View(ctx, func(ctx context.Context) error {
		cfg, err := v.loadConfig(ctx)
		if err != nil {
			return err
		}
		pos, err := v.positions.Get(ctx, account)
		if err != nil {
			return err
		}
		pending, err := accrual.Pending(pos.principal(), cfg.AprRate, pos.LastClaimTime, v.clock.Now())
		if err != nil {
			return err
		}
		info = &UserInfo{
			Principal:     pos.principal(),
			PendingReward: pending,
			LastStakeTime: pos.LastStakeTime,
			LastClaimTime: pos.LastClaimTime,
		}
		return nil
	})
	return
}

//
// Setters - state change
//

// Stake pulls amount of the principal asset from account and adds it to the position.
// The unstake lockup restarts for the whole position.
func (v *Vault) Stake(ctx context.Context, account thor.Address, amount *big.Int) (*UserStake, error) {
	logger.Debug("staking", "account", account, "amount", amount)
	defer metricOpDuration("stake")()

	var ev *UserStake
	err := v.state.Exec(ctx, func(ctx context.Context) error {
		if amount == nil || amount.Sign() <= 0 {
			return reverts.ErrInvalidAmount
		}
		if account.IsZero() {
			return reverts.ErrZeroAddress
		}
		cfg, err := v.loadConfig(ctx)
		if err != nil {
			return err
		}

		now := v.clock.Now()
		pos, err := v.positions.Get(ctx, account)
		if err != nil {
			return err
		}
		principal := pos.principal()
		if principal.Sign() == 0 {
			// nothing accrues on zero principal, start the reward window now
			pos.LastClaimTime = now
		}
		pos.Principal = new(big.Int).Add(principal, amount)
		pos.LastStakeTime = now
		if err := v.positions.Set(ctx, account, pos); err != nil {
			return err
		}
		if err := v.addTotalStaked(ctx, amount); err != nil {
			return err
		}

		ev = &UserStake{Account: account, Amount: new(big.Int).Set(amount), Time: now}
		if err := v.state.Emit(ctx, v.addr, UserStakeEvent, ev); err != nil {
			return err
		}

		port, err := v.assets.Port(cfg.PrincipalAsset, v.addr)
		if err != nil {
			return reverts.TransferFailed(err)
		}
		if err := port.TransferFrom(ctx, account, v.addr, amount); err != nil {
			return reverts.TransferFailed(err)
		}
		return nil
	})
	if err != nil {
		logger.Info("stake failed", "account", account, "error", err)
		metricOpCount().AddWithLabel(1, map[string]string{"op": "stake", "result": result(err)})
		return nil, err
	}

	logger.Info("staked", "account", account, "amount", amount)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "stake", "result": "ok"})
	return ev, nil
}

// Harvest settles the reward accrued since the last settlement and pays it to account.
// A zero reward still settles and restarts the cooldown.
func (v *Vault) Harvest(ctx context.Context, account thor.Address) (*UserHarvest, error) {
	logger.Debug("harvesting", "account", account)
	defer metricOpDuration("harvest")()

	var ev *UserHarvest
	err := v.state.Exec(ctx, func(ctx context.Context) error {
		cfg, err := v.loadConfig(ctx)
		if err != nil {
			return err
		}
		policy, err := v.policy.Get(ctx)
		if err != nil {
			return err
		}

		now := v.clock.Now()
		pos, err := v.positions.Get(ctx, account)
		if err != nil {
			return err
		}
		if err := policy.CanHarvest(pos.LastClaimTime, now); err != nil {
			return err
		}
		reward, err := v.settle(ctx, cfg, account, pos, now)
		if err != nil {
			return err
		}

		ev = &UserHarvest{Account: account, RewardPaid: reward, Time: now}
		if err := v.state.Emit(ctx, v.addr, UserHarvestEvent, ev); err != nil {
			return err
		}
		return v.payReward(ctx, cfg, account, reward)
	})
	if err != nil {
		logger.Info("harvest failed", "account", account, "error", err)
		metricOpCount().AddWithLabel(1, map[string]string{"op": "harvest", "result": result(err)})
		return nil, err
	}

	logger.Info("harvested", "account", account, "reward", ev.RewardPaid)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "harvest", "result": "ok"})
	return ev, nil
}

// Unstake settles the pending reward on the current principal, then returns amount of
// principal to account. The stake time of the remaining principal is kept.
func (v *Vault) Unstake(ctx context.Context, account thor.Address, amount *big.Int) (*UserUnstake, error) {
	logger.Debug("unstaking", "account", account, "amount", amount)
	defer metricOpDuration("unstake")()

	var ev *UserUnstake
	err := v.state.Exec(ctx, func(ctx context.Context) error {
		cfg, err := v.loadConfig(ctx)
		if err != nil {
			return err
		}
		policy, err := v.policy.Get(ctx)
		if err != nil {
			return err
		}

		now := v.clock.Now()
		pos, err := v.positions.Get(ctx, account)
		if err != nil {
			return err
		}
		if err := policy.CanUnstake(pos.LastStakeTime, now, amount, pos.principal()); err != nil {
			return err
		}
		// settle on the principal held before this unstake
		reward, err := v.settle(ctx, cfg, account, pos, now)
		if err != nil {
			return err
		}
		pos.Principal = new(big.Int).Sub(pos.principal(), amount)
		if err := v.positions.Set(ctx, account, pos); err != nil {
			return err
		}
		if err := v.addTotalStaked(ctx, new(big.Int).Neg(amount)); err != nil {
			return err
		}

		ev = &UserUnstake{Account: account, Amount: new(big.Int).Set(amount), RewardPaid: reward, Time: now}
		if err := v.state.Emit(ctx, v.addr, UserUnstakeEvent, ev); err != nil {
			return err
		}

		if err := v.payReward(ctx, cfg, account, reward); err != nil {
			return err
		}
		port, err := v.assets.Port(cfg.PrincipalAsset, v.addr)
		if err != nil {
			return reverts.TransferFailed(err)
		}
		if err := port.Transfer(ctx, account, amount); err != nil {
			return reverts.TransferFailed(err)
		}
		return nil
	})
	if err != nil {
		logger.Info("unstake failed", "account", account, "error", err)
		metricOpCount().AddWithLabel(1, map[string]string{"op": "unstake", "result": result(err)})
		return nil, err
	}

	logger.Info("unstaked", "account", account, "amount", amount, "reward", ev.RewardPaid)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "unstake", "result": "ok"})
	return ev, nil
}

// settle computes the reward of pos up to now and stores the position with the
// claim time moved to now.
func (v *Vault) settle(ctx context.Context, cfg *Config, account thor.Address, pos *Position, now uint64) (*big.Int, error) {
	reward, err := accrual.Pending(pos.principal(), cfg.AprRate, pos.LastClaimTime, now)
	if err != nil {
		return nil, err
	}
	pos.LastClaimTime = now
	if err := v.positions.Set(ctx, account, pos); err != nil {
		return nil, err
	}
	return reward, nil
}

func (v *Vault) payReward(ctx context.Context, cfg *Config, account thor.Address, reward *big.Int) error {
	if reward.Sign() == 0 {
		return nil
	}
	port, err := v.assets.Port(cfg.RewardAsset, v.addr)
	if err != nil {
		return reverts.TransferFailed(err)
	}
	if err := port.Transfer(ctx, account, reward); err != nil {
		return reverts.TransferFailed(err)
	}
	return nil
}

func (v *Vault) loadConfig(ctx context.Context) (*Config, error) {
	cfg, err := v.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.Initialized() {
		return nil, reverts.ErrNotInitialized
	}
	return cfg, nil
}

func (v *Vault) addTotalStaked(ctx context.Context, delta *big.Int) error {
	total, err := v.totalStaked.Get(ctx)
	if err != nil {
		return err
	}
	total = new(big.Int).Add(total, delta)
	if total.Sign() < 0 {
		return errors.New("total staked underflow")
	}
	return v.totalStaked.Set(ctx, total)
}

func result(err error) string {
	if reverts.IsRevertErr(err) {
		return "revert"
	}
	return "error"
}

func metricOpDuration(op string) func() {
	start := time.Now()
	return func() {
		metricOpDurationMs().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})
	}
}
