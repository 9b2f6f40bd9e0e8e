// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/thor"
)

// Initialize applies genesis. It fails if the vault is already initialized.
func (v *Vault) Initialize(ctx context.Context, g *Genesis) error {
	logger.Debug("initializing vault", "owner", g.Owner, "principal", g.PrincipalAsset, "reward", g.RewardAsset)

	err := v.state.Exec(ctx, func(ctx context.Context) error {
		cfg, err := v.config.Get(ctx)
		if err != nil {
			return err
		}
		if cfg.Initialized() {
			return reverts.ErrAlreadyInitialized
		}
		if g.Owner.IsZero() {
			return errors.WithMessage(reverts.ErrZeroAddress, "owner")
		}
		if err := v.checkAssets(g.Owner, g.PrincipalAsset, g.RewardAsset); err != nil {
			return err
		}
		if err := g.Policy.Validate(); err != nil {
			return err
		}

		policy := g.Policy
		if err := v.policy.Set(ctx, &policy); err != nil {
			return err
		}
		return v.config.Set(ctx, &Config{
			Owner:          g.Owner,
			PrincipalAsset: g.PrincipalAsset,
			RewardAsset:    g.RewardAsset,
			AprRate:        g.AprRate,
		})
	})
	if err != nil {
		logger.Info("initialize vault failed", "error", err)
		return err
	}

	logger.Info("initialized vault", "address", v.addr, "rate", g.AprRate)
	return nil
}

// SetAprRate updates the annual rate. Reward accrued but not yet settled is
// computed with the new rate.
func (v *Vault) SetAprRate(ctx context.Context, caller thor.Address, rate uint64) (*AprRateUpdated, error) {
	logger.Debug("setting apr rate", "caller", caller, "rate", rate)

	var ev *AprRateUpdated
	err := v.state.Exec(ctx, func(ctx context.Context) error {
		cfg, err := v.authorize(ctx, caller)
		if err != nil {
			return err
		}
		cfg.AprRate = rate
		if err := v.config.Set(ctx, cfg); err != nil {
			return err
		}
		ev = &AprRateUpdated{Rate: rate, Time: v.clock.Now()}
		return v.state.Emit(ctx, v.addr, AprRateUpdatedEvent, ev)
	})
	if err != nil {
		logger.Info("set apr rate failed", "caller", caller, "error", err)
		return nil, err
	}

	logger.Info("apr rate updated", "rate", rate)
	return ev, nil
}

// SetAssets replaces the principal and reward assets.
func (v *Vault) SetAssets(ctx context.Context, caller, principal, reward thor.Address) (*AssetsUpdated, error) {
	logger.Debug("setting assets", "caller", caller, "principal", principal, "reward", reward)

	var ev *AssetsUpdated
	err := v.state.Exec(ctx, func(ctx context.Context) error {
		cfg, err := v.authorize(ctx, caller)
		if err != nil {
			return err
		}
		if err := v.checkAssets(caller, principal, reward); err != nil {
			return err
		}
		cfg.PrincipalAsset, cfg.RewardAsset = principal, reward
		if err := v.config.Set(ctx, cfg); err != nil {
			return err
		}
		ev = &AssetsUpdated{PrincipalAsset: principal, RewardAsset: reward, Time: v.clock.Now()}
		return v.state.Emit(ctx, v.addr, AssetsUpdatedEvent, ev)
	})
	if err != nil {
		logger.Info("set assets failed", "caller", caller, "error", err)
		return nil, err
	}

	logger.Info("assets updated", "principal", principal, "reward", reward)
	return ev, nil
}

func (v *Vault) authorize(ctx context.Context, caller thor.Address) (*Config, error) {
	cfg, err := v.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if caller != cfg.Owner {
		return nil, reverts.ErrUnauthorized
	}
	return cfg, nil
}

func (v *Vault) checkAssets(owner, principal, reward thor.Address) error {
	if principal.IsZero() || reward.IsZero() {
		return reverts.ErrZeroAddress
	}
	if principal == owner || principal == v.addr {
		return reverts.ErrInvalidToken
	}
	return nil
}
