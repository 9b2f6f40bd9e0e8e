// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"context"
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/api/auth"
	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/thor"
	"github.com/vechain/stakevault/vault"
)

// Action names covered by request signatures.
const (
	ActionStake   = "stake"
	ActionUnstake = "unstake"
	ActionHarvest = "harvest"
	ActionAprRate = "setAprRate"
	ActionAssets  = "setAssets"
)

type Staking struct {
	vault *vault.Vault
	auth  *auth.Authenticator
}

func New(v *vault.Vault, a *auth.Authenticator) *Staking {
	return &Staking{vault: v, auth: a}
}

func (s *Staking) handleGetVault(w http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()
	cfg, err := s.vault.Config(ctx)
	if err != nil {
		return err
	}
	policy, err := s.vault.Policy(ctx)
	if err != nil {
		return err
	}
	total, err := s.vault.TotalStaked(ctx)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Summary{
		Address:         s.vault.Address(),
		Owner:           cfg.Owner,
		PrincipalAsset:  cfg.PrincipalAsset,
		RewardAsset:     cfg.RewardAsset,
		AprRate:         cfg.AprRate,
		HarvestCooldown: policy.HarvestCooldown,
		UnstakeLockup:   policy.UnstakeLockup,
		TotalStaked:     hex256(total),
	})
}

func (s *Staking) handleGetPosition(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	ctx := req.Context()
	info, err := s.vault.UserInfo(ctx, addr)
	if err != nil {
		return err
	}
	policy, err := s.vault.Policy(ctx)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Position{
		Principal:     hex256(info.Principal),
		PendingReward: hex256(info.PendingReward),
		LastStakeTime: info.LastStakeTime,
		LastClaimTime: info.LastClaimTime,
		HarvestableAt: policy.HarvestableAt(info.LastClaimTime),
		UnlockedAt:    policy.UnlockedAt(info.LastStakeTime),
	})
}

func parseAmount(r *AmountRequest) (*big.Int, error) {
	if r.Amount == nil {
		return nil, utils.BadRequest(errors.New("amount: required"))
	}
	return (*big.Int)(r.Amount), nil
}

func (s *Staking) handleStake(w http.ResponseWriter, req *http.Request) error {
	var body AmountRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := parseAmount(&body)
	if err != nil {
		return err
	}

	var ev *vault.UserStake
	err = s.auth.Do(req.Context(), ActionStake, &body.Request, []any{amount}, func(ctx context.Context, caller thor.Address) (err error) {
		ev, err = s.vault.Stake(ctx, caller, amount)
		return
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertStake(ev))
}

func (s *Staking) handleUnstake(w http.ResponseWriter, req *http.Request) error {
	var body AmountRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := parseAmount(&body)
	if err != nil {
		return err
	}

	var ev *vault.UserUnstake
	err = s.auth.Do(req.Context(), ActionUnstake, &body.Request, []any{amount}, func(ctx context.Context, caller thor.Address) (err error) {
		ev, err = s.vault.Unstake(ctx, caller, amount)
		return
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertUnstake(ev))
}

func (s *Staking) handleHarvest(w http.ResponseWriter, req *http.Request) error {
	var body HarvestRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	var ev *vault.UserHarvest
	err := s.auth.Do(req.Context(), ActionHarvest, &body.Request, nil, func(ctx context.Context, caller thor.Address) (err error) {
		ev, err = s.vault.Harvest(ctx, caller)
		return
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertHarvest(ev))
}

func (s *Staking) handleSetAprRate(w http.ResponseWriter, req *http.Request) error {
	var body AprRateRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	var ev *vault.AprRateUpdated
	err := s.auth.Do(req.Context(), ActionAprRate, &body.Request, []any{body.Rate}, func(ctx context.Context, caller thor.Address) (err error) {
		ev, err = s.vault.SetAprRate(ctx, caller, body.Rate)
		return
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Receipt{Event: vault.AprRateUpdatedEvent, Rate: &ev.Rate, Time: ev.Time})
}

func (s *Staking) handleSetAssets(w http.ResponseWriter, req *http.Request) error {
	var body AssetsRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	args := []any{body.PrincipalAsset, body.RewardAsset}
	var ev *vault.AssetsUpdated
	err := s.auth.Do(req.Context(), ActionAssets, &body.Request, args, func(ctx context.Context, caller thor.Address) (err error) {
		ev, err = s.vault.SetAssets(ctx, caller, body.PrincipalAsset, body.RewardAsset)
		return
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Receipt{Event: vault.AssetsUpdatedEvent, Time: ev.Time})
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /vault").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetVault))
	sub.Path("/positions/{address}").
		Methods(http.MethodGet).
		Name("GET /vault/positions/{address}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetPosition))
	sub.Path("/stake").
		Methods(http.MethodPost).
		Name("POST /vault/stake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleStake))
	sub.Path("/unstake").
		Methods(http.MethodPost).
		Name("POST /vault/unstake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleUnstake))
	sub.Path("/harvest").
		Methods(http.MethodPost).
		Name("POST /vault/harvest").
		HandlerFunc(utils.WrapHandlerFunc(s.handleHarvest))
	sub.Path("/apr").
		Methods(http.MethodPost).
		Name("POST /vault/apr").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSetAprRate))
	sub.Path("/assets").
		Methods(http.MethodPost).
		Name("POST /vault/assets").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSetAssets))
}
