// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package assets

import (
	"context"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/api/auth"
	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/asset"
	"github.com/vechain/stakevault/thor"
)

const (
	ActionApprove  = "approve"
	ActionTransfer = "transfer"
)

type Asset struct {
	Address     thor.Address          `json:"address"`
	Name        string                `json:"name"`
	Symbol      string                `json:"symbol"`
	Decimals    uint8                 `json:"decimals"`
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
}

type Balance struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
}

type ApproveRequest struct {
	auth.Request
	Spender thor.Address          `json:"spender"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

type TransferRequest struct {
	auth.Request
	To     thor.Address          `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type Assets struct {
	registry *asset.Registry
	auth     *auth.Authenticator
}

func New(registry *asset.Registry, a *auth.Authenticator) *Assets {
	return &Assets{registry: registry, auth: a}
}

func (a *Assets) token(req *http.Request) (*asset.Token, error) {
	addr, err := thor.ParseAddress(mux.Vars(req)["asset"])
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "asset"))
	}
	token, ok := a.registry.Token(addr)
	if !ok {
		return nil, utils.HTTPError(errors.New("asset not found"), http.StatusNotFound)
	}
	return token, nil
}

func convertAsset(ctx context.Context, t *asset.Token) (*Asset, error) {
	supply, err := t.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}
	info := t.Info()
	return &Asset{
		Address:     t.Address(),
		Name:        info.Name,
		Symbol:      info.Symbol,
		Decimals:    info.Decimals,
		TotalSupply: (*math.HexOrDecimal256)(supply),
	}, nil
}

func (a *Assets) handleListAssets(w http.ResponseWriter, req *http.Request) error {
	list := make([]*Asset, 0)
	for _, t := range a.registry.Tokens() {
		item, err := convertAsset(req.Context(), t)
		if err != nil {
			return err
		}
		list = append(list, item)
	}
	return utils.WriteJSON(w, list)
}

func (a *Assets) handleGetAsset(w http.ResponseWriter, req *http.Request) error {
	token, err := a.token(req)
	if err != nil {
		return err
	}
	item, err := convertAsset(req.Context(), token)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, item)
}

func (a *Assets) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	token, err := a.token(req)
	if err != nil {
		return err
	}
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	balance, err := token.BalanceOf(req.Context(), addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Balance{(*math.HexOrDecimal256)(balance)})
}

func (a *Assets) handleApprove(w http.ResponseWriter, req *http.Request) error {
	token, err := a.token(req)
	if err != nil {
		return err
	}
	var body ApproveRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: required"))
	}
	amount := (*big.Int)(body.Amount)

	args := []any{token.Address(), body.Spender, amount}
	err = a.auth.Do(req.Context(), ActionApprove, &body.Request, args, func(ctx context.Context, caller thor.Address) error {
		return token.Approve(ctx, caller, body.Spender, amount)
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"spender": body.Spender, "amount": body.Amount})
}

func (a *Assets) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	token, err := a.token(req)
	if err != nil {
		return err
	}
	var body TransferRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: required"))
	}
	amount := (*big.Int)(body.Amount)

	args := []any{token.Address(), body.To, amount}
	err = a.auth.Do(req.Context(), ActionTransfer, &body.Request, args, func(ctx context.Context, caller thor.Address) error {
		return token.Transfer(ctx, caller, body.To, amount)
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"to": body.To, "amount": body.Amount})
}

func (a *Assets) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /assets").
		HandlerFunc(utils.WrapHandlerFunc(a.handleListAssets))
	sub.Path("/{asset}").
		Methods(http.MethodGet).
		Name("GET /assets/{asset}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAsset))
	sub.Path("/{asset}/balances/{address}").
		Methods(http.MethodGet).
		Name("GET /assets/{asset}/balances/{address}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetBalance))
	sub.Path("/{asset}/approve").
		Methods(http.MethodPost).
		Name("POST /assets/{asset}/approve").
		HandlerFunc(utils.WrapHandlerFunc(a.handleApprove))
	sub.Path("/{asset}/transfer").
		Methods(http.MethodPost).
		Name("POST /assets/{asset}/transfer").
		HandlerFunc(utils.WrapHandlerFunc(a.handleTransfer))
}
