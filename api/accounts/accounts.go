// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/api/auth"
	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/thor"
)

type Nonce struct {
	Nonce uint64 `json:"nonce"`
}

type Accounts struct {
	auth *auth.Authenticator
}

func New(a *auth.Authenticator) *Accounts {
	return &Accounts{a}
}

func (a *Accounts) handleGetNonce(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	nonce, err := a.auth.Nonce(req.Context(), addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Nonce{nonce})
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}/nonce").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}/nonce").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetNonce))
}
