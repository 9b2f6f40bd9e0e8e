// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package auth authenticates write requests.
//
// A request is signed by the caller's secp256k1 key over
//
//	keccak256(rlp(["stakevault", action, caller, nonce, args...]))
//
// and carries the caller's next nonce. The nonce is consumed in the same state
// frame as the action, so a request is applied at most once and a failed
// action leaves the nonce unchanged.
package auth

import (
	"context"
	"crypto/ecdsa"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/thor"
)

const domain = "stakevault"

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidNonce     = errors.New("invalid nonce")

	// nonces live in state under a reserved owner
	storeAddr  = thor.BytesToAddress([]byte("auth"))
	noncesSlot = thor.BytesToBytes32([]byte("nonces"))
)

// Request carries the authentication fields of a signed call.
type Request struct {
	Caller    thor.Address  `json:"caller"`
	Nonce     uint64        `json:"nonce"`
	Signature hexutil.Bytes `json:"signature"`
}

// SigningHash returns the hash signed for action.
func SigningHash(action string, caller thor.Address, nonce uint64, args ...any) (thor.Bytes32, error) {
	fields := append([]any{domain, action, caller, nonce}, args...)
	data, err := rlp.EncodeToBytes(fields)
	if err != nil {
		return thor.Bytes32{}, errors.Wrap(err, "encode signing fields")
	}
	return thor.Bytes32(crypto.Keccak256Hash(data)), nil
}

// Sign builds a request for action signed by key.
func Sign(key *ecdsa.PrivateKey, action string, nonce uint64, args ...any) (Request, error) {
	caller := thor.Address(crypto.PubkeyToAddress(key.PublicKey))
	hash, err := SigningHash(action, caller, nonce, args...)
	if err != nil {
		return Request{}, err
	}
	sig, err := crypto.Sign(hash[:], key)
	if err != nil {
		return Request{}, err
	}
	return Request{Caller: caller, Nonce: nonce, Signature: sig}, nil
}

// Authenticator verifies signatures and tracks request nonces.
type Authenticator struct {
	state  *state.State
	nonces *state.Mapping[thor.Address, uint64]
}

func New(st *state.State) *Authenticator {
	return &Authenticator{
		state:  st,
		nonces: state.NewMapping[thor.Address, uint64](st, storeAddr, noncesSlot),
	}
}

// Nonce returns the nonce expected in the next request of addr.
func (a *Authenticator) Nonce(ctx context.Context, addr thor.Address) (nonce uint64, err error) {
	err = a.state.View(ctx, func(ctx context.Context) error {
		nonce, err = a.nonces.Get(ctx, addr)
		return err
	})
	return
}

// Do runs fn on behalf of the request caller once the request is verified.
// fn and the nonce increment are committed together.
func (a *Authenticator) Do(
	ctx context.Context,
	action string,
	req *Request,
	args []any,
	fn func(ctx context.Context, caller thor.Address) error,
) error {
	hash, err := SigningHash(action, req.Caller, req.Nonce, args...)
	if err != nil {
		return utils.BadRequest(err)
	}
	if len(req.Signature) != crypto.SignatureLength {
		return utils.HTTPError(ErrInvalidSignature, http.StatusUnauthorized)
	}
	pub, err := crypto.SigToPub(hash[:], req.Signature)
	if err != nil || thor.Address(crypto.PubkeyToAddress(*pub)) != req.Caller {
		return utils.HTTPError(ErrInvalidSignature, http.StatusUnauthorized)
	}

	return a.state.Exec(ctx, func(ctx context.Context) error {
		next, err := a.nonces.Get(ctx, req.Caller)
		if err != nil {
			return err
		}
		if req.Nonce != next {
			return utils.HTTPError(errors.WithMessagef(ErrInvalidNonce, "want %d", next), http.StatusConflict)
		}
		if err := fn(ctx, req.Caller); err != nil {
			return err
		}
		return a.nonces.Set(ctx, req.Caller, next+1)
	})
}
