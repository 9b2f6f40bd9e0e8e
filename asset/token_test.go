// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakevault/lvldb"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/test/datagen"
	"github.com/vechain/stakevault/thor"
)

var (
	tokenAddr = thor.BytesToAddress([]byte("token"))
	alice     = thor.BytesToAddress([]byte("alice"))
	bob       = thor.BytesToAddress([]byte("bob"))
	spender   = thor.BytesToAddress([]byte("spender"))
)

func newToken(t *testing.T) (*state.State, *Token) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	return st, NewToken(st, tokenAddr, Info{Name: "Test", Symbol: "TST", Decimals: 18})
}

func balanceOf(t *testing.T, tok *Token, addr thor.Address) int64 {
	bal, err := tok.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return bal.Int64()
}

func TestMintAndTransfer(t *testing.T) {
	_, tok := newToken(t)
	ctx := context.Background()

	require.NoError(t, tok.Mint(ctx, alice, big.NewInt(100)))
	assert.Equal(t, int64(100), balanceOf(t, tok, alice))

	supply, err := tok.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), supply.Int64())

	require.NoError(t, tok.Transfer(ctx, alice, bob, big.NewInt(30)))
	assert.Equal(t, int64(70), balanceOf(t, tok, alice))
	assert.Equal(t, int64(30), balanceOf(t, tok, bob))

	// self transfer keeps the balance
	require.NoError(t, tok.Transfer(ctx, bob, bob, big.NewInt(30)))
	assert.Equal(t, int64(30), balanceOf(t, tok, bob))

	err = tok.Transfer(ctx, bob, alice, big.NewInt(31))
	assert.ErrorIs(t, err, reverts.ErrInsufficientBalance)
	assert.Equal(t, int64(30), balanceOf(t, tok, bob))

	assert.ErrorIs(t, tok.Transfer(ctx, alice, thor.Address{}, big.NewInt(1)), reverts.ErrZeroAddress)
	assert.ErrorIs(t, tok.Transfer(ctx, alice, bob, big.NewInt(-1)), reverts.ErrInvalidAmount)
	assert.ErrorIs(t, tok.Mint(ctx, thor.Address{}, big.NewInt(1)), reverts.ErrZeroAddress)
}

func TestApproveAndTransferFrom(t *testing.T) {
	_, tok := newToken(t)
	ctx := context.Background()

	require.NoError(t, tok.Mint(ctx, alice, big.NewInt(100)))

	err := tok.TransferFrom(ctx, spender, alice, bob, big.NewInt(10))
	assert.ErrorIs(t, err, reverts.ErrInsufficientAllowance)

	require.NoError(t, tok.Approve(ctx, alice, spender, big.NewInt(50)))
	require.NoError(t, tok.TransferFrom(ctx, spender, alice, bob, big.NewInt(20)))

	allowance, err := tok.Allowance(ctx, alice, spender)
	require.NoError(t, err)
	assert.Equal(t, int64(30), allowance.Int64())
	assert.Equal(t, int64(80), balanceOf(t, tok, alice))
	assert.Equal(t, int64(20), balanceOf(t, tok, bob))

	// allowance is restored when the balance is short
	require.NoError(t, tok.Transfer(ctx, alice, bob, big.NewInt(70)))
	err = tok.TransferFrom(ctx, spender, alice, bob, big.NewInt(30))
	assert.ErrorIs(t, err, reverts.ErrInsufficientBalance)
	allowance, err = tok.Allowance(ctx, alice, spender)
	require.NoError(t, err)
	assert.Equal(t, int64(30), allowance.Int64())

	assert.ErrorIs(t, tok.Approve(ctx, alice, thor.Address{}, big.NewInt(1)), reverts.ErrZeroAddress)
}

func TestBoundPort(t *testing.T) {
	_, tok := newToken(t)
	ctx := context.Background()
	require.NoError(t, tok.Mint(ctx, alice, big.NewInt(100)))

	reg := NewRegistry(tok)
	alicePort, err := reg.Port(tokenAddr, alice)
	require.NoError(t, err)
	spenderPort, err := reg.Port(tokenAddr, spender)
	require.NoError(t, err)

	require.NoError(t, alicePort.Approve(ctx, spender, big.NewInt(40)))
	require.NoError(t, spenderPort.TransferFrom(ctx, alice, spender, big.NewInt(40)))
	require.NoError(t, spenderPort.Transfer(ctx, bob, big.NewInt(15)))

	bal, err := spenderPort.BalanceOf(ctx, spender)
	require.NoError(t, err)
	assert.Equal(t, int64(25), bal.Int64())
	assert.Equal(t, int64(15), balanceOf(t, tok, bob))

	_, err = reg.Port(thor.BytesToAddress([]byte("unknown")), alice)
	assert.Error(t, err)
	assert.Len(t, reg.Tokens(), 1)
}

func TestTokenEvents(t *testing.T) {
	st, tok := newToken(t)
	ctx := context.Background()

	ch := make(chan []state.Event, 8)
	sub := st.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	require.NoError(t, tok.Mint(ctx, alice, big.NewInt(5)))
	require.NoError(t, tok.Approve(ctx, alice, spender, big.NewInt(5)))

	expect := []string{TransferEventName, ApprovalEventName}
	for _, name := range expect {
		select {
		case events := <-ch:
			require.Len(t, events, 1)
			assert.Equal(t, name, events[0].Name)
			assert.Equal(t, tokenAddr, events[0].Emitter)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestRandomTransfersConserveSupply(t *testing.T) {
	_, tok := newToken(t)
	ctx := context.Background()

	accounts := make([]thor.Address, 5)
	for i := range accounts {
		accounts[i] = datagen.RandAddress()
		require.NoError(t, tok.Mint(ctx, accounts[i], datagen.RandAmount(100)))
	}
	supply, err := tok.TotalSupply(ctx)
	require.NoError(t, err)

	for range 200 {
		from := accounts[datagen.RandIntN(len(accounts))]
		to := accounts[datagen.RandIntN(len(accounts))]
		amount := datagen.RandAmount(50)

		bal, err := tok.BalanceOf(ctx, from)
		require.NoError(t, err)
		err = tok.Transfer(ctx, from, to, amount)
		if bal.Cmp(amount) < 0 {
			assert.ErrorIs(t, err, reverts.ErrInsufficientBalance)
		} else {
			require.NoError(t, err)
		}
	}

	sum := new(big.Int)
	for _, acc := range accounts {
		bal, err := tok.BalanceOf(ctx, acc)
		require.NoError(t, err)
		sum.Add(sum, bal)
	}
	assert.Equal(t, supply, sum)

	after, err := tok.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, supply, after)
}
