// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New("test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func Test_WrappedKinds(t *testing.T) {
	err := errors.Wrap(ErrTransferFailed, "reward transfer")
	assert.True(t, IsRevertErr(err))
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.NotErrorIs(t, err, ErrOverflow)
	assert.Equal(t, "reward transfer: transfer failed", err.Error())

	assert.True(t, IsTimingErr(errors.WithMessage(ErrInvalidClaimTime, "harvest")))
	assert.True(t, IsTimingErr(ErrInvalidUnstakeTime))
	assert.False(t, IsTimingErr(ErrInsufficientPrincipal))
}

func Test_TransferFailed(t *testing.T) {
	cause := fmt.Errorf("port offline")
	err := errors.Wrap(TransferFailed(cause), "harvest")

	assert.True(t, IsRevertErr(err))
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "harvest: transfer failed: port offline", err.Error())

	assert.ErrorIs(t, TransferFailed(ErrInsufficientBalance), ErrInsufficientBalance)
}
