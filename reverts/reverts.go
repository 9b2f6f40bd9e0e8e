// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kinds of user facing failures. Match them with errors.Is.
var (
	ErrZeroAddress           = New("zero address")
	ErrInvalidToken          = New("invalid token")
	ErrInvalidAmount         = New("invalid amount")
	ErrInvalidClaimTime      = New("invalid claim time")
	ErrInvalidUnstakeTime    = New("invalid unstake time")
	ErrInsufficientPrincipal = New("insufficient principal")
	ErrUnauthorized          = New("unauthorized")
	ErrTransferFailed        = New("transfer failed")
	ErrOverflow              = New("arithmetic overflow")
	ErrInsufficientBalance   = New("insufficient balance")
	ErrInsufficientAllowance = New("insufficient allowance")
	ErrNotInitialized        = New("not initialized")
	ErrAlreadyInitialized    = New("already initialized")
)

type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// IsTimingErr returns whether err is caused by a cooldown or lockup not yet elapsed.
func IsTimingErr(err error) bool {
	return errors.Is(err, ErrInvalidClaimTime) || errors.Is(err, ErrInvalidUnstakeTime)
}

// TransferFailed marks cause as ErrTransferFailed. The cause stays in the chain.
func TransferFailed(cause error) error {
	return &transferError{cause}
}

type transferError struct {
	cause error
}

func (e *transferError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTransferFailed, e.cause)
}

func (e *transferError) Unwrap() []error {
	return []error{ErrTransferFailed, e.cause}
}
