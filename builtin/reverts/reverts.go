// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is a caller-correctable failure. The operation that returned it left the ledger unchanged.
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

// Validation failures shared by the ledger components.
var (
	ErrInvalidPool           = New("invalid pool")
	ErrInsufficientStake     = New("insufficient stake")
	ErrInsufficientFunding   = New("insufficient funding")
	ErrRateOverflow          = New("rate overflow")
	ErrArithmeticOverflow    = New("arithmetic overflow")
	ErrPermitInvalid         = New("permit invalid")
	ErrPermitExpired         = New("permit expired")
	ErrUnauthorized          = New("unauthorized")
	ErrDuplicateAsset        = New("duplicate asset")
	ErrNotRegistered         = New("not registered")
	ErrNotJoined             = New("not joined")
	ErrAlreadyJoined         = New("already joined")
	ErrInsufficientBalance   = New("insufficient balance")
	ErrInsufficientAllowance = New("insufficient allowance")
	ErrZeroAmount            = New("zero amount")
	ErrInvalidEndTime        = New("invalid end time")
	ErrScheduleRunning       = New("reward schedule still running")
	ErrHookFailed            = New("rewarder hook failed")
	ErrUnknownComponent      = New("unknown component")
	ErrAlreadyInitialized    = New("already initialized")
)
