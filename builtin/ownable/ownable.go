// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ownable

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/xenv"
)

var slotOwner = ledger.BytesToBytes32([]byte("owner"))

// OwnershipTransferredEvent is logged when the owner changes.
type OwnershipTransferredEvent struct {
	Previous ledger.Address `json:"previous"`
	Owner    ledger.Address `json:"owner"`
}

// Ownable restricts administrative operations of a component to a single owner.
type Ownable struct {
	env   *xenv.Environment
	addr  ledger.Address
	owner *solidity.Address
}

func New(ctx *solidity.Context, env *xenv.Environment) *Ownable {
	return &Ownable{
		env:   env,
		addr:  ctx.Address(),
		owner: solidity.NewAddress(ctx, slotOwner),
	}
}

func (o *Ownable) Owner() (ledger.Address, error) {
	return o.owner.Get()
}

// RequireOwner fails with reverts.ErrUnauthorized unless the env caller owns the component.
func (o *Ownable) RequireOwner() error {
	owner, err := o.owner.Get()
	if err != nil {
		return err
	}
	if owner.IsZero() || owner != o.env.Caller() {
		return errors.WithMessagef(reverts.ErrUnauthorized, "caller %v is not the owner", o.env.Caller())
	}
	return nil
}

// Initialize sets the first owner.
func (o *Ownable) Initialize(owner ledger.Address) error {
	current, err := o.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return reverts.ErrAlreadyInitialized
	}
	return o.set(current, owner)
}

// TransferOwnership hands the component over to newOwner. Only the owner may call it.
func (o *Ownable) TransferOwnership(newOwner ledger.Address) error {
	if err := o.RequireOwner(); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return errors.WithMessage(reverts.ErrUnauthorized, "new owner is the zero address")
	}
	return o.set(o.env.Caller(), newOwner)
}

func (o *Ownable) set(previous, owner ledger.Address) error {
	if err := o.owner.Set(owner); err != nil {
		return err
	}
	return o.env.Log(o.addr, "OwnershipTransferred", &OwnershipTransferredEvent{Previous: previous, Owner: owner})
}
