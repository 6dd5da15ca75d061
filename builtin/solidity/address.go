// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/vechain/stakeledger/ledger"
)

// Address is a wrapper for storage and retrieval of an address. Similar to storing an address in a smart contract.
type Address struct {
	context *Context
	pos     ledger.Bytes32
}

func NewAddress(context *Context, pos ledger.Bytes32) *Address {
	return &Address{context: context, pos: pos}
}

func (a *Address) Get() (ledger.Address, error) {
	if err := a.context.UseGas(ledger.SloadGas); err != nil {
		return ledger.Address{}, err
	}
	storage, err := a.context.state.GetStorage(a.context.address, a.pos)
	if err != nil {
		return ledger.Address{}, err
	}
	return ledger.BytesToAddress(storage.Bytes()), nil
}

func (a *Address) Set(addr ledger.Address) error {
	if err := a.context.UseGas(ledger.SstoreResetGas); err != nil {
		return err
	}
	a.context.state.SetStorage(a.context.address, a.pos, ledger.BytesToBytes32(addr.Bytes()))
	return nil
}
