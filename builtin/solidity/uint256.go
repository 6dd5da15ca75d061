// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/vechain/stakeledger/fixedpoint"
	"github.com/vechain/stakeledger/ledger"
)

// Uint256 is a wrapper for storage and retrieval of an uint256. Similar to storing an uint256 in a smart contract.
// Add and Sub are checked, they fail instead of wrapping.
type Uint256 struct {
	context *Context
	pos     ledger.Bytes32
}

func NewUint256(context *Context, slot ledger.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: slot}
}

func (u *Uint256) Get() (*big.Int, error) {
	if err := u.context.UseGas(ledger.SloadGas); err != nil {
		return nil, err
	}
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(storage.Bytes()), nil
}

func (u *Uint256) Set(value *big.Int) error {
	if err := u.context.UseGas(ledger.SstoreResetGas); err != nil {
		return err
	}
	u.context.state.SetStorage(u.context.address, u.pos, ledger.BytesToBytes32(value.Bytes()))
	return nil
}

func (u *Uint256) Add(value *big.Int) (*big.Int, error) {
	storage, err := u.Get()
	if err != nil {
		return nil, err
	}
	sum, err := fixedpoint.Add(storage, value)
	if err != nil {
		return nil, err
	}
	return sum, u.Set(sum)
}

func (u *Uint256) Sub(value *big.Int) (*big.Int, error) {
	storage, err := u.Get()
	if err != nil {
		return nil, err
	}
	diff, err := fixedpoint.Sub(storage, value)
	if err != nil {
		return nil, err
	}
	return diff, u.Set(diff)
}
