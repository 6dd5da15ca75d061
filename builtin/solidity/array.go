// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/ledger"
)

// Array is an append-only dense array, similar to a dynamic storage array in Solidity.
// The length lives at pos, the elements in a mapping keyed by index.
type Array[V any] struct {
	length *Uint256
	items  *Mapping[Index, V]
}

func NewArray[V any](context *Context, pos ledger.Bytes32) *Array[V] {
	return &Array[V]{
		length: NewUint256(context, pos),
		items:  NewMapping[Index, V](context, ledger.Blake2b(pos.Bytes())),
	}
}

func (a *Array[V]) Len() (uint64, error) {
	l, err := a.length.Get()
	if err != nil {
		return 0, err
	}
	return l.Uint64(), nil
}

// Get returns the element at index i, failing if i is out of range.
func (a *Array[V]) Get(i uint64) (v V, err error) {
	l, err := a.Len()
	if err != nil {
		return v, err
	}
	if i >= l {
		return v, errors.Errorf("index %d out of range [0, %d)", i, l)
	}
	return a.items.Get(Index(i))
}

// Set overwrites the element at index i.
func (a *Array[V]) Set(i uint64, v V) error {
	l, err := a.Len()
	if err != nil {
		return err
	}
	if i >= l {
		return errors.Errorf("index %d out of range [0, %d)", i, l)
	}
	return a.items.Set(Index(i), v, false)
}

// Push appends v and returns its index.
func (a *Array[V]) Push(v V) (uint64, error) {
	l, err := a.Len()
	if err != nil {
		return 0, err
	}
	if err := a.items.Set(Index(l), v, true); err != nil {
		return 0, err
	}
	if err := a.length.Set(new(big.Int).SetUint64(l + 1)); err != nil {
		return 0, err
	}
	return l, nil
}

// All returns every element in index order.
func (a *Array[V]) All() ([]V, error) {
	l, err := a.Len()
	if err != nil {
		return nil, err
	}
	out := make([]V, 0, l)
	for i := uint64(0); i < l; i++ {
		v, err := a.items.Get(Index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
