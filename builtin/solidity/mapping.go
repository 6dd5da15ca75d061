// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"encoding/binary"
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakeledger/ledger"
)

type Key interface {
	Bytes() []byte
}

// Index is a numeric mapping key.
type Index uint64

func (i Index) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i))
	return b[:]
}

// PairKey derives a single key from two addresses, e.g. (owner, spender).
func PairKey(a, b ledger.Address) ledger.Bytes32 {
	return ledger.Blake2b(a.Bytes(), b.Bytes())
}

// Mapping is a key/value storage abstraction for built-in contracts, similar to the mapping in Solidity.
// Values are rlp encoded at position blake2b(key, basePos). A missing entry decodes to the zero value.
type Mapping[K Key, V any] struct {
	context *Context
	basePos ledger.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos ledger.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) ledger.Bytes32 {
	return ledger.Blake2b(key.Bytes(), m.basePos.Bytes())
}

func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.context.address, m.position(key), func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return m.context.UseGas(ledger.SloadGas)
		}
		slots := (uint64(len(raw)) + 31) / 32
		if err := m.context.UseGas(slots * ledger.SloadGas); err != nil {
			return err
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Exists reports whether an entry was ever set for key and not deleted.
func (m *Mapping[K, V]) Exists(key K) (bool, error) {
	if err := m.context.UseGas(ledger.SloadGas); err != nil {
		return false, err
	}
	raw, err := m.context.state.GetRawStorage(m.context.address, m.position(key))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

func (m *Mapping[K, V]) Set(key K, value V, newValue bool) error {
	return m.context.state.EncodeStorage(m.context.address, m.position(key), func() ([]byte, error) {
		val, err := rlp.EncodeToBytes(value)
		if err != nil {
			return nil, err
		}
		slots := (uint64(len(val)) + 31) / 32
		if newValue {
			err = m.context.UseGas(slots * ledger.SstoreSetGas)
		} else {
			err = m.context.UseGas(slots * ledger.SstoreResetGas)
		}
		if err != nil {
			return nil, err
		}
		return val, nil
	})
}

// Delete clears the entry of key.
func (m *Mapping[K, V]) Delete(key K) error {
	if err := m.context.UseGas(ledger.SstoreResetGas); err != nil {
		return err
	}
	m.context.state.SetRawStorage(m.context.address, m.position(key), nil)
	return nil
}
