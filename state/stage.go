// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakeledger/kv"
)

// Stage abstracts changes to be written into the store.
type Stage struct {
	changes map[storageKey]rlp.RawValue
}

// Len returns count of changed storage slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Commit writes all changes with a single bulk write.
func (s *Stage) Commit(bulk kv.Bulk) error {
	for k, v := range s.changes {
		var err error
		if len(v) == 0 {
			err = bulk.Delete(k.Bytes())
		} else {
			err = bulk.Put(k.Bytes(), v)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{err}
	}
	return nil
}
