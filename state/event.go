// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"encoding/json"

	"github.com/vechain/stakeledger/ledger"
)

// Event is a record emitted by a ledger component.
type Event struct {
	Address ledger.Address  `json:"address"`
	Name    string          `json:"name"`
	Time    uint64          `json:"time"`
	Data    json.RawMessage `json:"data"`
}

// Decode unmarshals the event payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}
