// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gascharger

import (
	"fmt"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/ledger"
)

// ErrOutOfGas is returned once a charger has spent its whole budget.
var ErrOutOfGas = reverts.New("out of gas")

// Charger meters the storage work of a bounded call.
type Charger struct {
	limit          uint64
	sloadOps       uint64
	sstoreSetOps   uint64
	sstoreResetOps uint64
	eventOps       uint64
	customGas      uint64
	totalGas       uint64
}

// New creates a charger allowing at most limit gas. A zero limit means unbounded.
func New(limit uint64) *Charger {
	return &Charger{limit: limit}
}

// Charge records gas usage and fails once the limit is exceeded.
func (c *Charger) Charge(gas uint64) error {
	c.totalGas += gas

	switch {
	case gas%ledger.SstoreSetGas == 0 && gas > 0:
		c.sstoreSetOps += gas / ledger.SstoreSetGas
	case gas%ledger.SstoreResetGas == 0 && gas > 0:
		c.sstoreResetOps += gas / ledger.SstoreResetGas
	case gas%ledger.EventGas == 0 && gas > 0:
		c.eventOps += gas / ledger.EventGas
	case gas%ledger.SloadGas == 0 && gas > 0:
		c.sloadOps += gas / ledger.SloadGas
	default:
		c.customGas += gas
	}

	if c.limit > 0 && c.totalGas > c.limit {
		return ErrOutOfGas
	}
	return nil
}

func (c *Charger) Breakdown() string {
	return fmt.Sprintf(
		"SLOAD: %d ops (%d gas) | SSTORE_SET: %d ops (%d gas) | SSTORE_RESET: %d ops (%d gas) | EVENT: %d ops (%d gas) | CUSTOM: %d gas | TOTAL: %d gas",
		c.sloadOps,
		c.sloadOps*ledger.SloadGas,
		c.sstoreSetOps,
		c.sstoreSetOps*ledger.SstoreSetGas,
		c.sstoreResetOps,
		c.sstoreResetOps*ledger.SstoreResetGas,
		c.eventOps,
		c.eventOps*ledger.EventGas,
		c.customGas,
		c.totalGas,
	)
}

func (c *Charger) TotalGas() uint64 {
	return c.totalGas
}

// Remaining returns the unused budget, zero for an unbounded charger.
func (c *Charger) Remaining() uint64 {
	if c.limit == 0 || c.totalGas >= c.limit {
		return 0
	}
	return c.limit - c.totalGas
}
