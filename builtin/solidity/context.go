// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/vechain/stakeledger/builtin/gascharger"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/state"
)

// Context binds typed storage to a component address.
type Context struct {
	address ledger.Address
	state   *state.State
	charger *gascharger.Charger
}

// NewContext creates a storage context. A nil charger leaves storage access unmetered.
func NewContext(address ledger.Address, state *state.State, charger *gascharger.Charger) *Context {
	return &Context{
		address: address,
		state:   state,
		charger: charger,
	}
}

func (c *Context) Address() ledger.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) UseGas(gas uint64) error {
	if c.charger != nil {
		return c.charger.Charge(gas)
	}
	return nil
}
