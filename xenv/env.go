// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/gascharger"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/state"
)

// OpContext describes the operation being executed.
type OpContext struct {
	Name string
	Time uint64 // unix seconds, read once when the operation starts
}

// Environment an env to execute a ledger operation.
// Nested calls share the state and op context but may act as a different caller.
type Environment struct {
	state   *state.State
	opCtx   *OpContext
	caller  ledger.Address
	charger *gascharger.Charger
}

// New create a new env.
func New(state *state.State, opCtx *OpContext, caller ledger.Address) *Environment {
	return &Environment{
		state:  state,
		opCtx:  opCtx,
		caller: caller,
	}
}

func (env *Environment) State() *state.State            { return env.state }
func (env *Environment) OpContext() *OpContext          { return env.opCtx }
func (env *Environment) Time() uint64                   { return env.opCtx.Time }
func (env *Environment) Caller() ledger.Address         { return env.caller }
func (env *Environment) Charger() *gascharger.Charger   { return env.charger }
func (env *Environment) IsCaller(a ledger.Address) bool { return env.caller == a }

// WithCaller returns an env for a nested call made by the given component.
func (env *Environment) WithCaller(caller ledger.Address) *Environment {
	cpy := *env
	cpy.caller = caller
	return &cpy
}

// WithCharger returns an env whose storage access is metered by charger.
func (env *Environment) WithCharger(charger *gascharger.Charger) *Environment {
	cpy := *env
	cpy.charger = charger
	return &cpy
}

// UseGas charges gas if the env is metered.
func (env *Environment) UseGas(gas uint64) error {
	if env.charger == nil {
		return nil
	}
	return env.charger.Charge(gas)
}

// Log records an event emitted by the component at addr.
func (env *Environment) Log(addr ledger.Address, name string, payload any) error {
	if err := env.UseGas(ledger.EventGas); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "encode event %s", name)
	}
	env.state.AddEvent(&state.Event{
		Address: addr,
		Name:    name,
		Time:    env.opCtx.Time,
		Data:    data,
	})
	return nil
}
