// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package hook runs the optional, untrusted rewarder attached to a pool.
//
// A rewarder is invoked after a program has settled a position. It runs on a metered
// environment inside its own checkpoint: if it fails, panics or spends more than its budget,
// its writes are discarded and the invoking operation fails with an *Error.
package hook

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/vechain/stakeledger/builtin/gascharger"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "hook")

// BalanceChange describes the settled position passed to a rewarder.
type BalanceChange struct {
	Program   ledger.Address
	PoolID    uint64
	User      ledger.Address
	NewAmount *big.Int
	Recipient ledger.Address
	// primary reward transferred to Recipient by this settlement
	Reward *big.Int
}

// Rewarder is the secondary reward hook.
type Rewarder interface {
	OnBalanceChange(env *xenv.Environment, change *BalanceChange) error
}

// Error is returned when a rewarder fails. It matches reverts.ErrHookFailed and its cause.
type Error struct {
	Rewarder ledger.Address
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("rewarder %v: %v", e.Rewarder, e.Cause)
}

func (e *Error) Unwrap() []error {
	return []error{reverts.ErrHookFailed, e.Cause}
}

// Registry resolves rewarder addresses to implementations and invokes them under a budget.
type Registry struct {
	mu        sync.RWMutex
	rewarders map[ledger.Address]Rewarder
	gasLimit  uint64
}

// NewRegistry creates a registry whose invocations may spend at most gasLimit.
func NewRegistry(gasLimit uint64) *Registry {
	if gasLimit == 0 {
		gasLimit = ledger.HookGasLimit
	}
	return &Registry{
		rewarders: make(map[ledger.Address]Rewarder),
		gasLimit:  gasLimit,
	}
}

func (r *Registry) Register(addr ledger.Address, rewarder Rewarder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rewarders[addr] = rewarder
}

func (r *Registry) Resolve(addr ledger.Address) (Rewarder, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rw, ok := r.rewarders[addr]
	return rw, ok
}

// Known reports whether addr resolves to a rewarder.
func (r *Registry) Known(addr ledger.Address) bool {
	_, ok := r.Resolve(addr)
	return ok
}

func (r *Registry) GasLimit() uint64 {
	if r == nil {
		return ledger.HookGasLimit
	}
	return r.gasLimit
}

// Invoke calls the rewarder at addr on behalf of change.Program.
func (r *Registry) Invoke(env *xenv.Environment, addr ledger.Address, change *BalanceChange) error {
	rewarder, ok := r.Resolve(addr)
	if !ok {
		return &Error{Rewarder: addr, Cause: reverts.ErrUnknownComponent}
	}

	st := env.State()
	checkpoint := st.NewCheckpoint()
	charger := gascharger.New(r.GasLimit())
	hookEnv := env.WithCaller(change.Program).WithCharger(charger)

	if err := safeCall(func() error { return rewarder.OnBalanceChange(hookEnv, change) }); err != nil {
		st.RevertTo(checkpoint)
		logger.Warn("rewarder failed", "rewarder", addr, "pool", change.PoolID, "user", change.User, "gas", charger.TotalGas(), "error", err)
		return &Error{Rewarder: addr, Cause: err}
	}
	logger.Debug("rewarder done", "rewarder", addr, "gas", charger.Breakdown())
	return nil
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("panic: %v", e)
		}
	}()
	return fn()
}
