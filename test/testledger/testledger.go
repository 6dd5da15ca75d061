// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testledger wires an in-memory ledger with a fake clock for tests.
package testledger

import (
	"math/big"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/escrow"
	"github.com/vechain/stakeledger/builtin/hook"
	"github.com/vechain/stakeledger/builtin/program"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/xenv"
)

// Genesis is the start time of every test ledger.
var Genesis = time.Unix(1_700_000_000, 0)

type Ledger struct {
	t       testing.TB
	Clock   *clockwork.FakeClock
	Hooks   *hook.Registry
	Natives *builtin.Natives
	Exec    *runtime.Executor
	LogDB   *logdb.LogDB
}

// New creates an empty ledger at Genesis.
func New(t testing.TB) *Ledger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		logDB.Close()
	})

	clock := clockwork.NewFakeClockAt(Genesis)
	hooks := hook.NewRegistry(0)
	natives := builtin.NewNatives(hooks)
	exec, err := runtime.New(db, natives, runtime.WithClock(clock), runtime.WithLogDB(logDB))
	require.NoError(t, err)

	return &Ledger{
		t:       t,
		Clock:   clock,
		Hooks:   hooks,
		Natives: natives,
		Exec:    exec,
		LogDB:   logDB,
	}
}

// Now returns the ledger time in unix seconds.
func (l *Ledger) Now() uint64 {
	return uint64(l.Clock.Now().Unix())
}

// Advance moves the ledger clock forward by secs seconds.
func (l *Ledger) Advance(secs uint64) {
	l.Clock.Advance(time.Duration(secs) * time.Second)
}

// Do executes fn as an operation by caller.
func (l *Ledger) Do(caller ledger.Address, fn func(env *xenv.Environment) error) error {
	_, err := l.Exec.Execute(caller, "test", fn)
	return err
}

// MustDo executes fn and fails the test on error.
func (l *Ledger) MustDo(caller ledger.Address, fn func(env *xenv.Environment) error) *runtime.Receipt {
	receipt, err := l.Exec.Execute(caller, "test", fn)
	require.NoError(l.t, err)
	return receipt
}

// View runs fn read-only at the current time.
func (l *Ledger) View(fn func(env *xenv.Environment) error) {
	require.NoError(l.t, l.Exec.Call(fn))
}

// NewToken returns the address of a fresh token named symbol.
func (l *Ledger) NewToken(symbol string) ledger.Address {
	addr := ledger.CreateAddress("token", []byte(symbol))
	l.MustDo(ledger.Address{}, func(env *xenv.Environment) error {
		return token.New(addr, env).SetSymbol(symbol)
	})
	return addr
}

func (l *Ledger) Mint(tok, to ledger.Address, amount *big.Int) {
	l.MustDo(ledger.Address{}, func(env *xenv.Environment) error {
		return token.New(tok, env).Mint(to, amount)
	})
}

func (l *Ledger) Approve(tok, owner, spender ledger.Address, amount *big.Int) {
	l.MustDo(owner, func(env *xenv.Environment) error {
		return token.New(tok, env).Approve(owner, spender, amount)
	})
}

func (l *Ledger) Balance(tok, owner ledger.Address) (bal *big.Int) {
	l.View(func(env *xenv.Environment) (err error) {
		bal, err = token.New(tok, env).BalanceOf(owner)
		return
	})
	return
}

// CreateEscrow creates the escrow of asset.
func (l *Ledger) CreateEscrow(asset ledger.Address, name string) (addr ledger.Address) {
	l.MustDo(ledger.Address{}, func(env *xenv.Environment) (err error) {
		addr, err = l.Natives.CreateEscrow(env, asset, name)
		return
	})
	return
}

// CreateProgram creates a program owned by owner paying rewardAsset.
func (l *Ledger) CreateProgram(owner, rewardAsset ledger.Address) (addr ledger.Address) {
	l.MustDo(owner, func(env *xenv.Environment) (err error) {
		addr, err = l.Natives.CreateProgram(env, rewardAsset)
		return
	})
	return
}

// RunProgram runs fn on the program at addr as caller.
func (l *Ledger) RunProgram(caller, addr ledger.Address, fn func(p *program.Program) error) error {
	return l.Do(caller, func(env *xenv.Environment) error {
		return fn(l.Natives.Program(addr, env))
	})
}

// RunEscrow runs fn on the escrow at addr as caller.
func (l *Ledger) RunEscrow(caller, addr ledger.Address, fn func(e *escrow.Escrow) error) error {
	return l.Do(caller, func(env *xenv.Environment) error {
		return fn(l.Natives.Escrow(addr, env))
	})
}

// Pending returns the pending reward of user in pool pid of prog.
func (l *Ledger) Pending(prog ledger.Address, pid uint64, user ledger.Address) (pending *big.Int) {
	l.View(func(env *xenv.Environment) (err error) {
		pending, err = l.Natives.Program(prog, env).PendingReward(pid, user)
		return
	})
	return
}

// StakeOf returns the tracked stake of user in pool pid of prog.
func (l *Ledger) StakeOf(prog ledger.Address, pid uint64, user ledger.Address) *big.Int {
	var staked *big.Int
	l.View(func(env *xenv.Environment) error {
		pos, err := l.Natives.Program(prog, env).UserInfo(pid, user)
		if err != nil {
			return err
		}
		staked = pos.Staked
		return nil
	})
	return staked
}

// EscrowBalance returns the custody balance of user in esc.
func (l *Ledger) EscrowBalance(esc, user ledger.Address) (bal *big.Int) {
	l.View(func(env *xenv.Environment) (err error) {
		bal, err = l.Natives.Escrow(esc, env).BalanceOf(user)
		return
	})
	return
}
