// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package hook_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/escrow"
	"github.com/vechain/stakeledger/builtin/hook"
	"github.com/vechain/stakeledger/builtin/program"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/test/datagen"
	"github.com/vechain/stakeledger/test/testledger"
	"github.com/vechain/stakeledger/xenv"
)

type rewarderFunc func(env *xenv.Environment, change *hook.BalanceChange) error

func (f rewarderFunc) OnBalanceChange(env *xenv.Environment, change *hook.BalanceChange) error {
	return f(env, change)
}

// attach registers rw and sets it on the scenario pool.
func attach(t *testing.T, s *testledger.Scenario, rw hook.Rewarder) ledger.Address {
	addr := datagen.RandAddress()
	s.Hooks.Register(addr, rw)
	require.NoError(t, s.AsAdmin(func(p *program.Program) error {
		return p.SetPool(s.PoolID, 1000, addr, true)
	}))
	return addr
}

func harvest(s *testledger.Scenario, user ledger.Address) (reward *big.Int, err error) {
	err = s.As(user, func(e *escrow.Escrow) (err error) {
		reward, err = e.Harvest(s.Program)
		return
	})
	return
}

func TestMultiplier(t *testing.T) {
	alice := datagen.RandAddress()
	s := testledger.NewScenario(t, alice)
	bonus := s.NewToken("BONUS")

	addr := datagen.RandAddress()
	s.Hooks.Register(addr, &hook.Multiplier{Address: addr, Token: bonus, Multiplier: datagen.Units(2)})
	require.NoError(t, s.AsAdmin(func(p *program.Program) error {
		return p.SetPool(s.PoolID, 1000, addr, true)
	}))
	s.Mint(bonus, addr, big.NewInt(3e17))

	require.NoError(t, s.SetRate(big.NewInt(1e16), 1000))
	require.NoError(t, s.JoinAndDeposit(alice, datagen.Units(1)))
	s.Advance(10)

	reward, err := harvest(s, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e17), reward)
	assert.Equal(t, big.NewInt(2e17), s.Balance(bonus, alice))

	// capped by what the rewarder holds
	s.Advance(10)
	_, err = harvest(s, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3e17), s.Balance(bonus, alice))
	assert.Zero(t, s.Balance(bonus, addr).Sign())
}

func TestScript(t *testing.T) {
	alice := datagen.RandAddress()
	s := testledger.NewScenario(t, alice)
	bonus := s.NewToken("BONUS")
	addr := datagen.RandAddress()

	script, err := hook.NewScript(addr, bonus, `
		function onBalanceChange(change) {
			if (change.reward === "0" || balance() === "0") {
				return null;
			}
			return "5";
		}
	`, 0)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, script.Timeout)
	s.Hooks.Register(addr, script)
	require.NoError(t, s.AsAdmin(func(p *program.Program) error {
		return p.SetPool(s.PoolID, 1000, addr, true)
	}))
	s.Mint(bonus, addr, big.NewInt(7))

	require.NoError(t, s.SetRate(big.NewInt(1e16), 1000))
	require.NoError(t, s.JoinAndDeposit(alice, datagen.Units(1)))
	assert.Zero(t, s.Balance(bonus, alice).Sign(), "no reward, no payout")

	s.Advance(10)
	_, err = harvest(s, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), s.Balance(bonus, alice))

	// 2 left, paying 5 fails the whole harvest
	s.Advance(10)
	_, err = harvest(s, alice)
	assert.True(t, errors.Is(err, reverts.ErrHookFailed))
	assert.True(t, errors.Is(err, reverts.ErrInsufficientBalance))
	assert.Equal(t, big.NewInt(1e17), s.Balance(s.Reward, alice), "primary reward rolled back too")

	_, err = hook.NewScript(addr, bonus, "function (", 0)
	assert.Error(t, err)
}

func TestScript_Timeout(t *testing.T) {
	alice := datagen.RandAddress()
	s := testledger.NewScenario(t, alice)
	addr := datagen.RandAddress()
	script, err := hook.NewScript(addr, s.Reward, `function onBalanceChange(change) { for (;;) {} }`, 20*time.Millisecond)
	require.NoError(t, err)
	s.Hooks.Register(addr, script)
	require.NoError(t, s.AsAdmin(func(p *program.Program) error {
		return p.SetPool(s.PoolID, 1000, addr, true)
	}))

	err = s.JoinAndDeposit(alice, datagen.Units(1))
	var hookErr *hook.Error
	require.True(t, errors.As(err, &hookErr))
	assert.Equal(t, addr, hookErr.Rewarder)
	assert.Zero(t, s.EscrowBalance(s.Escrow, alice).Sign())
}

func TestRegistry_FailingRewarders(t *testing.T) {
	tests := []struct {
		name string
		rw   hook.Rewarder
	}{
		{"error", rewarderFunc(func(*xenv.Environment, *hook.BalanceChange) error {
			return errors.New("broken")
		})},
		{"panic", rewarderFunc(func(*xenv.Environment, *hook.BalanceChange) error {
			panic("boom")
		})},
		{"out of gas", rewarderFunc(func(env *xenv.Environment, _ *hook.BalanceChange) error {
			return env.UseGas(ledger.HookGasLimit + 1)
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alice := datagen.RandAddress()
			s := testledger.NewScenario(t, alice)
			require.NoError(t, s.SetRate(big.NewInt(1e16), 1000))
			require.NoError(t, s.JoinAndDeposit(alice, datagen.Units(1)))
			attach(t, s, tt.rw)
			s.Advance(10)

			_, err := harvest(s, alice)
			assert.True(t, errors.Is(err, reverts.ErrHookFailed), "got %v", err)
			err = s.As(alice, func(e *escrow.Escrow) error { return e.Withdraw(datagen.Units(1)) })
			assert.True(t, errors.Is(err, reverts.ErrHookFailed))

			// leaving without the rewarder always works
			require.NoError(t, s.As(alice, func(e *escrow.Escrow) error { return e.RageQuit(s.Program) }))
			require.NoError(t, s.As(alice, func(e *escrow.Escrow) error { return e.Withdraw(datagen.Units(1)) }))
			assert.Equal(t, datagen.Units(1000), s.Balance(s.Staked, alice))
			assert.Zero(t, s.Balance(s.Reward, alice).Sign())
		})
	}
}

func TestRegistry_Invoke(t *testing.T) {
	l := testledger.New(t)
	tok := l.NewToken("T")
	prog, user := datagen.RandAddress(), datagen.RandAddress()

	var seenCaller ledger.Address
	failing := datagen.RandAddress()
	l.Hooks.Register(failing, rewarderFunc(func(env *xenv.Environment, change *hook.BalanceChange) error {
		seenCaller = env.Caller()
		if err := token.New(tok, env).Mint(change.User, big.NewInt(1)); err != nil {
			return err
		}
		return errors.New("after write")
	}))
	assert.True(t, l.Hooks.Known(failing))
	assert.False(t, l.Hooks.Known(datagen.RandAddress()))

	change := &hook.BalanceChange{Program: prog, User: user, NewAmount: new(big.Int), Reward: new(big.Int)}
	l.MustDo(user, func(env *xenv.Environment) error {
		err := l.Hooks.Invoke(env, failing, change)
		assert.True(t, errors.Is(err, reverts.ErrHookFailed))

		err = l.Hooks.Invoke(env, datagen.RandAddress(), change)
		assert.True(t, errors.Is(err, reverts.ErrUnknownComponent))
		return nil
	})
	assert.Equal(t, prog, seenCaller)
	assert.Zero(t, l.Balance(tok, user).Sign(), "rewarder writes are discarded")

	var nilRegistry *hook.Registry
	_, ok := nilRegistry.Resolve(failing)
	assert.False(t, ok)
	assert.Equal(t, ledger.HookGasLimit, nilRegistry.GasLimit())
	assert.Equal(t, uint64(10), hook.NewRegistry(10).GasLimit())
}
