// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/test/datagen"
	"github.com/vechain/stakeledger/xenv"
)

var genesis = time.Unix(1_700_000_000, 0)

func newExecutor(t *testing.T, db *lvldb.LevelDB, clock clockwork.Clock, opts ...runtime.Option) *runtime.Executor {
	opts = append(opts, runtime.WithClock(clock))
	exec, err := runtime.New(db, builtin.NewNatives(nil), opts...)
	require.NoError(t, err)
	return exec
}

func mint(tok, to ledger.Address, amount int64) func(env *xenv.Environment) error {
	return func(env *xenv.Environment) error {
		return token.New(tok, env).Mint(to, big.NewInt(amount))
	}
}

func balance(t *testing.T, exec *runtime.Executor, tok, owner ledger.Address) (bal *big.Int) {
	require.NoError(t, exec.Call(func(env *xenv.Environment) (err error) {
		bal, err = token.New(tok, env).BalanceOf(owner)
		return
	}))
	return
}

func TestExecutor_Commit(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	defer logDB.Close()

	clock := clockwork.NewFakeClockAt(genesis)
	exec := newExecutor(t, db, clock, runtime.WithLogDB(logDB))
	tok, user := datagen.RandAddress(), datagen.RandAddress()

	receipt, err := exec.Execute(user, "mint", mint(tok, user, 5))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Seq)
	assert.Equal(t, "mint", receipt.Op)
	assert.Equal(t, user, receipt.Caller)
	assert.Equal(t, uint64(genesis.Unix()), receipt.Time)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, "Transfer", receipt.Events[0].Name)

	assert.Equal(t, big.NewInt(5), balance(t, exec, tok, user))
	assert.Equal(t, uint64(1), exec.Seq())

	events, err := exec.Events(context.Background(), &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{{Address: &tok}},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(1), events[0].OpSeq)
	assert.Equal(t, "mint", events[0].OpName)
	assert.Equal(t, user, events[0].Caller)
}

func TestExecutor_Revert(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	exec := newExecutor(t, db, clockwork.NewFakeClockAt(genesis))
	tok, user := datagen.RandAddress(), datagen.RandAddress()

	_, err = exec.Execute(user, "mint", func(env *xenv.Environment) error {
		if err := mint(tok, user, 5)(env); err != nil {
			return err
		}
		return reverts.ErrUnauthorized
	})
	assert.True(t, errors.Is(err, reverts.ErrUnauthorized))
	assert.Zero(t, balance(t, exec, tok, user).Sign())
	assert.Zero(t, exec.Seq())

	_, err = exec.Events(context.Background(), &logdb.EventFilter{})
	assert.Error(t, err, "no archive configured")
}

func TestExecutor_Resume(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(genesis)
	tok, user := datagen.RandAddress(), datagen.RandAddress()

	exec := newExecutor(t, db, clock)
	for range 3 {
		_, err := exec.Execute(user, "mint", mint(tok, user, 1))
		require.NoError(t, err)
	}
	clock.Advance(time.Minute)
	_, err = exec.Execute(user, "mint", mint(tok, user, 1))
	require.NoError(t, err)

	// a restarted executor on a clock behind the ledger keeps time monotonic
	resumed := newExecutor(t, db, clockwork.NewFakeClockAt(genesis))
	assert.Equal(t, uint64(4), resumed.Seq())
	receipt, err := resumed.Execute(user, "mint", mint(tok, user, 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), receipt.Seq)
	assert.Equal(t, uint64(genesis.Add(time.Minute).Unix()), receipt.Time)
	assert.Equal(t, big.NewInt(5), balance(t, resumed, tok, user))
}

func TestExecutor_Wait(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	exec := newExecutor(t, db, clockwork.NewFakeClockAt(genesis))

	wait := exec.Wait(exec.Seq())
	select {
	case <-wait:
		t.Fatal("nothing committed yet")
	default:
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-wait
	}()
	_, err = exec.Execute(datagen.RandAddress(), "noop", func(*xenv.Environment) error { return nil })
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter not notified")
	}

	// already past
	select {
	case <-exec.Wait(0):
	default:
		t.Fatal("expected a closed channel")
	}
}
