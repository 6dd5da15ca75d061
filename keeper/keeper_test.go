// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package keeper_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/program/pool"
	"github.com/vechain/stakeledger/keeper"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/test"
	"github.com/vechain/stakeledger/test/datagen"
	"github.com/vechain/stakeledger/test/testledger"
	"github.com/vechain/stakeledger/xenv"
)

func poolInfo(t *testing.T, s *testledger.Scenario, prog ledger.Address, pid uint64) (pl *pool.Pool) {
	s.View(func(env *xenv.Environment) (err error) {
		pl, err = s.Natives.Program(prog, env).PoolInfo(pid)
		return
	})
	return
}

func TestKeeper_Run(t *testing.T) {
	alice := datagen.RandAddress()
	s := testledger.NewScenario(t, alice)
	require.NoError(t, s.SetRate(big.NewInt(1e16), 1000))
	require.NoError(t, s.JoinAndDeposit(alice, datagen.Units(1)))

	// a program without pools is updated too
	s.CreateProgram(s.Admin, s.Reward)

	k, err := keeper.New(s.Exec, keeper.DefaultSpec)
	require.NoError(t, err)

	s.Advance(100)
	pending := s.Pending(s.Program, s.PoolID, alice)
	assert.Equal(t, 2, k.Run())

	pl := poolInfo(t, s, s.Program, s.PoolID)
	assert.Equal(t, s.Now(), pl.LastAccrualTime)
	assert.Equal(t, big.NewInt(1e12), pl.AccRewardPerShare)
	assert.Equal(t, pending, s.Pending(s.Program, s.PoolID, alice), "updating does not change what is owed")

	receipt, err := k.UpdateProgram(s.Program)
	require.NoError(t, err)
	assert.Equal(t, keeper.Address, receipt.Caller)
	assert.Empty(t, receipt.Events, "nothing elapsed")
}

func TestKeeper_BadSpec(t *testing.T) {
	s := testledger.NewScenario(t)
	_, err := keeper.New(s.Exec, "not a spec")
	assert.Error(t, err)

	k, err := keeper.New(s.Exec, "@every 1h")
	require.NoError(t, err)
	k.Start()
	k.Stop()
}

func TestKeeper_Schedule(t *testing.T) {
	alice := datagen.RandAddress()
	s := testledger.NewScenario(t, alice)
	require.NoError(t, s.SetRate(big.NewInt(1e16), 1000))
	require.NoError(t, s.JoinAndDeposit(alice, datagen.Units(1)))
	s.Advance(30)

	k, err := keeper.New(s.Exec, "* * * * * *")
	require.NoError(t, err)
	k.Start()
	defer k.Stop()

	err = test.WaitFor(func() (bool, error) {
		return poolInfo(t, s, s.Program, s.PoolID).LastAccrualTime == s.Now(), nil
	}, 100*time.Millisecond, 5*time.Second)
	assert.NoError(t, err)
}
