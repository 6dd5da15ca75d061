// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/hook"
	ledgerruntime "github.com/vechain/stakeledger/runtime"
)

func TestSelectGenesis(t *testing.T) {
	gene, err := selectGenesis("")
	require.NoError(t, err)
	assert.Equal(t, "devnet", gene.Name())

	_, err = selectGenesis(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPersistentLedger(t *testing.T) {
	gene, err := selectGenesis("")
	require.NoError(t, err)
	dataDir := t.TempDir()
	instanceDir, err := makeInstanceDir(dataDir, gene)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "devnet"), instanceDir)

	open := func() (*ledgerruntime.Executor, func()) {
		mainDB, err := openMainDB(instanceDir, false)
		require.NoError(t, err)
		logDB, err := openLogDB(instanceDir, false)
		require.NoError(t, err)
		hooks := hook.NewRegistry(0)
		require.NoError(t, gene.RegisterRewarders(hooks, 0))
		exec, err := ledgerruntime.New(mainDB, builtin.NewNatives(hooks), ledgerruntime.WithLogDB(logDB))
		require.NoError(t, err)
		return exec, func() {
			logDB.Close()
			mainDB.Close()
		}
	}

	exec, closeFn := open()
	receipt, err := gene.Apply(exec)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	closeFn()

	_, err = os.Stat(filepath.Join(instanceDir, "logs.db"))
	require.NoError(t, err)

	// reopening resumes the ledger instead of applying genesis again
	exec, closeFn = open()
	defer closeFn()
	assert.Equal(t, uint64(1), exec.Seq())
	receipt, err = gene.Apply(exec)
	require.NoError(t, err)
	assert.Nil(t, receipt)

	_, err = makeInstanceDir("", gene)
	assert.Error(t, err)
}

func TestHandleAPITimeout(t *testing.T) {
	var deadline bool
	h := handleAPITimeout(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
	}), time.Second)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/programs", nil))
	assert.True(t, deadline)

	req := httptest.NewRequest(http.MethodGet, "/subscriptions/events", nil)
	req.Header.Set("Upgrade", "websocket")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, deadline, "subscriptions are long lived")
}
