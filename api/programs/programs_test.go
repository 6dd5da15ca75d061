// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package programs_test

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/api/programs"
	"github.com/vechain/stakeledger/test/datagen"
	"github.com/vechain/stakeledger/test/testledger"
)

func newServer(t *testing.T) (*testledger.Scenario, *httptest.Server) {
	alice := datagen.RandAddress()
	s := testledger.NewScenario(t, alice)
	require.NoError(t, s.SetRate(big.NewInt(1e16), 1000))
	require.NoError(t, s.JoinAndDeposit(alice, datagen.Units(1)))
	s.Advance(10)

	router := mux.NewRouter()
	programs.New(s.Exec).Mount(router, "/programs")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return s, ts
}

func httpDo(t *testing.T, method, url string) ([]byte, int) {
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func decode(t *testing.T, body []byte, v any) {
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func TestPrograms(t *testing.T) {
	s, ts := newServer(t)
	base := ts.URL + "/programs/" + s.Program.String()

	t.Run("list", func(t *testing.T) {
		body, code := httpDo(t, http.MethodGet, ts.URL+"/programs")
		require.Equal(t, http.StatusOK, code)
		var list []*programs.Program
		decode(t, body, &list)
		require.Len(t, list, 1)
		assert.Equal(t, s.Program, list[0].Address)
		assert.Equal(t, s.Admin, list[0].Owner)
		assert.Equal(t, s.Reward, list[0].RewardAsset)
		assert.Equal(t, uint64(1), list[0].PoolLength)
		assert.Equal(t, uint64(1000), list[0].TotalAllocWeight)
		assert.Equal(t, big.NewInt(1e16), (*big.Int)(list[0].Schedule.RatePerSecond))
		assert.Equal(t, s.Now()+990, list[0].Schedule.EndTime)
	})

	t.Run("pool", func(t *testing.T) {
		body, code := httpDo(t, http.MethodGet, base+"/pools/0")
		require.Equal(t, http.StatusOK, code)
		var pl programs.Pool
		decode(t, body, &pl)
		assert.Equal(t, s.Staked, pl.StakedAsset)
		assert.Equal(t, datagen.Units(1), (*big.Int)(pl.TotalStaked))
		assert.Nil(t, pl.Rewarder)
		assert.Equal(t, s.Now()-10, pl.LastAccrualTime)
	})

	t.Run("position", func(t *testing.T) {
		body, code := httpDo(t, http.MethodGet, base+"/pools/0/users/"+datagen.RandAddress().String())
		require.Equal(t, http.StatusOK, code)
		var pos programs.Position
		decode(t, body, &pos)
		assert.Zero(t, (*big.Int)(pos.Staked).Sign())
		assert.Zero(t, (*big.Int)(pos.Pending).Sign())
	})

	t.Run("errors", func(t *testing.T) {
		_, code := httpDo(t, http.MethodGet, ts.URL+"/programs/"+datagen.RandAddress().String())
		assert.Equal(t, http.StatusNotFound, code)
		_, code = httpDo(t, http.MethodGet, ts.URL+"/programs/nope")
		assert.Equal(t, http.StatusBadRequest, code)
		_, code = httpDo(t, http.MethodGet, base+"/pools/7")
		assert.Equal(t, http.StatusBadRequest, code, "invalid pool")
		_, code = httpDo(t, http.MethodGet, base+"/pools/x")
		assert.Equal(t, http.StatusBadRequest, code)
		_, code = httpDo(t, http.MethodPost, ts.URL+"/programs/"+datagen.RandAddress().String()+"/update")
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestPrograms_Position(t *testing.T) {
	alice := datagen.RandAddress()
	s := testledger.NewScenario(t, alice)
	require.NoError(t, s.SetRate(big.NewInt(1e16), 1000))
	require.NoError(t, s.JoinAndDeposit(alice, datagen.Units(1)))
	s.Advance(10)

	router := mux.NewRouter()
	programs.New(s.Exec).Mount(router, "/programs")
	ts := httptest.NewServer(router)
	defer ts.Close()

	body, code := httpDo(t, http.MethodGet, ts.URL+"/programs/"+s.Program.String()+"/pools/0/users/"+alice.String())
	require.Equal(t, http.StatusOK, code)
	var pos programs.Position
	decode(t, body, &pos)
	assert.Equal(t, datagen.Units(1), (*big.Int)(pos.Staked))
	assert.Equal(t, big.NewInt(1e17), (*big.Int)(pos.Pending))
}

func TestPrograms_Update(t *testing.T) {
	s, ts := newServer(t)
	base := ts.URL + "/programs/" + s.Program.String()

	body, code := httpDo(t, http.MethodPost, base+"/pools/0/update")
	require.Equal(t, http.StatusOK, code)
	var receipt programs.Receipt
	decode(t, body, &receipt)
	assert.Equal(t, s.Exec.Seq(), receipt.Seq)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, "LogUpdatePool", receipt.Events[0].Name)

	// the pool is already current
	body, code = httpDo(t, http.MethodPost, base+"/update")
	require.Equal(t, http.StatusOK, code)
	decode(t, body, &receipt)
	assert.Empty(t, receipt.Events)

	_, code = httpDo(t, http.MethodPost, base+"/pools/3/update")
	assert.Equal(t, http.StatusBadRequest, code)
}
