// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrows_test

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

	"github.com/vechain/stakeledger/api/escrows"
	"github.com/vechain/stakeledger/test/datagen"
	"github.com/vechain/stakeledger/test/testledger"
)

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func TestEscrows(t *testing.T) {
	alice, bob := datagen.RandAddress(), datagen.RandAddress()
	s := testledger.NewScenario(t, alice, bob)
	require.NoError(t, s.SetRate(big.NewInt(1e16), 1000))
	require.NoError(t, s.JoinAndDeposit(alice, datagen.Units(1)))
	s.Advance(10)

	router := mux.NewRouter()
	escrows.New(s.Exec).Mount(router, "/escrows")
	ts := httptest.NewServer(router)
	defer ts.Close()

	t.Run("list", func(t *testing.T) {
		body, code := httpGet(t, ts.URL+"/escrows")
		require.Equal(t, http.StatusOK, code)
		var list []*escrows.Escrow
		require.NoError(t, json.Unmarshal(body, &list))
		require.Len(t, list, 1)
		assert.Equal(t, s.Escrow, list[0].Address)
		assert.Equal(t, s.Staked, list[0].StakedAsset)
		assert.Equal(t, "Staked STK", list[0].Name)
		assert.Equal(t, datagen.Units(1), (*big.Int)(list[0].TotalSupply))
	})

	t.Run("joined account", func(t *testing.T) {
		body, code := httpGet(t, ts.URL+"/escrows/"+s.Escrow.String()+"/accounts/"+alice.String())
		require.Equal(t, http.StatusOK, code)
		var acc escrows.Account
		require.NoError(t, json.Unmarshal(body, &acc))
		assert.Equal(t, datagen.Units(1), (*big.Int)(acc.Balance))
		require.Len(t, acc.Joined, 1)
		assert.Equal(t, s.Program, acc.Joined[0].Program)
		assert.Equal(t, s.PoolID, acc.Joined[0].PoolID)
		assert.Equal(t, big.NewInt(1e17), (*big.Int)(acc.Joined[0].Pending))
	})

	t.Run("idle account", func(t *testing.T) {
		body, code := httpGet(t, ts.URL+"/escrows/"+s.Escrow.String()+"/accounts/"+bob.String())
		require.Equal(t, http.StatusOK, code)
		var acc escrows.Account
		require.NoError(t, json.Unmarshal(body, &acc))
		assert.Zero(t, (*big.Int)(acc.Balance).Sign())
		assert.Empty(t, acc.Joined)
	})

	t.Run("unknown escrow", func(t *testing.T) {
		_, code := httpGet(t, ts.URL+"/escrows/"+s.Program.String()+"/accounts/"+bob.String())
		assert.Equal(t, http.StatusNotFound, code)
		_, code = httpGet(t, ts.URL+"/escrows/"+s.Escrow.String()+"/accounts/bob")
		assert.Equal(t, http.StatusBadRequest, code)
	})
}
