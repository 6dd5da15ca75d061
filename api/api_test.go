// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/api"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/test/testledger"
)

func get(t *testing.T, url string, header http.Header) (*http.Response, string) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestAPI(t *testing.T) {
	metrics.InitializePrometheusMetrics()
	s := testledger.NewScenario(t)

	handler, closeFn := api.New(s.Exec, api.Options{
		AllowedOrigins:  "https://example.org, https://Other.org",
		LogsLimit:       100,
		EnableReqLogger: true,
		EnableMetrics:   true,
	})
	ts := httptest.NewServer(handler)
	defer func() {
		closeFn()
		ts.Close()
	}()

	res, body := get(t, ts.URL+"/programs", http.Header{"Origin": {"https://other.org"}})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, s.Program.String())
	assert.Equal(t, "https://other.org", res.Header.Get("Access-Control-Allow-Origin"))

	res, _ = get(t, ts.URL+"/escrows", http.Header{"Origin": {"https://evil.org"}})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))

	res, _ = get(t, ts.URL+"/events?limit=1", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = get(t, ts.URL+"/nothing", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = get(t, ts.URL+"/metrics", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `stakeledger_api_request_count{code="200",method="GET",name="GET /programs"} 1`)
	assert.Contains(t, body, "stakeledger_ops_count")
}
