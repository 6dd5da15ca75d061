// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/vechain/stakeledger/log"
)

// RequestLoggerHandler returns a http handler logging every request, with requests slower than
// slowThreshold logged at warn level. A zero threshold disables the slow query warning.
func RequestLoggerHandler(handler http.Handler, logger log.Logger, slowThreshold time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Read and log the body (note: this can only be done once)
		// Ensure you don't disrupt the request body for handlers that need to read it
		var bodyBytes []byte
		var err error
		if r.Body != nil {
			bodyBytes, err = io.ReadAll(r.Body)
			if err != nil {
				logger.Warn("unexpected body read error", "err", err)
				return // don't pass bad request to the next handler
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		duration := time.Since(start)

		ctx := []any{
			"DurationMs", duration.Milliseconds(),
			"URI", r.URL.String(),
			"Method", r.Method,
			"Body", string(bodyBytes),
		}
		if slowThreshold > 0 && duration > slowThreshold {
			logger.Warn("API Request slow", ctx...)
		} else {
			logger.Info("API Request", ctx...)
		}
	})
}
