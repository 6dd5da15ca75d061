// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gascharger

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/vechain/stakeledger/ledger"
)

func TestCharger_Breakdown(t *testing.T) {
	c := New(0)
	assert.NoError(t, c.Charge(ledger.SloadGas))
	assert.NoError(t, c.Charge(2*ledger.SstoreSetGas))
	assert.NoError(t, c.Charge(ledger.SstoreResetGas))
	assert.NoError(t, c.Charge(ledger.EventGas))
	assert.NoError(t, c.Charge(7))

	assert.Equal(t, ledger.SloadGas+2*ledger.SstoreSetGas+ledger.SstoreResetGas+ledger.EventGas+7, c.TotalGas())
	assert.Contains(t, c.Breakdown(), "SSTORE_SET: 2 ops")
	assert.Contains(t, c.Breakdown(), "CUSTOM: 7 gas")
	assert.Equal(t, uint64(0), c.Remaining())
}

func TestCharger_Limit(t *testing.T) {
	c := New(ledger.SstoreSetGas + ledger.SloadGas)
	assert.NoError(t, c.Charge(ledger.SstoreSetGas))
	assert.Equal(t, ledger.SloadGas, c.Remaining())
	assert.NoError(t, c.Charge(ledger.SloadGas))

	err := c.Charge(1)
	assert.True(t, errors.Is(err, ErrOutOfGas))
	assert.Equal(t, uint64(0), c.Remaining())
}
