// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package schedule

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/ledger"
)

func TestEmissionSince(t *testing.T) {
	s := &Schedule{RatePerSecond: big.NewInt(10), EndTime: 200, LastSettlement: 100}

	tests := []struct {
		name     string
		from, to uint64
		want     int64
	}{
		{"inside", 110, 150, 400},
		{"clamped to end", 150, 1000, 500},
		{"clamped to settlement", 0, 120, 200},
		{"after end", 200, 300, 0},
		{"empty", 150, 150, 0},
		{"reversed", 150, 120, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.EmissionSince(tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, big.NewInt(tt.want), got)
		})
	}

	// zero schedule never emits
	got, err := (&Schedule{}).EmissionSince(0, 1000)
	require.NoError(t, err)
	assert.Zero(t, got.Sign())
}

func TestNextForReward(t *testing.T) {
	expired := &Schedule{RatePerSecond: big.NewInt(5), EndTime: 100}

	next, err := expired.NextForReward(big.NewInt(1001), 200, 100)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), next.RatePerSecond)
	assert.Equal(t, uint64(200), next.EndTime)
	assert.Equal(t, uint64(100), next.LastSettlement)

	_, err = expired.NextForReward(new(big.Int), 200, 100)
	assert.ErrorIs(t, err, reverts.ErrZeroAmount)

	_, err = expired.NextForReward(big.NewInt(1), 100, 100)
	assert.ErrorIs(t, err, reverts.ErrInvalidEndTime)

	_, err = expired.NextForReward(big.NewInt(1), 200, 99)
	assert.ErrorIs(t, err, reverts.ErrScheduleRunning)

	huge := new(big.Int).Lsh(big.NewInt(1), 140)
	_, err = expired.NextForReward(huge, 101, 100)
	assert.ErrorIs(t, err, reverts.ErrRateOverflow)
}

func TestNextForRate(t *testing.T) {
	running := &Schedule{RatePerSecond: big.NewInt(10), EndTime: 200, LastSettlement: 100}

	// remaining 10*50 = 500, needed 4*100 = 400: no shortfall
	next, shortfall, err := running.NextForRate(big.NewInt(4), 250, 150)
	require.NoError(t, err)
	assert.Zero(t, shortfall.Sign())
	assert.Equal(t, big.NewInt(4), next.RatePerSecond)
	assert.Equal(t, uint64(150), next.LastSettlement)

	// needed 20*100 = 2000, shortfall 1500
	_, shortfall, err = running.NextForRate(big.NewInt(20), 250, 150)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), shortfall)

	// expired schedule leaves nothing over
	_, shortfall, err = running.NextForRate(big.NewInt(1), 400, 300)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), shortfall)

	_, _, err = running.NextForRate(big.NewInt(1), 150, 150)
	assert.ErrorIs(t, err, reverts.ErrInvalidEndTime)

	_, _, err = running.NextForRate(new(big.Int).Add(ledger.MaxRate, big.NewInt(1)), 250, 150)
	assert.ErrorIs(t, err, reverts.ErrRateOverflow)

	_, _, err = running.NextForRate(ledger.MaxRate, 250, 150)
	assert.NoError(t, err)
}
