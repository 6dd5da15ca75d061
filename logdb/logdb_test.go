// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/state"
)

func newEvent(addr ledger.Address, name string, time uint64) *state.Event {
	return &state.Event{
		Address: addr,
		Name:    name,
		Time:    time,
		Data:    json.RawMessage(fmt.Sprintf(`{"time":%d}`, time)),
	}
}

func TestLogDB(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	program := ledger.BytesToAddress([]byte("program"))
	escrow := ledger.BytesToAddress([]byte("escrow"))
	caller := ledger.BytesToAddress([]byte("caller"))

	seq, err := db.LastSeq(ctx)
	require.NoError(t, err)
	assert.Zero(t, seq)

	for i := uint64(1); i <= 10; i++ {
		require.NoError(t, db.Prepare(i, "deposit", caller).
			Insert(newEvent(escrow, "Deposit", 100+i), newEvent(program, "Deposit", 100+i)).
			Commit())
	}
	// empty batch is a no-op
	require.NoError(t, db.Prepare(11, "noop", caller).Commit())

	seq, err = db.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), seq)

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 20)
	assert.Equal(t, "deposit", all[0].OpName)
	assert.Equal(t, caller, all[0].Caller)
	assert.JSONEq(t, `{"time":101}`, string(all[0].Data))

	tests := []struct {
		name   string
		filter *logdb.EventFilter
		count  int
		first  uint64
	}{
		{
			name:   "by address",
			filter: &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Address: &program}}},
			count:  10,
			first:  1,
		},
		{
			name:   "by name and range",
			filter: &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Name: "Deposit"}}, Range: &logdb.Range{From: 103, To: 104}},
			count:  4,
			first:  3,
		},
		{
			name:   "open ended range",
			filter: &logdb.EventFilter{Range: &logdb.Range{From: 109}},
			count:  4,
			first:  9,
		},
		{
			name: "desc with limit",
			filter: &logdb.EventFilter{
				CriteriaSet: []*logdb.EventCriteria{{Address: &escrow}, {Address: &program}},
				Order:       logdb.DESC,
				Options:     &logdb.Options{Offset: 0, Limit: 3},
			},
			count: 3,
			first: 10,
		},
		{
			name:   "after seq",
			filter: &logdb.EventFilter{AfterSeq: 8, CriteriaSet: []*logdb.EventCriteria{{Address: &escrow}}},
			count:  2,
			first:  9,
		},
		{
			name:   "no match",
			filter: &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Address: &caller}}},
			count:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := db.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, events, tt.count)
			if tt.count > 0 {
				assert.Equal(t, tt.first, events[0].OpSeq)
			}
		})
	}
}
