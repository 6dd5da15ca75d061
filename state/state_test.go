// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/lvldb"
)

func newState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

func TestStateStorage(t *testing.T) {
	st, _ := newState(t)
	addr := ledger.BytesToAddress([]byte("account"))
	key := ledger.BytesToBytes32([]byte("key"))

	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	value := ledger.BytesToBytes32([]byte("value"))
	st.SetStorage(addr, key, value)
	v, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, value, v)

	st.SetStorage(addr, key, ledger.Bytes32{})
	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestStateEncodeDecode(t *testing.T) {
	st, _ := newState(t)
	addr := ledger.BytesToAddress([]byte("account"))
	key := ledger.BytesToBytes32([]byte("list"))

	require.NoError(t, st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes([]uint64{1, 2, 3})
	}))

	var decoded []uint64
	require.NoError(t, st.DecodeStorage(addr, key, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &decoded)
	}))
	assert.Equal(t, []uint64{1, 2, 3}, decoded)

	// rlp list values are reported as their hash
	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	raw, _ := st.GetRawStorage(addr, key)
	assert.Equal(t, ledger.Blake2b(raw), v)
}

func TestStateCheckpoint(t *testing.T) {
	st, _ := newState(t)
	addr := ledger.BytesToAddress([]byte("account"))
	key := ledger.BytesToBytes32([]byte("key"))

	st.SetStorage(addr, key, ledger.BytesToBytes32([]byte{1}))
	st.AddEvent(&Event{Name: "first"})

	cp := st.NewCheckpoint()
	st.SetStorage(addr, key, ledger.BytesToBytes32([]byte{2}))
	st.AddEvent(&Event{Name: "second"})

	inner := st.NewCheckpoint()
	st.AddEvent(&Event{Name: "third"})
	st.RevertTo(inner)
	assert.Len(t, st.Events(), 2)

	st.RevertTo(cp)
	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, ledger.BytesToBytes32([]byte{1}), v)
	require.Len(t, st.Events(), 1)
	assert.Equal(t, "first", st.Events()[0].Name)

	// checkpoints are reusable after a revert
	cp = st.NewCheckpoint()
	st.AddEvent(&Event{Name: "fourth"})
	st.RevertTo(cp)
	assert.Len(t, st.Events(), 1)
}

func TestStateCommit(t *testing.T) {
	st, db := newState(t)
	addr := ledger.BytesToAddress([]byte("account"))
	k1 := ledger.BytesToBytes32([]byte("k1"))
	k2 := ledger.BytesToBytes32([]byte("k2"))

	st.SetStorage(addr, k1, ledger.BytesToBytes32([]byte{1}))
	st.SetStorage(addr, k2, ledger.BytesToBytes32([]byte{2}))
	st.SetStorage(addr, k1, ledger.BytesToBytes32([]byte{3}))

	stage := st.Stage()
	assert.Equal(t, 2, stage.Len())
	require.NoError(t, stage.Commit(db.Bulk()))

	reloaded := New(db)
	v, err := reloaded.GetStorage(addr, k1)
	require.NoError(t, err)
	assert.Equal(t, ledger.BytesToBytes32([]byte{3}), v)

	// deleting a slot removes the key from the store
	reloaded.SetStorage(addr, k2, ledger.Bytes32{})
	require.NoError(t, reloaded.Stage().Commit(db.Bulk()))
	has, err := db.Has(storageKey{addr, k2}.Bytes())
	require.NoError(t, err)
	assert.False(t, has)
}
