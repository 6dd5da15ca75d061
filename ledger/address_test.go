// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"prefixed", "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"no prefix", "7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"bad prefix", "0y7567d83b7b8d80addcb281a71d54fc7b3364ffed", true},
		{"too short", "0x7567", true},
		{"not hex", "0x7567d83b7b8d80addcb281a71d54fc7b3364ffzz", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddress(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())
		})
	}
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("escrow"))
	data, err := json.Marshal(map[string]Address{"a": addr})
	require.NoError(t, err)

	var decoded map[string]Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded["a"])
	assert.False(t, addr.IsZero())
	assert.True(t, Address{}.IsZero())
}

func TestCreateAddress(t *testing.T) {
	a := CreateAddress("escrow", []byte{1})
	b := CreateAddress("escrow", []byte{1})
	c := CreateAddress("program", []byte{1})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestBytesToBytes32(t *testing.T) {
	b := BytesToBytes32([]byte{1, 2})
	assert.Equal(t, byte(1), b[30])
	assert.Equal(t, byte(2), b[31])

	parsed, err := ParseBytes32(b.String())
	require.NoError(t, err)
	assert.Equal(t, b, parsed)

	assert.NotEqual(t, Blake2b([]byte("a")), Keccak256([]byte("a")))
}
