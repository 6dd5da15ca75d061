// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package permit

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/test/datagen"
	"github.com/vechain/stakeledger/xenv"
)

func newPermit(t *testing.T) *Permit {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(xenv.New(state.New(db), &xenv.OpContext{}, ledger.Address{}))
}

func TestVerifyAndConsume(t *testing.T) {
	p := newPermit(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	grantor := ledger.Address(crypto.PubkeyToAddress(key.PublicKey))
	domain := datagen.RandAddress()

	grant := &Grant{
		Grantor:  grantor,
		Grantee:  datagen.RandAddress(),
		Scope:    ScopeHarvest,
		Value:    big.NewInt(1000),
		Deadline: 2000,
	}
	sig, err := Sign(key, domain, grant)
	require.NoError(t, err)

	signer, err := Signer(domain, grant, sig)
	require.NoError(t, err)
	assert.Equal(t, grantor, signer)

	ok, err := p.VerifyAndConsume(domain, grant, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	// single use
	ok, err = p.VerifyAndConsume(domain, grant, sig)
	require.NoError(t, err)
	assert.False(t, ok)

	nonce, err := p.Nonce(domain, grantor, ScopeHarvest)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	// nonces are independent per scope
	nonce, err = p.Nonce(domain, grantor, ScopeTransfer)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)
}

func TestVerifyAndConsume_Rejects(t *testing.T) {
	p := newPermit(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	grantor := ledger.Address(crypto.PubkeyToAddress(key.PublicKey))
	domain := datagen.RandAddress()

	grant := &Grant{Grantor: grantor, Scope: ScopeTransfer, Value: big.NewInt(5), Deadline: 10}

	tests := []struct {
		name   string
		sig    func() []byte
		mutate func(g *Grant)
	}{
		{"wrong signer", func() []byte { s, _ := Sign(other, domain, grant); return s }, nil},
		{"other domain", func() []byte { s, _ := Sign(key, datagen.RandAddress(), grant); return s }, nil},
		{"tampered value", func() []byte { s, _ := Sign(key, domain, grant); return s }, func(g *Grant) { g.Value = big.NewInt(6) }},
		{"future nonce", func() []byte { s, _ := Sign(key, domain, grant); return s }, func(g *Grant) { g.Nonce = 1 }},
		{"short signature", func() []byte { return []byte{1, 2, 3} }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := *grant
			sig := tt.sig()
			if tt.mutate != nil {
				tt.mutate(&g)
			}
			ok, err := p.VerifyAndConsume(domain, &g, sig)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSigner_LegacyV(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	domain := datagen.RandAddress()
	grant := &Grant{Grantor: ledger.Address(crypto.PubkeyToAddress(key.PublicKey)), Scope: ScopeJoin}

	sig, err := Sign(key, domain, grant)
	require.NoError(t, err)
	sig[64] += 27

	signer, err := Signer(domain, grant, sig)
	require.NoError(t, err)
	assert.Equal(t, grant.Grantor, signer)
	assert.Equal(t, "join", ScopeJoin.String())
}
