// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/test/datagen"
	"github.com/vechain/stakeledger/xenv"
)

func newToken(t *testing.T) (*Token, *xenv.Environment) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	env := xenv.New(state.New(db), &xenv.OpContext{Time: 1}, ledger.Address{})
	return New(datagen.RandAddress(), env), env
}

func TestToken_MintTransfer(t *testing.T) {
	tok, env := newToken(t)
	alice, bob := datagen.RandAddress(), datagen.RandAddress()

	require.NoError(t, tok.SetSymbol("STK"))
	symbol, err := tok.Symbol()
	require.NoError(t, err)
	assert.Equal(t, "STK", symbol)

	require.NoError(t, tok.Mint(alice, datagen.Units(100)))
	require.NoError(t, tok.Transfer(alice, bob, datagen.Units(30)))

	bal, err := tok.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, datagen.Units(70), bal)
	bal, err = tok.BalanceOf(bob)
	require.NoError(t, err)
	assert.Equal(t, datagen.Units(30), bal)

	supply, err := tok.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, datagen.Units(100), supply)

	err = tok.Transfer(bob, alice, datagen.Units(31))
	assert.True(t, errors.Is(err, reverts.ErrInsufficientBalance))

	events := env.State().Events()
	require.Len(t, events, 2)
	var ev TransferEvent
	require.NoError(t, events[1].Decode(&ev))
	assert.Equal(t, alice, ev.From)
	assert.Equal(t, bob, ev.To)
}

func TestToken_TransferFrom(t *testing.T) {
	tok, _ := newToken(t)
	owner, spender, to := datagen.RandAddress(), datagen.RandAddress(), datagen.RandAddress()

	require.NoError(t, tok.Mint(owner, big.NewInt(1000)))

	err := tok.TransferFrom(spender, owner, to, big.NewInt(1))
	assert.True(t, errors.Is(err, reverts.ErrInsufficientAllowance))

	require.NoError(t, tok.Approve(owner, spender, big.NewInt(600)))
	require.NoError(t, tok.TransferFrom(spender, owner, to, big.NewInt(400)))

	allowance, err := tok.Allowance(owner, spender)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200), allowance)

	err = tok.TransferFrom(spender, owner, to, big.NewInt(201))
	assert.True(t, errors.Is(err, reverts.ErrInsufficientAllowance))

	// owners move their own balance without allowance
	require.NoError(t, tok.TransferFrom(owner, owner, to, big.NewInt(100)))
	bal, err := tok.BalanceOf(to)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), bal)
}
