// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ownable

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/test/datagen"
	"github.com/vechain/stakeledger/xenv"
)

func TestOwnable(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	component, owner, other := datagen.RandAddress(), datagen.RandAddress(), datagen.RandAddress()
	st := state.New(db)
	ctx := solidity.NewContext(component, st, nil)
	as := func(caller ledger.Address) *Ownable {
		return New(ctx, xenv.New(st, &xenv.OpContext{}, caller))
	}

	assert.True(t, errors.Is(as(owner).RequireOwner(), reverts.ErrUnauthorized), "no owner yet")

	require.NoError(t, as(other).Initialize(owner))
	assert.True(t, errors.Is(as(other).Initialize(other), reverts.ErrAlreadyInitialized))

	assert.NoError(t, as(owner).RequireOwner())
	assert.True(t, errors.Is(as(other).RequireOwner(), reverts.ErrUnauthorized))
	assert.True(t, errors.Is(as(other).TransferOwnership(other), reverts.ErrUnauthorized))
	assert.True(t, errors.Is(as(owner).TransferOwnership(ledger.Address{}), reverts.ErrUnauthorized))

	require.NoError(t, as(owner).TransferOwnership(other))
	got, err := as(owner).Owner()
	require.NoError(t, err)
	assert.Equal(t, other, got)
	assert.Len(t, st.Events(), 2)
}
