// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/vechain/stakeledger/fixedpoint"
	"github.com/vechain/stakeledger/ledger"
)

// Pool is one staked asset of a program.
type Pool struct {
	StakedAsset ledger.Address
	AllocWeight uint64
	// scaled by ledger.Precision
	AccRewardPerShare *big.Int
	LastAccrualTime   uint64
	// replica of the sum of positions, maintained by the program
	TotalStaked *big.Int
	// zero when the pool has no rewarder hook
	Rewarder ledger.Address
}

// HasRewarder reports whether a hook is attached.
func (p *Pool) HasRewarder() bool {
	return !p.Rewarder.IsZero()
}

// ProjectAccumulator returns the accumulator the pool would hold at now.
// emission is the program emission over the elapsed time, split by weight against totalWeight.
func (p *Pool) ProjectAccumulator(emission *big.Int, totalWeight uint64) (*big.Int, error) {
	acc := new(big.Int).Set(p.AccRewardPerShare)
	if p.TotalStaked.Sign() == 0 || totalWeight == 0 || emission.Sign() == 0 {
		return acc, nil
	}
	share, err := fixedpoint.MulDiv(emission, new(big.Int).SetUint64(p.AllocWeight), new(big.Int).SetUint64(totalWeight))
	if err != nil {
		return nil, err
	}
	inc, err := fixedpoint.MulDiv(share, ledger.Precision, p.TotalStaked)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Add(acc, inc)
}
