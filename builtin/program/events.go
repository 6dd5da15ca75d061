// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package program

import (
	"math/big"

	"github.com/vechain/stakeledger/ledger"
)

type PoolAdditionEvent struct {
	PoolID      uint64         `json:"poolId"`
	AllocWeight uint64         `json:"allocWeight"`
	StakedAsset ledger.Address `json:"stakedAsset"`
	Rewarder    ledger.Address `json:"rewarder"`
}

type SetPoolEvent struct {
	PoolID      uint64         `json:"poolId"`
	AllocWeight uint64         `json:"allocWeight"`
	Rewarder    ledger.Address `json:"rewarder"`
	Overwrite   bool           `json:"overwrite"`
}

type UpdatePoolEvent struct {
	PoolID            uint64   `json:"poolId"`
	LastAccrualTime   uint64   `json:"lastAccrualTime"`
	TotalStaked       *big.Int `json:"totalStaked"`
	AccRewardPerShare *big.Int `json:"accRewardPerShare"`
}

type PositionEvent struct {
	PoolID uint64         `json:"poolId"`
	User   ledger.Address `json:"user"`
	Amount *big.Int       `json:"amount"`
	To     ledger.Address `json:"to"`
}

type RewardAddedEvent struct {
	Amount        *big.Int `json:"amount"`
	RatePerSecond *big.Int `json:"ratePerSecond"`
	EndTime       uint64   `json:"endTime"`
}

type RatePerSecondEvent struct {
	RatePerSecond *big.Int `json:"ratePerSecond"`
	EndTime       uint64   `json:"endTime"`
	Shortfall     *big.Int `json:"shortfall"`
}
