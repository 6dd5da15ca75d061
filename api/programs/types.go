// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package programs

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakeledger/builtin/program/pool"
	"github.com/vechain/stakeledger/builtin/program/position"
	"github.com/vechain/stakeledger/builtin/program/schedule"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/state"
)

type Schedule struct {
	RatePerSecond  *math.HexOrDecimal256 `json:"ratePerSecond"`
	EndTime        uint64                `json:"endTime"`
	LastSettlement uint64                `json:"lastSettlement"`
}

type Program struct {
	Address          ledger.Address `json:"address"`
	Owner            ledger.Address `json:"owner"`
	RewardAsset      ledger.Address `json:"rewardAsset"`
	PoolLength       uint64         `json:"poolLength"`
	TotalAllocWeight uint64         `json:"totalAllocWeight"`
	Schedule         *Schedule      `json:"schedule"`
}

type Pool struct {
	ID                uint64                `json:"id"`
	StakedAsset       ledger.Address        `json:"stakedAsset"`
	AllocWeight       uint64                `json:"allocWeight"`
	AccRewardPerShare *math.HexOrDecimal256 `json:"accRewardPerShare"`
	LastAccrualTime   uint64                `json:"lastAccrualTime"`
	TotalStaked       *math.HexOrDecimal256 `json:"totalStaked"`
	Rewarder          *ledger.Address       `json:"rewarder"`
}

type Position struct {
	Staked     *math.HexOrDecimal256 `json:"staked"`
	RewardDebt *math.HexOrDecimal256 `json:"rewardDebt"`
	Pending    *math.HexOrDecimal256 `json:"pending"`
}

// Receipt describes a committed update.
type Receipt struct {
	Seq    uint64         `json:"seq"`
	Time   uint64         `json:"time"`
	Events []*state.Event `json:"events"`
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(v)
}

func convertSchedule(s *schedule.Schedule) *Schedule {
	return &Schedule{
		RatePerSecond:  hex(s.RatePerSecond),
		EndTime:        s.EndTime,
		LastSettlement: s.LastSettlement,
	}
}

func convertPool(id uint64, p *pool.Pool) *Pool {
	pl := &Pool{
		ID:                id,
		StakedAsset:       p.StakedAsset,
		AllocWeight:       p.AllocWeight,
		AccRewardPerShare: hex(p.AccRewardPerShare),
		LastAccrualTime:   p.LastAccrualTime,
		TotalStaked:       hex(p.TotalStaked),
	}
	if p.HasRewarder() {
		rewarder := p.Rewarder
		pl.Rewarder = &rewarder
	}
	return pl
}

func convertPosition(p *position.Position, pending *big.Int) *Position {
	return &Position{
		Staked:     hex(p.Staked),
		RewardDebt: hex(p.RewardDebt),
		Pending:    hex(pending),
	}
}
