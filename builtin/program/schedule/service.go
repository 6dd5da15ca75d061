// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package schedule

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
)

var slotSchedule = ledger.BytesToBytes32([]byte("schedule"))

type Service struct {
	schedule *solidity.Mapping[solidity.Index, *Schedule]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		schedule: solidity.NewMapping[solidity.Index, *Schedule](sctx, slotSchedule),
	}
}

func (s *Service) Get() (*Schedule, error) {
	sched, err := s.schedule.Get(0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get schedule")
	}
	if sched.RatePerSecond == nil {
		sched.RatePerSecond = new(big.Int)
	}
	return sched, nil
}

func (s *Service) Set(sched *Schedule) error {
	if err := s.schedule.Set(0, sched, false); err != nil {
		return errors.Wrap(err, "failed to set schedule")
	}
	return nil
}
