// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package schedule holds the emission schedule of a program and the arithmetic of reallocating it.
package schedule

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/fixedpoint"
)

// Schedule emits RatePerSecond from LastSettlement until EndTime.
type Schedule struct {
	RatePerSecond  *big.Int
	EndTime        uint64
	LastSettlement uint64
}

func (s *Schedule) rate() *big.Int {
	if s.RatePerSecond == nil {
		return new(big.Int)
	}
	return s.RatePerSecond
}

// Running reports whether the schedule still emits at now.
func (s *Schedule) Running(now uint64) bool {
	return now < s.EndTime
}

// EmissionSince returns the reward emitted over [from, to), clamped to the schedule's span.
func (s *Schedule) EmissionSince(from, to uint64) (*big.Int, error) {
	if from < s.LastSettlement {
		from = s.LastSettlement
	}
	if to > s.EndTime {
		to = s.EndTime
	}
	if from >= to {
		return new(big.Int), nil
	}
	return fixedpoint.Mul(s.rate(), fixedpoint.Elapsed(from, to))
}

// Remaining returns what the schedule still owes at now, rate * (EndTime - now).
func (s *Schedule) Remaining(now uint64) (*big.Int, error) {
	return fixedpoint.Mul(s.rate(), fixedpoint.Elapsed(now, s.EndTime))
}

// NextForReward returns the schedule spending amount evenly until endTime.
// The division remainder stays with the program.
func (s *Schedule) NextForReward(amount *big.Int, endTime, now uint64) (*Schedule, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, reverts.ErrZeroAmount
	}
	if endTime <= now {
		return nil, errors.WithMessagef(reverts.ErrInvalidEndTime, "end %d, now %d", endTime, now)
	}
	if s.Running(now) {
		return nil, errors.WithMessagef(reverts.ErrScheduleRunning, "current schedule ends at %d", s.EndTime)
	}
	rate := new(big.Int).Div(amount, fixedpoint.Elapsed(now, endTime))
	if err := fixedpoint.CheckRate(rate); err != nil {
		return nil, err
	}
	return &Schedule{RatePerSecond: rate, EndTime: endTime, LastSettlement: now}, nil
}

// NextForRate returns the schedule emitting rate until endTime, and the shortfall the
// program must pull from the funder. A surplus stays with the program.
func (s *Schedule) NextForRate(rate *big.Int, endTime, now uint64) (*Schedule, *big.Int, error) {
	if endTime <= now {
		return nil, nil, errors.WithMessagef(reverts.ErrInvalidEndTime, "end %d, now %d", endTime, now)
	}
	if err := fixedpoint.CheckRate(rate); err != nil {
		return nil, nil, err
	}
	remaining, err := s.Remaining(now)
	if err != nil {
		return nil, nil, err
	}
	needed, err := fixedpoint.Mul(rate, fixedpoint.Elapsed(now, endTime))
	if err != nil {
		return nil, nil, err
	}
	shortfall := new(big.Int)
	if needed.Cmp(remaining) > 0 {
		shortfall.Sub(needed, remaining)
	}
	return &Schedule{RatePerSecond: new(big.Int).Set(rate), EndTime: endTime, LastSettlement: now}, shortfall, nil
}
