// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/escrow"
	"github.com/vechain/stakeledger/builtin/program"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/test/datagen"
)

// Scenario is a ledger with one staked asset, its escrow, and one program paying a reward
// asset out of the admin's funds.
type Scenario struct {
	*Ledger

	Admin   ledger.Address
	Staked  ledger.Address
	Reward  ledger.Address
	Escrow  ledger.Address
	Program ledger.Address
	PoolID  uint64
}

// NewScenario creates the scenario. The admin holds and has approved 1M reward units;
// every user holds and has approved 1000 staked units.
func NewScenario(t testing.TB, users ...ledger.Address) *Scenario {
	l := New(t)
	s := &Scenario{
		Ledger: l,
		Admin:  datagen.RandAddress(),
		Staked: l.NewToken("STK"),
		Reward: l.NewToken("RWD"),
	}
	s.Escrow = l.CreateEscrow(s.Staked, "Staked STK")
	s.Program = l.CreateProgram(s.Admin, s.Reward)

	l.Mint(s.Reward, s.Admin, datagen.Units(1_000_000))
	l.Approve(s.Reward, s.Admin, s.Program, datagen.Units(1_000_000))
	for _, u := range users {
		s.Fund(u, datagen.Units(1000))
	}

	require.NoError(t, s.AsAdmin(func(p *program.Program) (err error) {
		s.PoolID, err = p.AddPool(1000, s.Staked, ledger.Address{})
		return
	}))
	return s
}

// Fund mints amount staked units to user and approves the escrow for them.
func (s *Scenario) Fund(user ledger.Address, amount *big.Int) {
	s.Mint(s.Staked, user, amount)
	s.Approve(s.Staked, user, s.Escrow, amount)
}

// AsAdmin runs fn on the program as its owner.
func (s *Scenario) AsAdmin(fn func(p *program.Program) error) error {
	return s.RunProgram(s.Admin, s.Program, fn)
}

// As runs fn on the escrow as user.
func (s *Scenario) As(user ledger.Address, fn func(e *escrow.Escrow) error) error {
	return s.RunEscrow(user, s.Escrow, fn)
}

// SetRate sets the program rate until now+duration.
func (s *Scenario) SetRate(rate *big.Int, duration uint64) error {
	end := s.Now() + duration
	return s.AsAdmin(func(p *program.Program) error {
		return p.SetRatePerSecond(rate, end)
	})
}

// JoinAndDeposit joins the program and deposits amount for user.
func (s *Scenario) JoinAndDeposit(user ledger.Address, amount *big.Int) error {
	return s.As(user, func(e *escrow.Escrow) error {
		if err := e.JoinProgram(s.Program); err != nil {
			return err
		}
		return e.Deposit(amount)
	})
}
