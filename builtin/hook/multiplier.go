// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package hook

import (
	"math/big"

	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/fixedpoint"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/xenv"
)

// PaidEvent is logged by rewarders when they pay a secondary reward.
type PaidEvent struct {
	PoolID    uint64         `json:"poolId"`
	User      ledger.Address `json:"user"`
	Recipient ledger.Address `json:"recipient"`
	Token     ledger.Address `json:"token"`
	Amount    *big.Int       `json:"amount"`
}

// Multiplier pays Multiplier/1e18 units of Token per unit of primary reward,
// out of the Token balance held at Address. Payouts are capped at that balance.
type Multiplier struct {
	Address    ledger.Address
	Token      ledger.Address
	Multiplier *big.Int
}

func (m *Multiplier) OnBalanceChange(env *xenv.Environment, change *BalanceChange) error {
	if change.Reward == nil || change.Reward.Sign() == 0 {
		return nil
	}
	owed, err := fixedpoint.MulDiv(change.Reward, m.Multiplier, ledger.Ether)
	if err != nil {
		return err
	}

	tok := token.New(m.Token, env)
	balance, err := tok.BalanceOf(m.Address)
	if err != nil {
		return err
	}
	pay := fixedpoint.Min(owed, balance)
	if pay.Sign() == 0 {
		return nil
	}
	if err := tok.Transfer(m.Address, change.Recipient, pay); err != nil {
		return err
	}
	return env.Log(m.Address, "RewarderPaid", &PaidEvent{
		PoolID:    change.PoolID,
		User:      change.User,
		Recipient: change.Recipient,
		Token:     m.Token,
		Amount:    pay,
	})
}
