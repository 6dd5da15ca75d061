// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"

	"github.com/vechain/stakeledger/ledger"
)

type MembershipEvent struct {
	User    ledger.Address `json:"user"`
	Program ledger.Address `json:"program"`
	PoolID  uint64         `json:"poolId"`
}

type CustodyEvent struct {
	User   ledger.Address `json:"user"`
	To     ledger.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

type TransferEvent struct {
	From   ledger.Address `json:"from"`
	To     ledger.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

type ApprovalEvent struct {
	Owner   ledger.Address `json:"owner"`
	Spender ledger.Address `json:"spender"`
	Amount  *big.Int       `json:"amount"`
}

type HarvestApprovalEvent struct {
	Owner     ledger.Address `json:"owner"`
	Sender    ledger.Address `json:"sender"`
	TimeLimit uint64         `json:"timeLimit"`
}
