// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the fungible asset ledger used for staked and reward assets.
package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/fixedpoint"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "token")

var (
	slotSymbol      = nameToSlot("symbol")
	slotTotalSupply = nameToSlot("total-supply")
	slotBalances    = nameToSlot("balances")
	slotAllowances  = nameToSlot("allowances")
)

func nameToSlot(name string) ledger.Bytes32 {
	return ledger.BytesToBytes32([]byte(name))
}

// TransferEvent is logged on every balance movement. A zero From is a mint.
type TransferEvent struct {
	From   ledger.Address `json:"from"`
	To     ledger.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

// ApprovalEvent is logged when an allowance is set.
type ApprovalEvent struct {
	Owner   ledger.Address `json:"owner"`
	Spender ledger.Address `json:"spender"`
	Amount  *big.Int       `json:"amount"`
}

// Token is an asset identified by its address.
type Token struct {
	addr        ledger.Address
	env         *xenv.Environment
	symbol      *solidity.Mapping[solidity.Index, string]
	totalSupply *solidity.Uint256
	balances    *solidity.Mapping[ledger.Address, *big.Int]
	allowances  *solidity.Mapping[ledger.Bytes32, *big.Int]
}

// New binds the asset at addr to env.
func New(addr ledger.Address, env *xenv.Environment) *Token {
	ctx := solidity.NewContext(addr, env.State(), env.Charger())
	return &Token{
		addr:        addr,
		env:         env,
		symbol:      solidity.NewMapping[solidity.Index, string](ctx, slotSymbol),
		totalSupply: solidity.NewUint256(ctx, slotTotalSupply),
		balances:    solidity.NewMapping[ledger.Address, *big.Int](ctx, slotBalances),
		allowances:  solidity.NewMapping[ledger.Bytes32, *big.Int](ctx, slotAllowances),
	}
}

func (t *Token) Address() ledger.Address {
	return t.addr
}

//
// Getters - no state change
//

func (t *Token) Symbol() (string, error) {
	return t.symbol.Get(0)
}

func (t *Token) TotalSupply() (*big.Int, error) {
	return t.totalSupply.Get()
}

func (t *Token) BalanceOf(owner ledger.Address) (*big.Int, error) {
	bal, err := t.balances.Get(owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return bal, nil
}

func (t *Token) Allowance(owner, spender ledger.Address) (*big.Int, error) {
	allowance, err := t.allowances.Get(solidity.PairKey(owner, spender))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get allowance")
	}
	return allowance, nil
}

//
// Setters - state change
//

// SetSymbol records the display symbol of the asset.
func (t *Token) SetSymbol(symbol string) error {
	return t.symbol.Set(0, symbol, true)
}

// Mint creates amount new units owned by to.
func (t *Token) Mint(to ledger.Address, amount *big.Int) error {
	logger.Debug("minting", "token", t.addr, "to", to, "amount", amount)

	if _, err := t.totalSupply.Add(amount); err != nil {
		return err
	}
	if err := t.credit(to, amount); err != nil {
		return err
	}
	return t.env.Log(t.addr, "Transfer", &TransferEvent{To: to, Amount: amount})
}

// Transfer moves amount from the balance of from to to. Components pay out of their own
// balance by naming themselves as from; user funds move through TransferFrom.
func (t *Token) Transfer(from, to ledger.Address, amount *big.Int) error {
	if err := t.debit(from, amount); err != nil {
		return err
	}
	if err := t.credit(to, amount); err != nil {
		return err
	}
	return t.env.Log(t.addr, "Transfer", &TransferEvent{From: from, To: to, Amount: amount})
}

// TransferFrom moves amount from the balance of from to to, spending the allowance of spender.
func (t *Token) TransferFrom(spender, from, to ledger.Address, amount *big.Int) error {
	if spender != from {
		key := solidity.PairKey(from, spender)
		allowance, err := t.allowances.Get(key)
		if err != nil {
			return err
		}
		if allowance.Cmp(amount) < 0 {
			return errors.WithMessagef(reverts.ErrInsufficientAllowance, "token %v: allowance %v, need %v", t.addr, allowance, amount)
		}
		if err := t.allowances.Set(key, new(big.Int).Sub(allowance, amount), false); err != nil {
			return err
		}
	}
	return t.Transfer(from, to, amount)
}

// Approve sets the amount spender may move on behalf of owner.
func (t *Token) Approve(owner, spender ledger.Address, amount *big.Int) error {
	if err := t.allowances.Set(solidity.PairKey(owner, spender), amount, true); err != nil {
		return err
	}
	return t.env.Log(t.addr, "Approval", &ApprovalEvent{Owner: owner, Spender: spender, Amount: amount})
}

func (t *Token) debit(owner ledger.Address, amount *big.Int) error {
	bal, err := t.BalanceOf(owner)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return errors.WithMessagef(reverts.ErrInsufficientBalance, "token %v: balance %v, need %v", t.addr, bal, amount)
	}
	return t.balances.Set(owner, new(big.Int).Sub(bal, amount), false)
}

func (t *Token) credit(owner ledger.Address, amount *big.Int) error {
	bal, err := t.BalanceOf(owner)
	if err != nil {
		return err
	}
	sum, err := fixedpoint.Add(bal, amount)
	if err != nil {
		return err
	}
	return t.balances.Set(owner, sum, bal.Sign() == 0)
}
