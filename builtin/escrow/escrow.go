// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package escrow holds the staked asset of every user and fans each balance change out to the
// reward programs the user has joined.
//
// The escrow balance is the source of truth for custody. Program positions are replicas: joining
// a program deposits the current balance into it, quitting withdraws it, and every later deposit,
// withdrawal or share transfer is replayed on each joined program in join order.
package escrow

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/escrow/joined"
	"github.com/vechain/stakeledger/builtin/hook"
	"github.com/vechain/stakeledger/builtin/permit"
	"github.com/vechain/stakeledger/builtin/program"
	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/fixedpoint"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "escrow")

var (
	slotStakedAsset = nameToSlot("staked-asset")
	slotName        = nameToSlot("name")
	slotTotalSupply = nameToSlot("total-supply")
	slotBalances    = nameToSlot("balances")
	slotAllowances  = nameToSlot("allowances")
	slotHarvest     = nameToSlot("harvest-allowances")
)

func nameToSlot(name string) ledger.Bytes32 {
	return ledger.BytesToBytes32([]byte(name))
}

func SetLogger(l log.Logger) {
	logger = l
}

// Escrow implements the escrow stored at addr. The caller of env is the acting user.
type Escrow struct {
	addr  ledger.Address
	env   *xenv.Environment
	hooks *hook.Registry

	stakedAsset *solidity.Address
	name        *solidity.Mapping[solidity.Index, string]
	totalSupply *solidity.Uint256
	balances    *solidity.Mapping[ledger.Address, *big.Int]
	allowances  *solidity.Mapping[ledger.Bytes32, *big.Int]
	// (owner, sender) -> time limit
	harvestAllowances *solidity.Mapping[ledger.Bytes32, uint64]
	joined            *joined.List
}

// New create a new instance.
func New(addr ledger.Address, env *xenv.Environment, hooks *hook.Registry) *Escrow {
	sctx := solidity.NewContext(addr, env.State(), env.Charger())
	return &Escrow{
		addr:              addr,
		env:               env,
		hooks:             hooks,
		stakedAsset:       solidity.NewAddress(sctx, slotStakedAsset),
		name:              solidity.NewMapping[solidity.Index, string](sctx, slotName),
		totalSupply:       solidity.NewUint256(sctx, slotTotalSupply),
		balances:          solidity.NewMapping[ledger.Address, *big.Int](sctx, slotBalances),
		allowances:        solidity.NewMapping[ledger.Bytes32, *big.Int](sctx, slotAllowances),
		harvestAllowances: solidity.NewMapping[ledger.Bytes32, uint64](sctx, slotHarvest),
		joined:            joined.New(sctx),
	}
}

func (e *Escrow) Address() ledger.Address {
	return e.addr
}

//
// Getters - no state change
//

func (e *Escrow) StakedAsset() (ledger.Address, error) {
	return e.stakedAsset.Get()
}

func (e *Escrow) Name() (string, error) {
	return e.name.Get(0)
}

func (e *Escrow) TotalSupply() (*big.Int, error) {
	return e.totalSupply.Get()
}

func (e *Escrow) BalanceOf(user ledger.Address) (*big.Int, error) {
	return e.balances.Get(user)
}

func (e *Escrow) Allowance(owner, spender ledger.Address) (*big.Int, error) {
	return e.allowances.Get(solidity.PairKey(owner, spender))
}

// HarvestAllowance returns the time until which sender may harvest on behalf of owner.
func (e *Escrow) HarvestAllowance(owner, sender ledger.Address) (uint64, error) {
	return e.harvestAllowances.Get(solidity.PairKey(owner, sender))
}

// JoinedPrograms returns the programs user has joined, in join order.
func (e *Escrow) JoinedPrograms(user ledger.Address) ([]ledger.Address, error) {
	return e.joined.All(user)
}

func (e *Escrow) IsJoined(user, prog ledger.Address) (bool, error) {
	return e.joined.Contains(user, prog)
}

// PermitNonce returns the nonce the next permit of owner in scope must be signed with.
func (e *Escrow) PermitNonce(owner ledger.Address, scope permit.Scope) (uint64, error) {
	return permit.New(e.env).Nonce(e.addr, owner, scope)
}

//
// Setters - state change
//

// Initialize binds the escrow to the asset it holds.
func (e *Escrow) Initialize(stakedAsset ledger.Address, name string) error {
	current, err := e.stakedAsset.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return errors.WithMessagef(reverts.ErrAlreadyInitialized, "escrow %v", e.addr)
	}
	if err := e.stakedAsset.Set(stakedAsset); err != nil {
		return err
	}
	return e.name.Set(0, name, true)
}

// JoinProgram opts the caller into prog.
func (e *Escrow) JoinProgram(prog ledger.Address) error {
	return e.join(e.env.Caller(), prog)
}

// JoinProgramWithPermit opts user into prog with user's signed consent.
func (e *Escrow) JoinProgramWithPermit(prog, user ledger.Address, deadline uint64, sig []byte) error {
	if err := e.consumePermit(&permit.Grant{
		Grantor:  user,
		Grantee:  prog,
		Scope:    permit.ScopeJoin,
		Value:    new(big.Int),
		Deadline: deadline,
	}, sig); err != nil {
		return err
	}
	return e.join(user, prog)
}

// QuitProgram settles the caller's reward in prog and leaves it.
func (e *Escrow) QuitProgram(prog ledger.Address) error {
	user := e.env.Caller()
	logger.Debug("quitting program", "escrow", e.addr, "user", user, "program", prog)

	pid, err := e.requireJoined(user, prog)
	if err != nil {
		return err
	}
	p := e.program(prog)
	pos, err := p.UserInfo(pid, user)
	if err != nil {
		return err
	}
	if err := p.Withdraw(pid, pos.Staked, user); err != nil {
		logger.Info("quit program failed", "escrow", e.addr, "user", user, "program", prog, "error", err)
		return err
	}
	if _, err := e.joined.Remove(user, prog); err != nil {
		return err
	}
	return e.env.Log(e.addr, "Quitted", &MembershipEvent{User: user, Program: prog, PoolID: pid})
}

// RageQuit leaves prog forfeiting the caller's pending reward there. The program's rewarder
// is not called, so it succeeds even when the rewarder is broken.
func (e *Escrow) RageQuit(prog ledger.Address) error {
	user := e.env.Caller()
	logger.Debug("rage quitting program", "escrow", e.addr, "user", user, "program", prog)

	pid, err := e.requireJoined(user, prog)
	if err != nil {
		return err
	}
	if _, err := e.program(prog).EmergencyWithdraw(pid, user); err != nil {
		return err
	}
	if _, err := e.joined.Remove(user, prog); err != nil {
		return err
	}
	logger.Info("rage quitted", "escrow", e.addr, "user", user, "program", prog)
	return e.env.Log(e.addr, "RageQuitted", &MembershipEvent{User: user, Program: prog, PoolID: pid})
}

// EmergencyWithdraw drops the caller's positions in every joined program and returns the
// caller's whole balance. Pending rewards are forfeited.
func (e *Escrow) EmergencyWithdraw() error {
	user := e.env.Caller()
	logger.Debug("emergency withdrawing", "escrow", e.addr, "user", user)

	if err := e.fanOut(user, func(p *program.Program, pid uint64) error {
		_, err := p.EmergencyWithdraw(pid, user)
		return err
	}); err != nil {
		return err
	}
	balance, err := e.balances.Get(user)
	if err != nil {
		return err
	}
	if balance.Sign() == 0 {
		return nil
	}
	if err := e.burn(user, balance); err != nil {
		return err
	}
	if err := e.asset().Transfer(e.addr, user, balance); err != nil {
		return err
	}
	logger.Info("emergency withdrawn", "escrow", e.addr, "user", user, "amount", balance)
	return e.env.Log(e.addr, "Withdraw", &CustodyEvent{User: user, To: user, Amount: balance})
}

func (e *Escrow) Deposit(amount *big.Int) error {
	return e.DepositTo(amount, e.env.Caller())
}

// DepositTo moves amount of the staked asset from the caller into custody, credited to to.
func (e *Escrow) DepositTo(amount *big.Int, to ledger.Address) error {
	sender := e.env.Caller()
	logger.Debug("depositing", "escrow", e.addr, "sender", sender, "to", to, "amount", amount)

	if amount.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	if err := e.asset().TransferFrom(e.addr, sender, e.addr, amount); err != nil {
		logger.Info("deposit failed", "escrow", e.addr, "sender", sender, "error", err)
		return err
	}
	if err := e.mint(to, amount); err != nil {
		return err
	}
	if err := e.fanOut(to, func(p *program.Program, pid uint64) error {
		return p.Deposit(pid, amount, to)
	}); err != nil {
		return err
	}
	return e.env.Log(e.addr, "Deposit", &CustodyEvent{User: sender, To: to, Amount: amount})
}

func (e *Escrow) Withdraw(amount *big.Int) error {
	return e.WithdrawTo(amount, e.env.Caller())
}

// WithdrawTo releases amount of the caller's custody to to.
func (e *Escrow) WithdrawTo(amount *big.Int, to ledger.Address) error {
	user := e.env.Caller()
	logger.Debug("withdrawing", "escrow", e.addr, "user", user, "to", to, "amount", amount)

	if amount.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	if err := e.burn(user, amount); err != nil {
		logger.Info("withdraw failed", "escrow", e.addr, "user", user, "error", err)
		return err
	}
	if err := e.fanOut(user, func(p *program.Program, pid uint64) error {
		return p.Withdraw(pid, amount, user)
	}); err != nil {
		return err
	}
	if err := e.asset().Transfer(e.addr, to, amount); err != nil {
		return err
	}
	return e.env.Log(e.addr, "Withdraw", &CustodyEvent{User: user, To: to, Amount: amount})
}

// Harvest pays the caller's pending reward in prog to the caller.
func (e *Escrow) Harvest(prog ledger.Address) (*big.Int, error) {
	user := e.env.Caller()
	return e.harvest(prog, user, user)
}

// HarvestAll harvests every program the caller has joined.
func (e *Escrow) HarvestAll() error {
	user := e.env.Caller()
	return e.harvestAll(user, user)
}

// HarvestApprove allows sender to harvest the caller's rewards until timeLimit.
func (e *Escrow) HarvestApprove(sender ledger.Address, timeLimit uint64) error {
	return e.harvestApprove(e.env.Caller(), sender, timeLimit)
}

// HarvestPermit records owner's signed harvest approval of sender.
func (e *Escrow) HarvestPermit(owner, sender ledger.Address, timeLimit, deadline uint64, sig []byte) error {
	if err := e.consumePermit(&permit.Grant{
		Grantor:  owner,
		Grantee:  sender,
		Scope:    permit.ScopeHarvest,
		Value:    new(big.Int).SetUint64(timeLimit),
		Deadline: deadline,
	}, sig); err != nil {
		return err
	}
	return e.harvestApprove(owner, sender, timeLimit)
}

// HarvestFrom pays the pending reward of from in prog to to. The caller needs a harvest approval.
func (e *Escrow) HarvestFrom(prog, from, to ledger.Address) (*big.Int, error) {
	if err := e.requireHarvestAllowance(from); err != nil {
		return nil, err
	}
	return e.harvest(prog, from, to)
}

// HarvestAllFrom harvests every program from has joined to to.
func (e *Escrow) HarvestAllFrom(from, to ledger.Address) error {
	if err := e.requireHarvestAllowance(from); err != nil {
		return err
	}
	return e.harvestAll(from, to)
}

func (e *Escrow) HarvestFromWithPermit(prog, from, to ledger.Address, timeLimit, deadline uint64, sig []byte) (*big.Int, error) {
	if err := e.HarvestPermit(from, e.env.Caller(), timeLimit, deadline, sig); err != nil {
		return nil, err
	}
	return e.HarvestFrom(prog, from, to)
}

func (e *Escrow) HarvestAllFromWithPermit(from, to ledger.Address, timeLimit, deadline uint64, sig []byte) error {
	if err := e.HarvestPermit(from, e.env.Caller(), timeLimit, deadline, sig); err != nil {
		return err
	}
	return e.HarvestAllFrom(from, to)
}

// Transfer moves amount of the caller's custody to to, together with its reward-bearing stake.
func (e *Escrow) Transfer(to ledger.Address, amount *big.Int) error {
	return e.transfer(e.env.Caller(), to, amount)
}

// TransferFrom moves amount of from's custody to to, spending the caller's allowance.
func (e *Escrow) TransferFrom(from, to ledger.Address, amount *big.Int) error {
	spender := e.env.Caller()
	if spender != from {
		key := solidity.PairKey(from, spender)
		allowance, err := e.allowances.Get(key)
		if err != nil {
			return err
		}
		if allowance.Cmp(amount) < 0 {
			return errors.WithMessagef(reverts.ErrInsufficientAllowance, "escrow %v: allowance %v, need %v", e.addr, allowance, amount)
		}
		if err := e.allowances.Set(key, new(big.Int).Sub(allowance, amount), false); err != nil {
			return err
		}
	}
	return e.transfer(from, to, amount)
}

func (e *Escrow) Approve(spender ledger.Address, amount *big.Int) error {
	return e.approve(e.env.Caller(), spender, amount)
}

// Permit records owner's signed share allowance for spender.
func (e *Escrow) Permit(owner, spender ledger.Address, amount *big.Int, deadline uint64, sig []byte) error {
	if err := e.consumePermit(&permit.Grant{
		Grantor:  owner,
		Grantee:  spender,
		Scope:    permit.ScopeTransfer,
		Value:    amount,
		Deadline: deadline,
	}, sig); err != nil {
		return err
	}
	return e.approve(owner, spender, amount)
}

// TransferFromWithPermit applies owner's permit for the caller and spends it at once.
func (e *Escrow) TransferFromWithPermit(owner, to ledger.Address, amount *big.Int, deadline uint64, sig []byte) error {
	if err := e.Permit(owner, e.env.Caller(), amount, deadline, sig); err != nil {
		return err
	}
	return e.TransferFrom(owner, to, amount)
}

func (e *Escrow) join(user, prog ledger.Address) error {
	logger.Debug("joining program", "escrow", e.addr, "user", user, "program", prog)

	pid, ok, err := registry.New(e.env).PoolOf(e.addr, prog)
	if err != nil {
		return err
	}
	if !ok {
		logger.Info("join program failed", "escrow", e.addr, "user", user, "program", prog, "error", "no pool")
		return errors.WithMessagef(reverts.ErrNotRegistered, "program %v has no pool for escrow %v", prog, e.addr)
	}
	added, err := e.joined.Add(user, prog)
	if err != nil {
		return err
	}
	if !added {
		return errors.WithMessagef(reverts.ErrAlreadyJoined, "user %v, program %v", user, prog)
	}
	balance, err := e.balances.Get(user)
	if err != nil {
		return err
	}
	// checkpoints the debt at the current accumulator, so nothing accrued before is claimable
	if err := e.program(prog).Deposit(pid, balance, user); err != nil {
		logger.Info("join program failed", "escrow", e.addr, "user", user, "program", prog, "error", err)
		return err
	}
	return e.env.Log(e.addr, "Joined", &MembershipEvent{User: user, Program: prog, PoolID: pid})
}

func (e *Escrow) harvest(prog, user, to ledger.Address) (*big.Int, error) {
	logger.Debug("harvesting", "escrow", e.addr, "user", user, "to", to, "program", prog)

	pid, ok, err := registry.New(e.env).PoolOf(e.addr, prog)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.WithMessagef(reverts.ErrNotRegistered, "program %v has no pool for escrow %v", prog, e.addr)
	}
	return e.program(prog).Harvest(pid, user, to)
}

func (e *Escrow) harvestAll(user, to ledger.Address) error {
	return e.fanOut(user, func(p *program.Program, pid uint64) error {
		_, err := p.Harvest(pid, user, to)
		return err
	})
}

func (e *Escrow) harvestApprove(owner, sender ledger.Address, timeLimit uint64) error {
	key := solidity.PairKey(owner, sender)
	if err := e.harvestAllowances.Set(key, timeLimit, true); err != nil {
		return err
	}
	return e.env.Log(e.addr, "HarvestApproval", &HarvestApprovalEvent{Owner: owner, Sender: sender, TimeLimit: timeLimit})
}

func (e *Escrow) requireHarvestAllowance(owner ledger.Address) error {
	sender := e.env.Caller()
	if sender == owner {
		return nil
	}
	limit, err := e.HarvestAllowance(owner, sender)
	if err != nil {
		return err
	}
	if limit < e.env.Time() {
		return errors.WithMessagef(reverts.ErrUnauthorized, "harvest allowance of %v for %v expired at %d", owner, sender, limit)
	}
	return nil
}

func (e *Escrow) approve(owner, spender ledger.Address, amount *big.Int) error {
	if err := e.allowances.Set(solidity.PairKey(owner, spender), amount, true); err != nil {
		return err
	}
	return e.env.Log(e.addr, "Approval", &ApprovalEvent{Owner: owner, Spender: spender, Amount: amount})
}

func (e *Escrow) transfer(from, to ledger.Address, amount *big.Int) error {
	logger.Debug("transferring", "escrow", e.addr, "from", from, "to", to, "amount", amount)

	if amount.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	if err := e.debit(from, amount); err != nil {
		return err
	}
	if err := e.fanOut(from, func(p *program.Program, pid uint64) error {
		return p.Withdraw(pid, amount, from)
	}); err != nil {
		return err
	}
	if err := e.credit(to, amount); err != nil {
		return err
	}
	if err := e.fanOut(to, func(p *program.Program, pid uint64) error {
		return p.Deposit(pid, amount, to)
	}); err != nil {
		return err
	}
	return e.env.Log(e.addr, "Transfer", &TransferEvent{From: from, To: to, Amount: amount})
}

func (e *Escrow) consumePermit(g *permit.Grant, sig []byte) error {
	if e.env.Time() > g.Deadline {
		return errors.WithMessagef(reverts.ErrPermitExpired, "%v permit of %v expired at %d", g.Scope, g.Grantor, g.Deadline)
	}
	p := permit.New(e.env)
	nonce, err := p.Nonce(e.addr, g.Grantor, g.Scope)
	if err != nil {
		return err
	}
	g.Nonce = nonce
	ok, err := p.VerifyAndConsume(e.addr, g, sig)
	if err != nil {
		return err
	}
	if !ok {
		logger.Info("permit rejected", "escrow", e.addr, "grantor", g.Grantor, "scope", g.Scope)
		return errors.WithMessagef(reverts.ErrPermitInvalid, "%v permit of %v", g.Scope, g.Grantor)
	}
	return nil
}

// fanOut calls fn for each program user has joined, in join order.
func (e *Escrow) fanOut(user ledger.Address, fn func(p *program.Program, pid uint64) error) error {
	reg := registry.New(e.env)
	return e.joined.Iter(user, func(prog ledger.Address) error {
		pid, ok, err := reg.PoolOf(e.addr, prog)
		if err != nil {
			return err
		}
		if !ok {
			return errors.WithMessagef(reverts.ErrNotRegistered, "program %v", prog)
		}
		return fn(e.program(prog), pid)
	})
}

func (e *Escrow) requireJoined(user, prog ledger.Address) (uint64, error) {
	ok, err := e.joined.Contains(user, prog)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.WithMessagef(reverts.ErrNotJoined, "user %v, program %v", user, prog)
	}
	pid, _, err := registry.New(e.env).PoolOf(e.addr, prog)
	return pid, err
}

// program binds prog with the escrow as caller.
func (e *Escrow) program(prog ledger.Address) *program.Program {
	return program.New(prog, e.env.WithCaller(e.addr), e.hooks)
}

func (e *Escrow) asset() *token.Token {
	// zero before Initialize, which makes any transfer fail on balance
	asset, _ := e.stakedAsset.Get()
	return token.New(asset, e.env)
}

func (e *Escrow) mint(to ledger.Address, amount *big.Int) error {
	if _, err := e.totalSupply.Add(amount); err != nil {
		return err
	}
	return e.credit(to, amount)
}

func (e *Escrow) burn(from ledger.Address, amount *big.Int) error {
	if err := e.debit(from, amount); err != nil {
		return err
	}
	_, err := e.totalSupply.Sub(amount)
	return err
}

func (e *Escrow) debit(owner ledger.Address, amount *big.Int) error {
	bal, err := e.balances.Get(owner)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return errors.WithMessagef(reverts.ErrInsufficientBalance, "escrow %v: balance %v, need %v", e.addr, bal, amount)
	}
	return e.balances.Set(owner, new(big.Int).Sub(bal, amount), false)
}

func (e *Escrow) credit(owner ledger.Address, amount *big.Int) error {
	bal, err := e.balances.Get(owner)
	if err != nil {
		return err
	}
	sum, err := fixedpoint.Add(bal, amount)
	if err != nil {
		return err
	}
	return e.balances.Set(owner, sum, bal.Sign() == 0)
}
