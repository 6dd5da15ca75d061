// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package program implements the reward program: a set of pools sharing one reward asset
// and one emission schedule.
//
// Every pool tracks the stake of a single asset held by the escrow for that asset. Rewards are
// accounted with a per-share accumulator scaled by ledger.Precision. A position's reward debt
// is the part of staked*acc/Precision already priced in, so pending = staked*acc/Precision - debt.
package program

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/hook"
	"github.com/vechain/stakeledger/builtin/ownable"
	"github.com/vechain/stakeledger/builtin/program/pool"
	"github.com/vechain/stakeledger/builtin/program/position"
	"github.com/vechain/stakeledger/builtin/program/schedule"
	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/fixedpoint"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/xenv"
)

var (
	logger = log.WithContext("pkg", "program")

	slotRewardAsset = ledger.BytesToBytes32([]byte("reward-asset"))
)

func SetLogger(l log.Logger) {
	logger = l
}

// Program implements a reward program stored at addr.
type Program struct {
	addr  ledger.Address
	env   *xenv.Environment
	hooks *hook.Registry

	owner           *ownable.Ownable
	rewardAsset     *solidity.Address
	poolService     *pool.Service
	positionService *position.Service
	scheduleService *schedule.Service
}

// New create a new instance.
func New(addr ledger.Address, env *xenv.Environment, hooks *hook.Registry) *Program {
	sctx := solidity.NewContext(addr, env.State(), env.Charger())
	return &Program{
		addr:            addr,
		env:             env,
		hooks:           hooks,
		owner:           ownable.New(sctx, env),
		rewardAsset:     solidity.NewAddress(sctx, slotRewardAsset),
		poolService:     pool.New(sctx),
		positionService: position.New(sctx),
		scheduleService: schedule.New(sctx),
	}
}

func (p *Program) Address() ledger.Address {
	return p.addr
}

//
// Getters - no state change
//

func (p *Program) Owner() (ledger.Address, error) {
	return p.owner.Owner()
}

func (p *Program) RewardAsset() (ledger.Address, error) {
	return p.rewardAsset.Get()
}

func (p *Program) PoolLength() (uint64, error) {
	return p.poolService.Len()
}

// PoolInfo returns the stored pool, or reverts.ErrInvalidPool.
func (p *Program) PoolInfo(pid uint64) (*pool.Pool, error) {
	return p.poolService.Get(pid)
}

// PoolOf returns the id of the pool tracking asset.
func (p *Program) PoolOf(asset ledger.Address) (uint64, bool, error) {
	return p.poolService.IDOf(asset)
}

func (p *Program) UserInfo(pid uint64, user ledger.Address) (*position.Position, error) {
	if _, err := p.poolService.Get(pid); err != nil {
		return nil, err
	}
	return p.positionService.Get(pid, user)
}

func (p *Program) Schedule() (*schedule.Schedule, error) {
	return p.scheduleService.Get()
}

func (p *Program) TotalAllocWeight() (uint64, error) {
	return p.poolService.TotalWeight()
}

// EmissionSince returns the program-wide reward emitted in [from, to).
func (p *Program) EmissionSince(from, to uint64) (*big.Int, error) {
	sched, err := p.scheduleService.Get()
	if err != nil {
		return nil, err
	}
	return sched.EmissionSince(from, to)
}

// PendingReward returns what Harvest would pay user right now, without touching storage.
func (p *Program) PendingReward(pid uint64, user ledger.Address) (*big.Int, error) {
	pl, err := p.poolService.Get(pid)
	if err != nil {
		return nil, err
	}
	acc, err := p.projectAccumulator(pl, p.env.Time())
	if err != nil {
		return nil, err
	}
	pos, err := p.positionService.Get(pid, user)
	if err != nil {
		return nil, err
	}
	return pos.Pending(acc)
}

//
// Setters - state change
//

// Initialize sets owner and the reward asset. It can be called once.
func (p *Program) Initialize(owner, rewardAsset ledger.Address) error {
	if err := p.owner.Initialize(owner); err != nil {
		return err
	}
	return p.rewardAsset.Set(rewardAsset)
}

func (p *Program) TransferOwnership(newOwner ledger.Address) error {
	return p.owner.TransferOwnership(newOwner)
}

// AddPool opens a pool for asset. The asset must already have an escrow.
func (p *Program) AddPool(weight uint64, asset, rewarder ledger.Address) (uint64, error) {
	logger.Debug("adding pool", "program", p.addr, "asset", asset, "weight", weight, "rewarder", rewarder)

	if err := p.owner.RequireOwner(); err != nil {
		return 0, err
	}
	reg := registry.New(p.env)
	escrow, ok, err := reg.EscrowOf(asset)
	if err != nil {
		return 0, err
	}
	if !ok {
		logger.Info("add pool failed", "program", p.addr, "asset", asset, "error", "no escrow")
		return 0, errors.WithMessagef(reverts.ErrNotRegistered, "no escrow for asset %v", asset)
	}
	if !rewarder.IsZero() && !p.hooks.Known(rewarder) {
		return 0, errors.WithMessagef(reverts.ErrUnknownComponent, "rewarder %v", rewarder)
	}

	if err := p.MassUpdateAllPools(); err != nil {
		return 0, err
	}
	pid, err := p.poolService.Add(&pool.Pool{
		StakedAsset:       asset,
		AllocWeight:       weight,
		AccRewardPerShare: new(big.Int),
		LastAccrualTime:   p.env.Time(),
		TotalStaked:       new(big.Int),
		Rewarder:          rewarder,
	})
	if err != nil {
		logger.Info("add pool failed", "program", p.addr, "asset", asset, "error", err)
		return 0, err
	}
	if err := p.poolService.Reweigh(0, weight); err != nil {
		return 0, err
	}
	if err := registry.New(p.env.WithCaller(p.addr)).RegisterPool(escrow, pid); err != nil {
		return 0, err
	}

	logger.Info("added pool", "program", p.addr, "pool", pid, "asset", asset)
	return pid, p.env.Log(p.addr, "LogPoolAddition", &PoolAdditionEvent{
		PoolID:      pid,
		AllocWeight: weight,
		StakedAsset: asset,
		Rewarder:    rewarder,
	})
}

// SetPool changes the weight of pid, and its rewarder when overwrite is set.
func (p *Program) SetPool(pid, weight uint64, rewarder ledger.Address, overwrite bool) error {
	logger.Debug("setting pool", "program", p.addr, "pool", pid, "weight", weight, "rewarder", rewarder, "overwrite", overwrite)

	if err := p.owner.RequireOwner(); err != nil {
		return err
	}
	pl, err := p.poolService.Get(pid)
	if err != nil {
		return err
	}
	if overwrite && !rewarder.IsZero() && !p.hooks.Known(rewarder) {
		return errors.WithMessagef(reverts.ErrUnknownComponent, "rewarder %v", rewarder)
	}
	if err := p.MassUpdateAllPools(); err != nil {
		return err
	}

	// reload, the mass update advanced the accumulator
	if pl, err = p.poolService.Get(pid); err != nil {
		return err
	}
	if err := p.poolService.Reweigh(pl.AllocWeight, weight); err != nil {
		return err
	}
	pl.AllocWeight = weight
	if overwrite {
		pl.Rewarder = rewarder
	}
	if err := p.poolService.Set(pid, pl); err != nil {
		return err
	}

	return p.env.Log(p.addr, "LogSetPool", &SetPoolEvent{
		PoolID:      pid,
		AllocWeight: weight,
		Rewarder:    pl.Rewarder,
		Overwrite:   overwrite,
	})
}

// UpdatePool advances the accumulator of pid to now.
func (p *Program) UpdatePool(pid uint64) (*pool.Pool, error) {
	pl, err := p.poolService.Get(pid)
	if err != nil {
		return nil, err
	}
	now := p.env.Time()
	if now <= pl.LastAccrualTime {
		return pl, nil
	}

	acc, err := p.projectAccumulator(pl, now)
	if err != nil {
		return nil, err
	}
	pl.AccRewardPerShare = acc
	pl.LastAccrualTime = now
	if err := p.poolService.Set(pid, pl); err != nil {
		return nil, err
	}

	return pl, p.env.Log(p.addr, "LogUpdatePool", &UpdatePoolEvent{
		PoolID:            pid,
		LastAccrualTime:   now,
		TotalStaked:       pl.TotalStaked,
		AccRewardPerShare: pl.AccRewardPerShare,
	})
}

// MassUpdatePools updates every pool in pids.
func (p *Program) MassUpdatePools(pids []uint64) error {
	for _, pid := range pids {
		if _, err := p.UpdatePool(pid); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) MassUpdateAllPools() error {
	n, err := p.poolService.Len()
	if err != nil {
		return err
	}
	for pid := range n {
		if _, err := p.UpdatePool(pid); err != nil {
			return err
		}
	}
	return nil
}

// Deposit adds amount to the position of to, paying out its pending reward first.
// Only the escrow of the pool's asset may call it.
func (p *Program) Deposit(pid uint64, amount *big.Int, to ledger.Address) error {
	logger.Debug("depositing", "program", p.addr, "pool", pid, "amount", amount, "to", to)

	pl, err := p.poolService.Get(pid)
	if err != nil {
		return err
	}
	if err := p.requireEscrow(pl); err != nil {
		return err
	}
	if pl, err = p.UpdatePool(pid); err != nil {
		return err
	}
	pos, err := p.positionService.Get(pid, to)
	if err != nil {
		return err
	}

	reward := new(big.Int)
	if pos.Staked.Sign() > 0 {
		if reward, err = pos.Pending(pl.AccRewardPerShare); err != nil {
			return err
		}
		if err := p.payReward(reward, to); err != nil {
			return err
		}
	}

	if pos.Staked, err = fixedpoint.Add(pos.Staked, amount); err != nil {
		return err
	}
	if pl.TotalStaked, err = fixedpoint.Add(pl.TotalStaked, amount); err != nil {
		return err
	}
	if err := pos.Checkpoint(pl.AccRewardPerShare); err != nil {
		return err
	}
	if err := p.save(pid, pl, to, pos); err != nil {
		return err
	}

	if err := p.env.Log(p.addr, "Deposit", &PositionEvent{PoolID: pid, User: to, Amount: amount, To: to}); err != nil {
		return err
	}
	if err := p.logHarvest(pid, to, reward, to); err != nil {
		return err
	}
	return p.invokeHook(pl, &hook.BalanceChange{
		Program:   p.addr,
		PoolID:    pid,
		User:      to,
		NewAmount: pos.Staked,
		Recipient: to,
		Reward:    reward,
	})
}

// Withdraw removes amount from the position of user and pays out its pending reward.
// Only the escrow of the pool's asset may call it.
func (p *Program) Withdraw(pid uint64, amount *big.Int, user ledger.Address) error {
	logger.Debug("withdrawing", "program", p.addr, "pool", pid, "amount", amount, "user", user)

	pl, err := p.poolService.Get(pid)
	if err != nil {
		return err
	}
	if err := p.requireEscrow(pl); err != nil {
		return err
	}
	pos, err := p.positionService.Get(pid, user)
	if err != nil {
		return err
	}
	if amount.Cmp(pos.Staked) > 0 {
		logger.Info("withdraw failed", "program", p.addr, "pool", pid, "user", user, "staked", pos.Staked, "amount", amount)
		return errors.WithMessagef(reverts.ErrInsufficientStake, "staked %v, withdraw %v", pos.Staked, amount)
	}
	if pl, err = p.UpdatePool(pid); err != nil {
		return err
	}

	reward, err := pos.Pending(pl.AccRewardPerShare)
	if err != nil {
		return err
	}
	if err := p.payReward(reward, user); err != nil {
		return err
	}

	pos.Staked = new(big.Int).Sub(pos.Staked, amount)
	if pl.TotalStaked, err = fixedpoint.Sub(pl.TotalStaked, amount); err != nil {
		return err
	}
	if err := pos.Checkpoint(pl.AccRewardPerShare); err != nil {
		return err
	}
	if err := p.save(pid, pl, user, pos); err != nil {
		return err
	}

	if err := p.env.Log(p.addr, "Withdraw", &PositionEvent{PoolID: pid, User: user, Amount: amount, To: user}); err != nil {
		return err
	}
	if err := p.logHarvest(pid, user, reward, user); err != nil {
		return err
	}
	return p.invokeHook(pl, &hook.BalanceChange{
		Program:   p.addr,
		PoolID:    pid,
		User:      user,
		NewAmount: pos.Staked,
		Recipient: user,
		Reward:    reward,
	})
}

// Harvest pays the pending reward of user to to and returns it.
// Only the escrow of the pool's asset may call it.
func (p *Program) Harvest(pid uint64, user, to ledger.Address) (*big.Int, error) {
	logger.Debug("harvesting", "program", p.addr, "pool", pid, "user", user, "to", to)

	pl, err := p.poolService.Get(pid)
	if err != nil {
		return nil, err
	}
	if err := p.requireEscrow(pl); err != nil {
		return nil, err
	}
	if pl, err = p.UpdatePool(pid); err != nil {
		return nil, err
	}
	pos, err := p.positionService.Get(pid, user)
	if err != nil {
		return nil, err
	}
	reward, err := pos.Pending(pl.AccRewardPerShare)
	if err != nil {
		return nil, err
	}
	if err := p.payReward(reward, to); err != nil {
		return nil, err
	}
	if err := pos.Checkpoint(pl.AccRewardPerShare); err != nil {
		return nil, err
	}
	if err := p.positionService.Set(pid, user, pos); err != nil {
		return nil, err
	}

	if err := p.logHarvest(pid, user, reward, to); err != nil {
		return nil, err
	}
	if err := p.invokeHook(pl, &hook.BalanceChange{
		Program:   p.addr,
		PoolID:    pid,
		User:      user,
		NewAmount: pos.Staked,
		Recipient: to,
		Reward:    reward,
	}); err != nil {
		return nil, err
	}
	return reward, nil
}

// EmergencyWithdraw drops the position of user, forfeiting its pending reward.
// It neither updates the pool nor calls the rewarder. It returns the dropped stake.
func (p *Program) EmergencyWithdraw(pid uint64, user ledger.Address) (*big.Int, error) {
	logger.Debug("emergency withdrawing", "program", p.addr, "pool", pid, "user", user)

	pl, err := p.poolService.Get(pid)
	if err != nil {
		return nil, err
	}
	if err := p.requireEscrow(pl); err != nil {
		return nil, err
	}
	pos, err := p.positionService.Get(pid, user)
	if err != nil {
		return nil, err
	}

	amount := pos.Staked
	// the replica may lag behind if the pool was never updated; never underflow here
	pl.TotalStaked = new(big.Int).Sub(pl.TotalStaked, fixedpoint.Min(amount, pl.TotalStaked))
	if err := p.save(pid, pl, user, &position.Position{Staked: new(big.Int), RewardDebt: new(big.Int)}); err != nil {
		return nil, err
	}

	logger.Info("emergency withdrawn", "program", p.addr, "pool", pid, "user", user, "amount", amount)
	return amount, p.env.Log(p.addr, "EmergencyWithdraw", &PositionEvent{PoolID: pid, User: user, Amount: amount, To: user})
}

// AddReward funds a new schedule of amount ending at endTime. The current schedule must have ended.
// The caller is the funder and must have approved the program for amount.
func (p *Program) AddReward(amount *big.Int, endTime uint64) error {
	logger.Debug("adding reward", "program", p.addr, "amount", amount, "end", endTime)

	if err := p.owner.RequireOwner(); err != nil {
		return err
	}
	now := p.env.Time()
	sched, err := p.scheduleService.Get()
	if err != nil {
		return err
	}
	next, err := sched.NextForReward(amount, endTime, now)
	if err != nil {
		logger.Info("add reward failed", "program", p.addr, "error", err)
		return err
	}
	if err := p.MassUpdateAllPools(); err != nil {
		return err
	}
	if err := p.pullFunding(amount); err != nil {
		return err
	}
	if err := p.scheduleService.Set(next); err != nil {
		return err
	}

	logger.Info("reward added", "program", p.addr, "rate", next.RatePerSecond, "end", endTime)
	return p.env.Log(p.addr, "LogRewardAdded", &RewardAddedEvent{
		Amount:        amount,
		RatePerSecond: next.RatePerSecond,
		EndTime:       endTime,
	})
}

// SetRatePerSecond replaces the schedule at any time. The reward still unemitted by the current
// schedule is reused; only the shortfall is pulled from the caller.
func (p *Program) SetRatePerSecond(rate *big.Int, endTime uint64) error {
	logger.Debug("setting rate", "program", p.addr, "rate", rate, "end", endTime)

	if err := p.owner.RequireOwner(); err != nil {
		return err
	}
	now := p.env.Time()
	sched, err := p.scheduleService.Get()
	if err != nil {
		return err
	}
	next, shortfall, err := sched.NextForRate(rate, endTime, now)
	if err != nil {
		logger.Info("set rate failed", "program", p.addr, "error", err)
		return err
	}
	// settle elapsed time at the old rate
	if err := p.MassUpdateAllPools(); err != nil {
		return err
	}
	if shortfall.Sign() > 0 {
		if err := p.pullFunding(shortfall); err != nil {
			return err
		}
	}
	if err := p.scheduleService.Set(next); err != nil {
		return err
	}

	logger.Info("rate set", "program", p.addr, "rate", rate, "end", endTime, "shortfall", shortfall)
	return p.env.Log(p.addr, "LogRatePerSecond", &RatePerSecondEvent{
		RatePerSecond: next.RatePerSecond,
		EndTime:       endTime,
		Shortfall:     shortfall,
	})
}

func (p *Program) projectAccumulator(pl *pool.Pool, now uint64) (*big.Int, error) {
	if now <= pl.LastAccrualTime || pl.TotalStaked.Sign() == 0 {
		return new(big.Int).Set(pl.AccRewardPerShare), nil
	}
	sched, err := p.scheduleService.Get()
	if err != nil {
		return nil, err
	}
	emission, err := sched.EmissionSince(pl.LastAccrualTime, now)
	if err != nil {
		return nil, err
	}
	totalWeight, err := p.poolService.TotalWeight()
	if err != nil {
		return nil, err
	}
	return pl.ProjectAccumulator(emission, totalWeight)
}

func (p *Program) requireEscrow(pl *pool.Pool) error {
	escrow, ok, err := registry.New(p.env).EscrowOf(pl.StakedAsset)
	if err != nil {
		return err
	}
	if !ok || !p.env.IsCaller(escrow) {
		return errors.WithMessagef(reverts.ErrUnauthorized, "caller %v is not the escrow of %v", p.env.Caller(), pl.StakedAsset)
	}
	return nil
}

func (p *Program) rewardToken() (*token.Token, error) {
	asset, err := p.rewardAsset.Get()
	if err != nil {
		return nil, err
	}
	return token.New(asset, p.env), nil
}

func (p *Program) payReward(amount *big.Int, to ledger.Address) error {
	if amount.Sign() == 0 {
		return nil
	}
	tok, err := p.rewardToken()
	if err != nil {
		return err
	}
	return tok.Transfer(p.addr, to, amount)
}

func (p *Program) pullFunding(amount *big.Int) error {
	tok, err := p.rewardToken()
	if err != nil {
		return err
	}
	funder := p.env.Caller()
	if err := tok.TransferFrom(p.addr, funder, p.addr, amount); err != nil {
		if errors.Is(err, reverts.ErrInsufficientBalance) || errors.Is(err, reverts.ErrInsufficientAllowance) {
			logger.Info("funding failed", "program", p.addr, "funder", funder, "amount", amount, "error", err)
			return errors.WithMessagef(reverts.ErrInsufficientFunding, "funder %v: %v", funder, err)
		}
		return err
	}
	return nil
}

func (p *Program) save(pid uint64, pl *pool.Pool, user ledger.Address, pos *position.Position) error {
	if err := p.poolService.Set(pid, pl); err != nil {
		return err
	}
	return p.positionService.Set(pid, user, pos)
}

func (p *Program) logHarvest(pid uint64, user ledger.Address, reward *big.Int, to ledger.Address) error {
	if reward.Sign() == 0 {
		return nil
	}
	return p.env.Log(p.addr, "Harvest", &PositionEvent{PoolID: pid, User: user, Amount: reward, To: to})
}

func (p *Program) invokeHook(pl *pool.Pool, change *hook.BalanceChange) error {
	if !pl.HasRewarder() {
		return nil
	}
	return p.hooks.Invoke(p.env, pl.Rewarder, change)
}
