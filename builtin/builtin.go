// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin binds the native components of the ledger to an execution environment and
// creates programs and escrows.
package builtin

import (
	"encoding/binary"

	"github.com/vechain/stakeledger/builtin/escrow"
	"github.com/vechain/stakeledger/builtin/hook"
	"github.com/vechain/stakeledger/builtin/permit"
	"github.com/vechain/stakeledger/builtin/program"
	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "builtin")

// ProgramCreatedEvent is logged at the registry address when a program is created.
type ProgramCreatedEvent struct {
	Program     ledger.Address `json:"program"`
	Owner       ledger.Address `json:"owner"`
	RewardAsset ledger.Address `json:"rewardAsset"`
}

// EscrowCreatedEvent is logged at the registry address when an escrow is created.
type EscrowCreatedEvent struct {
	Escrow      ledger.Address `json:"escrow"`
	StakedAsset ledger.Address `json:"stakedAsset"`
	Name        string         `json:"name"`
}

// Natives binds components to environments. Every binding shares the same rewarder registry.
type Natives struct {
	Hooks *hook.Registry
}

func NewNatives(hooks *hook.Registry) *Natives {
	if hooks == nil {
		hooks = hook.NewRegistry(0)
	}
	return &Natives{Hooks: hooks}
}

func (n *Natives) Program(addr ledger.Address, env *xenv.Environment) *program.Program {
	return program.New(addr, env, n.Hooks)
}

func (n *Natives) Escrow(addr ledger.Address, env *xenv.Environment) *escrow.Escrow {
	return escrow.New(addr, env, n.Hooks)
}

func (n *Natives) Token(addr ledger.Address, env *xenv.Environment) *token.Token {
	return token.New(addr, env)
}

func (n *Natives) Registry(env *xenv.Environment) *registry.Registry {
	return registry.New(env)
}

func (n *Natives) Permit(env *xenv.Environment) *permit.Permit {
	return permit.New(env)
}

// CreateProgram creates a program paying rewardAsset, owned by the caller.
func (n *Natives) CreateProgram(env *xenv.Environment, rewardAsset ledger.Address) (ledger.Address, error) {
	reg := registry.New(env)
	programs, err := reg.Programs()
	if err != nil {
		return ledger.Address{}, err
	}
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], uint64(len(programs)))
	addr := ledger.CreateAddress("program", env.Caller().Bytes(), rewardAsset.Bytes(), seq[:])

	if err := reg.AddProgram(addr); err != nil {
		return ledger.Address{}, err
	}
	if err := n.Program(addr, env).Initialize(env.Caller(), rewardAsset); err != nil {
		return ledger.Address{}, err
	}

	logger.Info("program created", "program", addr, "owner", env.Caller(), "reward", rewardAsset)
	return addr, env.Log(registry.Address, "ProgramCreated", &ProgramCreatedEvent{
		Program:     addr,
		Owner:       env.Caller(),
		RewardAsset: rewardAsset,
	})
}

// CreateEscrow creates the escrow of asset. Every asset has at most one escrow.
func (n *Natives) CreateEscrow(env *xenv.Environment, asset ledger.Address, name string) (ledger.Address, error) {
	addr := ledger.CreateAddress("escrow", asset.Bytes())

	if err := registry.New(env).AddEscrow(addr, asset); err != nil {
		return ledger.Address{}, err
	}
	if err := n.Escrow(addr, env).Initialize(asset, name); err != nil {
		return ledger.Address{}, err
	}

	logger.Info("escrow created", "escrow", addr, "asset", asset)
	return addr, env.Log(registry.Address, "EscrowCreated", &EscrowCreatedEvent{
		Escrow:      addr,
		StakedAsset: asset,
		Name:        name,
	})
}
