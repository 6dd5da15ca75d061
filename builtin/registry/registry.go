// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry keeps the factory bookkeeping: which programs and escrows are genuine,
// which escrow holds a given asset, and which pool each program opened for an escrow.
package registry

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "registry")

// Address is where the registry keeps its storage.
var Address = ledger.BytesToAddress([]byte("Registry"))

var (
	slotPrograms      = nameToSlot("programs")
	slotEscrows       = nameToSlot("escrows")
	slotIsProgram     = nameToSlot("is-program")
	slotIsEscrow      = nameToSlot("is-escrow")
	slotEscrowByAsset = nameToSlot("escrow-by-asset")
	slotPools         = nameToSlot("pools")
)

func nameToSlot(name string) ledger.Bytes32 {
	return ledger.BytesToBytes32([]byte(name))
}

// PoolRegisteredEvent is logged when a program opens a pool for an escrow's asset.
type PoolRegisteredEvent struct {
	Escrow  ledger.Address `json:"escrow"`
	Program ledger.Address `json:"program"`
	PoolID  uint64         `json:"poolId"`
}

type Registry struct {
	env           *xenv.Environment
	programs      *solidity.Array[ledger.Address]
	escrows       *solidity.Array[ledger.Address]
	isProgram     *solidity.Mapping[ledger.Address, bool]
	isEscrow      *solidity.Mapping[ledger.Address, bool]
	escrowByAsset *solidity.Mapping[ledger.Address, ledger.Address]
	// (escrow, program) -> pool id + 1
	pools *solidity.Mapping[ledger.Bytes32, uint64]
}

func New(env *xenv.Environment) *Registry {
	ctx := solidity.NewContext(Address, env.State(), env.Charger())
	return &Registry{
		env:           env,
		programs:      solidity.NewArray[ledger.Address](ctx, slotPrograms),
		escrows:       solidity.NewArray[ledger.Address](ctx, slotEscrows),
		isProgram:     solidity.NewMapping[ledger.Address, bool](ctx, slotIsProgram),
		isEscrow:      solidity.NewMapping[ledger.Address, bool](ctx, slotIsEscrow),
		escrowByAsset: solidity.NewMapping[ledger.Address, ledger.Address](ctx, slotEscrowByAsset),
		pools:         solidity.NewMapping[ledger.Bytes32, uint64](ctx, slotPools),
	}
}

//
// Getters - no state change
//

func (r *Registry) IsValidProgram(addr ledger.Address) (bool, error) {
	return r.isProgram.Get(addr)
}

func (r *Registry) IsValidEscrow(addr ledger.Address) (bool, error) {
	return r.isEscrow.Get(addr)
}

// EscrowOf returns the escrow holding asset. The bool is false if none was created.
func (r *Registry) EscrowOf(asset ledger.Address) (ledger.Address, bool, error) {
	escrow, err := r.escrowByAsset.Get(asset)
	if err != nil {
		return ledger.Address{}, false, err
	}
	return escrow, !escrow.IsZero(), nil
}

func (r *Registry) Programs() ([]ledger.Address, error) {
	return r.programs.All()
}

func (r *Registry) Escrows() ([]ledger.Address, error) {
	return r.escrows.All()
}

// PoolOf returns the pool program opened for the asset of escrow.
func (r *Registry) PoolOf(escrow, program ledger.Address) (uint64, bool, error) {
	id, err := r.pools.Get(solidity.PairKey(escrow, program))
	if err != nil {
		return 0, false, err
	}
	if id == 0 {
		return 0, false, nil
	}
	return id - 1, true, nil
}

//
// Setters - state change
//

// AddProgram records a factory-created program.
func (r *Registry) AddProgram(addr ledger.Address) error {
	valid, err := r.isProgram.Get(addr)
	if err != nil {
		return err
	}
	if valid {
		return errors.WithMessagef(reverts.ErrAlreadyInitialized, "program %v", addr)
	}
	if err := r.isProgram.Set(addr, true, true); err != nil {
		return err
	}
	_, err = r.programs.Push(addr)
	return err
}

// AddEscrow records a factory-created escrow for asset. Every asset has at most one escrow.
func (r *Registry) AddEscrow(addr, asset ledger.Address) error {
	_, exists, err := r.EscrowOf(asset)
	if err != nil {
		return err
	}
	if exists {
		return errors.WithMessagef(reverts.ErrDuplicateAsset, "asset %v already has an escrow", asset)
	}
	if err := r.isEscrow.Set(addr, true, true); err != nil {
		return err
	}
	if err := r.escrowByAsset.Set(asset, addr, true); err != nil {
		return err
	}
	_, err = r.escrows.Push(addr)
	return err
}

// RegisterPool is called by a program when it adds a pool for the asset of escrow.
func (r *Registry) RegisterPool(escrow ledger.Address, poolID uint64) error {
	program := r.env.Caller()
	logger.Debug("registering pool", "escrow", escrow, "program", program, "pool", poolID)

	valid, err := r.isProgram.Get(program)
	if err != nil {
		return err
	}
	if !valid {
		return errors.WithMessagef(reverts.ErrUnauthorized, "caller %v is not a program", program)
	}
	if valid, err = r.isEscrow.Get(escrow); err != nil {
		return err
	} else if !valid {
		return errors.WithMessagef(reverts.ErrNotRegistered, "escrow %v", escrow)
	}
	if _, exists, err := r.PoolOf(escrow, program); err != nil {
		return err
	} else if exists {
		return errors.WithMessagef(reverts.ErrDuplicateAsset, "program %v already has a pool for escrow %v", program, escrow)
	}
	if err := r.pools.Set(solidity.PairKey(escrow, program), poolID+1, true); err != nil {
		return err
	}
	return r.env.Log(Address, "PoolRegistered", &PoolRegisteredEvent{Escrow: escrow, Program: program, PoolID: poolID})
}
