// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/fixedpoint"
	"github.com/vechain/stakeledger/ledger"
)

var (
	slotPools       = nameToSlot("pools")
	slotPoolByAsset = nameToSlot("pool-by-asset")
	slotTotalWeight = nameToSlot("total-alloc-weight")
)

func nameToSlot(name string) ledger.Bytes32 {
	return ledger.BytesToBytes32([]byte(name))
}

// Service stores the pools of a program as a dense array indexed by pool id.
type Service struct {
	pools       *solidity.Array[*Pool]
	byAsset     *solidity.Mapping[ledger.Address, uint64] // asset -> pool id + 1
	totalWeight *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		pools:       solidity.NewArray[*Pool](sctx, slotPools),
		byAsset:     solidity.NewMapping[ledger.Address, uint64](sctx, slotPoolByAsset),
		totalWeight: solidity.NewUint256(sctx, slotTotalWeight),
	}
}

func (s *Service) Len() (uint64, error) {
	return s.pools.Len()
}

// Get returns the pool, failing with reverts.ErrInvalidPool if id is out of range.
func (s *Service) Get(id uint64) (*Pool, error) {
	l, err := s.pools.Len()
	if err != nil {
		return nil, err
	}
	if id >= l {
		return nil, errors.WithMessagef(reverts.ErrInvalidPool, "pool %d of %d", id, l)
	}
	p, err := s.pools.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	return p, nil
}

func (s *Service) Set(id uint64, p *Pool) error {
	if err := s.pools.Set(id, p); err != nil {
		return errors.Wrap(err, "failed to set pool")
	}
	return nil
}

// Add appends p, failing with reverts.ErrDuplicateAsset if its asset already has a pool.
func (s *Service) Add(p *Pool) (uint64, error) {
	existing, err := s.byAsset.Get(p.StakedAsset)
	if err != nil {
		return 0, err
	}
	if existing != 0 {
		return 0, errors.WithMessagef(reverts.ErrDuplicateAsset, "asset %v is pool %d", p.StakedAsset, existing-1)
	}
	id, err := s.pools.Push(p)
	if err != nil {
		return 0, errors.Wrap(err, "failed to add pool")
	}
	if err := s.byAsset.Set(p.StakedAsset, id+1, true); err != nil {
		return 0, err
	}
	return id, nil
}

// IDOf returns the pool id of asset.
func (s *Service) IDOf(asset ledger.Address) (uint64, bool, error) {
	id, err := s.byAsset.Get(asset)
	if err != nil {
		return 0, false, err
	}
	if id == 0 {
		return 0, false, nil
	}
	return id - 1, true, nil
}

func (s *Service) TotalWeight() (uint64, error) {
	w, err := s.totalWeight.Get()
	if err != nil {
		return 0, err
	}
	return w.Uint64(), nil
}

// Reweigh replaces a pool weight of from by to in the total allocation weight.
// A total that leaves the uint64 range reverts with ErrArithmeticOverflow.
func (s *Service) Reweigh(from, to uint64) error {
	total, err := s.totalWeight.Get()
	if err != nil {
		return err
	}
	if total, err = fixedpoint.Sub(total, new(big.Int).SetUint64(from)); err != nil {
		return err
	}
	if total, err = fixedpoint.Add(total, new(big.Int).SetUint64(to)); err != nil {
		return err
	}
	if !total.IsUint64() {
		return errors.WithMessagef(reverts.ErrArithmeticOverflow, "total alloc weight %v", total)
	}
	return s.totalWeight.Set(total)
}
