// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
)

var slotPositions = ledger.BytesToBytes32([]byte("positions"))

// Service stores positions keyed by (pool id, user).
type Service struct {
	positions *solidity.Mapping[ledger.Bytes32, *Position]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		positions: solidity.NewMapping[ledger.Bytes32, *Position](sctx, slotPositions),
	}
}

func key(poolID uint64, user ledger.Address) ledger.Bytes32 {
	return ledger.Blake2b(solidity.Index(poolID).Bytes(), user.Bytes())
}

// Get returns the position, an empty one if the user never staked.
func (s *Service) Get(poolID uint64, user ledger.Address) (*Position, error) {
	p, err := s.positions.Get(key(poolID, user))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position")
	}
	if p.Staked == nil {
		p.Staked = new(big.Int)
	}
	if p.RewardDebt == nil {
		p.RewardDebt = new(big.Int)
	}
	return p, nil
}

func (s *Service) Set(poolID uint64, user ledger.Address, p *Position) error {
	if err := s.positions.Set(key(poolID, user), p, false); err != nil {
		return errors.Wrap(err, "failed to set position")
	}
	return nil
}
