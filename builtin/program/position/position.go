// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/fixedpoint"
	"github.com/vechain/stakeledger/ledger"
)

// Position is a user's stake in one pool.
type Position struct {
	Staked *big.Int
	// signed, reward already accounted for
	RewardDebt *big.Int
}

// Accumulated returns Staked * acc / Precision.
func (p *Position) Accumulated(acc *big.Int) (*big.Int, error) {
	return fixedpoint.MulDiv(p.Staked, acc, ledger.Precision)
}

// Pending returns the reward owed at accumulator acc.
func (p *Position) Pending(acc *big.Int) (*big.Int, error) {
	accumulated, err := p.Accumulated(acc)
	if err != nil {
		return nil, err
	}
	pending := new(big.Int).Sub(accumulated, p.RewardDebt)
	if pending.Sign() < 0 {
		return nil, errors.WithMessagef(reverts.ErrArithmeticOverflow, "negative pending reward %v", pending)
	}
	return pending, nil
}

// Checkpoint marks everything accumulated up to acc as settled.
func (p *Position) Checkpoint(acc *big.Int) error {
	debt, err := p.Accumulated(acc)
	if err != nil {
		return err
	}
	p.RewardDebt = debt
	return nil
}

type positionRLP struct {
	Staked   *big.Int
	Debt     *big.Int
	Negative bool
}

// EncodeRLP implements rlp.Encoder. The debt sign is stored separately.
func (p *Position) EncodeRLP(w io.Writer) error {
	enc := positionRLP{Staked: p.Staked, Debt: new(big.Int)}
	if p.RewardDebt != nil {
		enc.Debt.Abs(p.RewardDebt)
		enc.Negative = p.RewardDebt.Sign() < 0
	}
	if enc.Staked == nil {
		enc.Staked = new(big.Int)
	}
	return rlp.Encode(w, &enc)
}

// DecodeRLP implements rlp.Decoder.
func (p *Position) DecodeRLP(s *rlp.Stream) error {
	var dec positionRLP
	if err := s.Decode(&dec); err != nil {
		return err
	}
	p.Staked = dec.Staked
	p.RewardDebt = dec.Debt
	if dec.Negative {
		p.RewardDebt.Neg(p.RewardDebt)
	}
	return nil
}
