// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package permit verifies signed, single-use authorizations that let a grantee act for a grantor.
//
// A grant is bound to a domain (the component that consumes it), a scope and the grantor's
// current nonce for that domain and scope. Consuming a grant bumps the nonce, so every signature
// is accepted at most once.
package permit

import (
	"crypto/ecdsa"
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "permit")

// Address is where permit nonces are stored.
var Address = ledger.BytesToAddress([]byte("Permit"))

var (
	slotNonces = ledger.BytesToBytes32([]byte("nonces"))

	domainTag = []byte("\x19\x01")
	typeTag   = []byte("StakeLedgerPermit")
)

// Scope limits what a grant authorizes.
type Scope uint8

const (
	ScopeJoin Scope = iota + 1
	ScopeHarvest
	ScopeTransfer
)

func (s Scope) String() string {
	switch s {
	case ScopeJoin:
		return "join"
	case ScopeHarvest:
		return "harvest"
	case ScopeTransfer:
		return "transfer"
	}
	return "unknown"
}

// Grant is the signed authorization. Value carries the scope specific amount,
// a share allowance for transfers or a time limit for harvests.
type Grant struct {
	Grantor  ledger.Address
	Grantee  ledger.Address
	Scope    Scope
	Value    *big.Int
	Deadline uint64
	Nonce    uint64
}

// Digest returns the hash a grantor signs for grant within domain.
func Digest(domain ledger.Address, g *Grant) ledger.Bytes32 {
	var nums [16]byte
	binary.BigEndian.PutUint64(nums[:8], g.Deadline)
	binary.BigEndian.PutUint64(nums[8:], g.Nonce)

	value := g.Value
	if value == nil {
		value = new(big.Int)
	}
	structHash := ledger.Keccak256(
		[]byte{byte(g.Scope)},
		g.Grantor.Bytes(),
		g.Grantee.Bytes(),
		math.U256Bytes(new(big.Int).Set(value)),
		nums[:],
	)
	separator := ledger.Keccak256(typeTag, domain.Bytes())
	return ledger.Keccak256(domainTag, separator.Bytes(), structHash.Bytes())
}

// Sign produces the signature of grant by key.
func Sign(key *ecdsa.PrivateKey, domain ledger.Address, g *Grant) ([]byte, error) {
	digest := Digest(domain, g)
	return crypto.Sign(digest.Bytes(), key)
}

// Signer recovers the address that signed grant.
func Signer(domain ledger.Address, g *Grant, sig []byte) (ledger.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return ledger.Address{}, errors.Errorf("invalid signature length %d", len(sig))
	}
	normalized := append([]byte(nil), sig...)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	digest := Digest(domain, g)
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return ledger.Address{}, errors.Wrap(err, "recover signer")
	}
	return ledger.Address(crypto.PubkeyToAddress(*pub)), nil
}

// Permit keeps the per grantor nonces.
type Permit struct {
	nonces *solidity.Mapping[ledger.Bytes32, uint64]
}

func New(env *xenv.Environment) *Permit {
	ctx := solidity.NewContext(Address, env.State(), env.Charger())
	return &Permit{
		nonces: solidity.NewMapping[ledger.Bytes32, uint64](ctx, slotNonces),
	}
}

func nonceKey(domain, grantor ledger.Address, scope Scope) ledger.Bytes32 {
	return ledger.Blake2b(domain.Bytes(), grantor.Bytes(), []byte{byte(scope)})
}

// Nonce returns the nonce the next grant of grantor in domain and scope must carry.
func (p *Permit) Nonce(domain, grantor ledger.Address, scope Scope) (uint64, error) {
	return p.nonces.Get(nonceKey(domain, grantor, scope))
}

// VerifyAndConsume checks that sig is grantor's signature of grant under the current nonce,
// and consumes the nonce if so. Expiry is checked by the consuming component.
func (p *Permit) VerifyAndConsume(domain ledger.Address, g *Grant, sig []byte) (bool, error) {
	key := nonceKey(domain, g.Grantor, g.Scope)
	nonce, err := p.nonces.Get(key)
	if err != nil {
		return false, err
	}
	if g.Nonce != nonce {
		logger.Debug("stale permit nonce", "grantor", g.Grantor, "scope", g.Scope, "want", nonce, "got", g.Nonce)
		return false, nil
	}
	signer, err := Signer(domain, g, sig)
	if err != nil {
		logger.Debug("bad permit signature", "grantor", g.Grantor, "error", err)
		return false, nil
	}
	if signer != g.Grantor {
		return false, nil
	}
	if err := p.nonces.Set(key, nonce+1, nonce == 0); err != nil {
		return false, err
	}
	return true, nil
}
