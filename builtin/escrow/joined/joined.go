// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package joined keeps, per user, the insertion-ordered set of programs the user has joined.
package joined

import (
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
)

var (
	slotHead   = nameToSlot("joined-head")
	slotTail   = nameToSlot("joined-tail")
	slotNext   = nameToSlot("joined-next")
	slotPrev   = nameToSlot("joined-prev")
	slotMember = nameToSlot("joined-member")
	slotCount  = nameToSlot("joined-count")
)

func nameToSlot(name string) ledger.Bytes32 {
	return ledger.BytesToBytes32([]byte(name))
}

// List is a doubly linked list of programs for every user.
type List struct {
	head   *solidity.Mapping[ledger.Address, ledger.Address]
	tail   *solidity.Mapping[ledger.Address, ledger.Address]
	next   *solidity.Mapping[ledger.Bytes32, ledger.Address]
	prev   *solidity.Mapping[ledger.Bytes32, ledger.Address]
	member *solidity.Mapping[ledger.Bytes32, bool]
	count  *solidity.Mapping[ledger.Address, uint64]
}

func New(sctx *solidity.Context) *List {
	return &List{
		head:   solidity.NewMapping[ledger.Address, ledger.Address](sctx, slotHead),
		tail:   solidity.NewMapping[ledger.Address, ledger.Address](sctx, slotTail),
		next:   solidity.NewMapping[ledger.Bytes32, ledger.Address](sctx, slotNext),
		prev:   solidity.NewMapping[ledger.Bytes32, ledger.Address](sctx, slotPrev),
		member: solidity.NewMapping[ledger.Bytes32, bool](sctx, slotMember),
		count:  solidity.NewMapping[ledger.Address, uint64](sctx, slotCount),
	}
}

// Contains reports whether user has joined program.
func (l *List) Contains(user, program ledger.Address) (bool, error) {
	return l.member.Get(solidity.PairKey(user, program))
}

// Len returns the number of programs user has joined.
func (l *List) Len(user ledger.Address) (uint64, error) {
	return l.count.Get(user)
}

// Add appends program to the list of user. It returns false if it was already there.
func (l *List) Add(user, program ledger.Address) (bool, error) {
	key := solidity.PairKey(user, program)
	if ok, err := l.member.Get(key); err != nil || ok {
		return false, err
	}

	oldTail, err := l.tail.Get(user)
	if err != nil {
		return false, err
	}
	if oldTail.IsZero() {
		// empty, the entry becomes head and tail
		if err := l.head.Set(user, program, true); err != nil {
			return false, err
		}
	} else {
		if err := l.next.Set(solidity.PairKey(user, oldTail), program, true); err != nil {
			return false, err
		}
		if err := l.prev.Set(key, oldTail, true); err != nil {
			return false, err
		}
	}
	if err := l.tail.Set(user, program, oldTail.IsZero()); err != nil {
		return false, err
	}
	if err := l.member.Set(key, true, true); err != nil {
		return false, err
	}
	return true, l.adjustCount(user, 1)
}

// Remove unlinks program from the list of user. It returns false if it was not there.
func (l *List) Remove(user, program ledger.Address) (bool, error) {
	key := solidity.PairKey(user, program)
	if ok, err := l.member.Get(key); err != nil || !ok {
		return false, err
	}

	prev, err := l.prev.Get(key)
	if err != nil {
		return false, err
	}
	next, err := l.next.Get(key)
	if err != nil {
		return false, err
	}

	if prev.IsZero() {
		err = l.head.Set(user, next, false)
	} else {
		err = l.next.Set(solidity.PairKey(user, prev), next, false)
	}
	if err != nil {
		return false, err
	}
	if next.IsZero() {
		err = l.tail.Set(user, prev, false)
	} else {
		err = l.prev.Set(solidity.PairKey(user, next), prev, false)
	}
	if err != nil {
		return false, err
	}

	for _, m := range []*solidity.Mapping[ledger.Bytes32, ledger.Address]{l.next, l.prev} {
		if err := m.Delete(key); err != nil {
			return false, err
		}
	}
	if err := l.member.Delete(key); err != nil {
		return false, err
	}
	return true, l.adjustCount(user, -1)
}

// Iter visits the programs of user in join order until fn returns an error.
// Removing the visited program from within fn is allowed.
func (l *List) Iter(user ledger.Address, fn func(program ledger.Address) error) error {
	ptr, err := l.head.Get(user)
	if err != nil {
		return err
	}
	for !ptr.IsZero() {
		next, err := l.next.Get(solidity.PairKey(user, ptr))
		if err != nil {
			return err
		}
		if err := fn(ptr); err != nil {
			return err
		}
		ptr = next
	}
	return nil
}

// All returns the programs of user in join order.
func (l *List) All(user ledger.Address) ([]ledger.Address, error) {
	var programs []ledger.Address
	err := l.Iter(user, func(program ledger.Address) error {
		programs = append(programs, program)
		return nil
	})
	return programs, err
}

func (l *List) adjustCount(user ledger.Address, delta int) error {
	n, err := l.count.Get(user)
	if err != nil {
		return err
	}
	if delta < 0 {
		n--
	} else {
		n++
	}
	return l.count.Set(user, n, n == 1 && delta > 0)
}
