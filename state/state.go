// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr ledger.Address
	key  ledger.Bytes32
}

// Bytes returns the kv key of the storage slot.
func (k storageKey) Bytes() []byte {
	return append(append(make([]byte, 0, ledger.AddressLength+32), k.addr[:]...), k.key[:]...)
}

// State manages the storage of all ledger components and the events they emit.
// Writes are kept in memory until staged and committed.
type State struct {
	db         kv.Getter
	sm         *stackedmap.StackedMap[storageKey, rlp.RawValue]
	events     []*Event
	eventMarks []int
}

// New create state object reading through to db.
func New(db kv.Getter) *State {
	state := State{
		db:         db,
		eventMarks: []int{0},
	}
	state.sm = stackedmap.New(state.dbGetter)
	return &state
}

// dbGetter implements stackedmap.MapGetter.
func (s *State) dbGetter(key storageKey) (rlp.RawValue, bool, error) {
	v, err := s.db.Get(key.Bytes())
	if err != nil {
		if s.db.IsNotFound(err) {
			return rlp.RawValue(nil), true, nil
		}
		return nil, false, err
	}
	return rlp.RawValue(v), true, nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr ledger.Address, key ledger.Bytes32) (ledger.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return ledger.Bytes32{}, err
	}
	if len(raw) == 0 {
		return ledger.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return ledger.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return ledger.Blake2b(raw), nil
	}
	return ledger.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr ledger.Address, key, value ledger.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr ledger.Address, key ledger.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr ledger.Address, key ledger.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by end will be absorbed by State instance.
func (s *State) EncodeStorage(addr ledger.Address, key ledger.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr ledger.Address, key ledger.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// AddEvent appends an event. Events added after a checkpoint are dropped by RevertTo.
func (s *State) AddEvent(ev *Event) {
	s.events = append(s.events, ev)
}

// Events returns events added so far.
func (s *State) Events() []*Event {
	return append([]*Event(nil), s.events...)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	rev := s.sm.Push()
	s.eventMarks = append(s.eventMarks[:rev], len(s.events))
	return rev
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if revision < len(s.eventMarks) {
		s.events = s.events[:s.eventMarks[revision]]
		s.eventMarks = s.eventMarks[:revision]
	}
}

// Stage collects the cumulative changes, to be committed into the kv store.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(k storageKey, v rlp.RawValue) bool {
		changes[k] = v
		return true
	})
	return &Stage{changes: changes}
}
