// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"encoding/json"

	"github.com/vechain/stakeledger/ledger"
)

// Event is a committed ledger event as archived.
type Event struct {
	OpSeq   uint64          `json:"opSeq"`
	Index   uint32          `json:"index"`
	OpName  string          `json:"op"`
	Caller  ledger.Address  `json:"caller"`
	Time    uint64          `json:"time"`
	Address ledger.Address  `json:"address"`
	Name    string          `json:"name"`
	Data    json.RawMessage `json:"data"`
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive time range. To == 0 means unbounded.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events by emitting address and/or name.
type EventCriteria struct {
	Address *ledger.Address
	Name    string
}

// EventFilter selects events matching any of CriteriaSet within Range.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	AfterSeq    uint64 // only events of operations after this sequence
	Options     *Options
	Order       Order // default asc
}
