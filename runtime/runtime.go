// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes ledger operations one at a time, each all-or-nothing.
package runtime

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/co"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/xenv"
)

var (
	logger = log.WithContext("pkg", "runtime")

	metricOpCount    = metrics.LazyLoadCounterVec("ops_count", []string{"op", "result"})
	metricOpDuration = metrics.LazyLoadHistogramVec("op_duration_us", []string{"op"}, metrics.BucketOpMicros)

	stateBucket = kv.Bucket("s")
	metaBucket  = kv.Bucket("m")
	seqKey      = []byte("seq")
	timeKey     = []byte("time")
)

// Receipt describes a committed operation.
type Receipt struct {
	Seq    uint64
	Op     string
	Caller ledger.Address
	Time   uint64
	Events []*state.Event
}

// Executor runs operations against the ledger stored in db.
type Executor struct {
	mu       sync.Mutex
	db       kv.Store
	clock    clockwork.Clock
	natives  *builtin.Natives
	logDB    *logdb.LogDB
	seq      uint64
	lastTime uint64
	notifier co.Notifier
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogDB archives the events of committed operations into db.
func WithLogDB(db *logdb.LogDB) Option {
	return func(e *Executor) { e.logDB = db }
}

// WithClock sets the clock time is read from, the real clock by default.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Executor) { e.clock = clock }
}

// New creates an executor, resuming the operation sequence stored in db.
func New(db kv.Store, natives *builtin.Natives, opts ...Option) (*Executor, error) {
	e := &Executor{
		db:      db,
		clock:   clockwork.NewRealClock(),
		natives: natives,
	}
	for _, opt := range opts {
		opt(e)
	}

	meta := metaBucket.NewGetter(db)
	var err error
	if e.seq, err = loadUint64(meta, seqKey); err != nil {
		return nil, errors.Wrap(err, "load operation sequence")
	}
	if e.lastTime, err = loadUint64(meta, timeKey); err != nil {
		return nil, errors.Wrap(err, "load last operation time")
	}
	e.notifier.Notify(e.seq)
	return e, nil
}

func loadUint64(g kv.Getter, key []byte) (uint64, error) {
	v, err := g.Get(key)
	if err != nil {
		if g.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	if len(v) != 8 {
		return 0, errors.Errorf("corrupted meta value %q", key)
	}
	return binary.BigEndian.Uint64(v), nil
}

func (e *Executor) Natives() *builtin.Natives { return e.natives }
func (e *Executor) Clock() clockwork.Clock    { return e.clock }
func (e *Executor) LogDB() *logdb.LogDB       { return e.logDB }

// Seq returns the sequence of the latest committed operation.
func (e *Executor) Seq() uint64 {
	return e.notifier.Seq()
}

// Wait returns a channel closed once an operation after seq is committed.
func (e *Executor) Wait(seq uint64) <-chan struct{} {
	return e.notifier.Wait(seq)
}

// now reads the clock once, never going backwards across operations.
func (e *Executor) now() uint64 {
	now := uint64(e.clock.Now().Unix())
	if now < e.lastTime {
		return e.lastTime
	}
	return now
}

// Execute runs fn as the operation op on behalf of caller. If fn fails, nothing it did is kept.
func (e *Executor) Execute(caller ledger.Address, op string, fn func(env *xenv.Environment) error) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	now := e.now()
	st := state.New(stateBucket.NewGetter(e.db))
	env := xenv.New(st, &xenv.OpContext{Name: op, Time: now}, caller)

	checkpoint := st.NewCheckpoint()
	if err := fn(env); err != nil {
		st.RevertTo(checkpoint)
		result := "error"
		if reverts.IsRevertErr(err) {
			result = "revert"
		}
		metricOpCount().AddWithLabel(1, map[string]string{"op": op, "result": result})
		logger.Debug("operation reverted", "op", op, "caller", caller, "error", err)
		return nil, err
	}

	seq := e.seq + 1
	bulk := e.db.Bulk()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	if err := metaBucket.NewPutter(bulk).Put(seqKey, buf[:]); err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint64(buf[:], now)
	if err := metaBucket.NewPutter(bulk).Put(timeKey, buf[:]); err != nil {
		return nil, err
	}
	stateBulk := &struct {
		kv.Putter
		kv.WriteFunc
	}{stateBucket.NewPutter(bulk), bulk.Write}
	if err := st.Stage().Commit(stateBulk); err != nil {
		logger.Error("failed to commit operation", "op", op, "error", err)
		return nil, err
	}
	e.seq = seq
	e.lastTime = now

	receipt := &Receipt{
		Seq:    seq,
		Op:     op,
		Caller: caller,
		Time:   now,
		Events: st.Events(),
	}
	if e.logDB != nil {
		if err := e.logDB.Prepare(seq, op, caller).Insert(receipt.Events...).Commit(); err != nil {
			// the ledger is already committed, the archive only lags behind
			logger.Warn("failed to archive events", "seq", seq, "op", op, "error", err)
		}
	}
	e.notifier.Notify(seq)

	metricOpCount().AddWithLabel(1, map[string]string{"op": op, "result": "ok"})
	metricOpDuration().ObserveWithLabels(time.Since(start).Microseconds(), map[string]string{"op": op})
	logger.Debug("operation committed", "seq", seq, "op", op, "caller", caller, "events", len(receipt.Events))
	return receipt, nil
}

// Call runs fn against the current ledger at the current time. Nothing is committed.
func (e *Executor) Call(fn func(env *xenv.Environment) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := state.New(stateBucket.NewGetter(e.db))
	env := xenv.New(st, &xenv.OpContext{Name: "call", Time: e.now()}, ledger.Address{})
	return fn(env)
}

// Events returns archived events, or an error if no log db is configured.
func (e *Executor) Events(ctx context.Context, filter *logdb.EventFilter) ([]*logdb.Event, error) {
	if e.logDB == nil {
		return nil, errors.New("event archive disabled")
	}
	return e.logDB.FilterEvents(ctx, filter)
}
