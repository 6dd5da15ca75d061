// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb archives committed ledger events in sqlite for querying.
package logdb

import (
	"context"
	"database/sql"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/state"
)

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// LastSeq returns the sequence of the newest archived operation, 0 if none.
func (db *LogDB) LastSeq(ctx context.Context) (uint64, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRowContext(ctx, "SELECT MAX(opSeq) FROM event").Scan(&seq); err != nil {
		return 0, err
	}
	return uint64(seq.Int64), nil
}

// Prepare starts a batch for the events of one committed operation.
func (db *LogDB) Prepare(seq uint64, opName string, caller ledger.Address) *OpBatch {
	return &OpBatch{
		db:     db.db,
		seq:    seq,
		opName: opName,
		caller: caller,
	}
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	const cols = "SELECT opSeq, eventIndex, opName, caller, time, address, name, data FROM event"
	if filter == nil {
		return db.queryEvents(ctx, cols+" ORDER BY opSeq ASC, eventIndex ASC")
	}
	var args []any
	stmt := cols + " WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ? "
		if filter.Range.To >= filter.Range.From && filter.Range.To > 0 {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ? "
		}
	}
	if filter.AfterSeq > 0 {
		args = append(args, filter.AfterSeq)
		stmt += " AND opSeq > ? "
	}
	length := len(filter.CriteriaSet)
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1 "
		} else {
			stmt += " OR ( 1 "
		}
		if criteria.Address != nil {
			args = append(args, criteria.Address.Bytes())
			stmt += " AND address = ? "
		}
		if criteria.Name != "" {
			args = append(args, criteria.Name)
			stmt += " AND name = ? "
		}
		if i == length-1 {
			stmt += " )) "
		} else {
			stmt += " ) "
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY opSeq DESC, eventIndex DESC "
	} else {
		stmt += " ORDER BY opSeq ASC, eventIndex ASC "
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			ev      Event
			caller  []byte
			address []byte
			data    []byte
		)
		if err := rows.Scan(
			&ev.OpSeq,
			&ev.Index,
			&ev.OpName,
			&caller,
			&ev.Time,
			&address,
			&ev.Name,
			&data,
		); err != nil {
			return nil, err
		}
		ev.Caller = ledger.BytesToAddress(caller)
		ev.Address = ledger.BytesToAddress(address)
		ev.Data = data
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// OpBatch collects the events of one operation and writes them in one sql transaction.
type OpBatch struct {
	db     *sql.DB
	seq    uint64
	opName string
	caller ledger.Address
	events []*state.Event
}

func (b *OpBatch) Insert(events ...*state.Event) *OpBatch {
	b.events = append(b.events, events...)
	return b
}

func (b *OpBatch) execInTx(proc func(*sql.Tx) error) (err error) {
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (b *OpBatch) Commit() error {
	if len(b.events) == 0 {
		return nil
	}
	return b.execInTx(func(tx *sql.Tx) error {
		for i, ev := range b.events {
			if _, err := tx.Exec("INSERT OR REPLACE INTO event(opSeq, eventIndex, opName, caller, time, address, name, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?);",
				b.seq,
				uint32(i),
				b.opName,
				b.caller.Bytes(),
				ev.Time,
				ev.Address.Bytes(),
				ev.Name,
				[]byte(ev.Data),
			); err != nil {
				return err
			}
		}
		return nil
	})
}
