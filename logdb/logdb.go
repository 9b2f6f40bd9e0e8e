// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/event"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/thor"
)

var logger = log.WithContext("pkg", "logdb")

const eventTableSchema = `
CREATE TABLE IF NOT EXISTS vault_event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	time INTEGER NOT NULL,
	name TEXT NOT NULL,
	account BLOB(20),
	amount TEXT,
	reward TEXT
);

CREATE INDEX IF NOT EXISTS vault_event_i0 ON vault_event(account, seq);
CREATE INDEX IF NOT EXISTS vault_event_i1 ON vault_event(time);
`

const insertEvent = "INSERT INTO vault_event(time, name, account, amount, reward) VALUES (?, ?, ?, ?, ?)"

type LogDB struct {
	path          string
	db            *sql.DB
	stmtCache     *stmtCache
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
	// a single connection serializes writers, and keeps ":memory:" to one database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		stmtCache:     newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the version of the linked sqlite library.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// Write stores the vault events of one committed frame. Other records are skipped.
// It returns the number of stored events.
func (db *LogDB) Write(events []state.Event) (int, error) {
	var batch []*Event
	for _, ev := range events {
		if e, ok := NewEvent(ev); ok {
			batch = append(batch, e)
		}
	}
	if len(batch) == 0 {
		return 0, nil
	}

	stmt, err := db.stmtCache.Prepare(insertEvent)
	if err != nil {
		return 0, err
	}
	err = db.execInTx(func(tx *sql.Tx) error {
		insert := tx.Stmt(stmt)
		for _, e := range batch {
			var account []byte
			if e.Account != nil {
				account = e.Account.Bytes()
			}
			if _, err := insert.Exec(e.Time, e.Name, account, amountValue(e.Amount), amountValue(e.Reward)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	metricWrittenEvents().Add(int64(len(batch)))
	return len(batch), nil
}

func (db *LogDB) execInTx(proc func(*sql.Tx) error) (err error) {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Filter queries stored events.
func (db *LogDB) Filter(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT seq, time, name, account, amount, reward FROM vault_event ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT seq, time, name, account, amount, reward FROM vault_event WHERE 1"
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND account = ?"
	}
	if len(filter.Names) > 0 {
		stmt += " AND name IN (?" + strings.Repeat(", ?", len(filter.Names)-1) + ")"
		for _, name := range filter.Names {
			args = append(args, name)
		}
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ?"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
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
			account []byte
			amount  sql.NullString
			reward  sql.NullString
		)
		if err := rows.Scan(&ev.Seq, &ev.Time, &ev.Name, &account, &amount, &reward); err != nil {
			return nil, err
		}
		if len(account) > 0 {
			addr := thor.BytesToAddress(account)
			ev.Account = &addr
		}
		if ev.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if ev.Reward, err = parseAmount(reward); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// amounts are stored as decimal text, nil as NULL.
func amountValue(v *big.Int) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func parseAmount(s sql.NullString) (*big.Int, error) {
	if !s.Valid {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s.String, 10)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s.String)
	}
	return v, nil
}

// Writer follows the committed events of a state and stores them.
type Writer struct {
	db  *LogDB
	ch  chan []state.Event
	sub event.Subscription
}

// NewWriter subscribes to st. Events committed from now on are written once Run is called.
func (db *LogDB) NewWriter(st *state.State) *Writer {
	ch := make(chan []state.Event, 64)
	return &Writer{
		db:  db,
		ch:  ch,
		sub: st.SubscribeEvents(ch),
	}
}

// Run writes events until ctx is done or the state is closed.
func (w *Writer) Run(ctx context.Context) error {
	defer w.sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.sub.Err():
			return err
		case events := <-w.ch:
			if _, err := w.db.Write(events); err != nil {
				logger.Warn("failed to write events", "count", len(events), "err", err)
			}
		}
	}
}
