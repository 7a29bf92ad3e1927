// Copyright 2026 Marcel Schaible
// Licensed under the MIT license. See license text in the LICENSE file.

package trace

import (
	"database/sql"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	pyrtl "github.com/MarcelSchaible/PyRTL"
)

// A SQLiteTracer stores trace rows in a SQLite database, batched into
// transactions.
type SQLiteTracer struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	rows      []taggedRow
	batchSize int
}

type taggedRow struct {
	simID string
	row
}

// NewSQLiteTracer creates a SQLite tracer. An empty path picks a
// generated database name in the working directory.
func NewSQLiteTracer(path string) *SQLiteTracer {
	t := &SQLiteTracer{
		dbName:    path,
		batchSize: 10000,
	}

	atexit.Register(func() { t.Flush() })

	return t
}

// Init establishes the database connection and creates the trace table.
func (t *SQLiteTracer) Init() {
	if t.dbName == "" {
		t.dbName = xid.New().String() + ".sqlite3"
	}
	db, err := sql.Open("sqlite3", t.dbName)
	if err != nil {
		panic(err)
	}
	t.DB = db

	t.mustExecute(`
		CREATE TABLE IF NOT EXISTS trace (
			sim_id TEXT,
			cycle INTEGER,
			kind TEXT,
			name TEXT,
			addr INTEGER,
			value INTEGER,
			width INTEGER
		);
	`)

	t.statement, err = t.Prepare(
		`INSERT INTO trace (sim_id, cycle, kind, name, addr, value, width) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		panic(err)
	}
}

// Record implements pyrtl.Tracer.
func (t *SQLiteTracer) Record(s pyrtl.Snapshot) {
	for _, r := range flatten(s) {
		t.rows = append(t.rows, taggedRow{simID: s.SimulationID, row: r})
	}
	if len(t.rows) >= t.batchSize {
		t.Flush()
	}
}

// Flush writes all buffered rows to the database in one transaction.
func (t *SQLiteTracer) Flush() {
	if len(t.rows) == 0 {
		return
	}

	t.mustExecute("BEGIN TRANSACTION")
	defer t.mustExecute("COMMIT TRANSACTION")

	for _, r := range t.rows {
		var addr interface{}
		if r.hasAddr {
			addr = int64(r.addr)
		}
		_, err := t.statement.Exec(r.simID, r.cycle, r.kind, r.name, addr, int64(r.value), r.width)
		if err != nil {
			panic(err)
		}
	}

	t.rows = nil
}

// Path returns the database file name, available after Init.
func (t *SQLiteTracer) Path() string { return t.dbName }

func (t *SQLiteTracer) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		panic(err)
	}
	return res
}
