// Package testutil provides an in-memory database/sql driver that understands
// the handful of statements the postgres event store issues: schema DDL
// (recorded, not executed), single-row inserts, and selects filtered by an
// optional "WHERE col = $n" equality. Rows come back in insertion order.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

var stubSeq atomic.Uint64

// StubConn records statements and keeps inserted rows per table.
type StubConn struct {
	mu       sync.Mutex
	Execs    []string
	Tables   map[string][]map[string]any
	FailPing bool
	// FailTables makes inserts into and selects from the named tables fail.
	FailTables map[string]bool
}

// NewStubDB registers a fresh stub driver and opens a handle on it.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string][]map[string]any)}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct{ conn *StubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) { return nil, fmt.Errorf("transactions not supported") }

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT INTO") {
		return driver.RowsAffected(0), nil
	}
	table, cols, err := parseInsert(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[table] {
		return nil, fmt.Errorf("exec fail for %s", table)
	}
	if len(cols) != len(args) {
		return nil, fmt.Errorf("column/arg mismatch for %s", table)
	}
	row := make(map[string]any, len(cols))
	for i, col := range cols {
		row[col] = args[i].Value
	}
	c.Tables[table] = append(c.Tables[table], row)
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel, err := parseSelect(query)
	if err != nil {
		return nil, err
	}
	table, cols := sel.table, sel.cols
	if c.FailTables[table] {
		return nil, fmt.Errorf("query fail for %s", table)
	}
	var want any
	if sel.whereCol != "" {
		if sel.whereArg < 1 || sel.whereArg > len(args) {
			return nil, fmt.Errorf("missing argument $%d for %s", sel.whereArg, table)
		}
		want = args[sel.whereArg-1].Value
	}
	rows := make([][]driver.Value, 0, len(c.Tables[table]))
	for _, stored := range c.Tables[table] {
		if sel.whereCol != "" && stored[sel.whereCol] != want {
			continue
		}
		vals := make([]driver.Value, len(cols))
		for i, col := range cols {
			vals[i] = stored[col]
		}
		rows = append(rows, vals)
	}
	return &stubRows{cols: cols, rows: rows}, nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func parseInsert(query string) (string, []string, error) {
	up := strings.ToUpper(query)
	at := strings.Index(up, "INTO ")
	if at == -1 {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	rest := strings.TrimSpace(query[at+len("INTO "):])
	open, end := strings.Index(rest, "("), strings.Index(rest, ")")
	if open == -1 || end <= open {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	return strings.ToLower(strings.TrimSpace(rest[:open])), splitColumns(rest[open+1 : end]), nil
}

type selectStmt struct {
	table    string
	cols     []string
	whereCol string
	whereArg int
}

func parseSelect(query string) (selectStmt, error) {
	lower := strings.ToLower(strings.Join(strings.Fields(query), " "))
	bad := fmt.Errorf("cannot parse select: %s", query)
	if !strings.HasPrefix(lower, "select ") {
		return selectStmt{}, bad
	}
	head, tail, ok := strings.Cut(lower[len("select "):], " from ")
	if !ok {
		return selectStmt{}, bad
	}
	fields := strings.Fields(tail)
	if len(fields) == 0 {
		return selectStmt{}, bad
	}
	sel := selectStmt{table: fields[0], cols: splitColumns(head)}
	if len(fields) >= 5 && fields[1] == "where" && fields[3] == "=" && strings.HasPrefix(fields[4], "$") {
		n, err := strconv.Atoi(strings.TrimPrefix(fields[4], "$"))
		if err != nil {
			return selectStmt{}, bad
		}
		sel.whereCol, sel.whereArg = fields[2], n
	}
	return sel, nil
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(p)))
	}
	return out
}
