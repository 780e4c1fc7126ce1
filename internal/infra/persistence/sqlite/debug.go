package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrDefineMode is returned when the column layout is changed after
// EndDefineMode, or rows are written before it.
var ErrDefineMode = errors.New("sqlite: debug table define mode mismatch")

// DebugTable writes debug rows into one SQLite table whose columns are the
// variables defined on it. It implements lineage.ColumnWriter.
type DebugTable struct {
	db    *sql.DB
	table string

	mu       sync.Mutex
	names    []string
	units    []string
	defining bool
	current  []sql.NullFloat64
	rows     int
	insert   string
}

// NewDebugTable prepares a debug table on db. The table is created by EndDefineMode.
func NewDebugTable(db *sql.DB, table string) (*DebugTable, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid debug table name %q", table)
	}
	return &DebugTable{db: db, table: table, defining: true}, nil
}

// DefineUnlimitedDimension implements lineage.ColumnWriter.
func (d *DebugTable) DefineUnlimitedDimension(name, units string) (int, error) {
	return d.define(name, units)
}

// DefineVariable implements lineage.ColumnWriter.
func (d *DebugTable) DefineVariable(name, units string) (int, error) {
	return d.define(name, units)
}

func (d *DebugTable) define(name, units string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.defining {
		return 0, ErrDefineMode
	}
	if !identPattern.MatchString(name) {
		return 0, fmt.Errorf("invalid debug variable name %q", name)
	}
	for _, n := range d.names {
		if strings.EqualFold(n, name) {
			return 0, fmt.Errorf("debug variable %s defined twice", name)
		}
	}
	d.names = append(d.names, name)
	d.units = append(d.units, units)
	return len(d.names) - 1, nil
}

// EndDefineMode creates the table and records the variable units.
func (d *DebugTable) EndDefineMode() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.defining {
		return ErrDefineMode
	}
	cols := make([]string, len(d.names))
	marks := make([]string, len(d.names))
	for i, n := range d.names {
		cols[i] = fmt.Sprintf("%q REAL", n)
		marks[i] = "?"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (row INTEGER PRIMARY KEY, %s)`, d.table, strings.Join(cols, ", "))
	if _, err := d.db.Exec(ddl); err != nil {
		return fmt.Errorf("create debug table: %w", err)
	}
	if _, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS debug_units (
		table_name TEXT NOT NULL,
		variable TEXT NOT NULL,
		units TEXT NOT NULL,
		PRIMARY KEY (table_name, variable)
	)`); err != nil {
		return fmt.Errorf("create units table: %w", err)
	}
	for i, n := range d.names {
		if _, err := d.db.Exec(`INSERT OR REPLACE INTO debug_units (table_name, variable, units) VALUES (?, ?, ?)`, d.table, n, d.units[i]); err != nil {
			return fmt.Errorf("record units for %s: %w", n, err)
		}
	}
	quoted := make([]string, len(d.names))
	for i, n := range d.names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	d.insert = fmt.Sprintf(`INSERT INTO %q (row, %s) VALUES (?, %s)`, d.table, strings.Join(quoted, ", "), strings.Join(marks, ", "))
	d.current = make([]sql.NullFloat64, len(d.names))
	d.defining = false
	return nil
}

// PutVariable stages one value of the current row.
func (d *DebugTable) PutVariable(id int, value float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.defining {
		return ErrDefineMode
	}
	if id < 0 || id >= len(d.current) {
		return fmt.Errorf("debug variable id %d out of range", id)
	}
	d.current[id] = sql.NullFloat64{Float64: value, Valid: true}
	return nil
}

// AdvanceAlongUnlimitedDimension inserts the staged row; unset variables are NULL.
func (d *DebugTable) AdvanceAlongUnlimitedDimension() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.defining {
		return ErrDefineMode
	}
	args := make([]any, 0, len(d.current)+1)
	args = append(args, d.rows)
	for _, v := range d.current {
		args = append(args, v)
	}
	if _, err := d.db.Exec(d.insert, args...); err != nil {
		return fmt.Errorf("insert debug row: %w", err)
	}
	d.rows++
	d.current = make([]sql.NullFloat64, len(d.names))
	return nil
}

// Rows reads the table back as maps from variable name to value. NULL
// values are omitted.
func (d *DebugTable) Rows() ([]map[string]float64, error) {
	d.mu.Lock()
	names := append([]string(nil), d.names...)
	d.mu.Unlock()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	rows, err := d.db.Query(fmt.Sprintf(`SELECT %s FROM %q ORDER BY row`, strings.Join(quoted, ", "), d.table))
	if err != nil {
		return nil, fmt.Errorf("select debug rows: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []map[string]float64
	for rows.Next() {
		vals := make([]sql.NullFloat64, len(names))
		dest := make([]any, len(names))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan debug row: %w", err)
		}
		row := make(map[string]float64, len(names))
		for i, v := range vals {
			if v.Valid {
				row[names[i]] = v.Float64
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
