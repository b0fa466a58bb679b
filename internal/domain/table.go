package domain

// Row is a single product row keyed by column name. A key that is absent or
// maps to nil is a missing cell.
type Row map[string]any

// Table is an ordered-column tabular snapshot of product rows. Columns keep
// registration order so exports are stable run to run. Stages of the
// pipeline never mutate a table they received; they build a new one (Clone
// gives a deep starting copy).
type Table struct {
	columns []string
	colSet  map[string]struct{}
	rows    []Row
}

// NewTable returns an empty table with the given columns pre-registered.
func NewTable(columns ...string) *Table {
	t := &Table{colSet: make(map[string]struct{})}
	for _, c := range columns {
		t.AddColumn(c)
	}
	return t
}

// AddColumn registers a column, preserving first-registration order.
// It reports whether the column was new.
func (t *Table) AddColumn(name string) bool {
	if _, ok := t.colSet[name]; ok {
		return false
	}
	t.colSet[name] = struct{}{}
	t.columns = append(t.columns, name)
	return true
}

// HasColumn reports whether the column is registered.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colSet[name]
	return ok
}

// Columns returns the registered column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// IsEmpty reports whether the table holds no rows. An empty table is the
// legitimate "no data" result of a stage, not an error.
func (t *Table) IsEmpty() bool {
	return len(t.rows) == 0
}

// Append adds a row. The caller is responsible for registering the row's
// columns; unregistered keys are carried but invisible to column iteration.
func (t *Table) Append(row Row) {
	t.rows = append(t.rows, row)
}

// Row returns the i-th row. The returned map is the table's own storage;
// callers that need to modify it must Clone the table first.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Value returns the cell at (row i, column name) and whether it is present
// and non-nil.
func (t *Table) Value(i int, name string) (any, bool) {
	v, ok := t.rows[i][name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Column returns the column's values in row order; missing cells are nil.
func (t *Table) Column(name string) []any {
	out := make([]any, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[name]
	}
	return out
}

// Clone returns a deep copy: new column slice, new row maps.
func (t *Table) Clone() *Table {
	clone := NewTable(t.columns...)
	clone.rows = make([]Row, len(t.rows))
	for i, row := range t.rows {
		dup := make(Row, len(row))
		for k, v := range row {
			dup[k] = v
		}
		clone.rows[i] = dup
	}
	return clone
}
