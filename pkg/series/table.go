package series

import (
	"time"

	"github.com/pkg/errors"
)

// Column is a named series inside a Table.
type Column struct {
	Name   string
	Series *Series
}

// Table is a set of named columns sharing one time index.
type Table struct {
	names   []string
	columns map[string]*Series
}

// NewTable builds a table. Every column must share the first column's index and names must be unique.
func NewTable(cols ...Column) (*Table, error) {
	if len(cols) == 0 {
		return nil, errors.Wrap(ErrInvalidParameter, "table needs at least one column")
	}

	t := &Table{
		names:   make([]string, 0, len(cols)),
		columns: make(map[string]*Series, len(cols)),
	}
	for _, c := range cols {
		if c.Series == nil {
			return nil, errors.Wrapf(ErrInvalidParameter, "column %q has no series", c.Name)
		}
		if _, dup := t.columns[c.Name]; dup {
			return nil, errors.Wrapf(ErrInvalidParameter, "duplicate column %q", c.Name)
		}
		if !SameIndex(cols[0].Series, c.Series) {
			return nil, errors.Wrapf(ErrMisalignedInputs, "column %q does not share the table index", c.Name)
		}
		t.names = append(t.names, c.Name)
		t.columns[c.Name] = c.Series
	}

	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.columns[t.names[0]].Len() }

// Time returns the timestamp of row i.
func (t *Table) Time(i int) time.Time { return t.columns[t.names[0]].Time(i) }

// Index returns a copy of the row timestamps.
func (t *Table) Index() []time.Time { return t.columns[t.names[0]].Index() }

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Column returns the named column.
func (t *Table) Column(name string) (*Series, bool) {
	s, ok := t.columns[name]
	return s, ok
}

// At returns the value of column name at row i.
func (t *Table) At(i int, name string) (float64, bool) {
	s, ok := t.columns[name]
	if !ok {
		return 0, false
	}
	return s.At(i)
}
