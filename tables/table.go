// Package tables holds the column-oriented table loaded from datasets and
// accumulated by realtime series.
package tables

import (
	"errors"
	"fmt"
	"slices"
)

type ColumnKind uint8

const (
	Numeric ColumnKind = iota + 1
	Text
)

func (k ColumnKind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	}
	return fmt.Sprintf("ColumnKind(%d)", k)
}

type ColumnSpec struct {
	Name string
	Kind ColumnKind
}

type Column struct {
	Name   string     `msgpack:"name"`
	Kind   ColumnKind `msgpack:"kind"`
	Floats []float64  `msgpack:"floats,omitempty"`
	Texts  []string   `msgpack:"texts,omitempty"`
}

func (c *Column) Len() int {
	if c.Kind == Text {
		return len(c.Texts)
	}
	return len(c.Floats)
}

// Cell formats one cell for display.
func (c *Column) Cell(row int) string {
	if c.Kind == Text {
		return c.Texts[row]
	}
	return fmt.Sprintf("%g", c.Floats[row])
}

type Table struct {
	Columns []Column `msgpack:"columns"`
}

var ErrSchemaMismatch = errors.New("schema mismatch")

// New returns an empty table with the given columns.
func New(specs ...ColumnSpec) Table {
	columns := make([]Column, 0, len(specs))
	for _, spec := range specs {
		columns = append(columns, Column{
			Name: spec.Name,
			Kind: spec.Kind,
		})
	}
	return Table{
		Columns: columns,
	}
}

func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

func (t *Table) Schema() []ColumnSpec {
	ret := make([]ColumnSpec, 0, len(t.Columns))
	for _, c := range t.Columns {
		ret = append(ret, ColumnSpec{
			Name: c.Name,
			Kind: c.Kind,
		})
	}
	return ret
}

func (t *Table) Names() []string {
	ret := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		ret = append(ret, c.Name)
	}
	return ret
}

func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Floats returns the values of a numeric column.
func (t *Table) Floats(name string) ([]float64, bool) {
	c, ok := t.Column(name)
	if !ok || c.Kind != Numeric {
		return nil, false
	}
	return c.Floats, true
}

// Validate checks that every column has a known kind and all columns have the
// same length. Decoded tables are validated before being exposed.
func (t *Table) Validate() error {
	rows := t.NumRows()
	for _, c := range t.Columns {
		switch c.Kind {
		case Numeric:
			if len(c.Texts) > 0 {
				return fmt.Errorf("column %s: numeric column with text values", c.Name)
			}
		case Text:
			if len(c.Floats) > 0 {
				return fmt.Errorf("column %s: text column with numeric values", c.Name)
			}
		default:
			return fmt.Errorf("column %s: bad kind %v", c.Name, c.Kind)
		}
		if c.Len() != rows {
			return fmt.Errorf("column %s: %d rows, expecting %d", c.Name, c.Len(), rows)
		}
	}
	return nil
}

func (t *Table) SameSchema(specs []ColumnSpec) bool {
	return slices.Equal(t.Schema(), specs)
}

// AppendRows appends all rows of other, which must have the same schema.
func (t *Table) AppendRows(other Table) error {
	if !t.SameSchema(other.Schema()) {
		return fmt.Errorf("%w: have %v, got %v", ErrSchemaMismatch, t.Names(), other.Names())
	}
	for i := range t.Columns {
		t.Columns[i].Floats = append(t.Columns[i].Floats, other.Columns[i].Floats...)
		t.Columns[i].Texts = append(t.Columns[i].Texts, other.Columns[i].Texts...)
	}
	return nil
}

// Clear drops all rows and keeps the schema.
func (t *Table) Clear() {
	for i := range t.Columns {
		t.Columns[i].Floats = nil
		t.Columns[i].Texts = nil
	}
}

func (t Table) Clone() Table {
	columns := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = Column{
			Name:   c.Name,
			Kind:   c.Kind,
			Floats: slices.Clone(c.Floats),
			Texts:  slices.Clone(c.Texts),
		}
	}
	return Table{
		Columns: columns,
	}
}
