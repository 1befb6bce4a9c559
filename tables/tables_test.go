package tables

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	table, err := ParseDelimited(strings.NewReader(`# exported
time,x,label
0,1.5,a
1,2.5,b
`), Format{
		Delimiter: ',',
		HasHeader: true,
		SkipRows:  1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if table.NumRows() != 2 {
		t.Fatalf("got %v", table.NumRows())
	}
	xs, ok := table.Floats("x")
	if !ok || xs[1] != 2.5 {
		t.Fatalf("got %v", xs)
	}
	label, ok := table.Column("label")
	if !ok || label.Kind != Text || label.Cell(0) != "a" {
		t.Fatalf("got %+v", label)
	}
	if err := table.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestParseWhitespaceNoHeader(t *testing.T) {
	// two rows of a KITTI pose file
	table, err := ParseDelimited(strings.NewReader(`1 0 0 0.1 0 1 0 0.2 0 0 1 0.3
1 0 0 0.4 0 1 0 0.5 0 0 1 0.6

`), Format{})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Columns) != 12 || table.NumRows() != 2 {
		t.Fatalf("got %v", table.Names())
	}
	xs, ok := table.Floats("column_4")
	if !ok || xs[1] != 0.4 {
		t.Fatalf("got %v", xs)
	}
}

func TestParseRagged(t *testing.T) {
	_, err := ParseDelimited(strings.NewReader("a,b\n1,2\n3\n"), Format{
		Delimiter: ',',
		HasHeader: true,
	})
	if err == nil {
		t.Fatal("should error")
	}
}

func TestAppendAndClear(t *testing.T) {
	buf := New(
		ColumnSpec{Name: "t", Kind: Numeric},
		ColumnSpec{Name: "x", Kind: Numeric},
	)
	rows := New(
		ColumnSpec{Name: "t", Kind: Numeric},
		ColumnSpec{Name: "x", Kind: Numeric},
	)
	rows.Columns[0].Floats = []float64{1, 2}
	rows.Columns[1].Floats = []float64{3, 4}

	if err := buf.AppendRows(rows); err != nil {
		t.Fatal(err)
	}
	if err := buf.AppendRows(rows); err != nil {
		t.Fatal(err)
	}
	if buf.NumRows() != 4 {
		t.Fatalf("got %v", buf.NumRows())
	}

	clone := buf.Clone()
	buf.Clear()
	if buf.NumRows() != 0 || len(buf.Columns) != 2 {
		t.Fatalf("got %+v", buf)
	}
	if clone.NumRows() != 4 {
		t.Fatal("clone should be independent")
	}

	other := New(ColumnSpec{Name: "y", Kind: Numeric})
	if err := buf.AppendRows(other); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("got %v", err)
	}
}

func TestValidate(t *testing.T) {
	table := Table{
		Columns: []Column{
			{Name: "a", Kind: Numeric, Floats: []float64{1, 2}},
			{Name: "b", Kind: Numeric, Floats: []float64{1}},
		},
	}
	if err := table.Validate(); err == nil {
		t.Fatal("should error")
	}
	table.Columns[1].Kind = 0
	if err := table.Validate(); err == nil {
		t.Fatal("should error")
	}
}
