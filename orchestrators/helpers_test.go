package orchestrators

import (
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/tables"
)

func oneRow() tables.Table {
	table := tables.New(tables.ColumnSpec{Name: "x", Kind: tables.Numeric})
	table.Columns[0].Floats = []float64{1}
	return table
}

func pointRows(n int) tables.Table {
	specs, _ := models.Point.Schema()
	table := tables.New(specs...)
	for i := range table.Columns {
		for j := range n {
			table.Columns[i].Floats = append(table.Columns[i].Floats, float64(j))
		}
	}
	return table
}
