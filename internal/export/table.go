// Package export turns result sets into delimited tables for download.
package export

import (
	"strconv"

	"github.com/andresuchdata/inventory-balance/internal/balance"
)

// Table is a header plus string rows, ready to serialize.
type Table struct {
	Header []string
	Rows   [][]string
}

var suggestionHeader = []string{
	"Codigo",
	"Clave",
	"Descripción",
	"Almacén origen",
	"Existencia origen",
	"Clasif. origen",
	"Almacén destino",
	"Existencia destino",
	"Clasif. destino",
}

var slowStockHeader = []string{"Codigo", "Clave", "Descripcion", "Existencia_origen", "Clasif_origen"}

// SuggestionTable lays out transfer suggestions. Capped tables add the
// shortfall and suggested quantity columns.
func SuggestionTable(rows []balance.Suggestion, capped bool) Table {
	header := append([]string(nil), suggestionHeader...)
	if capped {
		header = append(header, "Faltante", "Sugerido")
	}

	t := Table{Header: header, Rows: make([][]string, 0, len(rows))}
	for _, s := range rows {
		row := []string{
			s.Code,
			s.Key,
			s.Description,
			s.Origin,
			strconv.Itoa(s.OriginQty),
			s.OriginClass,
			s.Destination,
			strconv.Itoa(s.DestinationQty),
			s.DestinationClass,
		}
		if capped {
			row = append(row, strconv.Itoa(s.Shortfall), strconv.Itoa(s.Suggested))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// SlowStockTable lays out the C / no-movement listing of an origin.
func SlowStockTable(lines []balance.StockLine) Table {
	t := Table{Header: append([]string(nil), slowStockHeader...), Rows: make([][]string, 0, len(lines))}
	for _, l := range lines {
		t.Rows = append(t.Rows, []string{l.Code, l.Key, l.Description, strconv.Itoa(l.Quantity), l.Class})
	}
	return t
}

// BrowseTable lays records out with every warehouse quantity followed by its
// classification column, when the warehouse has one. Base columns keep the
// names of the schema the snapshot was read with.
func BrowseTable(ds *balance.Dataset, records []balance.Record, schema balance.SchemaConfig) Table {
	schema = schema.WithDefaults()
	header := []string{schema.CodeColumn, schema.KeyColumn, schema.DescriptionColumn}
	for _, w := range ds.Warehouses {
		header = append(header, w.Name)
		if w.HasClass() {
			header = append(header, w.ClassColumn)
		}
	}

	t := Table{Header: header, Rows: make([][]string, 0, len(records))}
	for _, r := range records {
		row := make([]string, 0, len(header))
		row = append(row, r.Code, r.Key, r.Description)
		for _, w := range ds.Warehouses {
			row = append(row, strconv.Itoa(r.Quantity(w.Name)))
			if w.HasClass() {
				row = append(row, r.Classes[w.Name])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
