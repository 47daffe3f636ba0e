package balance

import "strings"

// DefaultViewLimit caps the rows rendered on screen. Exports ignore it.
const DefaultViewLimit = 500

// Search returns the records whose key, description or code contains the
// query, case-insensitively. A blank query matches everything.
func Search(ds *Dataset, query string) []Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ds.Records
	}

	out := make([]Record, 0)
	for _, r := range ds.Records {
		if strings.Contains(strings.ToLower(r.Key), q) ||
			strings.Contains(strings.ToLower(r.Description), q) ||
			strings.Contains(strings.ToLower(r.Code), q) {
			out = append(out, r)
		}
	}
	return out
}

// Window is the visible slice of a longer result.
type Window[T any] struct {
	Rows      []T  `json:"rows"`
	Total     int  `json:"total"`
	Truncated bool `json:"truncated"`
}

// Limit keeps the first limit rows of all. A non-positive limit keeps everything.
func Limit[T any](all []T, limit int) Window[T] {
	w := Window[T]{Rows: all, Total: len(all)}
	if limit > 0 && len(all) > limit {
		w.Rows = all[:limit]
		w.Truncated = true
	}
	return w
}

// Cell is one warehouse pair of a browse row.
type Cell struct {
	Warehouse string   `json:"warehouse"`
	Quantity  int      `json:"quantity"`
	Class     string   `json:"class"`
	HasClass  bool     `json:"has_class"`
	Category  Category `json:"category,omitempty"`
}

// BrowseRow is a record laid out across every warehouse.
type BrowseRow struct {
	Code        string `json:"code"`
	Key         string `json:"key"`
	Description string `json:"description"`
	Cells       []Cell `json:"cells"`
}

// BrowseRows lays records out over the dataset's warehouses, tagging each
// cell with its category.
func BrowseRows(ds *Dataset, records []Record, cls Classifier) []BrowseRow {
	if cls.marker == "" {
		cls = DefaultClassifier
	}
	rows := make([]BrowseRow, len(records))
	for i, r := range records {
		row := BrowseRow{
			Code:        r.Code,
			Key:         r.Key,
			Description: r.Description,
			Cells:       make([]Cell, len(ds.Warehouses)),
		}
		for j, w := range ds.Warehouses {
			label, ok := r.Class(w.Name)
			c := Cell{Warehouse: w.Name, Quantity: r.Quantity(w.Name), Class: label, HasClass: ok}
			if ok {
				c.Category = cls.Categorize(label, c.Quantity)
			}
			row.Cells[j] = c
		}
		rows[i] = row
	}
	return rows
}
