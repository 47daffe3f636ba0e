// Package balance holds the in-memory inventory balance model and the pure
// computations over it: schema resolution, classification, KPIs, transfer
// suggestions and row categories.
package balance

import "time"

// AllWarehouses is the origin value that selects every warehouse at once.
const AllWarehouses = "Todos"

// DefaultOrigin is the warehouse preselected when present in the dataset.
const DefaultOrigin = "Matriz"

// Record is one SKU row of the balance snapshot.
type Record struct {
	Code        string
	Key         string
	Description string
	// Quantities and Classes are keyed by warehouse name. A warehouse without
	// a classification column has no entry in Classes.
	Quantities map[string]int
	Classes    map[string]string
}

// Quantity returns the on-hand quantity of the record in a warehouse.
func (r Record) Quantity(warehouse string) int {
	return r.Quantities[warehouse]
}

// Class returns the normalized classification of the record in a warehouse
// and whether the warehouse carries a classification at all.
func (r Record) Class(warehouse string) (string, bool) {
	cls, ok := r.Classes[warehouse]
	return cls, ok
}

// Warehouse describes one inventory column and its paired classification column.
type Warehouse struct {
	Name        string `json:"name"`
	ClassColumn string `json:"class_column,omitempty"`
}

// HasClass reports whether the warehouse participates in classification logic.
func (w Warehouse) HasClass() bool {
	return w.ClassColumn != ""
}

// Source identifies the file a dataset was loaded from.
type Source struct {
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// Dataset is an immutable snapshot: warehouses sorted by name plus the records.
type Dataset struct {
	Source     Source
	Warehouses []Warehouse
	Records    []Record
	LoadedAt   time.Time
}

// WarehouseNames returns the warehouse names in their stable sorted order.
func (d *Dataset) WarehouseNames() []string {
	names := make([]string, len(d.Warehouses))
	for i, w := range d.Warehouses {
		names[i] = w.Name
	}
	return names
}

// Warehouse looks up a warehouse by exact name.
func (d *Dataset) Warehouse(name string) (Warehouse, bool) {
	for _, w := range d.Warehouses {
		if w.Name == name {
			return w, true
		}
	}
	return Warehouse{}, false
}

// DefaultOriginName returns DefaultOrigin when present, otherwise the first warehouse.
func (d *Dataset) DefaultOriginName() string {
	if _, ok := d.Warehouse(DefaultOrigin); ok {
		return DefaultOrigin
	}
	if len(d.Warehouses) > 0 {
		return d.Warehouses[0].Name
	}
	return ""
}

// DestinationOptions returns every warehouse except the origin.
func (d *Dataset) DestinationOptions(origin string) []string {
	out := make([]string, 0, len(d.Warehouses))
	for _, w := range d.Warehouses {
		if w.Name != origin {
			out = append(out, w.Name)
		}
	}
	return out
}

// Suggestion is a proposed movement of one SKU between two warehouses.
// Shortfall and Suggested are only populated by the capped policy.
type Suggestion struct {
	Code             string `json:"code"`
	Key              string `json:"key"`
	Description      string `json:"description"`
	Origin           string `json:"origin"`
	OriginQty        int    `json:"origin_qty"`
	OriginClass      string `json:"origin_class"`
	Destination      string `json:"destination"`
	DestinationQty   int    `json:"destination_qty"`
	DestinationClass string `json:"destination_class"`
	Shortfall        int    `json:"shortfall,omitempty"`
	Suggested        int    `json:"suggested,omitempty"`
}

// OriginCategory categorizes the origin side of the suggestion.
func (s Suggestion) OriginCategory() Category {
	return Categorize(s.OriginClass, s.OriginQty)
}

// DestinationCategory categorizes the destination side of the suggestion.
func (s Suggestion) DestinationCategory() Category {
	return Categorize(s.DestinationClass, s.DestinationQty)
}

// StockLine is a single-warehouse row of the slow stock listing.
type StockLine struct {
	Code        string `json:"code"`
	Key         string `json:"key"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Class       string `json:"class"`
}

// KPI is the set of headline indicators for one warehouse or for all of them.
type KPI struct {
	Scope          string  `json:"scope"`
	SKUsTotal      int     `json:"skus_total"`
	SKUsActive     int     `json:"skus_active"`
	CountA         int     `json:"count_a"`
	CountB         int     `json:"count_b"`
	CountC         int     `json:"count_c"`
	CountNoMove    int     `json:"count_no_movement"`
	CountLowAB     int     `json:"count_low_ab"`
	PctA           float64 `json:"pct_a"`
	PctB           float64 `json:"pct_b"`
	PctC           float64 `json:"pct_c"`
	PctNoMove      float64 `json:"pct_no_movement"`
	LowABThreshold int     `json:"low_ab_threshold,omitempty"`
}
