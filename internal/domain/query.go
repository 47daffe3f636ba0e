package domain

import (
	"github.com/andresuchdata/inventory-balance/internal/balance"
)

// BalanceQuery carries the user's selection for one request. A nil
// Destinations slice means every warehouse except the origin; an empty
// non-nil slice means none. Threshold 0 falls back to the configured value.
type BalanceQuery struct {
	Origin       string
	Destinations []string
	Threshold    int
	Variant      string
	Search       string
}

type WarehouseList struct {
	Warehouses    []balance.Warehouse `json:"warehouses"`
	DefaultOrigin string              `json:"default_origin"`
	Source        balance.Source      `json:"source"`
	Records       int                 `json:"records"`
}

type Overview struct {
	Policy string      `json:"policy"`
	KPI    balance.KPI `json:"kpi"`
}

type BrowseResult struct {
	Query      string                            `json:"query"`
	Warehouses []balance.Warehouse               `json:"warehouses"`
	View       balance.Window[balance.BrowseRow] `json:"view"`
	Notice     string                            `json:"notice,omitempty"`
}

type SuggestionResult struct {
	Report       ReportKind                         `json:"report"`
	Origin       string                             `json:"origin"`
	Destinations []string                           `json:"destinations"`
	Threshold    int                                `json:"threshold,omitempty"`
	View         balance.Window[balance.Suggestion] `json:"view"`
	Notice       string                             `json:"notice,omitempty"`
}

type SlowStockResult struct {
	Origin string                            `json:"origin"`
	View   balance.Window[balance.StockLine] `json:"view"`
	Notice string                            `json:"notice,omitempty"`
}
