package domain

import (
	"fmt"
	"strings"
)

// ReportKind identifies one exportable result set.
type ReportKind string

const (
	ReportBrowse          ReportKind = "browse"
	ReportTransfers       ReportKind = "transfers"
	ReportCappedTransfers ReportKind = "capped_transfers"
	ReportReverse         ReportKind = "reverse"
	ReportSlowStock       ReportKind = "slow_stock"
)

var reportLabels = map[ReportKind]string{
	ReportBrowse:          "Buscador",
	ReportTransfers:       "Sugeridos",
	ReportCappedTransfers: "Sugeridos limitados",
	ReportReverse:         "Sugeridos inversos",
	ReportSlowStock:       "C / Sin movimiento",
}

var reportAliases = map[string]ReportKind{
	"browse":           ReportBrowse,
	"buscador":         ReportBrowse,
	"transfers":        ReportTransfers,
	"sugeridos":        ReportTransfers,
	"capped_transfers": ReportCappedTransfers,
	"capped":           ReportCappedTransfers,
	"reverse":          ReportReverse,
	"inversos":         ReportReverse,
	"slow_stock":       ReportSlowStock,
	"slow-stock":       ReportSlowStock,
	"c_sinmov":         ReportSlowStock,
}

// ParseReportKind resolves a report name (case-insensitive).
func ParseReportKind(name string) (ReportKind, error) {
	kind, ok := reportAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownReport, name)
	}
	return kind, nil
}

// Label returns a human-readable title for the report.
func (k ReportKind) Label() string {
	if label, ok := reportLabels[k]; ok {
		return label
	}
	return string(k)
}

// NeedsOrigin reports whether the report is scoped to a single origin warehouse.
func (k ReportKind) NeedsOrigin() bool {
	return k != ReportBrowse
}

// FileName returns the download name of the report for an origin.
func (k ReportKind) FileName(origin string) string {
	switch k {
	case ReportTransfers:
		return fmt.Sprintf("sugeridos_%s.csv", origin)
	case ReportCappedTransfers:
		return fmt.Sprintf("sugeridos_limitados_%s.csv", origin)
	case ReportReverse:
		return fmt.Sprintf("sugeridos_inversos_%s.csv", origin)
	case ReportSlowStock:
		return fmt.Sprintf("c_sinmov_%s.csv", origin)
	}
	return "buscador.csv"
}
