package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/andresuchdata/inventory-balance/internal/balance"
	"github.com/andresuchdata/inventory-balance/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	noticeStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#fb8c00"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// cell is one rendered table value; category drives its background.
type cell struct {
	text     string
	category balance.Category
	numeric  bool
}

func text(s string) cell { return cell{text: s} }

func number(n int, cat balance.Category) cell {
	return cell{text: balance.FormatInt(n), category: cat, numeric: true}
}

func categoryStyle(cat balance.Category) lipgloss.Style {
	style := cellStyle
	if color := cat.Color(); color != "" {
		style = style.Background(lipgloss.Color(color)).Foreground(lipgloss.Color("#FFFFFF"))
	}
	return style
}

// renderTable pads every column to its widest value.
func renderTable(header []string, rows [][]cell) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, c := range row {
			if i < len(widths) && lipgloss.Width(c.text) > widths[i] {
				widths[i] = lipgloss.Width(c.text)
			}
		}
	}

	var b strings.Builder
	parts := make([]string, len(header))
	for i, h := range header {
		parts[i] = headerStyle.Width(widths[i] + 2).Render(h)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	b.WriteString("\n")

	for _, row := range rows {
		parts = parts[:0]
		for i, c := range row {
			if i >= len(widths) {
				break
			}
			style := categoryStyle(c.category).Width(widths[i] + 2)
			if c.numeric {
				style = style.Align(lipgloss.Right)
			}
			parts = append(parts, style.Render(c.text))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
		b.WriteString("\n")
	}
	return b.String()
}

func renderLegend() string {
	parts := make([]string, 0, len(balance.Categories()))
	for _, cat := range balance.Categories() {
		parts = append(parts, categoryStyle(cat).Render(cat.Label()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderFooter(total, shown int, truncated bool, notice string) string {
	var b strings.Builder
	if notice != "" {
		b.WriteString(noticeStyle.Render(notice))
		b.WriteString("\n")
	}
	if truncated {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("showing %s of %s rows, export for the full list",
			balance.FormatInt(shown), balance.FormatInt(total))))
		b.WriteString("\n")
	}
	return b.String()
}

func renderWarehouses(list *domain.WarehouseList) string {
	rows := make([][]cell, 0, len(list.Warehouses))
	for _, w := range list.Warehouses {
		classColumn := w.ClassColumn
		if classColumn == "" {
			classColumn = "-"
		}
		marker := ""
		if w.Name == list.DefaultOrigin {
			marker = "*"
		}
		rows = append(rows, []cell{text(w.Name), text(classColumn), text(marker)})
	}

	return titleStyle.Render(fmt.Sprintf("%s (%s SKUs)", list.Source.Path, balance.FormatInt(list.Records))) + "\n" +
		renderTable([]string{"Almacén", "Clasificación", "Origen"}, rows)
}

func renderOverview(ov *domain.Overview) string {
	k := ov.KPI
	lowLabel := "A/B en cero"
	if k.LowABThreshold > 0 {
		lowLabel = fmt.Sprintf("A/B con 1..%d", k.LowABThreshold)
	}

	rows := [][]cell{
		{text("SKUs totales"), number(k.SKUsTotal, balance.CategoryNone), text("")},
		{text("A"), number(k.CountA, balance.CategoryABInStock), text(balance.FormatPercent(k.PctA))},
		{text("B"), number(k.CountB, balance.CategoryABInStock), text(balance.FormatPercent(k.PctB))},
		{text("C"), number(k.CountC, balance.CategoryCInStock), text(balance.FormatPercent(k.PctC))},
		{text("Sin movimiento"), number(k.CountNoMove, balance.CategoryNoMovementInStock), text(balance.FormatPercent(k.PctNoMove))},
		{text(lowLabel), number(k.CountLowAB, balance.CategoryABOutOfStock), text("")},
	}

	return titleStyle.Render(fmt.Sprintf("KPIs %s (%s)", k.Scope, ov.Policy)) + "\n" +
		renderTable([]string{"Indicador", "SKUs", "%"}, rows)
}

func renderBrowse(res *domain.BrowseResult) string {
	header := []string{"Codigo", "Clave", "Descripcion"}
	for _, w := range res.Warehouses {
		header = append(header, w.Name)
		if w.HasClass() {
			header = append(header, "Clasif.")
		}
	}

	rows := make([][]cell, 0, len(res.View.Rows))
	for _, r := range res.View.Rows {
		row := []cell{text(r.Code), text(r.Key), text(r.Description)}
		for _, c := range r.Cells {
			row = append(row, number(c.Quantity, c.Category))
			if c.HasClass {
				row = append(row, cell{text: c.Class, category: c.Category})
			}
		}
		rows = append(rows, row)
	}

	return renderTable(header, rows) +
		renderFooter(res.View.Total, len(res.View.Rows), res.View.Truncated, res.Notice) +
		renderLegend() + "\n"
}

func renderSuggestions(res *domain.SuggestionResult) string {
	capped := res.Report == domain.ReportCappedTransfers
	header := []string{"Codigo", "Clave", "Descripción", "Origen", "Exist.", "Clasif.", "Destino", "Exist.", "Clasif."}
	if capped {
		header = append(header, "Faltante", "Sugerido")
	}

	rows := make([][]cell, 0, len(res.View.Rows))
	for _, s := range res.View.Rows {
		oc, dc := s.OriginCategory(), s.DestinationCategory()
		row := []cell{
			text(s.Code),
			text(s.Key),
			text(s.Description),
			text(s.Origin),
			number(s.OriginQty, oc),
			{text: s.OriginClass, category: oc},
			text(s.Destination),
			number(s.DestinationQty, dc),
			{text: s.DestinationClass, category: dc},
		}
		if capped {
			row = append(row, number(s.Shortfall, balance.CategoryNone), number(s.Suggested, balance.CategoryNone))
		}
		rows = append(rows, row)
	}

	title := fmt.Sprintf("%s · %s → %s", res.Report.Label(), res.Origin, strings.Join(res.Destinations, ", "))
	if capped {
		title += fmt.Sprintf(" (umbral %d)", res.Threshold)
	}
	return titleStyle.Render(title) + "\n" +
		renderTable(header, rows) +
		renderFooter(res.View.Total, len(res.View.Rows), res.View.Truncated, res.Notice)
}

func renderSlowStock(res *domain.SlowStockResult) string {
	rows := make([][]cell, 0, len(res.View.Rows))
	for _, l := range res.View.Rows {
		cat := balance.Categorize(l.Class, l.Quantity)
		rows = append(rows, []cell{
			text(l.Code),
			text(l.Key),
			text(l.Description),
			number(l.Quantity, cat),
			{text: l.Class, category: cat},
		})
	}

	return titleStyle.Render(fmt.Sprintf("%s · %s", domain.ReportSlowStock.Label(), res.Origin)) + "\n" +
		renderTable([]string{"Codigo", "Clave", "Descripcion", "Existencia", "Clasif."}, rows) +
		renderFooter(res.View.Total, len(res.View.Rows), res.View.Truncated, res.Notice)
}
