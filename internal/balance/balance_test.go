package balance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureHeader = []string{"Codigo", "Clave", "Descripcion", "Matriz", "Matriz.1", "Adelitas", "Adelitas.1", "Centro", "Centro.1"}

func buildFixture(t *testing.T, header []string, rows ...[]string) *Dataset {
	t.Helper()
	ds, err := BuildDataset(header, rows, DefaultSchemaConfig())
	require.NoError(t, err)
	return ds
}

func TestResolveSchema(t *testing.T) {
	header := []string{"Codigo", "Zeta", "Clave", "Zeta.1", "Descripcion", "Adelitas", "Adelitas.1", "Bodega"}
	schema := ResolveSchema(header, SchemaConfig{})

	require.Len(t, schema.Warehouses, 3)
	assert.Equal(t, "Adelitas", schema.Warehouses[0].Name)
	assert.Equal(t, "Adelitas.1", schema.Warehouses[0].ClassColumn)
	assert.Equal(t, "Bodega", schema.Warehouses[1].Name)
	assert.False(t, schema.Warehouses[1].HasClass())
	assert.Equal(t, "Zeta", schema.Warehouses[2].Name)
	assert.Equal(t, "Zeta.1", schema.Warehouses[2].ClassColumn)
}

func TestBuildDatasetMissingBaseColumn(t *testing.T) {
	_, err := BuildDataset([]string{"Codigo", "Descripcion", "Matriz"}, nil, DefaultSchemaConfig())
	require.ErrorIs(t, err, ErrMissingBaseColumn)
}

func TestBuildDatasetCoercesCells(t *testing.T) {
	ds := buildFixture(t, fixtureHeader,
		[]string{"1", "K1", "Foco", "abc", " A ", "12.7", "nan", "", "C"},
		[]string{"2", "K2", "Cable", "-3"},
		[]string{"", "", "", "", "", "", "", "", ""},
	)
	require.Len(t, ds.Records, 2)

	r := ds.Records[0]
	assert.Equal(t, 0, r.Quantity("Matriz"))
	assert.Equal(t, "A", r.Classes["Matriz"])
	assert.Equal(t, 12, r.Quantity("Adelitas"))
	assert.Equal(t, "", r.Classes["Adelitas"])
	assert.Equal(t, 0, r.Quantity("Centro"))

	short := ds.Records[1]
	assert.Equal(t, -3, short.Quantity("Matriz"))
	assert.Equal(t, 0, short.Quantity("Centro"))
	assert.Equal(t, "", short.Classes["Centro"])
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]int{
		"":      0,
		"7":     7,
		" 8 ":   8,
		"9.99":  9,
		"-2.5":  -2,
		"x1":    0,
		"NaN":   0,
		"inf":   0,
		"1,234": 0,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseQuantity(raw), "raw %q", raw)
	}
}

func TestClassifier(t *testing.T) {
	c := DefaultClassifier
	assert.True(t, c.IsAB("A"))
	assert.True(t, c.IsAB("B"))
	assert.False(t, c.IsAB("a"))
	assert.True(t, c.IsC("C"))
	assert.True(t, c.IsNoMovement("Sin movimiento"))
	assert.True(t, c.IsNoMovement("SIN MOV"))
	assert.False(t, c.IsNoMovement(""))
	assert.False(t, c.IsSlow("D"))
	assert.Equal(t, "", NormalizeClass(" nan "))
	assert.Equal(t, "Sin movimiento", NormalizeClass("  Sin movimiento "))
}

func TestWarehouseKPIActiveAndPercentages(t *testing.T) {
	ds := buildFixture(t, fixtureHeader,
		[]string{"1", "K1", "d", "0", "A"},
		[]string{"2", "K2", "d", "4", "B"},
		[]string{"3", "K3", "d", "-1", "C"},
		[]string{"4", "K4", "d", "0", "Sin movimiento"},
		[]string{"5", "K5", "d", "5", "Sin movimiento"},
		[]string{"6", "K6", "d", "9", "X"},
		[]string{"7", "K1", "d", "2", "A"},
	)

	k := WarehouseKPI(ds, "Matriz", KPIOptions{Policy: PolicyUncapped})
	assert.Equal(t, 6, k.SKUsTotal)
	assert.Equal(t, 1, k.CountA)
	assert.Equal(t, 1, k.CountB)
	assert.Equal(t, 1, k.CountC)
	assert.Equal(t, 1, k.CountNoMove, "no-movement counts only with positive stock")
	assert.Equal(t, k.CountA+k.CountB+k.CountC+k.CountNoMove, k.SKUsActive)
	assert.InDelta(t, 0.25, k.PctA, 1e-9)
	assert.InDelta(t, 0.25, k.PctNoMove, 1e-9)
	assert.Equal(t, 1, k.CountLowAB)
}

func TestWarehouseKPIEmptyActive(t *testing.T) {
	ds := buildFixture(t, fixtureHeader, []string{"1", "K1", "d", "3", "Z"})
	k := WarehouseKPI(ds, "Matriz", KPIOptions{})
	assert.Equal(t, 0, k.SKUsActive)
	assert.Zero(t, k.PctA)
	assert.Zero(t, k.PctB)
	assert.Zero(t, k.PctC)
	assert.Zero(t, k.PctNoMove)
}

func TestLowABByPolicy(t *testing.T) {
	ds := buildFixture(t, fixtureHeader,
		[]string{"1", "K1", "d", "0", "A"},
		[]string{"2", "K2", "d", "3", "B"},
		[]string{"3", "K3", "d", "10", "A"},
		[]string{"4", "K4", "d", "11", "B"},
	)

	uncapped := WarehouseKPI(ds, "Matriz", KPIOptions{Policy: PolicyUncapped})
	assert.Equal(t, 1, uncapped.CountLowAB)

	capped := WarehouseKPI(ds, "Matriz", KPIOptions{Policy: PolicyCapped, Threshold: 10})
	assert.Equal(t, 2, capped.CountLowAB)
	assert.Equal(t, 10, capped.LowABThreshold)
}

func TestAllWarehousesKPISumsPerWarehouse(t *testing.T) {
	ds := buildFixture(t, fixtureHeader,
		[]string{"1", "K1", "d", "1", "A", "2", "A", "0", "C"},
		[]string{"2", "K2", "d", "1", "C", "2", "B", "0", "Sin movimiento"},
	)

	all := ComputeKPI(ds, AllWarehouses, KPIOptions{})
	assert.Equal(t, AllWarehouses, all.Scope)
	assert.Equal(t, 6, all.SKUsTotal)
	assert.Equal(t, 2, all.CountA)
	assert.Equal(t, 1, all.CountB)
	assert.Equal(t, 2, all.CountC)
	assert.Equal(t, 0, all.CountNoMove)
	assert.Equal(t, 5, all.SKUsActive)
	assert.InDelta(t, 0.4, all.PctA, 1e-9)
	assert.InDelta(t, 0.4, all.PctC, 1e-9)
}

func TestTransferSuggestionsOriginStockDoesNotGate(t *testing.T) {
	ds := buildFixture(t, fixtureHeader,
		[]string{"1", "K1", "Foco", "0", "A", "7", "C", "0", "C"},
		[]string{"2", "K2", "Cable", "3", "C", "9", "C", "0", "C"},
	)

	got := TransferSuggestions(ds, SuggestParams{Origin: "Matriz", Destinations: []string{"Adelitas", "Centro"}})
	require.Len(t, got, 1)
	assert.Equal(t, "K1", got[0].Key)
	assert.Equal(t, "Adelitas", got[0].Destination)
	assert.Equal(t, 0, got[0].OriginQty)
	assert.Equal(t, 7, got[0].DestinationQty)
	assert.Equal(t, CategoryABOutOfStock, got[0].OriginCategory())
	assert.Equal(t, CategoryCInStock, got[0].DestinationCategory())
}

func TestTransferSuggestionsSortTiesByKey(t *testing.T) {
	ds := buildFixture(t, fixtureHeader,
		[]string{"1", "KB", "d", "1", "A", "5", "Sin movimiento"},
		[]string{"2", "KA", "d", "1", "B", "5", "C"},
		[]string{"3", "KC", "d", "1", "B", "8", "C"},
	)

	got := TransferSuggestions(ds, SuggestParams{Origin: "Matriz", Destinations: []string{"Adelitas"}})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"KC", "KA", "KB"}, []string{got[0].Key, got[1].Key, got[2].Key})
}

func TestSuggestionsEmptyInputs(t *testing.T) {
	ds := buildFixture(t, fixtureHeader, []string{"1", "K1", "d", "0", "A", "7", "C"})

	assert.Empty(t, TransferSuggestions(ds, SuggestParams{Origin: "Matriz"}))
	assert.Empty(t, TransferSuggestions(ds, SuggestParams{Origin: "", Destinations: []string{"Adelitas"}}))
	assert.Empty(t, TransferSuggestions(ds, SuggestParams{Origin: AllWarehouses, Destinations: []string{"Adelitas"}}))
	assert.Empty(t, TransferSuggestions(ds, SuggestParams{Origin: "Matriz", Destinations: []string{"Matriz"}}))
	assert.Empty(t, ReverseSuggestions(ds, SuggestParams{Origin: "Matriz"}))
	assert.Empty(t, SlowStock(ds, SuggestParams{Origin: AllWarehouses}))
}

func TestCappedZeroShortfallExcluded(t *testing.T) {
	ds := buildFixture(t, fixtureHeader,
		[]string{"1", "K1", "d", "50", "A", "30", "C"},
		[]string{"2", "K2", "d", "60", "B", "30", "C"},
	)

	got := CappedTransferSuggestions(ds, SuggestParams{Origin: "Matriz", Destinations: []string{"Adelitas"}, Threshold: 50})
	assert.Empty(t, got)
}

func TestCappedSuggestedIsMinOfStockAndShortfall(t *testing.T) {
	ds := buildFixture(t, fixtureHeader,
		[]string{"1", "K1", "d", "10", "A", "15", "C", "100", "Sin movimiento"},
	)

	got := CappedTransferSuggestions(ds, SuggestParams{Origin: "Matriz", Destinations: []string{"Adelitas", "Centro"}, Threshold: 50})
	require.Len(t, got, 2)
	assert.Equal(t, "Centro", got[0].Destination)
	assert.Equal(t, 40, got[0].Shortfall)
	assert.Equal(t, 40, got[0].Suggested)
	assert.Equal(t, "Adelitas", got[1].Destination)
	assert.Equal(t, 15, got[1].Suggested)
}

func TestCappedLimitKeepsTopRows(t *testing.T) {
	rows := make([][]string, 0, 100)
	for i := 1; i <= 100; i++ {
		rows = append(rows, []string{fmt.Sprint(i), fmt.Sprintf("K%03d", i), "d", "0", "A", fmt.Sprint(i), "C"})
	}
	ds := buildFixture(t, fixtureHeader, rows...)

	got := CappedTransferSuggestions(ds, SuggestParams{Origin: "Matriz", Destinations: []string{"Adelitas"}, Threshold: 100})
	require.Len(t, got, CappedSuggestionLimit)
	assert.Equal(t, 100, got[0].Suggested)
	assert.Equal(t, 51, got[len(got)-1].Suggested)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Suggested, got[i].Suggested)
	}
}

func TestForwardSuggestionsSelectsPolicy(t *testing.T) {
	ds := buildFixture(t, fixtureHeader, []string{"1", "K1", "d", "80", "A", "5", "C"})
	p := SuggestParams{Origin: "Matriz", Destinations: []string{"Adelitas"}, Threshold: 50}

	assert.Len(t, ForwardSuggestions(ds, PolicyUncapped, p), 1)
	assert.Empty(t, ForwardSuggestions(ds, PolicyCapped, p))
}

func TestReverseSuggestions(t *testing.T) {
	ds := buildFixture(t, fixtureHeader,
		[]string{"1", "K1", "d", "0", "C", "0", "A"},
		[]string{"2", "K2", "d", "1", "C", "0", "B", "4", "C"},
		[]string{"3", "K3", "d", "6", "Sin movimiento", "2", "A", "1", "A"},
	)

	got := ReverseSuggestions(ds, SuggestParams{Origin: "Matriz", Destinations: []string{"Adelitas", "Centro"}})
	require.Len(t, got, 3)
	assert.Equal(t, "K3", got[0].Key)
	assert.Equal(t, "K3", got[1].Key)
	assert.Equal(t, "K2", got[2].Key)
	assert.Equal(t, 0, got[2].DestinationQty)
	assert.Equal(t, CategoryABOutOfStock, got[2].DestinationCategory())
}

func TestSlowStock(t *testing.T) {
	ds := buildFixture(t, fixtureHeader,
		[]string{"1", "K2", "d", "3", "Sin movimiento"},
		[]string{"2", "K9", "d", "1", "C"},
		[]string{"3", "K1", "d", "2", "C"},
		[]string{"4", "K0", "d", "0", "C"},
		[]string{"5", "K5", "d", "4", "A"},
	)

	got := SlowStock(ds, SuggestParams{Origin: "Matriz"})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"K1", "K9", "K2"}, []string{got[0].Key, got[1].Key, got[2].Key})
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		cls  string
		qty  int
		want Category
	}{
		{"A", 3, CategoryABInStock},
		{"B", 0, CategoryABOutOfStock},
		{"A", -1, CategoryNone},
		{"C", 2, CategoryCInStock},
		{"C", 0, CategoryNone},
		{"Sin movimiento", 1, CategoryNoMovementInStock},
		{"Sin movimiento", 0, CategoryNone},
		{"", 5, CategoryNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Categorize(tc.cls, tc.qty), "%s/%d", tc.cls, tc.qty)
	}
	assert.Equal(t, "#1b8a3a", CategoryABInStock.Color())
	assert.Equal(t, "#c62828", CategoryNoMovementInStock.Color())
	assert.Empty(t, CategoryNone.Color())
}

func TestSearchAndLimit(t *testing.T) {
	ds := buildFixture(t, fixtureHeader,
		[]string{"AB-1", "K1", "Foco LED"},
		[]string{"X-2", "TRU-123", "Cable"},
		[]string{"X-3", "K3", "Tornillo"},
	)

	assert.Len(t, Search(ds, ""), 3)
	assert.Len(t, Search(ds, "led"), 1)
	assert.Len(t, Search(ds, "tru"), 1)
	assert.Len(t, Search(ds, "ab-"), 1)
	assert.Empty(t, Search(ds, "zzz"))

	w := Limit(Search(ds, ""), 2)
	assert.Len(t, w.Rows, 2)
	assert.Equal(t, 3, w.Total)
	assert.True(t, w.Truncated)
	assert.False(t, Limit(Search(ds, ""), 0).Truncated)
}

func TestBrowseRows(t *testing.T) {
	header := []string{"Codigo", "Clave", "Descripcion", "Matriz", "Matriz.1", "Patio"}
	ds := buildFixture(t, header, []string{"1", "K1", "d", "4", "A", "9"})

	rows := BrowseRows(ds, ds.Records, DefaultClassifier)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Cells, 2)
	assert.Equal(t, CategoryABInStock, rows[0].Cells[0].Category)
	assert.False(t, rows[0].Cells[1].HasClass)
	assert.Equal(t, CategoryNone, rows[0].Cells[1].Category)
}

func TestDatasetHelpers(t *testing.T) {
	ds := buildFixture(t, fixtureHeader)
	assert.Equal(t, []string{"Adelitas", "Centro", "Matriz"}, ds.WarehouseNames())
	assert.Equal(t, "Matriz", ds.DefaultOriginName())
	assert.Equal(t, []string{"Adelitas", "Centro"}, ds.DestinationOptions("Matriz"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0", FormatInt(0))
	assert.Equal(t, "999", FormatInt(999))
	assert.Equal(t, "16.901", FormatInt(16901))
	assert.Equal(t, "1.234.567", FormatInt(1234567))
	assert.Equal(t, "-1.000", FormatInt(-1000))
	assert.Equal(t, "12,5%", FormatPercent(0.125))
	assert.Equal(t, "0,0%", FormatPercent(0))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("Capped")
	require.NoError(t, err)
	assert.Equal(t, PolicyCapped, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyUncapped, p)

	_, err = ParsePolicy("other")
	assert.Error(t, err)
	assert.True(t, ValidThreshold(1))
	assert.False(t, ValidThreshold(101))
}
