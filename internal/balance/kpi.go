package balance

// KPIOptions controls the low A/B definition.
type KPIOptions struct {
	Policy     Policy
	Threshold  int
	Classifier Classifier
}

func (o KPIOptions) classifier() Classifier {
	if o.Classifier.marker == "" {
		return DefaultClassifier
	}
	return o.Classifier
}

// lowAB applies the policy's low-stock rule to an A/B record.
func (o KPIOptions) lowAB(qty int) bool {
	if o.Policy == PolicyCapped {
		return qty > 0 && qty <= o.Threshold
	}
	return qty == 0
}

type keySet map[string]struct{}

func (s keySet) add(k string) { s[k] = struct{}{} }

// distinctKeys counts distinct non-empty record keys.
func distinctKeys(records []Record) int {
	set := keySet{}
	for _, r := range records {
		if r.Key != "" {
			set.add(r.Key)
		}
	}
	return len(set)
}

// WarehouseKPI computes the indicators for a single warehouse. All counts
// are distinct keys. A/B/C count regardless of quantity, no-movement only
// with positive stock. A warehouse without classification yields zero
// categorized counts but still reports the dataset's SKU total.
func WarehouseKPI(ds *Dataset, warehouse string, opts KPIOptions) KPI {
	cls := opts.classifier()
	a, b, c, sin, low := keySet{}, keySet{}, keySet{}, keySet{}, keySet{}

	for _, r := range ds.Records {
		label, ok := r.Class(warehouse)
		if !ok || r.Key == "" {
			continue
		}
		qty := r.Quantity(warehouse)
		switch {
		case label == ClassA:
			a.add(r.Key)
		case label == ClassB:
			b.add(r.Key)
		case label == ClassC:
			c.add(r.Key)
		case cls.IsNoMovement(label) && qty > 0:
			sin.add(r.Key)
		}
		if cls.IsAB(label) && opts.lowAB(qty) {
			low.add(r.Key)
		}
	}

	k := KPI{
		Scope:       warehouse,
		SKUsTotal:   distinctKeys(ds.Records),
		CountA:      len(a),
		CountB:      len(b),
		CountC:      len(c),
		CountNoMove: len(sin),
		CountLowAB:  len(low),
	}
	if opts.Policy == PolicyCapped {
		k.LowABThreshold = opts.Threshold
	}
	return k.withPercentages()
}

// AllWarehousesKPI sums the per-warehouse indicators field by field and
// recomputes the percentages from the summed active count. A SKU stocked in
// several warehouses is counted once per warehouse.
func AllWarehousesKPI(ds *Dataset, opts KPIOptions) KPI {
	total := KPI{Scope: AllWarehouses}
	for _, w := range ds.Warehouses {
		k := WarehouseKPI(ds, w.Name, opts)
		total.SKUsTotal += k.SKUsTotal
		total.CountA += k.CountA
		total.CountB += k.CountB
		total.CountC += k.CountC
		total.CountNoMove += k.CountNoMove
		total.CountLowAB += k.CountLowAB
	}
	if opts.Policy == PolicyCapped {
		total.LowABThreshold = opts.Threshold
	}
	return total.withPercentages()
}

// ComputeKPI dispatches on scope: AllWarehouses or a single warehouse name.
func ComputeKPI(ds *Dataset, scope string, opts KPIOptions) KPI {
	if scope == AllWarehouses {
		return AllWarehousesKPI(ds, opts)
	}
	return WarehouseKPI(ds, scope, opts)
}

func (k KPI) withPercentages() KPI {
	k.SKUsActive = k.CountA + k.CountB + k.CountC + k.CountNoMove
	k.PctA = fraction(k.CountA, k.SKUsActive)
	k.PctB = fraction(k.CountB, k.SKUsActive)
	k.PctC = fraction(k.CountC, k.SKUsActive)
	k.PctNoMove = fraction(k.CountNoMove, k.SKUsActive)
	return k
}

func fraction(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
