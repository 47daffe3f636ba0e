package balance

import "sort"

// CappedSuggestionLimit is the number of rows kept by the capped forward report.
const CappedSuggestionLimit = 50

// SuggestParams selects the origin, the destination set and the capped threshold.
type SuggestParams struct {
	Origin       string
	Destinations []string
	Threshold    int
	Classifier   Classifier
}

func (p SuggestParams) classifier() Classifier {
	if p.Classifier.marker == "" {
		return DefaultClassifier
	}
	return p.Classifier
}

// destinations resolves the requested destinations to classified warehouses,
// skipping the origin itself and unknown names while keeping request order.
func (p SuggestParams) destinations(ds *Dataset) []Warehouse {
	out := make([]Warehouse, 0, len(p.Destinations))
	seen := make(map[string]bool, len(p.Destinations))
	for _, name := range p.Destinations {
		if name == p.Origin || seen[name] {
			continue
		}
		seen[name] = true
		if w, ok := ds.Warehouse(name); ok && w.HasClass() {
			out = append(out, w)
		}
	}
	return out
}

// origin returns the origin warehouse when it exists and carries a classification.
func (p SuggestParams) origin(ds *Dataset) (Warehouse, bool) {
	if p.Origin == "" || p.Origin == AllWarehouses {
		return Warehouse{}, false
	}
	w, ok := ds.Warehouse(p.Origin)
	if !ok || !w.HasClass() {
		return Warehouse{}, false
	}
	return w, true
}

func newSuggestion(r Record, origin, dest string) Suggestion {
	return Suggestion{
		Code:             r.Code,
		Key:              r.Key,
		Description:      r.Description,
		Origin:           origin,
		OriginQty:        r.Quantity(origin),
		OriginClass:      r.Classes[origin],
		Destination:      dest,
		DestinationQty:   r.Quantity(dest),
		DestinationClass: r.Classes[dest],
	}
}

// TransferSuggestions is the uncapped forward report: for every A/B record
// at the origin, whatever its stock, one row per destination holding the SKU
// as C or no-movement with positive stock. Sorted by destination quantity
// descending, then key.
func TransferSuggestions(ds *Dataset, p SuggestParams) []Suggestion {
	origin, ok := p.origin(ds)
	dests := p.destinations(ds)
	if !ok || len(dests) == 0 {
		return []Suggestion{}
	}
	cls := p.classifier()

	out := []Suggestion{}
	for _, r := range ds.Records {
		if !cls.IsAB(r.Classes[origin.Name]) {
			continue
		}
		for _, d := range dests {
			if r.Quantity(d.Name) <= 0 || !cls.IsSlow(r.Classes[d.Name]) {
				continue
			}
			out = append(out, newSuggestion(r, origin.Name, d.Name))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DestinationQty != out[j].DestinationQty {
			return out[i].DestinationQty > out[j].DestinationQty
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// CappedTransferSuggestions is the capped forward report. An A/B record at
// the origin needs max(0, threshold - stock) units; each slow destination
// with positive stock offers min(its stock, shortfall). Rows are sorted by
// suggested quantity descending, then key, and cut to CappedSuggestionLimit.
func CappedTransferSuggestions(ds *Dataset, p SuggestParams) []Suggestion {
	origin, ok := p.origin(ds)
	dests := p.destinations(ds)
	if !ok || len(dests) == 0 {
		return []Suggestion{}
	}
	cls := p.classifier()

	out := []Suggestion{}
	for _, r := range ds.Records {
		if !cls.IsAB(r.Classes[origin.Name]) {
			continue
		}
		shortfall := p.Threshold - r.Quantity(origin.Name)
		if shortfall <= 0 {
			continue
		}
		for _, d := range dests {
			qty := r.Quantity(d.Name)
			if qty <= 0 || !cls.IsSlow(r.Classes[d.Name]) {
				continue
			}
			suggested := min(qty, shortfall)
			if suggested <= 0 {
				continue
			}
			s := newSuggestion(r, origin.Name, d.Name)
			s.Shortfall = shortfall
			s.Suggested = suggested
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Suggested != out[j].Suggested {
			return out[i].Suggested > out[j].Suggested
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > CappedSuggestionLimit {
		out = out[:CappedSuggestionLimit]
	}
	return out
}

// ForwardSuggestions runs the forward report selected by policy.
func ForwardSuggestions(ds *Dataset, policy Policy, p SuggestParams) []Suggestion {
	if policy == PolicyCapped {
		return CappedTransferSuggestions(ds, p)
	}
	return TransferSuggestions(ds, p)
}

// ReverseSuggestions moves slow stock out of the origin: every C or
// no-movement record with positive origin stock pairs with each destination
// classifying the SKU as A or B, whatever the destination stock. Sorted by
// origin quantity descending, then key.
func ReverseSuggestions(ds *Dataset, p SuggestParams) []Suggestion {
	origin, ok := p.origin(ds)
	dests := p.destinations(ds)
	if !ok || len(dests) == 0 {
		return []Suggestion{}
	}
	cls := p.classifier()

	out := []Suggestion{}
	for _, r := range ds.Records {
		if r.Quantity(origin.Name) <= 0 || !cls.IsSlow(r.Classes[origin.Name]) {
			continue
		}
		for _, d := range dests {
			if !cls.IsAB(r.Classes[d.Name]) {
				continue
			}
			out = append(out, newSuggestion(r, origin.Name, d.Name))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OriginQty != out[j].OriginQty {
			return out[i].OriginQty > out[j].OriginQty
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// SlowStock lists every C or no-movement record with positive stock at the
// origin, sorted by classification then key.
func SlowStock(ds *Dataset, p SuggestParams) []StockLine {
	origin, ok := p.origin(ds)
	if !ok {
		return []StockLine{}
	}
	cls := p.classifier()

	out := []StockLine{}
	for _, r := range ds.Records {
		qty := r.Quantity(origin.Name)
		label := r.Classes[origin.Name]
		if qty <= 0 || !cls.IsSlow(label) {
			continue
		}
		out = append(out, StockLine{
			Code:        r.Code,
			Key:         r.Key,
			Description: r.Description,
			Quantity:    qty,
			Class:       label,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].Key < out[j].Key
	})
	return out
}
