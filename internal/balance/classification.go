package balance

import (
	"math"
	"strconv"
	"strings"
)

// Classification tags as they appear in the snapshot.
const (
	ClassA = "A"
	ClassB = "B"
	ClassC = "C"

	// DefaultNoMovementMarker is matched case-insensitively as a substring,
	// so "Sin movimiento" and "SIN MOV" both qualify.
	DefaultNoMovementMarker = "sin"
)

// Classifier decides category membership for normalized classification labels.
type Classifier struct {
	marker string
}

// NewClassifier builds a classifier for the given no-movement marker.
// An empty marker falls back to DefaultNoMovementMarker.
func NewClassifier(marker string) Classifier {
	marker = strings.ToLower(strings.TrimSpace(marker))
	if marker == "" {
		marker = DefaultNoMovementMarker
	}
	return Classifier{marker: marker}
}

// DefaultClassifier uses DefaultNoMovementMarker.
var DefaultClassifier = NewClassifier(DefaultNoMovementMarker)

// IsAB reports an exact A or B label.
func (c Classifier) IsAB(cls string) bool {
	return cls == ClassA || cls == ClassB
}

// IsC reports an exact C label.
func (c Classifier) IsC(cls string) bool {
	return cls == ClassC
}

// IsNoMovement reports whether the label contains the no-movement marker.
func (c Classifier) IsNoMovement(cls string) bool {
	if cls == "" {
		return false
	}
	return strings.Contains(strings.ToLower(cls), c.marker)
}

// IsSlow reports C or no-movement.
func (c Classifier) IsSlow(cls string) bool {
	return c.IsC(cls) || c.IsNoMovement(cls)
}

// NormalizeClass trims a raw classification cell. Spreadsheet NaN
// placeholders collapse to the empty string, which belongs to no category.
func NormalizeClass(raw string) string {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "nan", "null", "none", "#n/a":
		return ""
	}
	return v
}

// ParseQuantity coerces an inventory cell to an integer. Fractions are
// truncated toward zero; anything unparsable becomes 0.
func ParseQuantity(raw string) int {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if math.Abs(f) >= 1e18 {
		return 0
	}
	return int(f)
}
