package balance

import (
	"fmt"
	"strings"
)

// Policy selects the forward suggestion algorithm and the low A/B KPI.
type Policy int

const (
	// PolicyUncapped lists every slow destination and counts A/B at zero stock as low.
	PolicyUncapped Policy = iota
	// PolicyCapped fills a shortfall up to a threshold and counts A/B in (0, threshold] as low.
	PolicyCapped
)

var policyNames = map[Policy]string{
	PolicyUncapped: "uncapped",
	PolicyCapped:   "capped",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy resolves a policy name (case-insensitive).
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "uncapped":
		return PolicyUncapped, nil
	case "capped":
		return PolicyCapped, nil
	}
	return PolicyUncapped, fmt.Errorf("unknown policy %q", name)
}

// Threshold bounds for the capped policy.
const (
	MinThreshold     = 1
	MaxThreshold     = 100
	DefaultThreshold = 10
)

// ValidThreshold reports whether t lies inside the accepted bounds.
func ValidThreshold(t int) bool {
	return t >= MinThreshold && t <= MaxThreshold
}
