package resource

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind identifies one of the five tradeable resources.
type Kind string

const (
	Wheat Kind = "Wheat"
	Wood  Kind = "Wood"
	Sheep Kind = "Sheep"
	Brick Kind = "Brick"
	Ore   Kind = "Ore"
)

// Kinds lists every resource in ascending base-value order. Iteration over
// bundles uses this order so rendered output is deterministic.
var Kinds = []Kind{Wheat, Wood, Sheep, Brick, Ore}

// BaseValues are the public per-unit values. Private player values are drawn
// within ±20% of these at episode reset.
var BaseValues = map[Kind]int{
	Wheat: 5,
	Wood:  10,
	Sheep: 15,
	Brick: 25,
	Ore:   40,
}

var titleCaser = cases.Title(language.English)

// Parse canonicalizes a resource name. Matching is case-insensitive and
// accepts a trailing plural "s" ("ores" -> Ore). The second return is false
// for anything outside the fixed resource set.
func Parse(name string) (Kind, bool) {
	n := titleCaser.String(strings.ToLower(strings.TrimSpace(name)))
	n = strings.TrimSuffix(n, "s")
	k := Kind(n)
	switch k {
	case Wheat, Wood, Sheep, Brick, Ore:
		return k, true
	}
	return "", false
}

// Bundle maps resource kinds to quantities. Engine invariants: quantities in
// offers are strictly positive; quantities in stocks are never negative.
type Bundle map[Kind]int

// Clone returns an independent copy of the bundle.
func (b Bundle) Clone() Bundle {
	out := make(Bundle, len(b))
	for k, n := range b {
		out[k] = n
	}
	return out
}

// Add merges other into b in place.
func (b Bundle) Add(other Bundle) {
	for k, n := range other {
		b[k] += n
	}
}

// Subtract removes other from b in place, dropping keys that reach zero.
// Callers must check Covers first; Subtract never drives a count negative
// on a covered bundle.
func (b Bundle) Subtract(other Bundle) {
	for k, n := range other {
		b[k] -= n
		if b[k] <= 0 {
			delete(b, k)
		}
	}
}

// Covers reports whether b holds at least every quantity in other.
func (b Bundle) Covers(other Bundle) bool {
	for k, n := range other {
		if b[k] < n {
			return false
		}
	}
	return true
}

// Equal reports whether the two bundles hold identical quantities,
// treating absent and zero the same.
func (b Bundle) Equal(other Bundle) bool {
	for _, k := range Kinds {
		if b[k] != other[k] {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the bundle holds no positive quantity.
func (b Bundle) IsEmpty() bool {
	for _, n := range b {
		if n > 0 {
			return false
		}
	}
	return true
}

// Total returns the summed unit count across all kinds.
func (b Bundle) Total() int {
	total := 0
	for _, n := range b {
		total += n
	}
	return total
}

// String renders the bundle in canonical offer-list form, e.g.
// "2 Wheat, 1 Ore". Kinds appear in base-value order.
func (b Bundle) String() string {
	parts := make([]string, 0, len(b))
	for _, k := range Kinds {
		if n := b[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, k))
		}
	}
	return strings.Join(parts, ", ")
}
