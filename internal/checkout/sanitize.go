package checkout

import (
	"math"
	"strings"
)

// RawLine is one untrusted cart line as decoded from the request body.
// Quantity is kept as a float so that junk client input (fractions, negatives,
// NaN from a failed parse) can be normalized in one place.
type RawLine struct {
	ProductID string
	Size      string
	Quantity  float64
}

// Line is a sanitized cart line. Quantity is always positive.
type Line struct {
	ProductID string
	Size      string
	Quantity  int
}

// Sanitize applies the input rules once, centrally: ids and sizes are trimmed
// and lines with empty values dropped; non-finite or non-positive quantities
// become zero and zero-quantity lines are dropped. Line order is preserved.
func Sanitize(raw []RawLine) []Line {
	out := make([]Line, 0, len(raw))
	for _, ln := range raw {
		id := strings.TrimSpace(ln.ProductID)
		size := strings.TrimSpace(ln.Size)
		if id == "" || size == "" {
			continue
		}
		qty := 0
		if !math.IsNaN(ln.Quantity) && !math.IsInf(ln.Quantity, 0) && ln.Quantity > 0 {
			qty = int(ln.Quantity)
		}
		if qty <= 0 {
			continue
		}
		out = append(out, Line{ProductID: id, Size: size, Quantity: qty})
	}
	return out
}

func dedupeIDs(lines []Line) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, ln := range lines {
		if _, ok := seen[ln.ProductID]; ok {
			continue
		}
		seen[ln.ProductID] = struct{}{}
		ids = append(ids, ln.ProductID)
	}
	return ids
}
