// Package testutil provides assertion helpers shared by the sim test packages.
package testutil

import (
	"math"
	"sort"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertBitIdentical fails unless both metric mappings have the same keys and
// bit-for-bit equal values. NaN equals NaN when the payload bits match.
func AssertBitIdentical(t *testing.T, want, got map[string]float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("metric count: got %d %v, want %d %v", len(got), keys(got), len(want), keys(want))
	}
	for _, k := range keys(want) {
		g, ok := got[k]
		if !ok {
			t.Errorf("metric %q missing", k)
			continue
		}
		if math.Float64bits(want[k]) != math.Float64bits(g) {
			t.Errorf("metric %q: got %v (bits %x), want %v (bits %x)", k, g, math.Float64bits(g), want[k], math.Float64bits(want[k]))
		}
	}
}

func keys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
