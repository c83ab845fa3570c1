package dataset

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// lensNonlensGrid returns rows for lens and non-lens tables with two objects
// each, every object observed at visit 11 (MJD 100, filter u) and visit 12
// (MJD 101, filter g).
func lensNonlensGrid(t *testing.T) (lensRows, nonlensRows []obs) {
	t.Helper()
	visits := []int64{11, 12}
	mjds := []float64{100, 101}
	filters := []string{"u", "g"}
	return gridRows([]int64{1, 2}, visits, mjds, filters),
		gridRows([]int64{5, 6}, visits, mjds, filters)
}

func TestBuildClassRowCountPrecondition(t *testing.T) {
	// Balance passes (3 rows each side, 2 shared timestamps) but 3 rows can
	// never tile a 2x2 (object, slot) grid; the builder must abort before
	// writing anything.
	lens := makeObsTable(t, []obs{
		{1, 11, 100, "u"}, {1, 12, 101, "g"}, {2, 11, 100, "u"},
	})
	nonlens := makeObsTable(t, []obs{
		{5, 11, 100, "u"}, {5, 12, 101, "g"}, {6, 11, 100, "u"},
	})

	b := balancedBuilder(t, Config{}, lens, nonlens)
	if _, err := b.BuildClass(lens, 1.0); err == nil {
		t.Fatalf("expected precondition error for row count != objects x slots")
	}
}

func TestBuildClassDefaultLayout(t *testing.T) {
	lensRows, nonlensRows := lensNonlensGrid(t)
	lens := makeObsTable(t, lensRows)
	nonlens := makeObsTable(t, nonlensRows)

	b := balancedBuilder(t, Config{LightcurveOnly: true}, lens, nonlens)
	data, err := b.BuildClass(lens, 1.0)
	if err != nil {
		t.Fatalf("BuildClass failed: %v", err)
	}

	if data.Objects != 2 || data.Times != 2 || data.Channels != 15 {
		t.Fatalf("unexpected shape (%d, %d, %d)", data.Objects, data.Times, data.Channels)
	}
	if len(data.X) != 2*2*15 {
		t.Fatalf("unexpected buffer length %d", len(data.X))
	}
	for i, y := range data.Y {
		if y != 1.0 {
			t.Fatalf("Y[%d] = %v, want 1.0", i, y)
		}
	}

	// Attribute channel order is (apMag, apMagErr, d_time) x (u g r i z).
	// Each (object, slot) was observed through exactly one filter, so that
	// filter's three channels hold values and the other twelve channels hold
	// the sentinel.
	want := make([]float64, len(data.X))
	for i := range want {
		want[i] = Sentinel
	}
	set := func(o, t, c int, v float64) { want[(o*2+t)*15+c] = v }
	// Slot 0 is visit 11 (filter u, index 0); slot 1 is visit 12 (g, 1).
	for o, id := range []int64{1, 2} {
		set(o, 0, 0*5+0, attrVal(5, obs{obj: id, visit: 11})) // apMag, u
		set(o, 0, 1*5+0, attrVal(6, obs{obj: id, visit: 11})) // apMagErr, u
		set(o, 0, 2*5+0, 0)                                   // d_time, u
		set(o, 1, 0*5+1, attrVal(5, obs{obj: id, visit: 12})) // apMag, g
		set(o, 1, 1*5+1, attrVal(6, obs{obj: id, visit: 12})) // apMagErr, g
		set(o, 1, 2*5+1, 0)                                   // d_time, g
	}
	if diff := cmp.Diff(want, data.X); diff != "" {
		t.Fatalf("tensor mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildClassSentinelSlots(t *testing.T) {
	// The sentinel marks exactly the (slot, filter) channel positions with
	// no observation: slot 0 was observed in u, so every g/r/i/z channel at
	// slot 0 must hold the sentinel and no u channel may.
	lensRows, nonlensRows := lensNonlensGrid(t)
	lens := makeObsTable(t, lensRows)
	nonlens := makeObsTable(t, nonlensRows)

	b := balancedBuilder(t, Config{LightcurveOnly: true}, lens, nonlens)
	data, err := b.BuildClass(lens, 1.0)
	if err != nil {
		t.Fatalf("BuildClass failed: %v", err)
	}

	for ai := 0; ai < 3; ai++ {
		for f := 0; f < NumFilters; f++ {
			v := data.X[(0*2+0)*15+ai*NumFilters+f]
			if f == 0 && v == Sentinel {
				t.Fatalf("observed u channel (attr %d) holds sentinel", ai)
			}
			if f != 0 && v != Sentinel {
				t.Fatalf("unobserved filter %d channel (attr %d) holds %v, want sentinel", f, ai, v)
			}
		}
	}
}

func TestBuildClassOnehotLayout(t *testing.T) {
	lensRows, nonlensRows := lensNonlensGrid(t)
	lens := makeObsTable(t, lensRows)
	nonlens := makeObsTable(t, nonlensRows)

	b := balancedBuilder(t, Config{LightcurveOnly: true, OnehotFilters: true}, lens, nonlens)
	data, err := b.BuildClass(nonlens, 0.0)
	if err != nil {
		t.Fatalf("BuildClass failed: %v", err)
	}

	if data.Channels != 3+NumFilters {
		t.Fatalf("unexpected channel count %d", data.Channels)
	}
	for i, y := range data.Y {
		if y != 0.0 {
			t.Fatalf("Y[%d] = %v, want 0.0", i, y)
		}
	}

	// Object rank 0 is id 5. Slot 0: attributes then the u indicator hot.
	got := data.X[0:8]
	want := []float64{
		attrVal(5, obs{obj: 5, visit: 11}),
		attrVal(6, obs{obj: 5, visit: 11}),
		0,
		1, 0, 0, 0, 0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("one-hot slot mismatch (-want +got):\n%s", diff)
	}

	// Slot 1 was observed in g: indicator moves, nothing is sentinel.
	got = data.X[8:16]
	want = []float64{
		attrVal(5, obs{obj: 5, visit: 12}),
		attrVal(6, obs{obj: 5, visit: 12}),
		0,
		0, 1, 0, 0, 0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("one-hot slot mismatch (-want +got):\n%s", diff)
	}
}

func TestChannelOrderingRoundTrip(t *testing.T) {
	lensRows, nonlensRows := lensNonlensGrid(t)
	lens := makeObsTable(t, lensRows)
	nonlens := makeObsTable(t, nonlensRows)

	b := balancedBuilder(t, Config{}, lens, nonlens)

	// Reconstruct the flat column lists independently from the products the
	// builder declares: (attribute x filter), then (flat list x time).
	attrs := []string{
		"psf_fwhm", "x", "y", "apFlux", "apFluxErr",
		"apMag", "apMagErr", "trace", "e1", "e2", "e", "phi", "d_time",
	}
	filters := []string{"u", "g", "r", "i", "z"}
	var filtered []string
	for _, a := range attrs {
		for _, f := range filters {
			filtered = append(filtered, f+"_"+a)
		}
	}
	var timed []string
	for _, fa := range filtered {
		for ti := 0; ti < 2; ti++ {
			timed = append(timed, strconv.Itoa(ti)+"-"+fa)
		}
	}

	if len(filtered) != 13*NumFilters {
		t.Fatalf("expected %d filtered attributes, got %d", 13*NumFilters, len(filtered))
	}
	if diff := cmp.Diff(filtered, b.FilteredAttributes()); diff != "" {
		t.Fatalf("filtered attribute ordering mismatch (-want +got):\n%s", diff)
	}
	if len(timed) != 13*NumFilters*2 {
		t.Fatalf("expected %d timed attributes, got %d", 13*NumFilters*2, len(timed))
	}
	if diff := cmp.Diff(timed, b.TimedFilteredAttributes()); diff != "" {
		t.Fatalf("timed attribute ordering mismatch (-want +got):\n%s", diff)
	}
}

func TestOnehotAttributeOrdering(t *testing.T) {
	b := NewBuilder(Config{LightcurveOnly: true, OnehotFilters: true}, nil)
	want := []string{"apMag", "apMagErr", "d_time", "u", "g", "r", "i", "z"}
	if diff := cmp.Diff(want, b.OnehotAttributes()); diff != "" {
		t.Fatalf("one-hot ordering mismatch (-want +got):\n%s", diff)
	}
}
