package tables

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// EllipticityPolar converts the two shear components of an observation into
// ellipticity magnitude and position angle (half-angle convention):
// e = sqrt(e1^2 + e2^2), phi = atan2(e2, e1) / 2.
func EllipticityPolar(e1, e2 float64) (e, phi float64) {
	e = math.Hypot(e1, e2)
	phi = 0.5 * math.Atan2(e2, e1)
	return e, phi
}

// DeriveFeatures augments a balanced table with the derived per-observation
// columns used by the tensor builder:
//
//   - e, phi from the shear components e1, e2
//   - timestamps rebased so the table-wide minimum becomes zero
//   - time_index, the zero-based rank of the distinct visit identifiers
//   - d_time, the elapsed time since the previous observation of the same
//     (object, filter) group; zero for the first of a group, never negative
//
// The raw timestamp and visit-identifier columns are dropped afterward;
// downstream stages address time through the index only. numTimes is the slot
// count established by Balance and the distinct visit count must match it.
func DeriveFeatures(t *Table, numTimes int) error {
	if t.NumRows() == 0 {
		return fmt.Errorf("cannot derive features for an empty table")
	}

	e1, err := t.Attr("e1")
	if err != nil {
		return err
	}
	e2, err := t.Attr("e2")
	if err != nil {
		return err
	}
	e := make([]float64, len(e1))
	phi := make([]float64, len(e1))
	for i := range e1 {
		e[i], phi[i] = EllipticityPolar(e1[i], e2[i])
	}
	if err := t.SetAttr("e", e); err != nil {
		return err
	}
	if err := t.SetAttr("phi", phi); err != nil {
		return err
	}

	// Rebase timestamps to start at zero.
	minMJD := floats.Min(t.MJD)
	for i := range t.MJD {
		t.MJD[i] -= minMJD
	}

	// Rank distinct visits into time slots.
	visits := t.sortedDistinctVisits()
	if len(visits) != numTimes {
		return fmt.Errorf("distinct visit count %d does not match slot count %d", len(visits), numTimes)
	}
	rank := make(map[int64]int, len(visits))
	for i, v := range visits {
		rank[v] = i
	}
	t.TimeIndex = make([]int, t.NumRows())
	for i, v := range t.VisitID {
		t.TimeIndex[i] = rank[v]
	}

	// Order by (object, filter, timestamp) so group deltas read off a single
	// pass over adjacent rows.
	perm := make([]int, t.NumRows())
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		i, j := perm[a], perm[b]
		if t.ObjectID[i] != t.ObjectID[j] {
			return t.ObjectID[i] < t.ObjectID[j]
		}
		if t.Filter[i] != t.Filter[j] {
			return t.Filter[i] < t.Filter[j]
		}
		return t.MJD[i] < t.MJD[j]
	})
	t.selectRows(perm)

	dTime := make([]float64, t.NumRows())
	for i := 1; i < t.NumRows(); i++ {
		if t.ObjectID[i] != t.ObjectID[i-1] || t.Filter[i] != t.Filter[i-1] {
			continue // first observation of a group keeps delta 0
		}
		if d := t.MJD[i] - t.MJD[i-1]; d > 0 {
			dTime[i] = d
		}
	}
	if err := t.SetAttr("d_time", dTime); err != nil {
		return err
	}

	// Raw time columns are no longer needed.
	t.MJD = nil
	t.VisitID = nil

	return nil
}
