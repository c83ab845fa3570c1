package tables

import "fmt"

// Balance restricts both tables to observations strictly before cutoff and
// equalizes them: both must end with the same count of distinct timestamps
// (returned as numTimes) and the non-lens population is truncated to the lens
// population count, keeping the first distinct non-lens identifiers in
// encounter order.
//
// The lens population count is taken from the table as passed in, before the
// cutoff is applied. Both tables are mutated in place. Any disagreement is a
// data-integrity error and must abort the pipeline; nothing here is
// recoverable.
func Balance(lens, nonlens *Table, cutoff float64) (numTimes, numPositives int, err error) {
	numPositives = lens.DistinctObjects()

	lens.filterBefore(cutoff)
	nonlens.filterBefore(cutoff)

	// Neither side is authoritative for the slot count: the two tables must
	// simply agree after the cutoff.
	lensTimes := lens.DistinctMJDs()
	nonlensTimes := nonlens.DistinctMJDs()
	if lensTimes != nonlensTimes {
		return 0, 0, fmt.Errorf("distinct timestamp counts disagree after cutoff %v: lens=%d nonlens=%d",
			cutoff, lensTimes, nonlensTimes)
	}
	numTimes = nonlensTimes

	// Keep the first numPositives distinct non-lens objects as encountered.
	keepIDs := nonlens.ObjectIDsInOrder()
	if len(keepIDs) < numPositives {
		return 0, 0, fmt.Errorf("non-lens table has %d objects, need at least %d", len(keepIDs), numPositives)
	}
	keep := make(map[int64]struct{}, numPositives)
	for _, id := range keepIDs[:numPositives] {
		keep[id] = struct{}{}
	}
	idx := make([]int, 0, nonlens.NumRows())
	for i, id := range nonlens.ObjectID {
		if _, ok := keep[id]; ok {
			idx = append(idx, i)
		}
	}
	nonlens.selectRows(idx)

	if lens.NumRows() != nonlens.NumRows() {
		return 0, 0, fmt.Errorf("balanced tables have unequal row counts: lens=%d nonlens=%d",
			lens.NumRows(), nonlens.NumRows())
	}

	return numTimes, numPositives, nil
}

// filterBefore drops every row whose timestamp is not strictly below cutoff.
func (t *Table) filterBefore(cutoff float64) {
	idx := make([]int, 0, t.NumRows())
	for i, mjd := range t.MJD {
		if mjd < cutoff {
			idx = append(idx, i)
		}
	}
	if len(idx) == t.NumRows() {
		return
	}
	t.selectRows(idx)
}
