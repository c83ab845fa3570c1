package tables

import (
	"fmt"
	"sort"
)

// Table is a column-oriented, long-format observation table. Each row is one
// observation of one object through one filter during one visit. The fixed
// identity columns (object, filter, timestamp, visit) are typed fields; every
// remaining numeric column lives in the attribute map.
//
// Tables are mutated in place by Balance and DeriveFeatures; the raw CSV on
// disk is never touched.
type Table struct {
	ObjectID []int64
	Filter   []string
	MJD      []float64
	VisitID  []int64

	// TimeIndex is the zero-based visit rank, assigned by DeriveFeatures.
	// Nil until derivation has run.
	TimeIndex []int

	attrs     map[string][]float64
	attrNames []string
}

// NewTable returns an empty table with capacity hints for n rows.
func NewTable(n int) *Table {
	return &Table{
		ObjectID: make([]int64, 0, n),
		Filter:   make([]string, 0, n),
		MJD:      make([]float64, 0, n),
		VisitID:  make([]int64, 0, n),
		attrs:    make(map[string][]float64),
	}
}

// NumRows returns the number of observation rows.
func (t *Table) NumRows() int { return len(t.ObjectID) }

// AttrNames returns the attribute column names in their stable order: CSV
// header order for loaded columns, then derived columns in insertion order.
func (t *Table) AttrNames() []string { return t.attrNames }

// Attr returns the named attribute column, or an error if it is absent.
func (t *Table) Attr(name string) ([]float64, error) {
	col, ok := t.attrs[name]
	if !ok {
		return nil, fmt.Errorf("attribute column %q not found (have %v)", name, t.attrNames)
	}
	return col, nil
}

// SetAttr adds or replaces an attribute column. The column length must match
// the table's row count.
func (t *Table) SetAttr(name string, col []float64) error {
	if len(col) != t.NumRows() {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(col), t.NumRows())
	}
	if _, exists := t.attrs[name]; !exists {
		t.attrNames = append(t.attrNames, name)
	}
	t.attrs[name] = col
	return nil
}

// appendRow appends one observation. Attribute values are given in attrNames
// order; callers must have registered the attribute columns first.
func (t *Table) appendRow(objectID, visitID int64, mjd float64, filter string, vals []float64) {
	t.ObjectID = append(t.ObjectID, objectID)
	t.VisitID = append(t.VisitID, visitID)
	t.MJD = append(t.MJD, mjd)
	t.Filter = append(t.Filter, filter)
	for i, name := range t.attrNames {
		t.attrs[name] = append(t.attrs[name], vals[i])
	}
}

// selectRows rewrites the table to contain only the rows at the given
// indices, in the given order. All columns are gathered together so the table
// stays rectangular.
func (t *Table) selectRows(idx []int) {
	t.ObjectID = gather(t.ObjectID, idx)
	t.Filter = gather(t.Filter, idx)
	if t.MJD != nil {
		t.MJD = gather(t.MJD, idx)
	}
	if t.VisitID != nil {
		t.VisitID = gather(t.VisitID, idx)
	}
	if t.TimeIndex != nil {
		t.TimeIndex = gather(t.TimeIndex, idx)
	}
	for _, name := range t.attrNames {
		t.attrs[name] = gather(t.attrs[name], idx)
	}
}

func gather[T any](col []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = col[j]
	}
	return out
}

// DistinctMJDs returns the number of distinct timestamp values.
func (t *Table) DistinctMJDs() int {
	seen := make(map[float64]struct{}, len(t.MJD))
	for _, v := range t.MJD {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// DistinctObjects returns the number of distinct object identifiers.
func (t *Table) DistinctObjects() int {
	seen := make(map[int64]struct{})
	for _, id := range t.ObjectID {
		seen[id] = struct{}{}
	}
	return len(seen)
}

// ObjectIDsInOrder returns the distinct object identifiers in first-encounter
// order, top to bottom.
func (t *Table) ObjectIDsInOrder() []int64 {
	seen := make(map[int64]struct{})
	out := make([]int64, 0)
	for _, id := range t.ObjectID {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SortedObjectIDs returns the distinct object identifiers in ascending order.
func (t *Table) SortedObjectIDs() []int64 {
	ids := t.ObjectIDsInOrder()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sortedDistinctVisits returns the distinct visit identifiers in ascending
// numeric order.
func (t *Table) sortedDistinctVisits() []int64 {
	seen := make(map[int64]struct{})
	out := make([]int64, 0)
	for _, v := range t.VisitID {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
