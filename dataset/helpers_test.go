package dataset

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/deepqso/dataloader/tables"
)

// obs is a compact observation-row description for building test inputs.
type obs struct {
	obj    int64
	visit  int64
	mjd    float64
	filter string
}

// rawAttrNames is the raw attribute schema of a source table, in header
// order (the derived e, phi, d_time columns are added by the deriver).
var rawAttrNames = []string{
	"psf_fwhm", "x", "y", "apFlux", "apFluxErr",
	"apMag", "apMagErr", "trace", "e1", "e2",
}

// attrVal gives every (row, attribute) cell a deterministic, recognizable
// value so tests can predict tensor contents.
func attrVal(attrIdx int, o obs) float64 {
	return float64(o.obj)*100 + float64(o.visit)*10 + float64(attrIdx)
}

// makeObsTable builds an in-memory source table with the full raw schema.
func makeObsTable(t *testing.T, rows []obs) *tables.Table {
	t.Helper()
	tbl := tables.NewTable(len(rows))
	cols := make([][]float64, len(rawAttrNames))
	for i := range cols {
		cols[i] = make([]float64, 0, len(rows))
	}
	for _, r := range rows {
		tbl.ObjectID = append(tbl.ObjectID, r.obj)
		tbl.VisitID = append(tbl.VisitID, r.visit)
		tbl.MJD = append(tbl.MJD, r.mjd)
		tbl.Filter = append(tbl.Filter, r.filter)
		for i := range rawAttrNames {
			cols[i] = append(cols[i], attrVal(i, r))
		}
	}
	for i, name := range rawAttrNames {
		if err := tbl.SetAttr(name, cols[i]); err != nil {
			t.Fatalf("SetAttr(%s): %v", name, err)
		}
	}
	return tbl
}

// writeObsCSV writes rows as a source CSV with the full raw schema, using
// the same cell values as makeObsTable.
func writeObsCSV(t *testing.T, path string, rows []obs) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("objectId,ccdVisitId,MJD,filter," + strings.Join(rawAttrNames, ",") + "\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%d,%g,%s", r.obj, r.visit, r.mjd, r.filter))
		for i := range rawAttrNames {
			sb.WriteString(fmt.Sprintf(",%g", attrVal(i, r)))
		}
		sb.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("failed to write csv %s: %v", path, err)
	}
}

// gridRows emits one observation per (object, visit), with each visit at a
// fixed timestamp and filter: the fully observed grid case.
func gridRows(objects []int64, visits []int64, mjds []float64, filters []string) []obs {
	rows := make([]obs, 0, len(objects)*len(visits))
	for _, o := range objects {
		for i, v := range visits {
			rows = append(rows, obs{obj: o, visit: v, mjd: mjds[i], filter: filters[i]})
		}
	}
	return rows
}

// balancedBuilder runs Balance and Derive over the two tables and returns
// the ready builder.
func balancedBuilder(t *testing.T, cfg Config, lens, nonlens *tables.Table) *Builder {
	t.Helper()
	b := NewBuilder(cfg, nil)
	if err := b.Balance(lens, nonlens); err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if err := b.Derive(lens, nonlens); err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	return b
}
