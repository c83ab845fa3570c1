package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// The four identity columns every source table must carry. Matching is
// case-insensitive; everything else in the header is loaded as a float64
// attribute column under its original (trimmed) name.
var identityColumns = []string{"objectid", "ccdvisitid", "mjd", "filter"}

// ReadCSV loads a long-format observation table from a delimited text file.
// Schema is assumed pre-validated upstream: a malformed numeric cell is a
// parse error, not a recoverable condition.
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source table: %w", err)
	}
	defer file.Close()
	return readCSV(csv.NewReader(file), path)
}

func readCSV(reader *csv.Reader, path string) (*Table, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[strings.TrimSpace(strings.ToLower(col))] = i
	}
	for _, col := range identityColumns {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("required column %q not found in %s", col, path)
		}
	}

	objectCol := colIndex["objectid"]
	visitCol := colIndex["ccdvisitid"]
	mjdCol := colIndex["mjd"]
	filterCol := colIndex["filter"]

	// Remaining header columns become attribute columns, in header order.
	identity := map[int]bool{objectCol: true, visitCol: true, mjdCol: true, filterCol: true}
	t := NewTable(0)
	attrCols := make([]int, 0, len(header)-4)
	for i, col := range header {
		if identity[i] {
			continue
		}
		name := strings.TrimSpace(col)
		t.attrNames = append(t.attrNames, name)
		t.attrs[name] = make([]float64, 0)
		attrCols = append(attrCols, i)
	}

	vals := make([]float64, len(attrCols))
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d of %s: %w", rowNum, path, err)
		}

		objectID, err := parseInt64(record[objectCol])
		if err != nil {
			return nil, fmt.Errorf("row %d objectId: %w", rowNum, err)
		}
		visitID, err := parseInt64(record[visitCol])
		if err != nil {
			return nil, fmt.Errorf("row %d ccdVisitId: %w", rowNum, err)
		}
		mjd, err := parseFloat64(record[mjdCol])
		if err != nil {
			return nil, fmt.Errorf("row %d MJD: %w", rowNum, err)
		}
		filter := strings.TrimSpace(record[filterCol])

		for i, col := range attrCols {
			v, err := parseFloat64(record[col])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", rowNum, t.attrNames[i], err)
			}
			vals[i] = v
		}
		t.appendRow(objectID, visitID, mjd, filter, vals)
		rowNum++
	}

	return t, nil
}

func parseFloat64(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt64(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	return strconv.ParseInt(s, 10, 64)
}
