// Package ingest extracts report and reference-catalog rows from
// uploaded spreadsheets. Header detection is case-insensitive substring
// matching so operators can keep their own column titles.
package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bayanwatch/patrol-server/internal/datekey"
)

// Row is one report line extracted from a spreadsheet.
type Row struct {
	DateKey      string
	Municipality string
	Barangay     string
	ConcernType  string
	ActionTaken  string
	Remarks      string
}

// Result carries the extracted rows plus the number of rows skipped for
// unparseable dates.
type Result struct {
	Rows    []Row
	Skipped int
}

// CatalogRow is one reference-data line (barangay or concern type).
type CatalogRow struct {
	Name         string
	Municipality string
}

// column matchers, applied case-insensitively to header cells.
var (
	matchDate     = substrMatcher("date")
	matchBarangay = substrMatcher("barangay")
	matchConcern  = anyMatcher(substrMatcher("concern"), substrMatcher("type"))
	matchAction   = substrMatcher("action")
	matchRemarks  = substrMatcher("remark")
	matchMuni     = substrMatcher("municipal")
)

// ReportRows reads the first sheet of an xlsx file and extracts report
// rows. The header row is the first row containing a date column; rows
// whose date cell cannot be parsed are counted in Skipped, not fatal.
func ReportRows(r io.Reader) (*Result, error) {
	rows, err := sheetRows(r)
	if err != nil {
		return nil, err
	}

	headerIdx, cols := locateHeader(rows, matchDate)
	if headerIdx < 0 {
		return nil, fmt.Errorf("no header row with a date column found")
	}

	result := &Result{}
	for _, row := range rows[headerIdx+1:] {
		dateCell := cell(row, cols[colDate])
		if strings.TrimSpace(dateCell) == "" {
			continue
		}
		key, ok := datekey.ParseSpreadsheetDate(dateCell)
		if !ok {
			result.Skipped++
			continue
		}
		result.Rows = append(result.Rows, Row{
			DateKey:      key,
			Municipality: strings.TrimSpace(cell(row, cols[colMuni])),
			Barangay:     strings.TrimSpace(cell(row, cols[colBarangay])),
			ConcernType:  strings.TrimSpace(cell(row, cols[colConcern])),
			ActionTaken:  strings.TrimSpace(cell(row, cols[colAction])),
			Remarks:      strings.TrimSpace(cell(row, cols[colRemarks])),
		})
	}
	return result, nil
}

// BarangayRows extracts barangay catalog rows: a barangay column plus
// an optional municipality column.
func BarangayRows(r io.Reader) ([]CatalogRow, error) {
	return catalogRows(r, matchBarangay)
}

// ConcernTypeRows extracts concern-type catalog rows.
func ConcernTypeRows(r io.Reader) ([]CatalogRow, error) {
	return catalogRows(r, matchConcern)
}

func catalogRows(r io.Reader, matchName func(string) bool) ([]CatalogRow, error) {
	rows, err := sheetRows(r)
	if err != nil {
		return nil, err
	}

	headerIdx := -1
	nameCol, muniCol := -1, -1
	for i, row := range rows {
		for j, c := range row {
			if matchName(c) {
				headerIdx, nameCol = i, j
			}
			if matchMuni(c) {
				muniCol = j
			}
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("no header row with a name column found")
	}

	var out []CatalogRow
	for _, row := range rows[headerIdx+1:] {
		name := strings.TrimSpace(cell(row, nameCol))
		if name == "" {
			continue
		}
		out = append(out, CatalogRow{
			Name:         name,
			Municipality: strings.TrimSpace(cell(row, muniCol)),
		})
	}
	return out, nil
}

const (
	colDate = iota
	colBarangay
	colConcern
	colAction
	colRemarks
	colMuni
	colCount
)

// locateHeader finds the first row where anchor matches some cell and
// maps every known column from that row.
func locateHeader(rows [][]string, anchor func(string) bool) (int, [colCount]int) {
	var cols [colCount]int
	for i := range cols {
		cols[i] = -1
	}
	for i, row := range rows {
		anchored := false
		for _, c := range row {
			if anchor(c) {
				anchored = true
				break
			}
		}
		if !anchored {
			continue
		}
		for j, c := range row {
			switch {
			case cols[colDate] < 0 && matchDate(c):
				cols[colDate] = j
			case cols[colBarangay] < 0 && matchBarangay(c):
				cols[colBarangay] = j
			case cols[colConcern] < 0 && matchConcern(c):
				cols[colConcern] = j
			case cols[colAction] < 0 && matchAction(c):
				cols[colAction] = j
			case cols[colRemarks] < 0 && matchRemarks(c):
				cols[colRemarks] = j
			case cols[colMuni] < 0 && matchMuni(c):
				cols[colMuni] = j
			}
		}
		return i, cols
	}
	return -1, cols
}

func sheetRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func substrMatcher(substr string) func(string) bool {
	return func(s string) bool {
		return strings.Contains(strings.ToLower(s), substr)
	}
}

func anyMatcher(matchers ...func(string) bool) func(string) bool {
	return func(s string) bool {
		for _, m := range matchers {
			if m(s) {
				return true
			}
		}
		return false
	}
}
