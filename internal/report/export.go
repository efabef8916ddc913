package report

import (
	"strconv"
	"strings"
)

// csvHeader is the fixed export header consumers match byte-for-byte;
// the column set, order, and unquoted form must not change.
const csvHeader = `DATE,BARANGAY,TYPE OF CONCERN,Week 1,Week 2,Week 3,Week 4,STATUS,REMARKS`

// ExportCSV renders the store as CSV: one row per entry, or one empty
// placeholder row for a date with no entries. Every data field is
// quoted, which is why this does not go through encoding/csv (that
// quotes only when required).
func (s *Store) ExportCSV() string {
	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteString("\n")

	for _, date := range s.DateKeys() {
		entries := s.Data[date]
		wrote := false
		for _, e := range entries {
			if e == nil {
				continue
			}
			writeRow(&b, []string{
				date,
				e.Barangay,
				e.ConcernType,
				weekCell(e.Week1.Num()),
				weekCell(e.Week2.Num()),
				weekCell(e.Week3.Num()),
				weekCell(e.Week4.Num()),
				e.ActionTaken,
				e.Remarks,
			})
			wrote = true
		}
		if !wrote {
			writeRow(&b, []string{date, "", "", "", "", "", "", "", ""})
		}
	}
	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`"`)
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteString(`"`)
	}
	b.WriteString("\n")
}

func weekCell(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
