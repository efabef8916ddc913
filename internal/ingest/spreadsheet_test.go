package ingest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sheetBytes(t *testing.T, rows [][]any) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestReportRowsHeaderMatching(t *testing.T) {
	// Header uses operator-style titles; matching is case-insensitive
	// substring, and the title row is preceded by junk.
	r := sheetBytes(t, [][]any{
		{"Weekly Patrol Report"},
		{"REPORT DATE", "BARANGAY", "Type of Concern", "Action Taken", "Remarks", "Municipality"},
		{"January 5, 2025", "Tapulao", "Flooding", "Cleared drainage", "ok", "Orani"},
		{"n/a", "Wawa", "Noise", "Warned", "", "Orani"},
		{"2025-01-06", "Wawa", "Noise", "Warned", "", "Orani"},
	})

	result, err := ReportRows(r)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, 1, result.Skipped, "unparseable date row is skipped, not fatal")

	first := result.Rows[0]
	assert.Equal(t, "January 5, 2025", first.DateKey)
	assert.Equal(t, "Tapulao", first.Barangay)
	assert.Equal(t, "Flooding", first.ConcernType)
	assert.Equal(t, "Cleared drainage", first.ActionTaken)
	assert.Equal(t, "ok", first.Remarks)
	assert.Equal(t, "Orani", first.Municipality)

	assert.Equal(t, "January 6, 2025", result.Rows[1].DateKey)
}

func TestReportRowsSerialDates(t *testing.T) {
	r := sheetBytes(t, [][]any{
		{"Date", "Barangay"},
		{"45658", "Tapulao"}, // serial for 2025-01-01 as raw cell text
	})

	result, err := ReportRows(r)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "January 1, 2025", result.Rows[0].DateKey)
}

func TestReportRowsNoHeader(t *testing.T) {
	r := sheetBytes(t, [][]any{
		{"just", "some", "cells"},
	})

	_, err := ReportRows(r)
	assert.Error(t, err)
}

func TestBarangayRows(t *testing.T) {
	r := sheetBytes(t, [][]any{
		{"Barangay Name", "Municipality"},
		{"Tapulao", "Orani"},
		{"", "Orani"}, // blank names skipped
		{"Wawa", "Orani"},
	})

	rows, err := BarangayRows(r)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, CatalogRow{Name: "Tapulao", Municipality: "Orani"}, rows[0])
}

func TestConcernTypeRows(t *testing.T) {
	r := sheetBytes(t, [][]any{
		{"TYPE OF CONCERN", "municipal office"},
		{"Flooding", "Orani"},
	})

	rows, err := ConcernTypeRows(r)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Flooding", rows[0].Name)
}
