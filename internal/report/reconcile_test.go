package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayanwatch/patrol-server/internal/models"
)

func rawEntry(barangay string) map[string]any {
	return map[string]any{
		"id":          "e1",
		"barangay":    barangay,
		"concernType": "Flooding",
		"week1":       float64(2),
		"actionTaken": "Cleared drainage",
	}
}

func TestNormalizePrefersCanonicalOverLegacy(t *testing.T) {
	raw := map[string]any{
		"weeklyReportData": map[string]any{
			"January 5, 2025": []any{rawEntry("Tapulao, Orani")},
		},
		"data": map[string]any{
			"weeklyReportData": map[string]any{
				"January 5, 2025": []any{rawEntry("Stale Barangay, Orani")},
			},
		},
	}

	data, shape, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, ShapeCanonical, shape)
	require.Len(t, data["January 5, 2025"], 1)
	assert.Equal(t, "Tapulao, Orani", data["January 5, 2025"][0].Barangay)
}

func TestNormalizeDoubleNestedLegacy(t *testing.T) {
	raw := map[string]any{
		"data": map[string]any{
			"weeklyReportData": map[string]any{
				"January 5, 2025": []any{rawEntry("Tapulao, Orani")},
			},
		},
	}

	_, shape, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, ShapeDoubleNested, shape)
}

func TestNormalizeWrappedFlatLegacy(t *testing.T) {
	raw := map[string]any{
		"data": map[string]any{
			"January 5, 2025": []any{rawEntry("Tapulao, Orani")},
			"selectedMonth":   "January",
		},
	}

	data, shape, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, ShapeWrappedFlat, shape)
	// Metadata keys must not leak into the date mapping.
	_, hasMeta := data["selectedMonth"]
	assert.False(t, hasMeta)
}

func TestNormalizeRootFlatLegacy(t *testing.T) {
	raw := map[string]any{
		"January 5, 2025": []any{rawEntry("Tapulao, Orani")},
	}

	_, shape, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, ShapeRootFlat, shape)
}

func TestNormalizeNoData(t *testing.T) {
	for name, raw := range map[string]map[string]any{
		"nil document":    nil,
		"empty document":  {},
		"empty canonical": {"weeklyReportData": map[string]any{}},
		"metadata only":   {"selectedMonth": "January", "selectedYear": "2025"},
	} {
		_, _, ok := Normalize(raw)
		assert.False(t, ok, name)
	}
}

func TestNormalizeEmptyCanonicalShadowsLegacy(t *testing.T) {
	// A document cleared by a newer write can still carry a stale
	// double-nested mapping underneath. The empty canonical shape must
	// win: serving the legacy content would resurrect deleted data.
	raw := map[string]any{
		"weeklyReportData": map[string]any{},
		"data": map[string]any{
			"weeklyReportData": map[string]any{
				"January 5, 2025": []any{rawEntry("Stale Barangay, Orani")},
			},
		},
	}

	data, shape, ok := Normalize(raw)
	assert.False(t, ok)
	assert.Empty(t, shape)
	assert.Nil(t, data)
}

func TestNormalizeSkipsMalformedEntriesKeepsNulls(t *testing.T) {
	raw := map[string]any{
		"weeklyReportData": map[string]any{
			"January 5, 2025": []any{rawEntry("Tapulao, Orani"), nil, "garbage"},
		},
	}

	data, _, ok := Normalize(raw)
	require.True(t, ok)
	entries := data["January 5, 2025"]
	require.Len(t, entries, 2)
	assert.NotNil(t, entries[0])
	assert.Nil(t, entries[1])
}

func TestNormalizeWeekValueStrings(t *testing.T) {
	entry := rawEntry("Tapulao, Orani")
	entry["week1"] = "0"
	entry["week2"] = "5"
	raw := map[string]any{
		"weeklyReportData": map[string]any{"January 5, 2025": []any{entry}},
	}

	data, _, ok := Normalize(raw)
	require.True(t, ok)
	e := data["January 5, 2025"][0]
	assert.True(t, e.Week1.Present(), `string "0" counts as present`)
	assert.Equal(t, float64(0), e.Week1.Num())
	assert.Equal(t, float64(5), e.Week2.Num())
}

func TestDenormalizeNormalizeRoundTrip(t *testing.T) {
	s := Initialize(time.January, 2025)
	date := "January 5, 2025"
	idx := s.AddEntry(date)
	s.UpdateField(date, idx, FieldBarangay, "Tapulao, Orani")
	s.UpdateField(date, idx, FieldConcernType, "Flooding")
	s.UpdateField(date, idx, FieldWeek1, "2")
	s.UpdateField(date, idx, FieldActionTaken, "Cleared drainage")

	// Blank keys must be dropped by denormalize.
	s.Data[" "] = []*models.ReportEntry{models.NewReportEntry()}

	doc := Denormalize(s, "Orani", time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "January", doc["selectedMonth"])
	assert.Equal(t, "2025", doc["selectedYear"])
	assert.Equal(t, "Orani", doc["municipality"])
	assert.Equal(t, "2025-02-01T12:00:00Z", doc["savedAt"])

	// The envelope carries the form-state fields, written empty.
	for _, key := range []string{"selectedBarangay", "selectedConcernType", "actionTaken", "remarks"} {
		val, present := doc[key]
		assert.True(t, present, key)
		assert.Equal(t, "", val, key)
	}

	// Simulate the document-store round trip through JSON.
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(b, &stored))

	data, shape, ok := Normalize(stored)
	require.True(t, ok)
	assert.Equal(t, ShapeCanonical, shape)

	_, blankSurvived := data[" "]
	assert.False(t, blankSurvived)

	require.Len(t, data[date], 1)
	got := data[date][0]
	want := s.Entry(date, 0)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Barangay, got.Barangay)
	assert.True(t, got.Week1.IsString(), "string week form survives the round trip")
	assert.Equal(t, want.Week1.Num(), got.Week1.Num())
}

func TestDenormalizePreservesLegacyPhotoFields(t *testing.T) {
	s := Initialize(time.January, 2025)
	date := "January 5, 2025"
	s.Data[date] = []*models.ReportEntry{{
		ID: "e1",
		Photos: &models.PhotoSet{
			LegacyBefore: models.NewFlexStrings([]string{"https://img/a.jpg"}),
		},
	}}

	doc := Denormalize(s, "Orani", time.Now())
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(b, &stored))

	data, _, ok := Normalize(stored)
	require.True(t, ok)
	require.NotNil(t, data[date][0].Photos)
	assert.Equal(t, []string{"https://img/a.jpg"}, data[date][0].Photos.LegacyBefore.Values())
}
