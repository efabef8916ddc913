package report

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bayanwatch/patrol-server/internal/datekey"
	"github.com/bayanwatch/patrol-server/internal/models"
)

// Shape names returned by Normalize, newest format first. The order is
// load-bearing: when a document carries both a canonical mapping and a
// leftover legacy one, the newer shape must win or stale data gets
// resurrected.
const (
	ShapeCanonical    = "canonical"     // weeklyReportData at the top level
	ShapeDoubleNested = "double-nested" // data.weeklyReportData
	ShapeWrappedFlat  = "wrapped-flat"  // date keys directly inside data
	ShapeRootFlat     = "root-flat"     // date keys at the document root
)

type shapeStrategy struct {
	name    string
	extract func(raw map[string]any) (map[string]any, bool)
}

var shapeStrategies = []shapeStrategy{
	{ShapeCanonical, func(raw map[string]any) (map[string]any, bool) {
		m, ok := raw["weeklyReportData"].(map[string]any)
		return m, ok
	}},
	{ShapeDoubleNested, func(raw map[string]any) (map[string]any, bool) {
		inner, ok := raw["data"].(map[string]any)
		if !ok {
			return nil, false
		}
		m, ok := inner["weeklyReportData"].(map[string]any)
		return m, ok
	}},
	{ShapeWrappedFlat, func(raw map[string]any) (map[string]any, bool) {
		inner, ok := raw["data"].(map[string]any)
		if !ok || !looksLikeDateMap(inner) {
			return nil, false
		}
		return inner, true
	}},
	{ShapeRootFlat, func(raw map[string]any) (map[string]any, bool) {
		if !looksLikeDateMap(raw) {
			return nil, false
		}
		return raw, true
	}},
}

// Normalize extracts a date-keyed entry mapping from a raw document
// that may be in any of the four historical shapes. It returns the
// mapping, the name of the shape that matched, and false when no shape
// matched or the matched mapping was empty.
func Normalize(raw map[string]any) (map[string][]*models.ReportEntry, string, bool) {
	if raw == nil {
		return nil, "", false
	}
	for _, strat := range shapeStrategies {
		candidate, ok := strat.extract(raw)
		if !ok {
			continue
		}
		// The first recognized shape wins outright. An empty mapping is
		// "no data", not a cue to try older shapes: falling through here
		// would resurrect stale legacy content a newer write left behind.
		data := decodeEntries(candidate)
		if len(data) == 0 {
			return nil, "", false
		}
		return data, strat.name, true
	}
	return nil, "", false
}

// Denormalize produces the canonical document for writing. It always
// emits the canonical shape regardless of what shape was read, and
// drops blank date keys, which the document store rejects.
func Denormalize(s *Store, municipality string, now time.Time) map[string]any {
	sanitized := make(map[string][]*models.ReportEntry, len(s.Data))
	for key, entries := range s.Data {
		if strings.TrimSpace(key) == "" {
			continue
		}
		sanitized[key] = entries
	}
	return map[string]any{
		"weeklyReportData":      sanitized,
		"selectedMonth":         s.Month.String(),
		"selectedYear":          strconv.Itoa(s.Year),
		"municipality":          municipality,
		"activeMunicipalityTab": municipality,
		// Form-state fields are part of the persisted envelope. The
		// server keeps no form, so they are written empty; per-entry
		// values live inside weeklyReportData.
		"selectedBarangay":    "",
		"selectedConcernType": "",
		"actionTaken":         "",
		"remarks":             "",
		"savedAt":             now.UTC().Format(time.RFC3339),
	}
}

// looksLikeDateMap reports whether at least one key reads like a
// canonical date string (contains a month name). Metadata-only keys
// such as selectedMonth do not qualify.
func looksLikeDateMap(m map[string]any) bool {
	for key := range m {
		if datekey.LooksLikeKey(key) {
			return true
		}
	}
	return false
}

// decodeEntries converts a raw date-keyed mapping into typed entries.
// Non-date keys are ignored (flat shapes mix metadata into the same
// object). Each entry is decoded individually so one malformed element
// cannot sink the whole document; null entries are kept as nil so
// downstream consumers see the same list lengths the document had.
func decodeEntries(candidate map[string]any) map[string][]*models.ReportEntry {
	data := make(map[string][]*models.ReportEntry)
	for key, rawList := range candidate {
		if !datekey.LooksLikeKey(key) {
			continue
		}
		list, ok := rawList.([]any)
		if !ok {
			continue
		}
		entries := make([]*models.ReportEntry, 0, len(list))
		for _, rawEntry := range list {
			if rawEntry == nil {
				entries = append(entries, nil)
				continue
			}
			obj, ok := rawEntry.(map[string]any)
			if !ok {
				continue
			}
			b, err := json.Marshal(obj)
			if err != nil {
				continue
			}
			var entry models.ReportEntry
			if err := json.Unmarshal(b, &entry); err != nil {
				continue
			}
			entries = append(entries, &entry)
		}
		data[key] = entries
	}
	return data
}
