// Package report implements the weekly-report engine: the in-memory
// per-date entry store, the reconciler that normalizes the several
// historical document shapes, the read cache, and CSV export.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/bayanwatch/patrol-server/internal/datekey"
	"github.com/bayanwatch/patrol-server/internal/models"
)

// Field names an editable ReportEntry field for UpdateField.
type Field string

const (
	FieldBarangay    Field = "barangay"
	FieldConcernType Field = "concernType"
	FieldWeek1       Field = "week1"
	FieldWeek2       Field = "week2"
	FieldWeek3       Field = "week3"
	FieldWeek4       Field = "week4"
	FieldActionTaken Field = "actionTaken"
	FieldRemarks     Field = "remarks"
)

// Store maps canonical date keys to ordered entry lists for one
// (month, year) selection. It is a single-session working set: created
// empty, populated by a load or by edits, and replaced when the
// selection changes.
type Store struct {
	Month time.Month
	Year  int
	Data  map[string][]*models.ReportEntry
}

// Initialize returns a store with one empty list per calendar date of
// the month.
func Initialize(month time.Month, year int) *Store {
	data := make(map[string][]*models.ReportEntry)
	for _, key := range datekey.MonthDates(month, year) {
		data[key] = nil
	}
	return &Store{Month: month, Year: year, Data: data}
}

// FromData wraps an already-normalized mapping in a Store.
func FromData(month time.Month, year int, data map[string][]*models.ReportEntry) *Store {
	if data == nil {
		data = make(map[string][]*models.ReportEntry)
	}
	return &Store{Month: month, Year: year, Data: data}
}

// AddEntry appends a blank entry under the date key and returns its
// index.
func (s *Store) AddEntry(date string) int {
	entry := models.NewReportEntry()
	s.Data[date] = append(s.Data[date], entry)
	return len(s.Data[date]) - 1
}

// UpdateField replaces a single field on the entry at index. Out-of-range
// indexes and nil entries are a no-op: the UI may race a remove against
// an edit, and losing the edit beats crashing the session.
func (s *Store) UpdateField(date string, index int, field Field, value any) bool {
	entries := s.Data[date]
	if index < 0 || index >= len(entries) || entries[index] == nil {
		return false
	}
	e := entries[index]
	switch field {
	case FieldBarangay:
		e.Barangay = toString(value)
	case FieldConcernType:
		e.ConcernType = toString(value)
	case FieldWeek1:
		e.Week1 = models.WeekFromAny(value)
	case FieldWeek2:
		e.Week2 = models.WeekFromAny(value)
	case FieldWeek3:
		e.Week3 = models.WeekFromAny(value)
	case FieldWeek4:
		e.Week4 = models.WeekFromAny(value)
	case FieldActionTaken:
		e.ActionTaken = toString(value)
	case FieldRemarks:
		e.Remarks = toString(value)
	default:
		return false
	}
	return true
}

// RemoveEntry deletes the entry at index, preserving the order of the
// remaining entries. No-op when out of range.
func (s *Store) RemoveEntry(date string, index int) bool {
	entries := s.Data[date]
	if index < 0 || index >= len(entries) {
		return false
	}
	s.Data[date] = append(entries[:index], entries[index+1:]...)
	return true
}

// Entry returns the entry at (date, index), nil when absent.
func (s *Store) Entry(date string, index int) *models.ReportEntry {
	entries := s.Data[date]
	if index < 0 || index >= len(entries) {
		return nil
	}
	return entries[index]
}

// DateKeys returns the store's date keys in chronological order.
// Non-canonical keys (carried over from legacy documents) sort last,
// alphabetically.
func (s *Store) DateKeys() []string {
	keys := make([]string, 0, len(s.Data))
	for k := range s.Data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, iOK := datekey.Parse(keys[i])
		tj, jOK := datekey.Parse(keys[j])
		if iOK && jOK {
			return ti.Before(tj)
		}
		if iOK != jOK {
			return iOK
		}
		return keys[i] < keys[j]
	})
	return keys
}

// EntryCount returns the number of non-nil entries in the store.
func (s *Store) EntryCount() int {
	n := 0
	for _, entries := range s.Data {
		for _, e := range entries {
			if e != nil {
				n++
			}
		}
	}
	return n
}

// IsComplete reports whether an entry has all four required fields:
// barangay, concern type, at least one weekly count, and action taken.
// Remarks are deliberately not part of completeness; they are gated
// separately once "after" photos exist.
func IsComplete(e *models.ReportEntry) bool {
	if e == nil {
		return false
	}
	return strings.TrimSpace(e.Barangay) != "" &&
		strings.TrimSpace(e.ConcernType) != "" &&
		e.HasWeekData() &&
		strings.TrimSpace(e.ActionTaken) != ""
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
