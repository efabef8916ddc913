// Package models defines the data structures used across the application.
// Report documents are persisted as JSONB; the JSON tags here are the
// canonical wire and storage shape.
package models

import (
	"github.com/google/uuid"
)

// ReportEntry is one reportable incident record for a specific date.
// Week counts are flexible because historical documents stored them as
// either numbers or strings; see WeekValue.
type ReportEntry struct {
	ID          string    `json:"id"`
	Barangay    string    `json:"barangay"`
	ConcernType string    `json:"concernType"`
	Week1       WeekValue `json:"week1"`
	Week2       WeekValue `json:"week2"`
	Week3       WeekValue `json:"week3"`
	Week4       WeekValue `json:"week4"`
	ActionTaken string    `json:"actionTaken"`
	Remarks     string    `json:"remarks"`
	Photos      *PhotoSet `json:"photos,omitempty"`
}

// NewReportEntry returns a blank entry with a fresh ID.
func NewReportEntry() *ReportEntry {
	return &ReportEntry{ID: uuid.New().String()}
}

// Week returns the week count for n in 1..4, zero value otherwise.
func (e *ReportEntry) Week(n int) WeekValue {
	switch n {
	case 1:
		return e.Week1
	case 2:
		return e.Week2
	case 3:
		return e.Week3
	case 4:
		return e.Week4
	}
	return WeekValue{}
}

// SetWeek sets the week count for n in 1..4.
func (e *ReportEntry) SetWeek(n int, v WeekValue) {
	switch n {
	case 1:
		e.Week1 = v
	case 2:
		e.Week2 = v
	case 3:
		e.Week3 = v
	case 4:
		e.Week4 = v
	}
}

// HasWeekData reports whether any weekly count is present.
func (e *ReportEntry) HasWeekData() bool {
	return e.Week1.Present() || e.Week2.Present() || e.Week3.Present() || e.Week4.Present()
}

// PhotoSet holds the per-row before/after photo collections of an entry.
// The legacy top-level Before/After fields predate rows; they are read
// and migrated into the default row once, but never deleted and never
// produced by new writes.
type PhotoSet struct {
	Rows           []PhotoRow  `json:"rows,omitempty"`
	LegacyBefore   FlexStrings `json:"before,omitempty"`
	LegacyAfter    FlexStrings `json:"after,omitempty"`
	LegacyMigrated bool        `json:"legacyMigrated,omitempty"`
}

// PhotoRow is one before/after pair of photo collections. URL and
// timestamp slices are index-aligned.
type PhotoRow struct {
	RowID            string   `json:"rowId"`
	Before           []string `json:"before"`
	BeforeUploadedAt []string `json:"beforeUploadedAt"`
	After            []string `json:"after"`
	AfterUploadedAt  []string `json:"afterUploadedAt"`
}

// AfterCount returns the number of "after" URLs across all rows,
// legacy fields included.
func (p *PhotoSet) AfterCount() int {
	if p == nil {
		return 0
	}
	n := len(p.LegacyAfter.Values())
	for _, row := range p.Rows {
		n += len(row.After)
	}
	return n
}

// AllURLs returns every photo URL in the set, rows first, then legacy
// fields, preserving append order within each collection.
func (p *PhotoSet) AllURLs() []string {
	if p == nil {
		return nil
	}
	var urls []string
	for _, row := range p.Rows {
		urls = append(urls, row.Before...)
		urls = append(urls, row.After...)
	}
	urls = append(urls, p.LegacyBefore.Values()...)
	urls = append(urls, p.LegacyAfter.Values()...)
	return urls
}

// Barangay is a reference-catalog row: the smallest administrative unit,
// nested under a municipality.
type Barangay struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Municipality string `json:"municipality"`
}

// ConcernType is a categorical tag describing the nature of a reported
// incident, scoped per municipality.
type ConcernType struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Municipality string `json:"municipality"`
}

// Operator is a command-center user account.
type Operator struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Municipality string `json:"municipality"`
	IsAdmin      bool   `json:"is_admin"`
	AccessLevel  string `json:"access_level"`
}

// Summary aggregates a month of report entries.
type Summary struct {
	TotalEntries   int         `json:"total_entries"`
	WeekTotals     [4]float64  `json:"week_totals"`
	UniqueBarangay int         `json:"unique_barangays"`
	UniqueConcerns int         `json:"unique_concerns"`
	CompletionRate float64     `json:"completion_rate"`
	RemarksRate    float64     `json:"remarks_rate"`
	TopConcerns    []NameCount `json:"top_concerns"`
	TopBarangays   []NameCount `json:"top_barangays"`
}

// NameCount is a frequency-ranked name for top-N breakdowns.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// HealthStatus is the health check response.
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime,omitempty"`
	Database string `json:"database,omitempty"`
	Redis    string `json:"redis,omitempty"`
	Writes   string `json:"writes,omitempty"`
}
