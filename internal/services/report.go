// Package services contains business logic layers. Services are called
// by handlers and coordinate the report engine, the document store,
// and the reference catalogs.
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bayanwatch/patrol-server/internal/datekey"
	"github.com/bayanwatch/patrol-server/internal/docstore"
	"github.com/bayanwatch/patrol-server/internal/ingest"
	"github.com/bayanwatch/patrol-server/internal/models"
	"github.com/bayanwatch/patrol-server/internal/quota"
	"github.com/bayanwatch/patrol-server/internal/report"
)

// ReportCollection is the document-store collection for weekly reports.
const ReportCollection = "weeklyReports"

// DeleteConfirmationPhrase must be typed back verbatim before a
// delete-all goes through. Irreversible loss needs more friction than
// a yes/no dialog.
const DeleteConfirmationPhrase = "DELETE ALL REPORTS"

// ErrConfirmationMismatch rejects a delete-all without the typed phrase.
var ErrConfirmationMismatch = fmt.Errorf("confirmation phrase does not match %q", DeleteConfirmationPhrase)

// ReportService orchestrates load/save/import/export of weekly report
// documents across the cache, the reconciler, and the quota-gated
// writer.
type ReportService struct {
	docs     docstore.Store
	writer   *quota.Writer
	cache    *report.Cache
	catalogs *CatalogService
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewReportService creates a report service.
func NewReportService(docs docstore.Store, writer *quota.Writer, cache *report.Cache, catalogs *CatalogService, logger *zap.SugaredLogger) *ReportService {
	return &ReportService{
		docs:     docs,
		writer:   writer,
		cache:    cache,
		catalogs: catalogs,
		logger:   logger,
		now:      time.Now,
	}
}

// DocumentID builds the canonical per-municipality-month document ID.
func DocumentID(municipality string, month time.Month, year int) string {
	return fmt.Sprintf("%s_%s_%d", municipality, month.String(), year)
}

// Load returns the report store for the triple, serving from cache when
// the selection is unchanged. Remote read failures degrade to an empty
// month rather than propagating: the operator can still work, and the
// next save writes the full document anyway.
func (s *ReportService) Load(ctx context.Context, month time.Month, year int, municipality string) (*report.Store, bool, error) {
	if cached, ok := s.cache.Get(month, year, municipality); ok {
		return cached, true, nil
	}

	store := report.Initialize(month, year)

	raw, exists, err := s.docs.Get(ctx, ReportCollection, DocumentID(municipality, month, year))
	if err != nil {
		s.logger.Errorw("report document read failed, starting empty",
			"municipality", municipality, "month", month.String(), "year", year, "error", err)
	} else if exists {
		if data, shape, ok := report.Normalize(raw); ok {
			// Overlay normalized data on the empty month so every
			// calendar date stays present alongside legacy keys.
			for key, entries := range data {
				store.Data[key] = entries
			}
			s.logger.Infow("report document loaded",
				"municipality", municipality, "month", month.String(), "year", year,
				"shape", shape, "entries", store.EntryCount())
		}
	}

	s.cache.Put(month, year, municipality, store)
	return store, false, nil
}

// Save denormalizes the store to the canonical shape and writes it
// through the quota gate. On acknowledgment the writer invalidates the
// cache; the fresh store is then re-primed so the next load is a hit.
func (s *ReportService) Save(ctx context.Context, store *report.Store, municipality string) quota.SaveResult {
	doc := report.Denormalize(store, municipality, s.now())
	res := s.writer.Save(ctx, ReportCollection, DocumentID(municipality, store.Month, store.Year), doc, store.Month, store.Year, municipality)
	if res.Success {
		s.cache.Put(store.Month, store.Year, municipality, store)
	}
	return res
}

// DeleteAll removes the month document for the municipality. The typed
// confirmation phrase is checked here, not in the handler, so no caller
// can skip it.
func (s *ReportService) DeleteAll(ctx context.Context, month time.Month, year int, municipality, confirmation string) (quota.SaveResult, error) {
	if confirmation != DeleteConfirmationPhrase {
		return quota.SaveResult{}, ErrConfirmationMismatch
	}
	res := s.writer.Delete(ctx, ReportCollection, DocumentID(municipality, month, year), month, year, municipality)
	return res, nil
}

// Summarize aggregates the store, resolving bare barangay names through
// the reference catalog when a municipality filter is set.
func (s *ReportService) Summarize(ctx context.Context, store *report.Store, municipality string) models.Summary {
	var resolver report.BarangayResolver
	if municipality != "" && s.catalogs != nil {
		r, err := s.catalogs.Resolver(ctx)
		if err != nil {
			s.logger.Warnw("barangay resolver unavailable", "error", err)
		} else {
			resolver = r
		}
	}
	return store.Summarize(municipality, resolver)
}

// ExportCSV loads the triple and renders it as CSV.
func (s *ReportService) ExportCSV(ctx context.Context, month time.Month, year int, municipality string) (string, error) {
	store, _, err := s.Load(ctx, month, year, municipality)
	if err != nil {
		return "", err
	}
	return store.ExportCSV(), nil
}

// DocumentInfo describes one stored month document without its payload.
type DocumentInfo struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListDocuments returns metadata for every stored month document. Used
// by operators to see which municipality-months exist without pulling
// full payloads.
func (s *ReportService) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	docs, err := s.docs.List(ctx, ReportCollection)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentInfo{ID: d.ID, UpdatedAt: d.UpdatedAt})
	}
	return out, nil
}

// ImportMonthResult reports one month-document save within a bulk import.
type ImportMonthResult struct {
	Municipality  string `json:"municipality"`
	Month         string `json:"month"`
	Year          int    `json:"year"`
	Rows          int    `json:"rows"`
	Saved         bool   `json:"saved"`
	QuotaExceeded bool   `json:"quotaExceeded,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ImportReport aggregates a bulk spreadsheet import.
type ImportReport struct {
	Imported int                 `json:"imported"`
	Skipped  int                 `json:"skipped"`
	Months   []ImportMonthResult `json:"months"`
}

// Import merges spreadsheet rows into the affected month documents and
// saves each one. A failed month save reverts that month's in-memory
// merge (bulk imports roll back; interactive edits do not) and is
// reported per month without aborting the rest.
func (s *ReportService) Import(ctx context.Context, rows []ingest.Row, defaultMunicipality string, skipped int) (*ImportReport, error) {
	type groupKey struct {
		municipality string
		month        time.Month
		year         int
	}

	groups := make(map[groupKey][]ingest.Row)
	order := make([]groupKey, 0)
	reportOut := &ImportReport{Skipped: skipped}

	for _, row := range rows {
		date, ok := datekey.Parse(row.DateKey)
		if !ok {
			reportOut.Skipped++
			continue
		}
		municipality := row.Municipality
		if municipality == "" {
			municipality = defaultMunicipality
		}
		key := groupKey{municipality: municipality, month: date.Month(), year: date.Year()}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	for _, key := range order {
		store, _, err := s.Load(ctx, key.month, key.year, key.municipality)
		if err != nil {
			return nil, err
		}
		snapshot := cloneStore(store)

		count := 0
		for _, row := range groups[key] {
			date, _ := datekey.Parse(row.DateKey)
			idx := store.AddEntry(row.DateKey)
			store.UpdateField(row.DateKey, idx, report.FieldBarangay, qualifyBarangay(row.Barangay, key.municipality))
			store.UpdateField(row.DateKey, idx, report.FieldConcernType, row.ConcernType)
			store.UpdateField(row.DateKey, idx, report.FieldActionTaken, row.ActionTaken)
			store.UpdateField(row.DateKey, idx, report.FieldRemarks, row.Remarks)
			week := datekey.WeekOfMonth(date.Day())
			store.UpdateField(row.DateKey, idx, report.Field(fmt.Sprintf("week%d", week)), float64(1))
			count++
		}

		monthResult := ImportMonthResult{
			Municipality: key.municipality,
			Month:        key.month.String(),
			Year:         key.year,
			Rows:         count,
		}

		res := s.Save(ctx, store, key.municipality)
		if res.Success {
			monthResult.Saved = true
			reportOut.Imported += count
		} else {
			// Revert the merge for this month: restore the pre-import
			// snapshot so cached state matches what is actually stored.
			s.cache.Put(key.month, key.year, key.municipality, snapshot)
			monthResult.QuotaExceeded = res.QuotaExceeded
			if res.Err != nil {
				monthResult.Error = res.Err.Error()
			} else if res.QuotaExceeded {
				monthResult.Error = "daily write quota exceeded"
			}
		}
		reportOut.Months = append(reportOut.Months, monthResult)
	}

	return reportOut, nil
}

// qualifyBarangay appends the municipality suffix when the spreadsheet
// carried a bare barangay name.
func qualifyBarangay(barangay, municipality string) string {
	if barangay == "" || municipality == "" {
		return barangay
	}
	for i := 0; i < len(barangay); i++ {
		if barangay[i] == ',' {
			return barangay // already qualified
		}
	}
	return barangay + ", " + municipality
}

// cloneStore copies the date map and entry slices. Entries themselves
// are shared: imports only append, so restoring the map and slice
// shapes is a full revert.
func cloneStore(s *report.Store) *report.Store {
	data := make(map[string][]*models.ReportEntry, len(s.Data))
	for key, entries := range s.Data {
		data[key] = append([]*models.ReportEntry(nil), entries...)
	}
	return report.FromData(s.Month, s.Year, data)
}
