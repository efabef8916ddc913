package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bayanwatch/patrol-server/internal/docstore"
	"github.com/bayanwatch/patrol-server/internal/ingest"
	"github.com/bayanwatch/patrol-server/internal/quota"
	"github.com/bayanwatch/patrol-server/internal/report"
)

// fakeDocStore is an in-memory document store with switchable failures.
type fakeDocStore struct {
	docs     map[string]map[string]any
	getErr   error
	setErr   error
	getCalls int
	setCalls int
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[string]map[string]any)}
}

func (f *fakeDocStore) key(collection, id string) string { return collection + "/" + id }

func (f *fakeDocStore) Get(ctx context.Context, collection, id string) (map[string]any, bool, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	doc, ok := f.docs[f.key(collection, id)]
	return doc, ok, nil
}

func (f *fakeDocStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.docs[f.key(collection, id)] = data
	return nil
}

func (f *fakeDocStore) Delete(ctx context.Context, collection, id string) error {
	delete(f.docs, f.key(collection, id))
	return nil
}

func (f *fakeDocStore) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	return nil, nil
}

func newTestService(docs *fakeDocStore) (*ReportService, *report.Cache) {
	logger := zap.NewNop().Sugar()
	cache := report.NewCache()
	writer := quota.NewWriter(docs, quota.NewMemoryStateStore(), cache, 16, logger)
	return NewReportService(docs, writer, cache, nil, logger), cache
}

func TestLoadCachesAndShortCircuits(t *testing.T) {
	ctx := context.Background()
	docs := newFakeDocStore()
	svc, _ := newTestService(docs)

	store, fromCache, err := svc.Load(ctx, time.January, 2025, "Orani")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Len(t, store.Data, 31)
	assert.Equal(t, 1, docs.getCalls)

	// Unchanged triple: served from cache, no remote read.
	again, fromCache, err := svc.Load(ctx, time.January, 2025, "Orani")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Same(t, store, again)
	assert.Equal(t, 1, docs.getCalls)

	// Changed triple: remote read happens.
	_, fromCache, err = svc.Load(ctx, time.February, 2025, "Orani")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 2, docs.getCalls)
}

func TestLoadDegradesToEmptyOnReadError(t *testing.T) {
	ctx := context.Background()
	docs := newFakeDocStore()
	docs.getErr = errors.New("permission denied")
	svc, _ := newTestService(docs)

	store, _, err := svc.Load(ctx, time.January, 2025, "Orani")
	require.NoError(t, err, "read errors are logged, not propagated")
	assert.Equal(t, 0, store.EntryCount())
}

func TestSaveRoundTripThroughDocumentStore(t *testing.T) {
	ctx := context.Background()
	docs := newFakeDocStore()
	svc, _ := newTestService(docs)

	store, _, err := svc.Load(ctx, time.January, 2025, "Orani")
	require.NoError(t, err)

	date := "January 5, 2025"
	idx := store.AddEntry(date)
	store.UpdateField(date, idx, report.FieldBarangay, "Tapulao, Orani")
	store.UpdateField(date, idx, report.FieldConcernType, "Flooding")
	store.UpdateField(date, idx, report.FieldWeek1, float64(2))
	store.UpdateField(date, idx, report.FieldActionTaken, "Cleared drainage")

	res := svc.Save(ctx, store, "Orani")
	require.True(t, res.Success)

	// Saved triple is re-primed: load is a cache hit.
	again, fromCache, err := svc.Load(ctx, time.January, 2025, "Orani")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, 1, again.EntryCount())

	// A cold service over the same store sees the persisted document.
	// The fake keeps the denormalized map; entries survive only via
	// JSON in the real store, which the reconciler tests cover. Here
	// we check the canonical envelope.
	doc := docs.docs["weeklyReports/Orani_January_2025"]
	require.NotNil(t, doc)
	assert.Equal(t, "January", doc["selectedMonth"])
	assert.Equal(t, "Orani", doc["municipality"])
}

func TestDeleteAllRequiresTypedConfirmation(t *testing.T) {
	ctx := context.Background()
	docs := newFakeDocStore()
	docs.docs["weeklyReports/Orani_January_2025"] = map[string]any{"weeklyReportData": map[string]any{}}
	svc, _ := newTestService(docs)

	_, err := svc.DeleteAll(ctx, time.January, 2025, "Orani", "delete all reports")
	assert.ErrorIs(t, err, ErrConfirmationMismatch)
	_, exists := docs.docs["weeklyReports/Orani_January_2025"]
	assert.True(t, exists)

	res, err := svc.DeleteAll(ctx, time.January, 2025, "Orani", DeleteConfirmationPhrase)
	require.NoError(t, err)
	assert.True(t, res.Success)
	_, exists = docs.docs["weeklyReports/Orani_January_2025"]
	assert.False(t, exists)
}

func TestImportGroupsAndCounts(t *testing.T) {
	ctx := context.Background()
	docs := newFakeDocStore()
	svc, _ := newTestService(docs)

	rows := []ingest.Row{
		{DateKey: "January 5, 2025", Barangay: "Tapulao", ConcernType: "Flooding", ActionTaken: "Cleared", Municipality: "Orani"},
		{DateKey: "January 23, 2025", Barangay: "Wawa", ConcernType: "Noise", ActionTaken: "Warned", Municipality: "Orani"},
		{DateKey: "February 2, 2025", Barangay: "Cupang", ConcernType: "Flooding", ActionTaken: "Pumped", Municipality: "Balanga"},
	}

	out, err := svc.Import(ctx, rows, "Orani", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Imported)
	assert.Equal(t, 1, out.Skipped)
	require.Len(t, out.Months, 2)

	store, _, err := svc.Load(ctx, time.January, 2025, "Orani")
	require.NoError(t, err)
	assert.Equal(t, 2, store.EntryCount())

	e := store.Entry("January 5, 2025", 0)
	require.NotNil(t, e)
	assert.Equal(t, "Tapulao, Orani", e.Barangay, "bare barangay gets qualified")
	assert.True(t, e.Week1.Present(), "day 5 lands in week 1")

	e = store.Entry("January 23, 2025", 0)
	require.NotNil(t, e)
	assert.True(t, e.Week4.Present(), "day 23 lands in week 4")
}

func TestImportRevertsMonthOnFailedSave(t *testing.T) {
	ctx := context.Background()
	docs := newFakeDocStore()
	svc, _ := newTestService(docs)

	docs.setErr = errors.New("connection refused")
	rows := []ingest.Row{
		{DateKey: "January 5, 2025", Barangay: "Tapulao", ConcernType: "Flooding", ActionTaken: "Cleared", Municipality: "Orani"},
	}

	out, err := svc.Import(ctx, rows, "Orani", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Imported)
	require.Len(t, out.Months, 1)
	assert.False(t, out.Months[0].Saved)
	assert.NotEmpty(t, out.Months[0].Error)

	// In-memory state rolled back: the cached month has no entries.
	store, fromCache, err := svc.Load(ctx, time.January, 2025, "Orani")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, 0, store.EntryCount())
}
