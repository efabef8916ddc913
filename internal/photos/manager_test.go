package photos

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bayanwatch/patrol-server/internal/models"
)

// fakeStorage records deletes and fails specific URLs.
type fakeStorage struct {
	deleted  []string
	failURLs map[string]bool
}

func (f *fakeStorage) Upload(ctx context.Context, file io.Reader, filename string, opts UploadOptions) (UploadResult, error) {
	return UploadResult{URL: "https://img/" + filename}, nil
}

func (f *fakeStorage) Delete(ctx context.Context, fileURL string) error {
	if f.failURLs[fileURL] {
		return errors.New("remote delete failed")
	}
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func newTestManager(storage *fakeStorage) *Manager {
	m := NewManager(storage, zap.NewNop().Sugar())
	m.deleteTries = 0 // no retries in tests
	return m
}

func completeEntry() *models.ReportEntry {
	return &models.ReportEntry{
		ID:          "e1",
		Barangay:    "Tapulao, Orani",
		ConcernType: "Flooding",
		Week1:       models.WeekNumber(2),
		ActionTaken: "Cleared drainage",
	}
}

func TestCanAttachRequiresCompleteEntry(t *testing.T) {
	m := newTestManager(&fakeStorage{})

	assert.True(t, m.CanAttach(completeEntry()))

	// Weeks all zero: no week data, attach must be rejected even with
	// action taken set.
	e := completeEntry()
	e.Week1 = models.WeekNumber(0)
	assert.False(t, m.CanAttach(e))

	err := m.Attach(e, DefaultRowID, SideBefore, []string{"https://img/a.jpg"}, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, e.Photos, "rejected attach must not mutate the entry")

	// Missing remarks does not block attachment; completeness is
	// independent of remarks.
	e = completeEntry()
	e.Remarks = ""
	assert.True(t, m.CanAttach(e))
}

func TestAttachAppendsAfterExisting(t *testing.T) {
	m := newTestManager(&fakeStorage{})
	e := completeEntry()

	require.NoError(t, m.Attach(e, DefaultRowID, SideBefore, []string{"https://img/a.jpg"}, []string{"t1"}))
	require.NoError(t, m.Attach(e, DefaultRowID, SideBefore, []string{"https://img/b.jpg"}, []string{"t2"}))

	require.Len(t, e.Photos.Rows, 1)
	assert.Equal(t, []string{"https://img/a.jpg", "https://img/b.jpg"}, e.Photos.Rows[0].Before)
	assert.Equal(t, []string{"t1", "t2"}, e.Photos.Rows[0].BeforeUploadedAt)
}

func TestAttachDeduplicatesResentURLs(t *testing.T) {
	m := newTestManager(&fakeStorage{})
	e := completeEntry()

	require.NoError(t, m.Attach(e, DefaultRowID, SideAfter, []string{"https://img/a.jpg"}, []string{"t1"}))
	require.NoError(t, m.Attach(e, DefaultRowID, SideAfter, []string{"https://img/a.jpg", "https://img/b.jpg"}, []string{"t2", "t3"}))

	assert.Equal(t, []string{"https://img/a.jpg", "https://img/b.jpg"}, e.Photos.Rows[0].After)
	// The re-sent URL's timestamp must be dropped with it; the slices
	// stay index-aligned.
	assert.Equal(t, []string{"t1", "t3"}, e.Photos.Rows[0].AfterUploadedAt)
}

func TestAttachMigratesLegacyFieldsOnce(t *testing.T) {
	m := newTestManager(&fakeStorage{})
	e := completeEntry()
	e.Photos = &models.PhotoSet{
		LegacyBefore: models.NewFlexStrings([]string{"https://img/legacy-before.jpg"}),
		LegacyAfter:  models.NewFlexStrings([]string{"https://img/legacy-after.jpg"}),
	}

	require.NoError(t, m.Attach(e, DefaultRowID, SideBefore, []string{"https://img/new.jpg"}, []string{"t1"}))

	row := e.Photos.Rows[0]
	// Legacy URLs come first, new uploads after.
	assert.Equal(t, []string{"https://img/legacy-before.jpg", "https://img/new.jpg"}, row.Before)
	assert.Equal(t, []string{"https://img/legacy-after.jpg"}, row.After)
	assert.True(t, e.Photos.LegacyMigrated)

	// Legacy fields stay for history.
	assert.Equal(t, []string{"https://img/legacy-before.jpg"}, e.Photos.LegacyBefore.Values())

	// A second attach must not migrate again.
	require.NoError(t, m.Attach(e, DefaultRowID, SideBefore, []string{"https://img/new2.jpg"}, []string{"t2"}))
	assert.Equal(t, []string{"https://img/legacy-before.jpg", "https://img/new.jpg", "https://img/new2.jpg"}, e.Photos.Rows[0].Before)
}

func TestAttachSecondRowDoesNotTouchLegacy(t *testing.T) {
	m := newTestManager(&fakeStorage{})
	e := completeEntry()
	e.Photos = &models.PhotoSet{
		Rows:         []models.PhotoRow{{RowID: DefaultRowID}},
		LegacyBefore: models.NewFlexStrings([]string{"https://img/legacy.jpg"}),
	}

	require.NoError(t, m.Attach(e, "row-2", SideBefore, []string{"https://img/x.jpg"}, []string{"t1"}))

	require.Len(t, e.Photos.Rows, 2)
	assert.Equal(t, []string{"https://img/x.jpg"}, e.Photos.Rows[1].Before)
	assert.False(t, e.Photos.LegacyMigrated)
}

func TestRemarksRequired(t *testing.T) {
	m := newTestManager(&fakeStorage{})

	e := completeEntry()
	assert.False(t, m.RemarksRequired(e), "no photos, no remarks needed")

	require.NoError(t, m.Attach(e, DefaultRowID, SideAfter, []string{"https://img/a.jpg"}, []string{"t1"}))
	assert.True(t, m.RemarksRequired(e))

	e.Remarks = "Repaired and verified"
	assert.False(t, m.RemarksRequired(e))

	// Legacy after photos count too.
	e2 := completeEntry()
	e2.Photos = &models.PhotoSet{LegacyAfter: models.NewFlexStrings([]string{"https://img/old.jpg"})}
	assert.True(t, m.RemarksRequired(e2))
}

func TestResetDeletesAllAndClearsLocally(t *testing.T) {
	storage := &fakeStorage{}
	m := newTestManager(storage)
	e := completeEntry()
	e.Remarks = "done"
	e.Photos = &models.PhotoSet{
		Rows: []models.PhotoRow{{
			RowID:  DefaultRowID,
			Before: []string{"https://img/a.jpg"},
			After:  []string{"https://img/b.jpg"},
		}},
		LegacyBefore: models.NewFlexStrings([]string{"https://img/legacy.jpg"}),
	}

	result := m.Reset(context.Background(), e)
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 3, result.Deleted)
	assert.Equal(t, 0, result.Failed)
	assert.False(t, result.Partial)
	assert.Len(t, storage.deleted, 3)

	assert.Nil(t, e.Photos)
	assert.Empty(t, e.Remarks)
}

func TestResetContinuesPastFailures(t *testing.T) {
	storage := &fakeStorage{failURLs: map[string]bool{"https://img/b.jpg": true}}
	m := newTestManager(storage)
	e := completeEntry()
	e.Photos = &models.PhotoSet{
		Rows: []models.PhotoRow{{
			RowID:  DefaultRowID,
			Before: []string{"https://img/a.jpg", "https://img/b.jpg", "https://img/c.jpg"},
		}},
	}

	result := m.Reset(context.Background(), e)
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, result.Partial)

	// Local clear happens regardless of remote outcome.
	assert.Nil(t, e.Photos)
}
