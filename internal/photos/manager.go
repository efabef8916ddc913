// Package photos manages the per-entry before/after photo collections:
// attachment gating, append-only URL merging, the one-time legacy field
// migration, and best-effort remote cleanup on reset.
package photos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/bayanwatch/patrol-server/internal/models"
	"github.com/bayanwatch/patrol-server/internal/report"
)

// Side selects a photo collection within a row.
type Side string

const (
	SideBefore Side = "before"
	SideAfter  Side = "after"
)

// DefaultRowID is the row legacy top-level URLs migrate into.
const DefaultRowID = "row-1"

// ValidationError is a local, non-fatal rejection: the operation is
// aborted with no state mutation and the message is shown to the user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ResetResult reports the outcome of a full-entry reset. Partial means
// some remote deletions failed; local state is cleared either way.
type ResetResult struct {
	Attempted int  `json:"attempted"`
	Deleted   int  `json:"deleted"`
	Failed    int  `json:"failed"`
	Partial   bool `json:"partial"`
}

// Manager coordinates photo attachment rules for report entries.
type Manager struct {
	storage     ObjectStorage
	deleteTries uint64
	logger      *zap.SugaredLogger
}

// NewManager creates a photo manager over the given object storage.
func NewManager(storage ObjectStorage, logger *zap.SugaredLogger) *Manager {
	return &Manager{storage: storage, deleteTries: 3, logger: logger}
}

// CanAttach reports whether the entry is complete enough to accept
// photos.
func (m *Manager) CanAttach(entry *models.ReportEntry) bool {
	return report.IsComplete(entry)
}

// RemarksRequired reports whether the entry is blocked on remarks:
// at least one "after" photo exists and remarks is empty.
func (m *Manager) RemarksRequired(entry *models.ReportEntry) bool {
	if entry == nil {
		return false
	}
	return entry.Photos.AfterCount() > 0 && strings.TrimSpace(entry.Remarks) == ""
}

// Attach appends newly uploaded URLs to the given row and side. New
// URLs always go after existing ones so carousel ordering stays stable
// across edit sessions. On the first write into the default row, any
// legacy top-level URLs are folded in ahead of the new ones; the legacy
// fields themselves are left in place for history.
func (m *Manager) Attach(entry *models.ReportEntry, rowID string, side Side, urls []string, uploadedAt []string) error {
	if !m.CanAttach(entry) {
		return &ValidationError{Reason: "entry must have barangay, concern type, week data, and action taken before photos can be attached"}
	}
	if side != SideBefore && side != SideAfter {
		return &ValidationError{Reason: fmt.Sprintf("unknown photo side %q", side)}
	}
	if len(urls) == 0 {
		return &ValidationError{Reason: "no uploaded photos to attach"}
	}
	if len(uploadedAt) != len(urls) {
		// Pad missing timestamps rather than rejecting the upload.
		now := time.Now().UTC().Format(time.RFC3339)
		for len(uploadedAt) < len(urls) {
			uploadedAt = append(uploadedAt, now)
		}
		uploadedAt = uploadedAt[:len(urls)]
	}

	if entry.Photos == nil {
		entry.Photos = &models.PhotoSet{}
	}
	photos := entry.Photos

	row := findRow(photos, rowID)
	if row == nil {
		photos.Rows = append(photos.Rows, models.PhotoRow{RowID: rowID})
		row = &photos.Rows[len(photos.Rows)-1]
	}

	if isDefaultRow(photos, rowID) && !photos.LegacyMigrated &&
		(!photos.LegacyBefore.Empty() || !photos.LegacyAfter.Empty()) {
		migrateLegacy(photos, row)
	}

	switch side {
	case SideBefore:
		row.Before, row.BeforeUploadedAt = mergeUploads(row.Before, row.BeforeUploadedAt, urls, uploadedAt)
	case SideAfter:
		row.After, row.AfterUploadedAt = mergeUploads(row.After, row.AfterUploadedAt, urls, uploadedAt)
	}
	return nil
}

// Reset deletes every photo URL of the entry from remote storage,
// continuing past individual failures, then clears photos and remarks
// locally regardless of the remote outcome.
func (m *Manager) Reset(ctx context.Context, entry *models.ReportEntry) ResetResult {
	var result ResetResult
	if entry == nil {
		return result
	}

	for _, url := range entry.Photos.AllURLs() {
		result.Attempted++
		if err := m.deleteWithRetry(ctx, url); err != nil {
			result.Failed++
			m.logger.Warnw("photo delete failed", "url", url, "error", err)
			continue
		}
		result.Deleted++
	}
	result.Partial = result.Failed > 0 && result.Deleted > 0

	entry.Photos = nil
	entry.Remarks = ""
	return result
}

func (m *Manager) deleteWithRetry(ctx context.Context, url string) error {
	return backoff.Retry(
		func() error { return m.storage.Delete(ctx, url) },
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), m.deleteTries),
			ctx,
		),
	)
}

func findRow(photos *models.PhotoSet, rowID string) *models.PhotoRow {
	for i := range photos.Rows {
		if photos.Rows[i].RowID == rowID {
			return &photos.Rows[i]
		}
	}
	return nil
}

// isDefaultRow: the explicit default ID, or the first row of the set.
func isDefaultRow(photos *models.PhotoSet, rowID string) bool {
	if rowID == DefaultRowID {
		return true
	}
	return len(photos.Rows) > 0 && photos.Rows[0].RowID == rowID
}

// migrateLegacy folds the legacy top-level URLs into the row exactly
// once, ahead of anything already there. The legacy fields stay: they
// are the audit trail of the old format.
func migrateLegacy(photos *models.PhotoSet, row *models.PhotoRow) {
	legacyBefore := append([]string(nil), photos.LegacyBefore.Values()...)
	legacyAfter := append([]string(nil), photos.LegacyAfter.Values()...)
	row.Before = appendMissing(legacyBefore, row.Before)
	row.After = appendMissing(legacyAfter, row.After)
	for len(row.BeforeUploadedAt) < len(row.Before) {
		row.BeforeUploadedAt = append([]string{""}, row.BeforeUploadedAt...)
	}
	for len(row.AfterUploadedAt) < len(row.After) {
		row.AfterUploadedAt = append([]string{""}, row.AfterUploadedAt...)
	}
	photos.LegacyMigrated = true
}

// mergeUploads appends URLs not already present, advancing the
// timestamp slice in lockstep. A re-sent URL is dropped together with
// its timestamp; the two slices must stay index-aligned.
func mergeUploads(urls, stamps []string, newURLs, newStamps []string) ([]string, []string) {
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		seen[u] = struct{}{}
	}
	for i, u := range newURLs {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
		stamps = append(stamps, newStamps[i])
	}
	return urls, stamps
}

// appendMissing appends items from extra that are not already in base,
// preserving order. Re-sent URLs must not duplicate.
func appendMissing(base []string, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, u := range base {
		seen[u] = struct{}{}
	}
	out := base
	for _, u := range extra {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
