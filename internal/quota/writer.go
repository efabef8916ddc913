package quota

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bayanwatch/patrol-server/internal/docstore"
	"github.com/bayanwatch/patrol-server/internal/report"
)

// SaveResult is the structured outcome of a gated write. Quota
// exhaustion is a result, not an error: callers surface ResetTime to
// the user instead of retrying.
type SaveResult struct {
	Success       bool       `json:"success"`
	QuotaExceeded bool       `json:"quotaExceeded,omitempty"`
	ResetTime     *time.Time `json:"resetTime,omitempty"`
	Err           error      `json:"-"`
}

// Writer gates every document write behind the quota breaker and owns
// the cache invalidation that must follow acknowledged writes.
type Writer struct {
	docs      docstore.Store
	state     StateStore
	cache     *report.Cache
	resetHour int
	now       func() time.Time
	logger    *zap.SugaredLogger
}

// NewWriter creates a quota-gated writer. resetHour is the local hour
// (0-23) at which the provider's daily write quota rolls over.
func NewWriter(docs docstore.Store, state StateStore, cache *report.Cache, resetHour int, logger *zap.SugaredLogger) *Writer {
	return &Writer{
		docs:      docs,
		state:     state,
		cache:     cache,
		resetHour: resetHour,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock overrides the writer's clock; tests only.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Save writes the full document and, on acknowledgment, invalidates
// the read cache for the triple. While blocked, it short-circuits
// without touching the underlying store.
func (w *Writer) Save(ctx context.Context, collection, id string, data map[string]any, month time.Month, year int, municipality string) SaveResult {
	if res, blocked := w.checkBlocked(ctx); blocked {
		return res
	}

	if err := w.docs.Set(ctx, collection, id, data); err != nil {
		return w.writeFailed(ctx, err)
	}

	// Invalidate strictly after the write acknowledgment so a reader
	// can never observe empty state ahead of the write that caused it.
	w.cache.Invalidate(month, year, municipality)
	return SaveResult{Success: true}
}

// Delete removes the document under the same gating rules as Save.
func (w *Writer) Delete(ctx context.Context, collection, id string, month time.Month, year int, municipality string) SaveResult {
	if res, blocked := w.checkBlocked(ctx); blocked {
		return res
	}

	if err := w.docs.Delete(ctx, collection, id); err != nil {
		return w.writeFailed(ctx, err)
	}

	w.cache.Invalidate(month, year, municipality)
	return SaveResult{Success: true}
}

// Blocked reports the current breaker state without attempting a write.
func (w *Writer) Blocked(ctx context.Context) (BlockState, error) {
	state, err := w.state.Load(ctx)
	if err != nil {
		return BlockState{}, err
	}
	if state.IsBlocked && state.BlockedUntil != nil && !w.now().Before(*state.BlockedUntil) {
		state = BlockState{}
	}
	return state, nil
}

// checkBlocked evaluates the breaker lazily: a block past its deadline
// resets to open atomically on this check.
func (w *Writer) checkBlocked(ctx context.Context) (SaveResult, bool) {
	state, err := w.state.Load(ctx)
	if err != nil {
		// A broken state store must not disable writes; log and treat
		// as open.
		w.logger.Warnw("quota state load failed, treating as open", "error", err)
		return SaveResult{}, false
	}
	if !state.IsBlocked || state.BlockedUntil == nil {
		return SaveResult{}, false
	}
	if !w.now().Before(*state.BlockedUntil) {
		if err := w.state.Save(ctx, BlockState{}); err != nil {
			w.logger.Warnw("quota state clear failed", "error", err)
		}
		w.logger.Infow("quota block expired, writes reopened")
		return SaveResult{}, false
	}
	until := *state.BlockedUntil
	return SaveResult{QuotaExceeded: true, ResetTime: &until}, true
}

func (w *Writer) writeFailed(ctx context.Context, err error) SaveResult {
	if !docstore.IsResourceExhausted(err) {
		return SaveResult{Err: err}
	}

	until := w.nextReset()
	state := BlockState{IsBlocked: true, BlockedUntil: &until}
	if saveErr := w.state.Save(ctx, state); saveErr != nil {
		w.logger.Errorw("quota block persist failed", "error", saveErr)
	}
	w.logger.Warnw("write quota exhausted, blocking writes",
		"blockedUntil", until,
		"error", err,
	)
	return SaveResult{QuotaExceeded: true, ResetTime: &until}
}

// nextReset returns the next occurrence of the daily reset hour: today
// if still ahead, otherwise tomorrow.
func (w *Writer) nextReset() time.Time {
	now := w.now()
	reset := time.Date(now.Year(), now.Month(), now.Day(), w.resetHour, 0, 0, 0, now.Location())
	if !now.Before(reset) {
		reset = reset.AddDate(0, 0, 1)
	}
	return reset
}
