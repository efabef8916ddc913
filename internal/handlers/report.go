package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/bayanwatch/patrol-server/internal/ingest"
	"github.com/bayanwatch/patrol-server/internal/models"
	"github.com/bayanwatch/patrol-server/internal/quota"
	"github.com/bayanwatch/patrol-server/internal/report"
	"github.com/bayanwatch/patrol-server/internal/services"
)

// ReportHandler handles weekly-report HTTP endpoints.
type ReportHandler struct {
	reportSvc *services.ReportService
	logger    *zap.SugaredLogger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(rs *services.ReportService, logger *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{reportSvc: rs, logger: logger}
}

// Get handles GET /api/v1/reports?month=&year=&municipality=
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, year, municipality, ok := parseSelection(q.Get("month"), q.Get("year"), q.Get("municipality"))
	if !ok {
		respondError(w, http.StatusBadRequest, "month, year, and municipality query parameters are required")
		return
	}
	if !canAccessMunicipality(r, municipality) {
		respondError(w, http.StatusForbidden, "Not allowed for this municipality")
		return
	}

	store, fromCache, err := h.reportSvc.Load(r.Context(), month, year, municipality)
	if err != nil {
		h.logger.Errorw("report load failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"month":            month.String(),
		"year":             year,
		"municipality":     municipality,
		"fromCache":        fromCache,
		"weeklyReportData": store.Data,
		"summary":          h.reportSvc.Summarize(r.Context(), store, municipality),
	})
}

// SaveReportRequest is the body for PUT /api/v1/reports.
type SaveReportRequest struct {
	Month            string                           `json:"month" validate:"required"`
	Year             string                           `json:"year" validate:"required"`
	Municipality     string                           `json:"municipality" validate:"required"`
	WeeklyReportData map[string][]*models.ReportEntry `json:"weeklyReportData" validate:"required"`
}

// Save handles PUT /api/v1/reports: a full read-modify-write of the
// month document, never a partial patch.
func (h *ReportHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveReportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	month, year, municipality, ok := parseSelection(req.Month, req.Year, req.Municipality)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid month, year, or municipality")
		return
	}
	if !canAccessMunicipality(r, municipality) {
		respondError(w, http.StatusForbidden, "Not allowed for this municipality")
		return
	}

	store := report.FromData(month, year, req.WeeklyReportData)
	res := h.reportSvc.Save(r.Context(), store, municipality)
	respondSaveResult(w, h.logger, res, "Report saved")
}

// DeleteReportRequest is the body for DELETE /api/v1/reports.
type DeleteReportRequest struct {
	Month        string `json:"month" validate:"required"`
	Year         string `json:"year" validate:"required"`
	Municipality string `json:"municipality" validate:"required"`
	Confirmation string `json:"confirmation" validate:"required"`
}

// Delete handles DELETE /api/v1/reports. The typed confirmation phrase
// is required on top of the client-side dialog.
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteReportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	month, year, municipality, ok := parseSelection(req.Month, req.Year, req.Municipality)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid month, year, or municipality")
		return
	}
	if !canAccessMunicipality(r, municipality) {
		respondError(w, http.StatusForbidden, "Not allowed for this municipality")
		return
	}

	res, err := h.reportSvc.DeleteAll(r.Context(), month, year, municipality, req.Confirmation)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondSaveResult(w, h.logger, res, "Report deleted")
}

// Export handles GET /api/v1/reports/export: CSV download.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, year, municipality, ok := parseSelection(q.Get("month"), q.Get("year"), q.Get("municipality"))
	if !ok {
		respondError(w, http.StatusBadRequest, "month, year, and municipality query parameters are required")
		return
	}
	if !canAccessMunicipality(r, municipality) {
		respondError(w, http.StatusForbidden, "Not allowed for this municipality")
		return
	}

	csv, err := h.reportSvc.ExportCSV(r.Context(), month, year, municipality)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to export report")
		return
	}

	filename := fmt.Sprintf("weekly-report-%s-%s-%d.csv", municipality, month.String(), year)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csv))
}

// Import handles POST /api/v1/reports/import: multipart xlsx upload.
func (h *ReportHandler) Import(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "A spreadsheet file is required")
		return
	}
	defer file.Close()

	municipality := r.FormValue("municipality")
	if municipality != "" && !canAccessMunicipality(r, municipality) {
		respondError(w, http.StatusForbidden, "Not allowed for this municipality")
		return
	}

	result, err := ingest.ReportRows(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Could not read spreadsheet: "+err.Error())
		return
	}

	out, err := h.reportSvc.Import(r.Context(), result.Rows, municipality, result.Skipped)
	if err != nil {
		h.logger.Errorw("import failed", "file", header.Filename, "error", err)
		respondError(w, http.StatusInternalServerError, "Import failed")
		return
	}

	h.logger.Infow("spreadsheet imported",
		"file", header.Filename,
		"imported", out.Imported,
		"skipped", out.Skipped,
	)
	respondJSON(w, http.StatusOK, out)
}

// ListDocuments handles GET /api/v1/reports/documents (admin): stored
// month-document metadata without payloads.
func (h *ReportHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.reportSvc.ListDocuments(r.Context())
	if err != nil {
		h.logger.Errorw("document list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

// respondSaveResult maps a gated write outcome onto HTTP. Quota
// exhaustion is 429 with the reset time so clients can show a concrete
// retry hint.
func respondSaveResult(w http.ResponseWriter, logger *zap.SugaredLogger, res quota.SaveResult, okMessage string) {
	switch {
	case res.Success:
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": okMessage,
		})
	case res.QuotaExceeded:
		respondJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"success":       false,
			"quotaExceeded": true,
			"resetTime":     res.ResetTime,
			"message":       "Daily write quota exceeded; try again after the reset time",
		})
	default:
		logger.Errorw("write failed", "error", res.Err)
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Write failed: " + res.Err.Error(),
		})
	}
}
