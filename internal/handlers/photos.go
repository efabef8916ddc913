package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bayanwatch/patrol-server/internal/photos"
	"github.com/bayanwatch/patrol-server/internal/services"
)

// PhotoHandler handles photo upload, attachment, and reset endpoints.
type PhotoHandler struct {
	reportSvc *services.ReportService
	manager   *photos.Manager
	storage   photos.ObjectStorage
	logger    *zap.SugaredLogger
}

// NewPhotoHandler creates a new photo handler.
func NewPhotoHandler(rs *services.ReportService, manager *photos.Manager, storage photos.ObjectStorage, logger *zap.SugaredLogger) *PhotoHandler {
	return &PhotoHandler{reportSvc: rs, manager: manager, storage: storage, logger: logger}
}

// Upload handles POST /api/v1/reports/photos/upload: forwards the file
// to object storage and returns the resulting URL. Attachment to an
// entry is a separate step so a slow upload finishing after the
// operator moved on cannot corrupt another selection.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "A photo file is required")
		return
	}
	defer file.Close()

	result, err := h.storage.Upload(r.Context(), file, header.Filename, photos.UploadOptions{
		Folder: r.FormValue("folder"),
	})
	if err != nil {
		h.logger.Errorw("photo upload failed", "file", header.Filename, "error", err)
		respondJSON(w, http.StatusBadGateway, map[string]interface{}{
			"success": false,
			"error":   "Upload failed",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]string{"url": result.URL},
	})
}

// AttachPhotosRequest is the body for POST /api/v1/reports/photos/attach.
type AttachPhotosRequest struct {
	Month        string   `json:"month" validate:"required"`
	Year         string   `json:"year" validate:"required"`
	Municipality string   `json:"municipality" validate:"required"`
	Date         string   `json:"date" validate:"required"`
	Index        int      `json:"index"`
	RowID        string   `json:"rowId" validate:"required"`
	Side         string   `json:"side" validate:"required,oneof=before after"`
	URLs         []string `json:"urls" validate:"required,min=1"`
	UploadedAt   []string `json:"uploadedAt"`
	Remarks      string   `json:"remarks"`
}

// Attach handles POST /api/v1/reports/photos/attach: merges uploaded
// URLs into the entry's photo rows and persists the month document.
func (h *PhotoHandler) Attach(w http.ResponseWriter, r *http.Request) {
	var req AttachPhotosRequest
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

	store, _, err := h.reportSvc.Load(r.Context(), month, year, municipality)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	entry := store.Entry(req.Date, req.Index)
	if entry == nil {
		respondError(w, http.StatusNotFound, "Report entry not found")
		return
	}

	if req.Remarks != "" {
		entry.Remarks = req.Remarks
	}

	// After photos require remarks before anything is persisted.
	if photos.Side(req.Side) == photos.SideAfter && strings.TrimSpace(entry.Remarks) == "" {
		respondError(w, http.StatusBadRequest, "Remarks are required when attaching after photos")
		return
	}

	if err := h.manager.Attach(entry, req.RowID, photos.Side(req.Side), req.URLs, req.UploadedAt); err != nil {
		var verr *photos.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Reason)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to attach photos")
		return
	}

	res := h.reportSvc.Save(r.Context(), store, municipality)
	respondSaveResult(w, h.logger, res, "Photos attached")
}

// ResetPhotosRequest is the body for POST /api/v1/reports/photos/reset.
type ResetPhotosRequest struct {
	Month        string `json:"month" validate:"required"`
	Year         string `json:"year" validate:"required"`
	Municipality string `json:"municipality" validate:"required"`
	Date         string `json:"date" validate:"required"`
	Index        int    `json:"index"`
}

// Reset handles POST /api/v1/reports/photos/reset: best-effort remote
// deletion of every photo, then local clear, then persist. Partial
// remote failures are reported, not fatal.
func (h *PhotoHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetPhotosRequest
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

	store, _, err := h.reportSvc.Load(r.Context(), month, year, municipality)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	entry := store.Entry(req.Date, req.Index)
	if entry == nil {
		respondError(w, http.StatusNotFound, "Report entry not found")
		return
	}

	result := h.manager.Reset(r.Context(), entry)
	res := h.reportSvc.Save(r.Context(), store, municipality)
	if !res.Success {
		respondSaveResult(w, h.logger, res, "")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"reset":   result,
	})
}
