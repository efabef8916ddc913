package handlers

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/bayanwatch/patrol-server/internal/ingest"
	"github.com/bayanwatch/patrol-server/internal/services"
)

// CatalogHandler handles barangay and concern-type catalog endpoints.
type CatalogHandler struct {
	catalogSvc *services.CatalogService
	logger     *zap.SugaredLogger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(cs *services.CatalogService, logger *zap.SugaredLogger) *CatalogHandler {
	return &CatalogHandler{catalogSvc: cs, logger: logger}
}

// ListBarangays handles GET /api/v1/catalogs/barangays?municipality=
func (h *CatalogHandler) ListBarangays(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalogSvc.ListBarangays(r.Context(), r.URL.Query().Get("municipality"))
	if err != nil {
		h.logger.Errorw("barangay list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list barangays")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"barangays": items})
}

// ListConcernTypes handles GET /api/v1/catalogs/concern-types?municipality=
func (h *CatalogHandler) ListConcernTypes(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalogSvc.ListConcernTypes(r.Context(), r.URL.Query().Get("municipality"))
	if err != nil {
		h.logger.Errorw("concern type list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list concern types")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"concernTypes": items})
}

// ImportBarangays handles POST /api/v1/catalogs/barangays/import:
// multipart xlsx upload, admin only.
func (h *CatalogHandler) ImportBarangays(w http.ResponseWriter, r *http.Request) {
	h.importCatalog(w, r, ingest.BarangayRows, h.catalogSvc.ImportBarangays)
}

// ImportConcernTypes handles POST /api/v1/catalogs/concern-types/import.
func (h *CatalogHandler) ImportConcernTypes(w http.ResponseWriter, r *http.Request) {
	h.importCatalog(w, r, ingest.ConcernTypeRows, h.catalogSvc.ImportConcernTypes)
}

func (h *CatalogHandler) importCatalog(
	w http.ResponseWriter,
	r *http.Request,
	extract func(io.Reader) ([]ingest.CatalogRow, error),
	persist func(context.Context, []ingest.CatalogRow, string) (int, error),
) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "A spreadsheet file is required")
		return
	}
	defer file.Close()

	rows, err := extract(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Could not read spreadsheet: "+err.Error())
		return
	}

	inserted, err := persist(r.Context(), rows, r.FormValue("municipality"))
	if err != nil {
		h.logger.Errorw("catalog import failed", "file", header.Filename, "error", err)
		respondError(w, http.StatusInternalServerError, "Catalog import failed")
		return
	}

	h.logger.Infow("catalog imported", "file", header.Filename, "rows", len(rows), "inserted", inserted)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"rows":     len(rows),
		"inserted": inserted,
	})
}
