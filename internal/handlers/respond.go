// Package handlers contains HTTP request handlers for the patrol API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bayanwatch/patrol-server/internal/datekey"
	"github.com/bayanwatch/patrol-server/internal/middleware"
)

var validate = validator.New()

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeAndValidate parses the JSON body into dst and runs validator
// tags. Returns false after writing the error response.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// parseSelection reads and checks a (month, year, municipality) triple.
func parseSelection(monthName, yearStr, municipality string) (time.Month, int, string, bool) {
	month, ok := datekey.MonthIndex(monthName)
	if !ok {
		return 0, 0, "", false
	}
	year, err := strconv.Atoi(strings.TrimSpace(yearStr))
	if err != nil || year < 2000 || year > 2100 {
		return 0, 0, "", false
	}
	municipality = strings.TrimSpace(municipality)
	if municipality == "" {
		return 0, 0, "", false
	}
	return month, year, municipality, true
}

// canAccessMunicipality gates non-admin operators to their own
// municipality. The engine itself enforces no policy; this is the edge.
func canAccessMunicipality(r *http.Request, municipality string) bool {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return false
	}
	if claims.IsAdmin {
		return true
	}
	return strings.EqualFold(claims.Municipality, municipality)
}
