package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bayanwatch/patrol-server/internal/services"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authSvc *services.AuthService
	logger  *zap.SugaredLogger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(as *services.AuthService, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{authSvc: as, logger: logger}
}

// LoginRequest is the body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, op, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.logger.Errorw("login failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"operator": map[string]interface{}{
			"username":     op.Username,
			"municipality": op.Municipality,
			"isAdmin":      op.IsAdmin,
			"accessLevel":  op.AccessLevel,
		},
	})
}
