// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/fsrf-audit/internal/audit"
	"github.com/tomtom215/fsrf-audit/internal/auth"
	"github.com/tomtom215/fsrf-audit/internal/logging"
	"github.com/tomtom215/fsrf-audit/internal/models"
)

// tokenCookie carries the JWT for browser clients.
const tokenCookie = "token"

// Login handles POST /api/v1/auth/login.
//
// Success records user_login. Failure records login_failed with an unknown
// actor and the attempted email in metadata.
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.APIResponse{data=models.LoginResponse}
// @Failure 401 {object} models.APIResponse
// @Failure 429 {object} models.APIResponse
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.jwtManager == nil || h.credentials == nil {
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, "Authentication is disabled", nil)
		return
	}

	var req models.LoginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	user, err := h.credentials.Authenticate(req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Authentication failed", err)
			return
		}
		logging.Ctx(r.Context()).Warn().Str("email", sanitizeLogValue(req.Email)).Msg("Failed login attempt")
		h.record(r, audit.LogInput{
			UserID:       audit.UnknownActor,
			UserEmail:    audit.UnknownActor,
			Action:       audit.ActionLoginFailed,
			ResourceType: audit.ResourceAuth,
			Details:      "Failed login attempt",
			Severity:     audit.SeverityMedium,
			Status:       audit.StatusFailure,
			Metadata:     map[string]string{"email": req.Email},
		})
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid email or password", nil)
		return
	}

	token, expires, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to issue token", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.config != nil && h.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})

	h.record(r, audit.LogInput{
		UserID:       user.ID,
		UserEmail:    user.Email,
		Action:       audit.ActionUserLogin,
		ResourceType: audit.ResourceAuth,
		Details:      "User signed in",
	})

	respondSuccess(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
	}, newMetadata(r, start))
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless, so logout
// clears the cookie and records user_logout.
// @Summary Log out
// @Tags Auth
// @Produce json
// @Success 200 {object} models.APIResponse
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config != nil && h.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})

	userID, email := actor(r)
	h.record(r, audit.LogInput{
		UserID:       userID,
		UserEmail:    email,
		Action:       audit.ActionUserLogout,
		ResourceType: audit.ResourceAuth,
		Details:      "User signed out",
	})
	respondSuccess(w, http.StatusOK, map[string]bool{"logged_out": true}, newMetadata(r, time.Time{}))
}

// RecordDenied is the authz.DenyFunc hook. It records unauthorized_access
// with the caller as actor, or "unknown" when there were no claims.
func (h *Handler) RecordDenied(r *http.Request, claims *auth.Claims, object, action string) {
	in := audit.LogInput{
		UserID:       audit.UnknownActor,
		UserEmail:    audit.UnknownActor,
		Action:       audit.ActionUnauthorizedAccess,
		ResourceType: audit.ResourceAuth,
		Details:      fmt.Sprintf("Denied %s %s", r.Method, r.URL.Path),
		Severity:     audit.SeverityHigh,
		Status:       audit.StatusFailure,
		Metadata:     map[string]string{"permission": object + ":" + action},
	}
	if claims != nil {
		in.UserID, in.UserEmail = claims.UserID, claims.Email
		in.Metadata = map[string]string{"permission": object + ":" + action, "role": claims.Role}
	}
	h.record(r, in)
}

// RecordRejected is the auth.RejectFunc hook. Requests with no credentials
// at all are not recorded; presenting a bad or expired token is.
func (h *Handler) RecordRejected(r *http.Request, reason string) {
	if reason == auth.ErrMissingToken.Error() {
		return
	}
	h.record(r, audit.LogInput{
		UserID:       audit.UnknownActor,
		UserEmail:    audit.UnknownActor,
		Action:       audit.ActionUnauthorizedAccess,
		ResourceType: audit.ResourceAuth,
		Details:      fmt.Sprintf("Rejected %s %s: %s", r.Method, r.URL.Path, reason),
		Severity:     audit.SeverityMedium,
		Status:       audit.StatusFailure,
	})
}
