package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"graphical-auth-service/internal/http/middleware"
	"graphical-auth-service/internal/http/response"
	"graphical-auth-service/internal/observability"
	"graphical-auth-service/internal/security"
	"graphical-auth-service/internal/service"
)

type AuthHandler struct {
	authSvc            service.AuthServiceInterface
	cookieMgr          *security.CookieManager
	refreshTTL         time.Duration
	uniformLoginErrors bool
}

func NewAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, refreshTTL time.Duration, uniformLoginErrors bool) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookieMgr: cookieMgr, refreshTTL: refreshTTL, uniformLoginErrors: uniformLoginErrors}
}

type registerRequest struct {
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	ImageSequence []string `json:"image_sequence"`
}

type loginRequest struct {
	Username      string   `json:"username"`
	Password      string   `json:"password"`
	ImageSequence []string `json:"image_sequence"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		observability.RecordAuthRegister(r.Context(), "failure")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	user, err := h.authSvc.Register(req.Username, req.Email, req.Password, req.ImageSequence)
	if err != nil {
		status = "failure"
		httpStatus, code := registerErrorCode(err)
		msg := err.Error()
		if code == "UNAVAILABLE" {
			msg = "service unavailable"
		}
		observability.Audit(r, "auth.register.failed", "username", req.Username, "reason", code)
		observability.RecordAuthRegister(r.Context(), "failure")
		response.Error(w, r, httpStatus, code, msg, nil)
		return
	}
	observability.Audit(r, "auth.register.success", "user_id", user.ID, "username", user.Username)
	observability.RecordAuthRegister(r.Context(), "success")
	response.JSON(w, r, http.StatusCreated, map[string]any{"user": user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		observability.RecordAuthLogin(r.Context(), "failure")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	result, err := h.authSvc.Login(req.Username, req.Password, req.ImageSequence, r.UserAgent(), clientIP(r))
	if err != nil {
		status = "failure"
		httpStatus, code, msg := h.loginError(err)
		observability.Audit(r, "auth.login.failed", "username", req.Username, "reason", code)
		observability.RecordAuthLogin(r.Context(), "failure")
		response.Error(w, r, httpStatus, code, msg, nil)
		return
	}
	h.cookieMgr.SetTokenCookies(w, result.AccessToken, result.RefreshToken, result.CSRFToken, h.refreshTTL)
	observability.Audit(r, "auth.login.success", "user_id", result.User.ID)
	observability.RecordAuthLogin(r.Context(), "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"user": result.User, "csrf_token": result.CSRFToken, "expires_at": result.ExpiresAt})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "refresh", status, time.Since(start))
	}()

	refresh := security.GetCookie(r, security.RefreshTokenCookie)
	if refresh == "" {
		status = "failure"
		observability.Audit(r, "auth.refresh.failed", "reason", "missing_refresh_cookie")
		observability.RecordAuthRefresh(r.Context(), "failure")
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing refresh token", nil)
		return
	}
	result, err := h.authSvc.Refresh(refresh, r.UserAgent(), clientIP(r))
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.refresh.failed", "reason", "invalid_refresh")
		observability.RecordAuthRefresh(r.Context(), "failure")
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid refresh token", nil)
		return
	}
	h.cookieMgr.SetTokenCookies(w, result.AccessToken, result.RefreshToken, result.CSRFToken, h.refreshTTL)
	observability.Audit(r, "auth.refresh.success", "user_id", result.User.ID)
	observability.RecordAuthRefresh(r.Context(), "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"user": result.User, "csrf_token": result.CSRFToken, "expires_at": result.ExpiresAt})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "logout", status, time.Since(start))
	}()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		status = "failure"
		observability.RecordAuthLogout(r.Context(), "failure")
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	uid, err := h.authSvc.ParseUserID(claims.Subject)
	if err != nil {
		status = "failure"
		observability.RecordAuthLogout(r.Context(), "failure")
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid subject", nil)
		return
	}
	if err := h.authSvc.Logout(uid); err != nil {
		status = "failure"
		observability.Audit(r, "auth.logout.failed", "user_id", uid, "reason", "revoke_error")
		observability.RecordAuthLogout(r.Context(), "failure")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "logout failed", nil)
		return
	}
	h.cookieMgr.ClearTokenCookies(w)
	observability.Audit(r, "auth.logout.success", "user_id", uid)
	observability.RecordAuthLogout(r.Context(), "success")
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}

func registerErrorCode(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingUsername):
		return http.StatusBadRequest, "MISSING_USERNAME"
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "INVALID_EMAIL"
	case errors.Is(err, service.ErrMissingGraphicalPassword):
		return http.StatusBadRequest, "MISSING_GRAPHICAL_PASSWORD"
	case errors.Is(err, service.ErrInvalidSequenceLength):
		return http.StatusBadRequest, "INVALID_SEQUENCE_LENGTH"
	case errors.Is(err, service.ErrUnknownImageToken):
		return http.StatusBadRequest, "UNKNOWN_IMAGE_TOKEN"
	case errors.Is(err, service.ErrDuplicateUsername):
		return http.StatusConflict, "DUPLICATE_USERNAME"
	case errors.Is(err, service.ErrDuplicateEmail):
		return http.StatusConflict, "DUPLICATE_EMAIL"
	default:
		// Anything outside the taxonomy is a store failure.
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	}
}

// loginError maps login failures to a status, code and message. In uniform
// mode every credential-stage failure collapses into the same response so
// the body does not reveal which factor was wrong.
func (h *AuthHandler) loginError(err error) (int, string, string) {
	if h.uniformLoginErrors && service.IsLoginFailure(err) {
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", service.ErrInvalidCredentials.Error()
	}
	switch {
	case errors.Is(err, service.ErrMissingGraphicalPassword):
		return http.StatusBadRequest, "MISSING_GRAPHICAL_PASSWORD", err.Error()
	case errors.Is(err, service.ErrInvalidSequenceLength):
		return http.StatusBadRequest, "INVALID_SEQUENCE_LENGTH", err.Error()
	case errors.Is(err, service.ErrCredentialNotConfigured):
		return http.StatusUnauthorized, "CREDENTIAL_NOT_CONFIGURED", err.Error()
	case errors.Is(err, service.ErrInvalidGraphicalPassword):
		return http.StatusUnauthorized, "INVALID_GRAPHICAL_PASSWORD", err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error()
	default:
		// Anything outside the taxonomy is a store failure.
		return http.StatusServiceUnavailable, "UNAVAILABLE", "service unavailable"
	}
}

func clientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	return r.RemoteAddr
}
