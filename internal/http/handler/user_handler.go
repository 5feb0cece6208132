package handler

import (
	"errors"
	"net/http"
	"strconv"

	"graphical-auth-service/internal/http/middleware"
	"graphical-auth-service/internal/http/response"
	"graphical-auth-service/internal/observability"
	"graphical-auth-service/internal/service"
)

type UserHandler struct {
	userSvc service.UserServiceInterface
}

func NewUserHandler(userSvc service.UserServiceInterface) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, err := callerID(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	u, err := h.userSvc.GetByID(uid)
	if err != nil {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, u)
}

func (h *UserHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	uid, err := callerID(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	sessions, err := h.userSvc.Sessions(uid)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list sessions", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"sessions": sessions})
}

// RevokeSessions invalidates every refresh session the caller owns. The
// access cookie keeps working until it expires; only refresh stops.
func (h *UserHandler) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	uid, err := callerID(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	revoked, err := h.userSvc.RevokeSessions(uid)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to revoke sessions", nil)
		return
	}
	observability.Audit(r, "user.sessions.revoked", "user_id", uid, "revoked", revoked)
	response.JSON(w, r, http.StatusOK, map[string]any{"revoked": revoked})
}

func callerID(r *http.Request) (uint, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return 0, errors.New("missing auth context")
	}
	id64, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id64), nil
}
