package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"graphical-auth-service/internal/http/response"
	"graphical-auth-service/internal/observability"
	"graphical-auth-service/internal/service"
)

type AdminHandler struct {
	adminSvc service.AdminServiceInterface
}

func NewAdminHandler(adminSvc service.AdminServiceInterface) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminSvc.ListUsers()
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list users", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"users": users})
}

// ListCredentials returns enrollment metadata only. Salts and sequence
// hashes never leave the database.
func (h *AdminHandler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := h.adminSvc.ListCredentials()
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list credentials", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"credentials": creds})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id64, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	uid := uint(id64)
	if err := h.adminSvc.DeleteUser(uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to delete user", nil)
		return
	}
	observability.Audit(r, "admin.user.deleted", "target_user_id", uid)
	response.JSON(w, r, http.StatusOK, map[string]any{"user_id": uid, "status": "deleted"})
}
