package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/domain"
)

func (h *Handler) adminListUsers(w http.ResponseWriter, r *http.Request) {
	page := parseIntDefault(r.URL.Query().Get("page"), 1)
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)

	res, err := h.service.AdminListUsers(r.Context(), page, limit)
	if err != nil {
		writeMappedError(r.Context(), w, "admin_list_users", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) adminGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "admin_get_user", domain.ErrUserNotFound)
		return
	}

	res, err := h.service.AdminGetUser(r.Context(), userID)
	if err != nil {
		writeMappedError(r.Context(), w, "admin_get_user", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "admin_delete_user", domain.ErrUserNotFound)
		return
	}

	if err := h.service.AdminDeleteUser(r.Context(), userID); err != nil {
		writeMappedError(r.Context(), w, "admin_delete_user", err)
		return
	}
	writeMessage(w, http.StatusOK, "User deactivated")
}

func (h *Handler) adminLockUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "admin_lock_user", domain.ErrUserNotFound)
		return
	}

	if err := h.service.AdminLockUser(r.Context(), userID); err != nil {
		writeMappedError(r.Context(), w, "admin_lock_user", err)
		return
	}
	writeMessage(w, http.StatusOK, "User locked")
}

func (h *Handler) adminUnlockUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "admin_unlock_user", domain.ErrUserNotFound)
		return
	}

	if err := h.service.AdminUnlockUser(r.Context(), userID); err != nil {
		writeMappedError(r.Context(), w, "admin_unlock_user", err)
		return
	}
	writeMessage(w, http.StatusOK, "User unlocked")
}
