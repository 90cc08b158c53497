package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/application"
	"github.com/shopmesh/user-service/internal/domain"
)

func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "list_addresses", domain.ErrUnauthorized)
		return
	}

	res, err := h.service.ListAddresses(r.Context(), claims.UserID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_addresses", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) getAddress(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "get_address", domain.ErrUnauthorized)
		return
	}
	addressID, err := uuid.Parse(chi.URLParam(r, "address_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_address", domain.ErrAddressNotFound)
		return
	}

	res, err := h.service.GetAddress(r.Context(), claims.UserID, addressID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_address", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) createAddress(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "create_address", domain.ErrUnauthorized)
		return
	}

	var req application.AddressRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_address", err)
		return
	}

	res, err := h.service.CreateAddress(r.Context(), claims.UserID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_address", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "update_address", domain.ErrUnauthorized)
		return
	}
	addressID, err := uuid.Parse(chi.URLParam(r, "address_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "update_address", domain.ErrAddressNotFound)
		return
	}

	var req application.AddressRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_address", err)
		return
	}

	res, err := h.service.UpdateAddress(r.Context(), claims.UserID, addressID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_address", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "delete_address", domain.ErrUnauthorized)
		return
	}
	addressID, err := uuid.Parse(chi.URLParam(r, "address_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "delete_address", domain.ErrAddressNotFound)
		return
	}

	if err := h.service.DeleteAddress(r.Context(), claims.UserID, addressID); err != nil {
		writeMappedError(r.Context(), w, "delete_address", err)
		return
	}
	writeMessage(w, http.StatusOK, "Address deleted")
}

func (h *Handler) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "set_default_address", domain.ErrUnauthorized)
		return
	}
	addressID, err := uuid.Parse(chi.URLParam(r, "address_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "set_default_address", domain.ErrAddressNotFound)
		return
	}

	res, err := h.service.SetDefaultAddress(r.Context(), claims.UserID, addressID)
	if err != nil {
		writeMappedError(r.Context(), w, "set_default_address", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
