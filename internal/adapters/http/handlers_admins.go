package http

import (
	"net/http"

	"github.com/nischalstumbeti/contestzen/internal/application"
)

func (h *Handler) listAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.ListAdmins(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "list_admins", err)
		return
	}
	writeSuccess(w, http.StatusOK, admins)
}

func (h *Handler) getAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_admin", err)
		return
	}
	admin, err := h.service.GetAdmin(r.Context(), id)
	if err != nil {
		writeMappedError(r.Context(), w, "get_admin", err)
		return
	}
	writeSuccess(w, http.StatusOK, admin)
}

func (h *Handler) createAdmin(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	var req application.CreateAdminRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_admin", err)
		return
	}
	admin, err := h.service.CreateAdmin(r.Context(), principal.SubjectID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_admin", err)
		return
	}
	writeSuccess(w, http.StatusCreated, admin)
}

func (h *Handler) updateAdmin(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "update_admin", err)
		return
	}
	var req application.UpdateAdminRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_admin", err)
		return
	}
	admin, err := h.service.UpdateAdmin(r.Context(), principal.SubjectID, id, req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_admin", err)
		return
	}
	writeSuccess(w, http.StatusOK, admin)
}

func (h *Handler) deleteAdmin(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "delete_admin", err)
		return
	}
	if err := h.service.DeleteAdmin(r.Context(), principal.SubjectID, id); err != nil {
		writeMappedError(r.Context(), w, "delete_admin", err)
		return
	}
	writeMessage(w, http.StatusOK, "Admin deleted")
}
