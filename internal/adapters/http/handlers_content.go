package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nischalstumbeti/contestzen/internal/application"
)

func (h *Handler) listFormFields(w http.ResponseWriter, r *http.Request) {
	h.writeFormFields(w, r, "list_form_fields", true)
}

func (h *Handler) listAllFormFields(w http.ResponseWriter, r *http.Request) {
	h.writeFormFields(w, r, "list_all_form_fields", false)
}

func (h *Handler) writeFormFields(w http.ResponseWriter, r *http.Request, operation string, activeOnly bool) {
	fields, err := h.service.ListFormFields(r.Context(), activeOnly)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, fields)
}

func (h *Handler) createFormField(w http.ResponseWriter, r *http.Request) {
	var in application.FormFieldInput
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(r.Context(), w, "create_form_field", err)
		return
	}
	field, err := h.service.CreateFormField(r.Context(), in)
	if err != nil {
		writeMappedError(r.Context(), w, "create_form_field", err)
		return
	}
	writeSuccess(w, http.StatusCreated, field)
}

func (h *Handler) updateFormField(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "update_form_field", err)
		return
	}
	var in application.FormFieldInput
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(r.Context(), w, "update_form_field", err)
		return
	}
	field, err := h.service.UpdateFormField(r.Context(), id, in)
	if err != nil {
		writeMappedError(r.Context(), w, "update_form_field", err)
		return
	}
	writeSuccess(w, http.StatusOK, field)
}

func (h *Handler) deleteFormField(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "delete_form_field", err)
		return
	}
	if err := h.service.DeleteFormField(r.Context(), id); err != nil {
		writeMappedError(r.Context(), w, "delete_form_field", err)
		return
	}
	writeMessage(w, http.StatusOK, "Form field deleted")
}

func (h *Handler) listPublishedCMS(w http.ResponseWriter, r *http.Request) {
	h.writeCMSList(w, r, "list_published_cms", true)
}

func (h *Handler) listAllCMS(w http.ResponseWriter, r *http.Request) {
	h.writeCMSList(w, r, "list_all_cms", false)
}

func (h *Handler) writeCMSList(w http.ResponseWriter, r *http.Request, operation string, publishedOnly bool) {
	items, err := h.service.ListCMS(r.Context(), publishedOnly)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *Handler) getPublishedCMS(w http.ResponseWriter, r *http.Request) {
	h.writeCMS(w, r, "get_published_cms", true)
}

func (h *Handler) getAnyCMS(w http.ResponseWriter, r *http.Request) {
	h.writeCMS(w, r, "get_cms", false)
}

func (h *Handler) writeCMS(w http.ResponseWriter, r *http.Request, operation string, publishedOnly bool) {
	content, err := h.service.GetCMS(r.Context(), chi.URLParam(r, "slug"), publishedOnly)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, content)
}

func (h *Handler) createCMS(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	var in application.CMSInput
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(r.Context(), w, "create_cms", err)
		return
	}
	content, err := h.service.CreateCMS(r.Context(), principal.SubjectID, in)
	if err != nil {
		writeMappedError(r.Context(), w, "create_cms", err)
		return
	}
	writeSuccess(w, http.StatusCreated, content)
}

func (h *Handler) updateCMS(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	var in application.CMSInput
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(r.Context(), w, "update_cms", err)
		return
	}
	content, err := h.service.UpdateCMS(r.Context(), principal.SubjectID, chi.URLParam(r, "slug"), in)
	if err != nil {
		writeMappedError(r.Context(), w, "update_cms", err)
		return
	}
	writeSuccess(w, http.StatusOK, content)
}

func (h *Handler) deleteCMS(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCMS(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeMappedError(r.Context(), w, "delete_cms", err)
		return
	}
	writeMessage(w, http.StatusOK, "Content deleted")
}

func (h *Handler) listPublishedAnnouncements(w http.ResponseWriter, r *http.Request) {
	h.writeAnnouncements(w, r, "list_published_announcements", true)
}

func (h *Handler) listAllAnnouncements(w http.ResponseWriter, r *http.Request) {
	h.writeAnnouncements(w, r, "list_all_announcements", false)
}

func (h *Handler) writeAnnouncements(w http.ResponseWriter, r *http.Request, operation string, publishedOnly bool) {
	items, err := h.service.ListAnnouncements(r.Context(), publishedOnly,
		queryInt(r, "page", 1),
		queryInt(r, "limit", 20),
	)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *Handler) getPublishedAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_announcement", err)
		return
	}
	item, err := h.service.GetAnnouncement(r.Context(), id, true)
	if err != nil {
		writeMappedError(r.Context(), w, "get_announcement", err)
		return
	}
	writeSuccess(w, http.StatusOK, item)
}

func (h *Handler) createAnnouncement(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	var in application.AnnouncementInput
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(r.Context(), w, "create_announcement", err)
		return
	}
	item, err := h.service.CreateAnnouncement(r.Context(), principal.SubjectID, in)
	if err != nil {
		writeMappedError(r.Context(), w, "create_announcement", err)
		return
	}
	writeSuccess(w, http.StatusCreated, item)
}

func (h *Handler) updateAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "update_announcement", err)
		return
	}
	var in application.AnnouncementInput
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(r.Context(), w, "update_announcement", err)
		return
	}
	item, err := h.service.UpdateAnnouncement(r.Context(), id, in)
	if err != nil {
		writeMappedError(r.Context(), w, "update_announcement", err)
		return
	}
	writeSuccess(w, http.StatusOK, item)
}

func (h *Handler) deleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "delete_announcement", err)
		return
	}
	if err := h.service.DeleteAnnouncement(r.Context(), id); err != nil {
		writeMappedError(r.Context(), w, "delete_announcement", err)
		return
	}
	writeMessage(w, http.StatusOK, "Announcement deleted")
}
