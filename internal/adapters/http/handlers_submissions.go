package http

import (
	"net/http"

	"github.com/nischalstumbeti/contestzen/internal/application"
)

func (h *Handler) mySubmission(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	sub, err := h.service.MySubmission(r.Context(), principal)
	if err != nil {
		writeMappedError(r.Context(), w, "my_submission", err)
		return
	}
	writeSuccess(w, http.StatusOK, sub)
}

func (h *Handler) createSubmission(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	var req application.CreateSubmissionRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_submission", err)
		return
	}
	sub, err := h.service.CreateSubmission(r.Context(), principal, req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_submission", err)
		return
	}
	writeSuccess(w, http.StatusCreated, sub)
}

func (h *Handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.service.ListSubmissions(r.Context(), application.SubmissionListQuery{
		Status: q.Get("status"),
		Type:   q.Get("type"),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "list_submissions", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) getSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_submission", err)
		return
	}
	sub, err := h.service.GetSubmission(r.Context(), id)
	if err != nil {
		writeMappedError(r.Context(), w, "get_submission", err)
		return
	}
	writeSuccess(w, http.StatusOK, sub)
}

func (h *Handler) updateSubmission(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "update_submission", err)
		return
	}
	var req application.UpdateSubmissionRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_submission", err)
		return
	}
	sub, err := h.service.UpdateSubmission(r.Context(), principal.SubjectID, id, req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_submission", err)
		return
	}
	writeSuccess(w, http.StatusOK, sub)
}
