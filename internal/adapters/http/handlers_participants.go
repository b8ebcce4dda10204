package http

import (
	"net/http"

	"github.com/nischalstumbeti/contestzen/internal/application"
)

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	participant, err := h.service.GetParticipant(r.Context(), principal.SubjectID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_me", err)
		return
	}
	writeSuccess(w, http.StatusOK, participant)
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	var patch application.ProfilePatch
	if err := decodeBody(r, &patch); err != nil {
		writeValidationError(r.Context(), w, "update_me", err)
		return
	}
	participant, err := h.service.UpdateMyProfile(r.Context(), principal, patch)
	if err != nil {
		writeMappedError(r.Context(), w, "update_me", err)
		return
	}
	writeSuccess(w, http.StatusOK, participant)
}

func (h *Handler) listParticipants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.service.ListParticipants(r.Context(), application.ParticipantListQuery{
		Search:      q.Get("search"),
		ContestType: q.Get("contest_type"),
		Page:        queryInt(r, "page", 1),
		Limit:       queryInt(r, "limit", 20),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "list_participants", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) getParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_participant", err)
		return
	}
	participant, err := h.service.GetParticipant(r.Context(), id)
	if err != nil {
		writeMappedError(r.Context(), w, "get_participant", err)
		return
	}
	writeSuccess(w, http.StatusOK, participant)
}

func (h *Handler) updateParticipant(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "update_participant", err)
		return
	}
	var patch application.ParticipantPatch
	if err := decodeBody(r, &patch); err != nil {
		writeValidationError(r.Context(), w, "update_participant", err)
		return
	}
	participant, err := h.service.UpdateParticipant(r.Context(), principal.SubjectID, id, patch)
	if err != nil {
		writeMappedError(r.Context(), w, "update_participant", err)
		return
	}
	writeSuccess(w, http.StatusOK, participant)
}

func (h *Handler) listMutations(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeValidationError(r.Context(), w, "list_mutations", err)
		return
	}
	items, err := h.service.ListMutations(r.Context(), id,
		queryInt(r, "page", 1),
		queryInt(r, "limit", 20),
	)
	if err != nil {
		writeMappedError(r.Context(), w, "list_mutations", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"mutations": items})
}
