package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
)

// getSetting and putSetting serve every settings document the same way.
func getSetting[T any](operation string, get func(context.Context) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := get(r.Context())
		if err != nil {
			writeMappedError(r.Context(), w, operation, err)
			return
		}
		writeSuccess(w, http.StatusOK, value)
	}
}

func putSetting[T any](operation string, put func(context.Context, uuid.UUID, T) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := principalFromContext(r.Context())
		var in T
		if err := decodeBody(r, &in); err != nil {
			writeValidationError(r.Context(), w, operation, err)
			return
		}
		value, err := put(r.Context(), principal.SubjectID, in)
		if err != nil {
			writeMappedError(r.Context(), w, operation, err)
			return
		}
		writeSuccess(w, http.StatusOK, value)
	}
}

func (h *Handler) getRegistrationControl(w http.ResponseWriter, r *http.Request) {
	getSetting[domain.RegistrationControl]("get_registration_control", h.service.RegistrationControl)(w, r)
}

func (h *Handler) putRegistrationControl(w http.ResponseWriter, r *http.Request) {
	putSetting[domain.RegistrationControl]("put_registration_control", h.service.UpdateRegistrationControl)(w, r)
}

func (h *Handler) getSubmissionControl(w http.ResponseWriter, r *http.Request) {
	getSetting[domain.SubmissionControl]("get_submission_control", h.service.SubmissionControl)(w, r)
}

func (h *Handler) putSubmissionControl(w http.ResponseWriter, r *http.Request) {
	putSetting[domain.SubmissionControl]("put_submission_control", h.service.UpdateSubmissionControl)(w, r)
}

func (h *Handler) getBranding(w http.ResponseWriter, r *http.Request) {
	getSetting[domain.Branding]("get_branding", h.service.Branding)(w, r)
}

func (h *Handler) putBranding(w http.ResponseWriter, r *http.Request) {
	putSetting[domain.Branding]("put_branding", h.service.UpdateBranding)(w, r)
}

func (h *Handler) getEnhancedBranding(w http.ResponseWriter, r *http.Request) {
	getSetting[domain.EnhancedBranding]("get_enhanced_branding", h.service.EnhancedBranding)(w, r)
}

func (h *Handler) putEnhancedBranding(w http.ResponseWriter, r *http.Request) {
	putSetting[domain.EnhancedBranding]("put_enhanced_branding", h.service.UpdateEnhancedBranding)(w, r)
}
