package http

import (
	"net/http"

	"github.com/nischalstumbeti/contestzen/internal/application"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req application.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "register", err)
		return
	}
	participant, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "register", err)
		return
	}
	writeSuccess(w, http.StatusCreated, participant)
}

func (h *Handler) generateOTP(w http.ResponseWriter, r *http.Request) {
	var req application.GenerateOTPRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "generate_otp", err)
		return
	}
	res, err := h.service.GenerateOTP(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "generate_otp", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req application.VerifyOTPRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "verify_otp", err)
		return
	}
	req.IPAddress = readIP(r)
	req.UserAgent = r.UserAgent()

	res, err := h.service.VerifyOTP(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "verify_otp", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) participantLogin(w http.ResponseWriter, r *http.Request) {
	var req application.MagicLinkRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "participant_login", err)
		return
	}
	res, err := h.service.RequestMagicLink(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "participant_login", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

// magicLinkCallback redirects the browser. Failures go to the default redirect with an error
// code when one is configured, otherwise they are answered as JSON.
func (h *Handler) magicLinkCallback(w http.ResponseWriter, r *http.Request) {
	target, err := h.service.CompleteMagicLink(r.Context(), application.MagicLinkCallback{
		Token:     r.URL.Query().Get("token"),
		IPAddress: readIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		status, code, _ := mapDomainError(err)
		fallback := h.service.FailureRedirect(code)
		if fallback == "" {
			writeMappedError(r.Context(), w, "magic_link_callback", err)
			return
		}
		logRejected(r.Context(), "magic_link_callback", status, code, err)
		http.Redirect(w, r, fallback, http.StatusFound)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req application.AdminLoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "admin_login", err)
		return
	}
	req.IPAddress = readIP(r)
	req.UserAgent = r.UserAgent()

	res, err := h.service.AdminLogin(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "admin_login", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	if err := h.service.Logout(r.Context(), principal); err != nil {
		writeMappedError(r.Context(), w, "logout", err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	res, err := h.service.RefreshToken(r.Context(), principal)
	if err != nil {
		writeMappedError(r.Context(), w, "refresh_token", err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeSuccess(w, http.StatusOK, res)
}
