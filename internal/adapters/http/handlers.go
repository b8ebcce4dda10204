package http

import (
	"context"
	"net/http"
	"time"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

// readyz fails when any registered dependency check fails.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for _, check := range h.readiness {
		if err := check.Check(ctx); err != nil {
			failed[check.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		logRejected(r.Context(), "readyz", http.StatusServiceUnavailable, "NOT_READY", nil)
		writeErrorDetails(w, http.StatusServiceUnavailable, "NOT_READY", "dependency unavailable", failed)
		return
	}
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) jwks(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.PublicJWKs()
	if err != nil {
		writeMappedError(r.Context(), w, "jwks", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"keys": keys})
}
