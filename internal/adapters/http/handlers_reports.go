package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Analytics(r.Context(), queryInt(r, "days", 0))
	if err != nil {
		writeMappedError(r.Context(), w, "analytics", err)
		return
	}
	writeSuccess(w, http.StatusOK, snapshot)
}

// exportUsers buffers the workbook so a failed export still yields a JSON error.
func (h *Handler) exportUsers(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportUsers(r.Context(), &buf); err != nil {
		writeMappedError(r.Context(), w, "export_users", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.service.ExportFileName()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
