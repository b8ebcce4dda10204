package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type successEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type messageEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func respond(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	respond(w, statusCode, successEnvelope{Status: "success", Data: data})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	respond(w, statusCode, messageEnvelope{Status: "success", Message: message})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	respond(w, statusCode, errorEnvelope{Status: "error", Code: code, Message: message})
}

func writeErrorDetails(w http.ResponseWriter, statusCode int, code, message string, details any) {
	respond(w, statusCode, errorEnvelope{Status: "error", Code: code, Message: message, Details: details})
}

// requestLogger tags every line with the request id and, once authenticated, the caller.
func requestLogger(ctx context.Context) *slog.Logger {
	logger := slog.Default().With("service", "contestzen-api", "module", "http", "layer", "adapter")
	if id := requestIDFromContext(ctx); id != "" {
		logger = logger.With("request_id", id)
	}
	if p, ok := principalFromContext(ctx); ok {
		logger = logger.With("subject_kind", string(p.SubjectKind), "subject_id", p.SubjectID.String())
	}
	return logger
}

func logRejected(ctx context.Context, operation string, statusCode int, code string, err error) {
	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	attrs := []any{"operation", operation, "outcome", "failure", "status_code", statusCode, "error_code", code}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	requestLogger(ctx).Log(ctx, level, "request rejected", attrs...)
}
