package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
)

// RespondJSON writes payload as JSON with status. A nil payload writes the status only.
// Check results reflect the store at the time of the request, so responses are never cached.
func RespondJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Cache-Control", "no-store")
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		logger.ErrorContext(r.Context(), "Error encoding response to JSON", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RespondError writes {"error": message} with status.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, message string) {
	RespondJSON(w, r, logger, status, map[string]string{"error": message})
}
