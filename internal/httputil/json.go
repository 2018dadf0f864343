package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the JSON acknowledgment returned by form submissions.
type Envelope struct {
	Success      bool   `json:"success,omitempty"`
	TournamentID string `json:"tournament_id,omitempty"`
	RedirectURL  string `json:"redirect_url,omitempty"`
	Error        string `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	js, err := json.Marshal(data)
	if err != nil {
		InternalServerError(w, r, "Failed to encode JSON response", err)
		return
	}
	js = append(js, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(js); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write JSON response", "error", err)
	}
}

// JSONError writes {"error": msg}. Server errors are logged at error level,
// everything else at warn.
func JSONError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	attrs := append(requestAttrs(r), "status", status, "message", msg)
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		slog.WarnContext(r.Context(), "request failed", attrs...)
	}
	WriteJSON(w, r, status, Envelope{Error: msg})
}
