package listing

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

// NewHandler serves lister over HTTP using the same route and response shape
// as the Directory Listing Service, for local development.
func NewHandler(lister Lister, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+ListRoute, func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSpace(r.URL.Query().Get("path"))
		if path == "" {
			writeError(w, http.StatusBadRequest, "Path cannot be empty.")
			return
		}

		entries, err := lister.List(r.Context(), path)
		if err != nil {
			status := statusFor(err)
			logger.Warn("listing failed", "path", path, "status", status, "err", err)
			writeError(w, status, err.Error())
			return
		}

		logger.Debug("listing served", "path", path, "entries", len(entries))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entries)
	})
	return mux
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, fs.ErrPermission), errors.Is(err, ErrOutsideRoot):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(listErrorResponse{Message: msg})
}
