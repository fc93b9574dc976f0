package api

import (
	"net/http"
	"strconv"

	"github.com/kalambet/folio/internal/storage"
)

func handleListFailures(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 500)
		failures, err := deps.Failures.ListSyncFailures(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list sync failures: %v", err)
			return
		}
		if failures == nil {
			failures = []storage.SyncFailure{}
		}
		writeJSON(w, http.StatusOK, failures)
	}
}

func handleClearFailures(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := deps.Failures.ClearSyncFailures()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to clear sync failures: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "cleared", "count": n})
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
