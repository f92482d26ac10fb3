package http

import (
	"net/http"
	"time"

	"github.com/advancedlearning/oauthd/internal/oauth/store"
	"github.com/advancedlearning/oauthd/pkg/httpx"
	"github.com/advancedlearning/oauthd/pkg/jwtx"
)

// LivezHandler reports process liveness.
func LivezHandler(startTime time.Time, version string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"version": version,
			"uptime":  time.Since(startTime).String(),
		})
	})
}

// ReadyzHandler reports readiness: database reachable and at least one
// verification key loaded.
func ReadyzHandler(st store.Store, keys *jwtx.KeySet) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"keys":     "ok",
		}
		healthy := true

		if err := st.Ping(r.Context()); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
		if !keys.IsReady() {
			checks["keys"] = "no verification key loaded"
			healthy = false
		}

		status := http.StatusOK
		state := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "unavailable"
		}
		httpx.WriteJSON(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	})
}
