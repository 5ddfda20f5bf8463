package handlers

import "net/http"

// ServiceName is reported by the health endpoint.
const ServiceName = "changelogai"

// Health handles GET /api/health
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": ServiceName})
}
