package handlers

import (
	"net/http"

	"github.com/keyz-man/changelogai-app/internal/services"
)

// ProjectHandler handles project operations.
type ProjectHandler struct {
	svc *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(svc *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// List handles GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

// Create handles POST /api/projects
// The repository is read synchronously; the response carries its commits.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	project, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"project": project})
}

// Get handles GET /api/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "project id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Delete handles DELETE /api/projects/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "project id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Commits handles GET /api/projects/{id}/commits?fromDate=&toDate=
func (h *ProjectHandler) Commits(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "project id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	sel, err := h.svc.Commits(r.Context(), id, q.Get("fromDate"), q.Get("toDate"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}
