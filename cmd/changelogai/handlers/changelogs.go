package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/keyz-man/changelogai-app/internal/models"
	"github.com/keyz-man/changelogai-app/internal/services"
	"github.com/keyz-man/changelogai-app/internal/uuid"
)

// ChangelogHandler handles changelog operations and generation.
type ChangelogHandler struct {
	svc *services.ChangelogService
}

// NewChangelogHandler creates a new ChangelogHandler.
func NewChangelogHandler(svc *services.ChangelogService) *ChangelogHandler {
	return &ChangelogHandler{svc: svc}
}

// GenerateResponse is the body of a successful generation.
type GenerateResponse struct {
	Generated *models.GeneratedChangelog `json:"generated"`
	Outcome   models.Outcome             `json:"outcome"`
}

// List handles GET /api/changelogs?projectId=
func (h *ChangelogHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID != "" {
		if err := uuid.Validate("project id", projectID); err != nil {
			writeError(w, r, err)
			return
		}
	}
	changelogs, err := h.svc.List(r.Context(), models.UUID(projectID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"changelogs": changelogs})
}

// Create handles POST /api/changelogs
func (h *ChangelogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft models.ChangelogDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, r, err)
		return
	}

	changelog, err := h.svc.Save(r.Context(), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"changelog": changelog})
}

// Get handles GET /api/changelogs/{id}
func (h *ChangelogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "changelog id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	changelog, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"changelog": changelog})
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Markdown handles GET /api/changelogs/{id}/markdown
func (h *ChangelogHandler) Markdown(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "changelog id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	changelog, data, err := h.svc.Export(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	name := strings.Trim(unsafeFilename.ReplaceAllString("changelog-"+changelog.Version, "-"), "-")
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.md"`, name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Delete handles DELETE /api/changelogs/{id}
func (h *ChangelogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "changelog id")
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

// Generate handles POST /api/changelogs/generate
// The result is not saved; clients persist it with POST /api/changelogs.
func (h *ChangelogHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req services.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	generated, err := h.svc.Run(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponse{Generated: generated, Outcome: generated.Outcome})
}
