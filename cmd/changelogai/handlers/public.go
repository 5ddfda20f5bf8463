package handlers

import (
	"bytes"
	"net/http"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/logging"
	"github.com/keyz-man/changelogai-app/internal/models"
	"github.com/keyz-man/changelogai-app/internal/render"
	"github.com/keyz-man/changelogai-app/internal/services"
)

// PublicHandler serves the read-only HTML views.
type PublicHandler struct {
	projects   *services.ProjectService
	changelogs *services.ChangelogService
	renderer   *render.Renderer
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(projects *services.ProjectService, changelogs *services.ChangelogService, renderer *render.Renderer) *PublicHandler {
	return &PublicHandler{projects: projects, changelogs: changelogs, renderer: renderer}
}

// Index handles GET /{$}?q=
func (h *PublicHandler) Index(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	changelogs, err := h.changelogs.All(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Index(&buf, projects, changelogs, r.URL.Query().Get("q")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, &buf)
}

// Project handles GET /projects/{id}
func (h *PublicHandler) Project(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "project id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	detail, err := h.projects.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Project(&buf, detail.Project, detail.Changelogs); err != nil {
		h.fail(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, &buf)
}

// Changelog handles GET /changelogs/{id}
func (h *PublicHandler) Changelog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "changelog id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	changelog, err := h.changelogs.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// The owning project only supplies the back link.
	var project *models.Project
	if detail, err := h.projects.Get(r.Context(), changelog.ProjectID); err == nil {
		project = detail.Project
	}

	var buf bytes.Buffer
	if err := h.renderer.Changelog(&buf, changelog, project); err != nil {
		h.fail(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, &buf)
}

// NotFound renders the error page for unknown public paths.
func (h *PublicHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.fail(w, r, apperrors.NotFound("Page not found"))
}

func (h *PublicHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	message := apperrors.MessageOf(err)
	if status >= http.StatusInternalServerError {
		logging.Error("page failed", err, map[string]interface{}{"path": r.URL.Path})
		message = "Something went wrong. Please try again later."
	}

	var buf bytes.Buffer
	if err := h.renderer.Error(&buf, status, message); err != nil {
		logging.Error("failed to render error page", err)
		http.Error(w, message, status)
		return
	}
	writeHTML(w, status, &buf)
}

func writeHTML(w http.ResponseWriter, status int, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
