package handlers

import (
	"net/http"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/render"
	"github.com/keyz-man/changelogai-app/internal/services"
	"github.com/keyz-man/changelogai-app/internal/store"
	"github.com/keyz-man/changelogai-app/internal/telemetry"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Store      store.Store
	Projects   *services.ProjectService
	Changelogs *services.ChangelogService
	Prober     Prober
	Renderer   *render.Renderer
	Metrics    *telemetry.Metrics

	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath string
	// EnableReset mounts POST /api/reset.
	EnableReset bool
}

// NewRouter builds the HTTP handler for the API and the public pages.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	projects := NewProjectHandler(d.Projects)
	changelogs := NewChangelogHandler(d.Changelogs)
	ai := NewAIHandler(d.Prober)
	public := NewPublicHandler(d.Projects, d.Changelogs, d.Renderer)

	mux.HandleFunc("GET /api/health", Health)

	mux.HandleFunc("GET /api/projects", projects.List)
	mux.HandleFunc("POST /api/projects", projects.Create)
	mux.HandleFunc("GET /api/projects/{id}", projects.Get)
	mux.HandleFunc("DELETE /api/projects/{id}", projects.Delete)
	mux.HandleFunc("GET /api/projects/{id}/commits", projects.Commits)

	mux.HandleFunc("GET /api/changelogs", changelogs.List)
	mux.HandleFunc("POST /api/changelogs", changelogs.Create)
	mux.HandleFunc("POST /api/changelogs/generate", changelogs.Generate)
	mux.HandleFunc("GET /api/changelogs/{id}", changelogs.Get)
	mux.HandleFunc("GET /api/changelogs/{id}/markdown", changelogs.Markdown)
	mux.HandleFunc("DELETE /api/changelogs/{id}", changelogs.Delete)

	mux.HandleFunc("GET /api/ai/test", ai.Test)

	if d.EnableReset {
		mux.HandleFunc("POST /api/reset", NewResetHandler(d.Store).Reset)
	}
	if d.MetricsPath != "" {
		mux.Handle("GET "+d.MetricsPath, d.Metrics.Handler())
	}

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperrors.NotFound("Route %s %s not found", r.Method, r.URL.Path))
	})

	mux.HandleFunc("GET /{$}", public.Index)
	mux.HandleFunc("GET /projects/{id}", public.Project)
	mux.HandleFunc("GET /changelogs/{id}", public.Changelog)
	mux.HandleFunc("/", public.NotFound)

	return Instrument(mux, d.Metrics)
}
