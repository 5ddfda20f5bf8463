package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/keyz-man/changelogai-app/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// ExcerptLength is the rune limit of changelog excerpts on project pages.
const ExcerptLength = 200

var pageNames = []string{"index", "project", "changelog", "error"}

// Page carries the fields the layout needs.
type Page struct {
	Subtitle string
	Year     int
}

// ProjectCard is one entry of the project index.
type ProjectCard struct {
	ID          models.UUID
	Name        string
	Description string
	Changelogs  int
	CreatedAt   time.Time
}

// IndexPage lists projects, optionally filtered by name.
type IndexPage struct {
	Page
	Query    string
	Projects []ProjectCard
}

// ChangelogCard is one entry of a project page.
type ChangelogCard struct {
	*models.Changelog
	Excerpt string
}

// ProjectPage shows a project and its changelogs.
type ProjectPage struct {
	Page
	Project    *models.Project
	Changelogs []ChangelogCard
}

// ChangelogPage shows one changelog rendered as HTML.
type ChangelogPage struct {
	Page
	Changelog *models.Changelog
	Project   *models.Project
	Body      template.HTML
}

// ErrorPage reports a failed page request.
type ErrorPage struct {
	Page
	Status  string
	Message string
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
	now   func() time.Time
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string { return t.UTC().Format("Jan 2, 2006") },
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages, now: time.Now}, nil
}

func (r *Renderer) page(subtitle string) Page {
	return Page{Subtitle: subtitle, Year: r.now().Year()}
}

// render executes into a buffer first so a template error never leaves a
// half-written page.
func (r *Renderer) render(w io.Writer, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := r.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s page: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// FilterProjects keeps projects whose name contains query, ignoring case.
// An empty query keeps everything.
func FilterProjects(projects []*models.Project, query string) []*models.Project {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return projects
	}
	out := make([]*models.Project, 0, len(projects))
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}

// Index renders the project list. changelogs are used for per-project counts.
func (r *Renderer) Index(w io.Writer, projects []*models.Project, changelogs []*models.Changelog, query string) error {
	counts := make(map[models.UUID]int)
	for _, c := range changelogs {
		counts[c.ProjectID]++
	}

	data := IndexPage{Page: r.page("Browse Projects"), Query: strings.TrimSpace(query)}
	for _, p := range FilterProjects(projects, query) {
		data.Projects = append(data.Projects, ProjectCard{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Changelogs:  counts[p.ID],
			CreatedAt:   p.CreatedAt,
		})
	}
	return r.render(w, "index", data)
}

// Project renders a project with excerpts of its changelogs.
func (r *Renderer) Project(w io.Writer, project *models.Project, changelogs []*models.Changelog) error {
	data := ProjectPage{Page: r.page("Project Changelogs"), Project: project}
	for _, c := range changelogs {
		data.Changelogs = append(data.Changelogs, ChangelogCard{Changelog: c, Excerpt: Excerpt(c.Content, ExcerptLength)})
	}
	return r.render(w, "project", data)
}

// Changelog renders one changelog. project may be nil.
func (r *Renderer) Changelog(w io.Writer, cl *models.Changelog, project *models.Project) error {
	body, err := MarkdownToHTML(cl.Content)
	if err != nil {
		return err
	}
	return r.render(w, "changelog", ChangelogPage{
		Page:      r.page("Changelog Details"),
		Changelog: cl,
		Project:   project,
		Body:      body,
	})
}

// Error renders an error page for status.
func (r *Renderer) Error(w io.Writer, status int, message string) error {
	return r.render(w, "error", ErrorPage{
		Page:    r.page(""),
		Status:  fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Message: message,
	})
}
