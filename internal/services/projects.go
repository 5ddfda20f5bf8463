package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/keyz-man/changelogai-app/internal/changelog"
	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/logging"
	"github.com/keyz-man/changelogai-app/internal/models"
	"github.com/keyz-man/changelogai-app/internal/store"
)

// UnnamedProject is used when neither the caller nor the repository
// provides a name.
const UnnamedProject = "Unnamed Project"

// CreateProjectRequest is the input for registering a repository.
type CreateProjectRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	RepositoryURL string `json:"repositoryUrl" validate:"required"`
}

// ProjectDetail is a project together with its changelogs, newest first.
type ProjectDetail struct {
	Project    *models.Project     `json:"project"`
	Changelogs []*models.Changelog `json:"changelogs"`
}

// CommitSelection is the result of filtering a project's commits by window.
// FromDate and ToDate are empty when the project has no commits and no
// window was given.
type CommitSelection struct {
	Commits  []models.Commit `json:"commits"`
	FromDate string          `json:"fromDate"`
	ToDate   string          `json:"toDate"`
}

// ProjectService manages the project lifecycle.
type ProjectService struct {
	store  store.Store
	source CommitSource
	log    *logging.Logger
}

// NewProjectService creates a ProjectService.
func NewProjectService(s store.Store, source CommitSource) *ProjectService {
	return &ProjectService{
		store:  s,
		source: source,
		log:    logging.Get().With(map[string]interface{}{"component": "projects"}),
	}
}

// Create imports a repository. Details and commits are fetched concurrently
// and either failure aborts the import.
func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest) (*models.Project, error) {
	url := strings.TrimSpace(req.RepositoryURL)
	if url == "" {
		return nil, apperrors.Validation("Repository URL is required")
	}

	var (
		details *models.RepositoryDetails
		commits []models.Commit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		details, err = s.source.FetchRepositoryDetails(gctx, url)
		return err
	})
	g.Go(func() (err error) {
		commits, err = s.source.FetchCommits(gctx, url)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("project import failed", err, map[string]interface{}{"repository_url": url})
		return nil, err
	}
	if details == nil {
		details = &models.RepositoryDetails{}
	}

	project, err := s.store.AddProject(ctx, models.ProjectDraft{
		Name:          firstNonEmpty(req.Name, details.Name, UnnamedProject),
		Description:   firstNonEmpty(req.Description, details.Description),
		RepositoryURL: url,
		Commits:       commits,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("project imported", map[string]interface{}{
		"project_id": project.ID.String(),
		"commits":    len(project.Commits),
	})
	return project, nil
}

// List returns all projects, newest first.
func (s *ProjectService) List(ctx context.Context) ([]*models.Project, error) {
	return s.store.GetProjects(ctx)
}

// Get returns a project and its changelogs.
func (s *ProjectService) Get(ctx context.Context, id models.UUID) (*ProjectDetail, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	changelogs, err := s.store.GetProjectChangelogs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProjectDetail{Project: project, Changelogs: changelogs}, nil
}

// Delete removes a project and its changelogs.
func (s *ProjectService) Delete(ctx context.Context, id models.UUID) error {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.log.Info("project deleted", map[string]interface{}{"project_id": id.String()})
	return nil
}

// Commits returns the project's commits inside [from, to], newest first.
// When both dates are empty the window suggested by the commit history is
// used.
func (s *ProjectService) Commits(ctx context.Context, id models.UUID, from, to string) (*CommitSelection, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if from == "" && to == "" {
		w, ok := changelog.SuggestWindow(project.Commits)
		if !ok {
			return &CommitSelection{Commits: []models.Commit{}}, nil
		}
		return &CommitSelection{Commits: changelog.SelectCommits(project.Commits, w), FromDate: w.From, ToDate: w.To}, nil
	}

	w, err := changelog.NewWindow(from, to)
	if err != nil {
		return nil, err
	}
	return &CommitSelection{Commits: changelog.SelectCommits(project.Commits, w), FromDate: w.From, ToDate: w.To}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
