package services

import (
	"context"
	"strings"
	"time"

	"github.com/keyz-man/changelogai-app/internal/changelog"
	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/llm"
	"github.com/keyz-man/changelogai-app/internal/logging"
	"github.com/keyz-man/changelogai-app/internal/models"
	"github.com/keyz-man/changelogai-app/internal/store"
	"github.com/keyz-man/changelogai-app/internal/telemetry"
)

// GenerateRequest selects the commits a changelog is generated from.
type GenerateRequest struct {
	ProjectID models.UUID `json:"projectId" validate:"required"`
	CommitIDs []string    `json:"commitIds" validate:"required,min=1,dive,required"`
	FromDate  string      `json:"fromDate" validate:"required"`
	ToDate    string      `json:"toDate" validate:"required"`
	// Manual skips the model and lists the commits verbatim.
	Manual bool `json:"manual"`
}

// ChangelogService runs the generation pipeline and manages saved
// changelogs.
type ChangelogService struct {
	store     store.Store
	generator llm.Generator
	metrics   *telemetry.Metrics
	log       *logging.Logger
}

// NewChangelogService creates a ChangelogService. generator may be nil, in
// which case Generate reports a configuration error.
func NewChangelogService(s store.Store, generator llm.Generator, metrics *telemetry.Metrics) *ChangelogService {
	return &ChangelogService{
		store:     s,
		generator: generator,
		metrics:   metrics,
		log:       logging.Get().With(map[string]interface{}{"component": "changelogs"}),
	}
}

// Generate builds a prompt from the selected commits, calls the generator
// and coerces its reply. Nothing is persisted.
func (s *ChangelogService) Generate(ctx context.Context, req GenerateRequest) (*models.GeneratedChangelog, error) {
	project, commits, err := s.selection(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, apperrors.Configuration("No text generation provider is configured")
	}

	prompt := changelog.BuildPrompt(project, commits, req.FromDate, req.ToDate)
	provider := providerOf(s.generator)

	start := time.Now()
	raw, err := s.generator.Generate(ctx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.RecordGeneration(provider, "error", elapsed)
		s.log.Error("changelog generation failed", err, map[string]interface{}{
			"project_id": project.ID.String(),
			"provider":   provider,
			"commits":    len(commits),
		})
		return nil, err
	}

	result := changelog.Coerce(raw)
	s.metrics.RecordGeneration(provider, string(result.Outcome), elapsed)
	s.metrics.RecordCoercion(string(result.Outcome))
	s.log.Info("changelog generated", map[string]interface{}{
		"project_id":  project.ID.String(),
		"provider":    provider,
		"commits":     len(commits),
		"outcome":     string(result.Outcome),
		"duration_ms": elapsed.Milliseconds(),
	})
	return result.Generated(), nil
}

// Draft builds a changelog without a model: the default title and one
// bullet per selected commit.
func (s *ChangelogService) Draft(ctx context.Context, req GenerateRequest) (*models.GeneratedChangelog, error) {
	_, commits, err := s.selection(ctx, req)
	if err != nil {
		return nil, err
	}
	return &models.GeneratedChangelog{
		Title:   models.DefaultTitle,
		Content: changelog.FormatCommitList(commits),
		Outcome: models.OutcomeManual,
	}, nil
}

// Run dispatches to Draft or Generate according to req.Manual.
func (s *ChangelogService) Run(ctx context.Context, req GenerateRequest) (*models.GeneratedChangelog, error) {
	if req.Manual {
		return s.Draft(ctx, req)
	}
	return s.Generate(ctx, req)
}

// selection validates req and returns the project with the requested
// commits in project order.
func (s *ChangelogService) selection(ctx context.Context, req GenerateRequest) (*models.Project, []models.Commit, error) {
	if strings.TrimSpace(string(req.ProjectID)) == "" {
		return nil, nil, apperrors.Validation("Project ID is required")
	}
	if len(req.CommitIDs) == 0 {
		return nil, nil, apperrors.Validation("At least one commit ID is required")
	}
	if err := models.ValidateDateRange(req.FromDate, req.ToDate); err != nil {
		return nil, nil, err
	}

	project, err := s.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	wanted := make(map[string]bool, len(req.CommitIDs))
	for _, id := range req.CommitIDs {
		wanted[id] = true
	}
	commits := make([]models.Commit, 0, len(wanted))
	for _, c := range project.Commits {
		if wanted[c.ID] {
			commits = append(commits, c)
			delete(wanted, c.ID)
		}
	}
	for _, id := range req.CommitIDs {
		if wanted[id] {
			return nil, nil, apperrors.NotFound("Commit %s not found in project %s", id, project.ID)
		}
	}
	return project, commits, nil
}

// Save persists a changelog for an existing project.
func (s *ChangelogService) Save(ctx context.Context, draft models.ChangelogDraft) (*models.Changelog, error) {
	cl, err := s.store.AddChangelog(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.log.Info("changelog saved", map[string]interface{}{
		"changelog_id": cl.ID.String(),
		"project_id":   cl.ProjectID.String(),
		"version":      cl.Version,
	})
	return cl, nil
}

// List returns the changelogs of a project, newest first.
func (s *ChangelogService) List(ctx context.Context, projectID models.UUID) ([]*models.Changelog, error) {
	if strings.TrimSpace(string(projectID)) == "" {
		return nil, apperrors.Validation("Project ID is required")
	}
	return s.store.GetProjectChangelogs(ctx, projectID)
}

// All returns every changelog, newest first.
func (s *ChangelogService) All(ctx context.Context) ([]*models.Changelog, error) {
	return s.store.GetChangelogs(ctx)
}

// Get returns a changelog.
func (s *ChangelogService) Get(ctx context.Context, id models.UUID) (*models.Changelog, error) {
	return s.store.GetChangelog(ctx, id)
}

// Delete removes a changelog. Its project is kept.
func (s *ChangelogService) Delete(ctx context.Context, id models.UUID) error {
	return s.store.DeleteChangelog(ctx, id)
}

// Export renders a saved changelog as Markdown with front matter.
func (s *ChangelogService) Export(ctx context.Context, id models.UUID) (*models.Changelog, []byte, error) {
	cl, err := s.store.GetChangelog(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	project, err := s.store.GetProject(ctx, cl.ProjectID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, err
	}

	data, err := changelog.ExportMarkdown(cl, project)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternal, "failed to export changelog", err)
	}
	return cl, data, nil
}

func providerOf(g llm.Generator) string {
	if p, ok := g.(interface{ Provider() llm.Provider }); ok {
		return string(p.Provider())
	}
	return "custom"
}
