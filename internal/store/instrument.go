package store

import (
	"context"
	"time"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/logging"
	"github.com/keyz-man/changelogai-app/internal/models"
	"github.com/keyz-man/changelogai-app/internal/telemetry"
)

// Instrumented decorates a Store with operation metrics and debug logging.
type Instrumented struct {
	next    Store
	backend string
	metrics *telemetry.Metrics
	log     *logging.Logger
}

var _ Store = (*Instrumented)(nil)

// Instrument wraps s. metrics may be nil.
func Instrument(s Store, backend string, metrics *telemetry.Metrics) *Instrumented {
	return &Instrumented{
		next:    s,
		backend: backend,
		metrics: metrics,
		log:     logging.Get().With(map[string]interface{}{"component": "store", "backend": backend}),
	}
}

// Unwrap returns the decorated store.
func (s *Instrumented) Unwrap() Store {
	return s.next
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	s.metrics.RecordStoreOperation(s.backend, op, err)

	fields := map[string]interface{}{
		"operation":   op,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	switch {
	case err == nil:
		s.log.Debug("store operation", fields)
	case apperrors.Is(err, apperrors.ErrStore) || apperrors.CodeOf(err) == apperrors.ErrInternal:
		s.log.Error("store operation failed", err, fields)
	default:
		fields["code"] = string(apperrors.CodeOf(err))
		s.log.Debug("store operation rejected", fields)
	}
}

func (s *Instrumented) GetProjects(ctx context.Context) (out []*models.Project, err error) {
	defer func(start time.Time) { s.observe("get_projects", start, err) }(time.Now())
	return s.next.GetProjects(ctx)
}

func (s *Instrumented) GetProject(ctx context.Context, id models.UUID) (out *models.Project, err error) {
	defer func(start time.Time) { s.observe("get_project", start, err) }(time.Now())
	return s.next.GetProject(ctx, id)
}

func (s *Instrumented) AddProject(ctx context.Context, draft models.ProjectDraft) (out *models.Project, err error) {
	defer func(start time.Time) { s.observe("add_project", start, err) }(time.Now())
	return s.next.AddProject(ctx, draft)
}

func (s *Instrumented) DeleteProject(ctx context.Context, id models.UUID) (err error) {
	defer func(start time.Time) { s.observe("delete_project", start, err) }(time.Now())
	return s.next.DeleteProject(ctx, id)
}

func (s *Instrumented) GetChangelogs(ctx context.Context) (out []*models.Changelog, err error) {
	defer func(start time.Time) { s.observe("get_changelogs", start, err) }(time.Now())
	return s.next.GetChangelogs(ctx)
}

func (s *Instrumented) GetProjectChangelogs(ctx context.Context, projectID models.UUID) (out []*models.Changelog, err error) {
	defer func(start time.Time) { s.observe("get_project_changelogs", start, err) }(time.Now())
	return s.next.GetProjectChangelogs(ctx, projectID)
}

func (s *Instrumented) GetChangelog(ctx context.Context, id models.UUID) (out *models.Changelog, err error) {
	defer func(start time.Time) { s.observe("get_changelog", start, err) }(time.Now())
	return s.next.GetChangelog(ctx, id)
}

func (s *Instrumented) AddChangelog(ctx context.Context, draft models.ChangelogDraft) (out *models.Changelog, err error) {
	defer func(start time.Time) { s.observe("add_changelog", start, err) }(time.Now())
	return s.next.AddChangelog(ctx, draft)
}

func (s *Instrumented) DeleteChangelog(ctx context.Context, id models.UUID) (err error) {
	defer func(start time.Time) { s.observe("delete_changelog", start, err) }(time.Now())
	return s.next.DeleteChangelog(ctx, id)
}

func (s *Instrumented) Reset(ctx context.Context) (err error) {
	defer func(start time.Time) { s.observe("reset", start, err) }(time.Now())
	return s.next.Reset(ctx)
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}
