// Package store defines the persistence contract for projects and
// changelogs and provides the in-memory and JSON file backends. The SQLite
// backend lives in internal/db.
package store

import (
	"context"
	"time"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/models"
)

// Store persists projects and changelogs. Implementations are safe for
// concurrent use and return copies that callers may modify freely.
// Listings are ordered newest first.
type Store interface {
	GetProjects(ctx context.Context) ([]*models.Project, error)
	// GetProject returns a NOT_FOUND error when id is unknown.
	GetProject(ctx context.Context, id models.UUID) (*models.Project, error)
	// AddProject assigns the id and creation time.
	AddProject(ctx context.Context, draft models.ProjectDraft) (*models.Project, error)
	// DeleteProject also deletes every changelog of the project.
	DeleteProject(ctx context.Context, id models.UUID) error

	GetChangelogs(ctx context.Context) ([]*models.Changelog, error)
	GetProjectChangelogs(ctx context.Context, projectID models.UUID) ([]*models.Changelog, error)
	GetChangelog(ctx context.Context, id models.UUID) (*models.Changelog, error)
	// AddChangelog returns a NOT_FOUND error when the project does not exist.
	AddChangelog(ctx context.Context, draft models.ChangelogDraft) (*models.Changelog, error)
	DeleteChangelog(ctx context.Context, id models.UUID) error

	// Reset removes all data.
	Reset(ctx context.Context) error
	Close() error
}

// Backend names accepted by store.backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// ErrProjectNotFound and ErrChangelogNotFound are returned by every backend.
func ErrProjectNotFound(id models.UUID) error {
	return apperrors.NotFound("Project %s not found", id)
}

func ErrChangelogNotFound(id models.UUID) error {
	return apperrors.NotFound("Changelog %s not found", id)
}

// ValidateProjectDraft checks the fields every backend requires.
func ValidateProjectDraft(d models.ProjectDraft) error {
	if d.Name == "" {
		return apperrors.Validation("Project name is required")
	}
	if d.RepositoryURL == "" {
		return apperrors.Validation("Repository URL is required")
	}
	return nil
}

// Now returns the creation timestamp used by the backends, truncated to
// the millisecond precision the SQLite backend stores.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
