package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/models"
	"github.com/keyz-man/changelogai-app/internal/store"
	"github.com/keyz-man/changelogai-app/internal/uuid"
)

// Repository implements store.Store on SQLite. Timestamps are stored as
// unix milliseconds, commit dates as RFC 3339 text.
type Repository struct {
	db    *sql.DB
	owner io.Closer

	// Statements are prepared on first use and cached for reuse.
	stmtCache sync.Map // map[string]*sql.Stmt
}

var _ store.Store = (*Repository)(nil)

// NewRepository creates a new Repository. The caller keeps ownership of db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// OpenStore opens dataDir, applies pending migrations and returns a
// Repository that closes the database on Close.
func OpenStore(dataDir string) (*Repository, error) {
	conn, err := Open(dataDir)
	if err != nil {
		return nil, apperrors.Store("failed to open database", err)
	}
	return migrated(conn)
}

// OpenMemoryStore is OpenStore on a private in-memory database.
func OpenMemoryStore() (*Repository, error) {
	conn, err := OpenMemory()
	if err != nil {
		return nil, apperrors.Store("failed to open database", err)
	}
	return migrated(conn)
}

func migrated(conn *DB) (*Repository, error) {
	if err := NewMigrator(conn.DB, Migrations()).Up(); err != nil {
		conn.Close()
		return nil, apperrors.Store("failed to migrate database", err)
	}
	r := NewRepository(conn.DB)
	r.owner = conn
	return r, nil
}

// PrepareStmt gets or creates a prepared statement from cache.
func (r *Repository) PrepareStmt(ctx context.Context, query string) (*sql.Stmt, error) {
	if stmt, ok := r.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	// If another goroutine already stored one, use it and close ours.
	actual, loaded := r.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}

	return stmt, nil
}

// Close closes all cached prepared statements, and the database when the
// Repository was created by OpenStore.
func (r *Repository) Close() error {
	var firstErr error
	r.stmtCache.Range(func(key, value interface{}) bool {
		if err := value.(*sql.Stmt).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.stmtCache.Delete(key)
		return true
	})
	if r.owner != nil {
		if err := r.owner.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.owner = nil
	}
	return firstErr
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// =====================================================
// Project Operations
// =====================================================

const projectColumns = `id, name, description, repository_url, created_at`

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	var createdAt int64
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.RepositoryURL, &createdAt); err != nil {
		return nil, err
	}
	p.CreatedAt = fromMillis(createdAt)
	p.Commits = []models.Commit{}
	return &p, nil
}

// GetProjects returns all projects with their commits, newest first.
func (r *Repository) GetProjects(ctx context.Context) ([]*models.Project, error) {
	stmt, err := r.PrepareStmt(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, apperrors.Store("failed to list projects", err)
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, apperrors.Store("failed to list projects", err)
	}
	projects := make([]*models.Project, 0)
	byID := make(map[models.UUID]*models.Project)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, apperrors.Store("failed to scan project", err)
		}
		projects = append(projects, p)
		byID[p.ID] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("failed to list projects", err)
	}

	commits, err := r.PrepareStmt(ctx, `
	SELECT project_id, id, message, author, committed_at
	FROM commits ORDER BY project_id, position`)
	if err != nil {
		return nil, apperrors.Store("failed to list commits", err)
	}
	crows, err := commits.QueryContext(ctx)
	if err != nil {
		return nil, apperrors.Store("failed to list commits", err)
	}
	defer crows.Close()
	for crows.Next() {
		var projectID models.UUID
		c, err := scanCommit(crows, &projectID)
		if err != nil {
			return nil, apperrors.Store("failed to scan commit", err)
		}
		if p, ok := byID[projectID]; ok {
			p.Commits = append(p.Commits, c)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, apperrors.Store("failed to list commits", err)
	}

	return projects, nil
}

// GetProject retrieves a project and its commits by ID.
func (r *Repository) GetProject(ctx context.Context, id models.UUID) (*models.Project, error) {
	stmt, err := r.PrepareStmt(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`)
	if err != nil {
		return nil, apperrors.Store("failed to get project", err)
	}

	p, err := scanProject(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProjectNotFound(id)
	}
	if err != nil {
		return nil, apperrors.Store("failed to get project", err)
	}

	if p.Commits, err = r.projectCommits(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) projectCommits(ctx context.Context, id models.UUID) ([]models.Commit, error) {
	stmt, err := r.PrepareStmt(ctx, `
	SELECT project_id, id, message, author, committed_at
	FROM commits WHERE project_id = ? ORDER BY position`)
	if err != nil {
		return nil, apperrors.Store("failed to list commits", err)
	}

	rows, err := stmt.QueryContext(ctx, id)
	if err != nil {
		return nil, apperrors.Store("failed to list commits", err)
	}
	defer rows.Close()

	commits := []models.Commit{}
	for rows.Next() {
		var projectID models.UUID
		c, err := scanCommit(rows, &projectID)
		if err != nil {
			return nil, apperrors.Store("failed to scan commit", err)
		}
		commits = append(commits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("failed to list commits", err)
	}
	return commits, nil
}

func scanCommit(rows *sql.Rows, projectID *models.UUID) (models.Commit, error) {
	var c models.Commit
	var date string
	if err := rows.Scan(projectID, &c.ID, &c.Message, &c.Author, &date); err != nil {
		return c, err
	}
	t, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return c, fmt.Errorf("invalid commit date %q: %w", date, err)
	}
	c.Date = t
	return c, nil
}

// AddProject inserts a project and its commits in one transaction.
func (r *Repository) AddProject(ctx context.Context, draft models.ProjectDraft) (*models.Project, error) {
	if err := store.ValidateProjectDraft(draft); err != nil {
		return nil, err
	}

	p := &models.Project{
		ID:            uuid.NewID(),
		Name:          draft.Name,
		Description:   draft.Description,
		RepositoryURL: draft.RepositoryURL,
		Commits:       append([]models.Commit{}, draft.Commits...),
		CreatedAt:     store.Now(),
	}

	insertProject, err := r.PrepareStmt(ctx, `
	INSERT INTO projects (`+projectColumns+`)
	VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, apperrors.Store("failed to add project", err)
	}
	insertCommit, err := r.PrepareStmt(ctx, `
	INSERT INTO commits (project_id, position, id, message, author, committed_at)
	VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, apperrors.Store("failed to add project", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.StmtContext(ctx, insertProject).ExecContext(ctx,
		p.ID, p.Name, p.Description, p.RepositoryURL, toMillis(p.CreatedAt)); err != nil {
		return nil, apperrors.Store("failed to add project", err)
	}

	commitStmt := tx.StmtContext(ctx, insertCommit)
	for i, c := range p.Commits {
		if _, err := commitStmt.ExecContext(ctx,
			p.ID, i, c.ID, c.Message, c.Author, c.Date.Format(time.RFC3339Nano)); err != nil {
			return nil, apperrors.Store("failed to add commit", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Store("failed to commit project", err)
	}
	return p.Clone(), nil
}

// DeleteProject deletes a project together with its commits and changelogs.
func (r *Repository) DeleteProject(ctx context.Context, id models.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM changelogs WHERE project_id = ?`,
		`DELETE FROM commits WHERE project_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return apperrors.Store("failed to delete project", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return apperrors.Store("failed to delete project", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return apperrors.Store("failed to delete project", err)
	} else if n == 0 {
		return store.ErrProjectNotFound(id)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Store("failed to commit delete", err)
	}
	return nil
}

// =====================================================
// Changelog Operations
// =====================================================

const changelogColumns = `id, project_id, title, version, content, from_date, to_date, created_at`

func scanChangelog(row interface{ Scan(...any) error }) (*models.Changelog, error) {
	var c models.Changelog
	var createdAt int64
	if err := row.Scan(&c.ID, &c.ProjectID, &c.Title, &c.Version, &c.Content,
		&c.FromDate, &c.ToDate, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMillis(createdAt)
	return &c, nil
}

func (r *Repository) queryChangelogs(ctx context.Context, query string, args ...interface{}) ([]*models.Changelog, error) {
	stmt, err := r.PrepareStmt(ctx, query)
	if err != nil {
		return nil, apperrors.Store("failed to list changelogs", err)
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, apperrors.Store("failed to list changelogs", err)
	}
	defer rows.Close()

	changelogs := make([]*models.Changelog, 0)
	for rows.Next() {
		c, err := scanChangelog(rows)
		if err != nil {
			return nil, apperrors.Store("failed to scan changelog", err)
		}
		changelogs = append(changelogs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("failed to list changelogs", err)
	}
	return changelogs, nil
}

// GetChangelogs returns every changelog, newest first.
func (r *Repository) GetChangelogs(ctx context.Context) ([]*models.Changelog, error) {
	return r.queryChangelogs(ctx, `
	SELECT `+changelogColumns+` FROM changelogs
	ORDER BY created_at DESC, rowid DESC`)
}

// GetProjectChangelogs returns the changelogs of one project, newest first.
func (r *Repository) GetProjectChangelogs(ctx context.Context, projectID models.UUID) ([]*models.Changelog, error) {
	return r.queryChangelogs(ctx, `
	SELECT `+changelogColumns+` FROM changelogs WHERE project_id = ?
	ORDER BY created_at DESC, rowid DESC`, projectID)
}

// GetChangelog retrieves a changelog by ID.
func (r *Repository) GetChangelog(ctx context.Context, id models.UUID) (*models.Changelog, error) {
	stmt, err := r.PrepareStmt(ctx, `SELECT `+changelogColumns+` FROM changelogs WHERE id = ?`)
	if err != nil {
		return nil, apperrors.Store("failed to get changelog", err)
	}

	c, err := scanChangelog(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrChangelogNotFound(id)
	}
	if err != nil {
		return nil, apperrors.Store("failed to get changelog", err)
	}
	return c, nil
}

// AddChangelog inserts a changelog for an existing project.
func (r *Repository) AddChangelog(ctx context.Context, draft models.ChangelogDraft) (*models.Changelog, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	c := &models.Changelog{
		ID:        uuid.NewID(),
		ProjectID: draft.ProjectID,
		Title:     draft.Title,
		Version:   draft.Version,
		Content:   draft.Content,
		FromDate:  draft.FromDate,
		ToDate:    draft.ToDate,
		CreatedAt: store.Now(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, c.ProjectID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProjectNotFound(c.ProjectID)
	}
	if err != nil {
		return nil, apperrors.Store("failed to add changelog", err)
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO changelogs (`+changelogColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.Title, c.Version, c.Content,
		c.FromDate, c.ToDate, toMillis(c.CreatedAt)); err != nil {
		return nil, apperrors.Store("failed to add changelog", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Store("failed to commit changelog", err)
	}
	return c, nil
}

// DeleteChangelog deletes a changelog by ID.
func (r *Repository) DeleteChangelog(ctx context.Context, id models.UUID) error {
	stmt, err := r.PrepareStmt(ctx, `DELETE FROM changelogs WHERE id = ?`)
	if err != nil {
		return apperrors.Store("failed to delete changelog", err)
	}

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return apperrors.Store("failed to delete changelog", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.Store("failed to delete changelog", err)
	}
	if n == 0 {
		return store.ErrChangelogNotFound(id)
	}
	return nil
}

// Reset deletes all rows. The schema is kept.
func (r *Repository) Reset(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"changelogs", "commits", "projects"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return apperrors.Store("failed to reset "+table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Store("failed to commit reset", err)
	}
	return nil
}
