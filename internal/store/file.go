package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/models"
)

const fileFormatVersion = 1

// document is the on-disk layout of the file backend. Records are in
// insertion order.
type document struct {
	Version    int                 `json:"version"`
	Projects   []*models.Project   `json:"projects"`
	Changelogs []*models.Changelog `json:"changelogs"`
}

// FileStore is a MemoryStore that writes its state to a JSON file after
// every mutation. A failed write rolls the in-memory state back.
type FileStore struct {
	mu   sync.Mutex // serializes mutation and persist
	mem  *MemoryStore
	path string
}

var _ Store = (*FileStore)(nil)

// OpenFileStore loads path, or starts empty when the file does not exist.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, apperrors.Configuration("store.file_path is required for the file backend")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.Store("failed to create data directory", err)
		}
	}

	s := &FileStore{mem: NewMemoryStore(), path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, apperrors.Store("failed to read store file", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Store("store file is corrupt", err)
	}
	s.mem.restore(doc.Projects, doc.Changelogs)
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) GetProjects(ctx context.Context) ([]*models.Project, error) {
	return s.mem.GetProjects(ctx)
}

func (s *FileStore) GetProject(ctx context.Context, id models.UUID) (*models.Project, error) {
	return s.mem.GetProject(ctx, id)
}

func (s *FileStore) AddProject(ctx context.Context, draft models.ProjectDraft) (*models.Project, error) {
	var p *models.Project
	err := s.mutate(func() (err error) {
		p, err = s.mem.AddProject(ctx, draft)
		return err
	})
	return p, err
}

func (s *FileStore) DeleteProject(ctx context.Context, id models.UUID) error {
	return s.mutate(func() error { return s.mem.DeleteProject(ctx, id) })
}

func (s *FileStore) GetChangelogs(ctx context.Context) ([]*models.Changelog, error) {
	return s.mem.GetChangelogs(ctx)
}

func (s *FileStore) GetProjectChangelogs(ctx context.Context, projectID models.UUID) ([]*models.Changelog, error) {
	return s.mem.GetProjectChangelogs(ctx, projectID)
}

func (s *FileStore) GetChangelog(ctx context.Context, id models.UUID) (*models.Changelog, error) {
	return s.mem.GetChangelog(ctx, id)
}

func (s *FileStore) AddChangelog(ctx context.Context, draft models.ChangelogDraft) (*models.Changelog, error) {
	var c *models.Changelog
	err := s.mutate(func() (err error) {
		c, err = s.mem.AddChangelog(ctx, draft)
		return err
	})
	return c, err
}

func (s *FileStore) DeleteChangelog(ctx context.Context, id models.UUID) error {
	return s.mutate(func() error { return s.mem.DeleteChangelog(ctx, id) })
}

func (s *FileStore) Reset(ctx context.Context) error {
	return s.mutate(func() error { return s.mem.Reset(ctx) })
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, changelogs := s.mem.snapshot()
	if err := fn(); err != nil {
		return err
	}
	if err := s.persist(); err != nil {
		s.mem.restore(projects, changelogs)
		return err
	}
	return nil
}

// persist writes to a temp file in the same directory and renames it over
// the target so readers never see a partial document.
func (s *FileStore) persist() error {
	projects, changelogs := s.mem.snapshot()
	data, err := json.MarshalIndent(document{
		Version:    fileFormatVersion,
		Projects:   projects,
		Changelogs: changelogs,
	}, "", "  ")
	if err != nil {
		return apperrors.Store("failed to encode store file", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".changelogai-*.json")
	if err != nil {
		return apperrors.Store("failed to write store file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.Store("failed to write store file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.Store("failed to write store file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return apperrors.Store("failed to replace store file", err)
	}
	return nil
}
