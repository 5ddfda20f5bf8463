package store

import (
	"context"
	"sync"

	"github.com/keyz-man/changelogai-app/internal/models"
	"github.com/keyz-man/changelogai-app/internal/uuid"
)

// MemoryStore keeps all data in process memory. Records are kept in
// insertion order and listed in reverse.
type MemoryStore struct {
	mu         sync.RWMutex
	projects   []*models.Project
	changelogs []*models.Changelog
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) GetProjects(ctx context.Context) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Project, 0, len(s.projects))
	for i := len(s.projects) - 1; i >= 0; i-- {
		out = append(out, s.projects[i].Clone())
	}
	return out, nil
}

func (s *MemoryStore) GetProject(ctx context.Context, id models.UUID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.findProject(id); p != nil {
		return p.Clone(), nil
	}
	return nil, ErrProjectNotFound(id)
}

func (s *MemoryStore) AddProject(ctx context.Context, draft models.ProjectDraft) (*models.Project, error) {
	if err := ValidateProjectDraft(draft); err != nil {
		return nil, err
	}

	p := &models.Project{
		ID:            uuid.NewID(),
		Name:          draft.Name,
		Description:   draft.Description,
		RepositoryURL: draft.RepositoryURL,
		Commits:       append([]models.Commit{}, draft.Commits...),
		CreatedAt:     Now(),
	}

	s.mu.Lock()
	s.projects = append(s.projects, p)
	s.mu.Unlock()

	return p.Clone(), nil
}

func (s *MemoryStore) DeleteProject(ctx context.Context, id models.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.projects {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrProjectNotFound(id)
	}
	s.projects = append(s.projects[:idx], s.projects[idx+1:]...)

	kept := s.changelogs[:0]
	for _, c := range s.changelogs {
		if c.ProjectID != id {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(s.changelogs); i++ {
		s.changelogs[i] = nil
	}
	s.changelogs = kept
	return nil
}

func (s *MemoryStore) GetChangelogs(ctx context.Context) ([]*models.Changelog, error) {
	return s.listChangelogs(func(*models.Changelog) bool { return true }), nil
}

func (s *MemoryStore) GetProjectChangelogs(ctx context.Context, projectID models.UUID) ([]*models.Changelog, error) {
	return s.listChangelogs(func(c *models.Changelog) bool { return c.ProjectID == projectID }), nil
}

func (s *MemoryStore) GetChangelog(ctx context.Context, id models.UUID) (*models.Changelog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.changelogs {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return nil, ErrChangelogNotFound(id)
}

func (s *MemoryStore) AddChangelog(ctx context.Context, draft models.ChangelogDraft) (*models.Changelog, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findProject(draft.ProjectID) == nil {
		return nil, ErrProjectNotFound(draft.ProjectID)
	}

	c := &models.Changelog{
		ID:        uuid.NewID(),
		ProjectID: draft.ProjectID,
		Title:     draft.Title,
		Version:   draft.Version,
		Content:   draft.Content,
		FromDate:  draft.FromDate,
		ToDate:    draft.ToDate,
		CreatedAt: Now(),
	}
	s.changelogs = append(s.changelogs, c)
	return c.Clone(), nil
}

func (s *MemoryStore) DeleteChangelog(ctx context.Context, id models.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.changelogs {
		if c.ID == id {
			s.changelogs = append(s.changelogs[:i], s.changelogs[i+1:]...)
			return nil
		}
	}
	return ErrChangelogNotFound(id)
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.projects = nil
	s.changelogs = nil
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// findProject must be called with s.mu held.
func (s *MemoryStore) findProject(id models.UUID) *models.Project {
	for _, p := range s.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *MemoryStore) listChangelogs(keep func(*models.Changelog) bool) []*models.Changelog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Changelog, 0)
	for i := len(s.changelogs) - 1; i >= 0; i-- {
		if keep(s.changelogs[i]) {
			out = append(out, s.changelogs[i].Clone())
		}
	}
	return out
}

// snapshot returns deep copies of the current state in insertion order.
func (s *MemoryStore) snapshot() ([]*models.Project, []*models.Changelog) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]*models.Project, len(s.projects))
	for i, p := range s.projects {
		projects[i] = p.Clone()
	}
	changelogs := make([]*models.Changelog, len(s.changelogs))
	for i, c := range s.changelogs {
		changelogs[i] = c.Clone()
	}
	return projects, changelogs
}

// restore replaces the state with the given records, in insertion order.
func (s *MemoryStore) restore(projects []*models.Project, changelogs []*models.Changelog) {
	s.mu.Lock()
	s.projects = projects
	s.changelogs = changelogs
	s.mu.Unlock()
}
