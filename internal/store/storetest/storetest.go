// Package storetest holds the behavioural contract shared by every
// store.Store backend.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/models"
	"github.com/keyz-man/changelogai-app/internal/store"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run executes the contract suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"AddProject", testAddProject},
		{"AddProjectValidation", testAddProjectValidation},
		{"GetProjectNotFound", testGetProjectNotFound},
		{"ProjectsNewestFirst", testProjectsNewestFirst},
		{"ReturnsCopies", testReturnsCopies},
		{"DeleteProjectCascades", testDeleteProjectCascades},
		{"DeleteProjectNotFound", testDeleteProjectNotFound},
		{"AddChangelog", testAddChangelog},
		{"AddChangelogUnknownProject", testAddChangelogUnknownProject},
		{"AddChangelogValidation", testAddChangelogValidation},
		{"ChangelogsNewestFirst", testChangelogsNewestFirst},
		{"DeleteChangelog", testDeleteChangelog},
		{"Reset", testReset},
		{"ConcurrentWrites", testConcurrentWrites},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { s.Close() })
			tt.fn(t, s)
		})
	}
}

// SampleCommits returns three commits with distinct days, newest first.
func SampleCommits() []models.Commit {
	return []models.Commit{
		{ID: "c3", Message: "feat: add export", Author: "Ada", Date: time.Date(2024, 3, 12, 9, 30, 0, 0, time.UTC)},
		{ID: "c2", Message: "fix: handle empty repo\n\nDetails here.", Author: "Grace", Date: time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)},
		{ID: "c1", Message: "chore: initial commit", Author: "Ada", Date: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
	}
}

// ProjectDraft returns a valid draft carrying SampleCommits.
func ProjectDraft(name string) models.ProjectDraft {
	return models.ProjectDraft{
		Name:          name,
		Description:   "A sample project",
		RepositoryURL: "https://github.com/acme/" + name,
		Commits:       SampleCommits(),
	}
}

// ChangelogDraft returns a valid draft for projectID.
func ChangelogDraft(projectID models.UUID, version string) models.ChangelogDraft {
	return models.ChangelogDraft{
		ProjectID: projectID,
		Title:     "Release " + version,
		Version:   version,
		Content:   "## Features\n\n- Export",
		FromDate:  "2024-03-01",
		ToDate:    "2024-03-12",
	}
}

func testAddProject(t *testing.T, s store.Store) {
	ctx := context.Background()

	p, err := s.AddProject(ctx, ProjectDraft("widget"))
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, "widget", p.Name)

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "A sample project", got.Description)
	assert.Equal(t, "https://github.com/acme/widget", got.RepositoryURL)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt), "created at %v, stored %v", p.CreatedAt, got.CreatedAt)

	want := SampleCommits()
	require.Len(t, got.Commits, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got.Commits[i].ID)
		assert.Equal(t, want[i].Message, got.Commits[i].Message)
		assert.Equal(t, want[i].Author, got.Commits[i].Author)
		assert.True(t, want[i].Date.Equal(got.Commits[i].Date), "commit %s date %v", want[i].ID, got.Commits[i].Date)
	}
}

func testAddProjectValidation(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.AddProject(ctx, models.ProjectDraft{RepositoryURL: "https://github.com/acme/x"})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation), "got %v", err)

	_, err = s.AddProject(ctx, models.ProjectDraft{Name: "x"})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation), "got %v", err)

	projects, err := s.GetProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func testGetProjectNotFound(t *testing.T, s store.Store) {
	_, err := s.GetProject(context.Background(), "00000000-0000-4000-8000-000000000000")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound), "got %v", err)
}

func testProjectsNewestFirst(t *testing.T, s store.Store) {
	ctx := context.Background()

	var ids []models.UUID
	for _, name := range []string{"first", "second", "third"} {
		p, err := s.AddProject(ctx, ProjectDraft(name))
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	projects, err := s.GetProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, ids[2], projects[0].ID)
	assert.Equal(t, ids[1], projects[1].ID)
	assert.Equal(t, ids[0], projects[2].ID)
	assert.Len(t, projects[0].Commits, 3)
}

func testReturnsCopies(t *testing.T, s store.Store) {
	ctx := context.Background()

	p, err := s.AddProject(ctx, ProjectDraft("widget"))
	require.NoError(t, err)
	p.Name = "mutated"
	p.Commits[0].Message = "mutated"

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "widget", got.Name)
	assert.Equal(t, "feat: add export", got.Commits[0].Message)
}

func testDeleteProjectCascades(t *testing.T, s store.Store) {
	ctx := context.Background()

	doomed, err := s.AddProject(ctx, ProjectDraft("doomed"))
	require.NoError(t, err)
	kept, err := s.AddProject(ctx, ProjectDraft("kept"))
	require.NoError(t, err)

	_, err = s.AddChangelog(ctx, ChangelogDraft(doomed.ID, "1.0.0"))
	require.NoError(t, err)
	_, err = s.AddChangelog(ctx, ChangelogDraft(doomed.ID, "1.1.0"))
	require.NoError(t, err)
	keptLog, err := s.AddChangelog(ctx, ChangelogDraft(kept.ID, "2.0.0"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteProject(ctx, doomed.ID))

	_, err = s.GetProject(ctx, doomed.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	orphans, err := s.GetProjectChangelogs(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	all, err := s.GetChangelogs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keptLog.ID, all[0].ID)
}

func testDeleteProjectNotFound(t *testing.T, s store.Store) {
	err := s.DeleteProject(context.Background(), "00000000-0000-4000-8000-000000000000")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound), "got %v", err)
}

func testAddChangelog(t *testing.T, s store.Store) {
	ctx := context.Background()

	p, err := s.AddProject(ctx, ProjectDraft("widget"))
	require.NoError(t, err)

	c, err := s.AddChangelog(ctx, ChangelogDraft(p.ID, "1.0.0"))
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := s.GetChangelog(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ProjectID)
	assert.Equal(t, "Release 1.0.0", got.Title)
	assert.Equal(t, "1.0.0", got.Version)
	assert.Equal(t, "## Features\n\n- Export", got.Content)
	assert.Equal(t, "2024-03-01", got.FromDate)
	assert.Equal(t, "2024-03-12", got.ToDate)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))

	_, err = s.GetChangelog(ctx, "00000000-0000-4000-8000-000000000000")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func testAddChangelogUnknownProject(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.AddChangelog(ctx, ChangelogDraft("00000000-0000-4000-8000-000000000000", "1.0.0"))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound), "got %v", err)

	all, err := s.GetChangelogs(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testAddChangelogValidation(t *testing.T, s store.Store) {
	ctx := context.Background()

	p, err := s.AddProject(ctx, ProjectDraft("widget"))
	require.NoError(t, err)

	draft := ChangelogDraft(p.ID, "1.0.0")
	draft.Title = ""
	_, err = s.AddChangelog(ctx, draft)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation), "got %v", err)

	draft = ChangelogDraft(p.ID, "1.0.0")
	draft.FromDate, draft.ToDate = "2024-03-12", "2024-03-01"
	_, err = s.AddChangelog(ctx, draft)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation), "got %v", err)
}

func testChangelogsNewestFirst(t *testing.T, s store.Store) {
	ctx := context.Background()

	a, err := s.AddProject(ctx, ProjectDraft("a"))
	require.NoError(t, err)
	b, err := s.AddProject(ctx, ProjectDraft("b"))
	require.NoError(t, err)

	first, err := s.AddChangelog(ctx, ChangelogDraft(a.ID, "1.0.0"))
	require.NoError(t, err)
	second, err := s.AddChangelog(ctx, ChangelogDraft(b.ID, "1.0.0"))
	require.NoError(t, err)
	third, err := s.AddChangelog(ctx, ChangelogDraft(a.ID, "1.1.0"))
	require.NoError(t, err)

	all, err := s.GetChangelogs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []models.UUID{third.ID, second.ID, first.ID},
		[]models.UUID{all[0].ID, all[1].ID, all[2].ID})

	forA, err := s.GetProjectChangelogs(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, third.ID, forA[0].ID)
	assert.Equal(t, first.ID, forA[1].ID)
}

func testDeleteChangelog(t *testing.T, s store.Store) {
	ctx := context.Background()

	p, err := s.AddProject(ctx, ProjectDraft("widget"))
	require.NoError(t, err)
	c, err := s.AddChangelog(ctx, ChangelogDraft(p.ID, "1.0.0"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteChangelog(ctx, c.ID))
	_, err = s.GetChangelog(ctx, c.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	err = s.DeleteChangelog(ctx, c.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound), "second delete: %v", err)

	_, err = s.GetProject(ctx, p.ID)
	assert.NoError(t, err, "deleting a changelog must keep its project")
}

func testReset(t *testing.T, s store.Store) {
	ctx := context.Background()

	p, err := s.AddProject(ctx, ProjectDraft("widget"))
	require.NoError(t, err)
	_, err = s.AddChangelog(ctx, ChangelogDraft(p.ID, "1.0.0"))
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	projects, err := s.GetProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
	changelogs, err := s.GetChangelogs(ctx)
	require.NoError(t, err)
	assert.Empty(t, changelogs)

	_, err = s.AddProject(ctx, ProjectDraft("again"))
	assert.NoError(t, err, "store must stay usable after reset")
}

func testConcurrentWrites(t *testing.T, s store.Store) {
	ctx := context.Background()

	p, err := s.AddProject(ctx, ProjectDraft("widget"))
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddChangelog(ctx, ChangelogDraft(p.ID, "1.0.0"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	all, err := s.GetProjectChangelogs(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, all, n)
}
