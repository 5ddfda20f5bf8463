package store_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/store"
	"github.com/keyz-man/changelogai-app/internal/store/storetest"
)

func TestFileStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := store.OpenFileStore(filepath.Join(t.TempDir(), "data", "changelogai.json"))
		require.NoError(t, err)
		return s
	})
}

// TestFileStore_reopen verifies state survives a restart, in order.
func TestFileStore_reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "changelogai.json")

	s, err := store.OpenFileStore(path)
	require.NoError(t, err)
	first, err := s.AddProject(ctx, storetest.ProjectDraft("first"))
	require.NoError(t, err)
	second, err := s.AddProject(ctx, storetest.ProjectDraft("second"))
	require.NoError(t, err)
	log, err := s.AddChangelog(ctx, storetest.ChangelogDraft(first.ID, "1.0.0"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := store.OpenFileStore(path)
	require.NoError(t, err)

	projects, err := reopened.GetProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, second.ID, projects[0].ID)
	assert.Equal(t, first.ID, projects[1].ID)
	assert.Len(t, projects[1].Commits, 3)

	got, err := reopened.GetChangelog(ctx, log.ID)
	require.NoError(t, err)
	assert.Equal(t, "Release 1.0.0", got.Title)
}

// TestFileStore_document verifies the on-disk layout.
func TestFileStore_document(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "changelogai.json")

	s, err := store.OpenFileStore(path)
	require.NoError(t, err)
	_, err = s.AddProject(ctx, storetest.ProjectDraft("widget"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Version  int `json:"version"`
		Projects []struct {
			Name          string `json:"name"`
			RepositoryURL string `json:"repositoryUrl"`
		} `json:"projects"`
		Changelogs []json.RawMessage `json:"changelogs"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.Version)
	require.Len(t, doc.Projects, 1)
	assert.Equal(t, "widget", doc.Projects[0].Name)
	assert.Equal(t, "https://github.com/acme/widget", doc.Projects[0].RepositoryURL)
	assert.Empty(t, doc.Changelogs)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestOpenFileStore_errors(t *testing.T) {
	_, err := store.OpenFileStore("")
	assert.True(t, apperrors.Is(err, apperrors.ErrConfiguration), "got %v", err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = store.OpenFileStore(path)
	assert.True(t, apperrors.Is(err, apperrors.ErrStore), "got %v", err)
}

// TestFileStore_rollback verifies a failed write leaves memory unchanged.
func TestFileStore_rollback(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "changelogai.json")

	s, err := store.OpenFileStore(path)
	require.NoError(t, err)
	_, err = s.AddProject(ctx, storetest.ProjectDraft("kept"))
	require.NoError(t, err)

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	_, err = s.AddProject(ctx, storetest.ProjectDraft("lost"))
	assert.True(t, apperrors.Is(err, apperrors.ErrStore), "got %v", err)

	projects, err := s.GetProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "kept", projects[0].Name)
}
