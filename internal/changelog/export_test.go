package changelog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/keyz-man/changelogai-app/internal/models"
)

func TestExportMarkdown(t *testing.T) {
	cl := &models.Changelog{
		ID:        "c1",
		ProjectID: "P1",
		Title:     "Release: 1.2",
		Version:   "1.2.0",
		Content:   "## Features\n- Dark mode",
		FromDate:  "2024-01-01",
		ToDate:    "2024-01-07",
		CreatedAt: day("2024-01-08T10:30:00Z"),
	}
	p := &models.Project{Name: "Widget", RepositoryURL: "https://github.com/acme/widget"}

	out, err := ExportMarkdown(cl, p)
	require.NoError(t, err)

	doc := string(out)
	require.True(t, strings.HasPrefix(doc, "---\n"))
	parts := strings.SplitN(doc, "---\n", 3)
	require.Len(t, parts, 3)

	var fm frontMatter
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.Equal(t, "Release: 1.2", fm.Title)
	assert.Equal(t, "1.2.0", fm.Version)
	assert.Equal(t, "Widget", fm.Project)
	assert.Equal(t, "https://github.com/acme/widget", fm.Repository)
	assert.Equal(t, "2024-01-01", fm.From)
	assert.Equal(t, "2024-01-07", fm.To)
	assert.Equal(t, "2024-01-08T10:30:00Z", fm.Created)

	assert.Equal(t, "\n# Release: 1.2\n\n## Features\n- Dark mode\n", parts[2])
}

func TestExportMarkdown_NoProject(t *testing.T) {
	cl := &models.Changelog{Title: "T", Version: "v", Content: "body\n", FromDate: "2024-01-01", ToDate: "2024-01-01"}

	out, err := ExportMarkdown(cl, nil)
	require.NoError(t, err)

	assert.NotContains(t, string(out), "project:")
	assert.NotContains(t, string(out), "repository:")
	assert.True(t, strings.HasSuffix(string(out), "body\n"))
	assert.False(t, strings.HasSuffix(string(out), "body\n\n"))
}
