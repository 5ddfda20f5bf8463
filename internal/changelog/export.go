package changelog

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/keyz-man/changelogai-app/internal/models"
)

// frontMatter is the YAML header of an exported changelog.
type frontMatter struct {
	Title      string `yaml:"title"`
	Version    string `yaml:"version"`
	Project    string `yaml:"project,omitempty"`
	Repository string `yaml:"repository,omitempty"`
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	Created    string `yaml:"created"`
}

// ExportMarkdown renders a changelog as a Markdown document with YAML front
// matter. project may be nil.
func ExportMarkdown(cl *models.Changelog, project *models.Project) ([]byte, error) {
	fm := frontMatter{
		Title:   cl.Title,
		Version: cl.Version,
		From:    cl.FromDate,
		To:      cl.ToDate,
		Created: cl.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if project != nil {
		fm.Project = project.Name
		fm.Repository = project.RepositoryURL
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	fmt.Fprintf(&buf, "# %s\n\n", cl.Title)
	buf.WriteString(cl.Content)
	if n := len(cl.Content); n == 0 || cl.Content[n-1] != '\n' {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}
