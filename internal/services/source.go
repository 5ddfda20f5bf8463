// Package services coordinates the commit sources, the store and the
// generation client into the project and changelog use cases.
package services

import (
	"context"
	"strings"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/github"
	"github.com/keyz-man/changelogai-app/internal/models"
	"github.com/keyz-man/changelogai-app/internal/telemetry"
)

// CommitSource retrieves the commit history and metadata of a repository.
type CommitSource interface {
	FetchCommits(ctx context.Context, repositoryURL string) ([]models.Commit, error)
	FetchRepositoryDetails(ctx context.Context, repositoryURL string) (*models.RepositoryDetails, error)
}

// Source names used in metrics and logs.
const (
	SourceGitHub = "github"
	SourceGit    = "git"
)

// SourceRouter sends GitHub URLs to the GitHub API and everything else to
// the git transport. Either source may be nil; without a git transport only
// GitHub URLs are accepted.
type SourceRouter struct {
	github  CommitSource
	git     CommitSource
	metrics *telemetry.Metrics
}

var _ CommitSource = (*SourceRouter)(nil)

// NewSourceRouter creates a router.
func NewSourceRouter(github, git CommitSource, metrics *telemetry.Metrics) *SourceRouter {
	return &SourceRouter{github: github, git: git, metrics: metrics}
}

// Route returns the source responsible for repositoryURL and its name.
func (r *SourceRouter) Route(repositoryURL string) (string, CommitSource, error) {
	url := strings.TrimSpace(repositoryURL)
	if url == "" {
		return "", nil, apperrors.Validation("Repository URL is required")
	}
	if github.IsGitHubURL(url) && r.github != nil {
		return SourceGitHub, r.github, nil
	}
	if r.git != nil {
		return SourceGit, r.git, nil
	}
	if _, _, err := github.ParseRepoURL(url); err != nil {
		return "", nil, err
	}
	return "", nil, apperrors.Validation("No commit source can read %s", url)
}

// FetchCommits lists the commits of repositoryURL.
func (r *SourceRouter) FetchCommits(ctx context.Context, repositoryURL string) ([]models.Commit, error) {
	name, src, err := r.Route(repositoryURL)
	if err != nil {
		return nil, err
	}
	commits, err := src.FetchCommits(ctx, repositoryURL)
	r.metrics.RecordCommitFetch(name, err)
	return commits, err
}

// FetchRepositoryDetails returns the metadata of repositoryURL.
func (r *SourceRouter) FetchRepositoryDetails(ctx context.Context, repositoryURL string) (*models.RepositoryDetails, error) {
	_, src, err := r.Route(repositoryURL)
	if err != nil {
		return nil, err
	}
	return src.FetchRepositoryDetails(ctx, repositoryURL)
}
