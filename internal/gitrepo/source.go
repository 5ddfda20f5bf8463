// Package gitrepo reads commit history directly over the git protocol, for
// repositories that are not hosted on GitHub or are checked out locally.
package gitrepo

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/memory"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/logging"
	"github.com/keyz-man/changelogai-app/internal/models"
)

// DefaultMaxCommits matches the GitHub source's page size.
const DefaultMaxCommits = 100

// Options controls which locations a Source accepts.
type Options struct {
	// MaxCommits caps the listed history and bounds the clone depth.
	MaxCommits int
	// AllowLocal accepts directories on this machine and file:// URLs.
	AllowLocal bool
	// AllowRemote accepts http(s), ssh and git URLs, cloned into memory.
	AllowRemote bool
}

// Source lists commits from a local working copy or a clonable URL.
// Remote repositories are shallow-cloned into memory and discarded after use.
type Source struct {
	maxCommits  int
	allowLocal  bool
	allowRemote bool
}

// NewSource creates a Source. A zero MaxCommits uses DefaultMaxCommits.
func NewSource(opts Options) *Source {
	if opts.MaxCommits <= 0 {
		opts.MaxCommits = DefaultMaxCommits
	}
	return &Source{
		maxCommits:  opts.MaxCommits,
		allowLocal:  opts.AllowLocal,
		allowRemote: opts.AllowRemote,
	}
}

var scpURL = regexp.MustCompile(`^[\w.-]+@[\w.-]+:[\w./~-]+$`)

// isRemoteURL reports whether location is a URL git can clone over the network.
func isRemoteURL(location string) bool {
	if scpURL.MatchString(location) {
		return true
	}
	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ssh", "git":
		return true
	}
	return false
}

// check rejects locations the Source is not allowed to read.
func (s *Source) check(location string) error {
	if location == "" {
		return apperrors.Validation("Repository URL is required")
	}
	if IsLocalPath(location) || strings.HasPrefix(location, "file://") {
		if !s.allowLocal {
			return apperrors.Validation("Local repository paths are not accepted")
		}
		return nil
	}
	if !isRemoteURL(location) {
		return apperrors.Validation("Invalid repository URL")
	}
	if !s.allowRemote {
		return apperrors.Validation("Only GitHub repositories are accepted")
	}
	return nil
}

// IsLocalPath reports whether location is an existing directory.
func IsLocalPath(location string) bool {
	info, err := os.Stat(location)
	return err == nil && info.IsDir()
}

// FetchCommits lists commits reachable from HEAD, newest first by committer time.
func (s *Source) FetchCommits(ctx context.Context, location string) ([]models.Commit, error) {
	repo, err := s.open(ctx, location)
	if err != nil {
		return nil, err
	}

	iter, err := repo.Log(&git.LogOptions{Order: git.LogOrderCommitterTime})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			// No commits yet.
			return []models.Commit{}, nil
		}
		return nil, apperrors.CommitSource(0, "failed to read git history", err)
	}
	defer iter.Close()

	commits := make([]models.Commit, 0, s.maxCommits)
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, models.Commit{
			ID:      c.Hash.String(),
			Message: strings.TrimRight(c.Message, "\n"),
			Author:  c.Author.Name,
			Date:    c.Author.When,
		})
		if len(commits) >= s.maxCommits {
			return storer.ErrStop
		}
		return nil
	})
	if errors.Is(err, plumbing.ErrObjectNotFound) && len(commits) > 0 {
		// Reached the shallow boundary of a clone.
		return commits, nil
	}
	if err != nil {
		return nil, apperrors.CommitSource(0, "failed to read git history", err)
	}
	return commits, nil
}

// FetchRepositoryDetails derives a name from the location. Local paths are
// opened to confirm they are repositories; remote URLs are not contacted.
func (s *Source) FetchRepositoryDetails(ctx context.Context, location string) (*models.RepositoryDetails, error) {
	location = strings.TrimSpace(location)
	if err := s.check(location); err != nil {
		return nil, err
	}

	if IsLocalPath(location) {
		if _, err := s.open(ctx, location); err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(location)
		if err != nil {
			abs = location
		}
		return &models.RepositoryDetails{
			Name:     filepath.Base(abs),
			FullName: abs,
			URL:      location,
		}, nil
	}

	trimmed := strings.TrimSuffix(strings.TrimRight(location, "/"), ".git")
	if !strings.Contains(trimmed, "://") {
		// scp-like git@host:owner/name
		trimmed = strings.Replace(trimmed, ":", "/", 1)
	}
	name := path.Base(trimmed)
	fullName := name
	if parent := path.Base(path.Dir(trimmed)); parent != "." && parent != "/" && !strings.Contains(parent, ".") {
		fullName = parent + "/" + name
	}
	return &models.RepositoryDetails{
		Name:     name,
		FullName: fullName,
		URL:      location,
	}, nil
}

func (s *Source) open(ctx context.Context, location string) (*git.Repository, error) {
	location = strings.TrimSpace(location)
	if err := s.check(location); err != nil {
		return nil, err
	}

	if IsLocalPath(location) {
		repo, err := git.PlainOpenWithOptions(location, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			if errors.Is(err, git.ErrRepositoryNotExists) {
				return nil, apperrors.Validation("Not a git repository: %s", location)
			}
			return nil, apperrors.CommitSource(0, "failed to open repository", err)
		}
		return repo, nil
	}

	logging.Debug("Cloning repository into memory", map[string]interface{}{"url": location})
	// One extra level so the walker can load the parents of the last listed commit.
	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
		URL:          location,
		Tags:         git.NoTags,
		SingleBranch: true,
		Depth:        s.maxCommits + 1,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, apperrors.CommitSource(404, "repository not found: "+location, err)
		}
		return nil, apperrors.CommitSource(0, "failed to clone repository", err)
	}
	return repo, nil
}
