package github

import (
	"net/url"
	"strings"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
)

// scpPrefix is the host part of git@github.com:owner/repo.
const scpPrefix = "github.com:"

var githubHosts = map[string]bool{
	"github.com":     true,
	"www.github.com": true,
}

// repoPath returns the path after the host when raw addresses github.com,
// either as a URL or in scp form.
func repoPath(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if !strings.Contains(s, "://") {
		if _, rest, ok := strings.Cut(s, "@"); ok && strings.HasPrefix(rest, scpPrefix) {
			return strings.TrimPrefix(rest, scpPrefix), true
		}
		if !strings.HasPrefix(s, "github.com/") && !strings.HasPrefix(s, "www.github.com/") {
			return "", false
		}
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "http", "https", "ssh", "git":
	default:
		return "", false
	}
	if !githubHosts[strings.ToLower(u.Hostname())] {
		return "", false
	}
	return strings.TrimPrefix(u.Path, "/"), true
}

// IsGitHubURL reports whether the URL points at github.com.
func IsGitHubURL(raw string) bool {
	_, ok := repoPath(raw)
	return ok
}

// ParseRepoURL extracts owner and repository from
// https://github.com/<owner>/<repo>[.git][/...] and git@github.com:<owner>/<repo>[.git].
func ParseRepoURL(raw string) (owner, repo string, err error) {
	p, ok := repoPath(raw)
	if !ok {
		return "", "", invalidURL()
	}

	p, _, _ = strings.Cut(p, "?")
	p, _, _ = strings.Cut(p, "#")
	parts := strings.Split(p, "/")
	if len(parts) < 2 {
		return "", "", invalidURL()
	}

	owner = parts[0]
	repo = strings.TrimSuffix(parts[1], ".git")
	if owner == "" || repo == "" {
		return "", "", invalidURL()
	}
	return owner, repo, nil
}

func invalidURL() error {
	return apperrors.Validation("Invalid GitHub repository URL")
}
