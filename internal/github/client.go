// Package github fetches commits and repository metadata from the GitHub
// REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/models"
)

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

// DefaultPerPage is the number of commits requested, the API maximum.
const DefaultPerPage = 100

// HTTPClient interface for HTTP operations (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds GitHub client configuration.
type Config struct {
	BaseURL string
	Token   string
	PerPage int
}

// Client reads public (or token-accessible) repositories.
type Client struct {
	baseURL    string
	token      string
	perPage    int
	httpClient HTTPClient
}

// NewClient creates a new GitHub client. A nil httpClient uses a client
// with a 30 second timeout.
func NewClient(cfg Config, httpClient HTTPClient) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > DefaultPerPage {
		perPage = DefaultPerPage
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		perPage:    perPage,
		httpClient: httpClient,
	}
}

type githubCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

type githubRepository struct {
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Description *string `json:"description"`
	HTMLURL     string  `json:"html_url"`
}

// FetchCommits lists the most recent commits of the default branch, newest first.
func (c *Client) FetchCommits(ctx context.Context, repositoryURL string) ([]models.Commit, error) {
	owner, repo, err := ParseRepoURL(repositoryURL)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/repos/%s/%s/commits?per_page=%d", c.baseURL, owner, repo, c.perPage)

	var ghCommits []githubCommit
	if err := c.doRequest(ctx, url, &ghCommits); err != nil {
		return nil, err
	}

	commits := make([]models.Commit, 0, len(ghCommits))
	for _, gc := range ghCommits {
		commits = append(commits, models.Commit{
			ID:      gc.SHA,
			Message: gc.Commit.Message,
			Author:  gc.Commit.Author.Name,
			Date:    gc.Commit.Author.Date,
		})
	}
	return commits, nil
}

// FetchRepositoryDetails returns the repository's name and description.
func (c *Client) FetchRepositoryDetails(ctx context.Context, repositoryURL string) (*models.RepositoryDetails, error) {
	owner, repo, err := ParseRepoURL(repositoryURL)
	if err != nil {
		return nil, err
	}

	var ghRepo githubRepository
	if err := c.doRequest(ctx, fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo), &ghRepo); err != nil {
		return nil, err
	}

	details := &models.RepositoryDetails{
		Name:     ghRepo.Name,
		FullName: ghRepo.FullName,
		URL:      ghRepo.HTMLURL,
	}
	if ghRepo.Description != nil {
		details.Description = *ghRepo.Description
	}
	return details, nil
}

func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.CommitSource(0, "failed to create GitHub request", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.CommitSource(0, "GitHub request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := fmt.Sprintf("GitHub API responded with status %d", resp.StatusCode)
		var ghErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &ghErr) == nil && ghErr.Message != "" {
			msg += ": " + ghErr.Message
		}
		return apperrors.CommitSource(resp.StatusCode, msg, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return apperrors.CommitSource(resp.StatusCode, "failed to decode GitHub response", err)
	}
	return nil
}
