package github

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
)

// mockHTTPClient is a test double for HTTPClient.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func respond(status int, body string) func(req *http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
		}, nil
	}
}

// TestFetchCommits tests mapping of the commits endpoint.
func TestFetchCommits(t *testing.T) {
	responseBody := `[
		{"sha": "abc123", "commit": {"message": "Add feature", "author": {"name": "bob", "date": "2024-01-05T10:00:00Z"}}},
		{"sha": "def456", "commit": {"message": "Fix bug", "author": {"name": "alice", "date": "2024-01-01T09:30:00Z"}}}
	]`

	mockHTTP := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			if got := req.URL.String(); got != "https://api.github.com/repos/acme/widget/commits?per_page=100" {
				t.Errorf("URL = %s", got)
			}
			if req.Header.Get("Accept") != "application/vnd.github+json" {
				t.Errorf("Accept = %q", req.Header.Get("Accept"))
			}
			if req.Header.Get("Authorization") != "" {
				t.Error("Authorization should not be set without a token")
			}
			return respond(http.StatusOK, responseBody)(req)
		},
	}

	client := NewClient(Config{}, mockHTTP)

	commits, err := client.FetchCommits(context.Background(), "https://github.com/acme/widget")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(commits))
	}
	if commits[0].ID != "abc123" || commits[0].Message != "Add feature" || commits[0].Author != "bob" {
		t.Errorf("unexpected first commit: %+v", commits[0])
	}
	if !commits[1].Date.Equal(time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected date: %v", commits[1].Date)
	}
}

// TestFetchCommits_tokenAndPerPage tests optional settings reach the request.
func TestFetchCommits_tokenAndPerPage(t *testing.T) {
	mockHTTP := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "Bearer ghp_test" {
				t.Errorf("Authorization = %q", req.Header.Get("Authorization"))
			}
			if req.URL.Query().Get("per_page") != "30" {
				t.Errorf("per_page = %q", req.URL.Query().Get("per_page"))
			}
			if req.URL.Host != "ghe.example.com" {
				t.Errorf("host = %q", req.URL.Host)
			}
			return respond(http.StatusOK, `[]`)(req)
		},
	}

	client := NewClient(Config{BaseURL: "https://ghe.example.com/api/v3/", Token: "ghp_test", PerPage: 30}, mockHTTP)

	commits, err := client.FetchCommits(context.Background(), "git@github.com:acme/widget.git")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(commits) != 0 {
		t.Errorf("expected no commits, got %d", len(commits))
	}
}

// TestFetchCommits_invalidURL tests no request is made for unparseable URLs.
func TestFetchCommits_invalidURL(t *testing.T) {
	mockHTTP := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			t.Error("no request expected")
			return nil, nil
		},
	}

	client := NewClient(Config{}, mockHTTP)

	_, err := client.FetchCommits(context.Background(), "https://gitlab.com/acme/widget")
	if !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

// TestFetchCommits_apiError tests upstream failures carry their status.
func TestFetchCommits_apiError(t *testing.T) {
	client := NewClient(Config{}, &mockHTTPClient{doFunc: respond(http.StatusNotFound, `{"message": "Not Found"}`)})

	_, err := client.FetchCommits(context.Background(), "https://github.com/acme/missing")

	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code != apperrors.ErrCommitSource {
		t.Fatalf("expected COMMIT_SOURCE_FAILED, got %v", err)
	}
	if appErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", appErr.Status)
	}
	if appErr.Message != "GitHub API responded with status 404: Not Found" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
}

// TestFetchCommits_transportError tests network failures.
func TestFetchCommits_transportError(t *testing.T) {
	client := NewClient(Config{}, &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}})

	_, err := client.FetchCommits(context.Background(), "https://github.com/acme/widget")
	if !apperrors.Is(err, apperrors.ErrCommitSource) {
		t.Errorf("expected COMMIT_SOURCE_FAILED, got %v", err)
	}
}

// TestFetchRepositoryDetails tests repository metadata mapping.
func TestFetchRepositoryDetails(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		wantDescription string
	}{
		{
			name:            "with description",
			body:            `{"name": "widget", "full_name": "acme/widget", "description": "Widgets", "html_url": "https://github.com/acme/widget"}`,
			wantDescription: "Widgets",
		},
		{
			name:            "null description",
			body:            `{"name": "widget", "full_name": "acme/widget", "description": null, "html_url": "https://github.com/acme/widget"}`,
			wantDescription: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockHTTP := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
				if req.URL.Path != "/repos/acme/widget" {
					t.Errorf("path = %s", req.URL.Path)
				}
				return respond(http.StatusOK, tt.body)(req)
			}}

			details, err := NewClient(Config{}, mockHTTP).FetchRepositoryDetails(context.Background(), "https://github.com/acme/widget.git")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if details.Name != "widget" || details.FullName != "acme/widget" || details.URL != "https://github.com/acme/widget" {
				t.Errorf("unexpected details: %+v", details)
			}
			if details.Description != tt.wantDescription {
				t.Errorf("description = %q, want %q", details.Description, tt.wantDescription)
			}
		})
	}
}
