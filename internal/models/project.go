// Package models provides data model definitions for ChangelogAI.
package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// UUID is a wrapper around string for UUID v4 type safety.
type UUID string

// Value implements driver.Valuer for UUID.
func (u UUID) Value() (driver.Value, error) {
	return string(u), nil
}

// Scan implements sql.Scanner for UUID.
func (u *UUID) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*u = ""
	case []byte:
		*u = UUID(v)
	case string:
		*u = UUID(v)
	default:
		return fmt.Errorf("cannot scan %T into UUID", value)
	}
	return nil
}

// String returns the string representation of the UUID.
func (u UUID) String() string {
	return string(u)
}

// Commit is one entry of a repository's history. Immutable once imported.
type Commit struct {
	ID      string    `db:"id" json:"id"`
	Message string    `db:"message" json:"message"`
	Author  string    `db:"author" json:"author"`
	Date    time.Time `db:"committed_at" json:"date"`
}

// TableName returns the table name for Commit.
func (Commit) TableName() string {
	return "commits"
}

// Project is a tracked repository together with the commits imported from it.
type Project struct {
	ID            UUID      `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	RepositoryURL string    `db:"repository_url" json:"repositoryUrl"`
	Commits       []Commit  `db:"-" json:"commits"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// TableName returns the table name for Project.
func (Project) TableName() string {
	return "projects"
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.Commits = make([]Commit, len(p.Commits))
	copy(c.Commits, p.Commits)
	return &c
}

// ProjectDraft is the input for creating a project.
type ProjectDraft struct {
	Name          string
	Description   string
	RepositoryURL string
	Commits       []Commit
}

// RepositoryDetails is the metadata a commit source reports for a repository.
type RepositoryDetails struct {
	Name        string `json:"name"`
	FullName    string `json:"fullName"`
	Description string `json:"description"`
	URL         string `json:"url"`
}
