package models

import (
	"strings"
	"time"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
)

// DateLayout is the calendar-date format of changelog windows.
const DateLayout = "2006-01-02"

// DefaultTitle is used when a generated response carries no usable title.
const DefaultTitle = "Changelog Update"

// Changelog is a titled, versioned document covering a date window of a project.
type Changelog struct {
	ID        UUID      `db:"id" json:"id"`
	ProjectID UUID      `db:"project_id" json:"projectId"`
	Title     string    `db:"title" json:"title"`
	Version   string    `db:"version" json:"version"`
	Content   string    `db:"content" json:"content"`
	FromDate  string    `db:"from_date" json:"fromDate"`
	ToDate    string    `db:"to_date" json:"toDate"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// TableName returns the table name for Changelog.
func (Changelog) TableName() string {
	return "changelogs"
}

// Clone returns a copy of the changelog.
func (c *Changelog) Clone() *Changelog {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// ChangelogDraft is the input for persisting a changelog.
type ChangelogDraft struct {
	ProjectID UUID   `json:"projectId" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Version   string `json:"version" validate:"required"`
	Content   string `json:"content" validate:"required"`
	FromDate  string `json:"fromDate" validate:"required"`
	ToDate    string `json:"toDate" validate:"required"`
}

// Validate checks required fields and that FromDate <= ToDate.
func (d ChangelogDraft) Validate() error {
	switch {
	case strings.TrimSpace(string(d.ProjectID)) == "":
		return apperrors.Validation("Project ID is required")
	case strings.TrimSpace(d.Title) == "":
		return apperrors.Validation("Title is required")
	case strings.TrimSpace(d.Version) == "":
		return apperrors.Validation("Version is required")
	case strings.TrimSpace(d.Content) == "":
		return apperrors.Validation("Content is required")
	}
	return ValidateDateRange(d.FromDate, d.ToDate)
}

// ValidateDateRange checks both dates are YYYY-MM-DD and from <= to.
func ValidateDateRange(from, to string) error {
	if from == "" || to == "" {
		return apperrors.Validation("Both fromDate and toDate are required")
	}
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return apperrors.Validation("Invalid fromDate %q, expected YYYY-MM-DD", from)
	}
	t, err := time.Parse(DateLayout, to)
	if err != nil {
		return apperrors.Validation("Invalid toDate %q, expected YYYY-MM-DD", to)
	}
	if f.After(t) {
		return apperrors.Validation("fromDate %s is after toDate %s", from, to)
	}
	return nil
}

// Outcome records which branch of the response coercion produced a result.
type Outcome string

const (
	OutcomeParsedJSON      Outcome = "parsed_json"
	OutcomeExtractedFields Outcome = "extracted_fields"
	OutcomeRawFallback     Outcome = "raw_fallback"

	// OutcomeManual marks a draft built from the commit list without a model.
	OutcomeManual Outcome = "manual"
)

// GeneratedChangelog is the unsaved result of the generation pipeline.
type GeneratedChangelog struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Outcome Outcome `json:"-"`
}
