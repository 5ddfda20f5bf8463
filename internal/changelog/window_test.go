package changelog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/models"
)

func TestNewWindow_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
	}{
		{"missing from", "", "2024-01-05"},
		{"missing to", "2024-01-01", ""},
		{"malformed", "2024/01/01", "2024-01-05"},
		{"reversed", "2024-01-06", "2024-01-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWindow(tt.from, tt.to)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
		})
	}
}

func TestWindow_InclusiveBoundaries(t *testing.T) {
	w, err := NewWindow("2024-01-01", "2024-01-05")
	require.NoError(t, err)

	tests := []struct {
		at   string
		want bool
	}{
		{"2024-01-01T00:00:00Z", true},
		{"2024-01-05T23:59:59Z", true},
		{"2023-12-31T23:59:59Z", false},
		{"2024-01-06T00:00:00Z", false},
		{"2024-01-03T12:00:00Z", true},
	}

	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Contains(day(tt.at)))
		})
	}
}

func TestWindow_SingleDay(t *testing.T) {
	w, err := NewWindow("2024-02-29", "2024-02-29")
	require.NoError(t, err)

	assert.True(t, w.Contains(day("2024-02-29T00:00:00Z")))
	assert.True(t, w.Contains(day("2024-02-29T23:59:59Z")))
	assert.False(t, w.Contains(day("2024-03-01T00:00:00Z")))
}

func TestWindow_NonUTCTimestamps(t *testing.T) {
	w, err := NewWindow("2024-01-01", "2024-01-01")
	require.NoError(t, err)

	// 2024-01-02 01:00 in UTC+2 is 2024-01-01 23:00 UTC.
	loc := time.FixedZone("UTC+2", 2*3600)
	assert.True(t, w.Contains(time.Date(2024, 1, 2, 1, 0, 0, 0, loc)))
}

func TestSelectCommits_NewestFirst(t *testing.T) {
	commits := []models.Commit{
		{ID: "old", Date: day("2024-01-01T10:00:00Z")},
		{ID: "out", Date: day("2023-12-20T10:00:00Z")},
		{ID: "new", Date: day("2024-01-05T10:00:00Z")},
		{ID: "tie1", Date: day("2024-01-03T10:00:00Z")},
		{ID: "tie2", Date: day("2024-01-03T10:00:00Z")},
	}
	w, err := NewWindow("2024-01-01", "2024-01-05")
	require.NoError(t, err)

	got := SelectCommits(commits, w)

	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"new", "tie1", "tie2", "old"}, ids)
	assert.Equal(t, "old", commits[0].ID, "input must not be reordered")
}

func TestSelectCommits_Empty(t *testing.T) {
	w, err := NewWindow("2024-01-01", "2024-01-05")
	require.NoError(t, err)

	got := SelectCommits(nil, w)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSuggestWindow(t *testing.T) {
	tests := []struct {
		name     string
		dates    []string
		from, to string
	}{
		{
			name:  "long history is cut to one week",
			dates: []string{"2024-03-20T09:00:00Z", "2024-01-01T09:00:00Z", "2024-03-15T09:00:00Z"},
			from:  "2024-03-13",
			to:    "2024-03-20",
		},
		{
			name:  "short history starts at oldest commit",
			dates: []string{"2024-03-20T09:00:00Z", "2024-03-18T22:00:00Z"},
			from:  "2024-03-18",
			to:    "2024-03-20",
		},
		{
			name:  "single commit",
			dates: []string{"2024-03-20T09:00:00Z"},
			from:  "2024-03-20",
			to:    "2024-03-20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var commits []models.Commit
			for _, d := range tt.dates {
				commits = append(commits, models.Commit{Date: day(d)})
			}

			w, ok := SuggestWindow(commits)
			require.True(t, ok)
			assert.Equal(t, tt.from, w.From)
			assert.Equal(t, tt.to, w.To)
			for _, c := range commits[:1] {
				assert.True(t, w.Contains(c.Date), "newest commit must be inside the window")
			}
		})
	}

	_, ok := SuggestWindow(nil)
	assert.False(t, ok)
}
