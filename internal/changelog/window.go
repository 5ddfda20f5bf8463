package changelog

import (
	"sort"
	"time"

	"github.com/keyz-man/changelogai-app/internal/models"
)

// suggestedSpan is how far back SuggestWindow reaches from the newest commit.
const suggestedSpan = 7 * 24 * time.Hour

// Window is an inclusive range of UTC calendar days.
type Window struct {
	From, To string
	start    time.Time
	end      time.Time
}

// NewWindow parses two YYYY-MM-DD dates. The window runs from 00:00:00 on
// from to 23:59:59 on to.
func NewWindow(from, to string) (Window, error) {
	if err := models.ValidateDateRange(from, to); err != nil {
		return Window{}, err
	}
	start, _ := time.Parse(models.DateLayout, from)
	end, _ := time.Parse(models.DateLayout, to)
	return Window{
		From:  from,
		To:    to,
		start: start,
		end:   end.Add(24*time.Hour - time.Second),
	}, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.start) && !t.After(w.end)
}

// SelectCommits returns the commits inside w, newest first. Commits with
// equal dates keep their source order.
func SelectCommits(commits []models.Commit, w Window) []models.Commit {
	selected := make([]models.Commit, 0, len(commits))
	for _, c := range commits {
		if w.Contains(c.Date) {
			selected = append(selected, c)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Date.After(selected[j].Date)
	})
	return selected
}

// SuggestWindow proposes a default window: the week ending on the newest
// commit's day, never starting before the oldest commit's day. ok is false
// when there are no commits.
func SuggestWindow(commits []models.Commit) (w Window, ok bool) {
	if len(commits) == 0 {
		return Window{}, false
	}
	newest, oldest := commits[0].Date, commits[0].Date
	for _, c := range commits[1:] {
		if c.Date.After(newest) {
			newest = c.Date
		}
		if c.Date.Before(oldest) {
			oldest = c.Date
		}
	}

	to := newest.UTC()
	from := to.Add(-suggestedSpan)
	if from.Before(oldest) {
		from = oldest.UTC()
	}

	w, err := NewWindow(from.Format(models.DateLayout), to.Format(models.DateLayout))
	return w, err == nil
}
