package changelog

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/keyz-man/changelogai-app/internal/models"
)

// The extraction patterns only see single-line values, so a multi-line
// string value is cut at its first line.
var (
	titlePattern   = regexp.MustCompile(`["']title["']\s*:\s*["'](.+?)["']`)
	contentPattern = regexp.MustCompile(`["']content["']\s*:\s*["'](.+?)["']`)
)

// Result is a coerced response together with the branch that produced it.
type Result struct {
	Title   string
	Content string
	Outcome models.Outcome
}

// Generated converts the result into the pipeline's output record.
func (r Result) Generated() *models.GeneratedChangelog {
	return &models.GeneratedChangelog{Title: r.Title, Content: r.Content, Outcome: r.Outcome}
}

type payload struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Coerce turns raw model output into a title and content. It tries a strict
// JSON decode, then key extraction, then uses the whole text. It never fails.
func Coerce(raw string) Result {
	text := stripFences(raw)

	var p payload
	if err := json.Unmarshal([]byte(text), &p); err == nil && p.Title != nil && p.Content != nil {
		return Result{Title: *p.Title, Content: *p.Content, Outcome: models.OutcomeParsedJSON}
	}

	title := titlePattern.FindStringSubmatch(text)
	content := contentPattern.FindStringSubmatch(text)
	if title != nil || content != nil {
		r := Result{Title: models.DefaultTitle, Content: text, Outcome: models.OutcomeExtractedFields}
		if title != nil {
			r.Title = title[1]
		}
		if content != nil {
			r.Content = strings.ReplaceAll(content[1], `\n`, "\n")
		}
		return r
	}

	return Result{Title: models.DefaultTitle, Content: text, Outcome: models.OutcomeRawFallback}
}

// stripFences removes a leading ``` or ```json line marker and a trailing
// ``` marker, then trims whitespace.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimPrefix(text, "json")
	}
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
