package changelog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyz-man/changelogai-app/internal/models"
)

func TestCoerce_FencedJSON(t *testing.T) {
	raw := "```json\n{\"title\":\"v1\",\"content\":\"- Fixed bug\\n- Added feature\"}\n```"

	r := Coerce(raw)

	assert.Equal(t, models.OutcomeParsedJSON, r.Outcome)
	assert.Equal(t, "v1", r.Title)
	assert.Equal(t, "- Fixed bug\n- Added feature", r.Content)
}

func TestCoerce_RoundTrip(t *testing.T) {
	pairs := []struct{ title, content string }{
		{"Release 1.0", "## Features\n- Login\n\n## Bug Fixes\n- Crash on start"},
		{"", ""},
		{`Quotes "inside"`, "Code: ```go\nfmt.Println()\n```"},
		{"Unicode ✓", "tabs\tand 'single quotes'"},
	}

	for _, p := range pairs {
		data, err := json.Marshal(map[string]string{"title": p.title, "content": p.content})
		require.NoError(t, err)

		for _, raw := range []string{
			string(data),
			"```json\n" + string(data) + "\n```",
			"```\n" + string(data) + "\n```",
			"  \n" + string(data) + "\n\n",
		} {
			r := Coerce(raw)
			assert.Equal(t, models.OutcomeParsedJSON, r.Outcome, raw)
			assert.Equal(t, p.title, r.Title, raw)
			assert.Equal(t, p.content, r.Content, raw)
		}
	}
}

func TestCoerce_ExtractedFields(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantTitle   string
		wantContent string
	}{
		{
			name:        "trailing prose breaks strict parse",
			raw:         `{"title": "Weekly update", "content": "- One\n- Two"} Hope this helps!`,
			wantTitle:   "Weekly update",
			wantContent: "- One\n- Two",
		},
		{
			name:        "single quoted keys",
			raw:         `{'title': 'Sprint 4', 'content': 'Done'}`,
			wantTitle:   "Sprint 4",
			wantContent: "Done",
		},
		{
			name:        "title only",
			raw:         `Here you go: "title": "Only a title"`,
			wantTitle:   "Only a title",
			wantContent: `Here you go: "title": "Only a title"`,
		},
		{
			name:        "content only",
			raw:         `Result -> "content": "line one\nline two"`,
			wantTitle:   models.DefaultTitle,
			wantContent: "line one\nline two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Coerce(tt.raw)
			assert.Equal(t, models.OutcomeExtractedFields, r.Outcome)
			assert.Equal(t, tt.wantTitle, r.Title)
			assert.Equal(t, tt.wantContent, r.Content)
		})
	}
}

func TestCoerce_RawFallback(t *testing.T) {
	prose := "This week the team fixed several bugs and shipped the new dashboard."

	r := Coerce(prose)

	assert.Equal(t, models.OutcomeRawFallback, r.Outcome)
	assert.Equal(t, models.DefaultTitle, r.Title)
	assert.Equal(t, prose, r.Content)
}

func TestCoerce_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"```",
		"```json```",
		`{"title":`,
		`{"title": 42, "content": true}`,
		`[1, 2, 3]`,
		`null`,
		"\x00\xff",
	}

	for _, in := range inputs {
		r := Coerce(in)
		assert.NotEmpty(t, r.Title, "input %q", in)
		assert.NotEmpty(t, string(r.Outcome), "input %q", in)
	}
}

func TestCoerce_PartialJSONNeedsBothKeys(t *testing.T) {
	r := Coerce(`{"title": "Just a title"}`)

	assert.Equal(t, models.OutcomeExtractedFields, r.Outcome)
	assert.Equal(t, "Just a title", r.Title)
	assert.Equal(t, `{"title": "Just a title"}`, r.Content)
}

func TestResult_Generated(t *testing.T) {
	g := Result{Title: "t", Content: "c", Outcome: models.OutcomeRawFallback}.Generated()
	assert.Equal(t, &models.GeneratedChangelog{Title: "t", Content: "c", Outcome: models.OutcomeRawFallback}, g)
}
