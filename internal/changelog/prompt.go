// Package changelog holds the pure parts of changelog generation: prompt
// construction, response coercion, commit windows and Markdown export.
package changelog

import (
	"fmt"
	"strings"

	"github.com/keyz-man/changelogai-app/internal/models"
)

var guidelines = []string{
	"Create a clear, descriptive title for this changelog.",
	"Organize the changes into categories like 'Features', 'Bug Fixes', 'Improvements', etc.",
	"Summarize similar commits together.",
	"Focus on user-facing changes, but include significant backend work.",
	"Keep the language professional and consistent.",
}

// BuildPrompt formats project metadata and the selected commits into the
// instruction sent to the generation service. Commits are listed in the
// order given.
func BuildPrompt(project *models.Project, commits []models.Commit, fromDate, toDate string) string {
	var b strings.Builder

	b.WriteString("You are an expert changelog generator.\n\n")
	fmt.Fprintf(&b, "Project Name: %s\n", project.Name)
	fmt.Fprintf(&b, "Project Description: %s\n", valueOr(project.Description, "N/A"))
	fmt.Fprintf(&b, "Commit Period: %s to %s\n\n", fromDate, toDate)

	b.WriteString("I will provide you with a list of commit messages from a Git repository.\n")
	b.WriteString("Your task is to analyze these commits and create a concise, well-organized changelog.\n\n")

	b.WriteString("Please follow these guidelines:\n")
	for i, g := range guidelines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g)
	}

	b.WriteString("\nHere are the commits:\n")
	for _, c := range commits {
		b.WriteString(FormatCommitLine(c))
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with a JSON object that has exactly two keys, \"title\" and \"content\".\n")
	b.WriteString("Output format:\n")
	b.WriteString("{\n")
	b.WriteString("  \"title\": \"Your generated title here\",\n")
	b.WriteString("  \"content\": \"The changelog content with sections and formatting\"\n")
	b.WriteString("}\n")
	return b.String()
}

// FormatCommitLine renders a commit as "- <message> (<author>, <YYYY-MM-DD>)"
// using the UTC calendar day of the commit.
func FormatCommitLine(c models.Commit) string {
	return fmt.Sprintf("- %s (%s, %s)", c.Message, c.Author, c.Date.UTC().Format(models.DateLayout))
}

// FormatCommitList renders one line per commit, joined by newlines.
func FormatCommitList(commits []models.Commit) string {
	lines := make([]string, len(commits))
	for i, c := range commits {
		lines[i] = FormatCommitLine(c)
	}
	return strings.Join(lines, "\n")
}

func valueOr(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
