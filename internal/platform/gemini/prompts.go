package gemini

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

type summaryPromptData struct {
	Lines int
}

type quizPromptData struct {
	Count     int
	Summaries string
}

func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func summaryPrompt(lines int) (string, error) {
	return renderPrompt("summary.tmpl", summaryPromptData{Lines: lines})
}

func quizPrompt(summaries string, count int) (string, error) {
	return renderPrompt("quiz.tmpl", quizPromptData{Count: count, Summaries: summaries})
}
