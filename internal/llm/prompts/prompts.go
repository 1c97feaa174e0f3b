// Package prompts holds the embedded prompt templates for question
// document generation.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var promptFS embed.FS

var (
	loadOnce    sync.Once
	loadErr     error
	generateTpl *template.Template
)

// GenerateData holds template data for the generation prompt.
type GenerateData struct {
	Title        string
	SourceText   string
	NumQuestions int
	Language     string
}

func load() {
	loadOnce.Do(func() {
		generateTpl, loadErr = template.ParseFS(promptFS, "templates/generate.tmpl")
		if loadErr != nil {
			loadErr = fmt.Errorf("parse generate template: %w", loadErr)
		}
	})
}

// Generate renders the system prompt for document generation.
func Generate(data GenerateData) (string, error) {
	load()
	if loadErr != nil {
		return "", loadErr
	}
	var buf bytes.Buffer
	if err := generateTpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render generate prompt: %w", err)
	}
	return buf.String(), nil
}
