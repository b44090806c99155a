package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TemplateName is the file name of an embedded template.
type TemplateName string

const (
	TemplatePersona       TemplateName = "persona.tmpl"
	TemplatePersonaSystem TemplateName = "persona_system.tmpl"
)

var templateFuncs = template.FuncMap{
	"oneline": func(s string) string { return strings.Join(strings.Fields(s), " ") },
}

// PromptBuilder renders the embedded prompt templates. It is safe for concurrent use.
type PromptBuilder struct {
	set *template.Template
}

var (
	defaultBuilderOnce sync.Once
	defaultBuilder     *PromptBuilder
)

// NewPromptBuilder parses every embedded template up front.
func NewPromptBuilder() (*PromptBuilder, error) {
	set, err := template.New("prompts").
		Option("missingkey=error").
		Funcs(templateFuncs).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}
	return &PromptBuilder{set: set}, nil
}

// DefaultPromptBuilder returns the shared builder. The templates are compiled
// into the binary, so a parse failure is a programming error.
func DefaultPromptBuilder() *PromptBuilder {
	defaultBuilderOnce.Do(func() {
		pb, err := NewPromptBuilder()
		if err != nil {
			panic(err)
		}
		defaultBuilder = pb
	})
	return defaultBuilder
}

// Render executes one template and trims surrounding whitespace.
func (pb *PromptBuilder) Render(name TemplateName, data any) (string, error) {
	if pb.set.Lookup(string(name)) == nil {
		return "", fmt.Errorf("unknown prompt template %s", name)
	}

	var buf bytes.Buffer
	if err := pb.set.ExecuteTemplate(&buf, string(name), data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
