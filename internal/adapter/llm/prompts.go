package llm

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"reviewrag/internal/domain"
	"reviewrag/internal/port"
)

//go:embed templates/*/*.tmpl
var promptTemplates embed.FS

// PromptData is the input every prompt template receives.
type PromptData struct {
	Question string
	Business string
	Summary  *domain.BusinessSummary
	Reviews  []domain.SearchResult
	Context  string
}

// Prompts renders system and user prompts for one language.
type Prompts struct {
	lang string
	tmpl *template.Template
}

var noRating = map[string]string{
	"en": "No rating",
	"zh": "無",
}

// NewPrompts parses the embedded templates for lang.
func NewPrompts(lang string) (*Prompts, error) {
	missing, ok := noRating[lang]
	if !ok {
		return nil, fmt.Errorf("no prompt templates for language %q", lang)
	}

	funcs := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
		"rating": func(r *float64) string {
			if r == nil {
				return missing
			}
			return domain.FormatRating(*r)
		},
		"first": func(n int, rs []domain.SearchResult) []domain.SearchResult {
			if len(rs) > n {
				return rs[:n]
			}
			return rs
		},
	}

	tmpl, err := template.New(lang).Funcs(funcs).ParseFS(promptTemplates, "templates/"+lang+"/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s prompt templates: %w", lang, err)
	}
	return &Prompts{lang: lang, tmpl: tmpl}, nil
}

var userTemplates = map[port.PromptKind]string{
	port.PromptAnswer:    "answer.tmpl",
	port.PromptAnalysis:  "analysis.tmpl",
	port.PromptSummary:   "summary.tmpl",
	port.PromptSentiment: "sentiment.tmpl",
}

// Render returns the system and user prompt for kind.
// A kind-specific system template (system_<kind>.tmpl) wins over system.tmpl.
func (p *Prompts) Render(kind port.PromptKind, data PromptData) (system, user string, err error) {
	name, ok := userTemplates[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown prompt kind %q", kind)
	}
	if kind == port.PromptAnalysis && data.Summary == nil {
		return "", "", fmt.Errorf("analysis prompt requires a business summary")
	}

	systemName := "system_" + string(kind) + ".tmpl"
	if p.tmpl.Lookup(systemName) == nil {
		systemName = "system.tmpl"
	}

	if system, err = p.execute(systemName, data); err != nil {
		return "", "", err
	}
	if user, err = p.execute(name, data); err != nil {
		return "", "", err
	}
	return system, user, nil
}

// RenderRequest renders the prompts a generator would send for req.
func (p *Prompts) RenderRequest(req port.GenerateRequest) (system, user string, err error) {
	return p.Render(req.Kind, PromptData{
		Question: req.Question,
		Business: req.Business,
		Summary:  req.Summary,
		Reviews:  req.Reviews,
		Context:  req.Context,
	})
}

func (p *Prompts) execute(name string, data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s/%s: %w", p.lang, name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
