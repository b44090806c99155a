package persona

import (
	"context"
	"errors"
	"strings"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/internal/prompt"
	"github.com/kapu/sevenlist-go/internal/service/ai"
	"github.com/kapu/sevenlist-go/internal/util"
	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"go.uber.org/zap"
)

// Canned texts shown instead of a generated blurb.
const (
	TextInsufficient = "Adicione mais itens à estante para o oráculo ler sua mente."
	TextEmpty        = "O oráculo está confuso com tanta cultura."
	TextUnavailable  = "O oráculo cultural está indisponível."
	TextUnconfigured = "Configure a chave do oráculo para ver sua análise."
)

type Status string

const (
	StatusGenerated    Status = "generated"
	StatusInsufficient Status = "insufficient"
	StatusEmpty        Status = "empty"
	StatusUnavailable  Status = "unavailable"
	StatusUnconfigured Status = "unconfigured"
)

// Result always carries displayable Text; Status and Err say how it was produced.
type Result struct {
	Text     string
	Status   Status
	Provider string
	Err      error
}

// Generated reports whether Text came from a model.
func (r Result) Generated() bool {
	return r.Status == StatusGenerated
}

// TextGenerator is satisfied by *ai.ModelManager.
type TextGenerator interface {
	Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResult, error)
}

type Generator struct {
	llm     TextGenerator
	prompts *prompt.PromptBuilder
	logger  *zap.Logger
}

func NewGenerator(llm TextGenerator, prompts *prompt.PromptBuilder, logger *zap.Logger) *Generator {
	if prompts == nil {
		prompts = prompt.DefaultPromptBuilder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{llm: llm, prompts: prompts, logger: logger}
}

// Configured reports whether a text provider is wired.
func (g *Generator) Configured() bool {
	if g.llm == nil {
		return false
	}
	if c, ok := g.llm.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

// Generate writes a persona blurb for the shelf.
func (g *Generator) Generate(ctx context.Context, shelf *domain.Shelf) Result {
	if shelf == nil {
		return g.GenerateFromTitles(ctx, domain.ShelfTitles{})
	}
	return g.GenerateFromTitles(ctx, domain.TitlesOf(shelf))
}

// GenerateFromTitles writes a persona blurb from raw per-category titles.
func (g *Generator) GenerateFromTitles(ctx context.Context, titles domain.ShelfTitles) Result {
	items, raw := labeledItems(titles)

	if len(items) == 0 || util.RuneLen(strings.Join(raw, ", ")) < constants.PersonaConfig.MinTitleRunes {
		return Result{Text: TextInsufficient, Status: StatusInsufficient}
	}

	if g.llm == nil {
		return Result{Text: TextUnconfigured, Status: StatusUnconfigured,
			Err: apperrors.NewConfigError("no text provider configured", "OPENAI_API_KEY")}
	}

	system, user, err := g.prompts.BuildPersona(prompt.PersonaData{
		Items:    items,
		MaxChars: constants.PersonaConfig.MaxOutputRunes,
		Emojis:   constants.PersonaConfig.Emojis,
	})
	if err != nil {
		g.logger.Error("Persona prompt render failed", zap.Error(err))
		return Result{Text: TextUnavailable, Status: StatusUnavailable, Err: err}
	}

	res, err := g.llm.Generate(ctx, ai.GenerateRequest{
		System:          system,
		Prompt:          user,
		Temperature:     constants.PersonaConfig.Temperature,
		MaxOutputTokens: constants.PersonaConfig.MaxOutputTokens,
	})
	if err != nil {
		var cfgErr *apperrors.ConfigError
		if errors.As(err, &cfgErr) {
			return Result{Text: TextUnconfigured, Status: StatusUnconfigured, Err: err}
		}
		g.logger.Warn("Persona generation failed", zap.Error(err))
		return Result{Text: TextUnavailable, Status: StatusUnavailable, Err: err}
	}

	text := CleanText(res.Text)
	if text == "" {
		return Result{Text: TextEmpty, Status: StatusEmpty, Provider: res.Provider}
	}

	g.logger.Debug("Persona generated",
		zap.String("provider", res.Provider),
		zap.Int("length", util.RuneLen(text)),
	)
	return Result{Text: text, Status: StatusGenerated, Provider: res.Provider}
}

const quoteChars = "\"'“”"

// CleanText trims whitespace and wrapping quote characters.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, quoteChars)
	return strings.TrimSpace(s)
}

// labeledItems pairs each non-blank title with its category label. Titles that
// already carry the label ("Filme: Duna") are not labeled twice. raw holds the
// trimmed titles as received.
func labeledItems(titles domain.ShelfTitles) (items []prompt.PersonaItem, raw []string) {
	groups := []struct {
		category domain.Category
		titles   []string
	}{
		{domain.CategoryMovies, titles.Movies},
		{domain.CategoryBooks, titles.Books},
		{domain.CategoryMusic, titles.Music},
	}

	n := len(titles.Movies) + len(titles.Books) + len(titles.Music)
	items = make([]prompt.PersonaItem, 0, n)
	raw = make([]string, 0, n)
	for _, g := range groups {
		label := g.category.Label()
		for _, t := range g.titles {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			raw = append(raw, t)
			if title := stripLabel(t, label); title != "" {
				items = append(items, prompt.PersonaItem{Label: label, Title: title})
			}
		}
	}
	return items, raw
}

func stripLabel(title, label string) string {
	prefix := label + ":"
	if len(title) >= len(prefix) && strings.EqualFold(title[:len(prefix)], prefix) {
		return strings.TrimSpace(title[len(prefix):])
	}
	return title
}
