package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPersona(t *testing.T) {
	system, user, err := DefaultPromptBuilder().BuildPersona(PersonaData{
		Items: []PersonaItem{
			{Label: "Filme", Title: "Interestelar"},
			{Label: "Livro", Title: "Duna"},
			{Label: "Álbum", Title: "Clube da Esquina"},
		},
		MaxChars: 280,
		Emojis:   3,
	})
	require.NoError(t, err)

	assert.Contains(t, system, "280 caracteres")
	assert.Contains(t, system, "3 emojis")
	assert.Contains(t, system, "Português do Brasil")

	assert.Contains(t, user, "- Filme: Interestelar\n")
	assert.Contains(t, user, "- Livro: Duna\n")
	assert.Contains(t, user, "- Álbum: Clube da Esquina\n")
	assert.Contains(t, user, "máximo 280 caracteres")
	assert.Contains(t, user, "exatamente 3 emojis")
	assert.Contains(t, user, "NÃO descreva a lista")
}

func TestBuildPersona_FlattensMultilineTitles(t *testing.T) {
	_, user, err := DefaultPromptBuilder().BuildPersona(PersonaData{
		Items:    []PersonaItem{{Label: "Livro", Title: "Grande Sertão:\n  Veredas"}},
		MaxChars: 280,
		Emojis:   3,
	})
	require.NoError(t, err)
	assert.Contains(t, user, "- Livro: Grande Sertão: Veredas\n")
}

func TestNewPromptBuilder_ParsesAllTemplates(t *testing.T) {
	pb, err := NewPromptBuilder()
	require.NoError(t, err)

	for _, name := range []TemplateName{TemplatePersona, TemplatePersonaSystem} {
		assert.NotNil(t, pb.set.Lookup(string(name)), string(name))
	}
}

func TestPromptBuilder_MissingField(t *testing.T) {
	_, err := DefaultPromptBuilder().Render(TemplatePersonaSystem, map[string]any{"MaxChars": 280})
	assert.Error(t, err)
}

func TestPromptBuilder_UnknownTemplate(t *testing.T) {
	_, err := DefaultPromptBuilder().Render(TemplateName("missing.tmpl"), nil)
	assert.Error(t, err)
}
