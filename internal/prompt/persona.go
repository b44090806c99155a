package prompt

// PersonaItem is one labeled title shown to the model.
type PersonaItem struct {
	Label string
	Title string
}

// PersonaData feeds both persona templates.
type PersonaData struct {
	Items    []PersonaItem
	MaxChars int
	Emojis   int
}

// BuildPersona renders the system instruction and user prompt.
func (pb *PromptBuilder) BuildPersona(data PersonaData) (system string, user string, err error) {
	system, err = pb.Render(TemplatePersonaSystem, data)
	if err != nil {
		return "", "", err
	}
	user, err = pb.Render(TemplatePersona, data)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}
