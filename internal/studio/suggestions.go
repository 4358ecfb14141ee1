package studio

// PromptSuggestions returns the canned prompt ideas shown alongside the
// create commands. Product copy is French, like the rest of the UI strings.
func PromptSuggestions() []string {
	return []string{
		"Transformer en une vidéo épique de 15s",
		"Style cyberpunk avec néons",
		"Rendre l'image plus lumineuse et vibrante",
		"Animation en boucle de 5s",
		"Ajouter une pluie fine et des reflets",
		"Effet de zoom cinématique lent",
	}
}
