package agent

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

var recipePatterns = []string{
	"recipe for", "how to make", "cooking instructions for", "ingredients for",
	"variations for", "recipe of", "how to cook",
}

var recipeStopWords = map[string]struct{}{
	"recipe": {}, "how": {}, "to": {}, "make": {}, "cook": {}, "cooking": {},
	"instructions": {}, "ingredients": {}, "variations": {}, "for": {},
	"of": {}, "the": {}, "a": {}, "an": {},
}

var variationWords = []string{"variation", "variations", "different", "alternative"}

// mealName pulls the dish out of a recipe request. The text after the first
// matching phrase wins; otherwise the message minus recipe words is used.
func mealName(message string) string {
	lower := strings.ToLower(message)
	for _, p := range recipePatterns {
		if i := strings.Index(lower, p); i >= 0 {
			after := lower[i+len(p):]
			after = strings.NewReplacer("?", "", ".", "").Replace(after)
			if name := strings.TrimSpace(after); name != "" {
				return name
			}
		}
	}
	words := strings.Fields(lower)
	kept := words[:0]
	for _, w := range words {
		if _, stop := recipeStopWords[w]; !stop {
			kept = append(kept, w)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

func (m *Manager) recipe(ctx context.Context, message string, prefs domain.Preferences, history []Turn) string {
	meal := mealName(message)
	if len([]rune(meal)) < 3 {
		return recipeClarification
	}
	display := cases.Title(language.English).String(meal)

	wantsVariations := containsAny(strings.ToLower(message), variationWords)
	text := recipePrompt(display, message, prefs)
	if wantsVariations {
		text = variationsPrompt(display, prefs)
	}
	if m.llm == nil {
		return recipeFailure(display, wantsVariations)
	}
	out, err := m.generate(ctx, Prompt{System: systemPrompt, Text: text, History: history, Temperature: m.temperature})
	if err != nil {
		m.log(ctx).Warn().Err(err).Str("meal", display).Msg("recipe generation failed")
		return recipeFailure(display, wantsVariations)
	}
	return out
}

func recipeFailure(meal string, variations bool) string {
	if variations {
		return "Sorry, I couldn't suggest variations for " + meal + " right now. Please try again later."
	}
	return "Sorry, I couldn't generate the recipe for " + meal + " right now. Please try again later."
}
