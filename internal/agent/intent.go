package agent

import (
	"context"
	"strings"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// Intent is what the user is trying to do with a message.
type Intent string

const (
	IntentPreferences     Intent = "preferences"
	IntentRecommendations Intent = "recommendations"
	IntentRecipe          Intent = "recipe"
	IntentChat            Intent = "chat"
)

func parseIntent(s string) (Intent, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".!\"'`* \n")
	switch Intent(s) {
	case IntentPreferences, IntentRecommendations, IntentRecipe, IntentChat:
		return Intent(s), true
	}
	return IntentChat, false
}

var preferenceKeywords = []string{
	"vegetarian", "vegan", "gluten-free", "allergies", "allergic",
	"indian", "italian", "chinese", "mexican", "cuisine", "food type",
	"dietary", "restrictions", "preferences", "like", "dislike",
}

var recommendationKeywords = []string{
	"what should i eat", "recommend", "suggestion", "meal", "food",
	"hungry", "eat", "lunch", "dinner", "breakfast", "snack",
}

// keywordIntent is the offline classifier used when the model is unavailable.
func keywordIntent(message string, prefs domain.Preferences) Intent {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, preferenceKeywords):
		return IntentPreferences
	case containsAny(lower, recommendationKeywords):
		return IntentRecommendations
	case len(prefs.Restrictions) > 0:
		return IntentRecommendations
	}
	return IntentChat
}

// classify asks the model for an intent label and falls back to keywords
// when the call fails. The second result names the source for metrics.
func (m *Manager) classify(ctx context.Context, message string, prefs domain.Preferences) (Intent, string) {
	if m.llm != nil {
		out, err := m.generate(ctx, Prompt{Text: intentPrompt(message, prefs), Temperature: m.intentTemperature})
		if err == nil {
			intent, _ := parseIntent(out)
			return intent, "llm"
		}
		m.log(ctx).Warn().Err(err).Msg("intent classification failed; using keywords")
	}
	return keywordIntent(message, prefs), "keywords"
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
