package agent

import (
	"context"
	"strings"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// PreferenceWriter appends a single preference value and returns the
// updated record.
type PreferenceWriter interface {
	AddOne(ctx context.Context, userID, category, value string) (domain.Preferences, error)
}

var noAllergyPhrases = []string{"no allergies", "no allergic", "not allergic", "no food allergies"}

type indicator struct {
	word     string
	category string
}

// preferenceIndicators are checked in order; each match stores the word
// itself under its category.
var preferenceIndicators = []indicator{
	{"vegetarian", domain.CategoryRestrictions},
	{"vegan", domain.CategoryRestrictions},
	{"gluten-free", domain.CategoryRestrictions},
	{"allergies", domain.CategoryAllergies},
	{"allergic", domain.CategoryAllergies},
	{"indian", domain.CategoryCuisinePreferences},
	{"italian", domain.CategoryCuisinePreferences},
	{"chinese", domain.CategoryCuisinePreferences},
	{"mexican", domain.CategoryCuisinePreferences},
}

type extracted struct {
	category string
	value    string
}

// extractPreferences finds preference statements in message.
func extractPreferences(message string) []extracted {
	lower := strings.ToLower(message)
	var out []extracted
	noAllergies := containsAny(lower, noAllergyPhrases)
	if noAllergies {
		out = append(out, extracted{domain.CategoryAllergies, "none"})
	}
	for _, ind := range preferenceIndicators {
		if !strings.Contains(lower, ind.word) {
			continue
		}
		// "no allergies" already recorded the answer for this category.
		if noAllergies && ind.category == domain.CategoryAllergies {
			continue
		}
		out = append(out, extracted{ind.category, ind.word})
	}
	return out
}

// collectPreferences stores what the message reveals and returns the
// resulting record. Write failures are logged and skipped.
func (m *Manager) collectPreferences(ctx context.Context, userID, message string, prefs domain.Preferences) domain.Preferences {
	for _, e := range extractPreferences(message) {
		if m.prefs == nil {
			prefs.Add(e.category, e.value)
			continue
		}
		updated, err := m.prefs.AddOne(ctx, userID, e.category, e.value)
		if err != nil {
			m.log(ctx).Warn().Err(err).Str("category", e.category).Msg("saving preference failed")
			continue
		}
		prefs = updated
	}
	return prefs
}
