package services

import (
	"strings"
	"unicode/utf8"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

var greetingKeywords = []string{
	"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
	"namaste", "namaskar",
}

var foodKeywords = []string{
	"food", "meal", "lunch", "dinner", "breakfast", "recipe", "cook", "eat", "hungry",
	"vegetarian", "vegan", "spicy", "sweet", "salty", "healthy", "nutrition",
	"dal", "rice", "curry", "biryani", "paneer", "chicken", "fish", "vegetables",
}

// topicKeywords feed the summary's recent topics, in this priority order.
var topicKeywords = []string{
	"food", "meal", "lunch", "dinner", "breakfast", "recipe", "cook", "eat",
	"vegetarian", "vegan", "spicy", "sweet", "salty", "healthy", "nutrition",
	"dal", "rice", "curry", "biryani", "paneer", "chicken", "fish",
}

const maxRecentTopics = 5

// messageMetadata derives the stored metadata for one exchange. Keyword
// checks are substring matches on the lower-cased user text.
func messageMetadata(userText, response string) domain.MessageMetadata {
	lower := strings.ToLower(strings.TrimSpace(userText))
	return domain.MessageMetadata{
		UserMessageTokens:       len(strings.Fields(userText)),
		AssistantResponseTokens: len(strings.Fields(response)),
		IsGreeting:              containsAnyKeyword(lower, greetingKeywords),
		ContainsFoodKeywords:    containsAnyKeyword(lower, foodKeywords),
	}
}

// recentTopics returns up to maxRecentTopics topic keywords mentioned in
// msgs, in the order they first appear.
func recentTopics(msgs []domain.Message) []string {
	out := make([]string, 0, maxRecentTopics)
	seen := make(map[string]struct{}, maxRecentTopics)
	for _, m := range msgs {
		text := strings.ToLower(m.UserMessage + " " + m.AssistantResponse)
		for _, k := range topicKeywords {
			if _, ok := seen[k]; ok || !strings.Contains(text, k) {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
			if len(out) == maxRecentTopics {
				return out
			}
		}
	}
	return out
}

func containsAnyKeyword(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
