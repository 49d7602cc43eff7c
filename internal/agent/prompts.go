package agent

import (
	"fmt"
	"strings"

	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/search"
)

const systemPrompt = `You are a helpful food recommendation assistant designed specifically for Indian users. Your primary goal is to eliminate decision fatigue by providing simple, nutritious meal suggestions that users can easily make or ask someone to prepare.

Key Principles:
1. SIMPLICITY FIRST: Recommend easy-to-make, everyday meals that don't require complex cooking
2. NUTRITIONAL BALANCE: Focus on balanced meals with proper macros (carbs, protein, vegetables)
3. INDIAN CONTEXT: Understand Indian food culture - both traditional and modern (pizza, pasta, etc. are common in India)
4. DECISION FATIGUE: Make choices for users - don't overwhelm with too many options
5. PRACTICAL: Consider if the meal can be made at home or ordered easily
6. CRISP & MINIMAL: Keep responses short, direct, and to the point

Demographic: Indian users who want quick, nutritious meal decisions without overthinking.`

// Fixed replies.
const (
	askRestrictions = "I'd love to help you decide what to eat! First, do you have any dietary restrictions? Like vegetarian, vegan, or any foods you avoid?"
	askAllergies    = "Got it! Do you have any food allergies I should know about? This helps me suggest safe options."
	askCuisine      = "Perfect! Last question - what type of food are you in the mood for? Indian, Italian, Chinese, or anything specific?"
	askAnything     = "I'd love to help you decide what to eat! Do you have any dietary preferences I should know about?"

	recipeClarification   = "I'd be happy to help you with a recipe! Which dish would you like the recipe for? Just tell me the name of the meal you want to cook."
	recommendationFailure = "Sorry, I'm having trouble generating recommendations right now."
)

// missingPrompt returns the question for the first missing mandatory category.
func missingPrompt(missing []string) string {
	if len(missing) == 0 {
		return ""
	}
	switch missing[0] {
	case domain.CategoryRestrictions:
		return askRestrictions
	case domain.CategoryAllergies:
		return askAllergies
	case domain.CategoryCuisinePreferences:
		return askCuisine
	}
	return askAnything
}

func intentPrompt(message string, prefs domain.Preferences) string {
	return fmt.Sprintf(`You are an intent analysis assistant for a food recommendation system. Analyze the user's message and determine their intent.

USER MESSAGE: %q
USER PREFERENCES: %s

INTENT OPTIONS:
- preferences: User is providing or updating their dietary preferences, restrictions, allergies, or food preferences
- recommendations: User wants meal suggestions, food recommendations, or is asking what to eat
- recipe: User wants detailed recipe, cooking instructions, or recipe variations for a specific dish
- chat: General conversation, greetings, or unclear intent

RULES:
1. If user mentions dietary info (vegetarian, vegan, allergies, cuisine preferences) -> preferences
2. If user asks for food suggestions, recommendations, or what to eat -> recommendations
3. If user asks for recipe, cooking instructions, how to make, ingredients, or recipe variations -> recipe
4. If user has complete preferences and asks general food questions -> recommendations
5. If user just greets or has unclear intent -> chat

RESPOND WITH ONLY ONE WORD: preferences, recommendations, recipe, or chat`, message, describePrefs(prefs))
}

func recommendationPrompt(message string, prefs domain.Preferences, grounding []search.Match) string {
	var b strings.Builder
	b.WriteString(`Based on the user's food preferences and message, provide exactly 3 food recommendations that are:
1. EASY TO MAKE: Simple recipes or easy to order
2. NUTRITIONALLY BALANCED: Good mix of carbs, protein, vegetables
3. PRACTICAL: Can be made at home or ordered easily in India
4. POPULAR: Common in Indian households (both traditional and modern)

`)
	b.WriteString(preferenceContext(prefs))
	if message != "" {
		fmt.Fprintf(&b, "User message: %s\n", message)
	}
	if len(grounding) > 0 {
		b.WriteString("\nDishes known to fit these preferences (use them when they suit the request):\n")
		for _, m := range grounding {
			fmt.Fprintf(&b, "- %s\n", m.Dish.String())
		}
	}
	b.WriteString(`
Format each recommendation as:
1. **Meal Name**  - Brief description
2. **Meal Name**  - Brief description
3. **Meal Name**  - Brief description

For each meal, briefly mention why it's good (nutritional benefit, ease of preparation in not more than 6 words).

Keep it conversational and helpful. Always provide exactly 3 numbered suggestions.
Keep your response crisp and minimal.`)
	return b.String()
}

func recipePrompt(meal, message string, prefs domain.Preferences) string {
	ctx := preferenceContext(prefs)
	if message != "" {
		ctx += fmt.Sprintf("User request: %s\n", message)
	}
	return fmt.Sprintf(`You are a recipe expert for Indian users. Generate a concise recipe for the requested meal.

MEAL: %s

%s
Provide a SHORT recipe (under 100 words) with:
1. Key ingredients (quantities for 2-3 people)
2. Prep & cook time
3. Main cooking steps (3-4 steps max)
4. Basic nutritional info

Requirements:
- Use common Indian ingredients
- Keep it simple and practical
- Consider dietary preferences
- Be concise but complete

Format: Brief, clear, under 100 words total.`, meal, ctx)
}

func variationsPrompt(meal string, prefs domain.Preferences) string {
	return fmt.Sprintf(`You are a creative cooking expert for Indian users. Suggest variations for the given meal.

MEAL: %s

%s
Provide 3-4 variations (under 100 words total):
1. **QUICK VERSION** - Faster prep
2. **HEALTHY VERSION** - More nutritious
3. **FUSION VERSION** - Mix cuisines
4. **SEASONAL VERSION** - Adapt for seasons

For each: Key changes, why different, when to use.
Keep practical for Indian kitchens.
Be concise and clear.`, meal, preferenceContext(prefs))
}

// preferenceContext lists the mandatory categories that carry values. An
// allergy list containing "none" is omitted.
func preferenceContext(p domain.Preferences) string {
	var b strings.Builder
	if len(p.Restrictions) > 0 {
		fmt.Fprintf(&b, "Dietary restrictions: %s\n", strings.Join(p.Restrictions, ", "))
	}
	if len(p.Allergies) > 0 && !containsFold(p.Allergies, "none") {
		fmt.Fprintf(&b, "Allergies: %s\n", strings.Join(p.Allergies, ", "))
	}
	if len(p.CuisinePreferences) > 0 {
		fmt.Fprintf(&b, "Preferred cuisines: %s\n", strings.Join(p.CuisinePreferences, ", "))
	}
	if len(p.Dislikes) > 0 {
		fmt.Fprintf(&b, "Dislikes: %s\n", strings.Join(p.Dislikes, ", "))
	}
	return b.String()
}

func describePrefs(p domain.Preferences) string {
	s := strings.TrimSuffix(strings.ReplaceAll(preferenceContext(p), "\n", "; "), "; ")
	if s == "" {
		return "None"
	}
	return s
}

// formatDishes renders catalog matches as the numbered list used when the
// model is unavailable.
func formatDishes(ms []search.Match) string {
	var b strings.Builder
	b.WriteString("Here are a few ideas that fit your preferences:\n")
	for i, m := range ms {
		fmt.Fprintf(&b, "%d. **%s**", i+1, m.Dish.Name)
		if m.Dish.Description != "" {
			fmt.Fprintf(&b, "  - %s", m.Dish.Description)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}
