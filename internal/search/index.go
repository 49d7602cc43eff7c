// Package search provides a small, deterministic, concurrency-safe dish
// catalog loaded from a Markdown table. The catalog is read-only after
// construction and ranks dishes for a free-text query under a user's food
// preferences:
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options (Option pattern) for tuning
//   - Unicode-aware tokenization with stop-word removal
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// dish's token set, score = |Q ∩ D| / |Q ∪ D|, plus a bonus when the dish's
// cuisine is one the user prefers.
package search

import (
	"regexp"
	"sort"
	"strings"
)

// Match is a ranked dish with its score.
type Match struct {
	Dish  Dish
	Score float64
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords    map[string]struct{}
	maxDishes    int
	cuisineBonus float64
	likeBonus    float64
}

var defaultStopwords = []string{
	"a", "an", "and", "the", "i", "me", "my", "to", "for", "of", "with", "or",
	"some", "something", "want", "would", "like", "should", "what", "eat",
	"today", "please", "can", "you", "suggest", "recommend", "food", "meal",
}

func defaultConfig() config {
	c := config{cuisineBonus: 0.25, likeBonus: 0.1}
	WithStopwords(defaultStopwords)(&c)
	return c
}

// WithStopwords replaces the stop-word list applied to queries and dishes.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDishes caps how many catalog rows are indexed.
func WithMaxDishes(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDishes = n
		}
	}
}

// WithCuisineBonus sets the score added for a preferred cuisine.
func WithCuisineBonus(b float64) Option {
	return func(c *config) {
		if b >= 0 {
			c.cuisineBonus = b
		}
	}
}

// ----------------------------------------------------------------------------
// Ranking

type entry struct {
	dish        Dish
	tokens      map[string]struct{}
	ingredients map[string]struct{} // name+description tokens with "x-free" phrases removed
	tags        map[string]struct{}
	textLen     int
}

func rank(entries []entry, cfg config, query string, prefs filterSet, k int) []Match {
	if len(entries) == 0 {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(query, cfg.stopwords)
	qLen := len(qTokens)

	type scored struct {
		e     *entry
		score float64
	}
	buf := make([]scored, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if !prefs.allows(e) {
			continue
		}
		var score float64
		if qLen > 0 {
			if over := overlap(qTokens, e.tokens); over > 0 {
				score = float64(over) / float64(qLen+len(e.tokens)-over)
			}
		}
		if prefs.prefersCuisine(e) {
			score += cfg.cuisineBonus
		}
		if prefs.likes(e) {
			score += cfg.likeBonus
		}
		buf = append(buf, scored{e: e, score: score})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].e.textLen != buf[b].e.textLen {
			return buf[a].e.textLen < buf[b].e.textLen
		}
		return buf[a].e.dish.Name < buf[b].e.dish.Name
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Match, k)
	for i := 0; i < k; i++ {
		out[i] = Match{Dish: buf[i].e.dish, Score: buf[i].score}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
