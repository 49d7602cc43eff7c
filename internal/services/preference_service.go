// Package services – PreferenceService
//
// PreferenceService reads and writes the food preferences embedded in a user
// record. Preferences are typed (domain.Preferences); loosely shaped client
// payloads are validated by PreferencesFromMap before they reach the store.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/repo"
)

// Limits applied to client-supplied preference values.
const (
	MaxPreferenceValueRunes = 100
	MaxPreferenceValues     = 50
)

// PreferenceService manages user food preferences.
type PreferenceService struct {
	Users UserStore
	Now   func() time.Time
}

// NewPreferenceService wires a PreferenceService.
func NewPreferenceService(users UserStore) *PreferenceService {
	return &PreferenceService{Users: users, Now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the user's preferences. An unknown user has empty preferences.
func (s *PreferenceService) Get(ctx context.Context, userID string) (domain.Preferences, error) {
	ctx, span := otel.Tracer("services/PreferenceService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	var p domain.Preferences
	u, err := s.Users.GetUser(ctx, userID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
	case err != nil:
		return p, fmt.Errorf("get user: %w", err)
	default:
		p = u.Preferences
	}
	p.Normalize()
	return p, nil
}

// Replace overwrites the user's preferences, creating a placeholder user
// when none exists.
func (s *PreferenceService) Replace(ctx context.Context, userID string, p domain.Preferences) error {
	ctx, span := otel.Tracer("services/PreferenceService").Start(ctx, "Replace",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	p.Normalize()
	if err := s.Users.SavePreferences(ctx, userID, p, s.Now()); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// AddOne appends value under category and returns the stored result. Adding
// a value that is already present is a no-op write.
func (s *PreferenceService) AddOne(ctx context.Context, userID, category, value string) (domain.Preferences, error) {
	ctx, span := otel.Tracer("services/PreferenceService").Start(ctx, "AddOne",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("preference.category", category),
		),
	)
	defer span.End()

	p, err := s.Get(ctx, userID)
	if err != nil {
		return p, err
	}
	p.Add(category, value)
	if err := s.Replace(ctx, userID, p); err != nil {
		return p, err
	}
	return p, nil
}

// MissingMandatory lists the empty mandatory categories in ask order.
func (s *PreferenceService) MissingMandatory(p domain.Preferences) []string {
	return p.MissingMandatory()
}

// IsComplete reports whether every mandatory category is filled.
func (s *PreferenceService) IsComplete(p domain.Preferences) bool { return p.IsComplete() }

// PreferencesFromMap validates a decoded JSON object of category -> values.
// A value may be a string or a list of strings. Unknown categories are kept
// as custom entries, but at least one known category must be present.
func PreferencesFromMap(m map[string]any) (domain.Preferences, error) {
	var p domain.Preferences
	if len(m) == 0 {
		return p, fmt.Errorf("%w: preferences are required", ErrInvalidPreferences)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	known := false
	for _, k := range keys {
		category := strings.ToLower(strings.TrimSpace(k))
		values, err := stringValues(m[k])
		if err != nil {
			return domain.Preferences{}, fmt.Errorf("%w: %s: %v", ErrInvalidPreferences, k, err)
		}
		if len(values) > MaxPreferenceValues {
			return domain.Preferences{}, fmt.Errorf("%w: %s: at most %d values", ErrInvalidPreferences, k, MaxPreferenceValues)
		}
		if domain.IsKnownCategory(category) {
			known = true
		}
		for _, v := range values {
			p.Add(category, v)
		}
	}
	if !known {
		return domain.Preferences{}, fmt.Errorf("%w: no known category", ErrInvalidPreferences)
	}
	p.Normalize()
	return p, nil
}

func stringValues(v any) ([]string, error) {
	var raw []any
	switch t := v.(type) {
	case string:
		raw = []any{t}
	case []string:
		for _, s := range t {
			raw = append(raw, s)
		}
	case []any:
		raw = t
	case nil:
		return nil, nil
	default:
		return nil, errors.New("values must be strings")
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		s, ok := r.(string)
		if !ok {
			return nil, errors.New("values must be strings")
		}
		s = strings.TrimSpace(s)
		if n := runeLen(s); n == 0 || n > MaxPreferenceValueRunes {
			return nil, fmt.Errorf("values must be 1-%d characters", MaxPreferenceValueRunes)
		}
		out = append(out, s)
	}
	return out, nil
}
