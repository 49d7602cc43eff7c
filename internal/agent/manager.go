package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/search"
)

// Manager is the default chat agent.
type Manager struct {
	llm     LLM
	prefs   PreferenceWriter
	catalog *search.Catalog

	temperature       float64
	intentTemperature float64
	timeout           time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithTemperature sets the sampling temperature for replies.
func WithTemperature(t float64) Option { return func(m *Manager) { m.temperature = t } }

// WithIntentTemperature sets the sampling temperature for intent labels.
func WithIntentTemperature(t float64) Option { return func(m *Manager) { m.intentTemperature = t } }

// WithTimeout bounds each model call. Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(m *Manager) { m.timeout = d } }

// NewManager builds a Manager. llm may be nil, in which case intents come
// from keywords and recommendations from the catalog.
func NewManager(llm LLM, prefs PreferenceWriter, catalog *search.Catalog, opts ...Option) *Manager {
	m := &Manager{
		llm:               llm,
		prefs:             prefs,
		catalog:           catalog,
		temperature:       0.7,
		intentTemperature: 0.3,
		timeout:           30 * time.Second,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Respond produces the assistant's reply to message. history is the
// session's prior exchanges in chronological order and prefs the user's
// stored preferences. Model failures degrade to canned or catalog answers;
// the only error returned is the context's.
func (m *Manager) Respond(ctx context.Context, userID, message string, history []domain.Message, prefs domain.Preferences) (string, error) {
	ctx, span := otel.Tracer("agent/Manager").Start(ctx, "Respond",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("history.len", len(history)),
		),
	)
	defer span.End()

	intent, source := m.classify(ctx, message, prefs)
	intents.WithLabelValues(string(intent), source).Inc()
	span.SetAttributes(attribute.String("agent.intent", string(intent)))
	m.log(ctx).Debug().Str("intent", string(intent)).Str("source", source).Msg("intent classified")

	turns := historyTurns(history)

	var reply string
	switch intent {
	case IntentPreferences:
		updated := m.collectPreferences(ctx, userID, message, prefs)
		if missing := updated.MissingMandatory(); len(missing) > 0 {
			reply = missingPrompt(missing)
		} else {
			reply = m.recommend(ctx, message, updated, turns)
		}
	case IntentRecommendations:
		if len(prefs.Restrictions) == 0 {
			reply = askRestrictions
		} else {
			reply = m.recommend(ctx, message, prefs, turns)
		}
	case IntentRecipe:
		reply = m.recipe(ctx, message, prefs, turns)
	default:
		reply = chatReply(message)
	}

	if err := ctx.Err(); err != nil {
		agentReplies.WithLabelValues("error").Inc()
		return "", err
	}
	return reply, nil
}

// recommend asks the model for three meals grounded in catalog matches.
// Without a model, or when it fails, the catalog matches are listed directly.
func (m *Manager) recommend(ctx context.Context, message string, prefs domain.Preferences, history []Turn) string {
	grounding := m.catalog.Recommend(message, prefs, 3)

	if m.llm != nil {
		out, err := m.generate(ctx, Prompt{
			System:      systemPrompt,
			Text:        recommendationPrompt(message, prefs, grounding),
			History:     history,
			Temperature: m.temperature,
		})
		if err == nil {
			agentReplies.WithLabelValues("ok").Inc()
			return out
		}
		m.log(ctx).Warn().Err(err).Msg("recommendation generation failed")
	}

	if len(grounding) > 0 {
		agentReplies.WithLabelValues("fallback").Inc()
		return formatDishes(grounding)
	}
	agentReplies.WithLabelValues("error").Inc()
	return recommendationFailure
}

// generate calls the model under the configured timeout and records latency.
func (m *Manager) generate(ctx context.Context, p Prompt) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := m.llm.Generate(ctx, p)
	status := "ok"
	if err != nil {
		status = "error"
	}
	llmLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return out, err
}

func (m *Manager) log(ctx context.Context) *zerolog.Logger { return zerolog.Ctx(ctx) }
