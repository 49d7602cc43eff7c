// Package agent turns a user's chat message into the assistant's reply. The
// Manager classifies intent, collects food preferences, grounds meal
// suggestions in the dish catalog, and asks a hosted LLM for recipes.
package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior message handed to the model as context.
type Turn struct {
	Role Role
	Text string
}

// Prompt is a single generation request.
type Prompt struct {
	System      string
	Text        string
	History     []Turn
	Temperature float64
}

// LLM generates text for a prompt. Implementations must be safe for
// concurrent use.
type LLM interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// ErrEmptyCompletion is returned when the provider answers with no text.
var ErrEmptyCompletion = errors.New("agent: empty completion")

// maxHistoryExchanges caps how many stored exchanges become model turns.
const maxHistoryExchanges = 10

// historyTurns converts chronological messages into alternating user and
// assistant turns, keeping the most recent maxHistoryExchanges exchanges.
func historyTurns(history []domain.Message) []Turn {
	if len(history) > maxHistoryExchanges {
		history = history[len(history)-maxHistoryExchanges:]
	}
	out := make([]Turn, 0, 2*len(history))
	for _, m := range history {
		if t := strings.TrimSpace(m.UserMessage); t != "" {
			out = append(out, Turn{Role: RoleUser, Text: t})
		}
		if t := strings.TrimSpace(m.AssistantResponse); t != "" {
			out = append(out, Turn{Role: RoleAssistant, Text: t})
		}
	}
	return out
}
