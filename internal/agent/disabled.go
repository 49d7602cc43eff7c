package agent

import (
	"context"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// DisabledMessage is returned by Disabled for every message.
const DisabledMessage = "Hello! I'm your food recommendation assistant. The AI features are temporarily disabled, but I can still help you with basic functionality. Please try again later when the full AI system is restored."

// Disabled is the agent used when no model is configured.
type Disabled struct{}

// Respond always returns DisabledMessage.
func (Disabled) Respond(context.Context, string, string, []domain.Message, domain.Preferences) (string, error) {
	agentReplies.WithLabelValues("disabled").Inc()
	return DisabledMessage, nil
}
