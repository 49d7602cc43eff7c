package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiLLM calls Google's Gemini models through the genai SDK.
type GeminiLLM struct {
	client *genai.Client
	model  string
}

// NewGeminiLLM dials the Gemini API with apiKey.
func NewGeminiLLM(ctx context.Context, apiKey, model string) (*GeminiLLM, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiLLM{client: client, model: model}, nil
}

// Close releases the underlying client.
func (g *GeminiLLM) Close() error { return g.client.Close() }

// Generate starts a chat seeded with p.History and sends p.Text.
func (g *GeminiLLM) Generate(ctx context.Context, p Prompt) (string, error) {
	model := g.client.GenerativeModel(g.model)
	if p.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}
	}
	temp := float32(p.Temperature)
	model.GenerationConfig = genai.GenerationConfig{Temperature: &temp}

	cs := model.StartChat()
	cs.History = geminiHistory(p.History)

	resp, err := cs.SendMessage(ctx, genai.Text(p.Text))
	if err != nil {
		return "", fmt.Errorf("gemini: send message: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyCompletion
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

// geminiHistory maps turns to genai contents; Gemini names the assistant
// role "model".
func geminiHistory(turns []Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Text)}})
	}
	return out
}
