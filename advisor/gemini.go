package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const promptPrefix = "You are a terse combat coach in a top-down arena shooter. " +
	"Give the player one short sentence of advice, no more than 12 words, for this situation: "

// GeminiService asks a Gemini model for advice.
type GeminiService struct {
	client *genai.Client
	model  string
}

// NewGeminiService creates a service backed by the Gemini API.
func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiService{client: client, model: model}, nil
}

// Advise implements Service.
func (g *GeminiService) Advise(ctx context.Context, s Situation) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(promptPrefix+s.Summary()), nil)
	if err != nil {
		return "", fmt.Errorf("generating advice: %w", err)
	}
	text := firstText(resp)
	if text == "" {
		return "", errors.New("advisor: model returned no text")
	}
	return text, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			if p != nil {
				sb.WriteString(p.Text)
			}
		}
		if t := strings.TrimSpace(sb.String()); t != "" {
			return t
		}
	}
	return ""
}
