// Package gemini writes advisory text for action plans with Google's Gemini
// models.
package gemini

import (
	"context"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Advisor implements domain.AdvisoryWriter on a Gemini model.
type Advisor struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// New creates an Advisor for the named model. Close releases the client.
func New(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Advisor, error) {
	c, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	m := c.GenerativeModel(model)
	m.SetTemperature(0.2)
	return &Advisor{client: c, model: m}, nil
}

// WriteAdvisory returns the model's answer to prompt.
func (a *Advisor) WriteAdvisory(ctx context.Context, prompt string) (string, error) {
	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := firstText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}

// Close releases the underlying client.
func (a *Advisor) Close() error {
	return a.client.Close()
}

func firstText(r *genai.GenerateContentResponse) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return strings.TrimSpace(string(t))
			}
		}
	}
	return ""
}
