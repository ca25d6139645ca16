// Package gemini adapts the Google Gen AI SDK to the concierge provider.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/xavierca1/ontriq-site/internal/concierge"
)

const DefaultModel = "gemini-2.5-flash"

type Client struct {
	model  string
	client *genai.Client
}

// NewClient returns nil, nil when no API key is configured.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{model: model, client: client}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Complete(ctx context.Context, system string, messages []concierge.Message) (string, error) {
	contents, extraSystem := toContents(messages)
	if extraSystem != "" {
		system = system + "\n\n" + extraSystem
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("provider returned empty response")
	}
	return text, nil
}

// toContents maps turns to Gemini roles. Gemini has no system turn, so
// system messages are folded into the system instruction.
func toContents(messages []concierge.Message) ([]*genai.Content, string) {
	var (
		contents []*genai.Content
		system   string
	)
	for _, m := range messages {
		switch m.Role {
		case concierge.RoleSystem:
			if system != "" {
				system += "\n"
			}
			system += m.Content
		case concierge.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, system
}
