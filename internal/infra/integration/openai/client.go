// Package openai talks to any OpenAI-compatible chat completions endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/xavierca1/ontriq-site/internal/concierge"
)

const DefaultModel = "gpt-4o-mini"

type Client struct {
	model string
	http  *resty.Client
}

// NewClient returns nil when no API key is configured.
func NewClient(baseURL, apiKey, model string) *Client {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = DefaultModel
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(concierge.DefaultTimeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{model: model, http: rc}
}

func (c *Client) Name() string { return "openai" }

func (c *Client) Model() string { return c.model }

func (c *Client) Complete(ctx context.Context, system string, messages []concierge.Message) (string, error) {
	body := chatRequest{
		Model:    c.model,
		Messages: make([]chatMessage, 0, len(messages)+1),
	}
	body.Messages = append(body.Messages, chatMessage{Role: "system", Content: system})
	for _, m := range messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	var out chatResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("request chat completion: %w", err)
	}

	if resp.IsError() {
		detail := apiErr.Error.Message
		if detail == "" {
			detail = resp.String()
		}
		return "", fmt.Errorf("provider returned %d: %s", resp.StatusCode(), detail)
	}

	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errors.New("provider returned empty response")
	}
	return out.Choices[0].Message.Content, nil
}
