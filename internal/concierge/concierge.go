// Package concierge answers public chat turns through an LLM provider with a
// fixed policy preamble.
package concierge

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ontriq-site/internal/usecase"
)

//go:embed system_prompt.txt
var SystemPrompt string

const DefaultTimeout = 30 * time.Second

var (
	ErrNotConfigured = &usecase.TechnicalError{Code: usecase.CodeNotConfigured, Message: "AI provider not configured"}
	ErrInvalidRole   = errors.New("invalid message role")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is one normalized conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Provider completes a conversation. Implementations live under
// internal/infra/integration.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system string, messages []Message) (string, error)
}

// Part is a typed fragment of a client-side message.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// WireMessage is a turn as the chat widget sends it: either plain content
// or a list of parts.
type WireMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content,omitempty"`
	Parts   json.RawMessage `json:"parts,omitempty"`
}

// textParts returns the parts list, or false when parts is absent or not
// an array. Elements that are not well-formed parts are skipped.
func (m WireMessage) textParts() ([]Part, bool) {
	if len(m.Parts) == 0 {
		return nil, false
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(m.Parts, &raw); err != nil || raw == nil {
		return nil, false
	}
	parts := make([]Part, 0, len(raw))
	for _, r := range raw {
		var p Part
		if err := json.Unmarshal(r, &p); err == nil {
			parts = append(parts, p)
		}
	}
	return parts, true
}

// Normalize validates roles and flattens each turn to text. An array of
// parts wins over content and only its text parts count. Non-array parts are
// ignored, and non-string content becomes empty.
func Normalize(in []WireMessage) ([]Message, error) {
	out := make([]Message, 0, len(in))
	for i, m := range in {
		role := Role(m.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("%w %q at index %d", ErrInvalidRole, m.Role, i)
		}

		var content string
		if parts, ok := m.textParts(); ok {
			var b strings.Builder
			for _, p := range parts {
				if p.Type == "text" && p.Text != "" {
					b.WriteString(p.Text)
				}
			}
			content = b.String()
		} else if len(m.Content) > 0 {
			var s string
			if err := json.Unmarshal(m.Content, &s); err == nil {
				content = s
			}
		}

		out = append(out, Message{Role: role, Content: content})
	}
	return out, nil
}

type Service struct {
	provider Provider
	timeout  time.Duration
	logger   *zap.Logger
}

// NewService accepts a nil provider; Reply then fails with ErrNotConfigured.
func NewService(provider Provider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, timeout: DefaultTimeout, logger: logger}
}

func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

func (s *Service) Configured() bool {
	return s.provider != nil
}

// Reply sends the policy preamble plus the turns and returns the full reply.
func (s *Service) Reply(ctx context.Context, messages []Message) (string, error) {
	if s.provider == nil {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.provider.Complete(ctx, SystemPrompt, messages)
	if err != nil {
		s.logger.Error("concierge provider failed",
			zap.String("provider", s.provider.Name()),
			zap.Int("turns", len(messages)),
			zap.Error(err),
		)
		return "", fmt.Errorf("%s completion: %w", s.provider.Name(), err)
	}

	s.logger.Info("concierge reply",
		zap.String("provider", s.provider.Name()),
		zap.Int("turns", len(messages)),
		zap.Int("reply_length", len(reply)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return reply, nil
}
