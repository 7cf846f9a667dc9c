package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/concierge-core/gateway/internal/gateway/model"
)

// Manager mediates transcript access for the gateway: it records both sides
// of the exchange and renders a bounded recent-history block for prompts.
type Manager struct {
	history  model.HistoryRepository
	maxTurns int
}

func NewManager(history model.HistoryRepository, cfg model.ConversationConfig) *Manager {
	return &Manager{
		history:  history,
		maxTurns: cfg.History.MaxTurns,
	}
}

func (m *Manager) RecordUserMessage(ctx context.Context, conversationID, content string) error {
	return m.history.AddMessage(ctx, conversationID, schema.UserMessage(content))
}

func (m *Manager) RecordAssistantMessage(ctx context.Context, conversationID, content string) error {
	return m.history.AddMessage(ctx, conversationID, schema.AssistantMessage(content, nil))
}

func (m *Manager) MessageCount(ctx context.Context, conversationID string) (int, error) {
	return m.history.GetMessageCount(ctx, conversationID)
}

func (m *Manager) Clear(ctx context.Context, conversationID string) error {
	return m.history.ClearHistory(ctx, conversationID)
}

// RecentContext renders the last maxTurns messages as a tagged block for the
// model prompt. Empty history renders an empty block, not an error.
func (m *Manager) RecentContext(ctx context.Context, conversationID string) (string, error) {
	history, err := m.history.LoadHistory(ctx, conversationID)
	if err != nil {
		return "", err
	}

	recent := trimTail(history.Messages, m.maxTurns)

	var b strings.Builder
	b.WriteString("<conversation_context>\n")
	for _, msg := range recent {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("Customer: " + msg.Content + "\n")
		case schema.Assistant:
			b.WriteString("Assistant: " + msg.Content + "\n")
		}
	}
	b.WriteString("</conversation_context>")
	return b.String(), nil
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
