package model

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

// IntentObservation is one append-only entry in a conversation's intent history.
type IntentObservation struct {
	Agent      Intent    `json:"agent"`
	Confidence float64   `json:"confidence"`
	At         time.Time `json:"at"`
}

// ConversationState tracks which agent currently owns a conversation and how
// the conversation's intent has evolved. Created on the first message of a
// conversation_id, mutated on every subsequent message, evicted by store TTL.
type ConversationState struct {
	ConversationID string
	CurrentAgent   Intent
	IntentHistory  []IntentObservation
	LastActivity   time.Time
}

// ObserveResult reports what an atomic state update changed.
type ObserveResult struct {
	Previous        Intent
	Transition      bool
	NewConversation bool
}

// ConversationStateRepository persists per-conversation routing state.
// Observe must apply the update (append observation, set current agent)
// atomically relative to concurrent observations for the same conversation.
type ConversationStateRepository interface {
	Observe(ctx context.Context, conversationID string, obs IntentObservation) (*ObserveResult, error)
	CurrentAgent(ctx context.Context, conversationID string) (Intent, error)
	Load(ctx context.Context, conversationID string) (*ConversationState, error)
}

// HistoryRepository stores the raw chat transcript for a conversation.
type HistoryRepository interface {
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)
	ClearHistory(ctx context.Context, conversationID string) error
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}

// RouterStats is the router's aggregate view over all conversations.
type RouterStats struct {
	TotalConversations int64            `json:"total_conversations"`
	TotalRoutes        int64            `json:"total_routes"`
	IntentTransitions  int64            `json:"intent_transitions"`
	IntentDistribution map[Intent]int64 `json:"intent_distribution"`
}

// RouterStatsStore accumulates routing statistics across instances.
type RouterStatsStore interface {
	RecordRoute(ctx context.Context, agent Intent, transition, newConversation bool) error
	Snapshot(ctx context.Context) (*RouterStats, error)
}
