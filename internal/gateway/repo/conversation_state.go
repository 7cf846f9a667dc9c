package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/concierge-core/gateway/internal/core/error"
	"github.com/concierge-core/gateway/internal/gateway/model"
	logx "github.com/concierge-core/gateway/pkg/logger"
)

// RedisConversationStateRepository keeps per-conversation routing state in Redis:
// a current-agent key plus an append-only list of intent observations.
// The two writes happen inside one MULTI/EXEC so concurrent observations for
// the same conversation cannot interleave and drop a transition.
type RedisConversationStateRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisConversationStateRepository(rdb redis.Cmdable, ttl time.Duration) *RedisConversationStateRepository {
	return &RedisConversationStateRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisConversationStateRepository) agentKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:agent", conversationID)
}

func (r *RedisConversationStateRepository) intentsKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:intents", conversationID)
}

func (r *RedisConversationStateRepository) Observe(ctx context.Context, conversationID string, obs model.IntentObservation) (*model.ObserveResult, error) {
	b, err := json.Marshal(obs)
	if err != nil {
		return nil, fmt.Errorf("marshal intent observation: %w", err)
	}

	var setCmd *redis.StatusCmd
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		setCmd = p.SetArgs(ctx, r.agentKey(conversationID), obs.Agent.String(), redis.SetArgs{
			Get: true,
			TTL: r.ttl,
		})
		p.RPush(ctx, r.intentsKey(conversationID), b)
		if r.ttl > 0 {
			p.Expire(ctx, r.intentsKey(conversationID), r.ttl)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to record intent observation")
		return nil, errx.WrapRedis(err)
	}

	res := &model.ObserveResult{Previous: model.IntentUnknown}
	prev, err := setCmd.Result()
	switch {
	case errors.Is(err, redis.Nil):
		res.NewConversation = true
	case err != nil:
		return nil, errx.WrapRedis(err)
	default:
		res.Previous = model.ParseIntent(prev)
		res.Transition = res.Previous != obs.Agent
	}
	return res, nil
}

func (r *RedisConversationStateRepository) CurrentAgent(ctx context.Context, conversationID string) (model.Intent, error) {
	v, err := r.rdb.Get(ctx, r.agentKey(conversationID)).Result()
	if errors.Is(err, redis.Nil) {
		return model.IntentUnknown, nil
	}
	if err != nil {
		return model.IntentUnknown, errx.WrapRedis(err)
	}
	return model.ParseIntent(v), nil
}

func (r *RedisConversationStateRepository) Load(ctx context.Context, conversationID string) (*model.ConversationState, error) {
	agent, err := r.CurrentAgent(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	rows, err := r.rdb.LRange(ctx, r.intentsKey(conversationID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to load intent history")
		return nil, errx.WrapRedis(err)
	}

	state := &model.ConversationState{
		ConversationID: conversationID,
		CurrentAgent:   agent,
		IntentHistory:  make([]model.IntentObservation, 0, len(rows)),
	}
	for i, row := range rows {
		var obs model.IntentObservation
		if err := json.Unmarshal([]byte(row), &obs); err != nil {
			return nil, fmt.Errorf("unmarshal intent observation at index %d: %w", i, err)
		}
		state.IntentHistory = append(state.IntentHistory, obs)
	}
	if n := len(state.IntentHistory); n > 0 {
		state.LastActivity = state.IntentHistory[n-1].At
	}
	return state, nil
}

var _ model.ConversationStateRepository = (*RedisConversationStateRepository)(nil)
