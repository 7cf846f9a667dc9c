package repo

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/concierge-core/gateway/internal/core/error"
	"github.com/concierge-core/gateway/internal/gateway/model"
)

// unreachableClient connects nowhere: every command fails fast with a dial
// error, which exercises the repositories' error mapping.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestObserveUnreachableRedisSurfacesAppError(t *testing.T) {
	r := NewRedisConversationStateRepository(unreachableClient(), time.Minute)

	_, err := r.Observe(context.Background(), "c1", model.IntentObservation{
		Agent:      model.IntentMenu,
		Confidence: 0.9,
		At:         time.Now().UTC(),
	})

	require.Error(t, err)
	var appErr *errx.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 502, appErr.Status)
}

func TestCurrentAgentUnreachableRedisSurfacesAppError(t *testing.T) {
	r := NewRedisConversationStateRepository(unreachableClient(), time.Minute)

	_, err := r.CurrentAgent(context.Background(), "c1")

	require.Error(t, err)
	var appErr *errx.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 502, appErr.Status)
}

func TestConversationKeyLayout(t *testing.T) {
	r := NewRedisConversationStateRepository(nil, time.Minute)

	assert.Equal(t, "conversation:c1:agent", r.agentKey("c1"))
	assert.Equal(t, "conversation:c1:intents", r.intentsKey("c1"))
}
