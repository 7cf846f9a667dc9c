package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterKeyLayout(t *testing.T) {
	c := NewRedisCounters(nil, "cache")

	assert.Equal(t, "cache:hits", c.key("hits"))
	assert.Equal(t, "cache:misses", c.key("misses"))
}

func TestCounterGetUnreachableRedisErrors(t *testing.T) {
	c := NewRedisCounters(unreachableClient(), "cache")

	_, err := c.Get(context.Background(), "hits")
	require.Error(t, err, "dial failure must surface, only redis.Nil maps to zero")
}
