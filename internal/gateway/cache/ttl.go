package cache

import (
	"time"

	"github.com/concierge-core/gateway/internal/gateway/model"
)

// ttlTable maps intent to entry lifetime by content volatility. This is a
// fixed table, not a heuristic: menu content is essentially static, opening
// hours change occasionally, booking answers are per-customer real-time.
var ttlTable = map[model.Intent]time.Duration{
	model.IntentMenu:    7 * 24 * time.Hour,
	model.IntentHours:   24 * time.Hour,
	model.IntentBooking: 5 * time.Minute,
}

// defaultTTL applies to intents without an explicit volatility class.
const defaultTTL = time.Hour

// DetermineTTL returns the cache lifetime for an intent.
func DetermineTTL(intent model.Intent) time.Duration {
	if ttl, ok := ttlTable[intent]; ok {
		return ttl
	}
	return defaultTTL
}
