package model

// Intent is the closed set of customer-need categories the gateway routes on.
// Free-form intent strings from callers are normalised through ParseIntent;
// anything unrecognised maps to IntentUnknown and is handled by the general
// fallback agent.
type Intent string

const (
	IntentMenu    Intent = "menu"
	IntentHours   Intent = "hours"
	IntentBooking Intent = "booking"
	IntentFAQ     Intent = "faq"
	IntentQuote   Intent = "quote"
	IntentSupport Intent = "support"
	IntentGeneral Intent = "general"
	IntentUnknown Intent = "unknown"
)

// KnownIntents lists every intent a specialized agent exists for.
// IntentGeneral is the designated fallback agent, not a classification target.
var KnownIntents = []Intent{
	IntentMenu,
	IntentHours,
	IntentBooking,
	IntentFAQ,
	IntentQuote,
	IntentSupport,
}

// ParseIntent normalises a raw intent string. Unrecognised values map to
// IntentUnknown rather than erroring so stored data with stale intents
// degrades instead of breaking lookups.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentMenu, IntentHours, IntentBooking, IntentFAQ, IntentQuote, IntentSupport, IntentGeneral:
		return Intent(s)
	default:
		return IntentUnknown
	}
}

// Known reports whether the intent belongs to the closed set of specialized agents.
func (i Intent) Known() bool {
	for _, k := range KnownIntents {
		if i == k {
			return true
		}
	}
	return false
}

func (i Intent) String() string {
	return string(i)
}
