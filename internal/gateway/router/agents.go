package router

import "github.com/concierge-core/gateway/internal/gateway/model"

// AgentProfile declares one specialized agent: the intent it owns, a short
// description surfaced by suggest_agent, and exemplar phrasings whose
// embedding centroid becomes the agent's reference vector.
type AgentProfile struct {
	Agent       model.Intent
	Description string
	Exemplars   []string
}

// DefaultProfiles covers the customer-service intents the gateway ships with.
func DefaultProfiles() []AgentProfile {
	return []AgentProfile{
		{
			Agent:       model.IntentMenu,
			Description: "Menu contents, dishes, dietary options and specials",
			Exemplars: []string{
				"What's on your menu?",
				"Do you have vegetarian or vegan dishes?",
				"What desserts do you serve?",
				"Can I see the wine list?",
			},
		},
		{
			Agent:       model.IntentHours,
			Description: "Opening hours and holiday schedules",
			Exemplars: []string{
				"What time do you open?",
				"Are you open on Sundays?",
				"When do you close tonight?",
				"Are you open over the holidays?",
			},
		},
		{
			Agent:       model.IntentBooking,
			Description: "Reservations: create, change, cancel, availability",
			Exemplars: []string{
				"I'd like to book a table for four",
				"Can I move my reservation to Saturday?",
				"Is there availability this Friday evening?",
				"I need to cancel my booking",
			},
		},
		{
			Agent:       model.IntentFAQ,
			Description: "General questions: location, parking, payment, accessibility",
			Exemplars: []string{
				"Do you have parking nearby?",
				"Do you accept credit cards?",
				"Is the restaurant wheelchair accessible?",
				"Where exactly are you located?",
			},
		},
		{
			Agent:       model.IntentQuote,
			Description: "Quotes for events, catering and private dining",
			Exemplars: []string{
				"How much would catering for fifty people cost?",
				"Can you quote a private dinner for our company?",
				"What would a wedding reception cost here?",
			},
		},
		{
			Agent:       model.IntentSupport,
			Description: "Problems with orders, charges and confirmations",
			Exemplars: []string{
				"My order arrived wrong",
				"I was charged twice for the same booking",
				"The confirmation email never arrived",
			},
		},
	}
}
