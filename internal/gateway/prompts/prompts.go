package prompts

import (
	"fmt"
	"strings"

	"github.com/concierge-core/gateway/internal/gateway/model"
)

// agentInstructions is the specialized instruction block per agent.
var agentInstructions = map[model.Intent]string{
	model.IntentMenu:    "Answer questions about the menu, dishes, ingredients and dietary options. Do not invent dishes.",
	model.IntentHours:   "Answer questions about opening hours and schedules. If a date is ambiguous, ask which day is meant.",
	model.IntentBooking: "Help with reservations: availability, changes and cancellations. Always confirm date, time and party size.",
	model.IntentFAQ:     "Answer general questions about the venue: location, parking, payment methods, accessibility.",
	model.IntentQuote:   "Prepare indicative quotes for events and catering. Make clear that final pricing requires confirmation.",
	model.IntentSupport: "Resolve problems with orders, charges and confirmations. Be apologetic and concrete about next steps.",
	model.IntentGeneral: "Handle the request helpfully even though it does not match a specialized topic. Offer to connect the customer with a human when unsure.",
}

// Builder renders the full prompt an agent's model call receives.
type Builder struct {
	cfg model.PromptConfig
}

func NewBuilder(cfg model.PromptConfig) *Builder {
	return &Builder{cfg: cfg}
}

// System renders the system block for an agent.
func (b *Builder) System(agent model.Intent) string {
	instr, ok := agentInstructions[agent]
	if !ok {
		instr = agentInstructions[model.IntentGeneral]
	}
	return fmt.Sprintf(
		"You are the customer service assistant for %s, a %s.\n%s\nKeep answers short, factual and polite.",
		b.cfg.BusinessName, b.cfg.BusinessType, instr,
	)
}

// Build assembles system block, recent conversation context and the current
// message into the single prompt string the provider receives.
func (b *Builder) Build(agent model.Intent, conversationContext, message string) string {
	var sb strings.Builder
	sb.WriteString(b.System(agent))
	if conversationContext != "" {
		sb.WriteString("\n\n")
		sb.WriteString(conversationContext)
	}
	sb.WriteString("\n\n<current_message>\n")
	sb.WriteString(message)
	sb.WriteString("\n</current_message>")
	return sb.String()
}
