package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/concierge-core/gateway/internal/gateway/model"
)

func testBuilder() *Builder {
	return NewBuilder(model.PromptConfig{BusinessType: "restaurant", BusinessName: "Maison Verte"})
}

func TestSystemNamesTheBusiness(t *testing.T) {
	sys := testBuilder().System(model.IntentMenu)

	assert.Contains(t, sys, "Maison Verte")
	assert.Contains(t, sys, "restaurant")
	assert.Contains(t, sys, "menu")
}

func TestUnknownAgentFallsBackToGeneral(t *testing.T) {
	b := testBuilder()
	assert.Equal(t, b.System(model.IntentUnknown), b.System(model.IntentGeneral))
}

func TestBuildAssemblesAllBlocks(t *testing.T) {
	b := testBuilder()
	ctx := "<conversation_context>\nCustomer: hi\n</conversation_context>"

	prompt := b.Build(model.IntentHours, ctx, "when do you open?")

	assert.True(t, strings.HasPrefix(prompt, b.System(model.IntentHours)))
	assert.Contains(t, prompt, ctx)
	assert.Contains(t, prompt, "<current_message>\nwhen do you open?\n</current_message>")
}

func TestBuildWithoutContextOmitsBlock(t *testing.T) {
	prompt := testBuilder().Build(model.IntentFAQ, "", "where are you located?")

	assert.NotContains(t, prompt, "<conversation_context>")
	assert.Contains(t, prompt, "where are you located?")
}
