package selector

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concierge-core/gateway/internal/gateway/model"
	"github.com/concierge-core/gateway/internal/gateway/repo"
)

func newTestSelector() (*Selector, *repo.MemorySplits) {
	splits := repo.NewMemorySplits(100)
	return New(splits), splits
}

func TestEscalationAlwaysExpensive(t *testing.T) {
	s, _ := newTestSelector()
	ctx := context.Background()

	messages := []string{
		"hi",
		"I want a refund now",
		"Let me speak to your manager",
		"This is unacceptable, I will contact my lawyer",
		"thanks, but I still want to file a complaint",
	}
	for _, msg := range messages[1:] {
		tier, a, err := s.SelectModel(ctx, Input{Message: msg, Intent: model.IntentSupport})
		require.NoError(t, err)
		assert.Equal(t, model.TierExpensive, tier, "message: %q", msg)
		assert.True(t, a.Escalated)
	}

	// Control: a greeting without escalation words stays cheap.
	tier, a, err := s.SelectModel(ctx, Input{Message: messages[0], Intent: model.IntentFAQ})
	require.NoError(t, err)
	assert.Equal(t, model.TierCheap, tier)
	assert.False(t, a.Escalated)
}

func TestEscalationRequiresWholeWords(t *testing.T) {
	s, _ := newTestSelector()
	ctx := context.Background()

	tier, a, err := s.SelectModel(ctx, Input{
		Message: "There is a small issue with the wrong time on my receipt",
		Intent:  model.IntentSupport,
	})
	require.NoError(t, err)
	assert.False(t, a.Escalated, "sue must not fire inside issue")
	assert.NotEqual(t, model.TierExpensive, tier)

	// Plural forms of the keywords still escalate.
	tier, a, err = s.SelectModel(ctx, Input{Message: "I expect refunds for both orders", Intent: model.IntentSupport})
	require.NoError(t, err)
	assert.True(t, a.Escalated)
	assert.Equal(t, model.TierExpensive, tier)
}

func TestKeywordBucketsMatchWholeWords(t *testing.T) {
	s, _ := newTestSelector()

	_, a, err := s.SelectModel(context.Background(), Input{
		Message: "This is the third time reserving a table here",
		Intent:  model.IntentBooking,
	})
	require.NoError(t, err)
	for _, sig := range a.Signals {
		assert.NotContains(t, sig, "low_keywords", "hi must not fire inside this or third")
	}
}

func TestTechnicalStemsStillMatch(t *testing.T) {
	s, _ := newTestSelector()

	_, a, err := s.SelectModel(context.Background(), Input{
		Message: "Can the kitchen handle severe nut allergies for our table?",
		Intent:  model.IntentBooking,
	})
	require.NoError(t, err)
	assert.Contains(t, strings.Join(a.Signals, " "), "technical_vocabulary")
}

func TestShortSimpleMessageIsCheap(t *testing.T) {
	s, _ := newTestSelector()
	tier, a, err := s.SelectModel(context.Background(), Input{
		Message: "What time do you open?",
		Intent:  model.IntentHours,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TierCheap, tier)
	assert.LessOrEqual(t, a.Score, cheapCeiling)
}

func TestComplexComparativeMessageIsExpensive(t *testing.T) {
	s, _ := newTestSelector()
	msg := "Can you compare the tasting menu versus the a la carte options for a corporate event, " +
		"and also explain the cancellation policy? What happens if we need to reschedule? " +
		"Do you handle gluten allergies for a group this large?"
	tier, a, err := s.SelectModel(context.Background(), Input{Message: msg, Intent: model.IntentQuote})
	require.NoError(t, err)
	assert.Equal(t, model.TierExpensive, tier)
	assert.Greater(t, a.Score, mediumCeiling)
}

func TestScoreClampedToRange(t *testing.T) {
	s, _ := newTestSelector()
	_, a, err := s.SelectModel(context.Background(), Input{Message: "hi thanks bye", Intent: model.IntentFAQ})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, a.Score, 0.0)
	assert.LessOrEqual(t, a.Score, maxScore)
}

func TestElevatedRoleUpgradesCheap(t *testing.T) {
	s, _ := newTestSelector()
	tier, a, err := s.SelectModel(context.Background(), Input{
		Message: "What time do you open?",
		Intent:  model.IntentHours,
		Role:    "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TierMedium, tier)
	assert.True(t, a.RoleUpgraded)
}

func TestForceModelBypassesScoring(t *testing.T) {
	s, _ := newTestSelector()
	tier, a, err := s.SelectModel(context.Background(), Input{
		Message:    "hi",
		Intent:     model.IntentFAQ,
		ForceModel: model.TierExpensive,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TierExpensive, tier)
	assert.True(t, a.Forced)
	assert.Zero(t, a.Score)
}

func TestZeroedSplitBlocksCheapTier(t *testing.T) {
	s, splits := newTestSelector()
	ctx := context.Background()
	require.NoError(t, splits.SetSplit(ctx, model.IntentFAQ, 0))

	tier, a, err := s.SelectModel(ctx, Input{Message: "What time do you open?", Intent: model.IntentFAQ})
	require.NoError(t, err)
	assert.NotEqual(t, model.TierCheap, tier)
	assert.Equal(t, model.TierMedium, tier)
	assert.True(t, a.SplitExhausted)

	// Other intents keep their split.
	tier, _, err = s.SelectModel(ctx, Input{Message: "What time do you open?", Intent: model.IntentHours})
	require.NoError(t, err)
	assert.Equal(t, model.TierCheap, tier)
}

func TestEstimateCost(t *testing.T) {
	got, err := EstimateCost(model.TierMedium, 1_000_000, 1_000_000)
	require.NoError(t, err)
	assert.InDelta(t, 0.30+2.50, got, 1e-9)

	_, err = EstimateCost(model.ModelTier("platinum"), 10, 10)
	assert.Error(t, err)
}

func TestSavingsReport(t *testing.T) {
	s, _ := newTestSelector()
	s.RecordUsage(model.TierCheap, 1_000_000, 1_000_000)
	s.RecordUsage(model.TierExpensive, 500_000, 0)

	report := s.Savings()
	assert.Equal(t, int64(1), report.ByTier[model.TierCheap].Calls)
	assert.InDelta(t, 0.50+0.625, report.ActualCost, 1e-6)      // cheap 0.10+0.40, expensive 1.25*0.5
	assert.InDelta(t, (1.25+10.00)+0.625, report.BaselineCost, 1e-6) // both priced as expensive

	assert.InDelta(t, report.BaselineCost-report.ActualCost, report.Savings, 1e-9)
	assert.Greater(t, report.Savings, 0.0)
}
