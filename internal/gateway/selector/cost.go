package selector

import (
	"sync"

	errx "github.com/concierge-core/gateway/internal/core/error"
	"github.com/concierge-core/gateway/internal/gateway/model"
)

// Pricing defines USD cost per 1M tokens for input/output.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// tierPricing is the fixed per-tier rate table (USD per 1M text tokens).
var tierPricing = map[model.ModelTier]Pricing{
	model.TierCheap:     {InputPerM: 0.10, OutputPerM: 0.40},
	model.TierMedium:    {InputPerM: 0.30, OutputPerM: 2.50},
	model.TierExpensive: {InputPerM: 1.25, OutputPerM: 10.00},
}

// EstimateCost converts token counts to a USD estimate for a tier.
func EstimateCost(tier model.ModelTier, inputTokens, outputTokens int) (float64, error) {
	p, ok := tierPricing[tier]
	if !ok {
		return 0, errx.ErrUnknownTier
	}
	in := p.InputPerM * float64(inputTokens) / 1_000_000.0
	out := p.OutputPerM * float64(outputTokens) / 1_000_000.0
	return in + out, nil
}

// TierUsage is the accumulated usage for one tier.
type TierUsage struct {
	Calls        int64   `json:"calls"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	ActualCost   float64 `json:"actual_cost"`
	BaselineCost float64 `json:"baseline_cost"`
}

// SavingsReport compares actual tier usage against an always-expensive baseline.
type SavingsReport struct {
	ByTier       map[model.ModelTier]TierUsage `json:"by_tier"`
	ActualCost   float64                       `json:"actual_cost"`
	BaselineCost float64                       `json:"baseline_cost"`
	Savings      float64                       `json:"savings"`
}

type usageTracker struct {
	mu     sync.Mutex
	byTier map[model.ModelTier]TierUsage
}

func newUsageTracker() *usageTracker {
	return &usageTracker{byTier: make(map[model.ModelTier]TierUsage)}
}

// RecordUsage accumulates one dispatched call for the savings report.
func (s *Selector) RecordUsage(tier model.ModelTier, inputTokens, outputTokens int) {
	actual, err := EstimateCost(tier, inputTokens, outputTokens)
	if err != nil {
		s.log.Warn().Str("tier", tier.String()).Msg("usage recorded for unknown tier, skipping")
		return
	}
	baseline, _ := EstimateCost(model.TierExpensive, inputTokens, outputTokens)

	s.usage.mu.Lock()
	defer s.usage.mu.Unlock()
	u := s.usage.byTier[tier]
	u.Calls++
	u.InputTokens += int64(inputTokens)
	u.OutputTokens += int64(outputTokens)
	u.ActualCost += actual
	u.BaselineCost += baseline
	s.usage.byTier[tier] = u
}

// Savings reports accumulated usage against the always-expensive baseline.
func (s *Selector) Savings() *SavingsReport {
	s.usage.mu.Lock()
	defer s.usage.mu.Unlock()

	report := &SavingsReport{ByTier: make(map[model.ModelTier]TierUsage, len(s.usage.byTier))}
	for tier, u := range s.usage.byTier {
		report.ByTier[tier] = u
		report.ActualCost += u.ActualCost
		report.BaselineCost += u.BaselineCost
	}
	report.Savings = report.BaselineCost - report.ActualCost
	return report
}
