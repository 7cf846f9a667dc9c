// Package selector decides which model tier a query is worth, balancing cost
// against expected answer complexity, and gates the cheap/student tier on the
// quality monitor's traffic split.
package selector

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/concierge-core/gateway/internal/gateway/model"
	logx "github.com/concierge-core/gateway/pkg/logger"
)

const (
	baseScore      = 5.0
	maxScore       = 10.0
	cheapCeiling   = 3.5
	mediumCeiling  = 6.5
	shortMsgWords  = 5
	longMsgWords   = 30
	longHistoryLen = 6
)

// Input carries everything the selector scores on.
type Input struct {
	Message       string
	Intent        model.Intent
	Role          string
	HistoryLength int
	ForceModel    model.ModelTier
}

// Analysis is the structured justification behind a tier decision.
type Analysis struct {
	Score          float64         `json:"score"`
	Signals        []string        `json:"signals"`
	Escalated      bool            `json:"escalated,omitempty"`
	RoleUpgraded   bool            `json:"role_upgraded,omitempty"`
	SplitExhausted bool            `json:"split_exhausted,omitempty"`
	Forced         bool            `json:"forced,omitempty"`
	Tier           model.ModelTier `json:"tier"`
}

type Selector struct {
	splits model.SplitStore
	usage  *usageTracker
	log    zerolog.Logger
}

func New(splits model.SplitStore) *Selector {
	return &Selector{
		splits: splits,
		usage:  newUsageTracker(),
		log:    logx.Component("selector"),
	}
}

// SelectModel picks a tier for the query. Precedence: escalation keywords,
// then force_model, then complexity scoring with the role upgrade, and the
// traffic-split gate applied before anything is returned.
func (s *Selector) SelectModel(ctx context.Context, in Input) (model.ModelTier, *Analysis, error) {
	a := &Analysis{}

	// Escalation is unconditional and cannot be downgraded.
	if kw := matchEscalation(in.Message); kw != "" {
		a.Escalated = true
		a.Tier = model.TierExpensive
		a.Signals = append(a.Signals, "escalation_keyword:"+kw)
		return model.TierExpensive, a, nil
	}

	if in.ForceModel != "" {
		a.Forced = true
		a.Tier = in.ForceModel
		a.Signals = append(a.Signals, "force_model:"+in.ForceModel.String())
		return s.gate(ctx, in.Intent, a)
	}

	a.Score = s.score(in, a)
	switch {
	case a.Score <= cheapCeiling:
		a.Tier = model.TierCheap
	case a.Score <= mediumCeiling:
		a.Tier = model.TierMedium
	default:
		a.Tier = model.TierExpensive
	}

	if elevatedRoles[strings.ToLower(in.Role)] && a.Tier == model.TierCheap {
		a.RoleUpgraded = true
		a.Tier = a.Tier.Upgrade()
		a.Signals = append(a.Signals, "role_upgrade:"+in.Role)
	}

	return s.gate(ctx, in.Intent, a)
}

// gate consults the traffic split last: a rolled-back intent makes the cheap
// tier unavailable no matter how the tier was chosen.
func (s *Selector) gate(ctx context.Context, intent model.Intent, a *Analysis) (model.ModelTier, *Analysis, error) {
	if a.Tier != model.TierCheap {
		return a.Tier, a, nil
	}
	pct, err := s.splits.Split(ctx, intent)
	if err != nil {
		// Unable to observe the split: assume the student is unavailable
		// rather than risking traffic a rollback meant to stop.
		s.log.Warn().Err(err).Str("intent", intent.String()).Msg("traffic split unreadable, avoiding cheap tier")
		pct = 0
	}
	if pct <= 0 {
		a.SplitExhausted = true
		a.Tier = a.Tier.Upgrade()
		a.Signals = append(a.Signals, "traffic_split_zero")
	}
	return a.Tier, a, nil
}

func (s *Selector) score(in Input, a *Analysis) float64 {
	score := baseScore
	msg := in.Message
	lower := strings.ToLower(msg)

	add := func(delta float64, signal string) {
		score += delta
		a.Signals = append(a.Signals, fmt.Sprintf("%s:%+.2f", signal, delta))
	}

	words := len(strings.Fields(msg))
	if words < shortMsgWords {
		add(-1.5, "short_message")
	} else if words > longMsgWords {
		add(+1.5, "long_message")
	}

	if n := countMatches(simpleFAQPatterns, msg); n > 0 {
		add(-1.5*float64(n), fmt.Sprintf("simple_faq_x%d", n))
	}
	if n := countMatches(complexPatterns, msg); n > 0 {
		add(+1.0*float64(n), fmt.Sprintf("complex_pattern_x%d", n))
	}

	tokens := tokenize(lower)
	if n := countStems(highComplexityKeywords, tokens); n > 0 {
		add(+1.0*float64(n), fmt.Sprintf("high_keywords_x%d", n))
	}
	if n := countStems(mediumComplexityKeywords, tokens); n > 0 {
		add(+0.5*float64(n), fmt.Sprintf("medium_keywords_x%d", n))
	}
	if n := countWords(lowComplexityKeywords, tokens); n > 0 {
		add(-0.5*float64(n), fmt.Sprintf("low_keywords_x%d", n))
	}

	if q := strings.Count(msg, "?"); q > 1 {
		add(0.5*float64(q-1), fmt.Sprintf("questions_x%d", q))
	}

	if in.HistoryLength > longHistoryLen {
		add(+1.0, "long_history")
	}

	if n := countStems(technicalKeywords, tokens); n > 0 {
		add(+1.0, "technical_vocabulary")
	}

	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}
	return score
}

func matchEscalation(msg string) string {
	return escalationPattern.FindString(strings.ToLower(msg))
}

func countMatches(patterns []*regexp.Regexp, msg string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(msg) {
			n++
		}
	}
	return n
}

func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// countWords counts keywords present as full tokens. Used for the small-talk
// bucket, where "hi" must not fire inside "this" or "third".
func countWords(keywords []string, tokens []string) int {
	n := 0
	for _, kw := range keywords {
		for _, tok := range tokens {
			if tok == kw {
				n++
				break
			}
		}
	}
	return n
}

// countStems counts keywords present as a token prefix, so "allerg" covers
// "allergy", "allergies" and "allergic", and "cancel" covers "cancellation".
func countStems(stems []string, tokens []string) int {
	n := 0
	for _, stem := range stems {
		for _, tok := range tokens {
			if strings.HasPrefix(tok, stem) {
				n++
				break
			}
		}
	}
	return n
}
