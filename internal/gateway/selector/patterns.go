package selector

import (
	"regexp"
	"strings"
)

// Pattern sets behind the complexity score. Simple-FAQ shapes pull the score
// toward the cheap tier; multi-part, comparative and complaint shapes push it
// toward the expensive one.
var (
	simpleFAQPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bwhat (time|days?) (do you|are you) (open|close)`),
		regexp.MustCompile(`(?i)\bwhere (are you|is the)\b`),
		regexp.MustCompile(`(?i)\bdo you (have|take|accept)\b`),
		regexp.MustCompile(`(?i)\bhow much (is|does|costs?)\b`),
		regexp.MustCompile(`(?i)\b(opening|business) hours\b`),
		regexp.MustCompile(`(?i)\b(thanks?|thank you|ok(ay)?|great)\b`),
	}

	complexPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(compare|versus|vs\.?|difference between)\b`),
		regexp.MustCompile(`(?i)\b(and also|as well as|in addition|additionally)\b`),
		regexp.MustCompile(`(?i)\b(first|second(ly)?|third(ly)?|finally)\b.*\b(then|next|after)\b`),
		regexp.MustCompile(`(?i)\b(why|how come|explain)\b.*\b(instead|rather than)\b`),
		regexp.MustCompile(`(?i)\b(not happy|disappointed|went wrong|issue with|problem with)\b`),
	}
)

// Escalation keywords force the expensive tier unconditionally. This check
// can never be downgraded by scoring, role or traffic split.
var escalationKeywords = []string{
	"complaint",
	"refund",
	"lawyer",
	"legal",
	"manager",
	"sue",
	"unacceptable",
	"chargeback",
}

// escalationPattern matches the keywords as whole words, optionally plural:
// "sue them" and "refunds" escalate, "issue" does not.
var escalationPattern = regexp.MustCompile(`\b(` + strings.Join(escalationKeywords, "|") + `)s?\b`)

// Keyword buckets nudge the score: high-complexity vocabulary up, small-talk down.
var (
	highComplexityKeywords = []string{
		"negotiate", "corporate", "wedding", "event", "catering",
		"reschedule", "modify", "cancel", "policy",
	}
	mediumComplexityKeywords = []string{
		"recommend", "suggest", "availability", "options", "group",
	}
	lowComplexityKeywords = []string{
		"hi", "hello", "hey", "thanks", "bye",
	}
)

// Technical or constraint vocabulary implies an answer that must be precise.
var technicalKeywords = []string{
	"allerg", "gluten", "vegan", "vegetarian", "custom", "exact",
	"dietary", "kosher", "halal",
}

// Elevated caller roles get at least the medium tier.
var elevatedRoles = map[string]bool{
	"admin":   true,
	"staff":   true,
	"manager": true,
}
