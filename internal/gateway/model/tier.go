package model

// ModelTier is the ordered set of cost tiers a query can be dispatched to.
type ModelTier string

const (
	TierCheap     ModelTier = "cheap"
	TierMedium    ModelTier = "medium"
	TierExpensive ModelTier = "expensive"
)

// Tiers lists all tiers from cheapest to most expensive.
var Tiers = []ModelTier{TierCheap, TierMedium, TierExpensive}

// ParseTier returns the tier for s and whether s named a valid tier.
func ParseTier(s string) (ModelTier, bool) {
	switch ModelTier(s) {
	case TierCheap, TierMedium, TierExpensive:
		return ModelTier(s), true
	default:
		return "", false
	}
}

// Upgrade returns the next tier up. Expensive has no upgrade.
func (t ModelTier) Upgrade() ModelTier {
	switch t {
	case TierCheap:
		return TierMedium
	case TierMedium:
		return TierExpensive
	default:
		return TierExpensive
	}
}

func (t ModelTier) String() string {
	return string(t)
}
