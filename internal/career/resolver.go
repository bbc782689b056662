package career

import (
	"math/rand"
	"time"

	"github.com/user/campo-8bit/internal/types"
)

// Resolution is the mechanical result of a choice, computed before the
// narrative is generated
type Resolution struct {
	Tier        types.RiskTier
	Attribute   types.AttributeKey
	Probability float64
	Draw        float64
	Success     bool
	Outcome     types.OutcomeType
	Multiplier  float64
}

// OutcomeResolver draws probabilistic success against an attribute-adjusted
// base chance per risk tier
type OutcomeResolver struct {
	rng *rand.Rand
}

// NewOutcomeResolver creates a resolver with a seeded random number generator
func NewOutcomeResolver() *OutcomeResolver {
	return &OutcomeResolver{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewOutcomeResolverWithSource creates a resolver with a fixed random source
func NewOutcomeResolverWithSource(src rand.Source) *OutcomeResolver {
	return &OutcomeResolver{rng: rand.New(src)}
}

// SuccessProbability computes the chance of success for an attribute value
// and risk tier, clamped to [0.05, 0.95]
func SuccessProbability(attributeValue int, tier types.RiskTier) float64 {
	var base float64
	switch tier {
	case types.RiskLow:
		base = 0.80
	case types.RiskHigh:
		base = 0.40
	default:
		base = 0.60
	}

	probability := base + float64(attributeValue-10)*0.03
	if probability < 0.05 {
		return 0.05
	}
	if probability > 0.95 {
		return 0.95
	}
	return probability
}

// OutcomeFor maps a (success, tier) pair to its outcome tag
func OutcomeFor(success bool, tier types.RiskTier) types.OutcomeType {
	if success {
		if tier == types.RiskHigh {
			return types.OutcomeDecisivo
		}
		return types.OutcomePositivo
	}
	if tier == types.RiskHigh {
		return types.OutcomeNegativo
	}
	return types.OutcomeNeutro
}

// RewardMultiplier returns the stat/XP multiplier for a risk tier
func RewardMultiplier(tier types.RiskTier) float64 {
	switch tier {
	case types.RiskLow:
		return 1.0
	case types.RiskHigh:
		return 2.5
	default:
		return 1.5
	}
}

// ResolveWithDraw resolves a choice given an explicit uniform draw in [0,1).
// Split out so tests can pin the draw.
func ResolveWithDraw(attribute types.AttributeKey, attributeValue int, tier types.RiskTier, draw float64) Resolution {
	probability := SuccessProbability(attributeValue, tier)
	success := draw < probability

	return Resolution{
		Tier:        tier,
		Attribute:   attribute,
		Probability: probability,
		Draw:        draw,
		Success:     success,
		Outcome:     OutcomeFor(success, tier),
		Multiplier:  RewardMultiplier(tier),
	}
}

// Resolve draws a uniform random number and resolves the choice
func (r *OutcomeResolver) Resolve(attribute types.AttributeKey, attributeValue int, tier types.RiskTier) Resolution {
	return ResolveWithDraw(attribute, attributeValue, tier, r.rng.Float64())
}
