package career

import "github.com/user/campo-8bit/internal/types"

// DefaultPotential is the ceiling applied when no per-attribute potential is configured
const DefaultPotential = 20

// CostToNextPoint returns the XP cost to raise an attribute from its current
// value to the next point. Values at or below 2 cost nothing, so the formula
// can never go negative.
func CostToNextPoint(current int) int {
	cost := 5 * (current - 2)
	if cost < 0 {
		return 0
	}
	return cost
}

// Potential returns the ceiling for an attribute. All attributes share the
// flat default for now.
func Potential(attr types.AttributeKey) int {
	return DefaultPotential
}

// ApplyLeveling applies at most one level-up to the focused attribute. It
// returns the improvement (nil if none happened) and the remaining XP pool.
// A single conditional increment per call, never a drain loop.
func ApplyLeveling(attrs *types.Attributes, focus types.AttributeKey, xpPool int) (*types.AttributeImprovement, int) {
	if focus == "" {
		return nil, xpPool
	}

	current := attrs.Value(focus)
	if current >= Potential(focus) {
		return nil, xpPool
	}

	cost := CostToNextPoint(current)
	if xpPool < cost {
		return nil, xpPool
	}

	attrs.Set(focus, current+1)
	return &types.AttributeImprovement{
		Name:     focus,
		OldValue: current,
		NewValue: current + 1,
	}, xpPool - cost
}

// AgeMultiplier scales XP gains by career phase: young players learn faster,
// veterans slower.
func AgeMultiplier(age int) float64 {
	switch {
	case age <= 22:
		return 1.2
	case age >= 28:
		return 0.7
	default:
		return 1.0
	}
}
