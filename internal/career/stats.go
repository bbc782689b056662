package career

import (
	"fmt"
	"math"
	"strings"

	"github.com/user/campo-8bit/internal/types"
)

// Narrative keyword lists for match-stat detection, evaluated in order
var (
	goalKeywords    = []string{"golaço", "marca o gol", "balança as redes", "bola na rede", "gol!"}
	assistKeywords  = []string{"assistência", "passe decisivo", "cruzamento preciso", "deixa na cara"}
	defenseKeywords = []string{"defesa decisiva", "desarme providencial", "corte salvador", "bloqueio no último instante"}
)

// followerBase is the follower delta per outcome type before scaling
var followerBase = map[types.OutcomeType]int{
	types.OutcomeDecisivo:    400,
	types.OutcomePositivo:    150,
	types.OutcomeEstrategico: 200,
	types.OutcomeNeutro:      25,
	types.OutcomeNegativo:    -100,
}

// followerMilestones trigger a milestone message when crossed upward
var followerMilestones = []int{1_000, 10_000, 100_000, 1_000_000}

// DeriveMatchStats infers goals, assists, key defenses and a 0-2 rating from
// the match narrative, scaled by the reward multiplier on success. These are
// narrative-flavored heuristics, not a match simulation.
func DeriveMatchStats(narrative string, position string, res Resolution) types.MatchStats {
	text := strings.ToLower(narrative)

	stats := types.MatchStats{}
	if res.Success {
		if containsAny(text, goalKeywords) {
			stats.Goals = 1
		}
		if containsAny(text, assistKeywords) {
			stats.Assists = 1
		}
		if containsAny(text, defenseKeywords) || isDefensivePosition(position) && res.Outcome == types.OutcomeDecisivo {
			stats.KeyDefenses = 1
		}

		// A decisive high-risk play with no detected event still counts as a goal
		if stats.Goals == 0 && stats.Assists == 0 && stats.KeyDefenses == 0 && res.Outcome == types.OutcomeDecisivo {
			stats.Goals = 1
		}

		stats.Rating = math.Min(2.0, 1.0*res.Multiplier)
	} else {
		if res.Outcome == types.OutcomeNegativo {
			stats.Rating = 0.3
		} else {
			stats.Rating = 0.6
		}
	}

	return stats
}

// FollowerDelta computes the follower change for a resolution. Successful
// plays scale with the reward multiplier; losses do not.
func FollowerDelta(res Resolution) int {
	base := followerBase[res.Outcome]
	if res.Success && base > 0 {
		return int(math.Round(float64(base) * res.Multiplier))
	}
	return base
}

// MilestoneMessage returns a message if the follower count crossed a
// milestone between before and after, or an empty string
func MilestoneMessage(before, after int) string {
	for i := len(followerMilestones) - 1; i >= 0; i-- {
		m := followerMilestones[i]
		if before < m && after >= m {
			return fmt.Sprintf("Sua torcida cresceu: %s seguidores!", formatFollowers(m))
		}
	}
	return ""
}

func formatFollowers(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%dM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%dk", n/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func isDefensivePosition(position string) bool {
	p := strings.ToLower(position)
	return strings.Contains(p, "zagueiro") || strings.Contains(p, "goleiro") || strings.Contains(p, "lateral") || strings.Contains(p, "volante")
}
