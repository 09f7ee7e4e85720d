package achievement

import (
	"github.com/codm-arena/arena-hub/internal/domain/rating"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONDITION EVALUATION
// ══════════════════════════════════════════════════════════════════════════════

// conditionFn evaluates one condition type against a player's stats.
type conditionFn func(stats *rating.PlayerStats, value int64) bool

// conditions is the fixed dispatch table keyed by ConditionType.
// Anything absent from this table evaluates to false.
var conditions = map[ConditionType]conditionFn{
	ConditionAccountCreated: func(_ *rating.PlayerStats, _ int64) bool {
		return true
	},
	ConditionMatchesPlayed: func(s *rating.PlayerStats, v int64) bool {
		return int64(s.MatchesPlayed) >= v
	},
	ConditionMatchesWon: func(s *rating.PlayerStats, v int64) bool {
		return int64(s.MatchesWon) >= v
	},
	ConditionTournamentsPlayed: func(s *rating.PlayerStats, v int64) bool {
		return int64(s.TournamentsPlayed) >= v
	},
	ConditionTournamentsWon: func(s *rating.PlayerStats, v int64) bool {
		return int64(s.TournamentsWon) >= v
	},
	ConditionRating: func(s *rating.PlayerStats, v int64) bool {
		return int64(s.Rating) >= v
	},
	ConditionUserID: func(s *rating.PlayerStats, v int64) bool {
		return int64(s.UserID) <= v
	},
}

// Evaluator checks achievement conditions against player stats.
// It is stateless and safe for concurrent use; each evaluation reads an
// immutable catalog snapshot passed in by the caller.
type Evaluator struct{}

// NewEvaluator creates an evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Met reports whether the stats satisfy the definition's condition.
// Unrecognized condition types never unlock.
func (e *Evaluator) Met(def *Definition, stats *rating.PlayerStats) bool {
	fn, ok := conditions[def.ConditionType]
	if !ok {
		return false
	}
	return fn(stats, def.ConditionValue)
}

// Unmet returns the definitions from the catalog snapshot that the player
// has not yet unlocked, in catalog order.
func (e *Evaluator) Unmet(catalog []*Definition, unlockedIDs []int64) []*Definition {
	unlocked := make(map[int64]bool, len(unlockedIDs))
	for _, id := range unlockedIDs {
		unlocked[id] = true
	}

	var remaining []*Definition
	for _, def := range catalog {
		if !unlocked[def.ID] {
			remaining = append(remaining, def)
		}
	}
	return remaining
}

// Eligible returns the unmet definitions whose conditions the stats satisfy.
func (e *Evaluator) Eligible(catalog []*Definition, unlockedIDs []int64, stats *rating.PlayerStats) []*Definition {
	var eligible []*Definition
	for _, def := range e.Unmet(catalog, unlockedIDs) {
		if e.Met(def, stats) {
			eligible = append(eligible, def)
		}
	}
	return eligible
}
