// Package rules evaluates raw scores against a frozen ScoringConfig. All
// functions are pure and total over configs that passed Validate; they are
// the single source of truth for set and match completion across sports.
package rules

import (
	"errors"
	"fmt"

	"github.com/Danielkai0107/courtside/models"
)

var (
	ErrInvalidMatchType    = errors.New("scoring config: unknown match type")
	ErrInvalidPointsPerSet = errors.New("scoring config: pointsPerSet must be positive")
	ErrInvalidSetsToWin    = errors.New("scoring config: setsToWin must be the smallest majority of maxSets")
	ErrInvalidCap          = errors.New("scoring config: cap must be at least pointsPerSet")
)

// SetResult is the decision for a single set.
type SetResult struct {
	IsCompleted bool
	Winner      *models.Slot
}

// MatchResult is the decision for a whole match.
type MatchResult struct {
	IsCompleted bool
	Winner      *models.Slot
}

// ValidateConfig checks a ScoringConfig once, at snapshot time. Scoring-time
// evaluation never re-validates: frozen configs are trusted.
func ValidateConfig(cfg models.ScoringConfig) error {
	switch cfg.MatchType {
	case models.MatchTypeSetBased, models.MatchTypePointBased:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMatchType, cfg.MatchType)
	}
	if cfg.PointsPerSet <= 0 {
		return ErrInvalidPointsPerSet
	}
	if cfg.MatchType == models.MatchTypeSetBased {
		if cfg.MaxSets <= 0 || cfg.SetsToWin != cfg.MaxSets/2+1 {
			return fmt.Errorf("%w: setsToWin=%d maxSets=%d", ErrInvalidSetsToWin, cfg.SetsToWin, cfg.MaxSets)
		}
	}
	if cfg.Cap != nil && *cfg.Cap < cfg.PointsPerSet {
		return fmt.Errorf("%w: cap=%d pointsPerSet=%d", ErrInvalidCap, *cfg.Cap, cfg.PointsPerSet)
	}
	return nil
}

// EvaluateSet decides whether a set is over and who won it. A set completes
// when the leader reaches pointsPerSet with the required margin, or reaches
// the cap. The cap always short-circuits the win-by-two requirement: a
// one-point lead at the cap wins outright.
func EvaluateSet(cfg models.ScoringConfig, p1Score, p2Score int) SetResult {
	leader, lead := models.SlotP1, p1Score
	trail := p2Score
	if p2Score > p1Score {
		leader, lead, trail = models.SlotP2, p2Score, p1Score
	}
	if lead == trail {
		return SetResult{}
	}

	if cfg.Cap != nil && lead >= *cfg.Cap {
		return SetResult{IsCompleted: true, Winner: &leader}
	}
	if lead >= cfg.PointsPerSet && (!cfg.WinByTwo || lead-trail >= 2) {
		return SetResult{IsCompleted: true, Winner: &leader}
	}
	return SetResult{}
}

// EvaluateMatch decides whether the match as a whole is over. For set_based
// configs the match completes when either side has won setsToWin sets; for
// point_based configs the match is a single set and completion mirrors set
// completion.
func EvaluateMatch(cfg models.ScoringConfig, sets []models.MatchSet) MatchResult {
	switch cfg.MatchType {
	case models.MatchTypePointBased:
		if len(sets) == 0 {
			return MatchResult{}
		}
		res := EvaluateSet(cfg, sets[0].P1Score, sets[0].P2Score)
		return MatchResult{IsCompleted: res.IsCompleted, Winner: res.Winner}
	case models.MatchTypeSetBased:
		p1Won, p2Won := CountWonSets(sets)
		if p1Won >= cfg.SetsToWin {
			w := models.SlotP1
			return MatchResult{IsCompleted: true, Winner: &w}
		}
		if p2Won >= cfg.SetsToWin {
			w := models.SlotP2
			return MatchResult{IsCompleted: true, Winner: &w}
		}
		return MatchResult{}
	default:
		return MatchResult{}
	}
}

// CountWonSets tallies completed sets per side.
func CountWonSets(sets []models.MatchSet) (p1, p2 int) {
	for _, s := range sets {
		if !s.IsCompleted || s.Winner == nil {
			continue
		}
		switch *s.Winner {
		case models.SlotP1:
			p1++
		case models.SlotP2:
			p2++
		}
	}
	return p1, p2
}

// IsNearWin reports whether a score is close enough to set point to warrant
// a UI hint. Display-only; never used for completion decisions.
func IsNearWin(cfg models.ScoringConfig, score int) bool {
	if cfg.WinByTwo {
		return score >= cfg.PointsPerSet-2
	}
	return score >= cfg.PointsPerSet-1
}

// IsDeuce reports whether play has entered the extended win-by-two region:
// both sides at the target or beyond and less than two points apart.
func IsDeuce(cfg models.ScoringConfig, p1Score, p2Score int) bool {
	if !cfg.WinByTwo {
		return false
	}
	diff := p1Score - p2Score
	if diff < 0 {
		diff = -diff
	}
	return p1Score >= cfg.PointsPerSet && p2Score >= cfg.PointsPerSet && diff < 2
}
