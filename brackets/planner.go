// Package brackets compiles a frozen format definition and a participant
// count into an abstract match topology, and hosts the websocket hub that
// pushes live bracket state to subscribers.
package brackets

import (
	"errors"
	"fmt"

	"github.com/Danielkai0107/courtside/models"
)

var (
	ErrNotEnoughParticipants = errors.New("not enough participants for format")
	ErrTooManyParticipants   = errors.New("too many participants for format")
	ErrUnsupportedStages     = errors.New("unsupported stage sequence in format")
	ErrInvalidStageSize      = errors.New("invalid explicit knockout stage size")
)

// SlotRef addresses one participant slot of a planned match.
type SlotRef struct {
	MatchUID string
	Slot     models.Slot
}

// PlannedMatch is one abstract match slot. Seed1/Seed2 are 1-based entrant
// positions (qualification ranks for a knockout fed by groups); nil means
// the slot is filled later, by winner propagation or a bye.
type PlannedMatch struct {
	UID        string
	Stage      models.MatchStage
	Round      int
	Order      int
	GroupLabel *string
	RoundLabel *string

	Seed1 *int
	Seed2 *int
	IsBye bool

	WinnerTo *SlotRef
	LoserTo  *SlotRef
}

// Plan is the full abstract topology for one category. Matches are ordered
// by stage, round, order; rounds are numbered globally so a match's round is
// always strictly less than its successor's.
type Plan struct {
	Matches []*PlannedMatch

	HasGroupStage    bool
	GroupCount       int
	GroupAdvance     int
	BestThirdPlaces  int
	Groups           [][]int // entry seeds per group, snake-distributed
	GroupRounds      int
	KnockoutEntrants int // seeded slots of the knockout stage, 0 if none
}

// MatchByUID returns the planned match with the given UID, or nil.
func (p *Plan) MatchByUID(uid string) *PlannedMatch {
	for _, m := range p.Matches {
		if m.UID == uid {
			return m
		}
	}
	return nil
}

// PlanFormat validates the participant count against the format's range and
// compiles the ordered stage list into a topology. Supported sequences:
// [knockout], [round_robin], [group_stage], [group_stage, knockout].
func PlanFormat(def models.FormatDefinition, participants int) (*Plan, error) {
	if participants < def.MinParticipants || participants < 2 {
		return nil, fmt.Errorf("%w: have %d, need at least %d", ErrNotEnoughParticipants, participants, max(def.MinParticipants, 2))
	}
	if def.MaxParticipants > 0 && participants > def.MaxParticipants {
		return nil, fmt.Errorf("%w: have %d, format allows %d", ErrTooManyParticipants, participants, def.MaxParticipants)
	}

	plan := &Plan{}

	switch {
	case len(def.Stages) == 1 && def.Stages[0].Type == models.StageKnockout:
		if err := planKnockout(plan, def.Stages[0], participants, 0); err != nil {
			return nil, err
		}
	case len(def.Stages) == 1 && def.Stages[0].Type == models.StageRoundRobin:
		planRoundRobin(plan, participants)
	case len(def.Stages) == 1 && def.Stages[0].Type == models.StageGroup:
		if err := planGroups(plan, def.Stages[0], participants); err != nil {
			return nil, err
		}
	case len(def.Stages) == 2 && def.Stages[0].Type == models.StageGroup && def.Stages[1].Type == models.StageKnockout:
		if err := planGroups(plan, *def.GroupStage(), participants); err != nil {
			return nil, err
		}
		entrants := plan.GroupCount*plan.GroupAdvance + plan.BestThirdPlaces
		if err := planKnockout(plan, *def.KnockoutStage(), entrants, plan.GroupRounds); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedStages, stageTypes(def.Stages))
	}

	return plan, nil
}

func stageTypes(stages []models.FormatStage) []models.StageType {
	types := make([]models.StageType, len(stages))
	for i, s := range stages {
		types[i] = s.Type
	}
	return types
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
