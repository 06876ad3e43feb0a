package models

import "encoding/json"

type StageType string

const (
	StageRoundRobin StageType = "round_robin"
	StageKnockout   StageType = "knockout"
	StageGroup      StageType = "group_stage"
)

// FormatStage is one phase of a competition format. The sizing fields are
// interpreted per stage type:
//   - group_stage: Count groups, top Advance per group qualify, plus
//     BestThirdPlaces cross-group wildcards.
//   - knockout: Size is the bracket size, 0 meaning sized to the entrant
//     count; ThirdPlaceMatch adds a consolation final fed by both
//     semifinal losers.
//   - round_robin: no sizing, everyone plays everyone once.
type FormatStage struct {
	Type            StageType `json:"type"`
	Count           int       `json:"count,omitempty"`
	Advance         int       `json:"advance,omitempty"`
	BestThirdPlaces int       `json:"bestThirdPlaces,omitempty"`
	Size            int       `json:"size,omitempty"`
	ThirdPlaceMatch bool      `json:"thirdPlaceMatch,omitempty"`
}

type FormatDefinition struct {
	ID              int           `json:"id" db:"id"`
	Name            string        `json:"name" db:"name"`
	MinParticipants int           `json:"min_participants" db:"min_participants"`
	MaxParticipants int           `json:"max_participants" db:"max_participants"`
	Stages          []FormatStage `json:"stages" db:"-"`
	SupportSeeding  bool          `json:"support_seeding" db:"support_seeding"`

	StagesJSON []byte `json:"-" db:"stages"`
}

func (f *FormatDefinition) DecodeStages() error {
	if len(f.StagesJSON) == 0 {
		return nil
	}
	return json.Unmarshal(f.StagesJSON, &f.Stages)
}

// GroupStage returns the group stage of the format, or nil when the format
// has none.
func (f *FormatDefinition) GroupStage() *FormatStage {
	for i := range f.Stages {
		if f.Stages[i].Type == StageGroup {
			return &f.Stages[i]
		}
	}
	return nil
}

func (f *FormatDefinition) KnockoutStage() *FormatStage {
	for i := range f.Stages {
		if f.Stages[i].Type == StageKnockout {
			return &f.Stages[i]
		}
	}
	return nil
}
