package models

import "encoding/json"

type MatchType string

const (
	MatchTypeSetBased   MatchType = "set_based"
	MatchTypePointBased MatchType = "point_based"
)

// ScoringConfig is the win-condition rule set for one sport mode. A copy of
// it is frozen onto every category at creation time, so a running category
// never observes later preset edits.
type ScoringConfig struct {
	MatchType    MatchType `json:"matchType"`
	PointsPerSet int       `json:"pointsPerSet"`
	SetsToWin    int       `json:"setsToWin"`
	MaxSets      int       `json:"maxSets"`
	WinByTwo     bool      `json:"winByTwo"`
	Cap          *int      `json:"cap,omitempty"`
	TieBreakAt   *int      `json:"tieBreakAt,omitempty"`
}

// RulePreset is one selectable rule variant owned by a sport, e.g.
// "BWF best of 3 to 21" or "USAP rally scoring to 11".
type RulePreset struct {
	ID            int           `json:"id" db:"id"`
	SportID       int           `json:"sport_id" db:"sport_id"`
	Label         string        `json:"label" db:"label"`
	Description   *string       `json:"description,omitempty" db:"description"`
	ScoringConfig ScoringConfig `json:"scoring_config" db:"-"`

	ScoringConfigJSON []byte `json:"-" db:"scoring_config"`
}

type Sport struct {
	ID              int      `json:"id" db:"id"`
	Name            string   `json:"name" db:"name"`
	Modes           []string `json:"modes" db:"modes"`
	DefaultPresetID *int     `json:"default_preset_id,omitempty" db:"default_preset_id"`
	IsActive        bool     `json:"is_active" db:"is_active"`
	Order           int      `json:"order" db:"sort_order"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	Presets []RulePreset `json:"presets,omitempty" db:"-"`
}

// PresetByID returns the preset with the given id from the loaded preset
// list, or nil if it is absent.
func (s *Sport) PresetByID(presetID int) *RulePreset {
	for i := range s.Presets {
		if s.Presets[i].ID == presetID {
			return &s.Presets[i]
		}
	}
	return nil
}

func (p *RulePreset) DecodeScoringConfig() error {
	if len(p.ScoringConfigJSON) == 0 {
		return nil
	}
	return json.Unmarshal(p.ScoringConfigJSON, &p.ScoringConfig)
}
