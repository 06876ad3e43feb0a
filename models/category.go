package models

import "time"

// CategoryStatus mirrors the ENUM in the categories table.
type CategoryStatus string

const (
	CategoryRegistration CategoryStatus = "REGISTRATION"
	CategoryProcessing   CategoryStatus = "PROCESSING"
	CategoryOngoing      CategoryStatus = "ONGOING"
	CategoryCompleted    CategoryStatus = "COMPLETED"
	CategoryCancelled    CategoryStatus = "CANCELLED"
)

// Category is one competition inside a tournament. ScoringConfig and
// FormatConfig are deep copies taken from the catalogs at creation time and
// never change once the status leaves REGISTRATION.
type Category struct {
	ID                  int            `json:"id" db:"id"`
	TournamentID        int            `json:"tournament_id" db:"tournament_id"`
	Name                string         `json:"name" db:"name"`
	SportID             int            `json:"sport_id" db:"sport_id"`
	RulePresetID        int            `json:"rule_preset_id" db:"rule_preset_id"`
	FormatID            int            `json:"format_id" db:"format_id"`
	Status              CategoryStatus `json:"status" db:"status"`
	CurrentParticipants int            `json:"current_participants" db:"current_participants"`
	MaxParticipants     int            `json:"max_participants" db:"max_participants"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`

	ScoringConfig ScoringConfig    `json:"scoring_config"`
	FormatConfig  FormatDefinition `json:"format_config"`

	// Optional linked data, populated by services.
	Entries []CategoryEntry `json:"entries,omitempty" db:"-"`
	Matches []Match         `json:"matches,omitempty" db:"-"`
}

// CategoryEntry is one registered participant of a category. Seed 1 is the
// strongest entry; seeds drive bye placement in knockout brackets.
type CategoryEntry struct {
	ID         int       `json:"id" db:"id"`
	CategoryID int       `json:"category_id" db:"category_id"`
	PlayerID   int       `json:"player_id" db:"player_id"`
	PlayerName string    `json:"player_name" db:"player_name"`
	Seed       int       `json:"seed" db:"seed"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
