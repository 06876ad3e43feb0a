package models

import (
	"encoding/json"
	"time"
)

type MatchStatus string

const (
	MatchPendingPlayer MatchStatus = "PENDING_PLAYER"
	MatchPendingCourt  MatchStatus = "PENDING_COURT"
	MatchInProgress    MatchStatus = "IN_PROGRESS"
	MatchCompleted     MatchStatus = "COMPLETED"
)

// Slot names one of a match's two participant positions. Propagation writes
// target exactly one slot of the successor match.
type Slot string

const (
	SlotP1 Slot = "p1"
	SlotP2 Slot = "p2"
)

// Other returns the opposite slot.
func (s Slot) Other() Slot {
	if s == SlotP1 {
		return SlotP2
	}
	return SlotP1
}

type MatchStage string

const (
	StageTagGroup    MatchStage = "group"
	StageTagKnockout MatchStage = "knockout"
)

// Round labels consumed verbatim by external renderers.
const (
	RoundLabelFinal      = "FI"
	RoundLabelThirdPlace = "3RD"
	RoundLabelSemi       = "SF"
	RoundLabelQuarter    = "QF"
	RoundLabelR16        = "R16"
)

// MatchSet is one completed or in-progress set inside a match. Winner and
// IsCompleted are frozen by the score recorder once the rule engine declares
// the set over.
type MatchSet struct {
	SetNumber   int   `json:"setNumber"`
	P1Score     int   `json:"p1Score"`
	P2Score     int   `json:"p2Score"`
	Winner      *Slot `json:"winner"`
	IsCompleted bool  `json:"isCompleted"`
}

// Match is one node of the category's bracket graph. NextMatchID points at
// the match the winner advances into (nil only for the final),
// LoserNextMatchID at the consolation destination where the format defines
// one. A match whose players are still unresolved sits in PENDING_PLAYER.
type Match struct {
	ID         int        `json:"id" db:"id"`
	CategoryID int        `json:"category_id" db:"category_id"`
	Round      int        `json:"round" db:"round"`
	MatchOrder int        `json:"matchOrder" db:"match_order"`
	Stage      MatchStage `json:"stage" db:"stage"`
	GroupLabel *string    `json:"groupLabel,omitempty" db:"group_label"`
	RoundLabel *string    `json:"roundLabel,omitempty" db:"round_label"`

	Player1ID   *int    `json:"player1Id" db:"player1_id"`
	Player2ID   *int    `json:"player2Id" db:"player2_id"`
	Player1Name *string `json:"player1Name,omitempty" db:"player1_name"`
	Player2Name *string `json:"player2Name,omitempty" db:"player2_name"`

	Sets        []MatchSet `json:"sets" db:"-"`
	P1Aggregate int        `json:"p1Aggregate" db:"p1_aggregate"`
	P2Aggregate int        `json:"p2Aggregate" db:"p2_aggregate"`

	Status   MatchStatus `json:"status" db:"status"`
	WinnerID *int        `json:"winnerId" db:"winner_id"`

	NextMatchID        *int  `json:"nextMatchId" db:"next_match_id"`
	NextMatchSlot      *Slot `json:"nextMatchSlot,omitempty" db:"next_match_slot"`
	LoserNextMatchID   *int  `json:"loserNextMatchId,omitempty" db:"loser_next_match_id"`
	LoserNextMatchSlot *Slot `json:"loserNextMatchSlot,omitempty" db:"loser_next_match_slot"`

	CourtID   *int      `json:"courtId,omitempty" db:"court_id"`
	IsBye     bool      `json:"isBye" db:"is_bye"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	SetsJSON []byte `json:"-" db:"sets"`
}

func (m *Match) DecodeSets() error {
	if len(m.SetsJSON) == 0 {
		m.Sets = []MatchSet{}
		return nil
	}
	return json.Unmarshal(m.SetsJSON, &m.Sets)
}

func (m *Match) EncodeSets() ([]byte, error) {
	if m.Sets == nil {
		m.Sets = []MatchSet{}
	}
	return json.Marshal(m.Sets)
}

// LoserID returns the id of the participant that lost a completed match, or
// nil when the match is not decided yet or was a bye.
func (m *Match) LoserID() *int {
	if m.WinnerID == nil || m.Player1ID == nil || m.Player2ID == nil {
		return nil
	}
	if *m.WinnerID == *m.Player1ID {
		return m.Player2ID
	}
	return m.Player1ID
}

// PlayerName returns the cached display name for the given slot.
func (m *Match) PlayerName(slot Slot) *string {
	if slot == SlotP1 {
		return m.Player1Name
	}
	return m.Player2Name
}
