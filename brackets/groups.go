package brackets

import (
	"fmt"
	"sort"

	"github.com/Danielkai0107/courtside/models"
)

// planGroups partitions the entrants into near-equal groups (size difference
// at most one) by snake distribution, then schedules an internal round robin
// per group.
func planGroups(plan *Plan, stage models.FormatStage, participants int) error {
	count := stage.Count
	if count < 1 {
		count = 1
	}
	advance := stage.Advance
	if advance < 1 {
		advance = 1
	}
	if participants < count*2 {
		return fmt.Errorf("%w: %d participants cannot fill %d groups", ErrNotEnoughParticipants, participants, count)
	}

	groups := make([][]int, count)
	for seed := 1; seed <= participants; seed++ {
		lap := (seed - 1) / count
		idx := (seed - 1) % count
		if lap%2 == 1 {
			idx = count - 1 - idx // snake back to keep strengths balanced
		}
		groups[idx] = append(groups[idx], seed)
	}

	for g, seeds := range groups {
		label := GroupLabel(g)
		matches := circleSchedule(seeds, "G"+label, strPtr(label))
		plan.Matches = append(plan.Matches, matches...)
		for _, m := range matches {
			if m.Round > plan.GroupRounds {
				plan.GroupRounds = m.Round
			}
		}
	}

	plan.HasGroupStage = true
	plan.GroupCount = count
	plan.GroupAdvance = advance
	plan.BestThirdPlaces = stage.BestThirdPlaces
	plan.Groups = groups
	return nil
}

// GroupLabel names the group at the given index: A, B, C, ...
func GroupLabel(index int) string {
	return string(rune('A' + index))
}

// Standing is one row of a group table. Points are one per match win; the
// sports this engine runs have no draws.
type Standing struct {
	PlayerID     int    `json:"player_id"`
	PlayerName   string `json:"player_name"`
	GroupLabel   string `json:"group_label"`
	Played       int    `json:"played"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Points       int    `json:"points"`
	ScoreFor     int    `json:"score_for"`
	ScoreAgainst int    `json:"score_against"`
	Rank         int    `json:"rank"`
}

func (s Standing) diff() int { return s.ScoreFor - s.ScoreAgainst }

// Qualifier is one entrant advancing out of the group stage, in knockout
// seeding order.
type Qualifier struct {
	PlayerID   int
	PlayerName string
	GroupLabel string
	GroupRank  int
}

// ComputeStandings builds ranked group tables from completed group-stage
// matches. Ranking inside a group: points, then head-to-head where exactly
// two entrants are tied, then point differential, then total points scored.
func ComputeStandings(matches []models.Match) map[string][]Standing {
	type key struct {
		group  string
		player int
	}
	rows := make(map[key]*Standing)
	winners := make(map[[2]int]int) // {a,b} with a<b -> winner id, head-to-head lookup

	for _, m := range matches {
		if m.Stage != models.StageTagGroup {
			continue
		}
		// A single round-robin pool carries no label and ranks as one table.
		label := ""
		if m.GroupLabel != nil {
			label = *m.GroupLabel
		}
		for _, side := range []struct {
			id   *int
			name *string
		}{{m.Player1ID, m.Player1Name}, {m.Player2ID, m.Player2Name}} {
			if side.id == nil {
				continue
			}
			k := key{group: label, player: *side.id}
			if _, ok := rows[k]; !ok {
				name := ""
				if side.name != nil {
					name = *side.name
				}
				rows[k] = &Standing{PlayerID: *side.id, PlayerName: name, GroupLabel: label}
			}
		}
		if m.Status != models.MatchCompleted || m.WinnerID == nil || m.Player1ID == nil || m.Player2ID == nil {
			continue
		}

		var p1For, p2For int
		for _, set := range m.Sets {
			p1For += set.P1Score
			p2For += set.P2Score
		}
		r1 := rows[key{label, *m.Player1ID}]
		r2 := rows[key{label, *m.Player2ID}]
		r1.Played++
		r2.Played++
		r1.ScoreFor += p1For
		r1.ScoreAgainst += p2For
		r2.ScoreFor += p2For
		r2.ScoreAgainst += p1For
		if *m.WinnerID == *m.Player1ID {
			r1.Wins++
			r1.Points++
			r2.Losses++
		} else {
			r2.Wins++
			r2.Points++
			r1.Losses++
		}
		winners[pairKey(*m.Player1ID, *m.Player2ID)] = *m.WinnerID
	}

	tables := make(map[string][]Standing)
	for k, row := range rows {
		tables[k.group] = append(tables[k.group], *row)
	}
	for group, table := range tables {
		sort.Slice(table, func(i, j int) bool {
			a, b := table[i], table[j]
			if a.Points != b.Points {
				return a.Points > b.Points
			}
			if w, ok := winners[pairKey(a.PlayerID, b.PlayerID)]; ok {
				// Head-to-head only settles a two-way tie; with three or
				// more tied on points it cycles, and differential decides.
				if tiedCount(table, a.Points) == 2 {
					return w == a.PlayerID
				}
			}
			if a.diff() != b.diff() {
				return a.diff() > b.diff()
			}
			if a.ScoreFor != b.ScoreFor {
				return a.ScoreFor > b.ScoreFor
			}
			return a.PlayerID < b.PlayerID
		})
		for i := range table {
			table[i].Rank = i + 1
		}
		tables[group] = table
	}
	return tables
}

func tiedCount(table []Standing, points int) int {
	n := 0
	for _, s := range table {
		if s.Points == points {
			n++
		}
	}
	return n
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// SelectQualifiers picks the knockout entrants from ranked group tables:
// the top advance rows of every group, plus the bestThirds best rows at the
// next rank across groups. Wildcards rank on points, then differential,
// then points scored; head-to-head does not apply across groups. Seeding
// order alternates group direction per rank so group mates land in opposite
// bracket halves.
func SelectQualifiers(tables map[string][]Standing, groupCount, advance, bestThirds int) []Qualifier {
	qualifiers := make([]Qualifier, 0, groupCount*advance+bestThirds)

	for rank := 1; rank <= advance; rank++ {
		for g := 0; g < groupCount; g++ {
			idx := g
			if rank%2 == 0 {
				idx = groupCount - 1 - g
			}
			table := tables[GroupLabel(idx)]
			if rank <= len(table) {
				row := table[rank-1]
				qualifiers = append(qualifiers, Qualifier{
					PlayerID:   row.PlayerID,
					PlayerName: row.PlayerName,
					GroupLabel: row.GroupLabel,
					GroupRank:  row.Rank,
				})
			}
		}
	}

	if bestThirds > 0 {
		wildcardRank := advance + 1
		var thirds []Standing
		for g := 0; g < groupCount; g++ {
			table := tables[GroupLabel(g)]
			if wildcardRank <= len(table) {
				thirds = append(thirds, table[wildcardRank-1])
			}
		}
		sort.Slice(thirds, func(i, j int) bool {
			a, b := thirds[i], thirds[j]
			if a.Points != b.Points {
				return a.Points > b.Points
			}
			if a.diff() != b.diff() {
				return a.diff() > b.diff()
			}
			if a.ScoreFor != b.ScoreFor {
				return a.ScoreFor > b.ScoreFor
			}
			return a.PlayerID < b.PlayerID
		})
		if len(thirds) > bestThirds {
			thirds = thirds[:bestThirds]
		}
		for _, row := range thirds {
			qualifiers = append(qualifiers, Qualifier{
				PlayerID:   row.PlayerID,
				PlayerName: row.PlayerName,
				GroupLabel: row.GroupLabel,
				GroupRank:  row.Rank,
			})
		}
	}

	return qualifiers
}
