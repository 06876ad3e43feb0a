package brackets

import (
	"fmt"

	"github.com/Danielkai0107/courtside/models"
)

// planRoundRobin appends an everyone-plays-everyone schedule for a single
// pool holding all entrants.
func planRoundRobin(plan *Plan, participants int) {
	seeds := make([]int, participants)
	for i := range seeds {
		seeds[i] = i + 1
	}
	matches := circleSchedule(seeds, "RR", nil)
	plan.Matches = append(plan.Matches, matches...)
	for _, m := range matches {
		if m.Round > plan.GroupRounds {
			plan.GroupRounds = m.Round
		}
	}
}

// circleSchedule produces round-robin pairings for the given entry seeds
// using the circle method: the first seed stays fixed, the rest rotate one
// position per round. No pairing repeats, every entrant plays at most once
// per round, and rest rounds fall out naturally for odd pools.
func circleSchedule(seeds []int, uidPrefix string, groupLabel *string) []*PlannedMatch {
	ring := make([]int, len(seeds))
	copy(ring, seeds)
	if len(ring)%2 != 0 {
		ring = append(ring, 0) // ghost opponent, pairing against it is a bye round
	}

	n := len(ring)
	matches := make([]*PlannedMatch, 0, len(seeds)*(len(seeds)-1)/2)
	order := 0
	for round := 1; round < n; round++ {
		for i := 0; i < n/2; i++ {
			a, b := ring[i], ring[n-1-i]
			if a == 0 || b == 0 {
				continue
			}
			order++
			matches = append(matches, &PlannedMatch{
				UID:        fmt.Sprintf("%s-R%d-M%d", uidPrefix, round, order),
				Stage:      models.StageTagGroup,
				Round:      round,
				Order:      order,
				GroupLabel: groupLabel,
				Seed1:      intPtr(a),
				Seed2:      intPtr(b),
			})
		}
		// Rotate everyone but the first position.
		last := ring[n-1]
		copy(ring[2:], ring[1:n-1])
		ring[1] = last
	}
	return matches
}
