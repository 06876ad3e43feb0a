package brackets

import (
	"fmt"
	"math/bits"
	"strconv"

	"github.com/Danielkai0107/courtside/models"
)

// planKnockout appends a single-elimination tree sized to the entrant count.
// roundOffset shifts the global round numbers when the tree follows a group
// stage. Seeds name entrant positions: registration seeds for a pure
// knockout, qualification ranks for a tree fed by groups.
func planKnockout(plan *Plan, stage models.FormatStage, entrants, roundOffset int) error {
	size := nextPowerOfTwo(entrants)
	if stage.Size > 0 {
		if stage.Size&(stage.Size-1) != 0 {
			return fmt.Errorf("%w: %d is not a power of two", ErrInvalidStageSize, stage.Size)
		}
		if stage.Size < entrants {
			return fmt.Errorf("%w: %d entrants do not fit in %d slots", ErrInvalidStageSize, entrants, stage.Size)
		}
		if entrants <= stage.Size/2 && stage.Size > 2 {
			return fmt.Errorf("%w: %d slots leave whole branches empty for %d entrants", ErrInvalidStageSize, stage.Size, entrants)
		}
		size = stage.Size
	}

	rounds := bits.TrailingZeros(uint(size)) // log2, size is a power of two
	positions := seedPositions(size)
	plan.KnockoutEntrants = entrants

	// Entry round: pair bracket positions two by two. A position whose seed
	// exceeds the entrant count is a bye granted to the paired seed; the
	// balanced seeding order spreads those across branches, top seeds first.
	for i := 0; i < size/2; i++ {
		a, b := positions[2*i], positions[2*i+1]
		m := &PlannedMatch{
			UID:        knockoutUID(1, i+1),
			Stage:      models.StageTagKnockout,
			Round:      roundOffset + 1,
			Order:      i + 1,
			RoundLabel: strPtr(knockoutRoundLabel(1, rounds)),
		}
		switch {
		case a <= entrants && b <= entrants:
			m.Seed1, m.Seed2 = intPtr(a), intPtr(b)
		case a <= entrants:
			m.Seed1, m.IsBye = intPtr(a), true
		case b <= entrants:
			m.Seed1, m.IsBye = intPtr(b), true
		default:
			// Unreachable for validated sizes: byes never outnumber pairs.
			return fmt.Errorf("%w: empty pairing at position %d", ErrInvalidStageSize, i+1)
		}
		plan.Matches = append(plan.Matches, m)
	}

	// Later rounds are pure placeholders fed by winner propagation.
	for r := 2; r <= rounds; r++ {
		count := size >> uint(r)
		for i := 1; i <= count; i++ {
			plan.Matches = append(plan.Matches, &PlannedMatch{
				UID:        knockoutUID(r, i),
				Stage:      models.StageTagKnockout,
				Round:      roundOffset + r,
				Order:      i,
				RoundLabel: strPtr(knockoutRoundLabel(r, rounds)),
			})
		}
	}

	// Winner links: match i of round r feeds slot p1/p2 of match (i+1)/2 in
	// round r+1. The final keeps WinnerTo nil.
	for r := 1; r < rounds; r++ {
		count := size >> uint(r)
		for i := 1; i <= count; i++ {
			m := plan.MatchByUID(knockoutUID(r, i))
			slot := models.SlotP1
			if i%2 == 0 {
				slot = models.SlotP2
			}
			m.WinnerTo = &SlotRef{MatchUID: knockoutUID(r+1, (i+1)/2), Slot: slot}
		}
	}

	if stage.ThirdPlaceMatch && rounds >= 2 {
		third := &PlannedMatch{
			UID:        "KO-3RD",
			Stage:      models.StageTagKnockout,
			Round:      roundOffset + rounds,
			Order:      2,
			RoundLabel: strPtr(models.RoundLabelThirdPlace),
		}
		plan.Matches = append(plan.Matches, third)
		for i := 1; i <= 2; i++ {
			sf := plan.MatchByUID(knockoutUID(rounds-1, i))
			slot := models.SlotP1
			if i == 2 {
				slot = models.SlotP2
			}
			sf.LoserTo = &SlotRef{MatchUID: third.UID, Slot: slot}
		}
	}

	return nil
}

func knockoutUID(round, order int) string {
	return fmt.Sprintf("KO-R%d-M%d", round, order)
}

// knockoutRoundLabel maps a round to the label vocabulary external renderers
// depend on: FI for the final, then SF, QF, R16 walking backwards, and the
// bare round number for anything earlier.
func knockoutRoundLabel(round, totalRounds int) string {
	switch totalRounds - round {
	case 0:
		return models.RoundLabelFinal
	case 1:
		return models.RoundLabelSemi
	case 2:
		return models.RoundLabelQuarter
	case 3:
		return models.RoundLabelR16
	default:
		return strconv.Itoa(round)
	}
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// seedPositions returns the entrant seeds in bracket-slot order for a full
// bracket of the given size, using the standard balanced placement: 1 meets
// size in the opening pairing, seeds 1 and 2 cannot meet before the final.
func seedPositions(size int) []int {
	positions := []int{1}
	for len(positions) < size {
		mirror := len(positions)*2 + 1
		next := make([]int, 0, len(positions)*2)
		for _, s := range positions {
			next = append(next, s, mirror-s)
		}
		positions = next
	}
	return positions
}
