package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Danielkai0107/courtside/models"
	"github.com/Danielkai0107/courtside/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent [][]string
}

func (n *recordingNotifier) Send(_ context.Context, to []string, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, to)
	return nil
}

func newScoreServiceUnderTest(e *env, notifier notify.Notifier) ScoreService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return NewScoreService(e.db, e.categories, e.matches, e.players, e.hub, notifier, e.logger)
}

// generateAndList seeds a category, runs bracket generation and returns the
// ordered match list.
func generateAndList(t *testing.T, e *env, format models.FormatDefinition, players int) (*models.Category, []*models.Match) {
	t.Helper()
	ctx := context.Background()
	category := seedCategory(t, e, format, bestOfThree(), players)
	_, err := newBracketServiceUnderTest(e).GenerateBracket(ctx, category.ID)
	require.NoError(t, err)
	matches, err := e.matches.ListByCategory(ctx, category.ID, nil, nil)
	require.NoError(t, err)
	stored, err := e.categories.GetByID(ctx, category.ID)
	require.NoError(t, err)
	return stored, matches
}

func matchAt(t *testing.T, e *env, categoryID int, stage models.MatchStage, round, order int) *models.Match {
	t.Helper()
	matches, err := e.matches.ListByCategory(context.Background(), categoryID, nil, nil)
	require.NoError(t, err)
	for _, m := range matches {
		if m.Stage == stage && m.Round == round && m.MatchOrder == order {
			return m
		}
	}
	t.Fatalf("no %s match at round %d order %d in category %d", stage, round, order, categoryID)
	return nil
}

func groupMatchByLabel(t *testing.T, e *env, categoryID int, label string) *models.Match {
	t.Helper()
	stage := models.StageTagGroup
	matches, err := e.matches.ListByCategory(context.Background(), categoryID, &stage, nil)
	require.NoError(t, err)
	for _, m := range matches {
		if m.GroupLabel != nil && *m.GroupLabel == label {
			return m
		}
	}
	t.Fatalf("no group %s match in category %d", label, categoryID)
	return nil
}

func recordSet(t *testing.T, svc ScoreService, matchID, setNumber, p1, p2 int) *models.Match {
	t.Helper()
	match, err := svc.RecordScore(context.Background(), matchID, RecordScoreInput{SetNumber: setNumber, P1Score: p1, P2Score: p2})
	require.NoError(t, err)
	return match
}

// winStraightSets completes a best-of-three match for the given slot.
func winStraightSets(t *testing.T, svc ScoreService, matchID int, winner models.Slot) *models.Match {
	t.Helper()
	if winner == models.SlotP1 {
		recordSet(t, svc, matchID, 1, 21, 10)
		return recordSet(t, svc, matchID, 2, 21, 12)
	}
	recordSet(t, svc, matchID, 1, 10, 21)
	return recordSet(t, svc, matchID, 2, 12, 21)
}

func TestRecordScoreProgression(t *testing.T) {
	e := newEnv(t)
	category, matches := generateAndList(t, e, knockoutDef(2, 2, models.FormatStage{}), 2)
	require.Len(t, matches, 1)
	matchID := matches[0].ID
	svc := newScoreServiceUnderTest(e, nil)
	ctx := context.Background()

	// An in-progress set score moves the match off PENDING_COURT without
	// completing anything.
	match := recordSet(t, svc, matchID, 1, 15, 10)
	assert.Equal(t, models.MatchInProgress, match.Status)
	assert.Equal(t, 0, match.P1Aggregate)

	// The same set reported again with its final score freezes it.
	match = recordSet(t, svc, matchID, 1, 21, 15)
	require.Len(t, match.Sets, 1)
	assert.True(t, match.Sets[0].IsCompleted)
	assert.Equal(t, 1, match.P1Aggregate)
	assert.Equal(t, models.MatchInProgress, match.Status)

	match = recordSet(t, svc, matchID, 2, 21, 12)
	assert.Equal(t, models.MatchCompleted, match.Status)
	require.NotNil(t, match.WinnerID)
	assert.Equal(t, 1, *match.WinnerID)
	assert.Equal(t, 2, match.P1Aggregate)

	// The final match of the category completes the category.
	stored, err := e.categories.GetByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryCompleted, stored.Status)

	// Redelivering the decisive report is a no-op even now.
	match, err = svc.RecordScore(ctx, matchID, RecordScoreInput{SetNumber: 2, P1Score: 21, P2Score: 12})
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, match.Status)

	// A different score for the same completed match is rejected.
	_, err = svc.RecordScore(ctx, matchID, RecordScoreInput{SetNumber: 2, P1Score: 12, P2Score: 21})
	assert.ErrorIs(t, err, ErrMatchAlreadyCompleted)
}

func TestRecordScoreFrozenSet(t *testing.T) {
	e := newEnv(t)
	_, matches := generateAndList(t, e, knockoutDef(2, 4, models.FormatStage{}), 4)
	matchID := matches[0].ID
	svc := newScoreServiceUnderTest(e, nil)
	ctx := context.Background()

	recordSet(t, svc, matchID, 1, 21, 10)

	_, err := svc.RecordScore(ctx, matchID, RecordScoreInput{SetNumber: 1, P1Score: 19, P2Score: 21})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// The identical report is harmless redelivery.
	match, err := svc.RecordScore(ctx, matchID, RecordScoreInput{SetNumber: 1, P1Score: 21, P2Score: 10})
	require.NoError(t, err)
	require.Len(t, match.Sets, 1)
	assert.Equal(t, models.MatchInProgress, match.Status)
}

func TestRecordScoreSetNumberValidation(t *testing.T) {
	e := newEnv(t)
	_, matches := generateAndList(t, e, knockoutDef(2, 4, models.FormatStage{}), 4)
	matchID := matches[0].ID
	svc := newScoreServiceUnderTest(e, nil)
	ctx := context.Background()

	_, err := svc.RecordScore(ctx, matchID, RecordScoreInput{SetNumber: 0, P1Score: 1, P2Score: 0})
	assert.ErrorIs(t, err, ErrSetIndexOutOfRange)

	// Sets fill in order: set 2 cannot open before set 1 exists.
	_, err = svc.RecordScore(ctx, matchID, RecordScoreInput{SetNumber: 2, P1Score: 1, P2Score: 0})
	assert.ErrorIs(t, err, ErrSetIndexOutOfRange)

	_, err = svc.RecordScore(ctx, matchID, RecordScoreInput{SetNumber: 4, P1Score: 1, P2Score: 0})
	assert.ErrorIs(t, err, ErrSetIndexOutOfRange)
}

func TestRecordScoreMatchNotReady(t *testing.T) {
	e := newEnv(t)
	category, _ := generateAndList(t, e, knockoutDef(2, 4, models.FormatStage{}), 4)
	svc := newScoreServiceUnderTest(e, nil)
	ctx := context.Background()

	final := matchAt(t, e, category.ID, models.StageTagKnockout, 2, 1)
	_, err := svc.RecordScore(ctx, final.ID, RecordScoreInput{SetNumber: 1, P1Score: 1, P2Score: 0})
	assert.ErrorIs(t, err, ErrMatchNotReady)

	_, err = svc.RecordScore(ctx, 9999, RecordScoreInput{SetNumber: 1, P1Score: 1, P2Score: 0})
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestRecordScorePropagation(t *testing.T) {
	// Either semifinal may finish first; the final pairing must come out the
	// same either way.
	orders := map[string][2]int{
		"second semifinal first": {2, 1},
		"first semifinal first":  {1, 2},
	}
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			category, _ := generateAndList(t, e, knockoutDef(2, 4, models.FormatStage{}), 4)
			svc := newScoreServiceUnderTest(e, nil)
			ctx := context.Background()

			winners := map[int]models.Slot{1: models.SlotP1, 2: models.SlotP2}
			for _, semi := range order {
				m := matchAt(t, e, category.ID, models.StageTagKnockout, 1, semi)
				winStraightSets(t, svc, m.ID, winners[semi])
			}

			// Semifinal one was 1 vs 4, semifinal two 2 vs 3.
			final := matchAt(t, e, category.ID, models.StageTagKnockout, 2, 1)
			require.NotNil(t, final.Player1ID)
			require.NotNil(t, final.Player2ID)
			assert.Equal(t, 1, *final.Player1ID)
			assert.Equal(t, 3, *final.Player2ID)
			assert.Equal(t, models.MatchPendingCourt, final.Status)

			winStraightSets(t, svc, final.ID, models.SlotP1)
			stored, err := e.categories.GetByID(ctx, category.ID)
			require.NoError(t, err)
			assert.Equal(t, models.CategoryCompleted, stored.Status)

			decided := matchAt(t, e, category.ID, models.StageTagKnockout, 2, 1)
			require.NotNil(t, decided.WinnerID)
			assert.Equal(t, 1, *decided.WinnerID)
		})
	}
}

func TestRecordScoreThirdPlaceMatch(t *testing.T) {
	e := newEnv(t)
	category, _ := generateAndList(t, e, knockoutDef(2, 4, models.FormatStage{ThirdPlaceMatch: true}), 4)
	svc := newScoreServiceUnderTest(e, nil)
	ctx := context.Background()

	semi1 := matchAt(t, e, category.ID, models.StageTagKnockout, 1, 1)
	semi2 := matchAt(t, e, category.ID, models.StageTagKnockout, 1, 2)
	winStraightSets(t, svc, semi1.ID, models.SlotP1) // player 1 beats 4
	winStraightSets(t, svc, semi2.ID, models.SlotP2) // player 3 beats 2

	third := matchAt(t, e, category.ID, models.StageTagKnockout, 2, 2)
	require.NotNil(t, third.RoundLabel)
	assert.Equal(t, models.RoundLabelThirdPlace, *third.RoundLabel)
	require.NotNil(t, third.Player1ID)
	require.NotNil(t, third.Player2ID)
	assert.Equal(t, 4, *third.Player1ID)
	assert.Equal(t, 2, *third.Player2ID)
	assert.Equal(t, models.MatchPendingCourt, third.Status)

	// The category only completes once both placement matches are decided.
	final := matchAt(t, e, category.ID, models.StageTagKnockout, 2, 1)
	winStraightSets(t, svc, final.ID, models.SlotP1)
	stored, err := e.categories.GetByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryOngoing, stored.Status)

	winStraightSets(t, svc, third.ID, models.SlotP2)
	stored, err = e.categories.GetByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryCompleted, stored.Status)
}

func TestRecordScoreGroupAdvancement(t *testing.T) {
	e := newEnv(t)
	category, _ := generateAndList(t, e, groupKnockoutDef(2, 2), 4)
	svc := newScoreServiceUnderTest(e, nil)
	ctx := context.Background()

	groupA := groupMatchByLabel(t, e, category.ID, "A")
	groupB := groupMatchByLabel(t, e, category.ID, "B")

	// Snake distribution put players 1 and 4 into group A, 2 and 3 into B.
	assert.ElementsMatch(t, []int{1, 4}, []int{*groupA.Player1ID, *groupA.Player2ID})
	assert.ElementsMatch(t, []int{2, 3}, []int{*groupB.Player1ID, *groupB.Player2ID})

	winStraightSets(t, svc, groupA.ID, models.SlotP1)

	// One group still running: knockout stays unbound.
	semi1 := matchAt(t, e, category.ID, models.StageTagKnockout, 2, 1)
	assert.Nil(t, semi1.Player1ID)
	assert.Equal(t, models.MatchPendingPlayer, semi1.Status)

	winStraightSets(t, svc, groupB.ID, models.SlotP1)

	// Both groups decided: the knockout entry round fills from the tables,
	// group winners kept in opposite halves.
	semi1 = matchAt(t, e, category.ID, models.StageTagKnockout, 2, 1)
	semi2 := matchAt(t, e, category.ID, models.StageTagKnockout, 2, 2)
	require.NotNil(t, semi1.Player1ID)
	require.NotNil(t, semi1.Player2ID)
	require.NotNil(t, semi2.Player1ID)
	require.NotNil(t, semi2.Player2ID)
	assert.Equal(t, models.MatchPendingCourt, semi1.Status)
	assert.Equal(t, models.MatchPendingCourt, semi2.Status)
	assert.Equal(t, 1, *semi1.Player1ID) // winner of A
	assert.Equal(t, 4, *semi1.Player2ID) // runner-up of A, via the B side walk
	assert.Equal(t, 2, *semi2.Player1ID)
	assert.Equal(t, 3, *semi2.Player2ID)

	winStraightSets(t, svc, semi1.ID, models.SlotP1)
	winStraightSets(t, svc, semi2.ID, models.SlotP1)
	final := matchAt(t, e, category.ID, models.StageTagKnockout, 3, 1)
	winStraightSets(t, svc, final.ID, models.SlotP1)

	stored, err := e.categories.GetByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryCompleted, stored.Status)
}

func TestRecordScoreRedeliveryRecoversAdvancement(t *testing.T) {
	e := newEnv(t)
	category, _ := generateAndList(t, e, groupKnockoutDef(2, 2), 4)
	svc := newScoreServiceUnderTest(e, nil)
	ctx := context.Background()

	groupA := groupMatchByLabel(t, e, category.ID, "A")
	groupB := groupMatchByLabel(t, e, category.ID, "B")
	winStraightSets(t, svc, groupA.ID, models.SlotP1)
	recordSet(t, svc, groupB.ID, 1, 21, 10)

	// The decisive report commits the score, then the advancement check dies.
	e.matches.mu.Lock()
	e.matches.groupCountErr = errors.New("connection reset by peer")
	e.matches.mu.Unlock()
	_, err := svc.RecordScore(ctx, groupB.ID, RecordScoreInput{SetNumber: 2, P1Score: 21, P2Score: 12})
	require.Error(t, err)

	stored, err := e.matches.GetByID(ctx, groupB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, stored.Status)
	semi1 := matchAt(t, e, category.ID, models.StageTagKnockout, 2, 1)
	assert.Nil(t, semi1.Player1ID, "advancement must not have run")

	// Redelivering the identical report picks the advancement back up.
	_, err = svc.RecordScore(ctx, groupB.ID, RecordScoreInput{SetNumber: 2, P1Score: 21, P2Score: 12})
	require.NoError(t, err)

	semi1 = matchAt(t, e, category.ID, models.StageTagKnockout, 2, 1)
	require.NotNil(t, semi1.Player1ID)
	require.NotNil(t, semi1.Player2ID)
	assert.Equal(t, models.MatchPendingCourt, semi1.Status)
}

func TestRecordScorePropagationConflict(t *testing.T) {
	e := newEnv(t)
	category, _ := generateAndList(t, e, knockoutDef(2, 4, models.FormatStage{}), 4)
	svc := newScoreServiceUnderTest(e, nil)

	// Occupy the final's first slot with a foreign participant so the winner
	// propagation can never land.
	final := matchAt(t, e, category.ID, models.StageTagKnockout, 2, 1)
	intruder := 99
	intruderName := "Intruder"
	e.matches.mu.Lock()
	e.matches.matches[final.ID].Player1ID = &intruder
	e.matches.matches[final.ID].Player1Name = &intruderName
	e.matches.mu.Unlock()

	semi1 := matchAt(t, e, category.ID, models.StageTagKnockout, 1, 1)
	recordSet(t, svc, semi1.ID, 1, 21, 10)
	_, err := svc.RecordScore(context.Background(), semi1.ID, RecordScoreInput{SetNumber: 2, P1Score: 21, P2Score: 12})
	assert.ErrorIs(t, err, ErrPropagationConflict)
}

func TestRecordScoreNotifiesCourtCall(t *testing.T) {
	e := newEnv(t)
	category, _ := generateAndList(t, e, knockoutDef(2, 4, models.FormatStage{}), 4)
	notifier := &recordingNotifier{}
	svc := newScoreServiceUnderTest(e, notifier)

	semi1 := matchAt(t, e, category.ID, models.StageTagKnockout, 1, 1)
	semi2 := matchAt(t, e, category.ID, models.StageTagKnockout, 1, 2)

	winStraightSets(t, svc, semi1.ID, models.SlotP1)
	assert.Empty(t, notifier.sent, "no notification while the final waits for its second player")

	winStraightSets(t, svc, semi2.ID, models.SlotP2)
	require.Len(t, notifier.sent, 1)
	assert.ElementsMatch(t, []string{"player1@example.com", "player3@example.com"}, notifier.sent[0])
}
