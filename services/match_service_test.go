package services

import (
	"context"
	"testing"

	"github.com/Danielkai0107/courtside/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMatchServiceUnderTest(e *env) MatchService {
	return NewMatchService(e.matches, e.courts, e.logger)
}

func addCourts(e *env) {
	e.courts.courts[1] = &models.Court{ID: 1, VenueID: 1, Name: "Court 1", IsActive: true}
	e.courts.courts[2] = &models.Court{ID: 2, VenueID: 1, Name: "Court 2", IsActive: false}
}

func TestAssignCourt(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	addCourts(e)
	category, _ := generateAndList(t, e, knockoutDef(2, 4, models.FormatStage{}), 4)
	svc := newMatchServiceUnderTest(e)

	semi := matchAt(t, e, category.ID, models.StageTagKnockout, 1, 1)
	final := matchAt(t, e, category.ID, models.StageTagKnockout, 2, 1)

	match, err := svc.AssignCourt(ctx, semi.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, match.CourtID)
	assert.Equal(t, 1, *match.CourtID)

	_, err = svc.AssignCourt(ctx, semi.ID, 2)
	assert.ErrorIs(t, err, ErrCourtNotAssignable, "inactive court")

	_, err = svc.AssignCourt(ctx, semi.ID, 999)
	assert.ErrorIs(t, err, ErrCourtNotFound)

	// The final is still waiting for players, not for a court.
	_, err = svc.AssignCourt(ctx, final.ID, 1)
	assert.ErrorIs(t, err, ErrCourtNotAssignable)

	_, err = svc.AssignCourt(ctx, 9999, 1)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestListReadyMatches(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	category, _ := generateAndList(t, e, knockoutDef(2, 4, models.FormatStage{}), 4)
	svc := newMatchServiceUnderTest(e)

	ready, err := svc.ListReadyMatches(ctx, category.ID)
	require.NoError(t, err)
	require.Len(t, ready, 2)
	for _, m := range ready {
		assert.Equal(t, models.MatchPendingCourt, m.Status)
		assert.Equal(t, 1, m.Round)
	}
}

func TestListCourts(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	addCourts(e)
	svc := newMatchServiceUnderTest(e)

	all, err := svc.ListCourts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.ListCourts(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 1, active[0].ID)
}
