package services

import (
	"context"
	"testing"

	"github.com/Danielkai0107/courtside/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := NewFormatService(e.formats)

	valid := FormatInput{
		Name:            "Knockout 16",
		MinParticipants: 4,
		MaxParticipants: 16,
		Stages:          []models.FormatStage{{Type: models.StageKnockout}},
	}

	created, err := svc.CreateFormat(ctx, valid)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotEmpty(t, created.StagesJSON)

	cases := []struct {
		name   string
		mutate func(*FormatInput)
	}{
		{"empty name", func(in *FormatInput) { in.Name = " " }},
		{"min below two", func(in *FormatInput) { in.MinParticipants = 1 }},
		{"max below min", func(in *FormatInput) { in.MaxParticipants = 3 }},
		{"no stages", func(in *FormatInput) { in.Stages = nil }},
		{"unplannable stage order", func(in *FormatInput) {
			in.Stages = []models.FormatStage{
				{Type: models.StageKnockout},
				{Type: models.StageGroup, Count: 2, Advance: 2},
			}
		}},
		{"groups too large for min", func(in *FormatInput) {
			in.MinParticipants = 4
			in.Stages = []models.FormatStage{
				{Type: models.StageGroup, Count: 4, Advance: 1},
				{Type: models.StageKnockout},
			}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := valid
			input.Name = "Variant " + tc.name
			tc.mutate(&input)
			_, err := svc.CreateFormat(ctx, input)
			if tc.name == "empty name" {
				assert.ErrorIs(t, err, ErrNameRequired)
			} else {
				assert.ErrorIs(t, err, ErrConfigValidation)
			}
		})
	}
}

func TestFormatNameConflict(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := NewFormatService(e.formats)

	input := FormatInput{
		Name:            "Round Robin",
		MinParticipants: 3,
		MaxParticipants: 8,
		Stages:          []models.FormatStage{{Type: models.StageRoundRobin}},
	}
	_, err := svc.CreateFormat(ctx, input)
	require.NoError(t, err)

	_, err = svc.CreateFormat(ctx, input)
	assert.ErrorIs(t, err, ErrFormatNameConflict)
}

func TestUpdateAndDeleteFormat(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := NewFormatService(e.formats)

	input := FormatInput{
		Name:            "Knockout 8",
		MinParticipants: 2,
		MaxParticipants: 8,
		Stages:          []models.FormatStage{{Type: models.StageKnockout}},
	}
	created, err := svc.CreateFormat(ctx, input)
	require.NoError(t, err)

	input.MaxParticipants = 16
	updated, err := svc.UpdateFormat(ctx, created.ID, input)
	require.NoError(t, err)
	assert.Equal(t, 16, updated.MaxParticipants)

	_, err = svc.UpdateFormat(ctx, 999, input)
	assert.ErrorIs(t, err, ErrFormatNotFound)

	require.NoError(t, svc.DeleteFormat(ctx, created.ID))
	assert.ErrorIs(t, svc.DeleteFormat(ctx, created.ID), ErrFormatNotFound)
}
