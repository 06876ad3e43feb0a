package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Danielkai0107/courtside/brackets"
	"github.com/Danielkai0107/courtside/models"
	"github.com/Danielkai0107/courtside/repositories"
)

type FormatInput struct {
	Name            string               `json:"name"`
	MinParticipants int                  `json:"min_participants"`
	MaxParticipants int                  `json:"max_participants"`
	Stages          []models.FormatStage `json:"stages"`
	SupportSeeding  bool                 `json:"support_seeding"`
}

type FormatService interface {
	CreateFormat(ctx context.Context, input FormatInput) (*models.FormatDefinition, error)
	GetFormat(ctx context.Context, id int) (*models.FormatDefinition, error)
	ListFormats(ctx context.Context) ([]models.FormatDefinition, error)
	UpdateFormat(ctx context.Context, id int, input FormatInput) (*models.FormatDefinition, error)
	DeleteFormat(ctx context.Context, id int) error
}

type formatService struct {
	formatRepo repositories.FormatRepository
}

func NewFormatService(formatRepo repositories.FormatRepository) FormatService {
	return &formatService{formatRepo: formatRepo}
}

// validateFormat proves the stage list plannable by compiling it at both
// ends of the participant range. A format that passes here cannot fail
// generation for any admissible entry count.
func validateFormat(input FormatInput) (*models.FormatDefinition, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if input.MinParticipants < 2 {
		return nil, fmt.Errorf("%w: min_participants must be at least 2", ErrConfigValidation)
	}
	if input.MaxParticipants > 0 && input.MaxParticipants < input.MinParticipants {
		return nil, fmt.Errorf("%w: max_participants below min_participants", ErrConfigValidation)
	}
	if len(input.Stages) == 0 {
		return nil, fmt.Errorf("%w: at least one stage is required", ErrConfigValidation)
	}

	def := models.FormatDefinition{
		Name:            name,
		MinParticipants: input.MinParticipants,
		MaxParticipants: input.MaxParticipants,
		Stages:          input.Stages,
		SupportSeeding:  input.SupportSeeding,
	}
	probes := []int{def.MinParticipants}
	if def.MaxParticipants > def.MinParticipants {
		probes = append(probes, def.MaxParticipants)
	}
	for _, n := range probes {
		if _, err := brackets.PlanFormat(def, n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
		}
	}

	stagesJSON, err := json.Marshal(def.Stages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stages: %w", err)
	}
	def.StagesJSON = stagesJSON
	return &def, nil
}

func (s *formatService) CreateFormat(ctx context.Context, input FormatInput) (*models.FormatDefinition, error) {
	def, err := validateFormat(input)
	if err != nil {
		return nil, err
	}
	if err := s.formatRepo.Create(ctx, def); err != nil {
		if errors.Is(err, repositories.ErrFormatNameConflict) {
			return nil, ErrFormatNameConflict
		}
		return nil, fmt.Errorf("failed to create format: %w", err)
	}
	return def, nil
}

func (s *formatService) GetFormat(ctx context.Context, id int) (*models.FormatDefinition, error) {
	format, err := s.formatRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrFormatNotFound) {
			return nil, ErrFormatNotFound
		}
		return nil, fmt.Errorf("failed to get format by id %d: %w", id, err)
	}
	return format, nil
}

func (s *formatService) ListFormats(ctx context.Context) ([]models.FormatDefinition, error) {
	formats, err := s.formatRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list formats: %w", err)
	}
	return formats, nil
}

func (s *formatService) UpdateFormat(ctx context.Context, id int, input FormatInput) (*models.FormatDefinition, error) {
	def, err := validateFormat(input)
	if err != nil {
		return nil, err
	}
	def.ID = id
	if err := s.formatRepo.Update(ctx, def); err != nil {
		switch {
		case errors.Is(err, repositories.ErrFormatNotFound):
			return nil, ErrFormatNotFound
		case errors.Is(err, repositories.ErrFormatNameConflict):
			return nil, ErrFormatNameConflict
		default:
			return nil, fmt.Errorf("failed to update format %d: %w", id, err)
		}
	}
	return def, nil
}

// DeleteFormat removes an unused format. Categories hold their own frozen
// copy, so only the foreign key from categories blocks deletion.
func (s *formatService) DeleteFormat(ctx context.Context, id int) error {
	if err := s.formatRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrFormatNotFound):
			return ErrFormatNotFound
		case errors.Is(err, repositories.ErrFormatInUse):
			return ErrFormatInUse
		default:
			return fmt.Errorf("failed to delete format %d: %w", id, err)
		}
	}
	return nil
}
