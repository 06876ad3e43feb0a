package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Danielkai0107/courtside/models"
	"github.com/Danielkai0107/courtside/repositories"
	"github.com/Danielkai0107/courtside/rules"
	"github.com/Danielkai0107/courtside/storage"
	"github.com/google/uuid"
)

type CreateSportInput struct {
	Name  string   `json:"name"`
	Modes []string `json:"modes"`
	Order int      `json:"order"`
}

type UpdateSportInput struct {
	Name            *string  `json:"name,omitempty"`
	Modes           []string `json:"modes,omitempty"`
	DefaultPresetID *int     `json:"default_preset_id,omitempty"`
	IsActive        *bool    `json:"is_active,omitempty"`
	Order           *int     `json:"order,omitempty"`
}

type CreatePresetInput struct {
	Label         string               `json:"label"`
	Description   *string              `json:"description,omitempty"`
	ScoringConfig models.ScoringConfig `json:"scoring_config"`
}

type SportService interface {
	CreateSport(ctx context.Context, input CreateSportInput) (*models.Sport, error)
	GetSport(ctx context.Context, id int) (*models.Sport, error)
	ListSports(ctx context.Context, activeOnly bool) ([]models.Sport, error)
	UpdateSport(ctx context.Context, id int, input UpdateSportInput) (*models.Sport, error)
	CreatePreset(ctx context.Context, sportID int, input CreatePresetInput) (*models.RulePreset, error)
	UploadLogo(ctx context.Context, sportID int, contentType string, reader io.Reader) (*models.Sport, error)
}

type sportService struct {
	sportRepo repositories.SportRepository
	uploader  storage.FileUploader
	logger    *slog.Logger
}

func NewSportService(sportRepo repositories.SportRepository, uploader storage.FileUploader, logger *slog.Logger) SportService {
	return &sportService{sportRepo: sportRepo, uploader: uploader, logger: logger}
}

func (s *sportService) CreateSport(ctx context.Context, input CreateSportInput) (*models.Sport, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	sport := &models.Sport{
		Name:     name,
		Modes:    input.Modes,
		IsActive: true,
		Order:    input.Order,
	}
	if sport.Modes == nil {
		sport.Modes = []string{}
	}
	if err := s.sportRepo.Create(ctx, sport); err != nil {
		if errors.Is(err, repositories.ErrSportNameConflict) {
			return nil, ErrSportNameConflict
		}
		return nil, fmt.Errorf("failed to create sport: %w", err)
	}
	return sport, nil
}

func (s *sportService) GetSport(ctx context.Context, id int) (*models.Sport, error) {
	sport, err := s.sportRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to get sport by id %d: %w", id, err)
	}
	s.populateLogoURL(sport)
	return sport, nil
}

func (s *sportService) ListSports(ctx context.Context, activeOnly bool) ([]models.Sport, error) {
	sports, err := s.sportRepo.GetAll(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list sports: %w", err)
	}
	for i := range sports {
		s.populateLogoURL(&sports[i])
	}
	return sports, nil
}

func (s *sportService) UpdateSport(ctx context.Context, id int, input UpdateSportInput) (*models.Sport, error) {
	sport, err := s.GetSport(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		sport.Name = name
	}
	if input.Modes != nil {
		sport.Modes = input.Modes
	}
	if input.DefaultPresetID != nil {
		preset, presetErr := s.sportRepo.GetPresetByID(ctx, *input.DefaultPresetID)
		if presetErr != nil {
			if errors.Is(presetErr, repositories.ErrPresetNotFound) {
				return nil, ErrPresetNotFound
			}
			return nil, presetErr
		}
		if preset.SportID != id {
			return nil, fmt.Errorf("%w: preset %d belongs to sport %d", ErrConfigMismatch, preset.ID, preset.SportID)
		}
		sport.DefaultPresetID = input.DefaultPresetID
	}
	if input.IsActive != nil {
		sport.IsActive = *input.IsActive
	}
	if input.Order != nil {
		sport.Order = *input.Order
	}

	if err := s.sportRepo.Update(ctx, sport); err != nil {
		switch {
		case errors.Is(err, repositories.ErrSportNotFound):
			return nil, ErrSportNotFound
		case errors.Is(err, repositories.ErrSportNameConflict):
			return nil, ErrSportNameConflict
		default:
			return nil, fmt.Errorf("failed to update sport %d: %w", id, err)
		}
	}
	s.populateLogoURL(sport)
	return sport, nil
}

// CreatePreset validates the scoring config before it becomes selectable.
// Categories freeze configs from presets, so nothing invalid may enter here.
func (s *sportService) CreatePreset(ctx context.Context, sportID int, input CreatePresetInput) (*models.RulePreset, error) {
	if strings.TrimSpace(input.Label) == "" {
		return nil, ErrNameRequired
	}
	if err := rules.ValidateConfig(input.ScoringConfig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}

	configJSON, err := json.Marshal(input.ScoringConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scoring config: %w", err)
	}
	preset := &models.RulePreset{
		SportID:           sportID,
		Label:             strings.TrimSpace(input.Label),
		Description:       input.Description,
		ScoringConfig:     input.ScoringConfig,
		ScoringConfigJSON: configJSON,
	}
	if err := s.sportRepo.CreatePreset(ctx, preset); err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to create preset for sport %d: %w", sportID, err)
	}
	return preset, nil
}

// UploadLogo stores the image and swaps the sport's logo key, deleting the
// previous object on success.
func (s *sportService) UploadLogo(ctx context.Context, sportID int, contentType string, reader io.Reader) (*models.Sport, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	sport, err := s.GetSport(ctx, sportID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("sports/%d/logo-%s", sportID, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo for sport %d: %w", sportID, err)
	}

	oldKey := sport.LogoKey
	sport.LogoKey = &result.Key
	if err := s.sportRepo.Update(ctx, sport); err != nil {
		if delErr := s.uploader.Delete(ctx, result.Key); delErr != nil {
			s.logger.Warn("failed to clean up orphaned logo object",
				slog.String("key", result.Key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to persist logo key for sport %d: %w", sportID, err)
	}
	if oldKey != nil && *oldKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.Warn("failed to delete previous logo object",
				slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	s.populateLogoURL(sport)
	return sport, nil
}

func (s *sportService) populateLogoURL(sport *models.Sport) {
	if sport.LogoKey == nil || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*sport.LogoKey); url != "" {
		sport.LogoURL = &url
	}
}
