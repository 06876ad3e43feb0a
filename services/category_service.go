package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Danielkai0107/courtside/brackets"
	"github.com/Danielkai0107/courtside/models"
	"github.com/Danielkai0107/courtside/repositories"
	"github.com/Danielkai0107/courtside/rules"
	"golang.org/x/sync/errgroup"
)

// CreateCategoryInput carries the references a category is snapshotted from.
type CreateCategoryInput struct {
	TournamentID int    `json:"tournament_id"`
	Name         string `json:"name"`
	SportID      int    `json:"sport_id"`
	RulePresetID int    `json:"rule_preset_id"`
	FormatID     int    `json:"format_id"`
}

// RegisterEntryInput registers one player into an open category.
type RegisterEntryInput struct {
	PlayerID int `json:"player_id"`
}

type CategoryService interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	GetCategory(ctx context.Context, id int) (*models.Category, error)
	GetCategoryGraph(ctx context.Context, id int) (*models.Category, error)
	RegisterEntry(ctx context.Context, categoryID int, input RegisterEntryInput) (*models.CategoryEntry, error)
	GetStandings(ctx context.Context, categoryID int) (map[string][]brackets.Standing, error)
	CancelCategory(ctx context.Context, categoryID int) error
}

type categoryService struct {
	db           *sql.DB
	categoryRepo repositories.CategoryRepository
	entryRepo    repositories.EntryRepository
	matchRepo    repositories.MatchRepository
	sportRepo    repositories.SportRepository
	formatRepo   repositories.FormatRepository
	playerRepo   repositories.PlayerRepository
	logger       *slog.Logger
}

func NewCategoryService(
	db *sql.DB,
	categoryRepo repositories.CategoryRepository,
	entryRepo repositories.EntryRepository,
	matchRepo repositories.MatchRepository,
	sportRepo repositories.SportRepository,
	formatRepo repositories.FormatRepository,
	playerRepo repositories.PlayerRepository,
	logger *slog.Logger,
) CategoryService {
	return &categoryService{
		db:           db,
		categoryRepo: categoryRepo,
		entryRepo:    entryRepo,
		matchRepo:    matchRepo,
		sportRepo:    sportRepo,
		formatRepo:   formatRepo,
		playerRepo:   playerRepo,
		logger:       logger,
	}
}

// CreateCategory resolves the referenced sport, preset and format, validates
// them as a combination, and freezes deep copies of both configs onto the new
// category. Later edits to the catalogs never reach a created category.
func (s *categoryService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}

	sport, err := s.sportRepo.GetByID(ctx, input.SportID)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to load sport %d: %w", input.SportID, err)
	}

	preset, err := s.sportRepo.GetPresetByID(ctx, input.RulePresetID)
	if err != nil {
		if errors.Is(err, repositories.ErrPresetNotFound) {
			return nil, ErrPresetNotFound
		}
		return nil, fmt.Errorf("failed to load rule preset %d: %w", input.RulePresetID, err)
	}
	if preset.SportID != sport.ID {
		return nil, fmt.Errorf("%w: preset %d belongs to sport %d", ErrConfigMismatch, preset.ID, preset.SportID)
	}

	format, err := s.formatRepo.GetByID(ctx, input.FormatID)
	if err != nil {
		if errors.Is(err, repositories.ErrFormatNotFound) {
			return nil, ErrFormatNotFound
		}
		return nil, fmt.Errorf("failed to load format %d: %w", input.FormatID, err)
	}

	if err := rules.ValidateConfig(preset.ScoringConfig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	// Make sure the frozen format can actually be compiled before anyone
	// registers against it.
	if _, err := brackets.PlanFormat(*format, maxPlannable(format)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}

	category := &models.Category{
		TournamentID:    input.TournamentID,
		Name:            input.Name,
		SportID:         sport.ID,
		RulePresetID:    preset.ID,
		FormatID:        format.ID,
		Status:          models.CategoryRegistration,
		MaxParticipants: format.MaxParticipants,
		ScoringConfig:   preset.ScoringConfig.Clone(),
		FormatConfig:    format.Clone(),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info("category created",
		slog.Int("category_id", category.ID),
		slog.Int("sport_id", sport.ID),
		slog.Int("format_id", format.ID),
	)
	return category, nil
}

func maxPlannable(format *models.FormatDefinition) int {
	if format.MaxParticipants > 0 {
		return format.MaxParticipants
	}
	return max(format.MinParticipants, 2)
}

func (s *categoryService) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetCategoryGraph returns the category with its entries and full match list,
// loading both in parallel.
func (s *categoryService) GetCategoryGraph(ctx context.Context, id int) (*models.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, listErr := s.entryRepo.ListByCategory(gCtx, id)
		if listErr != nil {
			return listErr
		}
		category.Entries = make([]models.CategoryEntry, 0, len(entries))
		for _, e := range entries {
			category.Entries = append(category.Entries, *e)
		}
		return nil
	})
	g.Go(func() error {
		matches, listErr := s.matchRepo.ListByCategory(gCtx, id, nil, nil)
		if listErr != nil {
			return listErr
		}
		category.Matches = make([]models.Match, 0, len(matches))
		for _, m := range matches {
			category.Matches = append(category.Matches, *m)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load graph for category %d: %w", id, err)
	}
	return category, nil
}

// RegisterEntry admits one player while the category is still open. The
// capacity check and the seed assignment share one guarded UPDATE, so two
// concurrent registrations for the last slot cannot both succeed.
func (s *categoryService) RegisterEntry(ctx context.Context, categoryID int, input RegisterEntryInput) (entry *models.CategoryEntry, retErr error) {
	category, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category.Status != models.CategoryRegistration {
		return nil, fmt.Errorf("%w: category %d is %s", ErrRegistrationClosed, categoryID, category.Status)
	}

	player, err := s.playerRepo.GetByID(ctx, input.PlayerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player %d: %w", input.PlayerID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin registration transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
			entry = nil
		} else if cErr := tx.Commit(); cErr != nil {
			retErr = fmt.Errorf("failed to commit registration: %w", cErr)
			entry = nil
		}
	}()

	count, err := s.categoryRepo.IncrementParticipants(ctx, tx, categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryFull) {
			return nil, ErrCategoryFull
		}
		return nil, err
	}

	entry = &models.CategoryEntry{
		CategoryID: categoryID,
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Seed:       count, // registration order doubles as seed
	}
	if err := s.entryRepo.Create(ctx, tx, entry); err != nil {
		if errors.Is(err, repositories.ErrEntryConflict) {
			return nil, ErrDuplicateEntry
		}
		return nil, err
	}

	s.logger.Info("entry registered",
		slog.Int("category_id", categoryID),
		slog.Int("player_id", player.ID),
		slog.Int("seed", entry.Seed),
	)
	return entry, nil
}

// GetStandings computes ranked group tables from the category's group-stage
// matches. Categories without a group stage get an empty map.
func (s *categoryService) GetStandings(ctx context.Context, categoryID int) (map[string][]brackets.Standing, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	stage := models.StageTagGroup
	matches, err := s.matchRepo.ListByCategory(ctx, categoryID, &stage, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load group matches for category %d: %w", categoryID, err)
	}
	flat := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		flat = append(flat, *m)
	}
	return brackets.ComputeStandings(flat), nil
}

// CancelCategory abandons a category from any non-terminal state.
func (s *categoryService) CancelCategory(ctx context.Context, categoryID int) error {
	category, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	switch category.Status {
	case models.CategoryCompleted, models.CategoryCancelled:
		return fmt.Errorf("%w: category %d is already %s", ErrInvalidTransition, categoryID, category.Status)
	}
	if err := s.categoryRepo.UpdateStatus(ctx, s.db, categoryID, category.Status, models.CategoryCancelled); err != nil {
		if errors.Is(err, repositories.ErrCategoryStateConflict) {
			return ErrInvalidTransition
		}
		return err
	}
	s.logger.Info("category cancelled", slog.Int("category_id", categoryID))
	return nil
}
