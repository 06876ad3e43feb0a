package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Danielkai0107/courtside/models"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryStateConflict is returned when a guarded update observes a
	// status other than the expected one.
	ErrCategoryStateConflict = errors.New("category is not in the expected state")
	ErrCategoryFull          = errors.New("category has reached its participant capacity")
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id int) (*models.Category, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.CategoryStatus) error
	IncrementParticipants(ctx context.Context, exec SQLExecutor, id int) (int, error)
}

type postgresCategoryRepository struct {
	db *sql.DB
}

func NewPostgresCategoryRepository(db *sql.DB) CategoryRepository {
	return &postgresCategoryRepository{db: db}
}

func (r *postgresCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	scoringJSON, err := json.Marshal(category.ScoringConfig)
	if err != nil {
		return fmt.Errorf("failed to encode scoring config snapshot: %w", err)
	}
	formatJSON, err := json.Marshal(category.FormatConfig)
	if err != nil {
		return fmt.Errorf("failed to encode format snapshot: %w", err)
	}

	query := `
		INSERT INTO categories
			(tournament_id, name, sport_id, rule_preset_id, format_id, status,
			 current_participants, max_participants, scoring_config, format_config)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		category.TournamentID,
		category.Name,
		category.SportID,
		category.RulePresetID,
		category.FormatID,
		category.Status,
		category.CurrentParticipants,
		category.MaxParticipants,
		scoringJSON,
		formatJSON,
	).Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (r *postgresCategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	query := `
		SELECT id, tournament_id, name, sport_id, rule_preset_id, format_id, status,
		       current_participants, max_participants, scoring_config, format_config, created_at
		FROM categories
		WHERE id = $1`

	category := &models.Category{}
	var scoringJSON, formatJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.TournamentID,
		&category.Name,
		&category.SportID,
		&category.RulePresetID,
		&category.FormatID,
		&category.Status,
		&category.CurrentParticipants,
		&category.MaxParticipants,
		&scoringJSON,
		&formatJSON,
		&category.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to scan category by id %d: %w", id, err)
	}

	if err := json.Unmarshal(scoringJSON, &category.ScoringConfig); err != nil {
		return nil, fmt.Errorf("failed to decode scoring snapshot for category %d: %w", id, err)
	}
	if err := json.Unmarshal(formatJSON, &category.FormatConfig); err != nil {
		return nil, fmt.Errorf("failed to decode format snapshot for category %d: %w", id, err)
	}
	return category, nil
}

// UpdateStatus performs a guarded transition: the row is only touched when
// it still holds the expected current status.
func (r *postgresCategoryRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.CategoryStatus) error {
	query := `UPDATE categories SET status = $1 WHERE id = $2 AND status = $3`
	result, err := exec.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to transition category %d to %s: %w", id, to, err)
	}
	return checkAffectedRows(result, ErrCategoryStateConflict)
}

// IncrementParticipants adds one registration, guarded by both the
// REGISTRATION status and the frozen capacity, and returns the new count.
// A max_participants of 0 means the format left the field unbounded.
func (r *postgresCategoryRepository) IncrementParticipants(ctx context.Context, exec SQLExecutor, id int) (int, error) {
	query := `
		UPDATE categories
		SET current_participants = current_participants + 1
		WHERE id = $1 AND status = 'REGISTRATION'
		  AND (max_participants = 0 OR current_participants < max_participants)
		RETURNING current_participants`
	var count int
	err := exec.QueryRowContext(ctx, query, id).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCategoryFull
		}
		return 0, fmt.Errorf("failed to increment participants for category %d: %w", id, err)
	}
	return count, nil
}
