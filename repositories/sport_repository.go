package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Danielkai0107/courtside/models"
	"github.com/lib/pq"
)

var (
	ErrSportNotFound     = errors.New("sport not found")
	ErrSportNameConflict = errors.New("sport name conflict")
	ErrPresetNotFound    = errors.New("rule preset not found")
)

type SportRepository interface {
	Create(ctx context.Context, sport *models.Sport) error
	GetByID(ctx context.Context, id int) (*models.Sport, error)
	GetAll(ctx context.Context, activeOnly bool) ([]models.Sport, error)
	Update(ctx context.Context, sport *models.Sport) error
	CreatePreset(ctx context.Context, preset *models.RulePreset) error
	GetPresetByID(ctx context.Context, presetID int) (*models.RulePreset, error)
	ListPresetsBySport(ctx context.Context, sportID int) ([]models.RulePreset, error)
}

type postgresSportRepository struct {
	db *sql.DB
}

func NewPostgresSportRepository(db *sql.DB) SportRepository {
	return &postgresSportRepository{db: db}
}

func (r *postgresSportRepository) Create(ctx context.Context, sport *models.Sport) error {
	query := `
		INSERT INTO sports (name, modes, default_preset_id, is_active, sort_order, logo_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		sport.Name,
		pq.Array(sport.Modes),
		sport.DefaultPresetID,
		sport.IsActive,
		sport.Order,
		sport.LogoKey,
	).Scan(&sport.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "sports_name_key" {
			return ErrSportNameConflict
		}
		return err
	}
	return nil
}

func (r *postgresSportRepository) GetByID(ctx context.Context, id int) (*models.Sport, error) {
	query := `
		SELECT id, name, modes, default_preset_id, is_active, sort_order, logo_key
		FROM sports
		WHERE id = $1`

	var sport models.Sport
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sport.ID,
		&sport.Name,
		pq.Array(&sport.Modes),
		&sport.DefaultPresetID,
		&sport.IsActive,
		&sport.Order,
		&sport.LogoKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSportNotFound
		}
		return nil, err
	}

	presets, err := r.ListPresetsBySport(ctx, id)
	if err != nil {
		return nil, err
	}
	sport.Presets = presets
	return &sport, nil
}

func (r *postgresSportRepository) GetAll(ctx context.Context, activeOnly bool) ([]models.Sport, error) {
	query := `
		SELECT id, name, modes, default_preset_id, is_active, sort_order, logo_key
		FROM sports`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY sort_order ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sports := make([]models.Sport, 0)
	for rows.Next() {
		var sport models.Sport
		if scanErr := rows.Scan(
			&sport.ID,
			&sport.Name,
			pq.Array(&sport.Modes),
			&sport.DefaultPresetID,
			&sport.IsActive,
			&sport.Order,
			&sport.LogoKey,
		); scanErr != nil {
			return nil, scanErr
		}
		sports = append(sports, sport)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return sports, nil
}

func (r *postgresSportRepository) Update(ctx context.Context, sport *models.Sport) error {
	query := `
		UPDATE sports
		SET name = $1, modes = $2, default_preset_id = $3, is_active = $4, sort_order = $5, logo_key = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(ctx, query,
		sport.Name,
		pq.Array(sport.Modes),
		sport.DefaultPresetID,
		sport.IsActive,
		sport.Order,
		sport.LogoKey,
		sport.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "sports_name_key" {
			return ErrSportNameConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrSportNotFound)
}

func (r *postgresSportRepository) CreatePreset(ctx context.Context, preset *models.RulePreset) error {
	query := `
		INSERT INTO rule_presets (sport_id, label, description, scoring_config)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		preset.SportID,
		preset.Label,
		preset.Description,
		preset.ScoringConfigJSON,
	).Scan(&preset.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrSportNotFound
		}
		return fmt.Errorf("failed to insert rule preset: %w", err)
	}
	return nil
}

func (r *postgresSportRepository) GetPresetByID(ctx context.Context, presetID int) (*models.RulePreset, error) {
	query := `
		SELECT id, sport_id, label, description, scoring_config
		FROM rule_presets
		WHERE id = $1`
	var preset models.RulePreset
	err := r.db.QueryRowContext(ctx, query, presetID).Scan(
		&preset.ID,
		&preset.SportID,
		&preset.Label,
		&preset.Description,
		&preset.ScoringConfigJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPresetNotFound
		}
		return nil, err
	}
	if err := preset.DecodeScoringConfig(); err != nil {
		return nil, fmt.Errorf("failed to decode scoring config for preset %d: %w", presetID, err)
	}
	return &preset, nil
}

func (r *postgresSportRepository) ListPresetsBySport(ctx context.Context, sportID int) ([]models.RulePreset, error) {
	query := `
		SELECT id, sport_id, label, description, scoring_config
		FROM rule_presets
		WHERE sport_id = $1
		ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, sportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query presets for sport %d: %w", sportID, err)
	}
	defer rows.Close()

	presets := make([]models.RulePreset, 0)
	for rows.Next() {
		var preset models.RulePreset
		if scanErr := rows.Scan(&preset.ID, &preset.SportID, &preset.Label, &preset.Description, &preset.ScoringConfigJSON); scanErr != nil {
			return nil, scanErr
		}
		if decodeErr := preset.DecodeScoringConfig(); decodeErr != nil {
			return nil, fmt.Errorf("failed to decode scoring config for preset %d: %w", preset.ID, decodeErr)
		}
		presets = append(presets, preset)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return presets, nil
}
