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
	ErrFormatNotFound     = errors.New("format not found")
	ErrFormatNameConflict = errors.New("format name conflict")
	ErrFormatInUse        = errors.New("format is in use by a category")
)

type FormatRepository interface {
	Create(ctx context.Context, format *models.FormatDefinition) error
	GetByID(ctx context.Context, id int) (*models.FormatDefinition, error)
	GetAll(ctx context.Context) ([]models.FormatDefinition, error)
	Update(ctx context.Context, format *models.FormatDefinition) error
	Delete(ctx context.Context, id int) error
}

type postgresFormatRepository struct {
	db *sql.DB
}

func NewPostgresFormatRepository(db *sql.DB) FormatRepository {
	return &postgresFormatRepository{db: db}
}

func (r *postgresFormatRepository) Create(ctx context.Context, format *models.FormatDefinition) error {
	query := `
		INSERT INTO formats (name, min_participants, max_participants, stages, support_seeding)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		format.Name,
		format.MinParticipants,
		format.MaxParticipants,
		format.StagesJSON,
		format.SupportSeeding,
	).Scan(&format.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "formats_name_key" {
			return ErrFormatNameConflict
		}
		return err
	}
	return nil
}

func (r *postgresFormatRepository) scanFormat(row interface{ Scan(...interface{}) error }) (*models.FormatDefinition, error) {
	format := &models.FormatDefinition{}
	err := row.Scan(
		&format.ID,
		&format.Name,
		&format.MinParticipants,
		&format.MaxParticipants,
		&format.StagesJSON,
		&format.SupportSeeding,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFormatNotFound
		}
		return nil, err
	}
	if err := format.DecodeStages(); err != nil {
		return nil, fmt.Errorf("failed to decode stages for format %d: %w", format.ID, err)
	}
	return format, nil
}

func (r *postgresFormatRepository) GetByID(ctx context.Context, id int) (*models.FormatDefinition, error) {
	query := `
		SELECT id, name, min_participants, max_participants, stages, support_seeding
		FROM formats
		WHERE id = $1`
	return r.scanFormat(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresFormatRepository) GetAll(ctx context.Context) ([]models.FormatDefinition, error) {
	query := `
		SELECT id, name, min_participants, max_participants, stages, support_seeding
		FROM formats
		ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	formats := make([]models.FormatDefinition, 0)
	for rows.Next() {
		format, scanErr := r.scanFormat(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		formats = append(formats, *format)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return formats, nil
}

func (r *postgresFormatRepository) Update(ctx context.Context, format *models.FormatDefinition) error {
	query := `
		UPDATE formats
		SET name = $1, min_participants = $2, max_participants = $3, stages = $4, support_seeding = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query,
		format.Name,
		format.MinParticipants,
		format.MaxParticipants,
		format.StagesJSON,
		format.SupportSeeding,
		format.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "formats_name_key" {
			return ErrFormatNameConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrFormatNotFound)
}

func (r *postgresFormatRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM formats WHERE id = $1`, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrFormatInUse
		}
		return err
	}
	return checkAffectedRows(result, ErrFormatNotFound)
}
