package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Danielkai0107/courtside/models"
)

var ErrCourtNotFound = errors.New("court not found")

// CourtRepository reads the court catalog. Courts are owned by the external
// venue system; this engine only consults them.
type CourtRepository interface {
	GetByID(ctx context.Context, id int) (*models.Court, error)
	GetAll(ctx context.Context, activeOnly bool) ([]models.Court, error)
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id int) (*models.Court, error) {
	query := `SELECT id, venue_id, name, is_active FROM courts WHERE id = $1`
	var court models.Court
	err := r.db.QueryRowContext(ctx, query, id).Scan(&court.ID, &court.VenueID, &court.Name, &court.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return &court, nil
}

func (r *postgresCourtRepository) GetAll(ctx context.Context, activeOnly bool) ([]models.Court, error) {
	query := `SELECT id, venue_id, name, is_active FROM courts`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY venue_id ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courts := make([]models.Court, 0)
	for rows.Next() {
		var court models.Court
		if scanErr := rows.Scan(&court.ID, &court.VenueID, &court.Name, &court.IsActive); scanErr != nil {
			return nil, scanErr
		}
		courts = append(courts, court)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return courts, nil
}
