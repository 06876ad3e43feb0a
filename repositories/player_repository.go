package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Danielkai0107/courtside/models"
)

var ErrPlayerNotFound = errors.New("player not found")

// PlayerRepository reads the player roster owned by the external
// registration system.
type PlayerRepository interface {
	GetByID(ctx context.Context, id int) (*models.Player, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT id, name, email, created_at FROM players WHERE id = $1`
	var player models.Player
	err := r.db.QueryRowContext(ctx, query, id).Scan(&player.ID, &player.Name, &player.Email, &player.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return &player, nil
}
