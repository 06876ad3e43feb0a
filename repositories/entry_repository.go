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
	ErrEntryNotFound = errors.New("category entry not found")
	ErrEntryConflict = errors.New("player is already registered in this category")
)

type EntryRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.CategoryEntry) error
	ListByCategory(ctx context.Context, categoryID int) ([]*models.CategoryEntry, error)
	CountByCategory(ctx context.Context, categoryID int) (int, error)
}

type postgresEntryRepository struct {
	db *sql.DB
}

func NewPostgresEntryRepository(db *sql.DB) EntryRepository {
	return &postgresEntryRepository{db: db}
}

func (r *postgresEntryRepository) Create(ctx context.Context, exec SQLExecutor, entry *models.CategoryEntry) error {
	query := `
		INSERT INTO category_entries (category_id, player_id, player_name, seed)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := exec.QueryRowContext(ctx, query,
		entry.CategoryID,
		entry.PlayerID,
		entry.PlayerName,
		entry.Seed,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrEntryConflict
		}
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// ListByCategory returns entries in seed order, seed 1 first.
func (r *postgresEntryRepository) ListByCategory(ctx context.Context, categoryID int) ([]*models.CategoryEntry, error) {
	query := `
		SELECT id, category_id, player_id, player_name, seed, created_at
		FROM category_entries
		WHERE category_id = $1
		ORDER BY seed ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for category %d: %w", categoryID, err)
	}
	defer rows.Close()

	entries := make([]*models.CategoryEntry, 0)
	for rows.Next() {
		var entry models.CategoryEntry
		if scanErr := rows.Scan(&entry.ID, &entry.CategoryID, &entry.PlayerID, &entry.PlayerName, &entry.Seed, &entry.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", scanErr)
		}
		entries = append(entries, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during entry rows iteration: %w", err)
	}
	return entries, nil
}

func (r *postgresEntryRepository) CountByCategory(ctx context.Context, categoryID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM category_entries WHERE category_id = $1`, categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries for category %d: %w", categoryID, err)
	}
	return count, nil
}
