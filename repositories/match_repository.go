package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Danielkai0107/courtside/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchSlotConflict is returned when a propagation write finds the
	// destination slot already holding a different participant.
	ErrMatchSlotConflict = errors.New("match slot already taken by another participant")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByCategory(ctx context.Context, categoryID int, stage *models.MatchStage, status *models.MatchStatus) ([]*models.Match, error)
	UpdateLinks(ctx context.Context, exec SQLExecutor, matchID int, next *int, nextSlot *models.Slot, loserNext *int, loserSlot *models.Slot) error
	UpdateScoreState(ctx context.Context, exec SQLExecutor, match *models.Match) error
	FillSlot(ctx context.Context, exec SQLExecutor, matchID int, slot models.Slot, playerID int, playerName string) error
	AssignCourt(ctx context.Context, matchID, courtID int) error
	CountUnfinishedGroupMatches(ctx context.Context, exec SQLExecutor, categoryID int) (int, error)
	CountUnfinishedMatches(ctx context.Context, exec SQLExecutor, categoryID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, category_id, round, match_order, stage, group_label, round_label,
	player1_id, player2_id, player1_name, player2_name,
	sets, p1_aggregate, p2_aggregate, status, winner_id,
	next_match_id, next_match_slot, loser_next_match_id, loser_next_match_slot,
	court_id, is_bye, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	setsJSON, err := match.EncodeSets()
	if err != nil {
		return fmt.Errorf("failed to encode sets for new match: %w", err)
	}

	query := `
		INSERT INTO matches
			(category_id, round, match_order, stage, group_label, round_label,
			 player1_id, player2_id, player1_name, player2_name,
			 sets, p1_aggregate, p2_aggregate, status, winner_id,
			 next_match_id, next_match_slot, loser_next_match_id, loser_next_match_slot,
			 court_id, is_bye)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id, created_at`

	err = exec.QueryRowContext(ctx, query,
		match.CategoryID,
		match.Round,
		match.MatchOrder,
		match.Stage,
		match.GroupLabel,
		match.RoundLabel,
		match.Player1ID,
		match.Player2ID,
		match.Player1Name,
		match.Player2Name,
		setsJSON,
		match.P1Aggregate,
		match.P2Aggregate,
		match.Status,
		match.WinnerID,
		match.NextMatchID,
		match.NextMatchSlot,
		match.LoserNextMatchID,
		match.LoserNextMatchSlot,
		match.CourtID,
		match.IsBye,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID,
		&match.CategoryID,
		&match.Round,
		&match.MatchOrder,
		&match.Stage,
		&match.GroupLabel,
		&match.RoundLabel,
		&match.Player1ID,
		&match.Player2ID,
		&match.Player1Name,
		&match.Player2Name,
		&match.SetsJSON,
		&match.P1Aggregate,
		&match.P2Aggregate,
		&match.Status,
		&match.WinnerID,
		&match.NextMatchID,
		&match.NextMatchSlot,
		&match.LoserNextMatchID,
		&match.LoserNextMatchSlot,
		&match.CourtID,
		&match.IsBye,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if err := match.DecodeSets(); err != nil {
		return nil, fmt.Errorf("failed to decode sets for match %d: %w", match.ID, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := r.scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByCategory(ctx context.Context, categoryID int, stageFilter *models.MatchStage, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE category_id = $1`)

	args := []interface{}{categoryID}
	placeholderIndex := 2

	if stageFilter != nil {
		queryBuilder.WriteString(" AND stage = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *stageFilter)
		placeholderIndex++
	}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *statusFilter)
	}

	queryBuilder.WriteString(" ORDER BY stage ASC, round ASC, match_order ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for category %d: %w", categoryID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateLinks(ctx context.Context, exec SQLExecutor, matchID int, next *int, nextSlot *models.Slot, loserNext *int, loserSlot *models.Slot) error {
	query := `
		UPDATE matches
		SET next_match_id = $1, next_match_slot = $2, loser_next_match_id = $3, loser_next_match_slot = $4
		WHERE id = $5`
	result, err := exec.ExecContext(ctx, query, next, nextSlot, loserNext, loserSlot, matchID)
	if err != nil {
		return fmt.Errorf("failed to update links for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// UpdateScoreState persists the fields owned by the score recorder: sets,
// aggregates, status and winner. Slot fields are deliberately untouched so
// a concurrent propagation into this match cannot be lost.
func (r *postgresMatchRepository) UpdateScoreState(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	setsJSON, err := match.EncodeSets()
	if err != nil {
		return fmt.Errorf("failed to encode sets for match %d: %w", match.ID, err)
	}
	query := `
		UPDATE matches
		SET sets = $1, p1_aggregate = $2, p2_aggregate = $3, status = $4, winner_id = $5
		WHERE id = $6`
	result, err := exec.ExecContext(ctx, query, setsJSON, match.P1Aggregate, match.P2Aggregate, match.Status, match.WinnerID, match.ID)
	if err != nil {
		return fmt.Errorf("failed to update score state for match %d: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// FillSlot writes one participant into one slot of a successor match. The
// guard makes the write idempotent: re-delivering the same winner succeeds,
// while a different participant in the slot surfaces ErrMatchSlotConflict.
// When the write completes the second slot, the match leaves PENDING_PLAYER.
func (r *postgresMatchRepository) FillSlot(ctx context.Context, exec SQLExecutor, matchID int, slot models.Slot, playerID int, playerName string) error {
	var query string
	switch slot {
	case models.SlotP1:
		query = `
			UPDATE matches
			SET player1_id = $2, player1_name = $3,
			    status = CASE WHEN status = 'PENDING_PLAYER' AND player2_id IS NOT NULL THEN 'PENDING_COURT' ELSE status END
			WHERE id = $1 AND (player1_id IS NULL OR player1_id = $2)`
	case models.SlotP2:
		query = `
			UPDATE matches
			SET player2_id = $2, player2_name = $3,
			    status = CASE WHEN status = 'PENDING_PLAYER' AND player1_id IS NOT NULL THEN 'PENDING_COURT' ELSE status END
			WHERE id = $1 AND (player2_id IS NULL OR player2_id = $2)`
	default:
		return fmt.Errorf("unknown slot %q for match %d", slot, matchID)
	}

	result, err := exec.ExecContext(ctx, query, matchID, playerID, playerName)
	if err != nil {
		return fmt.Errorf("failed to fill slot %s of match %d: %w", slot, matchID, err)
	}
	return checkAffectedRows(result, ErrMatchSlotConflict)
}

func (r *postgresMatchRepository) AssignCourt(ctx context.Context, matchID, courtID int) error {
	// Only matches the external allocator may pick up are assignable.
	query := `UPDATE matches SET court_id = $1 WHERE id = $2 AND status = 'PENDING_COURT'`
	result, err := r.db.ExecContext(ctx, query, courtID, matchID)
	if err != nil {
		return fmt.Errorf("failed to assign court %d to match %d: %w", courtID, matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CountUnfinishedGroupMatches(ctx context.Context, exec SQLExecutor, categoryID int) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE category_id = $1 AND stage = 'group' AND status <> 'COMPLETED'`
	var count int
	if err := exec.QueryRowContext(ctx, query, categoryID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unfinished group matches for category %d: %w", categoryID, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) CountUnfinishedMatches(ctx context.Context, exec SQLExecutor, categoryID int) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE category_id = $1 AND status <> 'COMPLETED'`
	var count int
	if err := exec.QueryRowContext(ctx, query, categoryID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unfinished matches for category %d: %w", categoryID, err)
	}
	return count, nil
}
