package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Danielkai0107/courtside/brackets"
	"github.com/Danielkai0107/courtside/models"
	"github.com/Danielkai0107/courtside/repositories"
)

type BracketService interface {
	GenerateBracket(ctx context.Context, categoryID int) (*models.Category, error)
}

type bracketService struct {
	db           *sql.DB
	categoryRepo repositories.CategoryRepository
	entryRepo    repositories.EntryRepository
	matchRepo    repositories.MatchRepository
	hub          *brackets.Hub
	logger       *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	categoryRepo repositories.CategoryRepository,
	entryRepo repositories.EntryRepository,
	matchRepo repositories.MatchRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:           db,
		categoryRepo: categoryRepo,
		entryRepo:    entryRepo,
		matchRepo:    matchRepo,
		hub:          hub,
		logger:       logger,
	}
}

// GenerateBracket closes registration and materializes the planned topology
// into match rows. The whole build runs in one transaction: either every
// match exists with its links wired and the category is ONGOING, or nothing
// changed and the category is back in REGISTRATION.
func (s *bracketService) GenerateBracket(ctx context.Context, categoryID int) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	if category.Status != models.CategoryRegistration {
		return nil, fmt.Errorf("%w: category %d is %s", ErrInvalidTransition, categoryID, category.Status)
	}

	entries, err := s.entryRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for category %d: %w", categoryID, err)
	}

	plan, err := brackets.PlanFormat(category.FormatConfig, len(entries))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}

	// PROCESSING marks the closing point: registrations arriving after this
	// guarded transition fail their own status check.
	if err := s.categoryRepo.UpdateStatus(ctx, s.db, categoryID, models.CategoryRegistration, models.CategoryProcessing); err != nil {
		if errors.Is(err, repositories.ErrCategoryStateConflict) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	if err := s.materialize(ctx, category, entries, plan); err != nil {
		// Reopen so the failure is not terminal; if this also fails the
		// category is stuck in PROCESSING and needs operator attention.
		if reopenErr := s.categoryRepo.UpdateStatus(ctx, s.db, categoryID, models.CategoryProcessing, models.CategoryRegistration); reopenErr != nil {
			s.logger.Error("failed to reopen category after build failure",
				slog.Int("category_id", categoryID), slog.Any("error", reopenErr))
		}
		return nil, err
	}

	category.Status = models.CategoryOngoing
	s.logger.Info("bracket generated",
		slog.Int("category_id", categoryID),
		slog.Int("entries", len(entries)),
		slog.Int("matches", len(plan.Matches)),
	)
	s.hub.BroadcastToRoom(categoryRoom(categoryID), brackets.WebSocketMessage{
		Type:    brackets.EventBracketUpdated,
		Payload: map[string]int{"category_id": categoryID},
		RoomID:  categoryRoom(categoryID),
	})
	return category, nil
}

// materialize writes the plan in two passes. Pass one inserts every match row
// with its participants bound where the plan names a seed; pass two wires the
// winner and loser links once every row has an id. Byes complete immediately
// and push their participant forward inside the same transaction.
func (s *bracketService) materialize(ctx context.Context, category *models.Category, entries []*models.CategoryEntry, plan *brackets.Plan) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bracket transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if retErr != nil {
			_ = tx.Rollback()
		} else if cErr := tx.Commit(); cErr != nil {
			retErr = fmt.Errorf("failed to commit bracket: %w", cErr)
		}
	}()

	// Group-stage seeds always refer to registered entries. Knockout seeds do
	// too, except when a group stage precedes the knockout: then they are
	// qualification ranks and stay unbound until advancement fills them.
	seedEntry := func(pm *brackets.PlannedMatch, seed *int) *models.CategoryEntry {
		if seed == nil {
			return nil
		}
		if pm.Stage == models.StageTagKnockout && plan.HasGroupStage {
			return nil
		}
		if *seed < 1 || *seed > len(entries) {
			return nil
		}
		return entries[*seed-1]
	}

	uidToID := make(map[string]int, len(plan.Matches))
	dbMatches := make(map[string]*models.Match, len(plan.Matches))

	for _, pm := range plan.Matches {
		match := &models.Match{
			CategoryID: category.ID,
			Round:      pm.Round,
			MatchOrder: pm.Order,
			Stage:      pm.Stage,
			GroupLabel: pm.GroupLabel,
			RoundLabel: pm.RoundLabel,
			Status:     models.MatchPendingPlayer,
			IsBye:      pm.IsBye,
			Sets:       []models.MatchSet{},
		}
		if e := seedEntry(pm, pm.Seed1); e != nil {
			match.Player1ID, match.Player1Name = &e.PlayerID, &e.PlayerName
		}
		if e := seedEntry(pm, pm.Seed2); e != nil {
			match.Player2ID, match.Player2Name = &e.PlayerID, &e.PlayerName
		}
		switch {
		case pm.IsBye && match.Player1ID != nil:
			// A bye is a completed record, never played.
			match.Status = models.MatchCompleted
			match.WinnerID = match.Player1ID
		case match.Player1ID != nil && match.Player2ID != nil:
			match.Status = models.MatchPendingCourt
		}
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			return err
		}
		uidToID[pm.UID] = match.ID
		dbMatches[pm.UID] = match
	}

	for _, pm := range plan.Matches {
		if pm.WinnerTo == nil && pm.LoserTo == nil {
			continue
		}
		var next, loserNext *int
		var nextSlot, loserSlot *models.Slot
		if pm.WinnerTo != nil {
			id, ok := uidToID[pm.WinnerTo.MatchUID]
			if !ok {
				return fmt.Errorf("planned link %s points at unknown match %s", pm.UID, pm.WinnerTo.MatchUID)
			}
			slot := pm.WinnerTo.Slot
			next, nextSlot = &id, &slot
		}
		if pm.LoserTo != nil {
			id, ok := uidToID[pm.LoserTo.MatchUID]
			if !ok {
				return fmt.Errorf("planned link %s points at unknown match %s", pm.UID, pm.LoserTo.MatchUID)
			}
			slot := pm.LoserTo.Slot
			loserNext, loserSlot = &id, &slot
		}
		if err := s.matchRepo.UpdateLinks(ctx, tx, uidToID[pm.UID], next, nextSlot, loserNext, loserSlot); err != nil {
			return err
		}
	}

	// Bye winners advance before anyone scores a point.
	for _, pm := range plan.Matches {
		if !pm.IsBye || pm.WinnerTo == nil {
			continue
		}
		match := dbMatches[pm.UID]
		if match.WinnerID == nil || match.Player1Name == nil {
			continue
		}
		destID, ok := uidToID[pm.WinnerTo.MatchUID]
		if !ok {
			return fmt.Errorf("bye %s points at unknown match %s", pm.UID, pm.WinnerTo.MatchUID)
		}
		if err := s.matchRepo.FillSlot(ctx, tx, destID, pm.WinnerTo.Slot, *match.WinnerID, *match.Player1Name); err != nil {
			return err
		}
	}

	return s.categoryRepo.UpdateStatus(ctx, tx, category.ID, models.CategoryProcessing, models.CategoryOngoing)
}

func categoryRoom(categoryID int) string {
	return "category:" + strconv.Itoa(categoryID)
}
