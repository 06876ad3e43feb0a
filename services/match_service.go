package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Danielkai0107/courtside/models"
	"github.com/Danielkai0107/courtside/repositories"
)

type MatchService interface {
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	ListByCategory(ctx context.Context, categoryID int, stage *models.MatchStage, status *models.MatchStatus) ([]*models.Match, error)
	ListReadyMatches(ctx context.Context, categoryID int) ([]*models.Match, error)
	AssignCourt(ctx context.Context, matchID, courtID int) (*models.Match, error)
	ListCourts(ctx context.Context, activeOnly bool) ([]models.Court, error)
}

type matchService struct {
	matchRepo repositories.MatchRepository
	courtRepo repositories.CourtRepository
	logger    *slog.Logger
}

func NewMatchService(matchRepo repositories.MatchRepository, courtRepo repositories.CourtRepository, logger *slog.Logger) MatchService {
	return &matchService{matchRepo: matchRepo, courtRepo: courtRepo, logger: logger}
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) ListByCategory(ctx context.Context, categoryID int, stage *models.MatchStage, status *models.MatchStatus) ([]*models.Match, error) {
	return s.matchRepo.ListByCategory(ctx, categoryID, stage, status)
}

// ListReadyMatches returns the matches an external court allocator can pick
// up: both participants known, no court yet.
func (s *matchService) ListReadyMatches(ctx context.Context, categoryID int) ([]*models.Match, error) {
	status := models.MatchPendingCourt
	return s.matchRepo.ListByCategory(ctx, categoryID, nil, &status)
}

// AssignCourt pins an active court onto a match that is waiting for one.
func (s *matchService) AssignCourt(ctx context.Context, matchID, courtID int) (*models.Match, error) {
	court, err := s.courtRepo.GetByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	if !court.IsActive {
		return nil, fmt.Errorf("%w: court %d is inactive", ErrCourtNotAssignable, courtID)
	}

	if err := s.matchRepo.AssignCourt(ctx, matchID, courtID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			// The guarded update distinguishes nothing further: either the
			// match does not exist or it is not waiting for a court.
			if _, getErr := s.matchRepo.GetByID(ctx, matchID); getErr != nil {
				return nil, ErrMatchNotFound
			}
			return nil, ErrCourtNotAssignable
		}
		return nil, err
	}

	s.logger.Info("court assigned", slog.Int("match_id", matchID), slog.Int("court_id", courtID))
	return s.matchRepo.GetByID(ctx, matchID)
}

func (s *matchService) ListCourts(ctx context.Context, activeOnly bool) ([]models.Court, error) {
	return s.courtRepo.GetAll(ctx, activeOnly)
}
