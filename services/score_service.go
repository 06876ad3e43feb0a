package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Danielkai0107/courtside/brackets"
	"github.com/Danielkai0107/courtside/models"
	"github.com/Danielkai0107/courtside/notify"
	"github.com/Danielkai0107/courtside/repositories"
	"github.com/Danielkai0107/courtside/rules"
	"github.com/sethvargo/go-retry"
)

// RecordScoreInput is one score report for one set of one match. Reports are
// absolute, not increments, so redelivering the same report is harmless.
type RecordScoreInput struct {
	SetNumber int `json:"setNumber"`
	P1Score   int `json:"p1Score"`
	P2Score   int `json:"p2Score"`
}

type ScoreService interface {
	RecordScore(ctx context.Context, matchID int, input RecordScoreInput) (*models.Match, error)
}

type scoreService struct {
	db           *sql.DB
	categoryRepo repositories.CategoryRepository
	matchRepo    repositories.MatchRepository
	playerRepo   repositories.PlayerRepository
	hub          *brackets.Hub
	notifier     notify.Notifier
	logger       *slog.Logger
}

func NewScoreService(
	db *sql.DB,
	categoryRepo repositories.CategoryRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	hub *brackets.Hub,
	notifier notify.Notifier,
	logger *slog.Logger,
) ScoreService {
	return &scoreService{
		db:           db,
		categoryRepo: categoryRepo,
		matchRepo:    matchRepo,
		playerRepo:   playerRepo,
		hub:          hub,
		notifier:     notifier,
		logger:       logger,
	}
}

// RecordScore applies one score report against the category's frozen rules.
// Completing a match propagates the winner (and loser, where the bracket
// defines a consolation destination) into the successor slots, advances the
// group stage when its last match finishes, and completes the category when
// no unfinished match remains.
func (s *scoreService) RecordScore(ctx context.Context, matchID int, input RecordScoreInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	category, err := s.categoryRepo.GetByID(ctx, match.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category %d for match %d: %w", match.CategoryID, matchID, err)
	}

	if match.Status == models.MatchCompleted {
		// Redelivery of a report the recorder already applied. The score is
		// committed, but an earlier delivery may have failed between that
		// commit and the advancement checks, so re-run the structural
		// follow-up while the category is still open.
		if isRedelivery(match, input) {
			if category.Status == models.CategoryOngoing {
				if err := s.settleCategory(ctx, category, match); err != nil {
					return nil, err
				}
			}
			return match, nil
		}
		return nil, ErrMatchAlreadyCompleted
	}
	if category.Status != models.CategoryOngoing {
		return nil, fmt.Errorf("%w: category %d is %s", ErrInvalidTransition, category.ID, category.Status)
	}
	cfg := category.ScoringConfig
	if match.Player1ID == nil || match.Player2ID == nil {
		return nil, ErrMatchNotReady
	}
	if err := validateSetNumber(cfg, match, input.SetNumber); err != nil {
		return nil, err
	}
	// Completed sets are frozen. Re-reporting identical scores is harmless
	// redelivery; anything else is a rejected rewrite.
	for _, set := range match.Sets {
		if set.SetNumber == input.SetNumber && set.IsCompleted {
			if set.P1Score == input.P1Score && set.P2Score == input.P2Score {
				return match, nil
			}
			return nil, fmt.Errorf("%w: set %d is already decided", ErrInvalidTransition, input.SetNumber)
		}
	}

	applySet(cfg, match, input)
	recomputeAggregates(cfg, match)

	result := rules.EvaluateMatch(cfg, match.Sets)
	if result.IsCompleted {
		match.Status = models.MatchCompleted
		if *result.Winner == models.SlotP1 {
			match.WinnerID = match.Player1ID
		} else {
			match.WinnerID = match.Player2ID
		}
	} else if match.Status == models.MatchPendingCourt {
		match.Status = models.MatchInProgress
	}

	if err := s.persistAndPropagate(ctx, match); err != nil {
		return nil, err
	}

	s.broadcastMatch(ctx, category, match)
	if match.Status == models.MatchCompleted {
		if err := s.afterCompletion(ctx, category, match); err != nil {
			return nil, err
		}
	}
	return match, nil
}

// isRedelivery reports whether the input repeats scores already frozen into
// the completed match.
func isRedelivery(match *models.Match, input RecordScoreInput) bool {
	for _, set := range match.Sets {
		if set.SetNumber == input.SetNumber {
			return set.P1Score == input.P1Score && set.P2Score == input.P2Score
		}
	}
	return false
}

func validateSetNumber(cfg models.ScoringConfig, match *models.Match, setNumber int) error {
	if setNumber < 1 {
		return ErrSetIndexOutOfRange
	}
	if cfg.MatchType == models.MatchTypePointBased && setNumber != 1 {
		return fmt.Errorf("%w: point based matches have a single set", ErrSetIndexOutOfRange)
	}
	if cfg.MatchType == models.MatchTypeSetBased && setNumber > cfg.MaxSets {
		return fmt.Errorf("%w: set %d exceeds maxSets %d", ErrSetIndexOutOfRange, setNumber, cfg.MaxSets)
	}
	// Sets fill in order; the report may update the current set or open the
	// next one, never skip ahead.
	if setNumber > len(match.Sets)+1 {
		return fmt.Errorf("%w: set %d reported with only %d sets played", ErrSetIndexOutOfRange, setNumber, len(match.Sets))
	}
	return nil
}

// applySet writes the report into the target set, creating it if the report
// opens a new set, and lets the rule engine decide completion.
func applySet(cfg models.ScoringConfig, match *models.Match, input RecordScoreInput) {
	idx := -1
	for i := range match.Sets {
		if match.Sets[i].SetNumber == input.SetNumber {
			idx = i
			break
		}
	}
	if idx == -1 {
		match.Sets = append(match.Sets, models.MatchSet{SetNumber: input.SetNumber})
		idx = len(match.Sets) - 1
	}

	set := &match.Sets[idx]
	set.P1Score = input.P1Score
	set.P2Score = input.P2Score
	res := rules.EvaluateSet(cfg, input.P1Score, input.P2Score)
	set.IsCompleted = res.IsCompleted
	set.Winner = res.Winner
}

// recomputeAggregates derives the headline score from the set list: won sets
// for set based play, raw points for point based play.
func recomputeAggregates(cfg models.ScoringConfig, match *models.Match) {
	if cfg.MatchType == models.MatchTypePointBased {
		if len(match.Sets) > 0 {
			match.P1Aggregate = match.Sets[0].P1Score
			match.P2Aggregate = match.Sets[0].P2Score
		}
		return
	}
	match.P1Aggregate, match.P2Aggregate = rules.CountWonSets(match.Sets)
}

// persistAndPropagate writes the new score state and, for a completed match,
// the successor slot fills, in one transaction. Slot conflicts are retried
// briefly: the write is idempotent, so a retry that finds our own earlier
// write in place succeeds.
func (s *scoreService) persistAndPropagate(ctx context.Context, match *models.Match) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		txErr := s.runScoreTx(ctx, match)
		if errors.Is(txErr, repositories.ErrMatchSlotConflict) {
			return retry.RetryableError(txErr)
		}
		return txErr
	})
	if errors.Is(err, repositories.ErrMatchSlotConflict) {
		return fmt.Errorf("%w: match %d", ErrPropagationConflict, match.ID)
	}
	return err
}

func (s *scoreService) runScoreTx(ctx context.Context, match *models.Match) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin score transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		} else if cErr := tx.Commit(); cErr != nil {
			retErr = fmt.Errorf("failed to commit score: %w", cErr)
		}
	}()

	if err := s.matchRepo.UpdateScoreState(ctx, tx, match); err != nil {
		return err
	}
	if match.Status != models.MatchCompleted {
		return nil
	}
	return s.propagate(ctx, tx, match)
}

// propagate pushes the decided participants into their destination slots.
func (s *scoreService) propagate(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	if match.NextMatchID != nil && match.NextMatchSlot != nil && match.WinnerID != nil {
		name := winnerName(match)
		if err := s.matchRepo.FillSlot(ctx, exec, *match.NextMatchID, *match.NextMatchSlot, *match.WinnerID, name); err != nil {
			return err
		}
	}
	if match.LoserNextMatchID != nil && match.LoserNextMatchSlot != nil {
		if loserID := match.LoserID(); loserID != nil {
			name := loserName(match)
			if err := s.matchRepo.FillSlot(ctx, exec, *match.LoserNextMatchID, *match.LoserNextMatchSlot, *loserID, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func winnerSlot(match *models.Match) models.Slot {
	if match.WinnerID != nil && match.Player1ID != nil && *match.WinnerID == *match.Player1ID {
		return models.SlotP1
	}
	return models.SlotP2
}

func winnerName(match *models.Match) string {
	return deref(match.PlayerName(winnerSlot(match)))
}

func loserName(match *models.Match) string {
	return deref(match.PlayerName(winnerSlot(match).Other()))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// afterCompletion runs the consequences of a freshly finished match:
// notifications, standings broadcast, then the advancement and completion
// checks.
func (s *scoreService) afterCompletion(ctx context.Context, category *models.Category, match *models.Match) error {
	s.notifyReadyDestinations(ctx, match)
	if match.Stage == models.StageTagGroup {
		s.broadcastStandings(ctx, category)
	}
	return s.settleCategory(ctx, category, match)
}

// settleCategory checks whether the completed match closed out the group
// stage or the whole category and runs the pending transition. Safe to run
// again for a match that was already settled: slot fills are idempotent and
// the completion transition tolerates a concurrent winner.
func (s *scoreService) settleCategory(ctx context.Context, category *models.Category, match *models.Match) error {
	if match.Stage == models.StageTagGroup {
		remaining, err := s.matchRepo.CountUnfinishedGroupMatches(ctx, s.db, category.ID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			if err := s.advanceGroupStage(ctx, category); err != nil {
				return err
			}
		}
	}

	unfinished, err := s.matchRepo.CountUnfinishedMatches(ctx, s.db, category.ID)
	if err != nil {
		return err
	}
	if unfinished == 0 {
		if err := s.completeCategory(ctx, category); err != nil {
			return err
		}
	}
	return nil
}

func (s *scoreService) completeCategory(ctx context.Context, category *models.Category) error {
	err := s.categoryRepo.UpdateStatus(ctx, s.db, category.ID, models.CategoryOngoing, models.CategoryCompleted)
	if err != nil {
		// A concurrent completion already moved it; nothing left to do.
		if errors.Is(err, repositories.ErrCategoryStateConflict) {
			return nil
		}
		return err
	}
	s.logger.Info("category completed", slog.Int("category_id", category.ID))
	room := categoryRoom(category.ID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.EventCategoryCompleted,
		Payload: map[string]int{"category_id": category.ID},
		RoomID:  room,
	})
	return nil
}

// advanceGroupStage fills the knockout entry round from the final group
// tables. The frozen format re-plans deterministically, so the planned entry
// matches line up with the rows materialized at generation time by round and
// order.
func (s *scoreService) advanceGroupStage(ctx context.Context, category *models.Category) (retErr error) {
	plan, err := brackets.PlanFormat(category.FormatConfig, category.CurrentParticipants)
	if err != nil {
		return fmt.Errorf("failed to re-plan category %d for advancement: %w", category.ID, err)
	}
	if plan.KnockoutEntrants == 0 {
		return nil // pure group format, nothing to advance into
	}

	all, err := s.matchRepo.ListByCategory(ctx, category.ID, nil, nil)
	if err != nil {
		return err
	}
	groupMatches := make([]models.Match, 0, len(all))
	type roundOrder struct{ round, order int }
	knockoutByPos := make(map[roundOrder]*models.Match)
	for _, m := range all {
		switch m.Stage {
		case models.StageTagGroup:
			groupMatches = append(groupMatches, *m)
		case models.StageTagKnockout:
			knockoutByPos[roundOrder{m.Round, m.MatchOrder}] = m
		}
	}

	tables := brackets.ComputeStandings(groupMatches)
	qualifiers := brackets.SelectQualifiers(tables, plan.GroupCount, plan.GroupAdvance, plan.BestThirdPlaces)
	if len(qualifiers) < plan.KnockoutEntrants {
		return fmt.Errorf("advancement for category %d selected %d qualifiers, need %d", category.ID, len(qualifiers), plan.KnockoutEntrants)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin advancement transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		} else if cErr := tx.Commit(); cErr != nil {
			retErr = fmt.Errorf("failed to commit advancement: %w", cErr)
		}
	}()

	entryRound := plan.GroupRounds + 1
	for _, pm := range plan.Matches {
		if pm.Stage != models.StageTagKnockout || pm.Round != entryRound {
			continue
		}
		dbMatch, ok := knockoutByPos[roundOrder{pm.Round, pm.Order}]
		if !ok {
			return fmt.Errorf("no materialized match for knockout round %d order %d in category %d", pm.Round, pm.Order, category.ID)
		}
		if err := s.fillQualifier(ctx, tx, dbMatch, models.SlotP1, pm.Seed1, qualifiers); err != nil {
			return err
		}
		if err := s.fillQualifier(ctx, tx, dbMatch, models.SlotP2, pm.Seed2, qualifiers); err != nil {
			return err
		}
		if pm.IsBye && pm.Seed1 != nil {
			// The bye row completes now that its participant is known, and
			// its winner moves on immediately.
			q := qualifiers[*pm.Seed1-1]
			dbMatch.Status = models.MatchCompleted
			dbMatch.WinnerID = &q.PlayerID
			if err := s.matchRepo.UpdateScoreState(ctx, tx, dbMatch); err != nil {
				return err
			}
			if dbMatch.NextMatchID != nil && dbMatch.NextMatchSlot != nil {
				if err := s.matchRepo.FillSlot(ctx, tx, *dbMatch.NextMatchID, *dbMatch.NextMatchSlot, q.PlayerID, q.PlayerName); err != nil {
					return err
				}
			}
		}
	}

	s.logger.Info("group stage advanced",
		slog.Int("category_id", category.ID),
		slog.Int("qualifiers", len(qualifiers)),
	)
	room := categoryRoom(category.ID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.EventBracketUpdated,
		Payload: map[string]int{"category_id": category.ID},
		RoomID:  room,
	})
	return nil
}

func (s *scoreService) fillQualifier(ctx context.Context, exec repositories.SQLExecutor, dbMatch *models.Match, slot models.Slot, rank *int, qualifiers []brackets.Qualifier) error {
	if rank == nil {
		return nil
	}
	if *rank < 1 || *rank > len(qualifiers) {
		return fmt.Errorf("qualification rank %d out of range for %d qualifiers", *rank, len(qualifiers))
	}
	q := qualifiers[*rank-1]
	return s.matchRepo.FillSlot(ctx, exec, dbMatch.ID, slot, q.PlayerID, q.PlayerName)
}

// notifyReadyDestinations tells the players of a successor match that their
// slot sheet is full. Failures are logged, never returned: notification is
// not part of the scoring contract.
func (s *scoreService) notifyReadyDestinations(ctx context.Context, match *models.Match) {
	for _, destID := range []*int{match.NextMatchID, match.LoserNextMatchID} {
		if destID == nil {
			continue
		}
		dest, err := s.matchRepo.GetByID(ctx, *destID)
		if err != nil || dest.Status != models.MatchPendingCourt {
			continue
		}
		var emails []string
		for _, pid := range []*int{dest.Player1ID, dest.Player2ID} {
			if pid == nil {
				continue
			}
			player, perr := s.playerRepo.GetByID(ctx, *pid)
			if perr != nil || player.Email == nil || *player.Email == "" {
				continue
			}
			emails = append(emails, *player.Email)
		}
		if len(emails) == 0 {
			continue
		}
		subject := "Your next match is ready"
		body := fmt.Sprintf("%s vs %s is waiting for a court assignment.", deref(dest.Player1Name), deref(dest.Player2Name))
		if err := s.notifier.Send(ctx, emails, subject, body); err != nil {
			s.logger.Warn("court call notification failed",
				slog.Int("match_id", dest.ID), slog.Any("error", err))
		}
	}
}

func (s *scoreService) broadcastMatch(ctx context.Context, category *models.Category, match *models.Match) {
	room := categoryRoom(category.ID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.EventMatchUpdated,
		Payload: match,
		RoomID:  room,
	})
	// Destinations may have changed shape through propagation.
	if match.Status == models.MatchCompleted {
		for _, destID := range []*int{match.NextMatchID, match.LoserNextMatchID} {
			if destID == nil {
				continue
			}
			if dest, err := s.matchRepo.GetByID(ctx, *destID); err == nil {
				s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
					Type:    brackets.EventMatchUpdated,
					Payload: dest,
					RoomID:  room,
				})
			}
		}
	}
}

func (s *scoreService) broadcastStandings(ctx context.Context, category *models.Category) {
	stage := models.StageTagGroup
	matches, err := s.matchRepo.ListByCategory(ctx, category.ID, &stage, nil)
	if err != nil {
		s.logger.Warn("failed to load matches for standings broadcast",
			slog.Int("category_id", category.ID), slog.Any("error", err))
		return
	}
	flat := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		flat = append(flat, *m)
	}
	room := categoryRoom(category.ID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.EventStandingsUpdated,
		Payload: brackets.ComputeStandings(flat),
		RoomID:  room,
	})
}
