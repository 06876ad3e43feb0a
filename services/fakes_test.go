package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Danielkai0107/courtside/brackets"
	"github.com/Danielkai0107/courtside/models"
	"github.com/Danielkai0107/courtside/repositories"
	"github.com/stretchr/testify/require"
)

// The services own their transaction boundaries, so the tests hand them a
// real *sql.DB backed by a driver whose transactions are no-ops. The fake
// repositories below ignore the executor they receive and keep their state in
// memory.

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("stub connection does not execute statements")
}
func (stubConn) Close() error              { return nil }
func (stubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerStubDriver sync.Once

func newStubDB(t *testing.T) *sql.DB {
	t.Helper()
	registerStubDriver.Do(func() { sql.Register("stub", stubDriver{}) })
	db, err := sql.Open("stub", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cloneMatch(m *models.Match) *models.Match {
	c := *m
	c.Sets = append([]models.MatchSet(nil), m.Sets...)
	return &c
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  int
	matches map[int]*models.Match

	// groupCountErr fails the next CountUnfinishedGroupMatches call, once.
	groupCountErr error
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: map[int]*models.Match{}}
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	match.ID = r.nextID
	match.CreatedAt = time.Now()
	r.matches[match.ID] = cloneMatch(match)
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (r *fakeMatchRepo) ListByCategory(_ context.Context, categoryID int, stage *models.MatchStage, status *models.MatchStatus) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.CategoryID != categoryID {
			continue
		}
		if stage != nil && m.Stage != *stage {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		out = append(out, cloneMatch(m))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		if a.MatchOrder != b.MatchOrder {
			return a.MatchOrder < b.MatchOrder
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r *fakeMatchRepo) UpdateLinks(_ context.Context, _ repositories.SQLExecutor, matchID int, next *int, nextSlot *models.Slot, loserNext *int, loserSlot *models.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.NextMatchID, m.NextMatchSlot = next, nextSlot
	m.LoserNextMatchID, m.LoserNextMatchSlot = loserNext, loserSlot
	return nil
}

func (r *fakeMatchRepo) UpdateScoreState(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Sets = append([]models.MatchSet(nil), match.Sets...)
	m.P1Aggregate = match.P1Aggregate
	m.P2Aggregate = match.P2Aggregate
	m.Status = match.Status
	m.WinnerID = match.WinnerID
	return nil
}

// FillSlot mirrors the guarded UPDATE of the postgres repository: writing the
// same participant again succeeds, a different one conflicts, and completing
// the pair moves the match out of PENDING_PLAYER.
func (r *fakeMatchRepo) FillSlot(_ context.Context, _ repositories.SQLExecutor, matchID int, slot models.Slot, playerID int, playerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchSlotConflict
	}
	id, name := &m.Player1ID, &m.Player1Name
	other := m.Player2ID
	if slot == models.SlotP2 {
		id, name = &m.Player2ID, &m.Player2Name
		other = m.Player1ID
	}
	if *id != nil && **id != playerID {
		return repositories.ErrMatchSlotConflict
	}
	*id = &playerID
	*name = &playerName
	if m.Status == models.MatchPendingPlayer && other != nil {
		m.Status = models.MatchPendingCourt
	}
	return nil
}

func (r *fakeMatchRepo) AssignCourt(_ context.Context, matchID, courtID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok || m.Status != models.MatchPendingCourt {
		return repositories.ErrMatchNotFound
	}
	m.CourtID = &courtID
	return nil
}

func (r *fakeMatchRepo) CountUnfinishedGroupMatches(_ context.Context, _ repositories.SQLExecutor, categoryID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.groupCountErr != nil {
		err := r.groupCountErr
		r.groupCountErr = nil
		return 0, err
	}
	count := 0
	for _, m := range r.matches {
		if m.CategoryID == categoryID && m.Stage == models.StageTagGroup && m.Status != models.MatchCompleted {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) CountUnfinishedMatches(_ context.Context, _ repositories.SQLExecutor, categoryID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.matches {
		if m.CategoryID == categoryID && m.Status != models.MatchCompleted {
			count++
		}
	}
	return count, nil
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	nextID     int
	categories map[int]*models.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[int]*models.Category{}}
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	category.ID = r.nextID
	category.CreatedAt = time.Now()
	stored := *category
	r.categories[category.ID] = &stored
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id int) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, repositories.ErrCategoryNotFound
	}
	out := *c
	return &out, nil
}

func (r *fakeCategoryRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, from, to models.CategoryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok || c.Status != from {
		return repositories.ErrCategoryStateConflict
	}
	c.Status = to
	return nil
}

func (r *fakeCategoryRepo) IncrementParticipants(_ context.Context, _ repositories.SQLExecutor, id int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok || c.Status != models.CategoryRegistration ||
		(c.MaxParticipants > 0 && c.CurrentParticipants >= c.MaxParticipants) {
		return 0, repositories.ErrCategoryFull
	}
	c.CurrentParticipants++
	return c.CurrentParticipants, nil
}

type fakeEntryRepo struct {
	mu      sync.Mutex
	nextID  int
	entries []*models.CategoryEntry
}

func newFakeEntryRepo() *fakeEntryRepo { return &fakeEntryRepo{} }

func (r *fakeEntryRepo) Create(_ context.Context, _ repositories.SQLExecutor, entry *models.CategoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.CategoryID == entry.CategoryID && e.PlayerID == entry.PlayerID {
			return repositories.ErrEntryConflict
		}
	}
	r.nextID++
	entry.ID = r.nextID
	entry.CreatedAt = time.Now()
	stored := *entry
	r.entries = append(r.entries, &stored)
	return nil
}

func (r *fakeEntryRepo) ListByCategory(_ context.Context, categoryID int) ([]*models.CategoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.CategoryEntry, 0)
	for _, e := range r.entries {
		if e.CategoryID == categoryID {
			copied := *e
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seed != out[j].Seed {
			return out[i].Seed < out[j].Seed
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeEntryRepo) CountByCategory(_ context.Context, categoryID int) (int, error) {
	entries, _ := r.ListByCategory(context.Background(), categoryID)
	return len(entries), nil
}

type fakePlayerRepo struct {
	players map[int]*models.Player
}

func newFakePlayerRepo(players ...*models.Player) *fakePlayerRepo {
	r := &fakePlayerRepo{players: map[int]*models.Player{}}
	for _, p := range players {
		r.players[p.ID] = p
	}
	return r
}

func (r *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	out := *p
	return &out, nil
}

type fakeSportRepo struct {
	nextID  int
	sports  map[int]*models.Sport
	presets map[int]*models.RulePreset
}

func newFakeSportRepo() *fakeSportRepo {
	return &fakeSportRepo{sports: map[int]*models.Sport{}, presets: map[int]*models.RulePreset{}}
}

func (r *fakeSportRepo) Create(_ context.Context, sport *models.Sport) error {
	for _, s := range r.sports {
		if s.Name == sport.Name {
			return repositories.ErrSportNameConflict
		}
	}
	r.nextID++
	sport.ID = r.nextID
	stored := *sport
	r.sports[sport.ID] = &stored
	return nil
}

func (r *fakeSportRepo) GetByID(_ context.Context, id int) (*models.Sport, error) {
	s, ok := r.sports[id]
	if !ok {
		return nil, repositories.ErrSportNotFound
	}
	out := *s
	presets, _ := r.ListPresetsBySport(context.Background(), id)
	out.Presets = presets
	return &out, nil
}

func (r *fakeSportRepo) GetAll(_ context.Context, activeOnly bool) ([]models.Sport, error) {
	out := make([]models.Sport, 0)
	for _, s := range r.sports {
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSportRepo) Update(_ context.Context, sport *models.Sport) error {
	if _, ok := r.sports[sport.ID]; !ok {
		return repositories.ErrSportNotFound
	}
	stored := *sport
	r.sports[sport.ID] = &stored
	return nil
}

func (r *fakeSportRepo) CreatePreset(_ context.Context, preset *models.RulePreset) error {
	if _, ok := r.sports[preset.SportID]; !ok {
		return repositories.ErrSportNotFound
	}
	r.nextID++
	preset.ID = r.nextID
	stored := *preset
	r.presets[preset.ID] = &stored
	return nil
}

func (r *fakeSportRepo) GetPresetByID(_ context.Context, presetID int) (*models.RulePreset, error) {
	p, ok := r.presets[presetID]
	if !ok {
		return nil, repositories.ErrPresetNotFound
	}
	out := *p
	out.ScoringConfig = p.ScoringConfig.Clone()
	return &out, nil
}

func (r *fakeSportRepo) ListPresetsBySport(_ context.Context, sportID int) ([]models.RulePreset, error) {
	out := make([]models.RulePreset, 0)
	for _, p := range r.presets {
		if p.SportID == sportID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeFormatRepo struct {
	nextID  int
	formats map[int]*models.FormatDefinition
}

func newFakeFormatRepo() *fakeFormatRepo {
	return &fakeFormatRepo{formats: map[int]*models.FormatDefinition{}}
}

func (r *fakeFormatRepo) Create(_ context.Context, format *models.FormatDefinition) error {
	for _, f := range r.formats {
		if f.Name == format.Name {
			return repositories.ErrFormatNameConflict
		}
	}
	r.nextID++
	format.ID = r.nextID
	stored := format.Clone()
	r.formats[format.ID] = &stored
	return nil
}

func (r *fakeFormatRepo) GetByID(_ context.Context, id int) (*models.FormatDefinition, error) {
	f, ok := r.formats[id]
	if !ok {
		return nil, repositories.ErrFormatNotFound
	}
	out := f.Clone()
	return &out, nil
}

func (r *fakeFormatRepo) GetAll(_ context.Context) ([]models.FormatDefinition, error) {
	out := make([]models.FormatDefinition, 0)
	for _, f := range r.formats {
		out = append(out, f.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFormatRepo) Update(_ context.Context, format *models.FormatDefinition) error {
	if _, ok := r.formats[format.ID]; !ok {
		return repositories.ErrFormatNotFound
	}
	stored := format.Clone()
	r.formats[format.ID] = &stored
	return nil
}

func (r *fakeFormatRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.formats[id]; !ok {
		return repositories.ErrFormatNotFound
	}
	delete(r.formats, id)
	return nil
}

type fakeCourtRepo struct {
	courts map[int]*models.Court
}

func newFakeCourtRepo(courts ...*models.Court) *fakeCourtRepo {
	r := &fakeCourtRepo{courts: map[int]*models.Court{}}
	for _, c := range courts {
		r.courts[c.ID] = c
	}
	return r
}

func (r *fakeCourtRepo) GetByID(_ context.Context, id int) (*models.Court, error) {
	c, ok := r.courts[id]
	if !ok {
		return nil, repositories.ErrCourtNotFound
	}
	out := *c
	return &out, nil
}

func (r *fakeCourtRepo) GetAll(_ context.Context, activeOnly bool) ([]models.Court, error) {
	out := make([]models.Court, 0)
	for _, c := range r.courts {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// env bundles everything a service test needs behind the in-memory fakes.
type env struct {
	db         *sql.DB
	categories *fakeCategoryRepo
	entries    *fakeEntryRepo
	matches    *fakeMatchRepo
	players    *fakePlayerRepo
	sports     *fakeSportRepo
	formats    *fakeFormatRepo
	courts     *fakeCourtRepo
	hub        *brackets.Hub
	logger     *slog.Logger
}

func newEnv(t *testing.T) *env {
	logger := testLogger()
	return &env{
		db:         newStubDB(t),
		categories: newFakeCategoryRepo(),
		entries:    newFakeEntryRepo(),
		matches:    newFakeMatchRepo(),
		players:    newFakePlayerRepo(),
		sports:     newFakeSportRepo(),
		formats:    newFakeFormatRepo(),
		courts:     newFakeCourtRepo(),
		hub:        brackets.NewHub(logger),
		logger:     logger,
	}
}

func (e *env) addPlayer(id int, name string) {
	email := fmt.Sprintf("player%d@example.com", id)
	e.players.players[id] = &models.Player{ID: id, Name: name, Email: &email}
}
