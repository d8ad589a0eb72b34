package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ligadmin/league-system/fixtures"
	"github.com/ligadmin/league-system/models"
	"github.com/ligadmin/league-system/repositories"
	"github.com/ligadmin/league-system/storage"
	"golang.org/x/sync/errgroup"
)

const (
	minLeagueClubs = 8
	minGroupClubs  = 4
)

// FixtureResult reports a fixture-generation operation.
type FixtureResult struct {
	Success        bool `json:"success"`
	CompetitionID  int  `json:"competition_id"`
	MatchesCreated int  `json:"matches_created"`
}

// FinishMatchResult reports a finalized match and the dependent matches the
// cascade filled in.
type FinishMatchResult struct {
	Success                 bool            `json:"success"`
	Match                   *models.Match   `json:"match"`
	DependentMatchesUpdated int             `json:"dependent_matches_updated"`
	UpdatedMatches          []*models.Match `json:"updated_matches"`
}

// CompetitionOverview bundles everything the admin UI renders for one
// competition page.
type CompetitionOverview struct {
	Competition *models.Competition `json:"competition"`
	Matches     []*models.Match     `json:"matches"`
	Bracket     []*models.Match     `json:"bracket"`
}

// CascadeError reports a cascade that failed partway. Dependent updates
// applied before the failure stay applied; DependentsUpdated says how many.
type CascadeError struct {
	MatchID           int
	DependentsUpdated int
	Err               error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade for match %d failed after %d dependent update(s): %v", e.MatchID, e.DependentsUpdated, e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}

type FixtureService interface {
	CreateLeagueFixture(ctx context.Context, competitionID int, clubIDs []int) (*FixtureResult, error)
	CreateGroupStageFixtures(ctx context.Context, competitionID int, groups []fixtures.Group) (*FixtureResult, error)
	CreateKnockoutFixture(ctx context.Context, competitionID int, slots []fixtures.BracketSlotInput) (*FixtureResult, error)
	FinishMatch(ctx context.Context, matchID int, homeGoals, awayGoals int) (*FinishMatchResult, error)
	GetKnockoutBracket(ctx context.Context, competitionID int) ([]*models.Match, error)
	GetCompetitionMatches(ctx context.Context, competitionID int) ([]*models.Match, error)
	GetMatchByID(ctx context.Context, matchID int) (*models.Match, error)
	GetCompetitionOverview(ctx context.Context, competitionID int) (*CompetitionOverview, error)
}

type fixtureService struct {
	db              *sql.DB
	competitionRepo repositories.CompetitionRepository
	matchRepo       repositories.MatchRepository
	hub             *fixtures.Hub
	uploader        storage.FileUploader
	logger          *slog.Logger
}

// NewFixtureService wires the scheduling engine against a competition lookup
// and the match store. Hub and uploader may be nil; live updates and fixture
// sheet export are then skipped.
func NewFixtureService(
	db *sql.DB,
	competitionRepo repositories.CompetitionRepository,
	matchRepo repositories.MatchRepository,
	hub *fixtures.Hub,
	uploader storage.FileUploader,
	logger *slog.Logger,
) FixtureService {
	return &fixtureService{
		db:              db,
		competitionRepo: competitionRepo,
		matchRepo:       matchRepo,
		hub:             hub,
		uploader:        uploader,
		logger:          logger,
	}
}

// CreateLeagueFixture generates the full league calendar. League fixtures
// are unconditionally double round-robin.
func (s *fixtureService) CreateLeagueFixture(ctx context.Context, competitionID int, clubIDs []int) (*FixtureResult, error) {
	if err := s.ensureCompetitionExists(ctx, competitionID); err != nil {
		return nil, err
	}
	if len(clubIDs) < minLeagueClubs {
		return nil, fmt.Errorf("%w: got %d", ErrLeagueTooSmall, len(clubIDs))
	}

	drafts, err := fixtures.GenerateRoundRobin(clubIDs, true)
	if err != nil {
		return nil, err
	}
	for i := range drafts {
		drafts[i].Stage = models.StageLeague
	}

	return s.persistDrafts(ctx, competitionID, drafts)
}

func (s *fixtureService) CreateGroupStageFixtures(ctx context.Context, competitionID int, groups []fixtures.Group) (*FixtureResult, error) {
	if err := s.ensureCompetitionExists(ctx, competitionID); err != nil {
		return nil, err
	}
	for _, group := range groups {
		if len(group.ClubIDs) < minGroupClubs {
			return nil, fmt.Errorf("%w: group %s has %d", ErrGroupTooSmall, group.Name, len(group.ClubIDs))
		}
	}

	drafts, err := fixtures.GenerateGroupStage(groups)
	if err != nil {
		return nil, err
	}

	return s.persistDrafts(ctx, competitionID, drafts)
}

// CreateKnockoutFixture persists the bracket match-by-match instead of in
// bulk: each match's id must be stored before any later slot referencing it
// is built. Rounds are therefore never created out of order.
func (s *fixtureService) CreateKnockoutFixture(ctx context.Context, competitionID int, slots []fixtures.BracketSlotInput) (*FixtureResult, error) {
	if err := s.ensureCompetitionExists(ctx, competitionID); err != nil {
		return nil, err
	}

	created, err := fixtures.BuildKnockout(ctx, slots, func(ctx context.Context, draft *fixtures.MatchDraft) (*models.Match, error) {
		match := draftToMatch(competitionID, draft)
		if createErr := s.matchRepo.Create(ctx, s.db, match); createErr != nil {
			return nil, createErr
		}
		return match, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("knockout fixture created",
		slog.Int("competition_id", competitionID),
		slog.Int("matches", len(created)))
	s.broadcast(competitionID, fixtures.EventFixtureCreated, created)
	s.exportFixtureSheet(ctx, competitionID, created)

	return &FixtureResult{Success: true, CompetitionID: competitionID, MatchesCreated: len(created)}, nil
}

// FinishMatch finalizes a scoreline and cascades the winner and loser into
// every match sourcing a side from it.
func (s *fixtureService) FinishMatch(ctx context.Context, matchID int, homeGoals, awayGoals int) (*FinishMatchResult, error) {
	if homeGoals < 0 || awayGoals < 0 {
		return nil, ErrInvalidScoreline
	}

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	if match.Status == models.MatchStatusFinalized {
		return nil, ErrMatchAlreadyFinalized
	}
	if !match.FullyAssigned() {
		return nil, ErrMatchNotAssigned
	}
	if match.Stage == models.StageKnockout && homeGoals == awayGoals {
		return nil, ErrKnockoutMatchDraw
	}

	if err := s.matchRepo.FinalizeScore(ctx, matchID, homeGoals, awayGoals); err != nil {
		if errors.Is(err, repositories.ErrMatchNotPending) {
			// Lost the compare-and-swap to a concurrent finalize.
			return nil, ErrMatchAlreadyFinalized
		}
		return nil, err
	}
	match.HomeClubGoals = &homeGoals
	match.AwayClubGoals = &awayGoals
	match.Status = models.MatchStatusFinalized

	updated, err := s.cascade(ctx, match, homeGoals, awayGoals)
	if err != nil {
		return nil, err
	}

	s.logger.Info("match finalized",
		slog.Int("match_id", matchID),
		slog.Int("home_goals", homeGoals),
		slog.Int("away_goals", awayGoals),
		slog.Int("dependents_updated", len(updated)))
	s.broadcast(match.CompetitionID, fixtures.EventMatchFinalized, match)

	return &FinishMatchResult{
		Success:                 true,
		Match:                   match,
		DependentMatchesUpdated: len(updated),
		UpdatedMatches:          updated,
	}, nil
}

// cascade propagates the outcome of a finalized match into its dependents.
// League and group matches may draw; the winner is then undefined and
// nothing cascades (only knockout matches are ever used as sources).
// Dependent writes are individual merge-patches, not a transaction: a
// failure partway leaves earlier updates applied and reports the count.
func (s *fixtureService) cascade(ctx context.Context, match *models.Match, homeGoals, awayGoals int) ([]*models.Match, error) {
	if homeGoals == awayGoals {
		return nil, nil
	}

	winnerID, loserID := *match.HomeClubID, *match.AwayClubID
	if awayGoals > homeGoals {
		winnerID, loserID = loserID, winnerID
	}

	dependents, err := s.matchRepo.ListDependingOn(ctx, match.ID)
	if err != nil {
		return nil, &CascadeError{MatchID: match.ID, Err: err}
	}

	updated := make([]*models.Match, 0, len(dependents))
	for _, dependent := range dependents {
		var home, away *repositories.SlotAssignment

		if dependent.HomeSourceMatchID != nil && *dependent.HomeSourceMatchID == match.ID {
			home = &repositories.SlotAssignment{ClubID: pickOutcome(dependent.HomeSourcePosition, winnerID, loserID)}
		}
		if dependent.AwaySourceMatchID != nil && *dependent.AwaySourceMatchID == match.ID {
			away = &repositories.SlotAssignment{ClubID: pickOutcome(dependent.AwaySourcePosition, winnerID, loserID)}
		}
		if home == nil && away == nil {
			continue
		}

		if err := s.matchRepo.UpdateSlots(ctx, s.db, dependent.ID, home, away); err != nil {
			return nil, &CascadeError{MatchID: match.ID, DependentsUpdated: len(updated), Err: err}
		}

		if home != nil {
			clubID := home.ClubID
			dependent.HomeClubID = &clubID
			dependent.HomePlaceholder = nil
		}
		if away != nil {
			clubID := away.ClubID
			dependent.AwayClubID = &clubID
			dependent.AwayPlaceholder = nil
		}
		updated = append(updated, dependent)
		s.broadcast(dependent.CompetitionID, fixtures.EventSlotAssigned, dependent)
	}

	return updated, nil
}

func pickOutcome(position *models.SourcePosition, winnerID, loserID int) int {
	if position != nil && *position == models.SourceLoser {
		return loserID
	}
	return winnerID
}

func (s *fixtureService) GetKnockoutBracket(ctx context.Context, competitionID int) ([]*models.Match, error) {
	return s.matchRepo.ListKnockoutByCompetition(ctx, competitionID)
}

func (s *fixtureService) GetCompetitionMatches(ctx context.Context, competitionID int) ([]*models.Match, error) {
	return s.matchRepo.ListByCompetition(ctx, competitionID)
}

func (s *fixtureService) GetMatchByID(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

// GetCompetitionOverview loads the competition, its full match list and the
// knockout bracket in parallel.
func (s *fixtureService) GetCompetitionOverview(ctx context.Context, competitionID int) (*CompetitionOverview, error) {
	overview := &CompetitionOverview{}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		competition, err := s.competitionRepo.GetByID(gCtx, competitionID)
		if err != nil {
			if errors.Is(err, repositories.ErrCompetitionNotFound) {
				return ErrCompetitionNotFound
			}
			return fmt.Errorf("failed to fetch competition %d: %w", competitionID, err)
		}
		overview.Competition = competition
		return nil
	})

	g.Go(func() error {
		matches, err := s.matchRepo.ListByCompetition(gCtx, competitionID)
		if err != nil {
			return fmt.Errorf("failed to fetch matches for competition %d: %w", competitionID, err)
		}
		overview.Matches = matches
		return nil
	})

	g.Go(func() error {
		bracket, err := s.matchRepo.ListKnockoutByCompetition(gCtx, competitionID)
		if err != nil {
			return fmt.Errorf("failed to fetch bracket for competition %d: %w", competitionID, err)
		}
		overview.Bracket = bracket
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

func (s *fixtureService) ensureCompetitionExists(ctx context.Context, competitionID int) error {
	exists, err := s.competitionRepo.Exists(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("failed to check competition %d: %w", competitionID, err)
	}
	if !exists {
		return ErrCompetitionNotFound
	}
	return nil
}

func (s *fixtureService) persistDrafts(ctx context.Context, competitionID int, drafts []fixtures.MatchDraft) (*FixtureResult, error) {
	matches := make([]*models.Match, len(drafts))
	for i := range drafts {
		matches[i] = draftToMatch(competitionID, &drafts[i])
	}

	created, err := s.matchRepo.CreateMany(ctx, s.db, matches)
	if err != nil {
		return nil, err
	}

	s.logger.Info("fixture created",
		slog.Int("competition_id", competitionID),
		slog.String("stage", string(drafts[0].Stage)),
		slog.Int("matches", created))
	s.broadcast(competitionID, fixtures.EventFixtureCreated, matches)
	s.exportFixtureSheet(ctx, competitionID, matches)

	return &FixtureResult{Success: true, CompetitionID: competitionID, MatchesCreated: created}, nil
}

func draftToMatch(competitionID int, draft *fixtures.MatchDraft) *models.Match {
	return &models.Match{
		CompetitionID:      competitionID,
		Stage:              draft.Stage,
		Round:              draft.Round,
		Position:           draft.Position,
		MatchdayOrder:      draft.MatchdayOrder,
		GroupName:          draft.GroupName,
		HomeClubID:         draft.HomeClubID,
		AwayClubID:         draft.AwayClubID,
		HomePlaceholder:    draft.HomePlaceholder,
		AwayPlaceholder:    draft.AwayPlaceholder,
		HomeSourceMatchID:  draft.HomeSourceMatchID,
		AwaySourceMatchID:  draft.AwaySourceMatchID,
		HomeSourcePosition: draft.HomeSourcePosition,
		AwaySourcePosition: draft.AwaySourcePosition,
		Status:             models.MatchStatusPending,
	}
}

func (s *fixtureService) broadcast(competitionID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToCompetition(competitionID, eventType, payload)
}

// exportFixtureSheet uploads a JSON sheet of the generated matches for the
// admin UI. Export failures are logged, never surfaced: the fixture itself
// is already durably stored.
func (s *fixtureService) exportFixtureSheet(ctx context.Context, competitionID int, matches []*models.Match) {
	if s.uploader == nil {
		return
	}

	sheet, err := json.Marshal(matches)
	if err != nil {
		s.logger.Error("failed to marshal fixture sheet", slog.Int("competition_id", competitionID), slog.Any("error", err))
		return
	}

	key := fmt.Sprintf("fixtures/competition_%d.json", competitionID)
	if _, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(sheet)); err != nil {
		s.logger.Error("failed to export fixture sheet", slog.Int("competition_id", competitionID), slog.Any("error", err))
	}
}
