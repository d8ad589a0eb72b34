package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/ligadmin/league-system/models"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchCompetitionInvalid = errors.New("match competition conflict or invalid")
	ErrBracketSlotConflict     = errors.New("bracket slot already taken for this round and position")

	// ErrMatchNotPending is returned when a finalize write matched no row:
	// the match is gone or another caller finalized it first.
	ErrMatchNotPending = errors.New("match is not pending")
)

// SlotAssignment is a partial update of one side of a match: the club that
// takes the slot. Applying it also clears that side's placeholder.
type SlotAssignment struct {
	ClubID int
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	CreateMany(ctx context.Context, exec SQLExecutor, matches []*models.Match) (int, error)
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.Match, error)
	ListKnockoutByCompetition(ctx context.Context, competitionID int) ([]*models.Match, error)
	ListDependingOn(ctx context.Context, matchID int) ([]*models.Match, error)
	FinalizeScore(ctx context.Context, id int, homeGoals, awayGoals int) error
	UpdateSlots(ctx context.Context, exec SQLExecutor, id int, home, away *SlotAssignment) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, competition_id, stage, round, position, matchday_order, group_name,
	       home_club_id, away_club_id, home_placeholder, away_placeholder,
	       home_source_match_id, away_source_match_id, home_source_position, away_source_position,
	       home_club_goals, away_club_goals, status, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(competition_id, stage, round, position, matchday_order, group_name,
			 home_club_id, away_club_id, home_placeholder, away_placeholder,
			 home_source_match_id, away_source_match_id, home_source_position, away_source_position,
			 status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		match.CompetitionID,
		match.Stage,
		match.Round,
		match.Position,
		match.MatchdayOrder,
		match.GroupName,
		match.HomeClubID,
		match.AwayClubID,
		match.HomePlaceholder,
		match.AwayPlaceholder,
		match.HomeSourceMatchID,
		match.AwaySourceMatchID,
		match.HomeSourcePosition,
		match.AwaySourcePosition,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

// CreateMany bulk-inserts drafts in one statement. Generated ids are not
// reported back; fixtures that need them (knockout) go through Create.
func (r *postgresMatchRepository) CreateMany(ctx context.Context, exec SQLExecutor, matches []*models.Match) (int, error) {
	if len(matches) == 0 {
		return 0, nil
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		INSERT INTO matches
			(competition_id, stage, round, position, matchday_order, group_name,
			 home_club_id, away_club_id, home_placeholder, away_placeholder,
			 home_source_match_id, away_source_match_id, home_source_position, away_source_position,
			 status)
		VALUES `)

	const columnsPerRow = 15
	args := make([]interface{}, 0, len(matches)*columnsPerRow)
	for i, match := range matches {
		if i > 0 {
			queryBuilder.WriteString(", ")
		}
		queryBuilder.WriteString("(")
		for col := 0; col < columnsPerRow; col++ {
			if col > 0 {
				queryBuilder.WriteString(", ")
			}
			queryBuilder.WriteString("$")
			queryBuilder.WriteString(strconv.Itoa(i*columnsPerRow + col + 1))
		}
		queryBuilder.WriteString(")")
		args = append(args,
			match.CompetitionID,
			match.Stage,
			match.Round,
			match.Position,
			match.MatchdayOrder,
			match.GroupName,
			match.HomeClubID,
			match.AwayClubID,
			match.HomePlaceholder,
			match.AwayPlaceholder,
			match.HomeSourceMatchID,
			match.AwaySourceMatchID,
			match.HomeSourcePosition,
			match.AwaySourcePosition,
			match.Status,
		)
	}

	result, err := exec.ExecContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return 0, r.handleMatchError(err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check inserted rows: %w", err)
	}
	return int(inserted), nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE competition_id = $1
		ORDER BY matchday_order ASC NULLS LAST, id ASC`

	return r.queryMatches(ctx, query, competitionID)
}

// ListKnockoutByCompetition returns knockout matches only, with their
// dependency fields, ordered by round precedence then position.
func (r *postgresMatchRepository) ListKnockoutByCompetition(ctx context.Context, competitionID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE competition_id = $1 AND stage = $2
		ORDER BY
			CASE round
				WHEN 'ROUND_OF_16' THEN 1
				WHEN 'QUARTERFINAL' THEN 2
				WHEN 'SEMIFINAL' THEN 3
				WHEN 'FINAL' THEN 4
			END ASC,
			position ASC`

	return r.queryMatches(ctx, query, competitionID, models.StageKnockout)
}

func (r *postgresMatchRepository) ListDependingOn(ctx context.Context, matchID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE home_source_match_id = $1 OR away_source_match_id = $1
		ORDER BY id ASC`

	return r.queryMatches(ctx, query, matchID)
}

// FinalizeScore records the scoreline and flips the match to FINALIZADO.
// The status predicate makes the transition a compare-and-swap: a match
// already finalized by a concurrent caller matches no row.
func (r *postgresMatchRepository) FinalizeScore(ctx context.Context, id int, homeGoals, awayGoals int) error {
	query := `
		UPDATE matches
		SET home_club_goals = $1, away_club_goals = $2, status = $3
		WHERE id = $4 AND status = $5`

	result, err := r.db.ExecContext(ctx, query, homeGoals, awayGoals, models.MatchStatusFinalized, id, models.MatchStatusPending)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotPending)
}

// UpdateSlots applies a merge-patch to one or both sides of a match:
// only the columns of the given sides are touched, so two cascades feeding
// opposite sides of the same match never overwrite each other's work.
func (r *postgresMatchRepository) UpdateSlots(ctx context.Context, exec SQLExecutor, id int, home, away *SlotAssignment) error {
	if home == nil && away == nil {
		return nil
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString("UPDATE matches SET ")

	args := make([]interface{}, 0, 3)
	if home != nil {
		args = append(args, home.ClubID)
		queryBuilder.WriteString("home_club_id = $")
		queryBuilder.WriteString(strconv.Itoa(len(args)))
		queryBuilder.WriteString(", home_placeholder = NULL")
	}
	if away != nil {
		if home != nil {
			queryBuilder.WriteString(", ")
		}
		args = append(args, away.ClubID)
		queryBuilder.WriteString("away_club_id = $")
		queryBuilder.WriteString(strconv.Itoa(len(args)))
		queryBuilder.WriteString(", away_placeholder = NULL")
	}

	args = append(args, id)
	queryBuilder.WriteString(" WHERE id = $")
	queryBuilder.WriteString(strconv.Itoa(len(args)))

	result, err := exec.ExecContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return fmt.Errorf("UpdateSlots: failed to execute query for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID,
		&match.CompetitionID,
		&match.Stage,
		&match.Round,
		&match.Position,
		&match.MatchdayOrder,
		&match.GroupName,
		&match.HomeClubID,
		&match.AwayClubID,
		&match.HomePlaceholder,
		&match.AwayPlaceholder,
		&match.HomeSourceMatchID,
		&match.AwaySourceMatchID,
		&match.HomeSourcePosition,
		&match.AwaySourcePosition,
		&match.HomeClubGoals,
		&match.AwayClubGoals,
		&match.Status,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_competition_id_fkey":
			return ErrMatchCompetitionInvalid
		case "matches_competition_round_position_key":
			return ErrBracketSlotConflict
		}
	}
	return err
}
