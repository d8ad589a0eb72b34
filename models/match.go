package models

import (
	"fmt"
	"time"
)

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "PENDING"
	MatchStatusFinalized MatchStatus = "FINALIZADO"
)

type MatchStage string

const (
	StageGroup    MatchStage = "GROUP"
	StageLeague   MatchStage = "LEAGUE"
	StageKnockout MatchStage = "KNOCKOUT"
)

type KnockoutRound string

const (
	RoundOf16    KnockoutRound = "ROUND_OF_16"
	Quarterfinal KnockoutRound = "QUARTERFINAL"
	Semifinal    KnockoutRound = "SEMIFINAL"
	Final        KnockoutRound = "FINAL"
)

// Order returns the fixed precedence of a knockout round. FROM_MATCH
// references only ever point at rounds with a lower or equal order, so
// building brackets in ascending order keeps the dependency graph acyclic.
func (r KnockoutRound) Order() int {
	switch r {
	case RoundOf16:
		return 1
	case Quarterfinal:
		return 2
	case Semifinal:
		return 3
	case Final:
		return 4
	default:
		return 0
	}
}

// Valid reports whether r is one of the known knockout rounds.
func (r KnockoutRound) Valid() bool {
	return r.Order() != 0
}

// ShortLabel is the compact round tag used in placeholder labels ("QF1").
func (r KnockoutRound) ShortLabel() string {
	switch r {
	case RoundOf16:
		return "R16"
	case Quarterfinal:
		return "QF"
	case Semifinal:
		return "SF"
	case Final:
		return "F"
	default:
		return string(r)
	}
}

type SourcePosition string

const (
	SourceWinner SourcePosition = "WINNER"
	SourceLoser  SourcePosition = "LOSER"
)

func (p SourcePosition) Valid() bool {
	return p == SourceWinner || p == SourceLoser
}

// Match is the central fixture entity. League and group matches carry a
// MatchdayOrder; knockout matches carry Round and Position instead. The
// Home/Away source fields link a knockout slot to the earlier match whose
// outcome fills it.
type Match struct {
	ID            int        `json:"id"`
	CompetitionID int        `json:"competition_id"`
	Stage         MatchStage `json:"stage"`

	Round         *KnockoutRound `json:"round,omitempty"`
	Position      *int           `json:"position,omitempty"`
	MatchdayOrder *int           `json:"matchday_order,omitempty"`
	GroupName     *string        `json:"group_name,omitempty"`

	HomeClubID *int `json:"home_club_id,omitempty"`
	AwayClubID *int `json:"away_club_id,omitempty"`

	HomePlaceholder *string `json:"home_placeholder,omitempty"`
	AwayPlaceholder *string `json:"away_placeholder,omitempty"`

	HomeSourceMatchID  *int            `json:"home_source_match_id,omitempty"`
	AwaySourceMatchID  *int            `json:"away_source_match_id,omitempty"`
	HomeSourcePosition *SourcePosition `json:"home_source_position,omitempty"`
	AwaySourcePosition *SourcePosition `json:"away_source_position,omitempty"`

	HomeClubGoals *int `json:"home_club_goals,omitempty"`
	AwayClubGoals *int `json:"away_club_goals,omitempty"`

	Status    MatchStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// FullyAssigned reports whether both sides have a real club.
func (m *Match) FullyAssigned() bool {
	return m.HomeClubID != nil && m.AwayClubID != nil
}

// SlotLabel renders the bracket slot name used in placeholders, e.g. "QF1".
func SlotLabel(round KnockoutRound, position int) string {
	return fmt.Sprintf("%s%d", round.ShortLabel(), position)
}
