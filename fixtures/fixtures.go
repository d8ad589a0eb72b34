package fixtures

import (
	"errors"
	"fmt"

	"github.com/ligadmin/league-system/models"
)

var (
	// ErrInvalidScheduleInput covers malformed participant lists and bad
	// bracket descriptors: too few clubs, duplicate club ids, unknown
	// rounds or slot source kinds.
	ErrInvalidScheduleInput = errors.New("invalid schedule input")

	// ErrDependencyNotFound means a FROM_MATCH reference points at a
	// bracket slot that has not been built yet.
	ErrDependencyNotFound = errors.New("bracket slot dependency not found")
)

// MatchDraft is an unpersisted match produced by the generators. The store
// assigns the id; everything else is decided here.
type MatchDraft struct {
	Stage models.MatchStage

	Round         *models.KnockoutRound
	Position      *int
	MatchdayOrder *int
	GroupName     *string

	HomeClubID *int
	AwayClubID *int

	HomePlaceholder *string
	AwayPlaceholder *string

	HomeSourceMatchID  *int
	AwaySourceMatchID  *int
	HomeSourcePosition *models.SourcePosition
	AwaySourcePosition *models.SourcePosition
}

// Group is one group-stage group: a label and the clubs drawn into it.
type Group struct {
	Name    string `json:"name"`
	ClubIDs []int  `json:"club_ids"`
}

type SlotSourceKind string

const (
	SlotDirect    SlotSourceKind = "DIRECT"
	SlotFromMatch SlotSourceKind = "FROM_MATCH"
	SlotFromGroup SlotSourceKind = "FROM_GROUP"
)

// SlotSource describes where one side of a bracket slot comes from.
// Exactly the fields relevant to Kind are expected to be set.
type SlotSource struct {
	Kind SlotSourceKind `json:"kind"`

	// DIRECT
	ClubID *int `json:"club_id,omitempty"`

	// FROM_MATCH
	SourceRound    *models.KnockoutRound  `json:"source_round,omitempty"`
	SourcePosition *int                   `json:"source_position,omitempty"`
	Take           *models.SourcePosition `json:"take,omitempty"`

	// FROM_GROUP
	GroupName  *string `json:"group_name,omitempty"`
	GroupPlace *int    `json:"group_place,omitempty"`
}

// BracketSlotInput is the declarative description of one knockout slot.
type BracketSlotInput struct {
	Round    models.KnockoutRound `json:"round"`
	Position int                  `json:"position"`
	HomeTeam SlotSource           `json:"home_team"`
	AwayTeam SlotSource           `json:"away_team"`
}

// SlotRef identifies a bracket slot within a single competition.
type SlotRef struct {
	Round    models.KnockoutRound
	Position int
}

func (r SlotRef) String() string {
	return models.SlotLabel(r.Round, r.Position)
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}
