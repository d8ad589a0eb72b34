package models

import "time"

// CompetitionType is the explicit discriminant for a competition's rules
// shape, decided when the competition is created. Consumers switch on this
// field instead of inspecting the configuration structurally.
type CompetitionType string

const (
	CompetitionLeague        CompetitionType = "league"
	CompetitionGroupKnockout CompetitionType = "group_knockout"
	CompetitionKnockout      CompetitionType = "knockout"
)

type Competition struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Type      CompetitionType `json:"type"`
	SeasonID  *int            `json:"season_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
