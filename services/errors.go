package services

import "errors"

// Errors shared between the fixture service and the HTTP error mapping.
var (
	// Not-found
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrMatchNotFound       = errors.New("match not found")

	// Input validation
	ErrLeagueTooSmall   = errors.New("league fixtures require at least 8 clubs")
	ErrGroupTooSmall    = errors.New("group fixtures require at least 4 clubs per group")
	ErrInvalidScoreline = errors.New("goals must be zero or positive")

	// State conflicts around finalization
	ErrMatchAlreadyFinalized = errors.New("match is already finalized")
	ErrMatchNotAssigned      = errors.New("match sides are not fully assigned yet")
	ErrKnockoutMatchDraw     = errors.New("knockout matches cannot end in a draw")
)
