package fixtures

import (
	"context"
	"fmt"
	"sort"

	"github.com/ligadmin/league-system/models"
)

// CreateMatchFunc persists one draft and returns the stored match with its
// id assigned. BuildKnockout calls it once per slot, in round-ascending
// order, because later slots resolve their FROM_MATCH references against
// the ids of matches created earlier in the same pass.
type CreateMatchFunc func(ctx context.Context, draft *MatchDraft) (*models.Match, error)

// BuildKnockout turns a declarative bracket description into a linked set of
// persisted matches. Slots are processed sorted by round precedence
// (ROUND_OF_16 < QUARTERFINAL < SEMIFINAL < FINAL) and position; a running
// map from (round, position) to match id resolves forward references, so a
// FROM_MATCH source must name a slot that sorts strictly earlier. The map is
// threaded through the single pass rather than kept in package state.
func BuildKnockout(ctx context.Context, slots []BracketSlotInput, create CreateMatchFunc) ([]*models.Match, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: no bracket slots given", ErrInvalidScheduleInput)
	}

	ordered := make([]BracketSlotInput, len(slots))
	copy(ordered, slots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Round.Order() != ordered[j].Round.Order() {
			return ordered[i].Round.Order() < ordered[j].Round.Order()
		}
		return ordered[i].Position < ordered[j].Position
	})

	seen := make(map[SlotRef]struct{}, len(ordered))
	for _, slot := range ordered {
		if !slot.Round.Valid() {
			return nil, fmt.Errorf("%w: unknown round %q", ErrInvalidScheduleInput, slot.Round)
		}
		if slot.Position < 1 {
			return nil, fmt.Errorf("%w: position %d in round %s must be 1-based", ErrInvalidScheduleInput, slot.Position, slot.Round)
		}
		ref := SlotRef{Round: slot.Round, Position: slot.Position}
		if _, dup := seen[ref]; dup {
			return nil, fmt.Errorf("%w: duplicate bracket slot %s", ErrInvalidScheduleInput, ref)
		}
		seen[ref] = struct{}{}
	}

	idsBySlot := make(map[SlotRef]int, len(ordered))
	created := make([]*models.Match, 0, len(ordered))

	for _, slot := range ordered {
		round := slot.Round
		position := slot.Position
		draft := &MatchDraft{
			Stage:    models.StageKnockout,
			Round:    &round,
			Position: &position,
		}

		ref := SlotRef{Round: round, Position: position}
		if err := resolveSlotSide(draft, slot.HomeTeam, idsBySlot, true); err != nil {
			return nil, fmt.Errorf("slot %s home: %w", ref, err)
		}
		if err := resolveSlotSide(draft, slot.AwayTeam, idsBySlot, false); err != nil {
			return nil, fmt.Errorf("slot %s away: %w", ref, err)
		}

		match, err := create(ctx, draft)
		if err != nil {
			return nil, err
		}
		idsBySlot[ref] = match.ID
		created = append(created, match)
	}

	return created, nil
}

// resolveSlotSide fills one side of a knockout draft from its source
// descriptor. FROM_GROUP produces a placeholder only: group standings are
// not computed here, the slot stays open until an upstream cascade or a
// manual override assigns a club.
func resolveSlotSide(draft *MatchDraft, source SlotSource, idsBySlot map[SlotRef]int, home bool) error {
	switch source.Kind {
	case SlotDirect:
		if source.ClubID == nil {
			return fmt.Errorf("%w: DIRECT source without club id", ErrInvalidScheduleInput)
		}
		clubID := *source.ClubID
		if home {
			draft.HomeClubID = &clubID
		} else {
			draft.AwayClubID = &clubID
		}
		return nil

	case SlotFromMatch:
		if source.SourceRound == nil || source.SourcePosition == nil || source.Take == nil {
			return fmt.Errorf("%w: FROM_MATCH source missing round, position or take", ErrInvalidScheduleInput)
		}
		if !source.Take.Valid() {
			return fmt.Errorf("%w: unknown source position %q", ErrInvalidScheduleInput, *source.Take)
		}
		ref := SlotRef{Round: *source.SourceRound, Position: *source.SourcePosition}
		matchID, ok := idsBySlot[ref]
		if !ok {
			return fmt.Errorf("%w: %s", ErrDependencyNotFound, ref)
		}
		take := *source.Take
		placeholder := fmt.Sprintf("%s %s", takeLabel(take), ref)
		if home {
			draft.HomeSourceMatchID = &matchID
			draft.HomeSourcePosition = &take
			draft.HomePlaceholder = &placeholder
		} else {
			draft.AwaySourceMatchID = &matchID
			draft.AwaySourcePosition = &take
			draft.AwayPlaceholder = &placeholder
		}
		return nil

	case SlotFromGroup:
		if source.GroupName == nil || source.GroupPlace == nil {
			return fmt.Errorf("%w: FROM_GROUP source missing group name or place", ErrInvalidScheduleInput)
		}
		if *source.GroupPlace < 1 {
			return fmt.Errorf("%w: group place %d must be 1-based", ErrInvalidScheduleInput, *source.GroupPlace)
		}
		placeholder := fmt.Sprintf("Group %s - %s", *source.GroupName, ordinal(*source.GroupPlace))
		if home {
			draft.HomePlaceholder = &placeholder
		} else {
			draft.AwayPlaceholder = &placeholder
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown slot source kind %q", ErrInvalidScheduleInput, source.Kind)
	}
}

func takeLabel(p models.SourcePosition) string {
	if p == models.SourceLoser {
		return "Loser"
	}
	return "Winner"
}
