package fixtures

import (
	"context"
	"errors"
	"testing"

	"github.com/ligadmin/league-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCreate assigns sequential ids starting at 100 and keeps the drafts
// it was handed, in call order.
func recordingCreate() (CreateMatchFunc, *[]*MatchDraft) {
	var drafts []*MatchDraft
	nextID := 100
	create := func(_ context.Context, draft *MatchDraft) (*models.Match, error) {
		drafts = append(drafts, draft)
		match := &models.Match{
			ID:                 nextID,
			Stage:              draft.Stage,
			Round:              draft.Round,
			Position:           draft.Position,
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
		nextID++
		return match, nil
	}
	return create, &drafts
}

func intPtr(v int) *int { return &v }

func directSource(clubID int) SlotSource {
	return SlotSource{Kind: SlotDirect, ClubID: intPtr(clubID)}
}

func fromMatchSource(round models.KnockoutRound, position int, take models.SourcePosition) SlotSource {
	return SlotSource{
		Kind:           SlotFromMatch,
		SourceRound:    &round,
		SourcePosition: intPtr(position),
		Take:           &take,
	}
}

func TestBuildKnockoutLinksFinalToSemifinals(t *testing.T) {
	slots := []BracketSlotInput{
		// Declared final-first on purpose; the builder must sort.
		{
			Round:    models.Final,
			Position: 1,
			HomeTeam: fromMatchSource(models.Semifinal, 1, models.SourceWinner),
			AwayTeam: fromMatchSource(models.Semifinal, 2, models.SourceWinner),
		},
		{Round: models.Semifinal, Position: 1, HomeTeam: directSource(11), AwayTeam: directSource(12)},
		{Round: models.Semifinal, Position: 2, HomeTeam: directSource(13), AwayTeam: directSource(14)},
	}

	create, _ := recordingCreate()
	created, err := BuildKnockout(context.Background(), slots, create)
	require.NoError(t, err)
	require.Len(t, created, 3)

	sf1, sf2, final := created[0], created[1], created[2]

	assert.Equal(t, models.Semifinal, *sf1.Round)
	assert.Equal(t, 1, *sf1.Position)
	assert.Equal(t, 11, *sf1.HomeClubID)
	assert.Equal(t, models.StageKnockout, sf1.Stage)

	require.NotNil(t, final.HomeSourceMatchID)
	require.NotNil(t, final.AwaySourceMatchID)
	assert.Equal(t, sf1.ID, *final.HomeSourceMatchID)
	assert.Equal(t, sf2.ID, *final.AwaySourceMatchID)
	assert.Equal(t, models.SourceWinner, *final.HomeSourcePosition)
	assert.Equal(t, "Winner SF1", *final.HomePlaceholder)
	assert.Equal(t, "Winner SF2", *final.AwayPlaceholder)
	assert.Nil(t, final.HomeClubID)
	assert.Nil(t, final.AwayClubID)
}

func TestBuildKnockoutThirdPlacePlayoff(t *testing.T) {
	slots := []BracketSlotInput{
		{Round: models.Semifinal, Position: 1, HomeTeam: directSource(1), AwayTeam: directSource(2)},
		{Round: models.Semifinal, Position: 2, HomeTeam: directSource(3), AwayTeam: directSource(4)},
		{
			Round:    models.Final,
			Position: 2,
			HomeTeam: fromMatchSource(models.Semifinal, 1, models.SourceLoser),
			AwayTeam: fromMatchSource(models.Semifinal, 2, models.SourceLoser),
		},
	}

	create, _ := recordingCreate()
	created, err := BuildKnockout(context.Background(), slots, create)
	require.NoError(t, err)

	playoff := created[2]
	assert.Equal(t, "Loser SF1", *playoff.HomePlaceholder)
	assert.Equal(t, "Loser SF2", *playoff.AwayPlaceholder)
	assert.Equal(t, models.SourceLoser, *playoff.HomeSourcePosition)
	assert.Equal(t, created[0].ID, *playoff.HomeSourceMatchID)
}

func TestBuildKnockoutFromGroupPlaceholders(t *testing.T) {
	groupA := "A"
	groupB := "B"
	first := 1
	second := 2
	slots := []BracketSlotInput{
		{
			Round:    models.Semifinal,
			Position: 1,
			HomeTeam: SlotSource{Kind: SlotFromGroup, GroupName: &groupA, GroupPlace: &first},
			AwayTeam: SlotSource{Kind: SlotFromGroup, GroupName: &groupB, GroupPlace: &second},
		},
	}

	create, _ := recordingCreate()
	created, err := BuildKnockout(context.Background(), slots, create)
	require.NoError(t, err)
	require.Len(t, created, 1)

	match := created[0]
	assert.Equal(t, "Group A - 1st", *match.HomePlaceholder)
	assert.Equal(t, "Group B - 2nd", *match.AwayPlaceholder)
	assert.Nil(t, match.HomeClubID)
	assert.Nil(t, match.HomeSourceMatchID, "group sources carry no match linkage")
}

func TestBuildKnockoutDependencyNotFound(t *testing.T) {
	t.Run("reference to a missing slot", func(t *testing.T) {
		slots := []BracketSlotInput{
			{
				Round:    models.Final,
				Position: 1,
				HomeTeam: fromMatchSource(models.Quarterfinal, 1, models.SourceWinner),
				AwayTeam: directSource(5),
			},
		}
		create, _ := recordingCreate()
		_, err := BuildKnockout(context.Background(), slots, create)
		require.ErrorIs(t, err, ErrDependencyNotFound)
		assert.Contains(t, err.Error(), "QF1")
	})

	t.Run("reference to a later round", func(t *testing.T) {
		slots := []BracketSlotInput{
			{
				Round:    models.Semifinal,
				Position: 1,
				HomeTeam: fromMatchSource(models.Final, 1, models.SourceWinner),
				AwayTeam: directSource(5),
			},
			{Round: models.Final, Position: 1, HomeTeam: directSource(1), AwayTeam: directSource(2)},
		}
		create, _ := recordingCreate()
		_, err := BuildKnockout(context.Background(), slots, create)
		assert.ErrorIs(t, err, ErrDependencyNotFound)
	})
}

func TestBuildKnockoutInvalidInput(t *testing.T) {
	create, _ := recordingCreate()

	t.Run("empty bracket", func(t *testing.T) {
		_, err := BuildKnockout(context.Background(), nil, create)
		assert.ErrorIs(t, err, ErrInvalidScheduleInput)
	})

	t.Run("unknown round", func(t *testing.T) {
		slots := []BracketSlotInput{
			{Round: "EIGHTH_FINAL", Position: 1, HomeTeam: directSource(1), AwayTeam: directSource(2)},
		}
		_, err := BuildKnockout(context.Background(), slots, create)
		assert.ErrorIs(t, err, ErrInvalidScheduleInput)
	})

	t.Run("zero position", func(t *testing.T) {
		slots := []BracketSlotInput{
			{Round: models.Final, Position: 0, HomeTeam: directSource(1), AwayTeam: directSource(2)},
		}
		_, err := BuildKnockout(context.Background(), slots, create)
		assert.ErrorIs(t, err, ErrInvalidScheduleInput)
	})

	t.Run("duplicate slot", func(t *testing.T) {
		slots := []BracketSlotInput{
			{Round: models.Semifinal, Position: 1, HomeTeam: directSource(1), AwayTeam: directSource(2)},
			{Round: models.Semifinal, Position: 1, HomeTeam: directSource(3), AwayTeam: directSource(4)},
		}
		_, err := BuildKnockout(context.Background(), slots, create)
		require.ErrorIs(t, err, ErrInvalidScheduleInput)
		assert.Contains(t, err.Error(), "SF1")
	})

	t.Run("direct source without club", func(t *testing.T) {
		slots := []BracketSlotInput{
			{Round: models.Final, Position: 1, HomeTeam: SlotSource{Kind: SlotDirect}, AwayTeam: directSource(2)},
		}
		_, err := BuildKnockout(context.Background(), slots, create)
		assert.ErrorIs(t, err, ErrInvalidScheduleInput)
	})

	t.Run("unknown source kind", func(t *testing.T) {
		slots := []BracketSlotInput{
			{Round: models.Final, Position: 1, HomeTeam: SlotSource{Kind: "RANDOM_DRAW"}, AwayTeam: directSource(2)},
		}
		_, err := BuildKnockout(context.Background(), slots, create)
		assert.ErrorIs(t, err, ErrInvalidScheduleInput)
	})
}

func TestBuildKnockoutCreateFailureStopsThePass(t *testing.T) {
	boom := errors.New("insert failed")
	calls := 0
	create := func(_ context.Context, _ *MatchDraft) (*models.Match, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return &models.Match{ID: calls, Status: models.MatchStatusPending}, nil
	}

	slots := []BracketSlotInput{
		{Round: models.Semifinal, Position: 1, HomeTeam: directSource(1), AwayTeam: directSource(2)},
		{Round: models.Semifinal, Position: 2, HomeTeam: directSource(3), AwayTeam: directSource(4)},
	}

	created, err := BuildKnockout(context.Background(), slots, create)
	assert.Nil(t, created)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
