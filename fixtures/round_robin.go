package fixtures

import "fmt"

// byeClubID marks the synthetic participant padded in when the club count is
// odd. Matches involving it are dropped from the output.
const byeClubID = 0

// GenerateRoundRobin produces a round-robin schedule for the given clubs
// using the circle method: the first club stays fixed while the rest rotate
// one position per round, so after n-1 rounds every pair has met exactly
// once. MatchdayOrder is the 1-based circle round the match belongs to; that
// numbering is part of the contract, it drives fixture congestion in the
// admin calendar.
//
// With doubleRound a second cycle of the same pairings is appended with home
// and away swapped, numbered as matchdays n..2(n-1).
func GenerateRoundRobin(clubIDs []int, doubleRound bool) ([]MatchDraft, error) {
	if len(clubIDs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 clubs, got %d", ErrInvalidScheduleInput, len(clubIDs))
	}

	seen := make(map[int]struct{}, len(clubIDs))
	for _, id := range clubIDs {
		if id == byeClubID {
			return nil, fmt.Errorf("%w: club id %d is reserved", ErrInvalidScheduleInput, byeClubID)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate club id %d", ErrInvalidScheduleInput, id)
		}
		seen[id] = struct{}{}
	}

	circle := make([]int, len(clubIDs))
	copy(circle, clubIDs)
	if len(circle)%2 != 0 {
		circle = append(circle, byeClubID)
	}

	n := len(circle)
	rounds := n - 1
	half := n / 2

	drafts := make([]MatchDraft, 0, rounds*half)
	for round := 1; round <= rounds; round++ {
		for i := 0; i < half; i++ {
			home := circle[i]
			away := circle[n-1-i]
			if home == byeClubID || away == byeClubID {
				continue
			}
			drafts = append(drafts, newRoundRobinDraft(home, away, round))
		}
		// Rotate everything but the first position.
		circle = append(circle[:1], append([]int{circle[n-1]}, circle[1:n-1]...)...)
	}

	if doubleRound {
		firstCycle := len(drafts)
		for i := 0; i < firstCycle; i++ {
			leg := drafts[i]
			drafts = append(drafts, newRoundRobinDraft(*leg.AwayClubID, *leg.HomeClubID, *leg.MatchdayOrder+rounds))
		}
	}

	return drafts, nil
}

func newRoundRobinDraft(homeClubID, awayClubID, matchday int) MatchDraft {
	home := homeClubID
	away := awayClubID
	day := matchday
	return MatchDraft{
		MatchdayOrder: &day,
		HomeClubID:    &home,
		AwayClubID:    &away,
	}
}
