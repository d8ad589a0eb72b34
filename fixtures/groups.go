package fixtures

import (
	"fmt"

	"github.com/ligadmin/league-system/models"
)

// GenerateGroupStage runs a single round-robin for every group
// independently and tags the resulting drafts with the group name. Groups
// never interact; output order follows the declaration order of the input.
func GenerateGroupStage(groups []Group) ([]MatchDraft, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no groups given", ErrInvalidScheduleInput)
	}

	var drafts []MatchDraft
	for _, group := range groups {
		if group.Name == "" {
			return nil, fmt.Errorf("%w: group without a name", ErrInvalidScheduleInput)
		}
		groupDrafts, err := GenerateRoundRobin(group.ClubIDs, false)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", group.Name, err)
		}
		for i := range groupDrafts {
			name := group.Name
			groupDrafts[i].Stage = models.StageGroup
			groupDrafts[i].GroupName = &name
		}
		drafts = append(drafts, groupDrafts...)
	}
	return drafts, nil
}
