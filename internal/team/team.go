// Package team implements the balanced 2v2 split: strongest paired with
// weakest against the two middle-rated players.
package team

import (
	"sort"

	"github.com/l8smu/hsmrankedbot/internal/domain"
)

// Member is one candidate for assignment, in queue join order.
type Member struct {
	PlayerID string
	Rating   int
}

// Assign splits exactly four members into two teams. Members are stable-sorted
// ascending by rating, so among equal ratings the earlier joiner counts as the
// weaker seat. Team 1 takes the strongest and weakest seats, team 2 the two
// middle ones. Averages are floored integers for display.
func Assign(members [4]Member) domain.TeamAssignment {
	asc := members[:]
	sort.SliceStable(asc, func(i, j int) bool {
		return asc[i].Rating < asc[j].Rating
	})

	return domain.TeamAssignment{
		Team1:    [2]string{asc[3].PlayerID, asc[0].PlayerID},
		Team2:    [2]string{asc[2].PlayerID, asc[1].PlayerID},
		Team1Avg: (asc[3].Rating + asc[0].Rating) / 2,
		Team2Avg: (asc[2].Rating + asc[1].Rating) / 2,
	}
}
