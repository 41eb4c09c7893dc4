package scoring

import (
	"sort"

	"github.com/Dosada05/prediction-league/models"
)

// AssignRanks orders standings by TotalPoints descending and assigns
// standard competition ranks: equal totals share a rank, and the next
// distinct total's rank is 1 + the number of members strictly ahead of
// it (totals [10,10,8] rank as [1,1,3]).
//
// Display order among tied members is deterministic: earliest league
// join first, then user id. The shared rank is unaffected by the
// tie-break; it only fixes the order rows come back in.
//
// Before a new rank is written, the current rank is copied into
// PreviousRank so callers can surface movement. A member ranked for
// the first time keeps PreviousRank nil.
func AssignRanks(standings []*models.LeagueStanding) {
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].TotalPoints != standings[j].TotalPoints {
			return standings[i].TotalPoints > standings[j].TotalPoints
		}
		if !standings[i].MemberSince.Equal(standings[j].MemberSince) {
			return standings[i].MemberSince.Before(standings[j].MemberSince)
		}
		return standings[i].UserID < standings[j].UserID
	})

	for i, s := range standings {
		if s.Rank > 0 {
			prev := s.Rank
			s.PreviousRank = &prev
		}
		if i > 0 && standings[i-1].TotalPoints == s.TotalPoints {
			s.Rank = standings[i-1].Rank
		} else {
			s.Rank = i + 1
		}
	}
}
