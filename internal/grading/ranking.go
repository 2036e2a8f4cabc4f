package grading

import "sort"

// RankedScore pairs an identifier with the score used for ordering.
type RankedScore struct {
	ID       uint
	Score    float64
	Position int
}

// Rank assigns standard competition ranking over the cohort: equal scores share
// a position and the next distinct score skips past them (90, 90, 80 ranks as
// 1, 1, 3). The whole cohort is re-ranked in one pass every time; there is no
// incremental patching to go stale.
func Rank(scores []RankedScore) []RankedScore {
	ranked := make([]RankedScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	for i := range ranked {
		if i > 0 && ranked[i].Score == ranked[i-1].Score {
			ranked[i].Position = ranked[i-1].Position
			continue
		}
		ranked[i].Position = i + 1
	}
	return ranked
}
