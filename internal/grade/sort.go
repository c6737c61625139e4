package grade

import (
	"sort"

	"github.com/routebeta/cotations/internal/model"
)

// SortCotations returns a new slice ordered by canonical difficulty.
// Grades missing from the vocabulary are never invented a position: they
// are appended after all known grades, preserving their original relative
// order. Token strings pass through unchanged. Applying the sort to its
// own output changes nothing.
func SortCotations(cotations []model.Cotation) []model.Cotation {
	known := make([]model.Cotation, 0, len(cotations))
	var unknown []model.Cotation

	for _, c := range cotations {
		if IsKnown(c.Grade) {
			known = append(known, c)
		} else {
			unknown = append(unknown, c)
		}
	}

	sort.SliceStable(known, func(i, j int) bool {
		ri, _ := Rank(known[i].Grade)
		rj, _ := Rank(known[j].Grade)
		return ri < rj
	})

	return append(known, unknown...)
}
