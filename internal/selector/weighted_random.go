package selector

import (
	"github.com/angeloszaimis/random-image/internal/catalog"
)

// Choose picks one category from group with probability proportional to
// its count. Categories with a zero count are skipped. It reports false
// when no category in the group has images.
func (s *Selector) Choose(group []catalog.Category, counts catalog.Table) (catalog.Category, bool) {
	totalWeight := 0
	for _, c := range group {
		totalWeight += counts.Get(c)
	}

	if totalWeight == 0 {
		return "", false
	}

	r := s.source.IntN(totalWeight)
	for _, c := range group {
		weight := counts.Get(c)
		if weight == 0 {
			continue
		}

		r -= weight
		if r < 0 {
			return c, true
		}
	}

	// Unreachable while IntN honours [0, n).
	return "", false
}

// PickWeighted chooses a category from group by weight and then draws an
// image from it.
func (s *Selector) PickWeighted(group []catalog.Category, counts catalog.Table) (Selection, bool) {
	c, ok := s.Choose(group, counts)
	if !ok {
		return Selection{}, false
	}
	return s.Pick(c, counts)
}

// PickRoute picks a single category directly, or a composite group by
// weight.
func (s *Selector) PickRoute(group []catalog.Category, composite bool, counts catalog.Table) (Selection, bool) {
	if composite {
		return s.PickWeighted(group, counts)
	}
	if len(group) == 0 {
		return Selection{}, false
	}
	return s.Pick(group[0], counts)
}
