package scenario

import (
	"sort"

	"github.com/kilianp07/demandcascade/core/diffusion"
)

// Series holds values known for some years.
type Series map[int]float64

// At returns the value for yr, interpolating linearly between the
// surrounding known years and holding the first and last value outside
// them. ok is false for an empty series.
func (s Series) At(yr int) (v float64, ok bool) {
	if len(s) == 0 {
		return 0, false
	}
	if v, ok := s[yr]; ok {
		return v, true
	}
	years := make([]int, 0, len(s))
	for y := range s {
		years = append(years, y)
	}
	sort.Ints(years)
	if yr < years[0] {
		return s[years[0]], true
	}
	if yr > years[len(years)-1] {
		return s[years[len(years)-1]], true
	}
	i := sort.SearchInts(years, yr)
	lo, hi := years[i-1], years[i]
	return s[lo] + diffusion.LinearDiff(lo, yr, s[lo], s[hi], hi-lo+1), true
}
