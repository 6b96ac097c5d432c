package media

import "sort"

// Order returns candidates in Default Selector order: videos, then live photos,
// then any other kind; earliest first within each kind. The sort is stable so
// identical timestamps keep their input order. The input is not modified.
func Order(candidates []Descriptor) []Descriptor {
	ordered := make([]Descriptor, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := ordered[i].Kind.priority(), ordered[j].Kind.priority()
		if pi != pj {
			return pi < pj
		}
		return ordered[i].Date.Before(ordered[j].Date)
	})
	return ordered
}

// SelectDefault picks the representative asset for a day with no pin or preference.
// Returns false for an empty candidate list.
func SelectDefault(candidates []Descriptor) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	return Order(candidates)[0].AssetID, true
}

// Rank returns the 1-based position of assetID in Order(candidates), or 0 if absent.
func Rank(candidates []Descriptor, assetID string) int {
	for i, d := range Order(candidates) {
		if d.AssetID == assetID {
			return i + 1
		}
	}
	return 0
}

// Find returns the candidate with the given asset id.
func Find(candidates []Descriptor, assetID string) (Descriptor, bool) {
	for _, d := range candidates {
		if d.AssetID == assetID {
			return d, true
		}
	}
	return Descriptor{}, false
}
