// Package alignment ranks a pass-holder roster by how closely each holder's
// minted values match the requester's.
package alignment

// Score returns the percentage alignment between two value lists.
//
// The numerator counts entries of source that also occur in partner, so a
// value repeated in source is counted once per occurrence. The denominator is
// the number of distinct values across both lists. Score is 0 when both lists
// are empty and never exceeds 100.
func Score(source, partner []string) float64 {
	inPartner := make(map[string]struct{}, len(partner))
	for _, v := range partner {
		inPartner[v] = struct{}{}
	}

	union := make(map[string]struct{}, len(source)+len(partner))
	for k := range inPartner {
		union[k] = struct{}{}
	}

	matched := 0
	for _, v := range source {
		union[v] = struct{}{}
		if _, ok := inPartner[v]; ok {
			matched++
		}
	}

	if len(union) == 0 {
		return 0
	}
	// Duplicates in source can push matched past the union size.
	if matched > len(union) {
		matched = len(union)
	}
	return 100 * float64(matched) / float64(len(union))
}
