package textmatch

// MatchWords counts how many recognized words appear in the expected word
// list, consuming each expected occurrence at most once so duplicated
// recognized words cannot double count.
func MatchWords(recognized, expected []string) int {
	remaining := make(map[string]int, len(expected))
	for _, w := range expected {
		remaining[w]++
	}
	matched := 0
	for _, w := range recognized {
		if remaining[w] > 0 {
			remaining[w]--
			matched++
		}
	}
	return matched
}

// Coverage returns the fraction (0..1) of the reference's unique words that
// appear anywhere in the candidate word list.
func Coverage(candidate, reference []string) float64 {
	if len(reference) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(reference))
	for _, w := range reference {
		unique[w] = struct{}{}
	}
	present := make(map[string]struct{}, len(candidate))
	for _, w := range candidate {
		present[w] = struct{}{}
	}
	covered := 0
	for w := range unique {
		if _, ok := present[w]; ok {
			covered++
		}
	}
	return float64(covered) / float64(len(unique))
}
