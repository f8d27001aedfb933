package dedup

// ratio mirrors Python's difflib.SequenceMatcher.ratio(): 2*M / T, where M
// is the total length of matching blocks found by repeatedly picking the
// longest matching contiguous block and recursing on the remainders, and T
// is the combined length of both strings. No SequenceMatcher-equivalent
// library appears anywhere in the retrieved pack, so this follows the
// original algorithm's shape directly.
func ratio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	matches := matchingBlockLength(a, b)
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matches) / float64(total)
}

func matchingBlockLength(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size + matchingBlockLength(a[:i], b[:j]) + matchingBlockLength(a[i+size:], b[j+size:])
}

// longestMatch finds the longest contiguous matching substring between a
// and b, returning its start index in each and its length.
func longestMatch(a, b string) (int, int, int) {
	bIndex := make(map[byte][]int, len(b))
	for idx := 0; idx < len(b); idx++ {
		bIndex[b[idx]] = append(bIndex[b[idx]], idx)
	}

	bestI, bestJ, bestSize := 0, 0, 0
	prev := make(map[int]int)
	for i := 0; i < len(a); i++ {
		cur := make(map[int]int)
		for _, j := range bIndex[a[i]] {
			length := prev[j-1] + 1
			cur[j] = length
			if length > bestSize {
				bestSize = length
				bestI = i - length + 1
				bestJ = j - length + 1
			}
		}
		prev = cur
	}
	return bestI, bestJ, bestSize
}
