package classify

// SimilarityRatio measures how alike two strings are, as the fraction
// of characters covered by their longest matching blocks. Returns a
// value in [0, 1]; 1 means identical. Comparison is case-sensitive, so
// callers should fold case first.
func SimilarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 1
	}
	matched := matchedRunes(ra, rb, 0, len(ra), 0, len(rb))
	return 2 * float64(matched) / float64(len(ra)+len(rb))
}

// matchedRunes counts runes covered by matching blocks: the longest
// common block in the window, plus whatever matches recursively to its
// left and right.
func matchedRunes(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	total := size
	total += matchedRunes(a, b, alo, i, blo, j)
	total += matchedRunes(a, b, i+size, ahi, j+size, bhi)
	return total
}

// longestMatch finds the longest block a[i:i+size] == b[j:j+size] within
// the window, preferring the earliest block on ties.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				continue
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestsize
}
