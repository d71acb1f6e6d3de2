// Package levenshtein implements the edit distance used for domain typo
// advisories.
package levenshtein

// Distance returns the Levenshtein edit distance between a and b,
// operating on runes. Memory usage is O(len(b)).
func Distance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)

	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	row := make([]int, len(br)+1)
	for j := range row {
		row[j] = j
	}

	for i, ac := range ar {
		prev := row[0] // row[i-1][j-1] before overwrite
		row[0] = i + 1
		for j, bc := range br {
			sub := prev
			if ac != bc {
				sub++
			}
			prev = row[j+1]

			best := sub
			if del := row[j] + 1; del < best {
				best = del
			}
			if ins := row[j+1] + 1; ins < best {
				best = ins
			}
			row[j+1] = best
		}
	}

	return row[len(br)]
}
