package catalog

import (
	"math/big"
	"slices"
	"strings"
)

// Dedupe collapses candidates into one entry per (title, author list) in
// first-seen order. When two candidates collide, the one with the larger
// ISBN-13 wins and takes the slot of the earlier entry. Candidates without an
// author list never collide. The input slice is left untouched.
func Dedupe(candidates []Book) []Book {
	kept := make([]Book, 0, len(candidates))
	for _, b := range candidates {
		idx := slices.IndexFunc(kept, func(e Book) bool {
			return sameWork(e, b)
		})
		if idx < 0 {
			kept = append(kept, b)
			continue
		}
		if isbn13Value(b.ISBN13).Cmp(isbn13Value(kept[idx].ISBN13)) > 0 {
			kept[idx] = b
		}
	}
	return kept
}

func sameWork(a, b Book) bool {
	if a.Title != b.Title {
		return false
	}
	if a.Authors == nil || b.Authors == nil {
		return false
	}
	return slices.Equal(a.Authors, b.Authors)
}

// isbn13Value parses an ISBN-13 as an integer. Anything unparseable is zero.
func isbn13Value(s string) *big.Int {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return new(big.Int)
	}
	return n
}
