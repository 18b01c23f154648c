// Package shingle turns text into n-gram shingles and computes exact Jaccard
// similarity between shingle sets.
//
// Shingles are windows of Unicode code points, not bytes, so multi-byte
// characters are never split. A text shorter than the window width yields an
// empty set.
package shingle

import (
	"fmt"
	"unicode/utf8"

	"github.com/zeebo/xxh3"

	lsherrors "github.com/tamirms/lshsig/errors"
)

// Set is a set of hashed shingles. Duplicates collapse.
type Set map[uint64]struct{}

// Hash returns the 64-bit identity of a shingle used by MinHash.
// Text shingles and caller-supplied tokens are hashed identically.
func Hash(s string) uint64 {
	return xxh3.HashString(s)
}

// checkWidth validates an n-gram width.
func checkWidth(width int) error {
	if width <= 0 {
		return fmt.Errorf("%w: ngram_width must be positive, got %d", lsherrors.ErrInvalidParameter, width)
	}
	return nil
}

// each calls fn for every window of width code points in text, in order.
// The window is a substring of text, so no allocation happens per shingle.
func each(text string, width int, fn func(string)) {
	n := utf8.RuneCountInString(text)
	if n < width {
		return
	}
	// starts[i] is the byte offset of rune i; starts[n] == len(text).
	starts := make([]int, 0, n+1)
	for i := range text {
		starts = append(starts, i)
	}
	starts = append(starts, len(text))
	for i := 0; i+width <= n; i++ {
		fn(text[starts[i]:starts[i+width]])
	}
}

// Windows returns all contiguous substrings of width code points, in order
// of appearance, duplicates included.
func Windows(text string, width int) ([]string, error) {
	if err := checkWidth(width); err != nil {
		return nil, err
	}
	var out []string
	each(text, width, func(s string) {
		out = append(out, s)
	})
	return out, nil
}

// HashText returns the hashed shingle set of text.
func HashText(text string, width int) (Set, error) {
	if err := checkWidth(width); err != nil {
		return nil, err
	}
	set := make(Set)
	each(text, width, func(s string) {
		set[Hash(s)] = struct{}{}
	})
	return set, nil
}

// HashTokens returns the hashed set of caller-supplied tokens, bypassing
// n-gram extraction.
func HashTokens(tokens []string) Set {
	set := make(Set, len(tokens))
	for _, tok := range tokens {
		set[Hash(tok)] = struct{}{}
	}
	return set
}

// Strings returns the exact shingle set of text.
func Strings(text string, width int) (map[string]struct{}, error) {
	if err := checkWidth(width); err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	each(text, width, func(s string) {
		set[s] = struct{}{}
	})
	return set, nil
}

// StringsOf returns tokens as an exact set.
func StringsOf(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|.
//
// The similarity of two empty sets is undefined and reported with ok=false;
// callers surface it as NULL. When exactly one set is empty the result is 0.
func Jaccard(a, b map[string]struct{}) (sim float64, ok bool) {
	if len(a) == 0 && len(b) == 0 {
		return 0, false
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for s := range small {
		if _, found := large[s]; found {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union), true
}
