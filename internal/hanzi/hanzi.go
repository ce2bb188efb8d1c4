package hanzi

import (
	"sort"

	"golang.org/x/text/unicode/norm"
)

// IsHanzi reports whether r is treated as a Hanzi character.
// Matches the CJK Unified Ideographs range (U+3400-U+9FFF, which folds in
// Extension A) and the CJK Compatibility Ideographs range (U+F900-U+FAFF).
// Extension blocks beyond these ranges are intentionally excluded to stay
// aligned with the reference datasets.
func IsHanzi(r rune) bool {
	return (r >= 0x3400 && r <= 0x9FFF) || (r >= 0xF900 && r <= 0xFAFF)
}

// Set is a set of Hanzi characters keyed by NFC-normalized code point.
type Set map[rune]struct{}

// NewSet creates a Set containing the given characters.
func NewSet(chars ...rune) Set {
	s := make(Set, len(chars))
	for _, r := range chars {
		s[r] = struct{}{}
	}
	return s
}

// Add inserts r into the set.
func (s Set) Add(r rune) {
	s[r] = struct{}{}
}

// Contains reports whether r is in the set.
func (s Set) Contains(r rune) bool {
	_, ok := s[r]
	return ok
}

// Len returns the number of characters in the set.
func (s Set) Len() int {
	return len(s)
}

// Clone returns a copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for r := range s {
		out[r] = struct{}{}
	}
	return out
}

// Union returns a new set with every character in s or other.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for r := range s {
		out[r] = struct{}{}
	}
	for r := range other {
		out[r] = struct{}{}
	}
	return out
}

// Intersect returns a new set with the characters present in both s and other.
func (s Set) Intersect(other Set) Set {
	small, large := s, other
	if len(other) < len(s) {
		small, large = other, s
	}
	out := make(Set)
	for r := range small {
		if large.Contains(r) {
			out[r] = struct{}{}
		}
	}
	return out
}

// Diff returns a new set with the characters in s that are not in other.
func (s Set) Diff(other Set) Set {
	out := make(Set)
	for r := range s {
		if !other.Contains(r) {
			out[r] = struct{}{}
		}
	}
	return out
}

// Strings returns the characters as single-rune strings in code point order.
// Used for stable JSON output and display.
func (s Set) Strings() []string {
	runes := make([]rune, 0, len(s))
	for r := range s {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// Extract returns the distinct Hanzi characters in text. The text is
// normalized to NFC before scanning, so identity is the composed code point.
// Empty or Hanzi-free input yields an empty set; extraction never fails.
func Extract(text string) Set {
	s := make(Set)
	if text == "" {
		return s
	}
	for _, r := range norm.NFC.String(text) {
		if IsHanzi(r) {
			s[r] = struct{}{}
		}
	}
	return s
}

// Count returns the total number of Hanzi occurrences in text, duplicates
// included.
func Count(text string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, r := range norm.NFC.String(text) {
		if IsHanzi(r) {
			n++
		}
	}
	return n
}
