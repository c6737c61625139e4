// Package grade holds the climbing-grade vocabulary: two token families
// (modern French "Arabic" grades and older UIAA Roman grades), one canonical
// ascending-difficulty order across both, and the normalization and sorting
// rules built on top of them.
package grade

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownGrade marks a token that belongs to neither grade family.
var ErrUnknownGrade = errors.New("unknown grade")

// arabicTokens is the French family in presentation order. The bare "6" is
// part of the vocabulary (it is rankable) even though older prompt
// whitelists omitted it.
var arabicTokens = []string{
	"1",
	"2",
	"3", "3+", "3a", "3b", "3c",
	"4", "4+", "4a", "4b", "4c", "4c+",
	"5", "5+", "5a", "5a+", "5b", "5b+", "5c", "5c+",
	"6", "6a", "6a+", "6b", "6b+", "6c", "6c+",
	"7a", "7a+", "7b", "7b+", "7c", "7c+",
	"8a", "8a+", "8b", "8b+", "8c", "8c+",
	"9a", "9a+", "9b", "9b+", "9c", "9c+",
}

// romanTokens is the UIAA family in presentation order.
var romanTokens = []string{
	"I", "I+",
	"II", "II+",
	"III", "III+",
	"IV-", "IV", "IV+",
	"V-", "V", "V+",
	"VI-", "VI", "VI+",
	"VII-", "VII", "VII+",
	"VIII-", "VIII", "VIII+",
	"IX-", "IX", "IX+",
	"X-", "X", "X+",
	"XI-", "XI",
}

// IsKnown reports whether a token belongs to the vocabulary, in either
// family, ignoring case and surrounding space.
func IsKnown(token string) bool {
	_, ok := rankByToken[strings.ToLower(strings.TrimSpace(token))]
	return ok
}

// Rank returns the zero-based position of a token in the canonical order.
// Lookup is case-insensitive; unknown tokens return ErrUnknownGrade.
func Rank(token string) (int, error) {
	r, ok := rankByToken[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownGrade, token)
	}
	return r, nil
}

// Normalize returns the canonical spelling of a known token: Arabic grades
// lower case ("6A+" -> "6a+"), Roman grades upper case ("vii-" -> "VII-").
// Unknown tokens come back trimmed but otherwise untouched.
func Normalize(token string) string {
	t := strings.TrimSpace(token)
	if t == "" || !IsKnown(t) {
		return t
	}
	if t[0] >= '0' && t[0] <= '9' {
		return strings.ToLower(t)
	}
	return strings.ToUpper(t)
}

// Arabic returns the French family in presentation order.
func Arabic() []string {
	out := make([]string, len(arabicTokens))
	copy(out, arabicTokens)
	return out
}

// Roman returns the UIAA family in presentation order.
func Roman() []string {
	out := make([]string, len(romanTokens))
	copy(out, romanTokens)
	return out
}
