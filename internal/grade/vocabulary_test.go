package grade

import (
	"errors"
	"strings"
	"testing"
)

func TestRank_InterleavesRomanBeforeArabic(t *testing.T) {
	// Roman grades sit just before the French grades they historically
	// correspond to, so IV+ must rank below 4a, III below 3+, and so on.
	pairs := [][2]string{
		{"IV+", "4a"},
		{"III", "3+"},
		{"V-", "5"},
		{"VI+", "6"},
		{"XI", "8c"},
		{"4c+", "4+"}, // the hand-curated quirk: 4+ sorts after 4c+
		{"I", "2"},
		{"IX+", "7c"},
	}

	for _, pair := range pairs {
		lo, err := Rank(pair[0])
		if err != nil {
			t.Fatalf("Rank(%q) returned error: %v", pair[0], err)
		}
		hi, err := Rank(pair[1])
		if err != nil {
			t.Fatalf("Rank(%q) returned error: %v", pair[1], err)
		}
		if lo >= hi {
			t.Errorf("Expected rank(%q)=%d < rank(%q)=%d", pair[0], lo, pair[1], hi)
		}
	}
}

func TestRank_CaseInsensitive(t *testing.T) {
	want, err := Rank("VI+")
	if err != nil {
		t.Fatalf("Rank(VI+) returned error: %v", err)
	}

	for _, variant := range []string{"vi+", "Vi+", " VI+ "} {
		got, err := Rank(variant)
		if err != nil {
			t.Errorf("Rank(%q) returned error: %v", variant, err)
			continue
		}
		if got != want {
			t.Errorf("Expected rank(%q)=%d, got %d", variant, want, got)
		}
	}
}

func TestRank_UnknownGrade(t *testing.T) {
	for _, token := range []string{"5d", "XII", "6d+", "", "four"} {
		_, err := Rank(token)
		if err == nil {
			t.Errorf("Expected error for Rank(%q), got nil", token)
			continue
		}
		if !errors.Is(err, ErrUnknownGrade) {
			t.Errorf("Expected ErrUnknownGrade for %q, got %v", token, err)
		}
	}
}

func TestIsKnown_BothFamilies(t *testing.T) {
	known := []string{"1", "6", "6a", "9c+", "4c+", "I", "IV-", "XI-", "XI", "viii+", "6A+"}
	for _, token := range known {
		if !IsKnown(token) {
			t.Errorf("Expected %q to be a known grade", token)
		}
	}

	unknown := []string{"5d", "XII", "0", "9d", "a6", "", "IV--"}
	for _, token := range unknown {
		if IsKnown(token) {
			t.Errorf("Expected %q to be unknown", token)
		}
	}
}

func TestNormalize_CanonicalCase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"6A+", "6a+"},
		{"vii-", "VII-"},
		{"Xi", "XI"},
		{"  6a ", "6a"},
		{"6", "6"},
		{"IV+", "IV+"},
		{"Bogus", "Bogus"}, // unknown tokens only get trimmed
		{" 5d ", "5d"},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestTokens_OrderInvariants(t *testing.T) {
	tokens := Tokens()

	if len(tokens) != 75 {
		t.Fatalf("Expected 75 tokens in canonical order, got %d", len(tokens))
	}
	if tokens[0] != "1" {
		t.Errorf("Expected order to start at \"1\", got %q", tokens[0])
	}
	if tokens[len(tokens)-1] != "9c+" {
		t.Errorf("Expected order to end at \"9c+\", got %q", tokens[len(tokens)-1])
	}

	// No duplicates (case-insensitively), and every token resolves to its
	// own position.
	seen := make(map[string]bool, len(tokens))
	for i, token := range tokens {
		lower := strings.ToLower(token)
		if seen[lower] {
			t.Errorf("Duplicate token %q in canonical order", token)
		}
		seen[lower] = true

		r, err := Rank(token)
		if err != nil {
			t.Errorf("Token %q from the order is not rankable: %v", token, err)
			continue
		}
		if r != i {
			t.Errorf("Expected rank(%q)=%d, got %d", token, i, r)
		}
	}
}

func TestTokens_DefensiveCopy(t *testing.T) {
	tokens := Tokens()
	tokens[0] = "mutated"

	if got := Tokens()[0]; got != "1" {
		t.Errorf("Expected Tokens() to return a copy, first token is now %q", got)
	}
}

func TestFamilies_PartitionTheOrder(t *testing.T) {
	arabic := Arabic()
	roman := Roman()

	if len(arabic)+len(roman) != len(Tokens()) {
		t.Fatalf("Expected the families to cover the order exactly: %d + %d != %d",
			len(arabic), len(roman), len(Tokens()))
	}

	for _, token := range arabic {
		if !IsKnown(token) {
			t.Errorf("Arabic token %q is not in the vocabulary", token)
		}
		if token[0] < '0' || token[0] > '9' {
			t.Errorf("Arabic token %q does not start with a digit", token)
		}
	}
	for _, token := range roman {
		if !IsKnown(token) {
			t.Errorf("Roman token %q is not in the vocabulary", token)
		}
		if c := token[0]; c != 'I' && c != 'V' && c != 'X' {
			t.Errorf("Roman token %q does not look Roman", token)
		}
	}
}
