package grade

import "strings"

// canonicalOrder is the ascending-difficulty order for every grade in the
// vocabulary, interleaving UIAA Roman grades just before the French grades
// they historically correspond to. The interleave is hand-curated and not
// derivable from either family alone (note "4+" after "4c+", and "V-"
// before "5"); downstream charts depend on this exact sequence.
var canonicalOrder = []string{
	// very easy
	"1",
	"I", "I+",
	"2",
	"II", "II+",

	// 3 block
	"3",
	"III", "III+",
	"3+", "3a", "3b", "3c",

	// 4 block
	"4",
	"IV-", "IV", "IV+",
	"4a", "4b", "4c", "4c+", "4+",

	// 5 block
	"V-", "V", "V+",
	"5", "5+", "5a", "5a+", "5b", "5b+", "5c", "5c+",

	// 6 block
	"VI-", "VI", "VI+",
	"6", "6a", "6a+", "6b", "6b+",

	// 6c / VII block
	"VII-", "VII", "VII+",
	"6c", "6c+",

	// 7a / VIII block
	"VIII-", "VIII", "VIII+",
	"7a", "7a+", "7b", "7b+",

	// 7c / IX block
	"IX-", "IX", "IX+",
	"7c", "7c+",

	// 8a / X block
	"X-", "X", "X+",
	"8a", "8a+", "8b", "8b+",

	// 8c / XI block + French 9s
	"XI-", "XI",
	"8c", "8c+",
	"9a", "9a+", "9b", "9b+", "9c", "9c+",
}

// rankByToken gives O(1) rank lookup, keyed by lower-cased token.
var rankByToken = buildRankIndex()

func buildRankIndex() map[string]int {
	m := make(map[string]int, len(canonicalOrder))
	for i, g := range canonicalOrder {
		m[strings.ToLower(g)] = i
	}
	return m
}

// Tokens returns the full canonical order as a defensive copy.
func Tokens() []string {
	out := make([]string, len(canonicalOrder))
	copy(out, canonicalOrder)
	return out
}
