package filter

import "regexp"

// Grade-shaped token patterns for the textual prefilter. Deliberately kept
// apart from the vocabulary table: this is a "worth classifying?" heuristic
// over free text, not a membership test. Bare 4..9 are excluded because
// lone digits above 3 are almost always pitch counts, lengths or times.
const (
	arabicPattern = `(?:1|2|` +
		`3(?:\+|[abc])?|` +
		`4(?:\+|[ab]|c\+?)|` +
		`5(?:\+|[abc]\+?)|` +
		`6(?:[abc]\+?)|` +
		`7(?:[abc]\+?)|` +
		`8(?:[abc]\+?)|` +
		`9(?:[abc]\+?)` +
		`)`

	romanPattern = `(?:` +
		`I\+?|II\+?|III\+?|` +
		`IV-?|IV\+?|` +
		`V-?|V\+?|` +
		`VI-?|VI\+?|` +
		`VII-?|VII\+?|` +
		`VIII-?|VIII\+?|` +
		`IX-?|IX\+?|` +
		`X-?|X\+?|` +
		`XI-?|XI` +
		`)`
)

// Word boundaries on both sides so grades inside words or larger numbers
// do not count.
var gradeMentionRe = regexp.MustCompile(`(?i)\b(?:` + arabicPattern + `|` + romanPattern + `)\b`)

// MentionsGrade reports whether the text contains at least one grade-shaped
// token from either system.
func MentionsGrade(text string) bool {
	return gradeMentionRe.MatchString(text)
}
