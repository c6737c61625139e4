package llm

import (
	"fmt"
	"strings"

	"github.com/routebeta/cotations/internal/grade"
)

// Assembled once at init. The recognised-grade list and the canonical-order
// illustration are generated from the grade package, so the instructions can
// never drift from what the normalizer and sorter actually accept.
var systemPrompt = buildSystemPrompt()

// SystemPrompt returns the extraction instructions sent with every call.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt wraps a route description in the per-call request template.
func UserPrompt(description string) string {
	return fmt.Sprintf(`Climbing-route description:

%s

Extract every grade that appears, obey *all* the rules above, and output **exactly**
ONE JSON object (no Markdown, no commentary).`, description)
}

func buildSystemPrompt() string {
	recognised := strings.Join(append(grade.Arabic(), grade.Roman()...), ", ")

	// Enough of the order to show both interleave quirks (IV before 4a,
	// "4+" after "4c+") without dumping all 75 tokens twice.
	orderHint := strings.Join(grade.Tokens()[:40], ", ")

	return fmt.Sprintf(`You are an assistant that extracts *all* climbing grades mentioned in a text.
A grade may appear in the modern French system (4c+, 6a ...) **or** in the older UIAA
Roman-numeral system (II, VII-, X ...). **Do not convert Roman numerals** - keep them
exactly as written.

Recognised grades:
%s

Users can mention grades in several ways:
• Directly with a count - e.g. « 6b 3 », « IV+ 2 »
• A range with a total - e.g. « 8 voies de 4 à 6 »
• A mix of both.

IMPORTANT RULES
1. For a broad range like « 8 voies de 4 à 6 », assign **1** to every sub-grade in the range
   and set "ambiguous" = true.
2. If some grades inside the range also have an explicit count, sum them.
3. If a grade is only named (no count), treat its count as 1.
4. If anything is unclear, set "ambiguous" = true and give each mentioned grade a count of 1.

OUTPUT FORMAT
Return **one** valid JSON object - nothing before or after it - with exactly:
  "difficulties": { <grade>: <integer>, ... }
  "ambiguous"  : true | false

The keys inside "difficulties" **must follow this canonical order** so downstream charts
display correctly (Roman grades interleaved just before the French group they match):
  %s, ...
Skip grades that do not appear, but respect the order of those that do.

EXAMPLE ANSWERS (note the ordering in each):
-------------------------------------------
Example A - simple mix
{
  "difficulties": {
    "III": 1,
    "3+": 2,
    "IV-": 1,
    "4a": 3
  },
  "ambiguous": false
}

Example B - explicit counts *and* a broad range
{
  "difficulties": {
    "VI-": 1,
    "VI": 2,
    "VI+": 1,
    "6a": 4,
    "6b": 2,
    "6c": 1
  },
  "ambiguous": true
}

Example C - high-end grades only in Roman
{
  "difficulties": {
    "VIII": 2,
    "VIII+": 1,
    "IX-": 1
  },
  "ambiguous": false
}

Example D - mixed low grades with ambiguity
{
  "difficulties": {
    "I": 1,
    "2": 1,
    "II": 1,
    "3": 1
  },
  "ambiguous": true
}`, recognised, orderHint)
}
