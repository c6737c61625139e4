// Package filter decides which routes are worth sending to the classifier:
// an activity gate over the route's activity tags, and a cheap textual
// prefilter over the description.
package filter

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ActivityGate passes routes whose activity tags overlap a configured set.
// It fails closed: empty, null, or malformed activity data never passes.
// A single gate value is shared by the single-route and batch paths so the
// decision is identical wherever it is asked.
type ActivityGate struct {
	desired map[string]struct{}
}

// NewActivityGate builds a gate from the desired activity list.
func NewActivityGate(desired []string) *ActivityGate {
	set := make(map[string]struct{}, len(desired))
	for _, a := range desired {
		if a = strings.TrimSpace(a); a != "" {
			set[a] = struct{}{}
		}
	}
	return &ActivityGate{desired: set}
}

// AllowTags reports whether any tag is in the desired set.
func (g *ActivityGate) AllowTags(tags []string) bool {
	for _, tag := range tags {
		if _, ok := g.desired[tag]; ok {
			return true
		}
	}
	return false
}

// AllowRaw evaluates the JSON-encoded form of the tag list, as stored in
// the activities column: AllowRaw(enc(tags)) == AllowTags(tags) for any
// valid encoding. Anything that does not decode to a list of strings is
// rejected, never guessed at.
func (g *ActivityGate) AllowRaw(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return false
	}

	var tags []string
	if err := json.Unmarshal(trimmed, &tags); err != nil {
		return false
	}
	return g.AllowTags(tags)
}
