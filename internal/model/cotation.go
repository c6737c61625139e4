package model

// Cotation is a single grade observation: a grade token and the number of
// times the route description asserts it.
type Cotation struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
}

// RawCount is one difficulties entry as it appeared in the classifier reply,
// before vocabulary validation. Value holds whatever scalar the JSON carried
// (json.Number, string, bool, nil). Slice position preserves the key order
// of the source text, which downstream ordering rules depend on.
type RawCount struct {
	Grade string
	Value interface{}
}

// RawAnswer is the structured payload recovered from a classifier reply.
type RawAnswer struct {
	Difficulties []RawCount
	Ambiguous    bool
}

// Result is the per-route extraction outcome: canonically ordered grade
// observations plus the ambiguity flag. This is the unit persisted to the
// route table's ai_cotations column.
type Result struct {
	Ambiguous bool       `json:"ambiguous"`
	Cotations []Cotation `json:"cotations"`
}

// Inconclusive is the outcome recorded when no structured answer could be
// recovered from the reply: no grades, flagged ambiguous. It still counts
// as "no grade data" for skip policies, so such routes stay retriable.
func Inconclusive() Result {
	return Result{Ambiguous: true, Cotations: []Cotation{}}
}
