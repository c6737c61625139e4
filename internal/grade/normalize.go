package grade

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/routebeta/cotations/internal/model"
)

// NormalizeStats counts what normalization had to clean up. The counts are
// telemetry for verbose output; cleanup never fails an extraction.
type NormalizeStats struct {
	// Dropped is the number of entries removed because the grade token is
	// not in the vocabulary.
	Dropped int

	// Coerced is the number of counts that were not clean non-negative
	// integers and had to be coerced, possibly all the way to zero.
	Coerced int
}

// NormalizeCounts validates raw difficulties entries against the
// vocabulary. Unknown grade tokens are dropped silently. Counts are coerced
// to non-negative integers; a value that does not survive coercion becomes
// zero while the grade is kept. A duplicate key keeps its first position
// with the last value. Entry order is otherwise preserved.
func NormalizeCounts(raw []model.RawCount) ([]model.Cotation, NormalizeStats) {
	var stats NormalizeStats
	out := make([]model.Cotation, 0, len(raw))
	position := make(map[string]int, len(raw))

	for _, entry := range raw {
		token := Normalize(entry.Grade)
		if !IsKnown(token) {
			stats.Dropped++
			continue
		}

		count, clean := CoerceCount(entry.Value)
		if !clean {
			stats.Coerced++
		}

		if i, seen := position[token]; seen {
			out[i].Count = count
			continue
		}
		position[token] = len(out)
		out = append(out, model.Cotation{Grade: token, Count: count})
	}

	return out, stats
}

// CoerceCount converts a raw JSON scalar into a non-negative count. The
// bool result reports whether the value was already a clean non-negative
// integer; anything else counts as coerced even when a usable number comes
// out (numeric strings, truncated floats). The CSV importer applies the
// same rule to count values it reads.
func CoerceCount(value interface{}) (int, bool) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			if n < 0 {
				return 0, false
			}
			return int(n), true
		}
		if f, err := v.Float64(); err == nil && f >= 0 {
			return int(f), false
		}
		return 0, false
	case int:
		if v < 0 {
			return 0, false
		}
		return v, true
	case float64:
		if v < 0 {
			return 0, false
		}
		if v == math.Trunc(v) {
			return int(v), true
		}
		return int(v), false
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, false
	default:
		return 0, false
	}
}
