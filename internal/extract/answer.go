// Package extract recovers structured grade data from the two noisy text
// sources the pipeline deals with: classifier replies (prose wrapped around
// one JSON answer object) and route description columns (multilingual JSON
// blobs, sometimes carrying HTML).
package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/routebeta/cotations/internal/model"
)

// answerRe finds one outer brace pair holding a flat "difficulties" object
// and a literal true/false "ambiguous" field, in either field order. The
// [^{}] classes keep the match from crossing unrelated braces; nesting
// beyond the single difficulties sub-object is deliberately unsupported.
// Case-insensitive so oddly cased replies are still found as candidates;
// the strict decode below then enforces the exact protocol.
var answerRe = regexp.MustCompile(`(?i)\{[^{}]*?"difficulties"\s*:\s*\{[^{}]*\}[^{}]*?"ambiguous"\s*:\s*(?:true|false)[^{}]*?\}` +
	`|\{[^{}]*?"ambiguous"\s*:\s*(?:true|false)[^{}]*?"difficulties"\s*:\s*\{[^{}]*\}[^{}]*?\}`)

// FindAnswer scans a classifier reply for the first structured answer
// object and strictly decodes it. Replies are prose with the object buried
// somewhere inside (markdown fences, commentary, several brace fragments);
// only the first candidate is considered, and any decode problem means
// "no result" rather than a guess. Difficulties entries keep the key order
// of the source text.
func FindAnswer(text string) (*model.RawAnswer, bool) {
	candidate := answerRe.FindString(text)
	if candidate == "" {
		return nil, false
	}

	answer, err := decodeAnswer(candidate)
	if err != nil {
		return nil, false
	}
	return answer, true
}

// decodeAnswer walks the candidate token by token. A plain Unmarshal into a
// map would lose the difficulties key order, which downstream sorting of
// unknown grades depends on.
func decodeAnswer(candidate string) (*model.RawAnswer, error) {
	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var answer model.RawAnswer
	sawDifficulties := false
	sawAmbiguous := false

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}

		switch key {
		case "difficulties":
			entries, err := decodeDifficulties(dec)
			if err != nil {
				return nil, err
			}
			answer.Difficulties = entries
			sawDifficulties = true

		case "ambiguous":
			valTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			b, ok := valTok.(bool)
			if !ok {
				return nil, fmt.Errorf("ambiguous is %v, not a bool", valTok)
			}
			answer.Ambiguous = b
			sawAmbiguous = true

		default:
			// Extra fields are tolerated, whatever their shape.
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
	}

	// Closing brace, then nothing.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing content after answer object: %v", tok)
	}

	if !sawDifficulties || !sawAmbiguous {
		return nil, fmt.Errorf("answer object is missing required fields")
	}
	return &answer, nil
}

// decodeDifficulties reads the flat grade->count object as an ordered
// sequence. Values may be any scalar (counts get coerced later); a nested
// object or array in value position is not the expected schema and fails
// the whole decode.
func decodeDifficulties(dec *json.Decoder) ([]model.RawCount, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	entries := []model.RawCount{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected difficulties key, got %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if _, isDelim := valTok.(json.Delim); isDelim {
			return nil, fmt.Errorf("difficulties value for %q is not a scalar", key)
		}

		entries = append(entries, model.RawCount{Grade: key, Value: valTok})
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

// skipValue consumes one JSON value of any shape.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil // scalar
	}

	switch delim {
	case '{':
		for dec.More() {
			if _, err := dec.Token(); err != nil { // key
				return err
			}
			if err := skipValue(dec); err != nil {
				return err
			}
		}
	case '[':
		for dec.More() {
			if err := skipValue(dec); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unexpected delimiter %v", delim)
	}

	// Consume the matching close delimiter.
	_, err = dec.Token()
	return err
}

func expectDelim(dec *json.Decoder, want rune) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != json.Delim(want) {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
