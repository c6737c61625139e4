package extract

import (
	"encoding/json"
	"testing"
)

func TestFindAnswer_ObjectBuriedInProse(t *testing.T) {
	reply := "Sure! Here is the extraction you asked for:\n\n```json\n" +
		`{"difficulties": {"IV-": 1, "4a": 3, "VI+": 1}, "ambiguous": false}` +
		"\n```\nLet me know if you need anything else."

	answer, ok := FindAnswer(reply)
	if !ok {
		t.Fatal("Expected an answer, got none")
	}

	if answer.Ambiguous {
		t.Error("Expected ambiguous=false")
	}
	if len(answer.Difficulties) != 3 {
		t.Fatalf("Expected 3 difficulties, got %d", len(answer.Difficulties))
	}

	// Key order of the source text must be preserved.
	wantOrder := []string{"IV-", "4a", "VI+"}
	for i, want := range wantOrder {
		if answer.Difficulties[i].Grade != want {
			t.Errorf("Expected key %d to be %q, got %q", i, want, answer.Difficulties[i].Grade)
		}
	}
	if answer.Difficulties[1].Value != json.Number("3") {
		t.Errorf("Expected 4a count token \"3\", got %v", answer.Difficulties[1].Value)
	}
}

func TestFindAnswer_FieldsInEitherOrder(t *testing.T) {
	replies := []string{
		`{"difficulties": {"6a": 2}, "ambiguous": true}`,
		`{"ambiguous": true, "difficulties": {"6a": 2}}`,
	}

	for _, reply := range replies {
		answer, ok := FindAnswer(reply)
		if !ok {
			t.Errorf("Expected an answer for %s", reply)
			continue
		}
		if !answer.Ambiguous {
			t.Errorf("Expected ambiguous=true for %s", reply)
		}
		if len(answer.Difficulties) != 1 || answer.Difficulties[0].Grade != "6a" {
			t.Errorf("Expected single 6a entry for %s, got %v", reply, answer.Difficulties)
		}
	}
}

func TestFindAnswer_NoCandidate(t *testing.T) {
	replies := []string{
		"",
		"I could not find any grades in this description.",
		`difficulties: 6a x2, ambiguous: no`,             // no braces at all
		`{"grades": {"6a": 2}, "uncertain": false}`,      // wrong field names
		`{"difficulties": {"6a": 2}}`,                    // ambiguous missing
		`{"ambiguous": false}`,                           // difficulties missing
		`{"difficulties": {"6a": 2}, "ambiguous": "no"}`, // ambiguous not a literal
	}

	for _, reply := range replies {
		if _, ok := FindAnswer(reply); ok {
			t.Errorf("Expected no answer for %s", reply)
		}
	}
}

func TestFindAnswer_FirstCandidateWins(t *testing.T) {
	reply := `Attempt one: {"difficulties": {"5b": 1}, "ambiguous": false}` +
		` and a second thought: {"difficulties": {"7a": 4}, "ambiguous": true}`

	answer, ok := FindAnswer(reply)
	if !ok {
		t.Fatal("Expected an answer, got none")
	}
	if answer.Difficulties[0].Grade != "5b" {
		t.Errorf("Expected the first object to win, got %q", answer.Difficulties[0].Grade)
	}
	if answer.Ambiguous {
		t.Error("Expected ambiguous=false from the first object")
	}
}

func TestFindAnswer_InvalidFirstCandidateIsNotRetried(t *testing.T) {
	// The regex finds the truncated first object; strict decode fails and
	// the extractor gives up rather than hunting for a later one.
	reply := `{"difficulties": {"5b": }, "ambiguous": false}` +
		` later: {"difficulties": {"7a": 4}, "ambiguous": true}`

	if _, ok := FindAnswer(reply); ok {
		t.Error("Expected no answer when the first candidate is malformed")
	}
}

func TestFindAnswer_PythonLiteralsRejected(t *testing.T) {
	// Candidates are found case-insensitively, but True/False are not JSON.
	reply := `{"difficulties": {"6a": 2}, "ambiguous": True}`

	if _, ok := FindAnswer(reply); ok {
		t.Error("Expected no answer for Python-style literals")
	}
}

func TestFindAnswer_ExtraScalarFieldsTolerated(t *testing.T) {
	reply := `{"note": "low confidence", "difficulties": {"6a": 2}, "confidence": 0.4, "ambiguous": false}`

	answer, ok := FindAnswer(reply)
	if !ok {
		t.Fatal("Expected an answer, got none")
	}
	if len(answer.Difficulties) != 1 || answer.Difficulties[0].Grade != "6a" {
		t.Errorf("Expected single 6a entry, got %v", answer.Difficulties)
	}
}

func TestFindAnswer_ExtraArrayFieldTolerated(t *testing.T) {
	reply := `{"difficulties": {"6a": 2}, "sources": [1, 2, 3], "ambiguous": false}`

	answer, ok := FindAnswer(reply)
	if !ok {
		t.Fatal("Expected an answer, got none")
	}
	if len(answer.Difficulties) != 1 {
		t.Errorf("Expected single entry, got %v", answer.Difficulties)
	}
}

func TestFindAnswer_CompositeDifficultyValueRejected(t *testing.T) {
	// The inner mapping is flat by design; a nested value means the reply
	// does not follow the protocol, so no result.
	reply := `{"difficulties": {"6a": [1, 2]}, "ambiguous": false}`

	if _, ok := FindAnswer(reply); ok {
		t.Error("Expected no answer for composite difficulty values")
	}
}

func TestFindAnswer_ScalarValueShapesSurvive(t *testing.T) {
	reply := `{"difficulties": {"6a": 2, "6b": "3", "6c": null, "7a": 1.5}, "ambiguous": false}`

	answer, ok := FindAnswer(reply)
	if !ok {
		t.Fatal("Expected an answer, got none")
	}
	if len(answer.Difficulties) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(answer.Difficulties))
	}

	if answer.Difficulties[1].Value != "3" {
		t.Errorf("Expected string value for 6b, got %v", answer.Difficulties[1].Value)
	}
	if answer.Difficulties[2].Value != nil {
		t.Errorf("Expected nil value for 6c, got %v", answer.Difficulties[2].Value)
	}
	if answer.Difficulties[3].Value != json.Number("1.5") {
		t.Errorf("Expected number token 1.5 for 7a, got %v", answer.Difficulties[3].Value)
	}
}

func TestFindAnswer_EmptyDifficulties(t *testing.T) {
	reply := `{"difficulties": {}, "ambiguous": true}`

	answer, ok := FindAnswer(reply)
	if !ok {
		t.Fatal("Expected an answer, got none")
	}
	if len(answer.Difficulties) != 0 {
		t.Errorf("Expected no difficulties, got %v", answer.Difficulties)
	}
	if !answer.Ambiguous {
		t.Error("Expected ambiguous=true")
	}
}

func TestFindAnswer_RoundTrip(t *testing.T) {
	// An answer embedded in arbitrary prose comes back with the same
	// mapping and flag.
	payload := `{"difficulties": {"I": 1, "2": 1, "II": 1, "3": 1}, "ambiguous": true}`
	reply := "Before the object.\n" + payload + "\nAfter the object."

	answer, ok := FindAnswer(reply)
	if !ok {
		t.Fatal("Expected an answer, got none")
	}
	if !answer.Ambiguous {
		t.Error("Expected ambiguous=true")
	}

	want := map[string]string{"I": "1", "2": "1", "II": "1", "3": "1"}
	if len(answer.Difficulties) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(answer.Difficulties))
	}
	for _, entry := range answer.Difficulties {
		if string(entry.Value.(json.Number)) != want[entry.Grade] {
			t.Errorf("Expected %s=%s, got %v", entry.Grade, want[entry.Grade], entry.Value)
		}
	}
}
