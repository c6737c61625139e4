package grade

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/routebeta/cotations/internal/model"
)

func TestNormalizeCounts_DropsUnknownGrades(t *testing.T) {
	raw := []model.RawCount{
		{Grade: "6a", Value: json.Number("2")},
		{Grade: "not-a-grade", Value: json.Number("5")},
		{Grade: "XII", Value: json.Number("1")},
	}

	got, stats := NormalizeCounts(raw)
	want := []model.Cotation{{Grade: "6a", Count: 2}}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if stats.Dropped != 2 {
		t.Errorf("Expected 2 dropped entries, got %d", stats.Dropped)
	}
	if stats.Coerced != 0 {
		t.Errorf("Expected 0 coerced counts, got %d", stats.Coerced)
	}
}

func TestNormalizeCounts_CountCoercion(t *testing.T) {
	cases := []struct {
		name      string
		value     interface{}
		wantCount int
		wantClean bool
	}{
		{"integer number", json.Number("3"), 3, true},
		{"zero", json.Number("0"), 0, true},
		{"float truncates", json.Number("4.7"), 4, false},
		{"negative clamps to zero", json.Number("-3"), 0, false},
		{"numeric string", "2", 2, false},
		{"padded numeric string", " 2 ", 2, false},
		{"garbage string", "many", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
		{"plain int", 5, 5, true},
		{"plain float", 6.0, 6, true},
		{"plain fractional float", 6.9, 6, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, stats := NormalizeCounts([]model.RawCount{{Grade: "6a", Value: tc.value}})
			if len(got) != 1 {
				t.Fatalf("Expected the grade to be kept, got %v", got)
			}
			if got[0].Count != tc.wantCount {
				t.Errorf("Expected count %d, got %d", tc.wantCount, got[0].Count)
			}
			wantCoerced := 0
			if !tc.wantClean {
				wantCoerced = 1
			}
			if stats.Coerced != wantCoerced {
				t.Errorf("Expected %d coerced, got %d", wantCoerced, stats.Coerced)
			}
		})
	}
}

func TestNormalizeCounts_CanonicalCase(t *testing.T) {
	raw := []model.RawCount{
		{Grade: "vii-", Value: json.Number("1")},
		{Grade: "6A+", Value: json.Number("2")},
		{Grade: " VIII ", Value: json.Number("3")},
	}

	got, _ := NormalizeCounts(raw)
	want := []model.Cotation{
		{Grade: "VII-", Count: 1},
		{Grade: "6a+", Count: 2},
		{Grade: "VIII", Count: 3},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestNormalizeCounts_DuplicateKeysKeepFirstPositionLastValue(t *testing.T) {
	raw := []model.RawCount{
		{Grade: "6a", Value: json.Number("1")},
		{Grade: "4b", Value: json.Number("7")},
		{Grade: "6A", Value: json.Number("9")}, // same key after normalization
	}

	got, _ := NormalizeCounts(raw)
	want := []model.Cotation{
		{Grade: "6a", Count: 9},
		{Grade: "4b", Count: 7},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestNormalizeCounts_Empty(t *testing.T) {
	got, stats := NormalizeCounts(nil)
	if len(got) != 0 {
		t.Errorf("Expected empty output, got %v", got)
	}
	if stats.Dropped != 0 || stats.Coerced != 0 {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
}
