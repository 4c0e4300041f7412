package resolution

import (
	"math"
	"testing"
)

func TestSimilarityRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "burger", "burger", 1.0},
		{"disjoint", "abc", "xyz", 0.0},
		{"one empty", "", "burger", 0.0},
		{"subset", "burg", "burger", 0.8},
		{"transposition", "chese burger", "cheese burger", 0.96},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := similarityRatio(tt.a, tt.b)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("similarityRatio(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFuzzyMatchThreshold(t *testing.T) {
	choices := []string{"Cheeseburger", "Caesar Salad", "Chicken Wings"}

	match, score := FuzzyMatch("Cheesburger", choices, DefaultFuzzyThreshold)
	if match != "Cheeseburger" {
		t.Errorf("match = %q, want Cheeseburger", match)
	}
	if score < DefaultFuzzyThreshold {
		t.Errorf("score = %f, below threshold", score)
	}

	match, score = FuzzyMatch("Pizza", choices, DefaultFuzzyThreshold)
	if match != "" || score != 0 {
		t.Errorf("unrelated target matched: %q (%f)", match, score)
	}
}

func TestFuzzyMatchCaseInsensitive(t *testing.T) {
	match, score := FuzzyMatch("cheeseburger", []string{"Cheeseburger"}, DefaultFuzzyThreshold)
	if match != "Cheeseburger" || score != 1.0 {
		t.Errorf("case-insensitive match = %q (%f)", match, score)
	}
}

func TestFuzzyMatchEmptyInputs(t *testing.T) {
	if match, _ := FuzzyMatch("", []string{"a"}, 0.5); match != "" {
		t.Errorf("empty target matched %q", match)
	}
	if match, _ := FuzzyMatch("a", nil, 0.5); match != "" {
		t.Errorf("empty choices matched %q", match)
	}
}
