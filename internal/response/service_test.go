package response

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestService() *Service {
	return NewService(zap.NewNop())
}

func TestFormatDataResponse(t *testing.T) {
	svc := newTestService()

	envelope := svc.FormatResponse(KindData, map[string]interface{}{
		"records": []map[string]interface{}{
			{"name": "Cheeseburger", "count": 12},
			{"name": "Caesar Salad", "count": 7},
		},
		"subject": "menu items",
	}, nil)

	if envelope.Type != "data" {
		t.Errorf("type = %q", envelope.Type)
	}
	if !strings.Contains(envelope.Text, "2") {
		t.Errorf("text %q should mention the count", envelope.Text)
	}
	if envelope.Data["count"] != 2 {
		t.Errorf("data count = %v", envelope.Data["count"])
	}
}

func TestFormatDataResponseWithAggregates(t *testing.T) {
	svc := newTestService()

	envelope := svc.FormatResponse(KindData, map[string]interface{}{
		"records": []map[string]interface{}{
			{"value": 10.0},
			{"value": 30.0},
		},
	}, nil)

	aggregates, ok := envelope.Data["aggregates"].(map[string]float64)
	if !ok {
		t.Fatalf("aggregates missing: %v", envelope.Data)
	}
	if aggregates["total"] != 40.0 {
		t.Errorf("total = %f", aggregates["total"])
	}
	if aggregates["average"] != 20.0 {
		t.Errorf("average = %f", aggregates["average"])
	}
}

func TestEmptyResultBecomesEmptyKind(t *testing.T) {
	svc := newTestService()

	envelope := svc.FormatResponse(KindData, map[string]interface{}{
		"records": []map[string]interface{}{},
		"subject": "orders",
	}, nil)

	if envelope.Type != "empty" {
		t.Errorf("type = %q, want empty", envelope.Type)
	}
	if envelope.Data != nil {
		t.Errorf("empty response carries data: %v", envelope.Data)
	}
	if envelope.Metadata["is_empty"] != true {
		t.Errorf("metadata = %v", envelope.Metadata)
	}
	if !strings.Contains(envelope.Text, "orders") {
		t.Errorf("text %q should name the subject", envelope.Text)
	}
}

func TestEveryEmptyTemplateSaysNo(t *testing.T) {
	for _, tmpl := range templatePools[KindEmpty] {
		if !strings.Contains(strings.ToLower(tmpl), "no ") {
			t.Errorf("empty template %q does not tell the user nothing was found", tmpl)
		}
	}
}

func TestNoImmediateTemplateRepeat(t *testing.T) {
	svc := newTestService()

	prev := ""
	for i := 0; i < 50; i++ {
		envelope := svc.FormatResponse(KindEmpty, map[string]interface{}{
			"subject": "orders",
		}, nil)
		if envelope.Text == prev {
			t.Fatalf("template repeated back to back at iteration %d: %q", i, envelope.Text)
		}
		prev = envelope.Text
	}
}

func TestClarificationWithOptions(t *testing.T) {
	svc := newTestService()

	envelope := svc.FormatResponse(KindClarification, map[string]interface{}{
		"question": "Which item are you referring to?",
		"options":  []string{"Cheeseburger", "Caesar Salad", "Chicken Wings"},
	}, nil)

	if envelope.Type != "clarification" {
		t.Errorf("type = %q", envelope.Type)
	}
	if !strings.Contains(envelope.Text, "Cheeseburger, Caesar Salad or Chicken Wings") {
		t.Errorf("text %q should enumerate options", envelope.Text)
	}
}

func TestConfirmationRequiresConsequence(t *testing.T) {
	svc := newTestService()

	envelope := svc.FormatResponse(KindConfirmation, map[string]interface{}{
		"consequence": `make "Cheeseburger" unavailable for ordering`,
	}, nil)

	if envelope.Type != "confirmation" {
		t.Errorf("type = %q", envelope.Type)
	}
	if envelope.Metadata["requires_confirmation"] != true {
		t.Errorf("metadata = %v", envelope.Metadata)
	}

	// Missing consequence degrades to an error envelope.
	envelope = svc.FormatResponse(KindConfirmation, nil, nil)
	if envelope.Type != "error" {
		t.Errorf("degraded type = %q, want error", envelope.Type)
	}
}

func TestActionFailureRendersError(t *testing.T) {
	svc := newTestService()

	envelope := svc.FormatResponse(KindAction, map[string]interface{}{
		"success":    false,
		"message":    "no item named Pizza",
		"error_code": "not_found",
	}, nil)

	if envelope.Type != "error" {
		t.Errorf("type = %q, want error", envelope.Type)
	}
	if !strings.Contains(envelope.Text, "no item named Pizza") {
		t.Errorf("text = %q", envelope.Text)
	}
}

func TestStripUnfilled(t *testing.T) {
	got := stripUnfilled("Found {count} rows for {subject} .")
	if got != "Found rows for." {
		t.Errorf("stripUnfilled = %q", got)
	}
}

func TestEnumerate(t *testing.T) {
	tests := []struct {
		items       []string
		conjunction string
		want        string
	}{
		{nil, "and", ""},
		{[]string{"a"}, "and", "a"},
		{[]string{"a", "b"}, "or", "a or b"},
		{[]string{"a", "b", "c"}, "and", "a, b, and c"},
		{[]string{"a", "b", "c"}, "or", "a, b or c"},
	}

	for _, tt := range tests {
		if got := enumerate(tt.items, tt.conjunction); got != tt.want {
			t.Errorf("enumerate(%v, %q) = %q, want %q", tt.items, tt.conjunction, got, tt.want)
		}
	}
}
