package llm

import (
	"testing"
)

func TestParseClassificationFoldsFlatDates(t *testing.T) {
	payload := `{
		"request_type": "data_query",
		"intent_type": "order_history",
		"entities": {"items": ["Cheeseburger"]},
		"start_date": "2026-08-01",
		"end_date": "2026-08-07",
		"confidence": 0.92
	}`

	result, err := ParseClassification(payload)
	if err != nil {
		t.Fatalf("ParseClassification: %v", err)
	}

	if result.QueryType != "data_query" {
		t.Errorf("query type = %q", result.QueryType)
	}
	if result.TimeRange == nil {
		t.Fatal("time range not folded")
	}
	if result.TimeRange.Start != "2026-08-01" || result.TimeRange.End != "2026-08-07" {
		t.Errorf("time range = %+v", result.TimeRange)
	}
	if result.Entities["items"][0] != "Cheeseburger" {
		t.Errorf("entities = %v", result.Entities)
	}
}

func TestParseClassificationMirrorsSingleSidedRange(t *testing.T) {
	payload := `{"request_type": "data_query", "intent_type": "sales_summary", "start_date": "2026-08-15"}`

	result, err := ParseClassification(payload)
	if err != nil {
		t.Fatalf("ParseClassification: %v", err)
	}
	if result.TimeRange.Start != "2026-08-15" || result.TimeRange.End != "2026-08-15" {
		t.Errorf("single-sided range not mirrored: %+v", result.TimeRange)
	}
}

func TestParseClassificationRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "i cannot classify that"},
		{"no type fields", `{"confidence": 0.5}`},
		{"inverted dates", `{"request_type": "data_query", "start_date": "2026-08-07", "end_date": "2026-08-01"}`},
		{"garbage date", `{"request_type": "data_query", "start_date": "yesterday"}`},
		{"negative price", `{"request_type": "action_request", "new_price": -4.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseClassification(tt.payload); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseClassificationStripsCodeFence(t *testing.T) {
	payload := "```json\n{\"request_type\": \"data_query\", \"intent_type\": \"menu_lookup\"}\n```"

	result, err := ParseClassification(payload)
	if err != nil {
		t.Fatalf("ParseClassification: %v", err)
	}
	if result.IntentType != "menu_lookup" {
		t.Errorf("intent = %q", result.IntentType)
	}
}

func TestParseClassificationDropsEmptyAction(t *testing.T) {
	payload := `{"request_type": "data_query", "action": {"type": "", "parameters": {}}}`

	result, err := ParseClassification(payload)
	if err != nil {
		t.Fatalf("ParseClassification: %v", err)
	}
	if result.Action != nil {
		t.Errorf("empty action kept: %+v", result.Action)
	}
}
