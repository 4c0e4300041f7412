package llm

import (
	"strings"
	"testing"
)

func TestEnsureRowCap(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		cap  int
		want string
	}{
		{
			"no limit gets one",
			"SELECT * FROM orders",
			1000,
			"SELECT * FROM orders LIMIT 1000",
		},
		{
			"limit under cap untouched",
			"SELECT * FROM orders LIMIT 50",
			1000,
			"SELECT * FROM orders LIMIT 50",
		},
		{
			"limit over cap lowered",
			"SELECT * FROM orders LIMIT 5000",
			1000,
			"SELECT * FROM orders LIMIT 1000",
		},
		{
			"limit at cap untouched",
			"SELECT * FROM orders LIMIT 1000",
			1000,
			"SELECT * FROM orders LIMIT 1000",
		},
		{
			"lowercase limit",
			"select id from orders limit 9999",
			100,
			"select id from orders LIMIT 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnsureRowCap(tt.sql, tt.cap); got != tt.want {
				t.Errorf("EnsureRowCap() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildSQLPromptIncludesContext(t *testing.T) {
	prompt := buildSQLPrompt(SQLRequest{
		QueryText: "total sales for burgers",
		Entities:  map[string][]string{"items": {"Cheeseburger"}},
		Filters:   map[string]interface{}{"status": "completed"},
	})

	for _, fragment := range []string{"total sales for burgers", "Cheeseburger", "status = completed"} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}
