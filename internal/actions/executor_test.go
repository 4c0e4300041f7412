package actions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/apperrors"
	"github.com/resto-agent/backend/internal/storage/sqlite"
)

func dryRunExecutor() *Executor {
	return NewExecutor(nil, true, zap.NewNop())
}

func TestRequiresConfirmation(t *testing.T) {
	e := dryRunExecutor()

	needs, consequence := e.RequiresConfirmation("disable_item", map[string]interface{}{
		"item_name": "Cheeseburger",
	})
	if !needs {
		t.Fatal("disable_item should require confirmation")
	}
	if !strings.Contains(consequence, "Cheeseburger") {
		t.Errorf("consequence = %q", consequence)
	}

	needs, _ = e.RequiresConfirmation("update_price", map[string]interface{}{
		"item_name": "Cheeseburger",
	})
	if needs {
		t.Error("update_price should not require confirmation")
	}
}

func TestExecuteUnknownAction(t *testing.T) {
	e := dryRunExecutor()

	_, err := e.Execute(context.Background(), "launch_rocket", nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	var typed *apperrors.TypedError
	if !errors.As(err, &typed) || typed.Type != apperrors.TypeAction {
		t.Errorf("error = %v", err)
	}
}

func TestUpdatePriceValidation(t *testing.T) {
	e := dryRunExecutor()

	tests := []struct {
		name     string
		params   map[string]interface{}
		wantType apperrors.ErrorType
	}{
		{"missing item", map[string]interface{}{"new_price": 9.99}, apperrors.TypeAction},
		{"missing price", map[string]interface{}{"item_name": "Cheeseburger"}, apperrors.TypeAction},
		{"negative price", map[string]interface{}{"item_name": "Cheeseburger", "new_price": -1.0}, apperrors.TypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), "update_price", tt.params)
			if err == nil {
				t.Fatal("expected an error")
			}
			var typed *apperrors.TypedError
			if !errors.As(err, &typed) || typed.Type != tt.wantType {
				t.Errorf("error = %v, want type %s", err, tt.wantType)
			}
		})
	}
}

func TestUpdatePriceDryRun(t *testing.T) {
	e := dryRunExecutor()

	outcome, err := e.Execute(context.Background(), "update_price", map[string]interface{}{
		"item_name": "Cheeseburger",
		"new_price": 9.99,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(outcome.Phrase, "$9.99") {
		t.Errorf("phrase = %q", outcome.Phrase)
	}
	if outcome.Data["item_name"] != "Cheeseburger" {
		t.Errorf("data = %v", outcome.Data)
	}
}

func TestSetItemActiveDryRun(t *testing.T) {
	e := dryRunExecutor()

	outcome, err := e.Execute(context.Background(), "disable_item", map[string]interface{}{
		"item_name": "Cheeseburger",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(outcome.Phrase, "disabled") {
		t.Errorf("phrase = %q", outcome.Phrase)
	}

	outcome, err = e.Execute(context.Background(), "enable_item", map[string]interface{}{
		"item_name": "Cheeseburger",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(outcome.Phrase, "re-enabled") {
		t.Errorf("phrase = %q", outcome.Phrase)
	}
}

func TestUpdatePriceResolvesNearMissName(t *testing.T) {
	client, err := sqlite.NewClient(t.TempDir()+"/test.db", zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	if err := client.InitSchema(); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	if _, err := client.DB().Exec(
		`INSERT INTO menu_items (name, price, active) VALUES ('Cheeseburger', 8.99, 1)`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	e := NewExecutor(client, false, zap.NewNop())

	outcome, err := e.Execute(context.Background(), "update_price", map[string]interface{}{
		"item_name": "Cheesburger",
		"new_price": 9.49,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if outcome.Data["item_name"] != "Cheeseburger" {
		t.Errorf("resolved name = %v", outcome.Data["item_name"])
	}
	if outcome.Data["previous_price"] != 8.99 {
		t.Errorf("previous price = %v", outcome.Data["previous_price"])
	}

	var price float64
	if err := client.DB().QueryRow(
		`SELECT price FROM menu_items WHERE name = 'Cheeseburger'`).Scan(&price); err != nil {
		t.Fatalf("query: %v", err)
	}
	if price != 9.49 {
		t.Errorf("price = %f", price)
	}
}

func TestNumericParam(t *testing.T) {
	tests := []struct {
		in     interface{}
		want   float64
		wantOK bool
	}{
		{9.99, 9.99, true},
		{float32(2.5), 2.5, true},
		{7, 7.0, true},
		{int64(3), 3.0, true},
		{"9.99", 0, false},
		{nil, 0, false},
	}

	for _, tt := range tests {
		value, ok := numericParam(tt.in)
		if ok != tt.wantOK || value != tt.want {
			t.Errorf("numericParam(%v) = (%f, %v), want (%f, %v)", tt.in, value, ok, tt.want, tt.wantOK)
		}
	}
}
