package resolution

import (
	"testing"

	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/conversation"
)

func testContext(t *testing.T) *conversation.Context {
	t.Helper()
	return conversation.NewManager(zap.NewNop()).GetOrCreate("test-session", "")
}

func TestResolveSingularPronoun(t *testing.T) {
	convCtx := testContext(t)
	convCtx.MergeEntities([]conversation.Entity{
		{Type: conversation.EntityItems, Name: "Caesar Salad"},
		{Type: conversation.EntityItems, Name: "Cheeseburger"},
	})

	svc := NewService(zap.NewNop())
	result, err := svc.ResolveEntities("How much does it cost?", convCtx)
	if err != nil {
		t.Fatalf("ResolveEntities: %v", err)
	}

	if result.NeedsClarification {
		t.Fatalf("unexpected clarification: %s", result.ClarificationQuestion)
	}
	if len(result.Entities) != 1 || result.Entities[0].Name != "Cheeseburger" {
		t.Errorf("entities = %+v, want the most recent item", result.Entities)
	}
}

func TestResolvePronounWithEmptyContext(t *testing.T) {
	convCtx := testContext(t)

	svc := NewService(zap.NewNop())
	result, err := svc.ResolveEntities("How much does it cost?", convCtx)
	if err != nil {
		t.Fatalf("ResolveEntities: %v", err)
	}

	if !result.NeedsClarification {
		t.Fatal("expected clarification for unresolvable pronoun")
	}
	if result.ClarificationQuestion != "Which one are you referring to?" {
		t.Errorf("question = %q", result.ClarificationQuestion)
	}
}

func TestResolveExplicitReference(t *testing.T) {
	convCtx := testContext(t)
	convCtx.MergeEntities([]conversation.Entity{
		{Type: conversation.EntityCategories, Name: "Desserts"},
	})

	svc := NewService(zap.NewNop())
	result, err := svc.ResolveEntities("Show sales for that category", convCtx)
	if err != nil {
		t.Fatalf("ResolveEntities: %v", err)
	}

	if result.NeedsClarification {
		t.Fatalf("unexpected clarification: %s", result.ClarificationQuestion)
	}
	if len(result.Entities) != 1 || result.Entities[0].Name != "Desserts" {
		t.Errorf("entities = %+v, want Desserts", result.Entities)
	}
}

func TestResolveExplicitReferenceWithoutCandidates(t *testing.T) {
	convCtx := testContext(t)

	svc := NewService(zap.NewNop())
	result, err := svc.ResolveEntities("Show sales for that category", convCtx)
	if err != nil {
		t.Fatalf("ResolveEntities: %v", err)
	}

	if !result.NeedsClarification {
		t.Fatal("expected clarification when no categories are tracked")
	}
	if result.ClarificationQuestion != "Which category are you referring to?" {
		t.Errorf("question = %q", result.ClarificationQuestion)
	}
}

func TestPluralReferenceWithoutCandidatesPluralizesQuestion(t *testing.T) {
	convCtx := testContext(t)

	svc := NewService(zap.NewNop())
	result, err := svc.ResolveEntities("Compare those categories by revenue", convCtx)
	if err != nil {
		t.Fatalf("ResolveEntities: %v", err)
	}

	if !result.NeedsClarification {
		t.Fatal("expected clarification when no categories are tracked")
	}
	if result.ClarificationQuestion != "Which categories are you referring to?" {
		t.Errorf("question = %q", result.ClarificationQuestion)
	}
}

func TestResolvePluralReference(t *testing.T) {
	convCtx := testContext(t)
	convCtx.MergeEntities([]conversation.Entity{
		{Type: conversation.EntityItems, Name: "Cheeseburger"},
		{Type: conversation.EntityItems, Name: "Caesar Salad"},
	})

	svc := NewService(zap.NewNop())
	result, err := svc.ResolveEntities("Compare those items by revenue", convCtx)
	if err != nil {
		t.Fatalf("ResolveEntities: %v", err)
	}

	if result.NeedsClarification {
		t.Fatalf("unexpected clarification: %s", result.ClarificationQuestion)
	}
	if len(result.Entities) != 2 {
		t.Errorf("entities = %+v, want both items", result.Entities)
	}
}

func TestResolveDomainReferenceToOrderHistory(t *testing.T) {
	convCtx := testContext(t)
	convCtx.AppendTurn(conversation.Turn{
		QueryID:    "q1",
		Role:       "user",
		Text:       "Show completed orders from last week",
		QueryType:  "data_query",
		IntentType: "order_history",
		SQL:        "SELECT * FROM orders WHERE status = 'completed' LIMIT 100",
		Filters:    map[string]interface{}{"status": "completed"},
	})

	svc := NewService(zap.NewNop())
	result, err := svc.ResolveEntities("What was the total for those orders?", convCtx)
	if err != nil {
		t.Fatalf("ResolveEntities: %v", err)
	}

	if result.QueryReference == nil {
		t.Fatal("expected a query reference to the previous order query")
	}
	if result.QueryReference.QueryType != "order_history" {
		t.Errorf("query type = %q", result.QueryReference.QueryType)
	}
	if result.QueryReference.SQL == "" {
		t.Error("expected previous SQL to carry over")
	}
	if result.QueryReference.Filters["status"] != "completed" {
		t.Errorf("filters = %v", result.QueryReference.Filters)
	}
	if result.NeedsClarification {
		t.Errorf("unexpected clarification: %s", result.ClarificationQuestion)
	}
}

func TestExtractReferencesSpans(t *testing.T) {
	svc := NewService(zap.NewNop())
	refs, err := svc.extractReferences("disable that item now")
	if err != nil {
		t.Fatalf("extractReferences: %v", err)
	}

	if len(refs) != 1 {
		t.Fatalf("got %d references, want 1", len(refs))
	}
	ref := refs[0]
	if ref.Text != "that item" {
		t.Errorf("text = %q", ref.Text)
	}
	if ref.Type != RefExplicit {
		t.Errorf("type = %s", ref.Type)
	}
	if ref.EntityType != conversation.EntityItems {
		t.Errorf("entity type = %s", ref.EntityType)
	}
	if ref.Plurality != Singular {
		t.Errorf("plurality = %s", ref.Plurality)
	}
}
