package conversation

import (
	"testing"

	"go.uber.org/zap"
)

func newTestContext() *Context {
	return NewManager(zap.NewNop()).GetOrCreate("s1", "u1")
}

func TestMergeEntitiesMovesRementionToFront(t *testing.T) {
	ctx := newTestContext()

	ctx.MergeEntities([]Entity{
		{Type: EntityItems, Name: "Cheeseburger"},
		{Type: EntityItems, Name: "Caesar Salad"},
	})
	ctx.MergeEntities([]Entity{{Type: EntityItems, Name: "Cheeseburger"}})

	bucket := ctx.ActiveEntities[EntityItems]
	if len(bucket) != 2 {
		t.Fatalf("bucket length = %d, want 2", len(bucket))
	}
	if bucket[len(bucket)-1].Name != "Cheeseburger" {
		t.Errorf("most recent = %q, want Cheeseburger", bucket[len(bucket)-1].Name)
	}
}

func TestTimeRangeValidation(t *testing.T) {
	tests := []struct {
		name      string
		tr        TimeRange
		wantErr   bool
		wantStart string
		wantEnd   string
	}{
		{"both bounds", TimeRange{Start: "2026-08-01", End: "2026-08-07"}, false, "2026-08-01", "2026-08-07"},
		{"start only mirrors", TimeRange{Start: "2026-08-01"}, false, "2026-08-01", "2026-08-01"},
		{"end only mirrors", TimeRange{End: "2026-08-07"}, false, "2026-08-07", "2026-08-07"},
		{"inverted", TimeRange{Start: "2026-08-07", End: "2026-08-01"}, true, "", ""},
		{"garbage date", TimeRange{Start: "last tuesday"}, true, "", ""},
		{"empty", TimeRange{}, true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tt.tr
			err := tr.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if tr.Start != tt.wantStart || tr.End != tt.wantEnd {
					t.Errorf("bounds = %s..%s, want %s..%s", tr.Start, tr.End, tt.wantStart, tt.wantEnd)
				}
			}
		})
	}
}

func TestClarificationStateMachine(t *testing.T) {
	ctx := newTestContext()

	if ctx.AwaitingClarification() {
		t.Fatal("fresh context should not be awaiting clarification")
	}
	if ctx.MarkCorrected() {
		t.Fatal("MarkCorrected should fail with nothing in flight")
	}

	ctx.SetClarification("Which item?", "q1", map[string]interface{}{"query_text": "disable it"})
	if !ctx.AwaitingClarification() {
		t.Fatal("expected awaiting state")
	}
	if ctx.Clarification.TargetQueryID != "q1" {
		t.Errorf("target = %q", ctx.Clarification.TargetQueryID)
	}

	if !ctx.MarkCorrected() {
		t.Fatal("MarkCorrected should succeed from awaiting")
	}
	if ctx.AwaitingClarification() {
		t.Error("corrected state still reports awaiting")
	}
	if ctx.MarkCorrected() {
		t.Error("MarkCorrected should not fire twice")
	}

	ctx.ResolveClarification()
	if ctx.Clarification != nil {
		t.Error("clarification state not cleared")
	}
}

func TestTurnLookups(t *testing.T) {
	ctx := newTestContext()

	ctx.AppendTurn(Turn{QueryID: "q1", Role: "user", Text: "first"})
	ctx.AppendTurn(Turn{QueryID: "q1", Role: "assistant", Text: "answer one"})
	ctx.AppendTurn(Turn{QueryID: "q2", Role: "user", Text: "second"})
	ctx.AppendTurn(Turn{QueryID: "q2", Role: "assistant", Text: "answer two"})

	if turn := ctx.LastUserTurn(); turn == nil || turn.QueryID != "q2" {
		t.Errorf("LastUserTurn = %+v", turn)
	}
	if turn := ctx.PreviousUserTurn(); turn == nil || turn.QueryID != "q1" {
		t.Errorf("PreviousUserTurn = %+v", turn)
	}
	if turn := ctx.TurnByQueryID("q1"); turn == nil || turn.Text != "first" {
		t.Errorf("TurnByQueryID = %+v", turn)
	}
	if turn := ctx.TurnByQueryID("missing"); turn != nil {
		t.Errorf("unexpected turn for unknown id: %+v", turn)
	}
}

func TestManagerSessionLifecycle(t *testing.T) {
	m := NewManager(zap.NewNop())

	a := m.GetOrCreate("s1", "")
	b := m.GetOrCreate("s1", "")
	if a != b {
		t.Error("GetOrCreate returned different contexts for one session")
	}
	if m.SessionCount() != 1 {
		t.Errorf("session count = %d", m.SessionCount())
	}

	m.GetOrCreate("s2", "")
	if m.SessionCount() != 2 {
		t.Errorf("session count = %d", m.SessionCount())
	}

	m.Drop("s1")
	if m.SessionCount() != 1 {
		t.Errorf("session count after drop = %d", m.SessionCount())
	}
}
