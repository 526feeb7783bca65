package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"dashboard-inei/config"
	"dashboard-inei/database"
)

func TestResultString(t *testing.T) {
	tests := []struct {
		result Result
		want   string
	}{
		{Applied, "applied"},
		{AlreadySeeded, "already seeded"},
		{Result(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.result.String(); got != tt.want {
			t.Errorf("Result(%d).String() = %q, want %q", tt.result, got, tt.want)
		}
	}
}

func TestRunAllContinuesAfterFailure(t *testing.T) {
	var order []string
	var logs []string
	logf := func(format string, v ...interface{}) {
		logs = append(logs, fmt.Sprintf(format, v...))
	}

	steps := []Step{
		{Name: "primero", Run: func(ctx context.Context, db database.Database) (Result, error) {
			order = append(order, "primero")
			return Applied, nil
		}},
		{Name: "segundo", Run: func(ctx context.Context, db database.Database) (Result, error) {
			order = append(order, "segundo")
			return AlreadySeeded, errors.New("duplicate key value violates unique constraint")
		}},
		{Name: "tercero", Run: func(ctx context.Context, db database.Database) (Result, error) {
			order = append(order, "tercero")
			return AlreadySeeded, nil
		}},
	}

	outcomes := RunAll(context.Background(), nil, steps, logf)

	if len(order) != 3 {
		t.Fatalf("expected all 3 steps to run despite the failure, ran %d: %v", len(order), order)
	}
	for i, want := range []string{"primero", "segundo", "tercero"} {
		if order[i] != want {
			t.Errorf("step %d ran as %q, want %q", i, order[i], want)
		}
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Err != nil || outcomes[0].Result != Applied {
		t.Errorf("first step outcome = %+v, want applied without error", outcomes[0])
	}
	// The failing step must surface its error, never a clean "applied".
	if outcomes[1].Step != "segundo" || outcomes[1].Err == nil {
		t.Errorf("failing step outcome = %+v, want its error carried", outcomes[1])
	}
	if outcomes[2].Err != nil || outcomes[2].Result != AlreadySeeded {
		t.Errorf("third step outcome = %+v, want already-seeded without error", outcomes[2])
	}

	// The failing step must be named in a warning, not abort the run.
	found := false
	for _, line := range logs {
		if strings.Contains(line, "Warning") && strings.Contains(line, "'segundo'") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning naming step 'segundo', got logs: %v", logs)
	}
}

func TestRunAllDistinguishesSkipFromApply(t *testing.T) {
	var logs []string
	logf := func(format string, v ...interface{}) {
		logs = append(logs, fmt.Sprintf(format, v...))
	}

	steps := []Step{
		{Name: "nuevo", Run: func(ctx context.Context, db database.Database) (Result, error) {
			return Applied, nil
		}},
		{Name: "existente", Run: func(ctx context.Context, db database.Database) (Result, error) {
			return AlreadySeeded, nil
		}},
	}

	RunAll(context.Background(), nil, steps, logf)

	if len(logs) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %v", len(logs), logs)
	}
	if !strings.Contains(logs[0], "[OK] nuevo") {
		t.Errorf("applied step should log [OK], got %q", logs[0])
	}
	if !strings.Contains(logs[1], "[SKIP] existente") {
		t.Errorf("already-seeded step should log [SKIP], got %q", logs[1])
	}
}

func TestRunAllEmptySteps(t *testing.T) {
	outcomes := RunAll(context.Background(), nil, nil, func(string, ...interface{}) {
		t.Error("nothing should be logged for an empty pipeline")
	})
	if len(outcomes) != 0 {
		t.Errorf("expected no outcomes, got %v", outcomes)
	}
}

func TestStepsOrderAndDemoToggle(t *testing.T) {
	cfg := &config.Config{FiscalYear: 2026}

	names := func(steps []Step) []string {
		out := make([]string, len(steps))
		for i, s := range steps {
			out[i] = s.Name
		}
		return out
	}

	got := names(Steps(cfg))
	want := []string{"catalogo-maestro", "usuarios", "presupuesto-2025"}
	if len(got) != len(want) {
		t.Fatalf("Steps() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, got[i], want[i])
		}
	}

	cfg.DemoSeedEnabled = true
	got = names(Steps(cfg))
	if len(got) != 4 || got[3] != "transacciones-demo" {
		t.Errorf("with demo seed enabled, Steps() = %v, want demo step appended", got)
	}
}
