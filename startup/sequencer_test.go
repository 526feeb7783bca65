package startup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"dashboard-inei/database"
	"dashboard-inei/seed"
)

func TestRunMigrationFailureSkipsEverything(t *testing.T) {
	migrationErr := errors.New("relation _migrations could not be created")
	seedRan := false
	serveRan := false

	s := &Sequencer{
		Migrate: func(ctx context.Context) error { return migrationErr },
		Seeds: []seed.Step{{
			Name: "catalogo-maestro",
			Run: func(ctx context.Context, db database.Database) (seed.Result, error) {
				seedRan = true
				return seed.Applied, nil
			},
		}},
		Serve: func() error {
			serveRan = true
			return nil
		},
		Logf: func(string, ...interface{}) {},
	}

	err := s.Run(context.Background())
	if !errors.Is(err, migrationErr) {
		t.Fatalf("Run() = %v, want wrapped migration error", err)
	}
	if seedRan {
		t.Error("seed step ran after a failed migration")
	}
	if serveRan {
		t.Error("server started after a failed migration")
	}
}

func TestRunSeedFailureStillStartsServer(t *testing.T) {
	var logs []string
	var order []string

	s := &Sequencer{
		Migrate: func(ctx context.Context) error {
			order = append(order, "migrate")
			return nil
		},
		Seeds: []seed.Step{
			{Name: "usuarios", Run: func(ctx context.Context, db database.Database) (seed.Result, error) {
				order = append(order, "seed:usuarios")
				return seed.AlreadySeeded, errors.New("connection reset by peer")
			}},
			{Name: "presupuesto-2025", Run: func(ctx context.Context, db database.Database) (seed.Result, error) {
				order = append(order, "seed:presupuesto-2025")
				return seed.Applied, nil
			}},
		},
		Serve: func() error {
			order = append(order, "serve")
			return nil
		},
		Logf: func(format string, v ...interface{}) {
			logs = append(logs, fmt.Sprintf(format, v...))
		},
	}

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}

	want := []string{"migrate", "seed:usuarios", "seed:presupuesto-2025", "serve"}
	if len(order) != len(want) {
		t.Fatalf("phases ran as %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("phase %d = %q, want %q", i, order[i], want[i])
		}
	}

	// The failing step must be named so an operator can tell which data set
	// is missing.
	named := false
	for _, line := range logs {
		if strings.Contains(line, "'usuarios'") {
			named = true
		}
	}
	if !named {
		t.Errorf("expected a log line naming the failed step, got: %v", logs)
	}
}

func TestRunReturnsServeError(t *testing.T) {
	serveErr := errors.New("listen tcp :8000: address already in use")

	s := &Sequencer{
		Migrate: func(ctx context.Context) error { return nil },
		Serve:   func() error { return serveErr },
		Logf:    func(string, ...interface{}) {},
	}

	if err := s.Run(context.Background()); !errors.Is(err, serveErr) {
		t.Errorf("Run() = %v, want the server's error", err)
	}
}

func TestRunNoSeeds(t *testing.T) {
	served := false
	s := &Sequencer{
		Migrate: func(ctx context.Context) error { return nil },
		Serve: func() error {
			served = true
			return nil
		},
		Logf: func(string, ...interface{}) {},
	}

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if !served {
		t.Error("server never started")
	}
}
