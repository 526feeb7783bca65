// Package seed provisions the database with the master catalog, user
// accounts, historical budget data, and optional demo transactions.
//
// Every step is idempotent: it detects already-seeded state and reports it
// explicitly instead of failing, so the whole pipeline can be re-run on each
// deploy. Step failures are tolerated by the runner - a warning names the
// failing step and the remaining steps still execute.
package seed

import (
	"context"
	"log"

	"dashboard-inei/config"
	"dashboard-inei/database"
)

// Result distinguishes a step that inserted data from one that found the
// data already present. Genuine failures are returned as errors.
type Result int

const (
	// Applied means the step inserted its data set.
	Applied Result = iota
	// AlreadySeeded means the guard query found existing data and the step
	// changed nothing.
	AlreadySeeded
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case AlreadySeeded:
		return "already seeded"
	default:
		return "unknown"
	}
}

// Step is one named provisioning unit in the seed pipeline.
type Step struct {
	Name string
	Run  func(ctx context.Context, db database.Database) (Result, error)
}

// Steps returns the provisioning steps in their fixed execution order:
// master catalog, user accounts, 2025 budget backfill, demo transactions.
func Steps(cfg *config.Config) []Step {
	steps := []Step{
		{
			Name: "catalogo-maestro",
			Run: func(ctx context.Context, db database.Database) (Result, error) {
				return Catalog(ctx, db, cfg.FiscalYear)
			},
		},
		{
			Name: "usuarios",
			Run: func(ctx context.Context, db database.Database) (Result, error) {
				return Users(ctx, db, cfg)
			},
		},
		{
			Name: "presupuesto-2025",
			Run:  Budget2025,
		},
	}
	if cfg.DemoSeedEnabled {
		steps = append(steps, Step{
			Name: "transacciones-demo",
			Run: func(ctx context.Context, db database.Database) (Result, error) {
				return DemoTransactions(ctx, db, cfg.FiscalYear)
			},
		})
	}
	return steps
}

// Outcome records how one step ended. Err is non-nil for a genuine failure,
// in which case Result carries no meaning.
type Outcome struct {
	Step   string
	Result Result
	Err    error
}

// RunAll executes the steps strictly in order. A failing step never aborts
// the pipeline: the error is reduced to a warning that names the step, and
// the next step runs regardless. Returns the outcome of every step that ran.
func RunAll(ctx context.Context, db database.Database, steps []Step, logf func(format string, v ...interface{})) []Outcome {
	if logf == nil {
		logf = log.Printf
	}

	outcomes := make([]Outcome, 0, len(steps))
	for _, step := range steps {
		result, err := step.Run(ctx, db)
		if err != nil {
			logf("Warning: seed step '%s' failed (it may have already been applied): %v", step.Name, err)
			outcomes = append(outcomes, Outcome{Step: step.Name, Err: err})
			continue
		}
		switch result {
		case AlreadySeeded:
			logf("[SKIP] %s - data already present", step.Name)
		default:
			logf("[OK] %s - seed applied", step.Name)
		}
		outcomes = append(outcomes, Outcome{Step: step.Name, Result: result})
	}
	return outcomes
}
