// Package startup orders the boot sequence of the backend: schema migration,
// then data seeding, then the HTTP server. The ordering is load-bearing - the
// seed steps insert into tables the migration creates, and the server answers
// queries against data the seeds provide.
package startup

import (
	"context"
	"fmt"
	"log"

	"dashboard-inei/database"
	"dashboard-inei/seed"
)

// Sequencer runs the three boot phases in their fixed order.
//
// Phase failure semantics differ on purpose. A migration error is fatal:
// Run returns it immediately and the server never starts, because serving
// requests against an un-migrated schema corrupts every later phase. A seed
// step error is tolerated: the step is reported and the remaining steps and
// the server still run, since seed data is idempotent provisioning that a
// redeploy expects to find already in place.
type Sequencer struct {
	// Migrate applies pending schema migrations. Required.
	Migrate func(ctx context.Context) error
	// Seeds are executed in order after a successful migration.
	Seeds []seed.Step
	// DB is handed to each seed step.
	DB database.Database
	// Serve blocks serving requests; its return value becomes Run's.
	// Required.
	Serve func() error
	// Logf defaults to log.Printf.
	Logf func(format string, v ...interface{})
}

// Run executes migration, seeding, and the server hand-off. It only returns
// once Serve returns (or migration fails); there is no path back from the
// server to the earlier phases.
func (s *Sequencer) Run(ctx context.Context) error {
	logf := s.Logf
	if logf == nil {
		logf = log.Printf
	}

	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logf("Database migration phase completed")

	if len(s.Seeds) > 0 {
		logf("Running %d seed steps...", len(s.Seeds))
		seed.RunAll(ctx, s.DB, s.Seeds, logf)
	}

	logf("Startup sequence complete, starting server")
	return s.Serve()
}
