// Dashboard INEI backend: budget execution, minor contracts, and
// acquisition tracking for INEI executing units.
//
// Boot order is migration, then seeding, then the HTTP server; see the
// startup package for the failure semantics of each phase.
package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "dashboard-inei/config"
	"dashboard-inei/database"
	"dashboard-inei/metrics"
	"dashboard-inei/seed"
	appserver "dashboard-inei/server"
	"dashboard-inei/services"
	"dashboard-inei/startup"
	"dashboard-inei/utils"
)

func main() {
	// Initialize logging
	utils.InitLogging()

	// Load configuration
	config := appconfig.LoadConfig()
	utils.TrustProxyHeaders.Store(appconfig.GetEnvAsBool("TRUST_PROXY_HEADERS", false))

	// Track application start time for uptime calculation
	startTime := time.Now()

	// Connect the database pool (migrations run inside the startup sequencer)
	db, err := database.Setup(config.DatabaseURL)
	if err != nil {
		log.Fatal("💥 [FATAL] Database setup failed:", err)
	}
	defer db.Close()

	// Setup Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisURL,
		Password: config.RedisPassword,
		DB:       0, // use default DB
	})
	defer rdb.Close()

	readyState := appserver.NewReadyState(db, config, rdb)

	// Create Fiber app with the shared middleware stack, then mount routes
	app := appserver.CreateFiberApp(startTime, readyState)
	setupRoutes(app, db, rdb, config)

	ctx := context.Background()
	markRedisWhenReachable(ctx, rdb, readyState)

	sequencer := &startup.Sequencer{
		Migrate: func(ctx context.Context) error {
			return database.Migrate(ctx, db)
		},
		Seeds: instrumentSeeds(seed.Steps(config)),
		DB:    db,
		Serve: func() error {
			readyState.MarkSeedReady()
			go reportPoolMetrics(db)
			services.StartMaintenanceService(db, config.FiscalYear)
			return appserver.ListenWithIPv6Fallback(app, config.Port, startTime)
		},
	}

	if err := sequencer.Run(ctx); err != nil {
		log.Fatalf("💥 [FATAL] %v", err)
	}
}

// instrumentSeeds wraps each seed step so its outcome lands in the
// dashboard_inei_seed_steps_total counter.
func instrumentSeeds(steps []seed.Step) []seed.Step {
	wrapped := make([]seed.Step, len(steps))
	for i, step := range steps {
		step := step
		wrapped[i] = seed.Step{
			Name: step.Name,
			Run: func(ctx context.Context, db database.Database) (seed.Result, error) {
				result, err := step.Run(ctx, db)
				switch {
				case err != nil:
					metrics.RecordSeedStep(step.Name, "failed")
				case result == seed.AlreadySeeded:
					metrics.RecordSeedStep(step.Name, "already_seeded")
				default:
					metrics.RecordSeedStep(step.Name, "applied")
				}
				return result, err
			},
		}
	}
	return wrapped
}

// markRedisWhenReachable flips the readiness flag on the first successful
// ping, retrying in the background if Redis is still coming up.
func markRedisWhenReachable(ctx context.Context, rdb *redis.Client, readyState *appserver.ReadyState) {
	if err := rdb.Ping(ctx).Err(); err == nil {
		readyState.MarkRedisReady()
		return
	}
	log.Printf("⚠️  [WARNING] Redis not reachable yet, will keep retrying in background")

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := rdb.Ping(ctx).Err(); err == nil {
				readyState.MarkRedisReady()
				log.Printf("✅ Redis connectivity verified")
				return
			}
		}
	}()
}

// reportPoolMetrics publishes pgx pool gauges every 30 seconds.
func reportPoolMetrics(db *pgxpool.Pool) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		stat := db.Stat()
		metrics.UpdateDatabaseMetrics(int(stat.AcquiredConns()), int(stat.IdleConns()))
	}
}
