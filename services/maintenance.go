package services

import (
	"context"
	"log"
	"time"

	"dashboard-inei/database"
)

// Resolved alerts older than this are purged from the feed.
const alertaRetentionDays = 90

// StartMaintenanceService starts a background loop that re-evaluates the
// alert rules and prunes stale alerts every 24 hours. The first run happens
// immediately so a fresh deploy surfaces breaches without waiting a day.
func StartMaintenanceService(db database.Database, anio int) {
	go func() {
		ctx := context.Background()
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		RunMaintenanceTasks(ctx, db, anio)

		for range ticker.C {
			RunMaintenanceTasks(ctx, db, anio)
		}
	}()
}

// RunMaintenanceTasks performs one maintenance pass: alert generation, then
// retention cleanup.
func RunMaintenanceTasks(ctx context.Context, db database.Database, anio int) {
	log.Println("🧹 Running scheduled maintenance tasks...")

	if _, err := GenerarAlertas(ctx, db, anio); err != nil {
		log.Printf("⚠️ Alert generation failed: %v", err)
	}

	result, err := db.Exec(ctx, `
		DELETE FROM alerta
		WHERE resuelta AND fecha_generacion < NOW() - make_interval(days => $1)`,
		alertaRetentionDays)
	if err != nil {
		log.Printf("⚠️ Failed to purge resolved alerts: %v", err)
	} else if result.RowsAffected() > 0 {
		log.Printf("🗑️ Purged %d resolved alerts older than %d days", result.RowsAffected(), alertaRetentionDays)
	}

	log.Println("🎯 Maintenance tasks completed")
}
