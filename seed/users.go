package seed

import (
	"context"
	"fmt"

	"dashboard-inei/config"
	"dashboard-inei/crypto"
	"dashboard-inei/database"
)

// Users seeds the initial accounts: the default admin (credentials from
// config) plus a budget specialist and a read-only consultant for the demo
// environment. Skipped entirely once any user exists, so operator-created
// accounts are never touched on redeploys.
func Users(ctx context.Context, db database.Database, cfg *config.Config) (Result, error) {
	var count int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM usuario").Scan(&count); err != nil {
		return AlreadySeeded, fmt.Errorf("count usuario: %w", err)
	}
	if count > 0 {
		return AlreadySeeded, nil
	}

	if !cfg.DefaultAdminEnabled {
		return AlreadySeeded, nil
	}

	accounts := []struct {
		username string
		email    string
		password string
		nombre   string
		rol      string
		ueSigla  string
	}{
		{cfg.DefaultAdminUsername, cfg.DefaultAdminEmail, cfg.DefaultAdminPassword,
			"Administrador del Sistema", "ADMIN", "OTIN"},
		{"especialista", "especialista@inei.gob.pe", "esp123",
			"María López", "PRESUPUESTO", "DEC"},
		{"consultor", "consultor@inei.gob.pe", "cons123",
			"Carlos Ruiz", "CONSULTA", "OTA"},
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return AlreadySeeded, fmt.Errorf("begin user seed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, a := range accounts {
		hash, err := crypto.GenerateFromPassword(a.password)
		if err != nil {
			return AlreadySeeded, fmt.Errorf("hash password for %s: %w", a.username, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO usuario (username, email, password_hash, nombre_completo, rol, ue_id, activo)
			VALUES ($1, $2, $3, $4, $5,
			        (SELECT id FROM unidad_ejecutora WHERE sigla = $6), true)
			ON CONFLICT (username) DO NOTHING`,
			a.username, a.email, hash, a.nombre, a.rol, a.ueSigla); err != nil {
			return AlreadySeeded, fmt.Errorf("insert usuario %s: %w", a.username, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return AlreadySeeded, fmt.Errorf("commit user seed: %w", err)
	}
	return Applied, nil
}
