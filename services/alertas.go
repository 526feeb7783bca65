// Package services holds background business logic that runs outside the
// request path: the semaphore alert engine and periodic maintenance.
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"dashboard-inei/database"
)

// Business rule thresholds (UIT 2026 = S/ 5,500).
const (
	// SemaforoVerdeMin is the execution ratio at or above which a unit is green.
	SemaforoVerdeMin = 0.90
	// SemaforoAmarilloMin is the lower bound of the yellow band; below it is red.
	SemaforoAmarilloMin = 0.70
	// SobreEjecucionMax flags execution above 110% of the programmed amount.
	SobreEjecucionMax = 1.10
	// SaldoMinRatio is the minimum available balance as a share of PIM.
	SaldoMinRatio = 0.10

	// Umbral8UIT is the minor-contract ceiling: 8 x UIT 2026.
	Umbral8UIT = 44_000
	// FraccionamientoMaxContratosMes: this many contracts in the same
	// UE/category/month suggests deliberate splitting below the 8 UIT ceiling.
	FraccionamientoMaxContratosMes = 3
	// FraccionamientoAcumuladoTrimestre is the accumulated quarterly amount
	// per UE/category above which splitting is suspected.
	FraccionamientoAcumuladoTrimestre = Umbral8UIT

	// DiasParalizadoAdquisicion is the stall threshold for acquisitions.
	DiasParalizadoAdquisicion = 30
	// DiasParalizadoContrato is the stall threshold for minor contracts.
	DiasParalizadoContrato = 15
)

// Entity types for the group-level fractionation alerts. The two rules bucket
// contracts differently (month vs quarter) and their pseudo entity ids can
// overlap, so each rule carries its own entity type to keep the
// (tipo, entidad_id, entidad_tipo) idempotence key unambiguous.
const (
	EntidadGrupoMes       = "contrato_menor_grupo_mes"
	EntidadGrupoTrimestre = "contrato_menor_grupo_trimestre"
)

// GenerarAlertas evaluates all alert rules against the current database state
// for a fiscal year and inserts an alerta row for each new threshold breach.
//
// The engine is idempotent per (tipo, entidad_id, entidad_tipo): a rule skips
// entities that already carry an unresolved alert of the same type. One
// failing rule never aborts the run; its error is logged and the remaining
// rules still execute. Returns the number of alerts inserted.
func GenerarAlertas(ctx context.Context, db database.Database, anio int) (int, error) {
	total := 0
	rules := []struct {
		name string
		run  func(context.Context, database.Database, int) (int, error)
	}{
		{"ejecucion-semaforo", ruleEjecucionSemaforo},
		{"saldo-presupuestal", ruleSaldoPresupuestal},
		{"adquisicion-estancada", ruleAdquisicionEstancada},
		{"contrato-estancado", ruleContratoEstancado},
		{"fraccionamiento-cantidad", ruleFraccionamientoCantidad},
		{"fraccionamiento-monto", ruleFraccionamientoMonto},
	}

	for _, rule := range rules {
		n, err := rule.run(ctx, db, anio)
		if err != nil {
			log.Printf("⚠️ Alert rule '%s' failed: %v", rule.name, err)
			continue
		}
		total += n
	}

	if total > 0 {
		log.Printf("🚨 Alert engine generated %d new alerts for year %d", total, anio)
	}
	return total, nil
}

// safeRatio returns num/den, or 0 when den is zero.
func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// ClassifyEjecucion maps an execution ratio onto the semaphore rules.
// Returns the alert type and level, or ok=false when the ratio sits in the
// green band and no alert applies.
func ClassifyEjecucion(ratio float64) (tipo, nivel string, ok bool) {
	switch {
	case ratio < SemaforoAmarilloMin:
		return "SUB_EJECUCION", "ROJO", true
	case ratio < SemaforoVerdeMin:
		return "EJECUCION_MODERADA", "AMARILLO", true
	case ratio > SobreEjecucionMax:
		return "SOBRE_EJECUCION", "ROJO", true
	default:
		return "", "", false
	}
}

func alertaExists(ctx context.Context, db database.Database, tipo string, entidadID int, entidadTipo string) (bool, error) {
	var count int
	err := db.QueryRow(ctx, `
		SELECT COUNT(*) FROM alerta
		WHERE tipo = $1 AND entidad_id = $2 AND entidad_tipo = $3 AND NOT resuelta`,
		tipo, entidadID, entidadTipo).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func insertAlerta(ctx context.Context, db database.Database, tipo, nivel, titulo, descripcion, modulo string, entidadID int, entidadTipo string, ueID *int) error {
	_, err := db.Exec(ctx, `
		INSERT INTO alerta (tipo, nivel, titulo, descripcion, ue_id, modulo, entidad_tipo, entidad_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tipo, nivel, titulo, descripcion, ueID, modulo, entidadTipo, entidadID)
	return err
}

// ruleEjecucionSemaforo covers the three execution-level rules: sub-execution
// below 70% (red), moderate 70-89% (yellow), and over-execution above 110%
// (red), aggregated per executing unit from the monthly programming rows.
func ruleEjecucionSemaforo(ctx context.Context, db database.Database, anio int) (int, error) {
	rows, err := db.Query(ctx, `
		SELECT pp.ue_id, ue.sigla,
		       COALESCE(SUM(pm.programado), 0), COALESCE(SUM(pm.ejecutado), 0)
		FROM programacion_mensual pm
		JOIN programacion_presupuestal pp ON pp.id = pm.programacion_presupuestal_id
		JOIN unidad_ejecutora ue ON ue.id = pp.ue_id
		WHERE pp.anio = $1 AND pm.mes <= EXTRACT(MONTH FROM NOW())
		GROUP BY pp.ue_id, ue.sigla`, anio)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type ueEjecucion struct {
		ueID       int
		sigla      string
		programado float64
		ejecutado  float64
	}
	var units []ueEjecucion
	for rows.Next() {
		var u ueEjecucion
		if err := rows.Scan(&u.ueID, &u.sigla, &u.programado, &u.ejecutado); err != nil {
			return 0, err
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	count := 0
	for _, u := range units {
		if u.programado == 0 {
			continue
		}
		ratio := safeRatio(u.ejecutado, u.programado)
		tipo, nivel, ok := ClassifyEjecucion(ratio)
		if !ok {
			continue
		}

		exists, err := alertaExists(ctx, db, tipo, u.ueID, "unidad_ejecutora")
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}

		titulo := fmt.Sprintf("Ejecución %.1f%%: %s", ratio*100, u.sigla)
		descripcion := fmt.Sprintf(
			"La unidad ejecutora '%s' presenta una ejecución acumulada del %.1f%% frente a lo programado al mes actual del año %d.",
			u.sigla, ratio*100, anio)
		ueID := u.ueID
		if err := insertAlerta(ctx, db, tipo, nivel, titulo, descripcion,
			"PRESUPUESTO", u.ueID, "unidad_ejecutora", &ueID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// ruleSaldoPresupuestal flags units whose available balance fell below 10% of
// PIM.
func ruleSaldoPresupuestal(ctx context.Context, db database.Database, anio int) (int, error) {
	rows, err := db.Query(ctx, `
		SELECT pp.ue_id, ue.sigla,
		       COALESCE(SUM(pp.pim), 0), COALESCE(SUM(pp.saldo), 0)
		FROM programacion_presupuestal pp
		JOIN unidad_ejecutora ue ON ue.id = pp.ue_id
		WHERE pp.anio = $1
		GROUP BY pp.ue_id, ue.sigla`, anio)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type ueSaldo struct {
		ueID  int
		sigla string
		pim   float64
		saldo float64
	}
	var units []ueSaldo
	for rows.Next() {
		var u ueSaldo
		if err := rows.Scan(&u.ueID, &u.sigla, &u.pim, &u.saldo); err != nil {
			return 0, err
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	count := 0
	for _, u := range units {
		if u.pim <= 0 || safeRatio(u.saldo, u.pim) >= SaldoMinRatio {
			continue
		}

		exists, err := alertaExists(ctx, db, "SALDO_BAJO_PRESUPUESTO", u.ueID, "unidad_ejecutora")
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}

		ratio := safeRatio(u.saldo, u.pim)
		ueID := u.ueID
		if err := insertAlerta(ctx, db, "SALDO_BAJO_PRESUPUESTO", "AMARILLO",
			fmt.Sprintf("Saldo presupuestal bajo: %s", u.sigla),
			fmt.Sprintf("La unidad ejecutora '%s' tiene un saldo disponible de S/ %.2f (%.1f%% del PIM), por debajo del umbral del %.0f%%.",
				u.sigla, u.saldo, ratio*100, SaldoMinRatio*100),
			"PRESUPUESTO", u.ueID, "unidad_ejecutora", &ueID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// stalledEntity is one contract or acquisition with its last recorded activity.
type stalledEntity struct {
	id           int
	codigo       string
	estado       string
	ueID         *int
	lastActivity time.Time
}

func scanStalled(rows pgx.Rows) ([]stalledEntity, error) {
	defer rows.Close()
	var out []stalledEntity
	for rows.Next() {
		var e stalledEntity
		if err := rows.Scan(&e.id, &e.codigo, &e.estado, &e.ueID, &e.lastActivity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ruleAdquisicionEstancada flags active acquisitions with no completed
// milestone in the last 30 days.
func ruleAdquisicionEstancada(ctx context.Context, db database.Database, anio int) (int, error) {
	rows, err := db.Query(ctx, `
		SELECT a.id, COALESCE(a.codigo, ''), COALESCE(a.estado, ''), a.ue_id,
		       COALESCE(
		           (SELECT MAX(p.fecha_fin) FROM adquisicion_proceso p
		            WHERE p.adquisicion_id = a.id AND p.completado AND p.fecha_fin IS NOT NULL),
		           a.updated_at::date
		       )::timestamptz
		FROM adquisicion a
		WHERE a.anio = $1
		  AND COALESCE(a.estado, '') NOT IN ('CULMINADO', 'DESIERTO', 'NULO')`, anio)
	if err != nil {
		return 0, err
	}
	entities, err := scanStalled(rows)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -DiasParalizadoAdquisicion)
	count := 0
	for _, e := range entities {
		if e.lastActivity.After(cutoff) {
			continue
		}
		exists, err := alertaExists(ctx, db, "ADQUISICION_ESTANCADA", e.id, "adquisicion")
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}

		dias := int(time.Since(e.lastActivity).Hours() / 24)
		if err := insertAlerta(ctx, db, "ADQUISICION_ESTANCADA", "ROJO",
			fmt.Sprintf("Adquisición estancada: %s", e.codigo),
			fmt.Sprintf("La adquisición '%s' lleva %d días sin registrar avance. Estado actual: %s.",
				e.codigo, dias, e.estado),
			"ADQUISICIONES", e.id, "adquisicion", e.ueID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// ruleContratoEstancado is the minor-contract variant of the stall rule with
// the shorter 15-day threshold.
func ruleContratoEstancado(ctx context.Context, db database.Database, anio int) (int, error) {
	rows, err := db.Query(ctx, `
		SELECT cm.id, COALESCE(cm.codigo, ''), COALESCE(cm.estado, ''), cm.ue_id,
		       COALESCE(
		           (SELECT MAX(p.fecha_fin) FROM contrato_menor_proceso p
		            WHERE p.contrato_menor_id = cm.id AND p.completado AND p.fecha_fin IS NOT NULL),
		           cm.updated_at::date
		       )::timestamptz
		FROM contrato_menor cm
		WHERE cm.anio = $1
		  AND COALESCE(cm.estado, '') NOT IN ('EJECUTADO', 'PAGADO')`, anio)
	if err != nil {
		return 0, err
	}
	entities, err := scanStalled(rows)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -DiasParalizadoContrato)
	count := 0
	for _, e := range entities {
		if e.lastActivity.After(cutoff) {
			continue
		}
		exists, err := alertaExists(ctx, db, "CONTRATO_MENOR_ESTANCADO", e.id, "contrato_menor")
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}

		dias := int(time.Since(e.lastActivity).Hours() / 24)
		if err := insertAlerta(ctx, db, "CONTRATO_MENOR_ESTANCADO", "AMARILLO",
			fmt.Sprintf("Contrato menor estancado: %s", e.codigo),
			fmt.Sprintf("El contrato menor '%s' lleva %d días sin registrar avance. Estado actual: %s.",
				e.codigo, dias, e.estado),
			"CONTRATOS_MENORES", e.id, "contrato_menor", e.ueID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// GroupEntityID builds the pseudo entity id used by the group-level
// fractionation rules, where no single contract row is the subject. The ids
// are only unique within one entity type; the monthly and quarterly rules
// store theirs under EntidadGrupoMes and EntidadGrupoTrimestre respectively.
func GroupEntityID(ueID, bucket, factor int) int {
	return ueID*factor + bucket
}

// ruleFraccionamientoCantidad detects 3 or more minor contracts in the same
// UE/category/month, a pattern of splitting purchases below the 8 UIT ceiling.
func ruleFraccionamientoCantidad(ctx context.Context, db database.Database, anio int) (int, error) {
	rows, err := db.Query(ctx, `
		SELECT cm.ue_id, ue.sigla, cm.categoria,
		       EXTRACT(MONTH FROM cm.created_at)::int, COUNT(*)
		FROM contrato_menor cm
		JOIN unidad_ejecutora ue ON ue.id = cm.ue_id
		WHERE cm.anio = $1 AND cm.categoria IS NOT NULL
		GROUP BY cm.ue_id, ue.sigla, cm.categoria, EXTRACT(MONTH FROM cm.created_at)
		HAVING COUNT(*) >= $2`, anio, FraccionamientoMaxContratosMes)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type grupo struct {
		ueID      int
		sigla     string
		categoria string
		mes       int
		cnt       int
	}
	var grupos []grupo
	for rows.Next() {
		var g grupo
		if err := rows.Scan(&g.ueID, &g.sigla, &g.categoria, &g.mes, &g.cnt); err != nil {
			return 0, err
		}
		grupos = append(grupos, g)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	count := 0
	for _, g := range grupos {
		entidadID := GroupEntityID(g.ueID, g.mes, 1000)
		exists, err := alertaExists(ctx, db, "FRACCIONAMIENTO_CANTIDAD", entidadID, EntidadGrupoMes)
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}

		ueID := g.ueID
		if err := insertAlerta(ctx, db, "FRACCIONAMIENTO_CANTIDAD", "ROJO",
			fmt.Sprintf("Posible fraccionamiento (cantidad): %s", g.sigla),
			fmt.Sprintf("La unidad ejecutora '%s' registró %d contratos menores de categoría '%s' en el mes %d del año %d (umbral: %d contratos/mes).",
				g.sigla, g.cnt, g.categoria, g.mes, anio, FraccionamientoMaxContratosMes),
			"CONTRATOS_MENORES", entidadID, EntidadGrupoMes, &ueID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// ruleFraccionamientoMonto detects an accumulated quarterly amount above
// 8 UIT for the same UE/category.
func ruleFraccionamientoMonto(ctx context.Context, db database.Database, anio int) (int, error) {
	rows, err := db.Query(ctx, `
		SELECT cm.ue_id, ue.sigla, cm.categoria,
		       CEIL(EXTRACT(MONTH FROM cm.created_at) / 3.0)::int,
		       COALESCE(SUM(cm.monto_ejecutado), 0)
		FROM contrato_menor cm
		JOIN unidad_ejecutora ue ON ue.id = cm.ue_id
		WHERE cm.anio = $1 AND cm.categoria IS NOT NULL AND cm.monto_ejecutado IS NOT NULL
		GROUP BY cm.ue_id, ue.sigla, cm.categoria, CEIL(EXTRACT(MONTH FROM cm.created_at) / 3.0)
		HAVING SUM(cm.monto_ejecutado) > $2`, anio, FraccionamientoAcumuladoTrimestre)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type grupo struct {
		ueID      int
		sigla     string
		categoria string
		trimestre int
		monto     float64
	}
	var grupos []grupo
	for rows.Next() {
		var g grupo
		if err := rows.Scan(&g.ueID, &g.sigla, &g.categoria, &g.trimestre, &g.monto); err != nil {
			return 0, err
		}
		grupos = append(grupos, g)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	count := 0
	for _, g := range grupos {
		entidadID := GroupEntityID(g.ueID, g.trimestre, 10000)
		exists, err := alertaExists(ctx, db, "FRACCIONAMIENTO_MONTO", entidadID, EntidadGrupoTrimestre)
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}

		ueID := g.ueID
		if err := insertAlerta(ctx, db, "FRACCIONAMIENTO_MONTO", "ROJO",
			fmt.Sprintf("Posible fraccionamiento (monto): %s", g.sigla),
			fmt.Sprintf("La unidad ejecutora '%s' acumuló S/ %.2f en contratos menores de categoría '%s' durante el trimestre %d del año %d, superando el umbral de S/ %d (8 UIT).",
				g.sigla, g.monto, g.categoria, g.trimestre, anio, Umbral8UIT),
			"CONTRATOS_MENORES", entidadID, EntidadGrupoTrimestre, &ueID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
