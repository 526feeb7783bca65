package seed

import (
	"context"
	"fmt"

	"dashboard-inei/database"
)

// The eight INEI headquarters executing units.
var unidadesCentrales = []struct {
	codigo string
	nombre string
	sigla  string
}{
	{"001", "Oficina Técnica de Informática", "OTIN"},
	{"002", "Dirección Ejecutiva de Censos", "DEC"},
	{"003", "Oficina Técnica de Administración", "OTA"},
	{"004", "Oficina Técnica de Planificación y Presupuesto", "OTPP"},
	{"005", "Dirección Nacional de Cuentas Económicas", "DNCE"},
	{"006", "Dirección Nacional de Censos y Padrones Poblacionales", "DNCPP"},
	{"007", "Dirección Nacional de Estadísticas Laborales", "DNEL"},
	{"008", "Dirección de Tecnologías de Información", "DTI"},
}

// SIAF expenditure classifiers used by the programming records.
var clasificadores = []struct {
	codigo       string
	descripcion  string
	tipoGenerico string
}{
	{"2.3.1.5.1.2", "Papeleria y utiles de oficina", "2.3"},
	{"2.3.2.2.2.3", "Equipos de computo y accesorios", "2.3"},
	{"2.3.2.7.11.99", "Otros bienes de tecnologia", "2.3"},
	{"2.3.1.99.1.99", "Otros bienes de consumo", "2.3"},
	{"2.3.2.7.2.99", "Software y licencias informaticas", "2.3"},
	{"2.3.2.4.1.1", "Mantenimiento de equipos de computo", "2.3"},
	{"2.3.2.8.1.1", "Servicios de comunicaciones", "2.3"},
	{"2.3.1.2.1.1", "Vestuario uniformes y prendas", "2.3"},
	{"2.3.2.4.1.99", "Mantenimiento de infraestructura", "2.3"},
	{"2.6.3.2.3.99", "Equipamiento y mobiliario", "2.6"},
	{"2.3.2.1.2.1", "Servicio de limpieza", "2.3"},
	{"2.3.2.1.2.2", "Servicio de seguridad y vigilancia", "2.3"},
	{"2.3.2.5.1.1", "Servicio de impresion y publicacion", "2.3"},
	{"2.3.2.3.1.1", "Servicio de consultoria", "2.3"},
	{"2.3.2.9.1.1", "Pasajes y gastos de transporte", "2.3"},
	{"2.3.2.9.2.1", "Viaticos y asignaciones", "2.3"},
	{"2.3.1.3.1.1", "Combustibles y carburantes", "2.3"},
	{"2.3.1.1.1.1", "Alimentos y bebidas para consumo", "2.3"},
}

// Catalog seeds the master data the dashboard cannot run without: central
// executing units, the SIAF classifier catalog, and one budget meta per unit
// for the given fiscal year. Each block is independently guarded so the step
// tolerates partially seeded databases (e.g. after an Excel import).
func Catalog(ctx context.Context, db database.Database, year int) (Result, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return AlreadySeeded, fmt.Errorf("begin catalog seed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	applied := false

	var ueCount int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM unidad_ejecutora").Scan(&ueCount); err != nil {
		return AlreadySeeded, fmt.Errorf("count unidad_ejecutora: %w", err)
	}
	if ueCount == 0 {
		for _, ue := range unidadesCentrales {
			if _, err := tx.Exec(ctx, `
				INSERT INTO unidad_ejecutora (codigo, nombre, sigla, tipo, activo)
				VALUES ($1, $2, $3, 'CENTRAL', true)
				ON CONFLICT (codigo) DO NOTHING`,
				ue.codigo, ue.nombre, ue.sigla); err != nil {
				return AlreadySeeded, fmt.Errorf("insert unidad_ejecutora %s: %w", ue.sigla, err)
			}
		}
		applied = true
	}

	var clasifCount int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM clasificador_gasto").Scan(&clasifCount); err != nil {
		return AlreadySeeded, fmt.Errorf("count clasificador_gasto: %w", err)
	}
	if clasifCount == 0 {
		for _, c := range clasificadores {
			if _, err := tx.Exec(ctx, `
				INSERT INTO clasificador_gasto (codigo, descripcion, tipo_generico)
				VALUES ($1, $2, $3)
				ON CONFLICT (codigo) DO NOTHING`,
				c.codigo, c.descripcion, c.tipoGenerico); err != nil {
				return AlreadySeeded, fmt.Errorf("insert clasificador %s: %w", c.codigo, err)
			}
		}
		applied = true
	}

	var metaCount int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM meta_presupuestal WHERE anio = $1", year).Scan(&metaCount); err != nil {
		return AlreadySeeded, fmt.Errorf("count meta_presupuestal: %w", err)
	}
	if metaCount == 0 {
		// One meta per unit, coded "<yy><ue id zero-padded>", e.g. "260001"
		if _, err := tx.Exec(ctx, `
			INSERT INTO meta_presupuestal (codigo, descripcion, ue_id, anio, activo)
			SELECT $1 || LPAD(ue.id::text, 4, '0'),
			       'Meta Presupuestal ' || $2 || ' - ' || ue.nombre,
			       ue.id, $3, true
			FROM unidad_ejecutora ue
			WHERE ue.activo`,
			fmt.Sprintf("%02d", year%100), fmt.Sprint(year), year); err != nil {
			return AlreadySeeded, fmt.Errorf("insert metas %d: %w", year, err)
		}
		applied = true
	}

	if err := tx.Commit(ctx); err != nil {
		return AlreadySeeded, fmt.Errorf("commit catalog seed: %w", err)
	}

	if !applied {
		return AlreadySeeded, nil
	}
	return Applied, nil
}
