package seed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/jackc/pgx/v5"

	"dashboard-inei/database"
)

// budgetYear is the historical fiscal year backfilled by this step.
const budgetYear = 2025

// mesPesos is the monthly execution weight profile: slow start, acceleration
// from March, second-semester plateau, December close. The weights sum to 1.0.
var mesPesos = [12]float64{0.04, 0.06, 0.08, 0.09, 0.10, 0.10, 0.10, 0.10, 0.09, 0.10, 0.08, 0.06}

// The 25 regional statistical offices.
var odeis = []struct {
	codigo string
	nombre string
	sigla  string
}{
	{"O-AMA", "ODEI Amazonas", "ODEI-AMA"},
	{"O-ANC", "ODEI Ancash", "ODEI-ANC"},
	{"O-APU", "ODEI Apurimac", "ODEI-APU"},
	{"O-ARE", "ODEI Arequipa", "ODEI-ARE"},
	{"O-AYA", "ODEI Ayacucho", "ODEI-AYA"},
	{"O-CAJ", "ODEI Cajamarca", "ODEI-CAJ"},
	{"O-CAL", "ODEI Callao", "ODEI-CAL"},
	{"O-CUS", "ODEI Cusco", "ODEI-CUS"},
	{"O-HVC", "ODEI Huancavelica", "ODEI-HVC"},
	{"O-HUC", "ODEI Huanuco", "ODEI-HUC"},
	{"O-ICA", "ODEI Ica", "ODEI-ICA"},
	{"O-JUN", "ODEI Junin", "ODEI-JUN"},
	{"O-LAL", "ODEI La Libertad", "ODEI-LAL"},
	{"O-LAM", "ODEI Lambayeque", "ODEI-LAM"},
	{"O-LIM", "ODEI Lima", "ODEI-LIM"},
	{"O-LOR", "ODEI Loreto", "ODEI-LOR"},
	{"O-MAD", "ODEI Madre de Dios", "ODEI-MAD"},
	{"O-MOQ", "ODEI Moquegua", "ODEI-MOQ"},
	{"O-PAS", "ODEI Pasco", "ODEI-PAS"},
	{"O-PIU", "ODEI Piura", "ODEI-PIU"},
	{"O-PUN", "ODEI Puno", "ODEI-PUN"},
	{"O-SAM", "ODEI San Martin", "ODEI-SAM"},
	{"O-TAC", "ODEI Tacna", "ODEI-TAC"},
	{"O-TUM", "ODEI Tumbes", "ODEI-TUM"},
	{"O-UCA", "ODEI Ucayali", "ODEI-UCA"},
}

// PIM 2025 per unit, in soles.
var pimPorSigla = map[string]int64{
	"OTIN": 18_200_000, "DEC": 22_500_000, "OTA": 8_100_000, "OTPP": 6_300_000,
	"DNCPP": 4_800_000, "DNCE": 5_200_000, "DNEL": 3_900_000, "DTI": 4_100_000,
	"ODEI-ARE": 5_200_000, "ODEI-LAL": 4_800_000, "ODEI-PIU": 4_500_000,
	"ODEI-CUS": 4_200_000, "ODEI-JUN": 4_000_000, "ODEI-LAM": 3_800_000,
	"ODEI-CAJ": 3_500_000, "ODEI-LIM": 3_500_000, "ODEI-ANC": 3_300_000,
	"ODEI-PUN": 3_200_000, "ODEI-ICA": 3_100_000, "ODEI-SAM": 3_000_000,
	"ODEI-AYA": 2_900_000, "ODEI-LOR": 2_800_000, "ODEI-UCA": 2_200_000,
	"ODEI-CAL": 2_300_000, "ODEI-HUC": 2_100_000, "ODEI-TAC": 1_800_000,
	"ODEI-AMA": 1_800_000, "ODEI-APU": 1_900_000, "ODEI-HVC": 1_700_000,
	"ODEI-MOQ": 1_600_000, "ODEI-PAS": 1_500_000, "ODEI-TUM": 1_400_000,
	"ODEI-MAD": 1_500_000,
}

// Final 2025 execution rate per unit (% of PIM).
var ejecucionPctPorSigla = map[string]float64{
	"OTIN": 97.2, "DEC": 94.8, "OTA": 91.5, "OTPP": 88.3,
	"DNCPP": 95.1, "DNCE": 86.7, "DNEL": 82.4, "DTI": 90.6,
	"ODEI-ARE": 96.4, "ODEI-LAL": 93.2, "ODEI-PIU": 89.8, "ODEI-CUS": 94.7,
	"ODEI-JUN": 88.5, "ODEI-LAM": 91.3, "ODEI-CAJ": 84.6, "ODEI-LIM": 87.9,
	"ODEI-ANC": 92.1, "ODEI-PUN": 85.3, "ODEI-ICA": 93.6, "ODEI-SAM": 86.2,
	"ODEI-AYA": 79.4, "ODEI-LOR": 83.7, "ODEI-UCA": 88.1, "ODEI-CAL": 90.5,
	"ODEI-HUC": 81.9, "ODEI-TAC": 94.2, "ODEI-AMA": 76.3, "ODEI-APU": 78.8,
	"ODEI-HVC": 72.5, "ODEI-MOQ": 95.8, "ODEI-PAS": 74.1, "ODEI-TUM": 91.7,
	"ODEI-MAD": 80.2,
}

// allocation assigns a share of a unit's PIM to one expense classifier.
// The shares of each group sum to 1.0.
type allocation struct {
	clasificador string
	share        float64
}

var clasifsOTIN = []allocation{
	{"2.3.2.2.2.3", 0.38},   // equipos de computo
	{"2.3.2.7.2.99", 0.25},  // software y licencias
	{"2.3.2.7.11.99", 0.15}, // otros bienes TI
	{"2.3.2.4.1.1", 0.12},   // mantenimiento equipos
	{"2.3.2.8.1.1", 0.07},   // comunicaciones
	{"2.3.1.5.1.2", 0.03},   // papeleria
}

var clasifsEstadistica = []allocation{
	{"2.3.1.1.1.1", 0.20}, // alimentos para encuestadores
	{"2.3.2.9.1.1", 0.25}, // pasajes
	{"2.3.2.9.2.1", 0.20}, // viaticos
	{"2.3.2.5.1.1", 0.15}, // impresion y publicacion
	{"2.3.2.3.1.1", 0.20}, // consultoria
}

var clasifsOrganizacion = []allocation{
	{"2.3.2.3.1.1", 0.30},
	{"2.3.1.5.1.2", 0.15},
	{"2.3.2.5.1.1", 0.25},
	{"2.3.2.9.2.1", 0.30},
}

var clasifsDTI = []allocation{
	{"2.6.3.2.3.99", 0.40},
	{"2.3.2.4.1.99", 0.25},
	{"2.3.2.2.2.3", 0.20},
	{"2.3.2.8.1.1", 0.10},
	{"2.3.1.5.1.2", 0.05},
}

var clasifsODEI = []allocation{
	{"2.3.2.9.1.1", 0.28}, // pasajes
	{"2.3.2.9.2.1", 0.27}, // viaticos
	{"2.3.1.3.1.1", 0.20}, // combustibles
	{"2.3.2.1.2.1", 0.15}, // limpieza
	{"2.3.2.1.2.2", 0.10}, // vigilancia
}

var clasifsPorSigla = map[string][]allocation{
	"OTIN":  clasifsOTIN,
	"DEC":   clasifsEstadistica,
	"DNCE":  clasifsEstadistica,
	"DNEL":  clasifsEstadistica,
	"DNCPP": clasifsEstadistica,
	"OTA":   clasifsOrganizacion,
	"OTPP":  clasifsOrganizacion,
	"DTI":   clasifsDTI,
}

// allocationsFor selects the classifier mix for a unit: every regional office
// shares one structure, headquarters offices have dedicated mixes.
func allocationsFor(sigla string) []allocation {
	if len(sigla) > 5 && sigla[:5] == "ODEI-" {
		return clasifsODEI
	}
	if a, ok := clasifsPorSigla[sigla]; ok {
		return a
	}
	return clasifsEstadistica
}

// amounts holds the annual budget chain for one programming record, in
// centimos to keep arithmetic exact.
type amounts struct {
	pia             int64
	pim             int64
	certificado     int64
	compromisoAnual int64
	devengado       int64
	girado          int64
	saldo           int64
}

// cents rounds a soles amount to centimos (half away from zero).
func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// soles converts centimos back to a float accepted by NUMERIC(15,2) columns.
func soles(c int64) float64 {
	return float64(c) / 100
}

// computeAmounts derives the PIA/PIM/certificado/compromiso/devengado/girado
// chain for one classifier share of a unit's budget. Certificado and
// compromiso run slightly ahead of devengado, girado slightly behind, and
// saldo is the unexecuted remainder of the PIM.
func computeAmounts(pimSoles int64, pctEjecucion, share float64) amounts {
	pimClasif := float64(pimSoles) * share
	devengado := pimClasif * (pctEjecucion / 100.0)

	return amounts{
		pia:             cents(pimClasif * 0.97),
		pim:             cents(pimClasif),
		certificado:     cents(devengado * 1.02),
		compromisoAnual: cents(devengado * 1.01),
		devengado:       cents(devengado),
		girado:          cents(devengado * 0.98),
		saldo:           cents(pimClasif) - cents(devengado),
	}
}

// monthlyRow is one month of planned vs executed expenditure, in centimos.
type monthlyRow struct {
	programado int64
	ejecutado  int64
	saldo      int64
}

// monthlyDistribution spreads an annual devengado across the 12 months using
// the mesPesos profile. December absorbs the rounding remainder so that the
// monthly rows sum exactly to the annual total; programado is uniform.
func monthlyDistribution(pimCents, devengadoCents int64) [12]monthlyRow {
	programado := cents(soles(pimCents) / 12.0)

	var rows [12]monthlyRow
	var acumulado int64
	for i, peso := range mesPesos {
		var ejecutado int64
		if i == 11 {
			ejecutado = devengadoCents - acumulado
		} else {
			ejecutado = cents(soles(devengadoCents) * peso)
		}
		acumulado += ejecutado
		rows[i] = monthlyRow{
			programado: programado,
			ejecutado:  ejecutado,
			saldo:      programado - ejecutado,
		}
	}
	return rows
}

// fundingSource labels each programming record: headquarters always run on
// ordinary resources, regional offices book every fifth record against
// directly collected revenue.
func fundingSource(sigla string, idx int) string {
	if len(sigla) > 5 && sigla[:5] == "ODEI-" && idx%5 == 4 {
		return "Recursos Directamente Recaudados"
	}
	return "Recursos Ordinarios"
}

// Budget2025 backfills the complete 2025 fiscal year: regional offices,
// classifier catalog gaps, one meta per unit, and the full programming
// records with monthly breakdowns. Idempotence guard: any existing 2025
// programming record means the year is already loaded.
func Budget2025(ctx context.Context, db database.Database) (Result, error) {
	var existing int
	if err := db.QueryRow(ctx,
		"SELECT COUNT(*) FROM programacion_presupuestal WHERE anio = $1", budgetYear).Scan(&existing); err != nil {
		return AlreadySeeded, fmt.Errorf("count programacion_presupuestal %d: %w", budgetYear, err)
	}
	if existing > 0 {
		return AlreadySeeded, nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return AlreadySeeded, fmt.Errorf("begin budget seed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Regional offices and classifiers may partially exist from the catalog
	// step or an Excel import; fill the gaps only.
	for _, o := range odeis {
		if _, err := tx.Exec(ctx, `
			INSERT INTO unidad_ejecutora (codigo, nombre, sigla, tipo, activo)
			VALUES ($1, $2, $3, 'ODEI', true)
			ON CONFLICT (codigo) DO NOTHING`,
			o.codigo, o.nombre, o.sigla); err != nil {
			return AlreadySeeded, fmt.Errorf("insert ODEI %s: %w", o.sigla, err)
		}
	}
	for _, c := range clasificadores {
		if _, err := tx.Exec(ctx, `
			INSERT INTO clasificador_gasto (codigo, descripcion, tipo_generico)
			VALUES ($1, $2, $3)
			ON CONFLICT (codigo) DO NOTHING`,
			c.codigo, c.descripcion, c.tipoGenerico); err != nil {
			return AlreadySeeded, fmt.Errorf("insert clasificador %s: %w", c.codigo, err)
		}
	}

	ueIDs, err := loadIDsBy(ctx, tx, "SELECT sigla, id FROM unidad_ejecutora")
	if err != nil {
		return AlreadySeeded, fmt.Errorf("load unidades: %w", err)
	}
	clasifIDs, err := loadIDsBy(ctx, tx, "SELECT codigo, id FROM clasificador_gasto")
	if err != nil {
		return AlreadySeeded, fmt.Errorf("load clasificadores: %w", err)
	}

	// Deterministic order so re-runs against a partially failed transaction
	// produce identical codes.
	siglas := make([]string, 0, len(pimPorSigla))
	for sigla := range pimPorSigla {
		siglas = append(siglas, sigla)
	}
	sort.Strings(siglas)

	for _, sigla := range siglas {
		ueID, ok := ueIDs[sigla]
		if !ok {
			continue // unit not present in this environment
		}

		var metaID int
		err := tx.QueryRow(ctx,
			"SELECT id FROM meta_presupuestal WHERE ue_id = $1 AND anio = $2 LIMIT 1",
			ueID, budgetYear).Scan(&metaID)
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.QueryRow(ctx, `
				INSERT INTO meta_presupuestal (codigo, descripcion, ue_id, anio, activo)
				SELECT $1, 'Meta Presupuestal ' || $2 || ' - ' || nombre, $3, $4, true
				FROM unidad_ejecutora WHERE id = $3
				RETURNING id`,
				fmt.Sprintf("25%04d", ueID), fmt.Sprint(budgetYear), ueID, budgetYear).Scan(&metaID)
			if err != nil {
				return AlreadySeeded, fmt.Errorf("create meta %d for %s: %w", budgetYear, sigla, err)
			}
		} else if err != nil {
			return AlreadySeeded, fmt.Errorf("look up meta %d for %s: %w", budgetYear, sigla, err)
		}

		pim := pimPorSigla[sigla]
		pctEjecucion, ok := ejecucionPctPorSigla[sigla]
		if !ok {
			pctEjecucion = 85.0
		}

		for idx, alloc := range allocationsFor(sigla) {
			clasifID, ok := clasifIDs[alloc.clasificador]
			if !ok {
				return AlreadySeeded, fmt.Errorf("classifier %s missing for %s", alloc.clasificador, sigla)
			}

			m := computeAmounts(pim, pctEjecucion, alloc.share)

			var ppID int
			err := tx.QueryRow(ctx, `
				INSERT INTO programacion_presupuestal
					(anio, ue_id, meta_id, clasificador_id, pia, pim, certificado,
					 compromiso_anual, devengado, girado, saldo, fuente_financiamiento)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				RETURNING id`,
				budgetYear, ueID, metaID, clasifID,
				soles(m.pia), soles(m.pim), soles(m.certificado),
				soles(m.compromisoAnual), soles(m.devengado), soles(m.girado),
				soles(m.saldo), fundingSource(sigla, idx)).Scan(&ppID)
			if err != nil {
				return AlreadySeeded, fmt.Errorf("insert programacion for %s/%s: %w", sigla, alloc.clasificador, err)
			}

			for mes, row := range monthlyDistribution(m.pim, m.devengado) {
				if _, err := tx.Exec(ctx, `
					INSERT INTO programacion_mensual
						(programacion_presupuestal_id, mes, programado, ejecutado, saldo)
					VALUES ($1, $2, $3, $4, $5)`,
					ppID, mes+1, soles(row.programado), soles(row.ejecutado), soles(row.saldo)); err != nil {
					return AlreadySeeded, fmt.Errorf("insert mes %d for %s: %w", mes+1, sigla, err)
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return AlreadySeeded, fmt.Errorf("commit budget seed: %w", err)
	}
	return Applied, nil
}

// loadIDsBy runs a two-column (key, id) query into a map.
func loadIDsBy(ctx context.Context, tx pgx.Tx, query string) (map[string]int, error) {
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int)
	for rows.Next() {
		var key string
		var id int
		if err := rows.Scan(&key, &id); err != nil {
			return nil, err
		}
		ids[key] = id
	}
	return ids, rows.Err()
}
