package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"dashboard-inei/database"
	"dashboard-inei/utils"
)

// PresupuestoHandler serves the budget execution queries behind the
// dashboard home: KPI cards, the per-unit execution chart, and the monthly
// devengado curve.
type PresupuestoHandler struct {
	db database.Database
}

// NewPresupuestoHandler creates a new budget handler
func NewPresupuestoHandler(db database.Database) *PresupuestoHandler {
	return &PresupuestoHandler{db: db}
}

// KPIResponse aggregates the budget chain for the selected year/unit.
// AvanceEjecucion is devengado as a percentage of PIM.
type KPIResponse struct {
	Anio            int     `json:"anio"`
	PIA             float64 `json:"pia"`
	PIM             float64 `json:"pim"`
	Certificado     float64 `json:"certificado"`
	CompromisoAnual float64 `json:"compromiso_anual"`
	Devengado       float64 `json:"devengado"`
	Girado          float64 `json:"girado"`
	Saldo           float64 `json:"saldo"`
	AvanceEjecucion float64 `json:"avance_ejecucion"`
}

// parseScope reads the anio (required) and ue_id (optional) filters shared
// by every budget endpoint.
func parseScope(c *fiber.Ctx) (anio int, ueID *int, err error) {
	anio, err = strconv.Atoi(c.Query("anio"))
	if err != nil {
		return 0, nil, fiber.NewError(fiber.StatusBadRequest, "anio query parameter is required")
	}
	if raw := c.Query("ue_id"); raw != "" {
		id, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return 0, nil, fiber.NewError(fiber.StatusBadRequest, "ue_id must be an integer")
		}
		ueID = &id
	}
	return anio, ueID, nil
}

// KPIs returns the aggregated budget chain for one fiscal year, optionally
// scoped to a single executing unit.
func (h *PresupuestoHandler) KPIs(c *fiber.Ctx) error {
	anio, ueID, err := parseScope(c)
	if err != nil {
		return err
	}

	query := `
		SELECT COALESCE(SUM(pia), 0), COALESCE(SUM(pim), 0),
		       COALESCE(SUM(certificado), 0), COALESCE(SUM(compromiso_anual), 0),
		       COALESCE(SUM(devengado), 0), COALESCE(SUM(girado), 0),
		       COALESCE(SUM(saldo), 0)
		FROM programacion_presupuestal WHERE anio = $1`
	args := []interface{}{anio}
	if ueID != nil {
		args = append(args, *ueID)
		query += " AND ue_id = $2"
	}

	var resp KPIResponse
	resp.Anio = anio
	if err := h.db.QueryRow(c.Context(), query, args...).Scan(
		&resp.PIA, &resp.PIM, &resp.Certificado, &resp.CompromisoAnual,
		&resp.Devengado, &resp.Girado, &resp.Saldo); err != nil {
		utils.LogRequestError(c, "KPI_QUERY", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	if resp.PIM > 0 {
		resp.AvanceEjecucion = resp.Devengado / resp.PIM * 100
	}
	return c.JSON(resp)
}

// EjecucionUE is one bar of the per-unit execution chart.
type EjecucionUE struct {
	UeID      int     `json:"ue_id"`
	Sigla     string  `json:"sigla"`
	Nombre    string  `json:"nombre"`
	PIM       float64 `json:"pim"`
	Devengado float64 `json:"devengado"`
	Avance    float64 `json:"avance"`
}

// GraficoEjecucion returns PIM vs devengado per executing unit, ordered by
// descending PIM so the chart reads largest budget first.
func (h *PresupuestoHandler) GraficoEjecucion(c *fiber.Ctx) error {
	anio, _, err := parseScope(c)
	if err != nil {
		return err
	}

	query := `
		SELECT ue.id, ue.sigla, ue.nombre,
		       COALESCE(SUM(pp.pim), 0) AS pim,
		       COALESCE(SUM(pp.devengado), 0) AS devengado
		FROM programacion_presupuestal pp
		JOIN unidad_ejecutora ue ON ue.id = pp.ue_id
		WHERE pp.anio = $1`
	args := []interface{}{anio}
	if tipo := c.Query("tipo"); tipo != "" {
		args = append(args, tipo)
		query += " AND ue.tipo = $2"
	}
	query += `
		GROUP BY ue.id, ue.sigla, ue.nombre
		ORDER BY pim DESC`

	rows, err := h.db.Query(c.Context(), query, args...)
	if err != nil {
		utils.LogRequestError(c, "GRAFICO_EJECUCION", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	defer rows.Close()

	series := make([]EjecucionUE, 0)
	for rows.Next() {
		var e EjecucionUE
		if err := rows.Scan(&e.UeID, &e.Sigla, &e.Nombre, &e.PIM, &e.Devengado); err != nil {
			utils.LogRequestError(c, "GRAFICO_EJECUCION_SCAN", err)
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		if e.PIM > 0 {
			e.Avance = e.Devengado / e.PIM * 100
		}
		series = append(series, e)
	}
	if err := rows.Err(); err != nil {
		utils.LogRequestError(c, "GRAFICO_EJECUCION_ROWS", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(series)
}

// DevengadoMensual is one month of the execution curve.
type DevengadoMensual struct {
	Mes        int     `json:"mes"`
	Programado float64 `json:"programado"`
	Ejecutado  float64 `json:"ejecutado"`
	Acumulado  float64 `json:"acumulado"`
}

// GraficoDevengadoMensual returns the month-by-month planned vs executed
// curve, with a running accumulated total.
func (h *PresupuestoHandler) GraficoDevengadoMensual(c *fiber.Ctx) error {
	anio, ueID, err := parseScope(c)
	if err != nil {
		return err
	}

	query := `
		SELECT pm.mes,
		       COALESCE(SUM(pm.programado), 0),
		       COALESCE(SUM(pm.ejecutado), 0)
		FROM programacion_mensual pm
		JOIN programacion_presupuestal pp ON pp.id = pm.programacion_presupuestal_id
		WHERE pp.anio = $1`
	args := []interface{}{anio}
	if ueID != nil {
		args = append(args, *ueID)
		query += " AND pp.ue_id = $2"
	}
	query += " GROUP BY pm.mes ORDER BY pm.mes"

	rows, err := h.db.Query(c.Context(), query, args...)
	if err != nil {
		utils.LogRequestError(c, "DEVENGADO_MENSUAL", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	defer rows.Close()

	var acumulado float64
	meses := make([]DevengadoMensual, 0, 12)
	for rows.Next() {
		var m DevengadoMensual
		if err := rows.Scan(&m.Mes, &m.Programado, &m.Ejecutado); err != nil {
			utils.LogRequestError(c, "DEVENGADO_MENSUAL_SCAN", err)
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		acumulado += m.Ejecutado
		m.Acumulado = acumulado
		meses = append(meses, m)
	}
	if err := rows.Err(); err != nil {
		utils.LogRequestError(c, "DEVENGADO_MENSUAL_ROWS", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(meses)
}

// EjecucionClasificador is one row of the classifier breakdown table.
type EjecucionClasificador struct {
	Codigo      string  `json:"codigo"`
	Descripcion string  `json:"descripcion"`
	PIM         float64 `json:"pim"`
	Devengado   float64 `json:"devengado"`
	Saldo       float64 `json:"saldo"`
	Avance      float64 `json:"avance"`
}

// EjecucionPorClasificador breaks the year's execution down by expense
// classifier, the drill-down table below the charts.
func (h *PresupuestoHandler) EjecucionPorClasificador(c *fiber.Ctx) error {
	anio, ueID, err := parseScope(c)
	if err != nil {
		return err
	}

	query := `
		SELECT cg.codigo, cg.descripcion,
		       COALESCE(SUM(pp.pim), 0) AS pim,
		       COALESCE(SUM(pp.devengado), 0),
		       COALESCE(SUM(pp.saldo), 0)
		FROM programacion_presupuestal pp
		JOIN clasificador_gasto cg ON cg.id = pp.clasificador_id
		WHERE pp.anio = $1`
	args := []interface{}{anio}
	if ueID != nil {
		args = append(args, *ueID)
		query += " AND pp.ue_id = $2"
	}
	query += " GROUP BY cg.codigo, cg.descripcion ORDER BY pim DESC"

	rows, err := h.db.Query(c.Context(), query, args...)
	if err != nil {
		utils.LogRequestError(c, "EJECUCION_CLASIF", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	defer rows.Close()

	filas := make([]EjecucionClasificador, 0)
	for rows.Next() {
		var f EjecucionClasificador
		if err := rows.Scan(&f.Codigo, &f.Descripcion, &f.PIM, &f.Devengado, &f.Saldo); err != nil {
			utils.LogRequestError(c, "EJECUCION_CLASIF_SCAN", err)
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		if f.PIM > 0 {
			f.Avance = f.Devengado / f.PIM * 100
		}
		filas = append(filas, f)
	}
	if err := rows.Err(); err != nil {
		utils.LogRequestError(c, "EJECUCION_CLASIF_ROWS", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(filas)
}
