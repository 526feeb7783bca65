package handlers

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"dashboard-inei/database"
	"dashboard-inei/metrics"
	"dashboard-inei/services"
	"dashboard-inei/utils"
)

// AlertasHandler serves the semaphore alert feed on the dashboard home.
type AlertasHandler struct {
	db database.Database
}

// NewAlertasHandler creates a new alert handler
func NewAlertasHandler(db database.Database) *AlertasHandler {
	return &AlertasHandler{db: db}
}

// Alerta is one alert row.
type Alerta struct {
	ID              int     `json:"id"`
	Tipo            string  `json:"tipo"`
	Nivel           string  `json:"nivel"`
	Titulo          string  `json:"titulo"`
	Descripcion     string  `json:"descripcion"`
	UeID            *int    `json:"ue_id"`
	Modulo          string  `json:"modulo"`
	Leida           bool    `json:"leida"`
	Resuelta        bool    `json:"resuelta"`
	FechaGeneracion string  `json:"fecha_generacion"`
}

// List returns alerts newest first. Filters: nivel (ROJO/AMARILLO/VERDE),
// leida (true/false), ue_id, limit (default 50, max 200).
func (h *AlertasHandler) List(c *fiber.Ctx) error {
	query := `
		SELECT id, tipo, nivel, titulo, COALESCE(descripcion, ''), ue_id,
		       COALESCE(modulo, ''), leida, resuelta, fecha_generacion
		FROM alerta WHERE 1=1`
	args := []interface{}{}

	if nivel := c.Query("nivel"); nivel != "" {
		args = append(args, nivel)
		query += " AND nivel = $" + strconv.Itoa(len(args))
	}
	if leida := c.Query("leida"); leida != "" {
		args = append(args, leida == "true")
		query += " AND leida = $" + strconv.Itoa(len(args))
	}
	if ueID := c.Query("ue_id"); ueID != "" {
		id, err := strconv.Atoi(ueID)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "ue_id must be an integer"})
		}
		args = append(args, id)
		query += " AND ue_id = $" + strconv.Itoa(len(args))
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.Status(400).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		if n > 200 {
			n = 200
		}
		limit = n
	}
	args = append(args, limit)
	query += " ORDER BY fecha_generacion DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := h.db.Query(c.Context(), query, args...)
	if err != nil {
		utils.LogRequestError(c, "ALERTA_LIST", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	defer rows.Close()

	alertas := make([]Alerta, 0)
	for rows.Next() {
		var (
			a     Alerta
			ueID  sql.NullInt32
			fecha time.Time
		)
		if err := rows.Scan(&a.ID, &a.Tipo, &a.Nivel, &a.Titulo, &a.Descripcion,
			&ueID, &a.Modulo, &a.Leida, &a.Resuelta, &fecha); err != nil {
			utils.LogRequestError(c, "ALERTA_SCAN", err)
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		if ueID.Valid {
			v := int(ueID.Int32)
			a.UeID = &v
		}
		a.FechaGeneracion = fecha.Format(time.RFC3339)
		alertas = append(alertas, a)
	}
	if err := rows.Err(); err != nil {
		utils.LogRequestError(c, "ALERTA_ROWS", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(alertas)
}

// Resumen returns the alert counts per level plus the unread total, the
// numbers behind the semaphore badges in the header.
func (h *AlertasHandler) Resumen(c *fiber.Ctx) error {
	var rojas, amarillas, verdes, sinLeer int
	err := h.db.QueryRow(c.Context(), `
		SELECT COUNT(*) FILTER (WHERE nivel = 'ROJO' AND NOT resuelta),
		       COUNT(*) FILTER (WHERE nivel = 'AMARILLO' AND NOT resuelta),
		       COUNT(*) FILTER (WHERE nivel = 'VERDE' AND NOT resuelta),
		       COUNT(*) FILTER (WHERE NOT leida)
		FROM alerta`).Scan(&rojas, &amarillas, &verdes, &sinLeer)
	if err != nil {
		utils.LogRequestError(c, "ALERTA_RESUMEN", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	metrics.UpdateAlertasSinLeer(sinLeer)

	return c.JSON(fiber.Map{
		"rojas":     rojas,
		"amarillas": amarillas,
		"verdes":    verdes,
		"sin_leer":  sinLeer,
	})
}

// MarkRead marks one alert as read.
func (h *AlertasHandler) MarkRead(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "id must be an integer"})
	}

	tag, err := h.db.Exec(c.Context(), "UPDATE alerta SET leida = true WHERE id = $1", id)
	if err != nil {
		utils.LogRequestError(c, "ALERTA_MARK_READ", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	if tag.RowsAffected() == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "Alert not found"})
	}
	return c.JSON(fiber.Map{"message": "Alert marked as read"})
}

// Generar runs the alert engine for the requested fiscal year (anio,
// defaulting to the current year) and reports how many alerts it produced.
func (h *AlertasHandler) Generar(c *fiber.Ctx) error {
	anio := time.Now().Year()
	if raw := c.Query("anio"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "anio must be an integer"})
		}
		anio = n
	}

	generadas, err := services.GenerarAlertas(c.Context(), h.db, anio)
	if err != nil {
		utils.LogRequestError(c, "ALERTA_GENERAR", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(fiber.Map{
		"anio":      anio,
		"generadas": generadas,
	})
}

// MarkResolved marks one alert as resolved (and read).
func (h *AlertasHandler) MarkResolved(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "id must be an integer"})
	}

	tag, err := h.db.Exec(c.Context(),
		"UPDATE alerta SET resuelta = true, leida = true WHERE id = $1", id)
	if err != nil {
		utils.LogRequestError(c, "ALERTA_MARK_RESOLVED", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	if tag.RowsAffected() == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "Alert not found"})
	}
	return c.JSON(fiber.Map{"message": "Alert resolved"})
}
