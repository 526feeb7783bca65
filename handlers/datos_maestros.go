package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"dashboard-inei/database"
	"dashboard-inei/utils"
)

// DatosMaestrosHandler serves the master data catalogs: executing units,
// expense classifiers, budget metas, and the supplier registry.
type DatosMaestrosHandler struct {
	db database.Database
}

// NewDatosMaestrosHandler creates a new master data handler
func NewDatosMaestrosHandler(db database.Database) *DatosMaestrosHandler {
	return &DatosMaestrosHandler{db: db}
}

// UnidadEjecutora is one executing unit row.
type UnidadEjecutora struct {
	ID     int    `json:"id"`
	Codigo string `json:"codigo"`
	Nombre string `json:"nombre"`
	Sigla  string `json:"sigla"`
	Tipo   string `json:"tipo"`
	Activo bool   `json:"activo"`
}

// UnidadesEjecutoras lists executing units, optionally filtered by tipo
// (CENTRAL or ODEI). Inactive units are excluded unless incluir_inactivas=true.
func (h *DatosMaestrosHandler) UnidadesEjecutoras(c *fiber.Ctx) error {
	query := `
		SELECT id, codigo, nombre, sigla, COALESCE(tipo, ''), activo
		FROM unidad_ejecutora WHERE 1=1`
	args := []interface{}{}

	if tipo := c.Query("tipo"); tipo != "" {
		args = append(args, tipo)
		query += " AND tipo = $" + strconv.Itoa(len(args))
	}
	if c.Query("incluir_inactivas") != "true" {
		query += " AND activo"
	}
	query += " ORDER BY codigo"

	rows, err := h.db.Query(c.Context(), query, args...)
	if err != nil {
		utils.LogRequestError(c, "UE_LIST", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	defer rows.Close()

	unidades := make([]UnidadEjecutora, 0)
	for rows.Next() {
		var ue UnidadEjecutora
		if err := rows.Scan(&ue.ID, &ue.Codigo, &ue.Nombre, &ue.Sigla, &ue.Tipo, &ue.Activo); err != nil {
			utils.LogRequestError(c, "UE_SCAN", err)
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		unidades = append(unidades, ue)
	}
	if err := rows.Err(); err != nil {
		utils.LogRequestError(c, "UE_ROWS", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(unidades)
}

// Clasificador is one SIAF expense classifier row.
type Clasificador struct {
	ID           int    `json:"id"`
	Codigo       string `json:"codigo"`
	Descripcion  string `json:"descripcion"`
	TipoGenerico string `json:"tipo_generico"`
}

// Clasificadores lists the SIAF classifier catalog, optionally filtered by
// generic type prefix (e.g. "2.3").
func (h *DatosMaestrosHandler) Clasificadores(c *fiber.Ctx) error {
	query := `
		SELECT id, codigo, descripcion, COALESCE(tipo_generico, '')
		FROM clasificador_gasto`
	args := []interface{}{}

	if tipo := c.Query("tipo_generico"); tipo != "" {
		args = append(args, tipo)
		query += " WHERE tipo_generico = $1"
	}
	query += " ORDER BY codigo"

	rows, err := h.db.Query(c.Context(), query, args...)
	if err != nil {
		utils.LogRequestError(c, "CLASIF_LIST", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	defer rows.Close()

	clasifs := make([]Clasificador, 0)
	for rows.Next() {
		var cl Clasificador
		if err := rows.Scan(&cl.ID, &cl.Codigo, &cl.Descripcion, &cl.TipoGenerico); err != nil {
			utils.LogRequestError(c, "CLASIF_SCAN", err)
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		clasifs = append(clasifs, cl)
	}
	if err := rows.Err(); err != nil {
		utils.LogRequestError(c, "CLASIF_ROWS", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(clasifs)
}

// Meta is one budget meta row with its owning unit.
type Meta struct {
	ID          int    `json:"id"`
	Codigo      string `json:"codigo"`
	Descripcion string `json:"descripcion"`
	UeID        int    `json:"ue_id"`
	UeSigla     string `json:"ue_sigla"`
	Anio        int    `json:"anio"`
}

// Metas lists budget metas for a fiscal year (anio, required) and
// optionally a single unit (ue_id).
func (h *DatosMaestrosHandler) Metas(c *fiber.Ctx) error {
	anio, err := strconv.Atoi(c.Query("anio"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "anio query parameter is required"})
	}

	query := `
		SELECT m.id, m.codigo, COALESCE(m.descripcion, ''), m.ue_id, ue.sigla, m.anio
		FROM meta_presupuestal m
		JOIN unidad_ejecutora ue ON ue.id = m.ue_id
		WHERE m.anio = $1 AND m.activo`
	args := []interface{}{anio}

	if ueID := c.Query("ue_id"); ueID != "" {
		id, err := strconv.Atoi(ueID)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "ue_id must be an integer"})
		}
		args = append(args, id)
		query += " AND m.ue_id = $2"
	}
	query += " ORDER BY m.codigo"

	rows, err := h.db.Query(c.Context(), query, args...)
	if err != nil {
		utils.LogRequestError(c, "META_LIST", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	defer rows.Close()

	metas := make([]Meta, 0)
	for rows.Next() {
		var m Meta
		if err := rows.Scan(&m.ID, &m.Codigo, &m.Descripcion, &m.UeID, &m.UeSigla, &m.Anio); err != nil {
			utils.LogRequestError(c, "META_SCAN", err)
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		utils.LogRequestError(c, "META_ROWS", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(metas)
}

// Proveedor is one supplier row.
type Proveedor struct {
	ID              int    `json:"id"`
	RUC             string `json:"ruc"`
	RazonSocial     string `json:"razon_social"`
	NombreComercial string `json:"nombre_comercial"`
	EstadoRNP       string `json:"estado_rnp"`
}

// Proveedores lists active suppliers, optionally matched by RUC prefix or
// razon social substring via the q parameter.
func (h *DatosMaestrosHandler) Proveedores(c *fiber.Ctx) error {
	query := `
		SELECT id, ruc, razon_social, COALESCE(nombre_comercial, ''), COALESCE(estado_rnp, '')
		FROM proveedor WHERE activo`
	args := []interface{}{}

	if q := c.Query("q"); q != "" {
		args = append(args, "%"+q+"%")
		query += " AND (ruc LIKE $1 OR razon_social ILIKE $1)"
	}
	query += " ORDER BY razon_social LIMIT 100"

	rows, err := h.db.Query(c.Context(), query, args...)
	if err != nil {
		utils.LogRequestError(c, "PROV_LIST", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	defer rows.Close()

	provs := make([]Proveedor, 0)
	for rows.Next() {
		var p Proveedor
		if err := rows.Scan(&p.ID, &p.RUC, &p.RazonSocial, &p.NombreComercial, &p.EstadoRNP); err != nil {
			utils.LogRequestError(c, "PROV_SCAN", err)
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		provs = append(provs, p)
	}
	if err := rows.Err(); err != nil {
		utils.LogRequestError(c, "PROV_ROWS", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(provs)
}
