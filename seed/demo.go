package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dashboard-inei/database"
)

// Demo suppliers with real-format RUCs so the RNP lookups render correctly.
var proveedoresDemo = []struct {
	ruc             string
	razonSocial     string
	nombreComercial string
}{
	{"20100070970", "IBM DEL PERU S.A.C.", "IBM Peru"},
	{"20112273922", "MICROSOFT PERU S.R.L.", "Microsoft Peru"},
	{"20501503893", "SUMINISTROS PAPELEROS LA UNION S.A.C.", "Papeleria La Union"},
	{"20602913771", "SOLUCIONES TECNOLOGICAS ANDINAS S.A.C.", "STA Soluciones TI"},
	{"20536987412", "CONSULTORA ESTADISTICA PERU S.A.C.", "CEP Consultores"},
	{"20600347851", "ELECTRO SERVICIOS GENERALES J&M E.I.R.L.", "Electro Servicios J&M"},
}

type contratoDemo struct {
	numero         int
	descripcion    string
	tipoObjeto     string
	categoria      string
	estado         string
	montoEstimado  float64
	montoEjecutado float64 // 0 = not yet executed
	ruc            string  // "" = no supplier selected yet
	ordenPrefix    string  // OC (bienes) / OS (servicios)
	cotizaciones   int
}

var contratosDemo = []contratoDemo{
	{1, "Papel Bond A4 para Impresoras - 200 Millar",
		"BIEN", "MATERIALES_OFICINA", "PAGADO", 4200, 4080, "20501503893", "OC", 3},
	{2, "Servicio Limpieza Oficinas - Enero",
		"SERVICIO", "LIMPIEZA", "PAGADO", 3800, 3800, "20600347851", "OS", 3},
	{3, "Cartuchos Tinta y Toner para Impresoras",
		"BIEN", "SUMINISTROS_TI", "EJECUTADO", 5500, 5350, "20602913771", "OC", 3},
	{4, "Servicio Fotocopiado Materiales Censales",
		"SERVICIO", "MATERIALES_CENSALES", "ORDEN_EMITIDA", 8900, 0, "20501503893", "OS", 3},
	{5, "Combustible para Vehiculos Operativo",
		"BIEN", "COMBUSTIBLES", "EN_PROCESO", 12000, 0, "", "", 2},
	{6, "Servicio Mensajeria y Courier Nacional",
		"SERVICIO", "MENSAJERIA", "PAGADO", 2800, 2750, "20600347851", "OS", 3},
	{7, "Materiales de Limpieza Areas de Trabajo",
		"BIEN", "MATERIALES_LIMPIEZA", "PAGADO", 1850, 1820, "20600347851", "OC", 3},
	{8, "Diseno e Impresion Brochures Difusion",
		"SERVICIO", "MATERIALES_DIFUSION", "EN_PROCESO", 7200, 0, "20501503893", "OS", 2},
	{9, "Utiles Escritorio y Articulos de Oficina",
		"BIEN", "MATERIALES_OFICINA", "PENDIENTE", 3100, 0, "", "", 0},
	{10, "Mantenimiento Reparacion Mobiliario Oficinas",
		"SERVICIO", "MANTENIMIENTO", "ORDEN_EMITIDA", 6500, 0, "20600347851", "OS", 3},
}

// The nine-milestone workflow of a minor contract.
var hitosContratoMenor = []struct {
	orden       int
	nombre      string
	responsable string
	dias        int
}{
	{1, "Elaboracion del Requerimiento", "AREA_USUARIA", 2},
	{2, "Solicitud de Cotizaciones", "LOGISTICA", 3},
	{3, "Recepcion y Evaluacion de Cotizaciones", "LOGISTICA", 2},
	{4, "Seleccion del Proveedor", "LOGISTICA", 1},
	{5, "Aprobacion del Cuadro Comparativo", "PRESUPUESTO", 1},
	{6, "Emision de la Orden", "LOGISTICA", 1},
	{7, "Ejecucion y Entrega", "PROVEEDOR", 7},
	{8, "Conformidad del Area Usuaria", "AREA_USUARIA", 2},
	{9, "Tramitacion del Pago", "LOGISTICA", 3},
}

// hitosCompletados maps a contract state to how many milestones are done.
var hitosCompletados = map[string]int{
	"PENDIENTE":     0,
	"EN_PROCESO":    3,
	"ORDEN_EMITIDA": 6,
	"EJECUTADO":     8,
	"PAGADO":        9,
}

type adquisicionDemo struct {
	numero           int
	descripcion      string
	tipoObjeto       string
	tipoProc         string
	estado           string
	fase             string
	montoReferencial float64
	montoAdjudicado  float64
	ruc              string
}

var adquisicionesDemo = []adquisicionDemo{
	{1, "Servidores Alto Rendimiento Centro de Datos",
		"BIEN", "LICITACION_PUBLICA", "EN_EJECUCION", "EJECUCION_CONTRACTUAL",
		350000, 338500, "20602913771"},
	{2, "Impresion y Distribucion Formularios Censales",
		"SERVICIO", "CONCURSO_PUBLICO", "ADJUDICADO", "EJECUCION_CONTRACTUAL",
		280000, 271500, "20100070970"},
	{3, "Licencias Corporativas Microsoft 365",
		"BIEN", "CATALOGO_ELECTRONICO", "CULMINADO", "EJECUCION_CONTRACTUAL",
		145000, 138700, "20112273922"},
	{4, "Consultoria Sistema de Cuentas Nacionales",
		"CONSULTORIA", "CONCURSO_PUBLICO", "EN_SELECCION", "SELECCION",
		320000, 0, ""},
	{5, "Equipos Comunicaciones y Redes Oficinas Regionales",
		"BIEN", "LICITACION_PUBLICA", "EN_ACTOS_PREPARATORIOS", "ACTUACIONES_PREPARATORIAS",
		210000, 0, ""},
	{6, "Servicio Encuestadores ENAHO",
		"SERVICIO", "CONCURSO_PUBLICO", "EN_EJECUCION", "EJECUCION_CONTRACTUAL",
		480000, 465000, "20536987412"},
	{7, "Tablets para Empadronadores Censales",
		"BIEN", "LICITACION_PUBLICA", "DESIERTO", "SELECCION",
		520000, 0, ""},
	{8, "Mantenimiento Vehiculos Oficiales",
		"SERVICIO", "COMPARACION_PRECIOS", "EN_SELECCION", "SELECCION",
		58000, 0, ""},
}

// Ley 32069 acquisition milestones across the three procurement phases.
var hitosAdquisicion = []struct {
	orden  int
	nombre string
	fase   string
	dias   int
}{
	{1, "Elaboracion Requerimiento Tecnico", "ACTUACIONES_PREPARATORIAS", 5},
	{2, "Conformidad Area Usuaria", "ACTUACIONES_PREPARATORIAS", 3},
	{3, "Estudio de Mercado", "ACTUACIONES_PREPARATORIAS", 7},
	{4, "Valor Referencial", "ACTUACIONES_PREPARATORIAS", 3},
	{5, "Expediente de Contratacion", "ACTUACIONES_PREPARATORIAS", 5},
	{6, "Aprobacion Expediente", "ACTUACIONES_PREPARATORIAS", 3},
	{7, "Designacion Comite Seleccion", "ACTUACIONES_PREPARATORIAS", 2},
	{8, "Elaboracion y Aprobacion Bases", "ACTUACIONES_PREPARATORIAS", 7},
	{9, "Convocatoria SEACE", "SELECCION", 1},
	{10, "Registro Participantes", "SELECCION", 5},
	{11, "Consultas y Observaciones", "SELECCION", 5},
	{12, "Absolucion Consultas", "SELECCION", 7},
	{13, "Integracion de Bases", "SELECCION", 3},
	{14, "Presentacion Ofertas", "SELECCION", 5},
	{15, "Evaluacion Ofertas", "SELECCION", 5},
	{16, "Otorgamiento Buena Pro", "SELECCION", 1},
	{17, "Consentimiento Buena Pro", "EJECUCION_CONTRACTUAL", 5},
	{18, "Suscripcion Contrato", "EJECUCION_CONTRACTUAL", 5},
	{19, "Entrega Adelanto", "EJECUCION_CONTRACTUAL", 3},
	{20, "Ejecucion Prestacion", "EJECUCION_CONTRACTUAL", 30},
	{21, "Conformidad Prestacion", "EJECUCION_CONTRACTUAL", 5},
	{22, "Pago al Proveedor", "EJECUCION_CONTRACTUAL", 5},
}

var hitosAdqCompletados = map[string]int{
	"EN_ACTOS_PREPARATORIOS": 4,
	"EN_SELECCION":           10,
	"EN_EJECUCION":           19,
	"ADJUDICADO":             17,
	"CULMINADO":              22,
	"DESIERTO":               14,
}

// DemoTransactions populates the procurement side of the dashboard with a
// realistic sample: suppliers, minor contracts with their milestone tracks,
// acquisitions with SEACE-style process timelines, and the alert feed.
// The whole data set anchors on the first executing unit and meta, the same
// ones an Excel import creates, so it composes with either seed path.
func DemoTransactions(ctx context.Context, db database.Database, year int) (Result, error) {
	var count int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM proveedor").Scan(&count); err != nil {
		return AlreadySeeded, fmt.Errorf("count proveedor: %w", err)
	}
	if count > 0 {
		return AlreadySeeded, nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return AlreadySeeded, fmt.Errorf("begin demo seed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var ueID, metaID int
	err = tx.QueryRow(ctx, "SELECT id FROM unidad_ejecutora ORDER BY id LIMIT 1").Scan(&ueID)
	if errors.Is(err, pgx.ErrNoRows) {
		return AlreadySeeded, errors.New("no executing units exist; run the catalog seed or an Excel import first")
	} else if err != nil {
		return AlreadySeeded, fmt.Errorf("load first unidad_ejecutora: %w", err)
	}
	err = tx.QueryRow(ctx,
		"SELECT id FROM meta_presupuestal WHERE ue_id = $1 ORDER BY id LIMIT 1", ueID).Scan(&metaID)
	if errors.Is(err, pgx.ErrNoRows) {
		return AlreadySeeded, errors.New("no metas exist for the first executing unit")
	} else if err != nil {
		return AlreadySeeded, fmt.Errorf("load first meta_presupuestal: %w", err)
	}

	provIDs := make(map[string]int, len(proveedoresDemo))
	for _, p := range proveedoresDemo {
		var id int
		if err := tx.QueryRow(ctx, `
			INSERT INTO proveedor (ruc, razon_social, nombre_comercial, estado_rnp, activo)
			VALUES ($1, $2, $3, 'HABIDO', true)
			RETURNING id`,
			p.ruc, p.razonSocial, p.nombreComercial).Scan(&id); err != nil {
			return AlreadySeeded, fmt.Errorf("insert proveedor %s: %w", p.ruc, err)
		}
		provIDs[p.ruc] = id
	}

	if err := seedContratosMenores(ctx, tx, year, ueID, metaID, provIDs); err != nil {
		return AlreadySeeded, err
	}
	if err := seedAdquisiciones(ctx, tx, year, ueID, metaID, provIDs); err != nil {
		return AlreadySeeded, err
	}
	if err := seedAlertas(ctx, tx, year, ueID); err != nil {
		return AlreadySeeded, err
	}

	if err := tx.Commit(ctx); err != nil {
		return AlreadySeeded, fmt.Errorf("commit demo seed: %w", err)
	}
	return Applied, nil
}

func seedContratosMenores(ctx context.Context, tx pgx.Tx, year, ueID, metaID int, provIDs map[string]int) error {
	for _, c := range contratosDemo {
		codigo := fmt.Sprintf("CM-%d-%03d", year, c.numero)

		var proveedorID *int
		if id, ok := provIDs[c.ruc]; ok {
			proveedorID = &id
		}
		var montoEjecutado *float64
		if c.montoEjecutado > 0 {
			montoEjecutado = &c.montoEjecutado
		}
		var nOrden *string
		if c.ordenPrefix != "" {
			orden := fmt.Sprintf("%s-%d-%03d", c.ordenPrefix, year, c.numero)
			nOrden = &orden
		}

		var contratoID int
		if err := tx.QueryRow(ctx, `
			INSERT INTO contrato_menor
				(codigo, anio, ue_id, meta_id, descripcion, tipo_objeto, categoria,
				 estado, monto_estimado, monto_ejecutado, proveedor_id, n_orden, n_cotizaciones)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id`,
			codigo, year, ueID, metaID, c.descripcion, c.tipoObjeto, c.categoria,
			c.estado, c.montoEstimado, montoEjecutado, proveedorID, nOrden, c.cotizaciones).Scan(&contratoID); err != nil {
			return fmt.Errorf("insert contrato %s: %w", codigo, err)
		}

		completados := hitosCompletados[c.estado]
		fecha := time.Date(year, time.January, 20, 0, 0, 0, 0, time.UTC)
		for _, h := range hitosContratoMenor {
			fin := fecha.AddDate(0, 0, h.dias)
			if _, err := tx.Exec(ctx, `
				INSERT INTO contrato_menor_proceso
					(contrato_menor_id, orden, nombre, responsable, duracion_dias,
					 completado, fecha_inicio, fecha_fin)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				contratoID, h.orden, h.nombre, h.responsable, h.dias,
				h.orden <= completados, fecha, fin); err != nil {
				return fmt.Errorf("insert hito %d for %s: %w", h.orden, codigo, err)
			}
			fecha = fin.AddDate(0, 0, 1)
		}
	}
	return nil
}

func seedAdquisiciones(ctx context.Context, tx pgx.Tx, year, ueID, metaID int, provIDs map[string]int) error {
	for _, a := range adquisicionesDemo {
		codigo := fmt.Sprintf("ADQ-%d-%03d", year, a.numero)

		var proveedorID *int
		if id, ok := provIDs[a.ruc]; ok {
			proveedorID = &id
		}
		var montoAdjudicado *float64
		if a.montoAdjudicado > 0 {
			montoAdjudicado = &a.montoAdjudicado
		}

		var adqID int
		if err := tx.QueryRow(ctx, `
			INSERT INTO adquisicion
				(codigo, anio, ue_id, meta_id, descripcion, tipo_objeto, tipo_procedimiento,
				 fase, estado, monto_referencial, monto_adjudicado, proveedor_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`,
			codigo, year, ueID, metaID, a.descripcion, a.tipoObjeto, a.tipoProc,
			a.fase, a.estado, a.montoReferencial, montoAdjudicado, proveedorID).Scan(&adqID); err != nil {
			return fmt.Errorf("insert adquisicion %s: %w", codigo, err)
		}

		// One summary line item per acquisition keeps the detail panel usable.
		if _, err := tx.Exec(ctx, `
			INSERT INTO adquisicion_detalle
				(adquisicion_id, item, cantidad, unidad_medida, precio_unitario, subtotal)
			VALUES ($1, $2, 1, 'GLOBAL', $3, $3)`,
			adqID, a.descripcion, a.montoReferencial); err != nil {
			return fmt.Errorf("insert detalle for %s: %w", codigo, err)
		}

		completados := hitosAdqCompletados[a.estado]
		fecha := time.Date(year, time.January, 15, 0, 0, 0, 0, time.UTC)
		for _, h := range hitosAdquisicion {
			fin := fecha.AddDate(0, 0, h.dias)
			if _, err := tx.Exec(ctx, `
				INSERT INTO adquisicion_proceso
					(adquisicion_id, orden, nombre, fase, completado, fecha_inicio, fecha_fin)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				adqID, h.orden, h.nombre, h.fase, h.orden <= completados, fecha, fin); err != nil {
				return fmt.Errorf("insert proceso %d for %s: %w", h.orden, codigo, err)
			}
			fecha = fin.AddDate(0, 0, 1)
		}
	}
	return nil
}

func seedAlertas(ctx context.Context, tx pgx.Tx, year, ueID int) error {
	ahora := time.Date(year, time.February, 18, 9, 0, 0, 0, time.UTC)

	alertas := []struct {
		tipo, nivel, titulo, descripcion string
		modulo, entidadTipo              string
		leida, resuelta                  bool
		generada                         time.Time
	}{
		{"EJECUCION_BAJA", "ROJO", "Ejecucion Presupuestal Critica",
			"Ejecucion del 55.8% en combustibles, por debajo del umbral minimo del 70%.",
			"PRESUPUESTO", "programacion", false, false, ahora.Add(-2 * time.Hour)},
		{"PROCESO_PARALIZADO", "ROJO", fmt.Sprintf("ADQ-%d-005 Sin Avance por 15 Dias", year),
			"Proceso de equipos de comunicaciones sin avance en actuaciones preparatorias.",
			"ADQUISICIONES", "adquisicion", false, false, ahora.Add(-1 * time.Hour)},
		{"PROCESO_DESIERTO", "AMARILLO", fmt.Sprintf("ADQ-%d-007 Declarado Desierto", year),
			"Licitacion de tablets para empadronadores declarada desierta.",
			"ADQUISICIONES", "adquisicion", false, false, ahora.AddDate(0, 0, -2)},
		{"FRACCIONAMIENTO_DETECTADO", "ROJO", "Posible Fraccionamiento - Materiales Oficina",
			"3 contratos menores en MATERIALES_OFICINA superan 8 UIT acumulado.",
			"CONTRATOS_MENORES", "contrato_menor", false, false, ahora.Add(-3 * time.Hour)},
		{"META_CUMPLIDA", "VERDE", "Meta Cumplida - Licencias Microsoft",
			fmt.Sprintf("ADQ-%d-003 culminado exitosamente con 95.6%% del monto referencial.", year),
			"ADQUISICIONES", "adquisicion", true, true, ahora.AddDate(0, 0, -5)},
	}

	for _, a := range alertas {
		if _, err := tx.Exec(ctx, `
			INSERT INTO alerta
				(tipo, nivel, titulo, descripcion, ue_id, modulo, entidad_tipo,
				 leida, resuelta, fecha_generacion)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			a.tipo, a.nivel, a.titulo, a.descripcion, ueID, a.modulo, a.entidadTipo,
			a.leida, a.resuelta, a.generada); err != nil {
			return fmt.Errorf("insert alerta %s: %w", a.tipo, err)
		}
	}
	return nil
}
