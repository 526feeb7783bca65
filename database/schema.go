package database

// DatabaseSchema contains the complete PostgreSQL schema for the Dashboard INEI
// backend: budget programming, acquisitions, minor contracts, alerts, and users.
// Every statement is idempotent so the migration can be re-applied safely.
const DatabaseSchema = `
-- Executing units: INEI headquarters offices ("CENTRAL") and the regional
-- statistical offices ("ODEI")
CREATE TABLE IF NOT EXISTS unidad_ejecutora (
    id SERIAL PRIMARY KEY,
    codigo VARCHAR(10) UNIQUE NOT NULL,
    nombre VARCHAR(200) NOT NULL,
    sigla VARCHAR(20) NOT NULL,
    tipo VARCHAR(50), -- "CENTRAL" or "ODEI"
    activo BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- SIAF expenditure classifier codes, e.g. "2.3.1.5.1.2"
CREATE TABLE IF NOT EXISTS clasificador_gasto (
    id SERIAL PRIMARY KEY,
    codigo VARCHAR(20) UNIQUE NOT NULL,
    descripcion VARCHAR(500) NOT NULL,
    tipo_generico VARCHAR(10) -- "2.1", "2.3", "2.5", "2.6"
);

-- Budget metas grouping expenditure under an executing unit and fiscal year
CREATE TABLE IF NOT EXISTS meta_presupuestal (
    id SERIAL PRIMARY KEY,
    codigo VARCHAR(10) NOT NULL,
    descripcion VARCHAR(500),
    sec_funcional VARCHAR(20),
    ue_id INTEGER NOT NULL REFERENCES unidad_ejecutora(id),
    anio INTEGER NOT NULL,
    activo BOOLEAN NOT NULL DEFAULT true
);

-- Annual budget programming: PIA -> PIM -> certificado -> compromiso ->
-- devengado -> girado, plus computed saldo
CREATE TABLE IF NOT EXISTS programacion_presupuestal (
    id SERIAL PRIMARY KEY,
    anio INTEGER NOT NULL,
    ue_id INTEGER NOT NULL REFERENCES unidad_ejecutora(id),
    meta_id INTEGER NOT NULL REFERENCES meta_presupuestal(id),
    clasificador_id INTEGER NOT NULL REFERENCES clasificador_gasto(id),
    pia NUMERIC(15,2) NOT NULL DEFAULT 0,
    pim NUMERIC(15,2) NOT NULL DEFAULT 0,
    certificado NUMERIC(15,2) NOT NULL DEFAULT 0,
    compromiso_anual NUMERIC(15,2) NOT NULL DEFAULT 0,
    devengado NUMERIC(15,2) NOT NULL DEFAULT 0,
    girado NUMERIC(15,2) NOT NULL DEFAULT 0,
    saldo NUMERIC(15,2) NOT NULL DEFAULT 0,
    fuente_financiamiento VARCHAR(100)
);

-- Monthly breakdown (1 = January .. 12 = December) of each programming record
CREATE TABLE IF NOT EXISTS programacion_mensual (
    id SERIAL PRIMARY KEY,
    programacion_presupuestal_id INTEGER NOT NULL
        REFERENCES programacion_presupuestal(id) ON DELETE CASCADE,
    mes INTEGER NOT NULL CHECK (mes BETWEEN 1 AND 12),
    programado NUMERIC(15,2) NOT NULL DEFAULT 0,
    ejecutado NUMERIC(15,2) NOT NULL DEFAULT 0,
    saldo NUMERIC(15,2) NOT NULL DEFAULT 0,
    UNIQUE (programacion_presupuestal_id, mes)
);

-- Supplier registry (RUC = Peruvian tax id, 11 digits)
CREATE TABLE IF NOT EXISTS proveedor (
    id SERIAL PRIMARY KEY,
    ruc VARCHAR(11) UNIQUE NOT NULL,
    razon_social VARCHAR(300) NOT NULL,
    nombre_comercial VARCHAR(300),
    estado_rnp VARCHAR(50), -- "HABIDO", "NO_HABIDO", "SUSPENDIDO"
    direccion VARCHAR(500),
    telefono VARCHAR(50),
    email VARCHAR(200),
    activo BOOLEAN NOT NULL DEFAULT true
);

-- Minor contracts (direct awards at or below 8 UIT), 9-milestone workflow
CREATE TABLE IF NOT EXISTS contrato_menor (
    id SERIAL PRIMARY KEY,
    codigo VARCHAR(20) UNIQUE,
    anio INTEGER,
    ue_id INTEGER REFERENCES unidad_ejecutora(id),
    meta_id INTEGER REFERENCES meta_presupuestal(id),
    descripcion VARCHAR(1000),
    tipo_objeto VARCHAR(20), -- "BIEN", "SERVICIO"
    categoria VARCHAR(100),
    estado VARCHAR(50), -- "PENDIENTE", "EN_PROCESO", "ORDEN_EMITIDA", "EJECUTADO", "PAGADO"
    monto_estimado NUMERIC(15,2),
    monto_ejecutado NUMERIC(15,2),
    proveedor_id INTEGER REFERENCES proveedor(id),
    n_orden VARCHAR(50),
    n_cotizaciones INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS contrato_menor_proceso (
    id SERIAL PRIMARY KEY,
    contrato_menor_id INTEGER NOT NULL REFERENCES contrato_menor(id) ON DELETE CASCADE,
    orden INTEGER NOT NULL,
    nombre VARCHAR(200) NOT NULL,
    responsable VARCHAR(100),
    duracion_dias INTEGER,
    completado BOOLEAN NOT NULL DEFAULT false,
    fecha_inicio DATE,
    fecha_fin DATE,
    UNIQUE (contrato_menor_id, orden)
);

-- Acquisitions above 8 UIT (Ley 32069 phases)
CREATE TABLE IF NOT EXISTS adquisicion (
    id SERIAL PRIMARY KEY,
    codigo VARCHAR(20) UNIQUE,
    anio INTEGER,
    ue_id INTEGER REFERENCES unidad_ejecutora(id),
    meta_id INTEGER REFERENCES meta_presupuestal(id),
    descripcion VARCHAR(1000),
    tipo_objeto VARCHAR(20),
    tipo_procedimiento VARCHAR(50),
    fase VARCHAR(50), -- "ACTUACIONES_PREPARATORIAS", "SELECCION", "EJECUCION_CONTRACTUAL"
    estado VARCHAR(50),
    monto_referencial NUMERIC(15,2),
    monto_adjudicado NUMERIC(15,2),
    proveedor_id INTEGER REFERENCES proveedor(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS adquisicion_detalle (
    id SERIAL PRIMARY KEY,
    adquisicion_id INTEGER NOT NULL REFERENCES adquisicion(id) ON DELETE CASCADE,
    item VARCHAR(500),
    cantidad NUMERIC(12,2),
    unidad_medida VARCHAR(50),
    precio_unitario NUMERIC(15,2),
    subtotal NUMERIC(15,2)
);

CREATE TABLE IF NOT EXISTS adquisicion_proceso (
    id SERIAL PRIMARY KEY,
    adquisicion_id INTEGER NOT NULL REFERENCES adquisicion(id) ON DELETE CASCADE,
    orden INTEGER NOT NULL,
    nombre VARCHAR(200) NOT NULL,
    fase VARCHAR(50),
    completado BOOLEAN NOT NULL DEFAULT false,
    fecha_inicio DATE,
    fecha_fin DATE,
    UNIQUE (adquisicion_id, orden)
);

-- Semaphore alerts surfaced on the dashboard home
CREATE TABLE IF NOT EXISTS alerta (
    id SERIAL PRIMARY KEY,
    tipo VARCHAR(50) NOT NULL,
    nivel VARCHAR(10) NOT NULL, -- "ROJO", "AMARILLO", "VERDE"
    titulo VARCHAR(300) NOT NULL,
    descripcion VARCHAR(1000),
    ue_id INTEGER REFERENCES unidad_ejecutora(id),
    modulo VARCHAR(50),
    entidad_tipo VARCHAR(50),
    entidad_id INTEGER,
    leida BOOLEAN NOT NULL DEFAULT false,
    resuelta BOOLEAN NOT NULL DEFAULT false,
    fecha_generacion TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Application users with role-based access:
-- ADMIN, GERENCIA, PRESUPUESTO, LOGISTICA, CONSULTA
CREATE TABLE IF NOT EXISTS usuario (
    id SERIAL PRIMARY KEY,
    username VARCHAR(100) UNIQUE NOT NULL,
    email VARCHAR(200) UNIQUE NOT NULL,
    password_hash VARCHAR(200) NOT NULL, -- Argon2id encoded
    nombre_completo VARCHAR(300),
    rol VARCHAR(50),
    ue_id INTEGER REFERENCES unidad_ejecutora(id),
    activo BOOLEAN NOT NULL DEFAULT true,
    ultimo_acceso TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Indexes for the dashboard query paths
CREATE INDEX IF NOT EXISTS idx_meta_ue_anio ON meta_presupuestal(ue_id, anio);
CREATE INDEX IF NOT EXISTS idx_pp_anio_ue ON programacion_presupuestal(anio, ue_id);
CREATE INDEX IF NOT EXISTS idx_pp_clasificador ON programacion_presupuestal(clasificador_id);
CREATE INDEX IF NOT EXISTS idx_pm_programacion ON programacion_mensual(programacion_presupuestal_id);
CREATE INDEX IF NOT EXISTS idx_cm_ue_anio ON contrato_menor(ue_id, anio);
CREATE INDEX IF NOT EXISTS idx_cm_categoria ON contrato_menor(categoria);
CREATE INDEX IF NOT EXISTS idx_adq_ue_anio ON adquisicion(ue_id, anio);
CREATE INDEX IF NOT EXISTS idx_alerta_ue_leida ON alerta(ue_id, leida);
CREATE INDEX IF NOT EXISTS idx_usuario_username ON usuario(username);
`
