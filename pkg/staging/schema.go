package staging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// schemaStatements is executed in order on startup. Every statement is
// idempotent so repeated runs are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS etl_watermarks (
		table_name        TEXT PRIMARY KEY,
		last_extracted_at TIMESTAMPTZ,
		status            TEXT NOT NULL DEFAULT 'success',
		records_extracted BIGINT NOT NULL DEFAULT 0,
		duration_seconds  DOUBLE PRECISION NOT NULL DEFAULT 0,
		error_message     TEXT NOT NULL DEFAULT '',
		extraction_id     TEXT NOT NULL DEFAULT '',
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS stg_calendario (
		archivo             TEXT PRIMARY KEY,
		periodo_date        DATE NOT NULL,
		fecha_apertura      DATE NOT NULL,
		fecha_cierre        DATE,
		tipo_cartera        TEXT NOT NULL DEFAULT '',
		anno_asignacion     INT NOT NULL DEFAULT 0,
		estado_cartera      TEXT NOT NULL DEFAULT '',
		fecha_actualizacion TIMESTAMPTZ NOT NULL DEFAULT now(),
		loaded_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS stg_asignaciones (
		cod_luna         TEXT NOT NULL,
		cuenta           TEXT NOT NULL,
		archivo          TEXT NOT NULL,
		fecha_asignacion TIMESTAMPTZ NOT NULL,
		tramo_gestion    TEXT NOT NULL DEFAULT '',
		negocio          TEXT NOT NULL DEFAULT '',
		servicio         TEXT NOT NULL DEFAULT '',
		dni              TEXT NOT NULL DEFAULT '',
		loaded_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (cod_luna, cuenta, archivo, fecha_asignacion)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_asignaciones_archivo ON stg_asignaciones (archivo)`,

	`CREATE TABLE IF NOT EXISTS stg_trandeuda (
		cod_cuenta     TEXT NOT NULL,
		nro_documento  TEXT NOT NULL,
		archivo        TEXT NOT NULL,
		fecha_proceso  TIMESTAMPTZ NOT NULL,
		monto_exigible NUMERIC(14,2) NOT NULL DEFAULT 0,
		loaded_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (cod_cuenta, nro_documento, archivo, fecha_proceso)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trandeuda_documento ON stg_trandeuda (nro_documento)`,

	`CREATE TABLE IF NOT EXISTS stg_pagos (
		nro_documento   TEXT NOT NULL,
		fecha_pago      TIMESTAMPTZ NOT NULL,
		monto_cancelado NUMERIC(14,2) NOT NULL,
		cuenta          TEXT NOT NULL DEFAULT '',
		cod_luna        TEXT NOT NULL DEFAULT '',
		archivo         TEXT NOT NULL DEFAULT '',
		fecha_archivo   TIMESTAMPTZ NOT NULL,
		veces_visto     INT NOT NULL DEFAULT 1,
		primera_carga   TIMESTAMPTZ NOT NULL DEFAULT now(),
		ultima_carga    TIMESTAMPTZ NOT NULL DEFAULT now(),
		loaded_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (nro_documento, fecha_pago, monto_cancelado)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pagos_cuenta ON stg_pagos (cuenta, fecha_pago)`,

	`CREATE TABLE IF NOT EXISTS stg_voicebot_gestiones (
		uid            TEXT PRIMARY KEY,
		document       TEXT NOT NULL DEFAULT '',
		date           TIMESTAMPTZ NOT NULL,
		management     TEXT NOT NULL DEFAULT '',
		sub_management TEXT NOT NULL DEFAULT '',
		compromiso     TEXT NOT NULL DEFAULT '',
		loaded_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_voicebot_date ON stg_voicebot_gestiones (date)`,

	`CREATE TABLE IF NOT EXISTS stg_mibotair_gestiones (
		uid       TEXT PRIMARY KEY,
		document  TEXT NOT NULL DEFAULT '',
		date      TIMESTAMPTZ NOT NULL,
		n1        TEXT NOT NULL DEFAULT '',
		n2        TEXT NOT NULL DEFAULT '',
		n3        TEXT NOT NULL DEFAULT '',
		ejecutivo TEXT NOT NULL DEFAULT '',
		loaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mibotair_date ON stg_mibotair_gestiones (date)`,

	`CREATE TABLE IF NOT EXISTS stg_homologacion_voicebot (
		bot_management     TEXT NOT NULL,
		bot_sub_management TEXT NOT NULL,
		bot_compromiso     TEXT NOT NULL,
		contactabilidad    TEXT NOT NULL DEFAULT '',
		es_compromiso      BOOLEAN NOT NULL DEFAULT false,
		peso_gestion       DOUBLE PRECISION NOT NULL DEFAULT 0,
		loaded_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (bot_management, bot_sub_management, bot_compromiso)
	)`,

	`CREATE TABLE IF NOT EXISTS stg_homologacion_mibotair (
		n_1             TEXT NOT NULL,
		n_2             TEXT NOT NULL,
		n_3             TEXT NOT NULL,
		contactabilidad TEXT NOT NULL DEFAULT '',
		es_compromiso   BOOLEAN NOT NULL DEFAULT false,
		peso_gestion    DOUBLE PRECISION NOT NULL DEFAULT 0,
		loaded_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (n_1, n_2, n_3)
	)`,

	`CREATE TABLE IF NOT EXISTS stg_ejecutivos (
		correo_name TEXT PRIMARY KEY,
		nombre      TEXT NOT NULL DEFAULT '',
		equipo      TEXT NOT NULL DEFAULT '',
		loaded_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS aux_pagos_dedup (
		nro_documento         TEXT NOT NULL,
		fecha_pago            DATE NOT NULL,
		monto_cancelado       NUMERIC(14,2) NOT NULL,
		cuenta                TEXT NOT NULL DEFAULT '',
		cod_luna              TEXT NOT NULL DEFAULT '',
		archivo               TEXT NOT NULL DEFAULT '',
		veces_visto           INT NOT NULL DEFAULT 1,
		total_pagos_mismo_dia INT NOT NULL DEFAULT 1,
		fecha_primera_carga   TIMESTAMPTZ NOT NULL,
		fecha_ultima_carga    TIMESTAMPTZ NOT NULL,
		es_pago_unico         BOOLEAN NOT NULL DEFAULT false,
		es_pago_valido        BOOLEAN NOT NULL DEFAULT true,
		motivo_rechazo        TEXT NOT NULL DEFAULT '',
		esta_en_ventana       BOOLEAN NOT NULL DEFAULT false,
		PRIMARY KEY (nro_documento, fecha_pago, monto_cancelado)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pagos_dedup_archivo ON aux_pagos_dedup (archivo)`,

	`CREATE TABLE IF NOT EXISTS aux_gestiones_unificadas (
		uid                  TEXT PRIMARY KEY,
		canal                TEXT NOT NULL,
		cod_luna             TEXT NOT NULL DEFAULT '',
		cuenta               TEXT NOT NULL DEFAULT '',
		archivo              TEXT NOT NULL DEFAULT '',
		fecha_gestion        TIMESTAMPTZ NOT NULL,
		hora_gestion         INT NOT NULL DEFAULT 0,
		ejecutivo            TEXT NOT NULL DEFAULT '',
		contactabilidad      TEXT NOT NULL DEFAULT '',
		es_contacto_efectivo BOOLEAN NOT NULL DEFAULT false,
		es_compromiso        BOOLEAN NOT NULL DEFAULT false,
		monto_compromiso     NUMERIC(14,2) NOT NULL DEFAULT 0,
		peso_gestion         DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_gestiones_archivo_fecha ON aux_gestiones_unificadas (archivo, fecha_gestion)`,

	`CREATE TABLE IF NOT EXISTS aux_cuentas_campana (
		cuenta               TEXT NOT NULL,
		cod_luna             TEXT NOT NULL DEFAULT '',
		archivo              TEXT NOT NULL,
		tramo_gestion        TEXT NOT NULL DEFAULT '',
		fecha_asignacion     TIMESTAMPTZ NOT NULL,
		monto_inicial        NUMERIC(14,2) NOT NULL DEFAULT 0,
		monto_actual         NUMERIC(14,2) NOT NULL DEFAULT 0,
		tiene_deuda_activa   BOOLEAN NOT NULL DEFAULT false,
		es_cuenta_gestionable BOOLEAN NOT NULL DEFAULT false,
		PRIMARY KEY (cuenta, archivo)
	)`,

	`CREATE TABLE IF NOT EXISTS mart_dashboard (
		fecha_foto          DATE NOT NULL,
		archivo             TEXT NOT NULL,
		cuentas_asignadas   BIGINT NOT NULL DEFAULT 0,
		cuentas_gestionables BIGINT NOT NULL DEFAULT 0,
		cuentas_gestionadas BIGINT NOT NULL DEFAULT 0,
		cuentas_sin_gestion BIGINT NOT NULL DEFAULT 0,
		cuentas_pdp         BIGINT NOT NULL DEFAULT 0,
		cuentas_pagadas     BIGINT NOT NULL DEFAULT 0,
		total_gestiones     BIGINT NOT NULL DEFAULT 0,
		contactos_efectivos BIGINT NOT NULL DEFAULT 0,
		compromisos         BIGINT NOT NULL DEFAULT 0,
		deuda_asignada      NUMERIC(16,2) NOT NULL DEFAULT 0,
		monto_compromiso    NUMERIC(16,2) NOT NULL DEFAULT 0,
		recupero            NUMERIC(16,2) NOT NULL DEFAULT 0,
		pct_cober           DOUBLE PRECISION NOT NULL DEFAULT 0,
		pct_contac          DOUBLE PRECISION NOT NULL DEFAULT 0,
		pct_conversion      DOUBLE PRECISION NOT NULL DEFAULT 0,
		pct_efectividad     DOUBLE PRECISION NOT NULL DEFAULT 0,
		pct_cierre          DOUBLE PRECISION NOT NULL DEFAULT 0,
		intensidad          DOUBLE PRECISION NOT NULL DEFAULT 0,
		built_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (fecha_foto, archivo)
	)`,

	`CREATE TABLE IF NOT EXISTS mart_horario_canal (
		fecha               DATE NOT NULL,
		hora                INT NOT NULL,
		canal               TEXT NOT NULL,
		archivo             TEXT NOT NULL,
		total_gestiones     BIGINT NOT NULL DEFAULT 0,
		contactos_efectivos BIGINT NOT NULL DEFAULT 0,
		compromisos         BIGINT NOT NULL DEFAULT 0,
		cuentas_contactadas BIGINT NOT NULL DEFAULT 0,
		built_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (fecha, hora, canal, archivo)
	)`,

	`CREATE TABLE IF NOT EXISTS mart_ejecutivos (
		fecha               DATE NOT NULL,
		ejecutivo           TEXT NOT NULL,
		archivo             TEXT NOT NULL,
		total_gestiones     BIGINT NOT NULL DEFAULT 0,
		contactos_efectivos BIGINT NOT NULL DEFAULT 0,
		compromisos         BIGINT NOT NULL DEFAULT 0,
		monto_compromiso    NUMERIC(16,2) NOT NULL DEFAULT 0,
		cuentas_gestionadas BIGINT NOT NULL DEFAULT 0,
		built_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (fecha, ejecutivo, archivo)
	)`,
}

// InitSchema creates all staging, aux and mart tables.
func (c *Client) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if err := c.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema init: %w", err)
		}
	}
	c.Logger.Info("Staging schema initialized", zap.Int("statements", len(schemaStatements)))
	return nil
}
