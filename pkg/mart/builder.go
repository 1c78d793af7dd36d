package mart

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/pulso-data/pulso-etl/pkg/models"
	"github.com/pulso-data/pulso-etl/pkg/staging"
)

// Builder materializes the reporting marts from the aux tables. Each build
// replaces its slice of the mart inside one transaction so dashboards never
// read a partial snapshot.
type Builder struct {
	Logger *zap.Logger
	Db     *staging.Client
}

// NewBuilder returns a mart builder over the staging database.
func NewBuilder(logger *zap.Logger, db *staging.Client) *Builder {
	return &Builder{Logger: logger, Db: db}
}

// BuildAll rebuilds every mart for the given snapshot date.
func (b *Builder) BuildAll(ctx context.Context, fechaFoto time.Time) error {
	if err := b.BuildDashboard(ctx, fechaFoto); err != nil {
		return err
	}
	if err := b.BuildHourlyChannel(ctx); err != nil {
		return err
	}
	return b.BuildAgents(ctx)
}

// BuildBackfill rebuilds the dashboard mart for every day from the earliest
// campaign opening through today, then refreshes the interaction rollups
// once. Used after catch-up re-extractions so historical snapshot rows
// reflect each day's cumulative state instead of today's totals.
func (b *Builder) BuildBackfill(ctx context.Context, today time.Time) error {
	var earliest time.Time
	err := b.Db.QueryRow(ctx,
		`SELECT COALESCE(min(fecha_apertura), $1::date) FROM stg_calendario`, today,
	).Scan(&earliest)
	if err != nil {
		return fmt.Errorf("resolve backfill start: %w", err)
	}

	days := 0
	for day := earliest; !day.After(today); day = day.AddDate(0, 0, 1) {
		if err := b.BuildDashboard(ctx, day); err != nil {
			return err
		}
		days++
	}
	if err := b.BuildHourlyChannel(ctx); err != nil {
		return err
	}
	if err := b.BuildAgents(ctx); err != nil {
		return err
	}

	b.Logger.Info("Mart backfill complete",
		zap.Time("from", earliest),
		zap.Int("days", days))
	return nil
}

// BuildDashboard assembles one dashboard fact per campaign and replaces the
// (fecha_foto, archivo) slices it produced.
func (b *Builder) BuildDashboard(ctx context.Context, fechaFoto time.Time) error {
	started := time.Now()

	facts, err := b.collectDashboardFacts(ctx, fechaFoto)
	if err != nil {
		return err
	}
	for _, f := range facts {
		ComputeKPIs(f)
	}

	err = b.Db.BeginFunc(ctx, func(tx pgx.Tx) error {
		txCtx := b.Db.WithTx(ctx, tx)
		for _, f := range facts {
			if err := b.Db.Exec(txCtx,
				`DELETE FROM mart_dashboard WHERE fecha_foto = $1 AND archivo = $2`,
				f.FechaFoto, f.Archivo); err != nil {
				return fmt.Errorf("clear dashboard slice %s: %w", f.Archivo, err)
			}
			if err := b.Db.Exec(txCtx, `
				INSERT INTO mart_dashboard
					(fecha_foto, archivo, cuentas_asignadas, cuentas_gestionables,
					 cuentas_gestionadas, cuentas_sin_gestion, cuentas_pdp, cuentas_pagadas,
					 total_gestiones, contactos_efectivos, compromisos,
					 deuda_asignada, monto_compromiso, recupero,
					 pct_cober, pct_contac, pct_conversion, pct_efectividad, pct_cierre, intensidad)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
				f.FechaFoto, f.Archivo, f.CuentasAsignadas, f.CuentasGestionables,
				f.CuentasGestionadas, f.CuentasSinGestion, f.CuentasPDP, f.CuentasPagadas,
				f.TotalGestiones, f.ContactosEfectivos, f.Compromisos,
				f.DeudaAsignada, f.MontoCompromiso, f.Recupero,
				f.PctCober, f.PctContac, f.PctConversion, f.PctEfectividad, f.PctCierre, f.Intensidad,
			); err != nil {
				return fmt.Errorf("insert dashboard fact %s: %w", f.Archivo, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("build dashboard mart: %w", err)
	}

	b.Logger.Info("Dashboard mart built",
		zap.Time("fecha_foto", fechaFoto),
		zap.Int("campaigns", len(facts)),
		zap.Duration("duration", time.Since(started)))
	return nil
}

// collectDashboardFacts gathers raw counters per campaign from the aux
// tables, cumulative through the snapshot date so historical rebuilds
// reproduce what that day looked like. KPI columns are filled afterwards
// in Go so the ratio rules live in one place.
func (b *Builder) collectDashboardFacts(ctx context.Context, fechaFoto time.Time) (map[string]*models.DashboardFact, error) {
	facts := make(map[string]*models.DashboardFact)
	get := func(archivo string) *models.DashboardFact {
		f, ok := facts[archivo]
		if !ok {
			f = &models.DashboardFact{FechaFoto: fechaFoto, Archivo: archivo}
			facts[archivo] = f
		}
		return f
	}

	rows, err := b.Db.Query(ctx, `
		SELECT archivo,
		       count(*) AS asignadas,
		       count(*) FILTER (WHERE es_cuenta_gestionable) AS gestionables,
		       COALESCE(sum(monto_inicial), 0) AS deuda
		FROM aux_cuentas_campana
		WHERE fecha_asignacion::date <= $1::date
		GROUP BY archivo`, fechaFoto)
	if err != nil {
		return nil, fmt.Errorf("aggregate cuentas: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var archivo string
		var asignadas, gestionables int64
		var deuda float64
		if err := rows.Scan(&archivo, &asignadas, &gestionables, &deuda); err != nil {
			return nil, fmt.Errorf("scan cuenta aggregate: %w", err)
		}
		f := get(archivo)
		f.CuentasAsignadas = asignadas
		f.CuentasGestionables = gestionables
		f.DeudaAsignada = deuda
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	gRows, err := b.Db.Query(ctx, `
		SELECT archivo,
		       count(*) AS gestiones,
		       count(*) FILTER (WHERE es_contacto_efectivo) AS contactos,
		       count(*) FILTER (WHERE es_compromiso) AS compromisos,
		       count(DISTINCT cuenta) FILTER (WHERE cuenta <> '') AS gestionadas,
		       count(DISTINCT cuenta) FILTER (WHERE es_compromiso AND cuenta <> '') AS pdp,
		       COALESCE(sum(monto_compromiso) FILTER (WHERE es_compromiso), 0) AS monto_comp
		FROM aux_gestiones_unificadas
		WHERE fecha_gestion::date <= $1::date
		GROUP BY archivo`, fechaFoto)
	if err != nil {
		return nil, fmt.Errorf("aggregate gestiones: %w", err)
	}
	defer gRows.Close()
	for gRows.Next() {
		var archivo string
		var gestiones, contactos, compromisos, gestionadas, pdp int64
		var montoComp float64
		if err := gRows.Scan(&archivo, &gestiones, &contactos, &compromisos, &gestionadas, &pdp, &montoComp); err != nil {
			return nil, fmt.Errorf("scan gestion aggregate: %w", err)
		}
		f := get(archivo)
		f.TotalGestiones = gestiones
		f.ContactosEfectivos = contactos
		f.Compromisos = compromisos
		f.CuentasGestionadas = gestionadas
		f.CuentasPDP = pdp
		f.MontoCompromiso = montoComp
	}
	if err := gRows.Err(); err != nil {
		return nil, err
	}

	pRows, err := b.Db.Query(ctx, `
		SELECT archivo,
		       COALESCE(sum(monto_cancelado), 0) AS recupero,
		       count(DISTINCT cuenta) FILTER (WHERE cuenta <> '') AS pagadas
		FROM aux_pagos_dedup
		WHERE es_pago_unico AND es_pago_valido AND esta_en_ventana
		      AND fecha_pago <= $1::date
		GROUP BY archivo`, fechaFoto)
	if err != nil {
		return nil, fmt.Errorf("aggregate pagos: %w", err)
	}
	defer pRows.Close()
	for pRows.Next() {
		var archivo string
		var recupero float64
		var pagadas int64
		if err := pRows.Scan(&archivo, &recupero, &pagadas); err != nil {
			return nil, fmt.Errorf("scan pago aggregate: %w", err)
		}
		f := get(archivo)
		f.Recupero = recupero
		f.CuentasPagadas = pagadas
	}
	return facts, pRows.Err()
}

// BuildHourlyChannel rebuilds the hourly-by-channel rollup from the
// unified interactions.
func (b *Builder) BuildHourlyChannel(ctx context.Context) error {
	err := b.Db.BeginFunc(ctx, func(tx pgx.Tx) error {
		txCtx := b.Db.WithTx(ctx, tx)
		if err := b.Db.Exec(txCtx, `DELETE FROM mart_horario_canal`); err != nil {
			return fmt.Errorf("clear mart_horario_canal: %w", err)
		}
		return b.Db.Exec(txCtx, `
			INSERT INTO mart_horario_canal
				(fecha, hora, canal, archivo, total_gestiones, contactos_efectivos,
				 compromisos, cuentas_contactadas)
			SELECT fecha_gestion::date, hora_gestion, canal, archivo,
			       count(*),
			       count(*) FILTER (WHERE es_contacto_efectivo),
			       count(*) FILTER (WHERE es_compromiso),
			       count(DISTINCT cuenta) FILTER (WHERE es_contacto_efectivo AND cuenta <> '')
			FROM aux_gestiones_unificadas
			GROUP BY fecha_gestion::date, hora_gestion, canal, archivo`)
	})
	if err != nil {
		return fmt.Errorf("build hourly channel mart: %w", err)
	}
	b.Logger.Info("Hourly channel mart built")
	return nil
}

// BuildAgents rebuilds the per-agent productivity rollup. Only human
// channel interactions carry an agent.
func (b *Builder) BuildAgents(ctx context.Context) error {
	err := b.Db.BeginFunc(ctx, func(tx pgx.Tx) error {
		txCtx := b.Db.WithTx(ctx, tx)
		if err := b.Db.Exec(txCtx, `DELETE FROM mart_ejecutivos`); err != nil {
			return fmt.Errorf("clear mart_ejecutivos: %w", err)
		}
		return b.Db.Exec(txCtx, `
			INSERT INTO mart_ejecutivos
				(fecha, ejecutivo, archivo, total_gestiones, contactos_efectivos,
				 compromisos, monto_compromiso, cuentas_gestionadas)
			SELECT fecha_gestion::date, ejecutivo, archivo,
			       count(*),
			       count(*) FILTER (WHERE es_contacto_efectivo),
			       count(*) FILTER (WHERE es_compromiso),
			       COALESCE(sum(monto_compromiso) FILTER (WHERE es_compromiso), 0),
			       count(DISTINCT cuenta) FILTER (WHERE cuenta <> '')
			FROM aux_gestiones_unificadas
			WHERE ejecutivo <> ''
			GROUP BY fecha_gestion::date, ejecutivo, archivo`)
	})
	if err != nil {
		return fmt.Errorf("build agent mart: %w", err)
	}
	b.Logger.Info("Agent mart built")
	return nil
}
