package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pulso-data/pulso-etl/pkg/models"
	"github.com/pulso-data/pulso-etl/pkg/staging"
)

// Engine recomputes the derived aux tables from staged raw data. Every
// rebuild is delete-then-insert inside one transaction, so readers never
// observe a half-built table and re-runs are idempotent.
type Engine struct {
	Logger *zap.Logger
	Db     *staging.Client
}

// NewEngine returns a dedup engine over the staging database.
func NewEngine(logger *zap.Logger, db *staging.Client) *Engine {
	return &Engine{Logger: logger, Db: db}
}

// RebuildAll recomputes accounts, payments and interactions in dependency
// order: interactions read the account debt produced by the account build.
func (e *Engine) RebuildAll(ctx context.Context, today time.Time) error {
	if err := e.RebuildCuentas(ctx); err != nil {
		return err
	}
	if err := e.RebuildPagos(ctx, today); err != nil {
		return err
	}
	return e.RebuildGestiones(ctx, today)
}

// RebuildPagos recomputes aux_pagos_dedup from the staged payment sightings.
func (e *Engine) RebuildPagos(ctx context.Context, today time.Time) error {
	started := time.Now()

	inputs, err := e.loadPagoInputs(ctx)
	if err != nil {
		return err
	}
	windows, err := e.loadWindows(ctx)
	if err != nil {
		return err
	}

	records := DedupPagos(inputs, windows, today)

	err = e.Db.BeginFunc(ctx, func(tx pgx.Tx) error {
		txCtx := e.Db.WithTx(ctx, tx)
		if err := e.Db.Exec(txCtx, `DELETE FROM aux_pagos_dedup`); err != nil {
			return fmt.Errorf("clear aux_pagos_dedup: %w", err)
		}
		batch := &pgx.Batch{}
		for _, r := range records {
			batch.Queue(`
				INSERT INTO aux_pagos_dedup
					(nro_documento, fecha_pago, monto_cancelado, cuenta, cod_luna, archivo,
					 veces_visto, total_pagos_mismo_dia, fecha_primera_carga, fecha_ultima_carga,
					 es_pago_unico, es_pago_valido, motivo_rechazo, esta_en_ventana)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
				r.NroDocumento, r.FechaPago, r.MontoCancelado, r.Cuenta, r.CodLuna, r.Archivo,
				r.VecesVisto, r.TotalPagosMismoDia, r.FechaPrimeraCarga, r.FechaUltimaCarga,
				r.EsPagoUnico, r.EsPagoValido, r.MotivoRechazo, r.EstaEnVentana)
		}
		return flushBatch(txCtx, tx, batch)
	})
	if err != nil {
		return fmt.Errorf("rebuild pagos dedup: %w", err)
	}

	e.Logger.Info("Payment dedup rebuilt",
		zap.Int("sightings", len(inputs)),
		zap.Int("records", len(records)),
		zap.Duration("duration", time.Since(started)))
	return nil
}

// RebuildGestiones recomputes aux_gestiones_unificadas across both channels.
// Campaign attribution is window-checked: an interaction only binds to its
// account's campaign when its timestamp falls inside that campaign's window.
func (e *Engine) RebuildGestiones(ctx context.Context, today time.Time) error {
	started := time.Now()

	// The six inputs are independent reads, fetch them concurrently.
	var (
		vbRules, mbRules map[RuleKey]*models.HomologacionRule
		accounts         map[string]*AccountRef
		windows          map[string]*models.CampaignWindow
		vb               []models.VoicebotGestion
		mb               []models.MibotairGestion
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		vbRules, err = e.loadRules(groupCtx, `
			SELECT bot_management, bot_sub_management, bot_compromiso,
			       contactabilidad, es_compromiso, peso_gestion
			FROM stg_homologacion_voicebot`)
		if err != nil {
			return fmt.Errorf("load voicebot rules: %w", err)
		}
		return nil
	})
	group.Go(func() (err error) {
		mbRules, err = e.loadRules(groupCtx, `
			SELECT n_1, n_2, n_3, contactabilidad, es_compromiso, peso_gestion
			FROM stg_homologacion_mibotair`)
		if err != nil {
			return fmt.Errorf("load mibotair rules: %w", err)
		}
		return nil
	})
	group.Go(func() (err error) {
		accounts, err = e.loadAccounts(groupCtx)
		return err
	})
	group.Go(func() (err error) {
		windows, err = e.loadWindows(groupCtx)
		return err
	})
	group.Go(func() (err error) {
		vb, err = e.loadVoicebot(groupCtx)
		return err
	})
	group.Go(func() (err error) {
		mb, err = e.loadMibotair(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return err
	}

	unified := make([]*models.GestionUnificada, 0, len(vb)+len(mb))
	for _, g := range vb {
		acct := attributeAccount(accounts[g.Document], windows, g.Date, today)
		unified = append(unified, UnifyVoicebot(g, vbRules, acct))
	}
	for _, g := range mb {
		acct := attributeAccount(accounts[g.Document], windows, g.Date, today)
		unified = append(unified, UnifyMibotair(g, mbRules, acct))
	}

	err := e.Db.BeginFunc(ctx, func(tx pgx.Tx) error {
		txCtx := e.Db.WithTx(ctx, tx)
		if err := e.Db.Exec(txCtx, `DELETE FROM aux_gestiones_unificadas`); err != nil {
			return fmt.Errorf("clear aux_gestiones_unificadas: %w", err)
		}
		batch := &pgx.Batch{}
		for _, u := range unified {
			batch.Queue(`
				INSERT INTO aux_gestiones_unificadas
					(uid, canal, cod_luna, cuenta, archivo, fecha_gestion, hora_gestion,
					 ejecutivo, contactabilidad, es_contacto_efectivo, es_compromiso,
					 monto_compromiso, peso_gestion)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
				ON CONFLICT (uid) DO NOTHING`,
				u.UID, u.Canal, u.CodLuna, u.Cuenta, u.Archivo, u.FechaGestion, u.HoraGestion,
				u.Ejecutivo, u.Contactabilidad, u.EsContactoEfectivo, u.EsCompromiso,
				u.MontoCompromiso, u.PesoGestion)
		}
		return flushBatch(txCtx, tx, batch)
	})
	if err != nil {
		return fmt.Errorf("rebuild gestiones: %w", err)
	}

	e.Logger.Info("Interactions unified",
		zap.Int("voicebot", len(vb)),
		zap.Int("mibotair", len(mb)),
		zap.Duration("duration", time.Since(started)))
	return nil
}

// RebuildCuentas recomputes aux_cuentas_campana from assignments and debt.
func (e *Engine) RebuildCuentas(ctx context.Context) error {
	started := time.Now()

	asignaciones, err := e.loadAsignaciones(ctx)
	if err != nil {
		return err
	}
	debts, err := e.loadDebts(ctx)
	if err != nil {
		return err
	}

	cuentas := BuildCuentas(asignaciones, debts)

	err = e.Db.BeginFunc(ctx, func(tx pgx.Tx) error {
		txCtx := e.Db.WithTx(ctx, tx)
		if err := e.Db.Exec(txCtx, `DELETE FROM aux_cuentas_campana`); err != nil {
			return fmt.Errorf("clear aux_cuentas_campana: %w", err)
		}
		batch := &pgx.Batch{}
		for _, c := range cuentas {
			batch.Queue(`
				INSERT INTO aux_cuentas_campana
					(cuenta, cod_luna, archivo, tramo_gestion, fecha_asignacion,
					 monto_inicial, monto_actual, tiene_deuda_activa, es_cuenta_gestionable)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
				c.Cuenta, c.CodLuna, c.Archivo, c.TramoGestion, c.FechaAsignacion,
				c.MontoInicial, c.MontoActual, c.TieneDeudaActiva, c.EsGestionable)
		}
		return flushBatch(txCtx, tx, batch)
	})
	if err != nil {
		return fmt.Errorf("rebuild cuentas: %w", err)
	}

	e.Logger.Info("Campaign accounts rebuilt",
		zap.Int("cuentas", len(cuentas)),
		zap.Duration("duration", time.Since(started)))
	return nil
}

func flushBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return nil
}
