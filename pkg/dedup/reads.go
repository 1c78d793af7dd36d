package dedup

import (
	"context"
	"fmt"

	"github.com/pulso-data/pulso-etl/pkg/models"
)

func (e *Engine) loadPagoInputs(ctx context.Context) ([]PagoInput, error) {
	rows, err := e.Db.Query(ctx, `
		SELECT nro_documento, fecha_pago, monto_cancelado, cuenta, cod_luna, archivo,
		       fecha_archivo, veces_visto, primera_carga, ultima_carga
		FROM stg_pagos`)
	if err != nil {
		return nil, fmt.Errorf("load staged pagos: %w", err)
	}
	defer rows.Close()

	var out []PagoInput
	for rows.Next() {
		var in PagoInput
		if err := rows.Scan(
			&in.NroDocumento, &in.FechaPago, &in.MontoCancelado, &in.Cuenta,
			&in.CodLuna, &in.Archivo, &in.FechaArchivo,
			&in.VecesVisto, &in.PrimeraCarga, &in.UltimaCarga,
		); err != nil {
			return nil, fmt.Errorf("scan staged pago: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (e *Engine) loadWindows(ctx context.Context) (map[string]*models.CampaignWindow, error) {
	rows, err := e.Db.Query(ctx, `
		SELECT archivo, periodo_date, fecha_apertura, fecha_cierre,
		       tipo_cartera, anno_asignacion, estado_cartera
		FROM stg_calendario`)
	if err != nil {
		return nil, fmt.Errorf("load calendario: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.CampaignWindow)
	for rows.Next() {
		var w models.CampaignWindow
		if err := rows.Scan(
			&w.Archivo, &w.PeriodoDate, &w.FechaApertura, &w.FechaCierre,
			&w.TipoCartera, &w.AnnoAsignacion, &w.EstadoCartera,
		); err != nil {
			return nil, fmt.Errorf("scan calendario: %w", err)
		}
		out[w.Archivo] = &w
	}
	return out, rows.Err()
}

func (e *Engine) loadRules(ctx context.Context, query string) (map[RuleKey]*models.HomologacionRule, error) {
	rows, err := e.Db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[RuleKey]*models.HomologacionRule)
	for rows.Next() {
		var r models.HomologacionRule
		if err := rows.Scan(&r.N1, &r.N2, &r.N3, &r.Contactabilidad, &r.EsCompromiso, &r.PesoGestion); err != nil {
			return nil, fmt.Errorf("scan homologation rule: %w", err)
		}
		out[NormalizeRuleKey(r.N1, r.N2, r.N3)] = &r
	}
	return out, rows.Err()
}

// loadAccounts maps each source document (cod_luna) to its most recent
// campaign account, joined with the current debt from the account build.
func (e *Engine) loadAccounts(ctx context.Context) (map[string]*AccountRef, error) {
	rows, err := e.Db.Query(ctx, `
		SELECT DISTINCT ON (cod_luna) cod_luna, cuenta, archivo, monto_actual
		FROM aux_cuentas_campana
		ORDER BY cod_luna, fecha_asignacion DESC`)
	if err != nil {
		return nil, fmt.Errorf("load account refs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*AccountRef)
	for rows.Next() {
		var codLuna string
		var ref AccountRef
		if err := rows.Scan(&codLuna, &ref.Cuenta, &ref.Archivo, &ref.MontoActual); err != nil {
			return nil, fmt.Errorf("scan account ref: %w", err)
		}
		ref.CodLuna = codLuna
		out[codLuna] = &ref
	}
	return out, rows.Err()
}

func (e *Engine) loadVoicebot(ctx context.Context) ([]models.VoicebotGestion, error) {
	rows, err := e.Db.Query(ctx, `
		SELECT uid, document, date, management, sub_management, compromiso
		FROM stg_voicebot_gestiones`)
	if err != nil {
		return nil, fmt.Errorf("load voicebot gestiones: %w", err)
	}
	defer rows.Close()

	var out []models.VoicebotGestion
	for rows.Next() {
		var g models.VoicebotGestion
		if err := rows.Scan(&g.UID, &g.Document, &g.Date, &g.Management, &g.SubManagement, &g.Compromiso); err != nil {
			return nil, fmt.Errorf("scan voicebot gestion: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (e *Engine) loadMibotair(ctx context.Context) ([]models.MibotairGestion, error) {
	rows, err := e.Db.Query(ctx, `
		SELECT uid, document, date, n1, n2, n3, ejecutivo
		FROM stg_mibotair_gestiones`)
	if err != nil {
		return nil, fmt.Errorf("load mibotair gestiones: %w", err)
	}
	defer rows.Close()

	var out []models.MibotairGestion
	for rows.Next() {
		var g models.MibotairGestion
		if err := rows.Scan(&g.UID, &g.Document, &g.Date, &g.N1, &g.N2, &g.N3, &g.Ejecutivo); err != nil {
			return nil, fmt.Errorf("scan mibotair gestion: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (e *Engine) loadAsignaciones(ctx context.Context) ([]models.Asignacion, error) {
	rows, err := e.Db.Query(ctx, `
		SELECT cod_luna, cuenta, archivo, fecha_asignacion,
		       tramo_gestion, negocio, servicio, dni
		FROM stg_asignaciones`)
	if err != nil {
		return nil, fmt.Errorf("load asignaciones: %w", err)
	}
	defer rows.Close()

	var out []models.Asignacion
	for rows.Next() {
		var a models.Asignacion
		if err := rows.Scan(
			&a.CodLuna, &a.Cuenta, &a.Archivo, &a.FechaAsignacion,
			&a.TramoGestion, &a.Negocio, &a.Servicio, &a.DNI,
		); err != nil {
			return nil, fmt.Errorf("scan asignacion: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// loadDebts groups trandeuda snapshots by cuenta. The document-to-account
// mapping comes from asignaciones: trandeuda's cod_cuenta matches cuenta.
func (e *Engine) loadDebts(ctx context.Context) (map[string][]DebtSnapshot, error) {
	rows, err := e.Db.Query(ctx, `
		SELECT cod_cuenta, nro_documento, fecha_proceso, monto_exigible
		FROM stg_trandeuda`)
	if err != nil {
		return nil, fmt.Errorf("load trandeuda: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]DebtSnapshot)
	for rows.Next() {
		var cuenta string
		var s DebtSnapshot
		if err := rows.Scan(&cuenta, &s.NroDocumento, &s.FechaProceso, &s.MontoExigible); err != nil {
			return nil, fmt.Errorf("scan trandeuda: %w", err)
		}
		out[cuenta] = append(out[cuenta], s)
	}
	return out, rows.Err()
}
