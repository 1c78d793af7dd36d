package dedup

import (
	"time"

	"github.com/pulso-data/pulso-etl/pkg/models"
)

// DebtSnapshot is one trandeuda row reduced to what the account build needs.
type DebtSnapshot struct {
	NroDocumento  string
	FechaProceso  time.Time
	MontoExigible float64
}

// BuildCuentas derives per-campaign account state: the opening debt comes
// from the earliest snapshot of each document, the current debt from the
// latest. debts maps cuenta to its snapshots.
func BuildCuentas(asignaciones []models.Asignacion, debts map[string][]DebtSnapshot) []*models.CuentaCampana {
	out := make([]*models.CuentaCampana, 0, len(asignaciones))
	seen := make(map[string]bool, len(asignaciones))

	for _, a := range asignaciones {
		key := a.Cuenta + "\x00" + a.Archivo
		if seen[key] {
			continue
		}
		seen[key] = true

		c := &models.CuentaCampana{
			Cuenta:          a.Cuenta,
			CodLuna:         a.CodLuna,
			Archivo:         a.Archivo,
			TramoGestion:    a.TramoGestion,
			FechaAsignacion: a.FechaAsignacion,
		}
		c.MontoInicial, c.MontoActual = reduceDebt(debts[a.Cuenta])
		c.TieneDeudaActiva = c.MontoActual > 0
		c.EsGestionable = c.Gestionable()
		out = append(out, c)
	}
	return out
}

// reduceDebt sums opening and current debt across a cuenta's documents.
// Each document contributes its earliest snapshot to the opening total and
// its latest to the current total.
func reduceDebt(snapshots []DebtSnapshot) (inicial, actual float64) {
	earliest := make(map[string]DebtSnapshot)
	latest := make(map[string]DebtSnapshot)
	for _, s := range snapshots {
		if e, ok := earliest[s.NroDocumento]; !ok || s.FechaProceso.Before(e.FechaProceso) {
			earliest[s.NroDocumento] = s
		}
		if l, ok := latest[s.NroDocumento]; !ok || s.FechaProceso.After(l.FechaProceso) {
			latest[s.NroDocumento] = s
		}
	}
	for _, s := range earliest {
		inicial += s.MontoExigible
	}
	for _, s := range latest {
		actual += s.MontoExigible
	}
	return inicial, actual
}
