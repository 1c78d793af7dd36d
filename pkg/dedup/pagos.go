package dedup

import (
	"sort"
	"time"

	"github.com/pulso-data/pulso-etl/pkg/models"
)

// PagoInput is one staged payment row with its accumulated sighting
// counters. The staging upsert already collapsed identical sightings, so
// VecesVisto carries how many times this exact payment was loaded.
type PagoInput struct {
	models.PagoSighting
	VecesVisto   int
	PrimeraCarga time.Time
	UltimaCarga  time.Time
}

type dayKey struct {
	cuenta    string
	documento string
	fecha     time.Time
}

// DedupPagos collapses staged payments into one record per
// (documento, fecha, monto), classifies validity and marks exactly one
// payment per day group as the unique one. windows maps archivo to its
// campaign calendar entry for the window check; today bounds the
// future-date and open-window rules.
func DedupPagos(inputs []PagoInput, windows map[string]*models.CampaignWindow, today time.Time) []*models.PagoDedup {
	today = truncateDay(today)

	// Group by account/document/day, then collapse amount duplicates.
	groups := make(map[dayKey][]*models.PagoDedup)
	order := make([]dayKey, 0)
	byAmount := make(map[dayKey]map[float64]*models.PagoDedup)

	for _, in := range inputs {
		key := dayKey{
			cuenta:    in.Cuenta,
			documento: in.NroDocumento,
			fecha:     truncateDay(in.FechaPago),
		}
		amounts, ok := byAmount[key]
		if !ok {
			amounts = make(map[float64]*models.PagoDedup)
			byAmount[key] = amounts
			order = append(order, key)
		}

		rec, seen := amounts[in.MontoCancelado]
		if !seen {
			rec = &models.PagoDedup{
				NroDocumento:      in.NroDocumento,
				FechaPago:         key.fecha,
				MontoCancelado:    in.MontoCancelado,
				Cuenta:            in.Cuenta,
				CodLuna:           in.CodLuna,
				Archivo:           in.Archivo,
				FechaPrimeraCarga: in.PrimeraCarga,
				FechaUltimaCarga:  in.UltimaCarga,
			}
			amounts[in.MontoCancelado] = rec
			groups[key] = append(groups[key], rec)
		}
		rec.VecesVisto += in.VecesVisto
		if in.PrimeraCarga.Before(rec.FechaPrimeraCarga) {
			rec.FechaPrimeraCarga = in.PrimeraCarga
		}
		if in.UltimaCarga.After(rec.FechaUltimaCarga) {
			rec.FechaUltimaCarga = in.UltimaCarga
		}
	}

	out := make([]*models.PagoDedup, 0, len(order))
	for _, key := range order {
		recs := groups[key]

		daySightings := 0
		for _, rec := range recs {
			daySightings += rec.VecesVisto
		}
		for _, rec := range recs {
			rec.TotalPagosMismoDia = daySightings
			rec.EsPagoValido, rec.MotivoRechazo = classify(rec, daySightings, today)
			rec.EstaEnVentana = inWindow(rec, windows, today)
		}
		markUnique(recs)
		out = append(out, recs...)
	}
	return out
}

// classify applies rejection rules in priority order. The first matching
// reason wins.
func classify(rec *models.PagoDedup, daySightings int, today time.Time) (bool, string) {
	switch {
	case rec.MontoCancelado <= 0:
		return false, models.RechazoMontoNoPositivo
	case rec.FechaPago.After(today):
		return false, models.RechazoFechaFutura
	case daySightings > models.MaxPagosPorDia:
		return false, models.RechazoDemasiadosPagos
	default:
		return true, ""
	}
}

// markUnique flags exactly one record per day group: earliest first load
// wins, ties break to the highest amount, then the latest load.
func markUnique(recs []*models.PagoDedup) {
	if len(recs) == 0 {
		return
	}
	ranked := make([]*models.PagoDedup, len(recs))
	copy(ranked, recs)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if !a.FechaPrimeraCarga.Equal(b.FechaPrimeraCarga) {
			return a.FechaPrimeraCarga.Before(b.FechaPrimeraCarga)
		}
		if a.MontoCancelado != b.MontoCancelado {
			return a.MontoCancelado > b.MontoCancelado
		}
		return a.FechaUltimaCarga.After(b.FechaUltimaCarga)
	})
	for _, rec := range ranked {
		rec.EsPagoUnico = false
	}
	ranked[0].EsPagoUnico = true
}

// inWindow checks apertura <= fecha_pago <= (cierre or today). Payments
// whose archivo has no calendar entry fall outside every window.
func inWindow(rec *models.PagoDedup, windows map[string]*models.CampaignWindow, today time.Time) bool {
	w, ok := windows[rec.Archivo]
	if !ok {
		return false
	}
	return w.Contains(rec.FechaPago, today)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
