package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulso-data/pulso-etl/pkg/models"
)

var today = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func pago(monto float64, fechaPago, carga time.Time) PagoInput {
	return PagoInput{
		PagoSighting: models.PagoSighting{
			NroDocumento:   "DOC-1",
			FechaPago:      fechaPago,
			MontoCancelado: monto,
			Cuenta:         "CTA-1",
			CodLuna:        "LUNA-1",
			Archivo:        "CAMP_2025_06",
		},
		VecesVisto:   1,
		PrimeraCarga: carga,
		UltimaCarga:  carga,
	}
}

func openWindow(archivo string) map[string]*models.CampaignWindow {
	return map[string]*models.CampaignWindow{
		archivo: {
			Archivo:       archivo,
			FechaApertura: today.AddDate(0, 0, -30),
		},
	}
}

func TestDedupPagos_CollapsesIdenticalPayments(t *testing.T) {
	fecha := today.AddDate(0, 0, -2)
	carga := today.AddDate(0, 0, -1)

	inputs := []PagoInput{
		pago(100, fecha, carga),
		pago(100, fecha, carga.Add(time.Hour)),
		pago(100, fecha, carga.Add(2*time.Hour)),
		pago(100, fecha, carga.Add(3*time.Hour)),
	}

	out := DedupPagos(inputs, openWindow("CAMP_2025_06"), today)
	require.Len(t, out, 1)

	rec := out[0]
	assert.Equal(t, 4, rec.VecesVisto)
	assert.Equal(t, 4, rec.TotalPagosMismoDia)
	assert.Equal(t, carga, rec.FechaPrimeraCarga)
	assert.Equal(t, carga.Add(3*time.Hour), rec.FechaUltimaCarga)
	assert.False(t, rec.EsPagoValido)
	assert.Equal(t, models.RechazoDemasiadosPagos, rec.MotivoRechazo)
	assert.True(t, rec.EsPagoUnico)
}

func TestDedupPagos_DistinctAmountsSameDay(t *testing.T) {
	fecha := today.AddDate(0, 0, -2)
	carga := today.AddDate(0, 0, -1)

	inputs := []PagoInput{
		pago(100, fecha, carga),
		pago(250, fecha, carga.Add(time.Hour)),
	}

	out := DedupPagos(inputs, openWindow("CAMP_2025_06"), today)
	require.Len(t, out, 2)

	unique := 0
	for _, rec := range out {
		assert.Equal(t, 2, rec.TotalPagosMismoDia)
		assert.True(t, rec.EsPagoValido)
		if rec.EsPagoUnico {
			unique++
			// Earliest first load wins the unique flag.
			assert.Equal(t, float64(100), rec.MontoCancelado)
		}
	}
	assert.Equal(t, 1, unique)
}

func TestDedupPagos_UniqueTieBreaksToHighestAmount(t *testing.T) {
	fecha := today.AddDate(0, 0, -2)
	carga := today.AddDate(0, 0, -1)

	inputs := []PagoInput{
		pago(100, fecha, carga),
		pago(250, fecha, carga),
	}

	out := DedupPagos(inputs, openWindow("CAMP_2025_06"), today)
	require.Len(t, out, 2)

	for _, rec := range out {
		if rec.MontoCancelado == 250 {
			assert.True(t, rec.EsPagoUnico)
		} else {
			assert.False(t, rec.EsPagoUnico)
		}
	}
}

func TestDedupPagos_RejectionPriority(t *testing.T) {
	fecha := today.AddDate(0, 0, 5) // future
	carga := today

	// A non-positive future payment must reject on amount first.
	out := DedupPagos([]PagoInput{pago(-10, fecha, carga)}, openWindow("CAMP_2025_06"), today)
	require.Len(t, out, 1)
	assert.False(t, out[0].EsPagoValido)
	assert.Equal(t, models.RechazoMontoNoPositivo, out[0].MotivoRechazo)

	out = DedupPagos([]PagoInput{pago(50, fecha, carga)}, openWindow("CAMP_2025_06"), today)
	require.Len(t, out, 1)
	assert.False(t, out[0].EsPagoValido)
	assert.Equal(t, models.RechazoFechaFutura, out[0].MotivoRechazo)
}

func TestDedupPagos_WindowCheck(t *testing.T) {
	fecha := today.AddDate(0, 0, -2)
	carga := today.AddDate(0, 0, -1)

	cierre := today.AddDate(0, 0, -10)
	closed := map[string]*models.CampaignWindow{
		"CAMP_2025_06": {
			Archivo:       "CAMP_2025_06",
			FechaApertura: today.AddDate(0, 0, -40),
			FechaCierre:   &cierre,
		},
	}

	out := DedupPagos([]PagoInput{pago(100, fecha, carga)}, closed, today)
	require.Len(t, out, 1)
	// Valid payment, but it landed after the campaign closed.
	assert.True(t, out[0].EsPagoValido)
	assert.False(t, out[0].EstaEnVentana)

	out = DedupPagos([]PagoInput{pago(100, fecha, carga)}, openWindow("CAMP_2025_06"), today)
	require.Len(t, out, 1)
	assert.True(t, out[0].EstaEnVentana)
}

func TestDedupPagos_UnknownCampaignIsOutOfWindow(t *testing.T) {
	fecha := today.AddDate(0, 0, -2)
	out := DedupPagos([]PagoInput{pago(100, fecha, today)}, map[string]*models.CampaignWindow{}, today)
	require.Len(t, out, 1)
	assert.False(t, out[0].EstaEnVentana)
}

func TestDedupPagos_SeparateDaysAreIndependent(t *testing.T) {
	carga := today.AddDate(0, 0, -1)
	inputs := []PagoInput{
		pago(100, today.AddDate(0, 0, -3), carga),
		pago(100, today.AddDate(0, 0, -2), carga),
	}

	out := DedupPagos(inputs, openWindow("CAMP_2025_06"), today)
	require.Len(t, out, 2)
	for _, rec := range out {
		assert.Equal(t, 1, rec.TotalPagosMismoDia)
		assert.True(t, rec.EsPagoUnico)
		assert.True(t, rec.EsPagoValido)
	}
}

func TestDedupPagos_SightingCountersAccumulate(t *testing.T) {
	fecha := today.AddDate(0, 0, -2)
	first := pago(100, fecha, today.AddDate(0, 0, -5))
	second := pago(100, fecha, today.AddDate(0, 0, -1))
	second.VecesVisto = 2

	out := DedupPagos([]PagoInput{first, second}, openWindow("CAMP_2025_06"), today)
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].VecesVisto)
	assert.Equal(t, first.PrimeraCarga, out[0].FechaPrimeraCarga)
	assert.Equal(t, second.UltimaCarga, out[0].FechaUltimaCarga)
}
