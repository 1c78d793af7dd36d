package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulso-data/pulso-etl/pkg/models"
)

func TestBuildCuentas_DebtReduction(t *testing.T) {
	asig := []models.Asignacion{
		{Cuenta: "CTA-1", CodLuna: "LUNA-1", Archivo: "CAMP", TramoGestion: "TRAMO_1",
			FechaAsignacion: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	debts := map[string][]DebtSnapshot{
		"CTA-1": {
			{NroDocumento: "D1", FechaProceso: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), MontoExigible: 500},
			{NroDocumento: "D1", FechaProceso: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), MontoExigible: 200},
			{NroDocumento: "D2", FechaProceso: time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC), MontoExigible: 300},
		},
	}

	out := BuildCuentas(asig, debts)
	require.Len(t, out, 1)

	c := out[0]
	// Earliest snapshot per document feeds the opening debt, latest the current.
	assert.Equal(t, float64(800), c.MontoInicial)
	assert.Equal(t, float64(500), c.MontoActual)
	assert.True(t, c.TieneDeudaActiva)
	assert.True(t, c.EsGestionable)
}

func TestBuildCuentas_ExcludedTramoNotGestionable(t *testing.T) {
	asig := []models.Asignacion{
		{Cuenta: "CTA-2", Archivo: "CAMP", TramoGestion: models.TramoExcluido},
	}
	debts := map[string][]DebtSnapshot{
		"CTA-2": {{NroDocumento: "D1", FechaProceso: time.Now(), MontoExigible: 100}},
	}

	out := BuildCuentas(asig, debts)
	require.Len(t, out, 1)
	assert.False(t, out[0].EsGestionable)
}

func TestBuildCuentas_NoDebtNotGestionable(t *testing.T) {
	asig := []models.Asignacion{
		{Cuenta: "CTA-3", Archivo: "CAMP", TramoGestion: "TRAMO_1"},
	}

	out := BuildCuentas(asig, map[string][]DebtSnapshot{})
	require.Len(t, out, 1)
	assert.Zero(t, out[0].MontoInicial)
	assert.False(t, out[0].TieneDeudaActiva)
	assert.False(t, out[0].EsGestionable)
}

func TestBuildCuentas_DuplicateAssignmentsCollapse(t *testing.T) {
	asig := []models.Asignacion{
		{Cuenta: "CTA-4", Archivo: "CAMP", TramoGestion: "TRAMO_1"},
		{Cuenta: "CTA-4", Archivo: "CAMP", TramoGestion: "TRAMO_1"},
		{Cuenta: "CTA-4", Archivo: "CAMP_OTRA", TramoGestion: "TRAMO_1"},
	}

	out := BuildCuentas(asig, map[string][]DebtSnapshot{})
	assert.Len(t, out, 2)
}
