package mart

import (
	"math"

	"github.com/pulso-data/pulso-etl/pkg/models"
)

// Round2 rounds to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Pct returns num/den as a percentage rounded to two decimals. A zero
// denominator yields 0, never NaN or Inf.
func Pct(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return Round2(num / den * 100)
}

// Ratio returns num/den rounded to two decimals, 0 on a zero denominator.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return Round2(num / den)
}

// ComputeKPIs fills the derived columns of a dashboard fact from its raw
// counters.
func ComputeKPIs(f *models.DashboardFact) {
	f.CuentasSinGestion = f.CuentasAsignadas - f.CuentasGestionadas
	if f.CuentasSinGestion < 0 {
		f.CuentasSinGestion = 0
	}

	f.PctCober = Pct(float64(f.CuentasGestionadas), float64(f.CuentasGestionables))
	f.PctContac = Pct(float64(f.ContactosEfectivos), float64(f.TotalGestiones))
	f.PctConversion = Pct(float64(f.CuentasPDP), float64(f.ContactosEfectivos))
	f.PctEfectividad = Pct(float64(f.Compromisos), float64(f.ContactosEfectivos))
	f.PctCierre = Pct(f.Recupero, f.DeudaAsignada)
	f.Intensidad = Ratio(float64(f.TotalGestiones), float64(f.CuentasGestionadas))
}
