package models

import "time"

// TramoExcluido marks accounts outside the manageable universe.
const TramoExcluido = "EXCLUIDO"

// CuentaCampana is the per-campaign state of one account, derived from
// assignments and debt snapshots.
type CuentaCampana struct {
	Cuenta          string    `json:"cuenta"`
	CodLuna         string    `json:"cod_luna"`
	Archivo         string    `json:"archivo"`
	TramoGestion    string    `json:"tramo_gestion"`
	FechaAsignacion time.Time `json:"fecha_asignacion"`

	MontoInicial     float64 `json:"monto_inicial"`
	MontoActual      float64 `json:"monto_actual"`
	TieneDeudaActiva bool    `json:"tiene_deuda_activa"`

	EsGestionable bool `json:"es_cuenta_gestionable"`
}

// Gestionable reports whether the account counts toward the manageable
// universe for coverage metrics.
func (c *CuentaCampana) Gestionable() bool {
	return c.MontoInicial > 0 && c.TramoGestion != TramoExcluido
}
