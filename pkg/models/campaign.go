package models

import "time"

// CampaignWindow is one collections campaign as defined by the calendario
// dimension. FechaCierre is nil while the campaign is still open.
type CampaignWindow struct {
	Archivo        string     `json:"archivo"`
	PeriodoDate    time.Time  `json:"periodo_date"`
	FechaApertura  time.Time  `json:"fecha_apertura"`
	FechaCierre    *time.Time `json:"fecha_cierre,omitempty"`
	TipoCartera    string     `json:"tipo_cartera"`
	AnnoAsignacion int        `json:"anno_asignacion"`
	EstadoCartera  string     `json:"estado_cartera"`
}

// End returns the effective end of the attribution window: the closing date
// when set, otherwise today.
func (c CampaignWindow) End(today time.Time) time.Time {
	if c.FechaCierre != nil {
		return *c.FechaCierre
	}
	return today
}

// Contains reports whether ts falls inside [apertura, cierre ?? today].
// Comparison is at day granularity; both bounds are inclusive.
func (c CampaignWindow) Contains(ts time.Time, today time.Time) bool {
	day := truncateDay(ts)
	open := truncateDay(c.FechaApertura)
	end := truncateDay(c.End(today))
	return !day.Before(open) && !day.After(end)
}

// IsOpen reports whether the campaign has no closing date, or closes on or
// after today.
func (c CampaignWindow) IsOpen(today time.Time) bool {
	if c.FechaCierre == nil {
		return true
	}
	return !truncateDay(*c.FechaCierre).Before(truncateDay(today))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
