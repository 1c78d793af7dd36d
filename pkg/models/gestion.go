package models

import "time"

// Interaction channels.
const (
	CanalBot    = "BOT"
	CanalHumano = "HUMANO"
)

// Contactability categories. SinClasificar is assigned when a raw
// interaction has no matching homologation rule.
const (
	ContactoEfectivo   = "Contacto Efectivo"
	ContactoNoEfectivo = "Contacto No Efectivo"
	SinClasificar      = "SIN_CLASIFICAR"
)

// GestionUnificada is one interaction normalized across channels.
type GestionUnificada struct {
	UID             string    `json:"uid"`
	Canal           string    `json:"canal"`
	CodLuna         string    `json:"cod_luna"`
	Cuenta          string    `json:"cuenta"`
	Archivo         string    `json:"archivo"`
	FechaGestion    time.Time `json:"fecha_gestion"`
	HoraGestion     int       `json:"hora_gestion"`
	Ejecutivo       string    `json:"ejecutivo"`
	Contactabilidad string    `json:"contactabilidad"`

	EsContactoEfectivo bool    `json:"es_contacto_efectivo"`
	EsCompromiso       bool    `json:"es_compromiso"`
	MontoCompromiso    float64 `json:"monto_compromiso"`
	PesoGestion        float64 `json:"peso_gestion"`
}
