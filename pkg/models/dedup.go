package models

import "time"

// Rejection reasons for deduplicated payments, in priority order.
const (
	RechazoMontoNoPositivo = "Monto no positivo"
	RechazoFechaFutura     = "Pago con fecha futura"
	RechazoDemasiadosPagos = "Demasiados pagos en un día"
)

// MaxPagosPorDia is the largest number of distinct amounts accepted for one
// document on a single day before the whole day group is rejected.
const MaxPagosPorDia = 3

// PagoDedup is one deduplicated payment: a unique (documento, fecha, monto)
// combination with sighting metadata accumulated from every raw load.
type PagoDedup struct {
	NroDocumento   string    `json:"nro_documento"`
	FechaPago      time.Time `json:"fecha_pago"`
	MontoCancelado float64   `json:"monto_cancelado"`
	Cuenta         string    `json:"cuenta"`
	CodLuna        string    `json:"cod_luna"`
	Archivo        string    `json:"archivo"`

	VecesVisto         int       `json:"veces_visto"`
	TotalPagosMismoDia int       `json:"total_pagos_mismo_dia"`
	FechaPrimeraCarga  time.Time `json:"fecha_primera_carga"`
	FechaUltimaCarga   time.Time `json:"fecha_ultima_carga"`

	EsPagoUnico   bool   `json:"es_pago_unico"`
	EsPagoValido  bool   `json:"es_pago_valido"`
	MotivoRechazo string `json:"motivo_rechazo"`
	EstaEnVentana bool   `json:"esta_en_ventana"`
}
