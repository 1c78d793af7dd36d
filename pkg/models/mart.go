package models

import "time"

// DashboardFact is the per-campaign daily snapshot row of the dashboard mart.
// One row per (fecha_foto, archivo); rebuilt atomically on every run.
type DashboardFact struct {
	FechaFoto time.Time `json:"fecha_foto"`
	Archivo   string    `json:"archivo"`

	CuentasAsignadas    int64 `json:"cuentas_asignadas"`
	CuentasGestionables int64 `json:"cuentas_gestionables"`
	CuentasGestionadas  int64 `json:"cuentas_gestionadas"`
	CuentasSinGestion   int64 `json:"cuentas_sin_gestion"`
	CuentasPDP          int64 `json:"cuentas_pdp"`
	CuentasPagadas      int64 `json:"cuentas_pagadas"`

	TotalGestiones     int64 `json:"total_gestiones"`
	ContactosEfectivos int64 `json:"contactos_efectivos"`
	Compromisos        int64 `json:"compromisos"`

	DeudaAsignada   float64 `json:"deuda_asignada"`
	MontoCompromiso float64 `json:"monto_compromiso"`
	Recupero        float64 `json:"recupero"`

	PctCober       float64 `json:"pct_cober"`
	PctContac      float64 `json:"pct_contac"`
	PctConversion  float64 `json:"pct_conversion"`
	PctEfectividad float64 `json:"pct_efectividad"`
	PctCierre      float64 `json:"pct_cierre"`
	Intensidad     float64 `json:"intensidad"`
}

// HourlyChannelFact is the per-hour interaction rollup by channel.
type HourlyChannelFact struct {
	Fecha   time.Time `json:"fecha"`
	Hora    int       `json:"hora"`
	Canal   string    `json:"canal"`
	Archivo string    `json:"archivo"`

	TotalGestiones     int64 `json:"total_gestiones"`
	ContactosEfectivos int64 `json:"contactos_efectivos"`
	Compromisos        int64 `json:"compromisos"`
	CuentasContactadas int64 `json:"cuentas_contactadas"`
}

// AgentFact is the per-agent daily productivity rollup.
type AgentFact struct {
	Fecha     time.Time `json:"fecha"`
	Ejecutivo string    `json:"ejecutivo"`
	Archivo   string    `json:"archivo"`

	TotalGestiones     int64   `json:"total_gestiones"`
	ContactosEfectivos int64   `json:"contactos_efectivos"`
	Compromisos        int64   `json:"compromisos"`
	MontoCompromiso    float64 `json:"monto_compromiso"`
	CuentasGestionadas int64   `json:"cuentas_gestionadas"`
}
