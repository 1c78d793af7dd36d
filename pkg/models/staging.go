package models

import "time"

// Asignacion is one account assigned to a campaign.
type Asignacion struct {
	CodLuna         string    `json:"cod_luna"`
	Cuenta          string    `json:"cuenta"`
	Archivo         string    `json:"archivo"`
	FechaAsignacion time.Time `json:"fecha_asignacion"`
	TramoGestion    string    `json:"tramo_gestion"`
	Negocio         string    `json:"negocio"`
	Servicio        string    `json:"servicio"`
	DNI             string    `json:"dni"`
}

// Trandeuda is one daily debt snapshot for an account document.
type Trandeuda struct {
	CodCuenta     string    `json:"cod_cuenta"`
	NroDocumento  string    `json:"nro_documento"`
	Archivo       string    `json:"archivo"`
	FechaProceso  time.Time `json:"fecha_proceso"`
	MontoExigible float64   `json:"monto_exigible"`
}

// PagoSighting is one raw payment row as staged, before deduplication.
// The same logical payment can appear many times across re-extracted loads.
type PagoSighting struct {
	NroDocumento   string    `json:"nro_documento"`
	FechaPago      time.Time `json:"fecha_pago"`
	MontoCancelado float64   `json:"monto_cancelado"`
	Cuenta         string    `json:"cuenta"`
	CodLuna        string    `json:"cod_luna"`
	Archivo        string    `json:"archivo"`
	FechaArchivo   time.Time `json:"fecha_archivo"`
}

// VoicebotGestion is a raw automated-channel interaction.
type VoicebotGestion struct {
	UID           string    `json:"uid"`
	Document      string    `json:"document"`
	Date          time.Time `json:"date"`
	Management    string    `json:"management"`
	SubManagement string    `json:"sub_management"`
	Compromiso    string    `json:"compromiso"`
}

// MibotairGestion is a raw human-channel interaction.
type MibotairGestion struct {
	UID       string    `json:"uid"`
	Document  string    `json:"document"`
	Date      time.Time `json:"date"`
	N1        string    `json:"n1"`
	N2        string    `json:"n2"`
	N3        string    `json:"n3"`
	Ejecutivo string    `json:"ejecutivo"`
}

// HomologacionRule maps one channel-specific raw classification to the
// normalized business categories.
type HomologacionRule struct {
	N1              string  `json:"n_1"`
	N2              string  `json:"n_2"`
	N3              string  `json:"n_3"`
	Contactabilidad string  `json:"contactabilidad"`
	EsCompromiso    bool    `json:"es_compromiso"`
	PesoGestion     float64 `json:"peso_gestion"`
}

// Ejecutivo is one collections agent.
type Ejecutivo struct {
	CorreoName string `json:"correo_name"`
	Nombre     string `json:"nombre"`
	Equipo     string `json:"equipo"`
}
