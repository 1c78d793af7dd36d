package config

// Table names used across the pipeline.
const (
	TableCalendario           = "calendario"
	TableAsignaciones         = "asignaciones"
	TableTrandeuda            = "trandeuda"
	TablePagos                = "pagos"
	TableVoicebotGestiones    = "voicebot_gestiones"
	TableMibotairGestiones    = "mibotair_gestiones"
	TableHomologacionVoicebot = "homologacion_voicebot"
	TableHomologacionMibotair = "homologacion_mibotair"
	TableEjecutivos           = "ejecutivos"
)

func defaultTables() map[string]*TableConfig {
	return map[string]*TableConfig{
		TableCalendario: {
			Name:            TableCalendario,
			QueryName:       "calendario",
			StagingTable:    "stg_calendario",
			Mode:            ModeIncremental,
			TimestampColumn: "fecha_actualizacion",
			NaturalKeys:     []string{"archivo"},
			Columns: []string{
				"archivo", "periodo_date", "fecha_apertura", "fecha_cierre",
				"tipo_cartera", "anno_asignacion", "estado_cartera", "fecha_actualizacion",
			},
			LookbackDays: 7,
			BatchSize:    10000,
			Priority:     100,
		},
		TableAsignaciones: {
			Name:            TableAsignaciones,
			QueryName:       "asignaciones",
			StagingTable:    "stg_asignaciones",
			Mode:            ModeIncremental,
			TimestampColumn: "fecha_asignacion",
			NaturalKeys:     []string{"cod_luna", "cuenta", "archivo", "fecha_asignacion"},
			Columns: []string{
				"cod_luna", "cuenta", "archivo", "fecha_asignacion",
				"tramo_gestion", "negocio", "servicio", "dni",
			},
			LookbackDays: 7,
			BatchSize:    50000,
			Priority:     90,
		},
		TableTrandeuda: {
			Name:            TableTrandeuda,
			QueryName:       "trandeuda",
			StagingTable:    "stg_trandeuda",
			Mode:            ModeIncremental,
			TimestampColumn: "fecha_proceso",
			NaturalKeys:     []string{"cod_cuenta", "nro_documento", "archivo", "fecha_proceso"},
			Columns: []string{
				"cod_cuenta", "nro_documento", "archivo", "fecha_proceso", "monto_exigible",
			},
			LookbackDays: 7,
			BatchSize:    100000,
			Priority:     80,
		},
		TablePagos: {
			Name:            TablePagos,
			QueryName:       "pagos",
			StagingTable:    "stg_pagos",
			Mode:            ModeIncremental,
			TimestampColumn: "fecha_archivo",
			NaturalKeys:     []string{"nro_documento", "fecha_pago", "monto_cancelado"},
			Columns: []string{
				"nro_documento", "fecha_pago", "monto_cancelado",
				"cuenta", "cod_luna", "archivo", "fecha_archivo",
			},
			LookbackDays: 7,
			BatchSize:    50000,
			Priority:     70,
		},
		TableVoicebotGestiones: {
			Name:            TableVoicebotGestiones,
			QueryName:       "voicebot_gestiones",
			StagingTable:    "stg_voicebot_gestiones",
			Mode:            ModeIncremental,
			TimestampColumn: "date",
			NaturalKeys:     []string{"uid"},
			Columns: []string{
				"uid", "document", "date", "management", "sub_management", "compromiso",
			},
			LookbackDays: 7,
			BatchSize:    50000,
			Priority:     60,
		},
		TableMibotairGestiones: {
			Name:            TableMibotairGestiones,
			QueryName:       "mibotair_gestiones",
			StagingTable:    "stg_mibotair_gestiones",
			Mode:            ModeIncremental,
			TimestampColumn: "date",
			NaturalKeys:     []string{"uid"},
			Columns: []string{
				"uid", "document", "date", "n1", "n2", "n3", "ejecutivo",
			},
			LookbackDays: 7,
			BatchSize:    50000,
			Priority:     60,
		},
		TableHomologacionVoicebot: {
			Name:         TableHomologacionVoicebot,
			QueryName:    "homologacion_voicebot",
			StagingTable: "stg_homologacion_voicebot",
			Mode:         ModeFullRefresh,
			NaturalKeys:  []string{"bot_management", "bot_sub_management", "bot_compromiso"},
			Columns: []string{
				"bot_management", "bot_sub_management", "bot_compromiso",
				"contactabilidad", "es_compromiso", "peso_gestion",
			},
			BatchSize: 10000,
			Priority:  50,
		},
		TableHomologacionMibotair: {
			Name:         TableHomologacionMibotair,
			QueryName:    "homologacion_mibotair",
			StagingTable: "stg_homologacion_mibotair",
			Mode:         ModeFullRefresh,
			NaturalKeys:  []string{"n_1", "n_2", "n_3"},
			Columns: []string{
				"n_1", "n_2", "n_3", "contactabilidad", "es_compromiso", "peso_gestion",
			},
			BatchSize: 10000,
			Priority:  50,
		},
		TableEjecutivos: {
			Name:         TableEjecutivos,
			QueryName:    "ejecutivos",
			StagingTable: "stg_ejecutivos",
			Mode:         ModeFullRefresh,
			NaturalKeys:  []string{"correo_name"},
			Columns:      []string{"correo_name", "nombre", "equipo"},
			BatchSize:    10000,
			Priority:     40,
		},
	}
}
