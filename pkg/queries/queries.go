package queries

import (
	"fmt"
	"strings"
)

// FilterPlaceholder marks where the range predicate is injected into a
// source query. Every incremental query must carry it exactly once.
const FilterPlaceholder = "{{incremental_filter}}"

var templates = map[string]string{
	"calendario": `
		SELECT archivo, periodo_date, fecha_apertura, fecha_cierre,
		       tipo_cartera, anno_asignacion, estado_cartera, fecha_actualizacion
		FROM raw.calendario
		WHERE {{incremental_filter}}`,

	"asignaciones": `
		SELECT cod_luna, cuenta, archivo, fecha_asignacion,
		       tramo_gestion, negocio, servicio, dni
		FROM raw.asignaciones
		WHERE {{incremental_filter}}`,

	"trandeuda": `
		SELECT cod_cuenta, nro_documento, archivo, fecha_proceso, monto_exigible
		FROM raw.trandeuda
		WHERE {{incremental_filter}}`,

	"pagos": `
		SELECT nro_documento, fecha_pago, monto_cancelado,
		       cuenta, cod_luna, archivo, fecha_archivo
		FROM raw.pagos
		WHERE {{incremental_filter}}`,

	"voicebot_gestiones": `
		SELECT uid, document, date, management, sub_management, compromiso
		FROM raw.voicebot_gestiones
		WHERE {{incremental_filter}}`,

	"mibotair_gestiones": `
		SELECT uid, document, date, n1, n2, n3, ejecutivo
		FROM raw.mibotair_gestiones
		WHERE {{incremental_filter}}`,

	"homologacion_voicebot": `
		SELECT bot_management, bot_sub_management, bot_compromiso,
		       contactabilidad, es_compromiso, peso_gestion
		FROM raw.homologacion_voicebot
		WHERE {{incremental_filter}}`,

	"homologacion_mibotair": `
		SELECT n_1, n_2, n_3, contactabilidad, es_compromiso, peso_gestion
		FROM raw.homologacion_mibotair
		WHERE {{incremental_filter}}`,

	"ejecutivos": `
		SELECT correo_name, nombre, equipo
		FROM raw.ejecutivos
		WHERE {{incremental_filter}}`,
}

// Get returns the raw template for a query, validating its placeholder.
func Get(name string) (string, error) {
	tpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown query: %s", name)
	}
	if strings.Count(tpl, FilterPlaceholder) != 1 {
		return "", fmt.Errorf("query %s: expected exactly one %s placeholder", name, FilterPlaceholder)
	}
	return tpl, nil
}

// Render substitutes the range predicate into a query template. An empty
// filter renders as 1=1, which turns the query into a full refresh.
func Render(name, filter string) (string, error) {
	tpl, err := Get(name)
	if err != nil {
		return "", err
	}
	if filter == "" {
		filter = "1=1"
	}
	return strings.Replace(tpl, FilterPlaceholder, filter, 1), nil
}

// Names returns all registered query names.
func Names() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	return names
}
