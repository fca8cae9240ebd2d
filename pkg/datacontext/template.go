package datacontext

// sectionLayout declares every KPI, chart and table key a section exposes.
// Every key the UI reads must appear here so no known path ever resolves to
// null; new KPIs require an entry before a screen can inject them.
type sectionLayout struct {
	kpis   []kpiSeed
	charts []string
	tables []string
}

type kpiSeed struct {
	key    string
	title  string
	format string
	unit   string
}

//nolint:gochecknoglobals // Fixed UI layout catalog
var layouts = map[string]sectionLayout{
	SectionMain: {
		kpis: []kpiSeed{
			{"ingresos_totales", "Ingresos Totales", "currency", "MXN"},
			{"costos_totales", "Costos Totales", "currency", "MXN"},
			{"margen_operativo", "Margen Operativo", "percent", ""},
			{"unidades_activas", "Unidades Activas", "integer", ""},
		},
		charts: []string{"ingresos_mensuales"},
	},
	SectionOperational: {
		kpis: []kpiSeed{
			{"ingreso_viaje", "Ingreso por Viaje", "currency", "MXN"},
			{"viajes", "Viajes", "integer", ""},
			{"kilometros", "Kilómetros", "integer", "km"},
			{"utilizacion", "Utilización", "percent", ""},
			{"ingreso_promedio_viaje", "Ingreso Promedio por Viaje", "currency", "MXN"},
			{"ingreso_promedio_unidad", "Ingreso Promedio por Unidad", "currency", "MXN"},
			{"unidades_utilizadas", "Unidades Utilizadas", "integer", ""},
			{"margen_viaje", "Margen por Viaje", "percent", ""},
			{"costo_km", "Costo por Kilómetro", "currency", "MXN"},
		},
		charts: []string{"ingresos_mensuales", "viajes_mensuales", "ingresos_por_ruta"},
		tables: []string{"costos_por_concepto"},
	},
	SectionAdministration: {
		kpis: []kpiSeed{
			{"cartera_vencida", "Cartera Vencida", "currency", "MXN"},
			{"dias_cartera", "Días de Cartera", "decimal", "días"},
			{"saldo_bancos", "Saldo en Bancos", "currency", "MXN"},
			{"cuentas_por_pagar", "Cuentas por Pagar", "currency", "MXN"},
			{"cobranza_mes", "Cobranza del Mes", "currency", "MXN"},
		},
		charts: []string{"cobranza_mensual"},
		tables: []string{"saldos_por_banco"},
	},
	SectionWorkshop: {
		kpis: []kpiSeed{
			{"disponibilidad", "Disponibilidad de Flota", "percent", ""},
			{"ordenes_abiertas", "Órdenes Abiertas", "integer", ""},
			{"costo_mantenimiento", "Costo de Mantenimiento", "currency", "MXN"},
			{"unidades_en_taller", "Unidades en Taller", "integer", ""},
		},
		charts: []string{"costo_mantenimiento_mensual"},
		tables: []string{"refacciones_criticas"},
	},
}

// NewBaseTemplate builds the zero-valued skeleton for every section. KPIs are
// seeded with a neutral zero result, charts with an all-zero 12-month series,
// and tables with empty header/row pairs.
func NewBaseTemplate() Context {
	ctx := Context{}

	for _, section := range Sections {
		layout := layouts[section]

		kpis := map[string]interface{}{}
		for _, seed := range layout.kpis {
			kpis[seed.key] = ComputeKPI(KPIInput{
				Title:      seed.title,
				Current:    0,
				HasCurrent: true,
				Format:     seed.format,
				Unit:       seed.unit,
				Category:   section,
			})
		}

		charts := map[string]interface{}{}
		for _, key := range layout.charts {
			charts[key] = ZeroSeries(nil)
		}

		tables := map[string]interface{}{}
		for _, key := range layout.tables {
			tables[key] = map[string]interface{}{
				"h": []interface{}{},
				"r": []interface{}{},
			}
		}

		ctx[section] = map[string]interface{}{
			"dashboard": map[string]interface{}{
				"kpis":   kpis,
				"charts": charts,
				"tables": tables,
			},
		}
	}

	return ctx
}

// ZeroSeries builds a 12-month chart payload with the given series names all
// initialized to zero. A nil series list yields labels only.
func ZeroSeries(seriesNames []string) map[string]interface{} {
	labels := make([]interface{}, len(MonthLabels))
	for i, l := range MonthLabels {
		labels[i] = l
	}

	out := map[string]interface{}{"labels": labels}

	for _, name := range seriesNames {
		values := make([]interface{}, len(MonthLabels))
		for i := range values {
			values[i] = 0.0
		}

		out[name] = values
	}

	return out
}

// SliceSections copies the requested sections out of a base context, keeping
// their true top-level names. Unknown sections are skipped.
func SliceSections(base Context, sections []string) Context {
	out := Context{}

	for _, key := range sections {
		if key == "" {
			continue
		}

		if v, ok := base[key]; ok {
			out[key] = v
		}
	}

	return out
}
