package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/nexadash/dcx/pkg/catalog"
)

// NewFleetCatalog builds the fleet analytics catalog used across packages:
// trip and cost fact tables with date columns, dimension tables reachable
// through joins, and a mix of simple, derived and placeholder KPIs.
func NewFleetCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		TenantID: "acme",
		Tables: map[string]catalog.TableDef{
			"h_viaje": {
				Alias:      "h_viaje",
				TableName:  "dbo.h_viaje",
				DateColumn: "fecha",
				Joins: map[string]catalog.JoinDef{
					"c_ruta": {
						TargetTable: "c_ruta",
						On:          "h_viaje.id_ruta = c_ruta.id",
					},
					"c_unidad": {
						TargetTable: "c_unidad",
						On:          "h_viaje.id_unidad = c_unidad.id",
						Type:        catalog.JoinLeft,
					},
				},
			},
			"c_ruta": {
				Alias:     "c_ruta",
				TableName: "dbo.c_ruta",
				Joins: map[string]catalog.JoinDef{
					"c_zona": {
						TargetTable: "c_zona",
						On:          "c_ruta.id_zona = c_zona.id",
					},
				},
			},
			"c_zona": {
				Alias:     "c_zona",
				TableName: "dbo.c_zona",
			},
			"c_unidad": {
				Alias:     "c_unidad",
				TableName: "dbo.c_unidad",
			},
			"h_costo": {
				Alias:      "h_costo",
				TableName:  "dbo.h_costo",
				DateColumn: "fecha",
				Joins: map[string]catalog.JoinDef{
					"c_concepto": {
						TargetTable: "c_concepto",
						On:          "h_costo.id_concepto = c_concepto.id",
					},
				},
			},
			"c_concepto": {
				Alias:     "c_concepto",
				TableName: "dbo.c_concepto",
			},
			"c_cartera": {
				Alias:     "c_cartera",
				TableName: "dbo.c_cartera",
			},
			"h_cobranza": {
				Alias:      "h_cobranza",
				TableName:  "dbo.h_cobranza",
				DateColumn: "fecha",
				Joins: map[string]catalog.JoinDef{
					"c_cartera": {
						TargetTable: "c_cartera",
						On:          "h_cobranza.id_cartera = c_cartera.id",
					},
				},
			},
		},
		Metrics: map[string]catalog.KPIDef{
			"ingresos_totales": {
				Name:   "Ingresos Totales",
				Type:   catalog.KPISimple,
				Format: "currency",
				Recipe: &catalog.Recipe{
					Table:       "h_viaje",
					Column:      "ingreso",
					Aggregation: catalog.AggSum,
				},
			},
			"ingreso_neto": {
				Name:   "Ingreso Neto",
				Type:   catalog.KPISimple,
				Format: "currency",
				Recipe: &catalog.Recipe{
					Table:       "h_viaje",
					Column:      "(ingreso - descuento)",
					Aggregation: catalog.AggSum,
				},
			},
			"viajes": {
				Name:   "Viajes",
				Type:   catalog.KPISimple,
				Format: "integer",
				Recipe: &catalog.Recipe{
					Table:       "h_viaje",
					Column:      "id_viaje",
					Aggregation: catalog.AggDistinctCount,
				},
			},
			"kilometros": {
				Name:   "Kilómetros",
				Type:   catalog.KPISimple,
				Format: "integer",
				Recipe: &catalog.Recipe{
					Table:       "h_viaje",
					Column:      "km",
					Aggregation: catalog.AggSum,
				},
			},
			"costos_totales": {
				Name:   "Costos Totales",
				Type:   catalog.KPISimple,
				Format: "currency",
				Recipe: &catalog.Recipe{
					Table:       "h_costo",
					Column:      "importe",
					Aggregation: catalog.AggSum,
				},
			},
			"ingresos_ytd": {
				Name:   "Ingresos YTD",
				Type:   catalog.KPISimple,
				Format: "currency",
				Recipe: &catalog.Recipe{
					Table:        "h_viaje",
					Column:       "ingreso",
					Aggregation:  catalog.AggSum,
					TimeModifier: "ytd",
				},
			},
			"ingresos_prev": {
				Name:   "Ingresos Año Anterior",
				Type:   catalog.KPISimple,
				Format: "currency",
				Recipe: &catalog.Recipe{
					Table:        "h_viaje",
					Column:       "ingreso",
					Aggregation:  catalog.AggSum,
					TimeModifier: "previous_year",
				},
			},
			"cartera_vencida": {
				Name:   "Cartera Vencida",
				Type:   catalog.KPISimple,
				Format: "currency",
				Recipe: &catalog.Recipe{
					Table:       "c_cartera",
					Column:      "saldo_vencido",
					Aggregation: catalog.AggSum,
				},
			},
			"margen_operativo": {
				Name:    "Margen Operativo",
				Type:    catalog.KPIDerived,
				Format:  "percent",
				Formula: "(ingresos_totales - costos_totales) / ingresos_totales",
			},
			"costo_km": {
				Name:    "Costo por Kilómetro",
				Type:    catalog.KPIDerived,
				Format:  "currency",
				Formula: "costos_totales / kilometros",
			},
			"utilizacion": {
				Name:   "Utilización",
				Type:   catalog.KPIPlaceholder,
				Format: "percent",
			},
		},
		Modifiers: map[string]catalog.Modifier{
			"two_years_ago": {
				Description: "Shift the year filter back two years",
				YearOffset:  -2,
			},
		},
	}
}

// WriteMetadata writes the fleet catalog to defaults/ metadata files under a
// temp dir laid out the way the catalog service expects, returning the root.
func WriteMetadata(t *testing.T) string {
	t.Helper()

	cat := NewFleetCatalog()
	dir := t.TempDir()

	defaultsDir := filepath.Join(dir, "defaults")
	if err := os.MkdirAll(defaultsDir, 0o755); err != nil {
		t.Fatalf("failed to create defaults dir: %v", err)
	}

	writeJSON(t, filepath.Join(defaultsDir, "tables.json"), cat.Tables)
	writeJSON(t, filepath.Join(defaultsDir, "metrics.json"), cat.Metrics)
	writeJSON(t, filepath.Join(defaultsDir, "modifiers.json"), cat.Modifiers)

	return dir
}

// WriteTenantMetadata writes per-tenant override files under an existing
// metadata root created by WriteMetadata.
func WriteTenantMetadata(t *testing.T, root, tenantID string, tables map[string]catalog.TableDef, metrics map[string]catalog.KPIDef) {
	t.Helper()

	tenantDir := filepath.Join(root, "tenants", tenantID)
	if err := os.MkdirAll(tenantDir, 0o755); err != nil {
		t.Fatalf("failed to create tenant dir: %v", err)
	}

	if tables != nil {
		writeJSON(t, filepath.Join(tenantDir, "tables.json"), tables)
	}

	if metrics != nil {
		writeJSON(t, filepath.Join(tenantDir, "metrics.json"), metrics)
	}
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %s: %v", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
