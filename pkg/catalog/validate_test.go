package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexadash/dcx/internal/testutil"
	"github.com/nexadash/dcx/pkg/catalog"
)

func TestFormulaRefs(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		want    []string
	}{
		{
			name:    "simple ratio",
			formula: "costos_totales / kilometros",
			want:    []string{"costos_totales", "kilometros"},
		},
		{
			name:    "deduplicates",
			formula: "(ingresos_totales - costos_totales) / ingresos_totales",
			want:    []string{"costos_totales", "ingresos_totales"},
		},
		{
			name:    "skips reserved and numbers",
			formula: "margen * 100 + if",
			want:    []string{"margen"},
		},
		{
			name:    "empty",
			formula: "1 + 2",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, catalog.FormulaRefs(tt.formula))
		})
	}
}

func TestValidateFixture(t *testing.T) {
	require.NoError(t, catalog.Validate(testutil.NewFleetCatalog()))
}

func TestValidateUnknownJoinTarget(t *testing.T) {
	cat := testutil.NewFleetCatalog()

	table := cat.Tables["h_viaje"]
	table.Joins["c_cliente"] = catalog.JoinDef{TargetTable: "c_cliente", On: "x = y"}
	cat.Tables["h_viaje"] = table

	require.ErrorIs(t, catalog.Validate(cat), catalog.ErrMissingEntity)
}

func TestValidateSimpleWithoutRecipe(t *testing.T) {
	cat := testutil.NewFleetCatalog()
	cat.Metrics["broken"] = catalog.KPIDef{Name: "Broken", Type: catalog.KPISimple}

	require.ErrorIs(t, catalog.Validate(cat), catalog.ErrInvalidKPI)
}

func TestValidateFormulaCycle(t *testing.T) {
	cat := testutil.NewFleetCatalog()
	cat.Metrics["a"] = catalog.KPIDef{Type: catalog.KPIDerived, Formula: "b + 1"}
	cat.Metrics["b"] = catalog.KPIDef{Type: catalog.KPIDerived, Formula: "a + 1"}

	require.ErrorIs(t, catalog.Validate(cat), catalog.ErrFormulaCycle)
}

func TestValidateFormulaUnknownRef(t *testing.T) {
	cat := testutil.NewFleetCatalog()
	cat.Metrics["bad"] = catalog.KPIDef{Type: catalog.KPIDerived, Formula: "no_such_metric * 2"}

	require.ErrorIs(t, catalog.Validate(cat), catalog.ErrMissingEntity)
}
