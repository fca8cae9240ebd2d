package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualifyExpression(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		alias string
		want  string
	}{
		{
			name:  "bare identifiers",
			expr:  "(ingreso - descuento)",
			alias: "h_viaje",
			want:  "(h_viaje.ingreso - h_viaje.descuento)",
		},
		{
			name:  "reserved functions stay bare",
			expr:  "ISNULL(ingreso, 0)",
			alias: "h_viaje",
			want:  "ISNULL(h_viaje.ingreso, 0)",
		},
		{
			name:  "string literal stays untouched",
			expr:  "CASE WHEN estado = 'activo en ruta' THEN monto ELSE 0 END",
			alias: "h_viaje",
			want:  "CASE WHEN h_viaje.estado = 'activo en ruta' THEN h_viaje.monto ELSE 0 END",
		},
		{
			name:  "escaped quote inside literal",
			expr:  "(tipo = 'O''Brien')",
			alias: "h_viaje",
			want:  "(h_viaje.tipo = 'O''Brien')",
		},
		{
			name:  "already qualified stays qualified",
			expr:  "(c_ruta.tarifa * km)",
			alias: "h_viaje",
			want:  "(c_ruta.tarifa * h_viaje.km)",
		},
		{
			name:  "datediff with getdate",
			expr:  "DATEDIFF(day, fecha, GETDATE())",
			alias: "h_cobranza",
			want:  "DATEDIFF(day, h_cobranza.fecha, GETDATE())",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, qualifyExpression(tt.expr, tt.alias))
		})
	}
}

func TestIsExpression(t *testing.T) {
	assert.False(t, isExpression("ingreso"))
	assert.True(t, isExpression("(ingreso - descuento)"))
	assert.True(t, isExpression("ISNULL(ingreso, 0)"))
}
