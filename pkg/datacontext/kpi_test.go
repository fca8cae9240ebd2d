package datacontext

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		prefix string
		format string
		want   string
	}{
		{"billions", 2_500_000_000, "$", "currency", "$2.50B"},
		{"millions", 12_345_678, "$", "currency", "$12.35M"},
		{"thousands", 45_600, "$", "currency", "$45.6k"},
		{"small currency", 987.5, "$", "currency", "$987.50"},
		{"percent", 93.456, "", "percent", "93.5%"},
		{"integer grouping", 1234567, "", "integer", "1,234,567"},
		{"negative thousands", -45600, "", "decimal", "-45.6k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.v, tt.prefix, tt.format))
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$1,234,568", FormatCurrency(1234567.89))
	assert.Equal(t, "$-89", FormatCurrency(-89.2))
}

func TestComputeKPIVsPreviousYear(t *testing.T) {
	out := ComputeKPI(KPIInput{
		Title:      "Ingresos Totales",
		Current:    1100,
		HasCurrent: true,
		Previous:   fptr(1000),
		Format:     "currency",
	})

	assert.Equal(t, "up", out["trend_direction"])
	assert.InDelta(t, 0.10, out["vs_last_year_delta"].(float64), 1e-9)
	assert.Equal(t, "+10.0%", out["vs_last_year_delta_formatted"])
	assert.Equal(t, fmt.Sprintf("Vs %d", time.Now().Year()-1), out["label_prev_year"])
}

func TestComputeKPIStatusBands(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		target  float64
		inverse bool
		want    string
	}{
		{"at target", 100, 100, false, "positive"},
		{"above target", 120, 100, false, "positive"},
		{"within warning band", 95, 100, false, "warning"},
		{"below warning band", 80, 100, false, "negative"},
		{"inverse under target", 80, 100, true, "positive"},
		{"inverse slightly over", 105, 100, true, "warning"},
		{"inverse far over", 130, 100, true, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ComputeKPI(KPIInput{
				Current:    tt.current,
				HasCurrent: true,
				Target:     &tt.target,
				Inverse:    tt.inverse,
				Format:     "currency",
			})
			assert.Equal(t, tt.want, out["status"])
		})
	}
}

func TestComputeKPINeutralWithoutInputs(t *testing.T) {
	out := ComputeKPI(KPIInput{Title: "Viajes", Current: 0, HasCurrent: true, Format: "integer"})

	assert.Equal(t, "neutral", out["status"])
	assert.Equal(t, "neutral", out["trend_direction"])
	assert.Equal(t, "---", out["vs_last_year_formatted"])
	assert.Equal(t, "---", out["target_formatted"])
	assert.Equal(t, "---", out["ytd_formatted"])
	assert.Equal(t, "0", out["value_formatted"])
}

func TestComputeKPIMissingValue(t *testing.T) {
	out := ComputeKPI(KPIInput{Title: "Viajes", Format: "integer"})
	assert.Equal(t, "---", out["value_formatted"])
}

func TestComputeKPIYTD(t *testing.T) {
	out := ComputeKPI(KPIInput{
		Current:     500,
		HasCurrent:  true,
		CurrentYTD:  fptr(60000),
		PreviousYTD: fptr(50000),
		Format:      "currency",
	})

	assert.Equal(t, "$60.0k", out["ytd_formatted"])
	assert.InDelta(t, 0.20, out["ytd_delta"].(float64), 1e-9)
	assert.Equal(t, "+20.0%", out["ytd_delta_formatted"])
}

func TestComputeKPIZeroPreviousNoDelta(t *testing.T) {
	out := ComputeKPI(KPIInput{
		Current:    100,
		HasCurrent: true,
		Previous:   fptr(0),
		Format:     "currency",
	})

	assert.Nil(t, out["vs_last_year_delta"])
	assert.Equal(t, "---", out["vs_last_year_formatted"])
	assert.Equal(t, "neutral", out["trend_direction"])
}
