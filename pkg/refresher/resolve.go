package refresher

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nexadash/dcx/pkg/catalog"
	"github.com/nexadash/dcx/pkg/datacontext"
	"github.com/nexadash/dcx/pkg/observability"
	"github.com/nexadash/dcx/pkg/querybuilder"
	"github.com/nexadash/dcx/pkg/warehouse"
)

// refreshSession resolves KPI values for one screen refresh. Resolved values
// are memoized so a KPI shared by several formulas hits the warehouse once.
type refreshSession struct {
	log      logrus.FieldLogger
	executor warehouse.Executor
	builder  *querybuilder.Builder
	cat      *catalog.Catalog
	tenantID string
	filters  querybuilder.FilterContext
	memo     map[string]float64
}

// resolveKPI resolves any KPI to a scalar. Failures resolve to zero so one
// broken KPI never takes down the rest of the screen.
func (s *refreshSession) resolveKPI(ctx context.Context, kpiID string) float64 {
	if v, ok := s.memo[kpiID]; ok {
		return v
	}

	// Pre-seed so a formula cycle terminates at zero instead of recursing
	s.memo[kpiID] = 0

	build, err := s.builder.BuildKPIQuery(kpiID, s.filters)
	if err != nil {
		s.log.WithError(err).WithField("kpi", kpiID).Warn("Failed to build KPI query")
		observability.KPIResolutions.WithLabelValues("simple", "error").Inc()

		return 0
	}

	var value float64

	switch build.Type {
	case querybuilder.BuildPlaceholder:
		observability.KPIResolutions.WithLabelValues("placeholder", "success").Inc()
	case querybuilder.BuildDerived:
		value = s.resolveDerived(ctx, kpiID, build.Formula)
	default:
		value = s.resolveScalar(ctx, kpiID, build)
	}

	s.memo[kpiID] = value

	return value
}

func (s *refreshSession) resolveScalar(ctx context.Context, kpiID string, build *querybuilder.Build) float64 {
	rows, err := s.executor.Execute(ctx, s.tenantID, build.Query, build.Args...)
	if err != nil {
		observability.KPIResolutions.WithLabelValues("simple", "error").Inc()
		return 0
	}

	observability.KPIResolutions.WithLabelValues("simple", "success").Inc()

	if len(rows) == 0 {
		return 0
	}

	if v, ok := rows[0][kpiID]; ok {
		return toFloat(v)
	}

	for _, v := range rows[0] {
		return toFloat(v)
	}

	return 0
}

// resolveDerived resolves every catalog metric the formula references, then
// evaluates the arithmetic. Evaluation failures resolve to zero.
func (s *refreshSession) resolveDerived(ctx context.Context, kpiID, formula string) float64 {
	vars := make(map[string]float64)

	for _, ref := range catalog.FormulaRefs(formula) {
		if _, ok := s.cat.Metric(ref); ok {
			vars[strings.ToLower(ref)] = s.resolveKPI(ctx, ref)
		}
	}

	value, err := evalFormula(formula, vars)
	if err != nil {
		s.log.WithError(err).WithField("kpi", kpiID).Warn("Failed to evaluate formula")
		observability.KPIResolutions.WithLabelValues("derived", "error").Inc()

		return 0
	}

	observability.KPIResolutions.WithLabelValues("derived", "success").Inc()

	return value
}

// resolveSeries resolves a simple KPI into 12 monthly values. Months with no
// rows, and any failure, stay at zero.
func (s *refreshSession) resolveSeries(ctx context.Context, kpiID string) []interface{} {
	values := make([]interface{}, 12)
	for i := range values {
		values[i] = 0.0
	}

	build, err := s.builder.BuildSeriesQuery(kpiID, s.filters)
	if err != nil {
		s.log.WithError(err).WithField("kpi", kpiID).Warn("Failed to build series query")
		return values
	}

	rows, err := s.executor.Execute(ctx, s.tenantID, build.Query, build.Args...)
	if err != nil {
		return values
	}

	for _, row := range rows {
		period := int(toFloat(row["period"]))
		if period < 1 || period > 12 {
			continue
		}

		values[period-1] = toFloat(row[kpiID])
	}

	return values
}

// resolveCategorical resolves a KPI grouped by a dimension into either a
// labels/values chart payload or a formatted two-column table payload.
func (s *refreshSession) resolveCategorical(ctx context.Context, spec CategoricalSpec) map[string]interface{} {
	labels := []interface{}{}
	values := []interface{}{}

	build, err := s.builder.BuildCategoricalQuery(spec.KPI, spec.Dimension, s.filters)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"kpi":       spec.KPI,
			"dimension": spec.Dimension,
		}).Warn("Failed to build categorical query")
	} else {
		rows, execErr := s.executor.Execute(ctx, s.tenantID, build.Query, build.Args...)
		if execErr == nil {
			for _, row := range rows {
				labels = append(labels, labelString(row[spec.Dimension]))
				values = append(values, toFloat(row[spec.KPI]))
			}
		}
	}

	if spec.Output == OutputTable {
		tableRows := make([]interface{}, 0, len(labels))
		for i := range labels {
			tableRows = append(tableRows, []interface{}{
				labels[i],
				datacontext.FormatCurrency(toFloat(values[i])),
			})
		}

		return map[string]interface{}{
			"h": []interface{}{"Concepto", "Valor"},
			"r": tableRows,
		}
	}

	return map[string]interface{}{
		"labels": labels,
		"values": values,
	}
}

// toFloat coerces the driver value zoo to float64; anything unrecognized is zero
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case []byte:
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0
		}

		return f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}

		return f
	default:
		return 0
	}
}

func labelString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}
