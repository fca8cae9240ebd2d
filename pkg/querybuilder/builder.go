package querybuilder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nexadash/dcx/pkg/catalog"
	"github.com/sirupsen/logrus"
)

// Builder builds aggregate SQL statements from a merged catalog
type Builder struct {
	log logrus.FieldLogger
	cat *catalog.Catalog
}

// NewBuilder creates a query builder bound to one tenant catalog
func NewBuilder(log logrus.FieldLogger, cat *catalog.Catalog) *Builder {
	return &Builder{
		log: log.WithField("component", "querybuilder"),
		cat: cat,
	}
}

// BuildKPIQuery builds the scalar query for a single KPI. Derived and
// placeholder KPIs short-circuit without producing SQL.
func (b *Builder) BuildKPIQuery(metricID string, filters FilterContext) (*Build, error) {
	kpi, ok := b.cat.Metric(metricID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, metricID)
	}

	switch kpi.Type {
	case catalog.KPIPlaceholder:
		return &Build{Type: BuildPlaceholder}, nil
	case catalog.KPIDerived:
		return &Build{Type: BuildDerived, Formula: kpi.Formula}, nil
	default:
		return b.buildAggregate([]string{metricID}, nil, filters)
	}
}

// BuildSeriesQuery builds a 12-month time series query for a simple KPI.
// Rows come back as (period, value) with period in 1..12.
func (b *Builder) BuildSeriesQuery(metricID string, filters FilterContext) (*Build, error) {
	if err := b.requireSimple(metricID); err != nil {
		return nil, err
	}

	return b.buildAggregate([]string{metricID}, []string{MonthDimension}, filters)
}

// BuildCategoricalQuery builds a query grouped by one dimension, ordered by
// the aggregate descending. Rows come back as (label, value).
func (b *Builder) BuildCategoricalQuery(metricID, dimension string, filters FilterContext) (*Build, error) {
	if err := b.requireSimple(metricID); err != nil {
		return nil, err
	}

	build, err := b.buildAggregate([]string{metricID}, []string{dimension}, filters)
	if err != nil {
		return nil, err
	}

	build.Query += fmt.Sprintf(" ORDER BY %s DESC", metricID)

	return build, nil
}

func (b *Builder) requireSimple(metricID string) error {
	kpi, ok := b.cat.Metric(metricID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMetric, metricID)
	}

	if kpi.Type != catalog.KPISimple {
		return fmt.Errorf("%w: %s", ErrNotSimple, metricID)
	}

	return nil
}

// buildAggregate is the shared dataframe-style construction: a single SELECT
// aggregating the given metrics grouped by the given dimensions, with time and
// extra filters applied. Metrics without a join path to the fact alias are
// skipped with a warning so the rest of the query still succeeds.
func (b *Builder) buildAggregate(metricIDs, dimensions []string, filters FilterContext) (*Build, error) {
	recipes := make(map[string]catalog.Recipe, len(metricIDs))

	for _, id := range metricIDs {
		kpi, ok := b.cat.Metric(id)
		if !ok || kpi.Recipe == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, id)
		}

		recipes[id] = *kpi.Recipe
	}

	factAlias, err := b.pickFactAlias(metricIDs, recipes)
	if err != nil {
		return nil, err
	}

	factTable, ok := b.cat.Table(factAlias)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, factAlias)
	}

	var (
		joins      []joinStep
		joinsSeen  = map[string]struct{}{factAlias: {}}
		selectCols []string
		groupBy    []string
	)

	addPath := func(target string) bool {
		path := findJoinPath(b.cat.Tables, factAlias, target)
		if path == nil {
			return false
		}

		for _, step := range path {
			if _, dup := joinsSeen[step.Alias]; dup {
				continue
			}

			joinsSeen[step.Alias] = struct{}{}
			joins = append(joins, step)
		}

		return true
	}

	// Dimensions first so series/categorical rows come back (label, value)
	groupsMonth := false

	for _, dim := range dimensions {
		switch {
		case dim == MonthDimension:
			groupsMonth = true
		case strings.Contains(dim, "."):
			parts := strings.SplitN(dim, ".", 2)
			if parts[0] != factAlias && !addPath(parts[0]) {
				b.log.WithField("dimension", dim).Warn("No join path for dimension, skipping")
				continue
			}

			selectCols = append(selectCols, fmt.Sprintf("%s AS '%s'", dim, dim))
			groupBy = append(groupBy, dim)
		default:
			qualified := factAlias + "." + dim
			selectCols = append(selectCols, fmt.Sprintf("%s AS '%s'", qualified, dim))
			groupBy = append(groupBy, qualified)
		}
	}

	// Metric aggregates
	resolved := 0

	for _, id := range metricIDs {
		recipe := recipes[id]

		if recipe.Table != factAlias && !addPath(recipe.Table) {
			b.log.WithFields(logrus.Fields{
				"metric": id,
				"table":  recipe.Table,
			}).Warn("No join path for metric, skipping")

			continue
		}

		selectCols = append(selectCols, fmt.Sprintf("%s AS %s", aggregateExpr(recipe), id))
		resolved++
	}

	if resolved == 0 {
		return nil, fmt.Errorf("%w: fact alias %s", ErrNoMetrics, factAlias)
	}

	// Date handling
	dateCol := b.dateColumn(factAlias, joins)
	args := make([]interface{}, 0, 4)

	var preds []string

	if groupsMonth {
		if dateCol == "" {
			return nil, fmt.Errorf("%w: no date column reachable from %s", ErrNoFactTable, factAlias)
		}

		monthExpr := fmt.Sprintf("MONTH(%s)", dateCol)
		selectCols = append([]string{monthExpr + " AS period"}, selectCols...)
		groupBy = append(groupBy, monthExpr)
	}

	if dateCol != "" && filters.Year != 0 {
		year, monthOp := b.timeShape(metricIDs, recipes, filters)

		args = append(args, year)
		preds = append(preds, fmt.Sprintf("YEAR(%s) = @p%d", dateCol, len(args)))

		if m := filters.MonthNumber(); m != 0 && !groupsMonth {
			args = append(args, m)
			preds = append(preds, fmt.Sprintf("MONTH(%s) %s @p%d", dateCol, monthOp, len(args)))
		}
	}

	// Extra filters: year/month are consumed above, "all" sentinels ignored
	extraKeys := make([]string, 0, len(filters.Extra))
	for k := range filters.Extra {
		extraKeys = append(extraKeys, k)
	}

	sort.Strings(extraKeys)

	for _, k := range extraKeys {
		if k == "year" || k == "month" {
			continue
		}

		v := filters.Extra[k]
		if ignoredValue(v) {
			continue
		}

		col := k
		if !strings.Contains(col, ".") {
			col = factAlias + "." + col
		} else if parts := strings.SplitN(col, ".", 2); parts[0] != factAlias {
			if !addPath(parts[0]) {
				b.log.WithField("filter", k).Warn("No join path for filter, skipping")
				continue
			}
		}

		args = append(args, v)
		preds = append(preds, fmt.Sprintf("%s = @p%d", col, len(args)))
	}

	// Emit
	var q strings.Builder

	q.WriteString("SELECT ")
	q.WriteString(strings.Join(selectCols, ", "))
	q.WriteString(fmt.Sprintf(" FROM %s AS %s", factTable.TableName, factAlias))

	for _, step := range joins {
		target, ok := b.cat.Table(step.Alias)
		if !ok {
			continue
		}

		joinType := step.Join.Type
		if joinType == "" {
			joinType = catalog.JoinInner
		}

		q.WriteString(fmt.Sprintf(" %s JOIN %s AS %s ON %s", joinType, target.TableName, step.Alias, step.Join.On))
	}

	if len(preds) > 0 {
		q.WriteString(" WHERE ")
		q.WriteString(strings.Join(preds, " AND "))
	}

	if len(groupBy) > 0 {
		q.WriteString(" GROUP BY ")
		q.WriteString(strings.Join(groupBy, ", "))
	}

	return &Build{Type: BuildSQL, Query: q.String(), Args: args}, nil
}

// pickFactAlias starts from the first metric's table and, when that table has
// no date column, promotes a date-bearing table that can reach it.
func (b *Builder) pickFactAlias(metricIDs []string, recipes map[string]catalog.Recipe) (string, error) {
	if len(metricIDs) == 0 {
		return "", ErrNoMetrics
	}

	start := recipes[metricIDs[0]].Table

	table, ok := b.cat.Table(start)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTable, start)
	}

	if table.DateColumn != "" {
		return start, nil
	}

	aliases := make([]string, 0, len(b.cat.Tables))
	for alias := range b.cat.Tables {
		aliases = append(aliases, alias)
	}

	sort.Strings(aliases)

	for _, alias := range aliases {
		candidate := b.cat.Tables[alias]
		if candidate.DateColumn == "" {
			continue
		}

		if findJoinPath(b.cat.Tables, alias, start) != nil {
			b.log.WithFields(logrus.Fields{
				"from": start,
				"to":   alias,
			}).Debug("Promoted date-bearing table to fact alias")

			return alias, nil
		}
	}

	return start, nil
}

// dateColumn resolves the qualified date column: the fact table's own date
// column wins, otherwise the first joined table that has one.
func (b *Builder) dateColumn(factAlias string, joins []joinStep) string {
	if fact, ok := b.cat.Table(factAlias); ok && fact.DateColumn != "" {
		return factAlias + "." + fact.DateColumn
	}

	for _, step := range joins {
		if t, ok := b.cat.Table(step.Alias); ok && t.DateColumn != "" {
			return step.Alias + "." + t.DateColumn
		}
	}

	return ""
}

// timeShape applies the time modifiers of the participating recipes to the
// filter year and month comparator. Catalog modifier definitions override the
// built-in ytd/previous_year behavior; the filter period acts as a fallback
// when no recipe carries a modifier.
func (b *Builder) timeShape(metricIDs []string, recipes map[string]catalog.Recipe, filters FilterContext) (year int, monthOp string) {
	year = filters.Year
	monthOp = "="

	modifier := ""

	for _, id := range metricIDs {
		if m := recipes[id].TimeModifier; m != "" {
			modifier = m
			break
		}
	}

	if modifier == "" {
		switch filters.Period {
		case "ytd", "previous_year":
			modifier = filters.Period
		}
	}

	if modifier == "" {
		return year, monthOp
	}

	if def, ok := b.cat.Modifier(modifier); ok {
		year += def.YearOffset

		if def.MonthOp != "" {
			monthOp = def.MonthOp
		}

		return year, monthOp
	}

	switch modifier {
	case "ytd":
		monthOp = "<="
	case "previous_year":
		year--
	}

	return year, monthOp
}

// aggregateExpr renders AGG(expr) for a recipe, qualifying bare identifiers
// when the column is a SQL expression.
func aggregateExpr(recipe catalog.Recipe) string {
	expr := recipe.Column
	if isExpression(expr) {
		expr = qualifyExpression(expr, recipe.Table)
	} else {
		expr = recipe.Table + "." + expr
	}

	agg := recipe.Aggregation
	if agg == "" {
		agg = catalog.AggSum
	}

	if agg == catalog.AggDistinctCount {
		return fmt.Sprintf("COUNT(DISTINCT %s)", expr)
	}

	return fmt.Sprintf("%s(%s)", agg, expr)
}
