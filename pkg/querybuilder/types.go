// Package querybuilder translates KPI, series and categorical requests into
// single aggregate SQL statements against the tenant warehouse. It is pure:
// the builder holds a merged catalog and performs no I/O.
package querybuilder

import (
	"errors"
	"strconv"
	"strings"
)

// Define static errors
var (
	// ErrUnknownMetric is returned when a metric id is not in the catalog
	ErrUnknownMetric = errors.New("metric not found")
	// ErrUnknownTable is returned when a recipe references a table not in the catalog
	ErrUnknownTable = errors.New("table not found")
	// ErrNoFactTable is returned when no usable fact table can be determined
	ErrNoFactTable = errors.New("no fact table")
	// ErrNoMetrics is returned when a query is requested with no resolvable metrics
	ErrNoMetrics = errors.New("no resolvable metrics")
	// ErrNotSimple is returned when a series/categorical query targets a non-simple KPI
	ErrNotSimple = errors.New("metric is not a simple KPI")
)

// BuildType tells the caller how to treat a build result
type BuildType string

// Build result types
const (
	// BuildSQL means Query/Args should be executed against the warehouse
	BuildSQL BuildType = "sql"
	// BuildDerived means Formula must be resolved recursively by the caller
	BuildDerived BuildType = "derived"
	// BuildPlaceholder means the KPI intentionally resolves to an empty result
	BuildPlaceholder BuildType = "placeholder"
)

// Build is the outcome of a query build request
type Build struct {
	Type    BuildType
	Query   string
	Args    []interface{}
	Formula string
}

// MonthDimension is the pseudo-dimension that groups a query by calendar month
const MonthDimension = "__month__"

// Filter values that mean "no filter" coming from UI selectors
var ignoredFilterValues = map[string]struct{}{
	"todas": {},
	"todos": {},
	"all":   {},
}

// spanishMonths maps lowercase month names to month numbers
var spanishMonths = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4,
	"mayo": 5, "junio": 6, "julio": 7, "agosto": 8,
	"septiembre": 9, "octubre": 10, "noviembre": 11, "diciembre": 12,
}

// FilterContext carries the time selection and free-form column filters for a
// query. Extra keys may be qualified (tbl.col) or bare column names.
type FilterContext struct {
	Year   int                    `json:"year,omitempty"`
	Month  string                 `json:"month,omitempty"`
	Period string                 `json:"period,omitempty"`
	Extra  map[string]interface{} `json:"extra_filters,omitempty"`
}

// MonthNumber resolves the month selection to 1..12. Accepts numeric strings
// and Spanish month names; returns 0 when no month is selected.
func (f FilterContext) MonthNumber() int {
	m := strings.TrimSpace(strings.ToLower(f.Month))
	if m == "" {
		return 0
	}

	if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= 12 {
		return n
	}

	return spanishMonths[m]
}

// ignoredValue reports whether a filter value is a UI "all" sentinel or nil
func ignoredValue(v interface{}) bool {
	if v == nil {
		return true
	}

	if s, ok := v.(string); ok {
		_, skip := ignoredFilterValues[strings.ToLower(s)]
		return skip
	}

	return false
}
