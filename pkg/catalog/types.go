package catalog

// JoinType is the SQL join flavor used when walking the table graph
type JoinType string

// Supported join types
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
)

// KPIType distinguishes how a KPI is materialized
type KPIType string

// Supported KPI types
const (
	KPISimple      KPIType = "simple"
	KPIDerived     KPIType = "derived"
	KPIPlaceholder KPIType = "placeholder"
)

// Aggregation is the SQL aggregate applied to a recipe column
type Aggregation string

// Supported aggregations
const (
	AggSum           Aggregation = "SUM"
	AggCount         Aggregation = "COUNT"
	AggAvg           Aggregation = "AVG"
	AggMax           Aggregation = "MAX"
	AggMin           Aggregation = "MIN"
	AggDistinctCount Aggregation = "DISTINCTCOUNT"
)

// JoinDef describes a single edge in the table graph
type JoinDef struct {
	TargetTable string   `json:"target_table"`
	On          string   `json:"on"`
	Type        JoinType `json:"type"`
}

// TableDef describes a warehouse table known to the catalog.
// Joins is keyed by the target alias.
type TableDef struct {
	Alias      string             `json:"alias"`
	TableName  string             `json:"table_name"`
	DateColumn string             `json:"date_column,omitempty"`
	Joins      map[string]JoinDef `json:"joins,omitempty"`
}

// Recipe is the SQL materialization of a simple KPI. Column may be a plain
// column name or a SQL expression (detected by the presence of a parenthesis).
type Recipe struct {
	Table        string      `json:"table"`
	Column       string      `json:"column"`
	Aggregation  Aggregation `json:"aggregation"`
	TimeModifier string      `json:"time_modifier,omitempty"`
}

// KPIDef defines a KPI in the metrics catalog
type KPIDef struct {
	Name        string  `json:"name"`
	Type        KPIType `json:"type"`
	Format      string  `json:"format"`
	Description string  `json:"description,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Target      float64 `json:"target,omitempty"`
	Inverse     bool    `json:"inverse,omitempty"`
	Recipe      *Recipe `json:"recipe,omitempty"`
	Formula     string  `json:"formula,omitempty"`
}

// Modifier customizes how a time modifier is applied to the date filter.
// YearOffset shifts the target year; MonthOp overrides the month comparator.
type Modifier struct {
	Description string `json:"description,omitempty"`
	YearOffset  int    `json:"year_offset,omitempty"`
	MonthOp     string `json:"month_op,omitempty"`
}

// Catalog is the merged metadata context for one tenant
type Catalog struct {
	TenantID  string              `json:"tenant_id"`
	Tables    map[string]TableDef `json:"tables"`
	Metrics   map[string]KPIDef   `json:"metrics"`
	Modifiers map[string]Modifier `json:"modifiers"`
}

// Table returns the table definition for an alias
func (c *Catalog) Table(alias string) (TableDef, bool) {
	t, ok := c.Tables[alias]
	return t, ok
}

// Metric returns the KPI definition for an id
func (c *Catalog) Metric(id string) (KPIDef, bool) {
	m, ok := c.Metrics[id]
	return m, ok
}

// Modifier returns the modifier definition for a name
func (c *Catalog) Modifier(name string) (Modifier, bool) {
	m, ok := c.Modifiers[name]
	return m, ok
}
