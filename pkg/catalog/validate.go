package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/heimdalr/dag"
)

// formulaReserved are identifier tokens that never refer to another KPI
var formulaReserved = map[string]struct{}{
	"if":   {},
	"else": {},
}

// FormulaRefs extracts the KPI identifiers referenced by a derived formula.
// Identifiers are runs of letters and underscores; reserved tokens are skipped.
// The result is sorted and de-duplicated.
func FormulaRefs(formula string) []string {
	seen := make(map[string]struct{})

	var b strings.Builder

	flush := func() {
		if b.Len() == 0 {
			return
		}

		tok := b.String()
		b.Reset()

		if _, reserved := formulaReserved[strings.ToLower(tok)]; reserved {
			return
		}

		seen[tok] = struct{}{}
	}

	for _, r := range formula {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
			continue
		}

		flush()
	}

	flush()

	refs := make([]string, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}

	sort.Strings(refs)

	return refs
}

// Validate checks catalog consistency: join targets must exist, simple KPIs
// need a recipe over a known table, derived KPIs need an acyclic formula.
func Validate(c *Catalog) error {
	for alias, table := range c.Tables {
		for target, join := range table.Joins {
			if _, ok := c.Tables[join.TargetTable]; !ok {
				return fmt.Errorf("%w: table %s joins unknown table %s (edge %s)",
					ErrMissingEntity, alias, join.TargetTable, target)
			}
		}
	}

	for id, kpi := range c.Metrics {
		switch kpi.Type {
		case KPISimple:
			if kpi.Recipe == nil {
				return fmt.Errorf("%w: simple KPI %s has no recipe", ErrInvalidKPI, id)
			}

			if _, ok := c.Tables[kpi.Recipe.Table]; !ok {
				return fmt.Errorf("%w: KPI %s references unknown table %s",
					ErrMissingEntity, id, kpi.Recipe.Table)
			}
		case KPIDerived:
			if kpi.Formula == "" {
				return fmt.Errorf("%w: derived KPI %s has no formula", ErrInvalidKPI, id)
			}
		case KPIPlaceholder:
			// Nothing to check
		default:
			return fmt.Errorf("%w: KPI %s has unknown type %q", ErrInvalidKPI, id, kpi.Type)
		}
	}

	return validateFormulaGraph(c)
}

// validateFormulaGraph rejects cyclic derived formulas so that recursive
// resolution always terminates.
func validateFormulaGraph(c *Catalog) error {
	d := dag.NewDAG()

	for id, kpi := range c.Metrics {
		if kpi.Type != KPIDerived {
			continue
		}

		if err := addFormulaVertex(d, id); err != nil {
			return err
		}

		for _, ref := range FormulaRefs(kpi.Formula) {
			if _, known := c.Metrics[ref]; !known {
				return fmt.Errorf("%w: formula of %s references unknown KPI %s",
					ErrMissingEntity, id, ref)
			}

			if err := addFormulaVertex(d, ref); err != nil {
				return err
			}

			if err := d.AddEdge(id, ref); err != nil {
				return fmt.Errorf("%w: %s -> %s", ErrFormulaCycle, id, ref)
			}
		}
	}

	return nil
}

func addFormulaVertex(d *dag.DAG, id string) error {
	if _, err := d.GetVertex(id); err == nil {
		return nil
	}

	if err := d.AddVertexByID(id, id); err != nil {
		return fmt.Errorf("failed to add formula vertex %s: %w", id, err)
	}

	return nil
}
