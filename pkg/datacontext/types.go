// Package datacontext owns the nested JSON tree handed to the dashboard UI:
// the zero-valued base template, the KPI result shape, and path injection.
// The refresher mutates contexts in place; consumers get immutable snapshots.
package datacontext

import (
	"github.com/goccy/go-json"
)

// Context is the nested data tree for one or more dashboard sections
type Context = map[string]interface{}

// Top-level sections of the data context
const (
	SectionMain           = "main"
	SectionOperational    = "operational"
	SectionAdministration = "administration"
	SectionWorkshop       = "workshop"
)

// Sections lists all top-level sections in template order
//
//nolint:gochecknoglobals // Fixed section catalog
var Sections = []string{SectionMain, SectionOperational, SectionAdministration, SectionWorkshop}

// MonthLabels are the fixed series labels for 12-month charts
//
//nolint:gochecknoglobals // Fixed label catalog
var MonthLabels = []string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// Clone deep-copies a context so cached data can be handed out as a snapshot
func Clone(ctx Context) Context {
	raw, err := json.Marshal(ctx)
	if err != nil {
		return Context{}
	}

	out := Context{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Context{}
	}

	return out
}
