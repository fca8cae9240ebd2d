// Package refresher orchestrates screen refreshes: it resolves each screen's
// roadmap of KPIs, chart series and categoricals through the query builder and
// warehouse executor, injects results into the data context at configured
// paths, and caches the result per tenant fingerprint.
package refresher

import (
	"errors"
	"fmt"
	"time"
)

// Define static errors
var (
	// ErrUnknownScreen is returned when a screen id has no configuration
	ErrUnknownScreen = errors.New("unknown screen")
	// ErrNoSections is returned when a screen declares no sections
	ErrNoSections = errors.New("screen declares no sections")
)

// Categorical output shapes
const (
	OutputChart = "chart"
	OutputTable = "table"
)

// CategoricalSpec declares a top-N style query: one KPI grouped by one
// dimension. Output selects the injected shape explicitly.
type CategoricalSpec struct {
	KPI       string `yaml:"kpi"`
	Dimension string `yaml:"dimension"`
	Output    string `yaml:"output" default:"chart"`
}

// ScreenConfig declares the data composition of one screen
type ScreenConfig struct {
	// SectionKey or SectionKeys select which top-level sections the screen
	// copies from the base template
	SectionKey  string   `yaml:"sectionKey,omitempty"`
	SectionKeys []string `yaml:"sectionKeys,omitempty"`

	// TTL bounds cache freshness; Refresh is the background schedule
	TTL     time.Duration `yaml:"ttl" default:"30s"`
	Refresh string        `yaml:"refresh" default:"@every 30s"`

	// KPIRoadmap maps ui keys to KPI ids
	KPIRoadmap map[string]string `yaml:"kpiRoadmap,omitempty"`
	// ChartRoadmap maps chart keys to series name -> KPI id
	ChartRoadmap map[string]map[string]string `yaml:"chartRoadmap,omitempty"`
	// CategoricalRoadmap maps chart/table keys to categorical specs
	CategoricalRoadmap map[string]CategoricalSpec `yaml:"categoricalRoadmap,omitempty"`
	// InjectPaths maps every roadmap key to its injection path
	InjectPaths map[string][]interface{} `yaml:"injectPaths,omitempty"`
}

// Sections returns the section list for the screen
func (sc *ScreenConfig) Sections() []string {
	if len(sc.SectionKeys) > 0 {
		return sc.SectionKeys
	}

	if sc.SectionKey != "" {
		return []string{sc.SectionKey}
	}

	return nil
}

// Config holds the screen registry and cache defaults
type Config struct {
	DefaultTTL time.Duration            `yaml:"defaultTTL" default:"30s"`
	Screens    map[string]*ScreenConfig `yaml:"screens"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DefaultTTL == 0 {
		c.DefaultTTL = 30 * time.Second
	}

	for id, screen := range c.Screens {
		if len(screen.Sections()) == 0 {
			return fmt.Errorf("%w: %s", ErrNoSections, id)
		}

		if screen.TTL == 0 {
			screen.TTL = c.DefaultTTL
		}

		for _, spec := range screen.CategoricalRoadmap {
			if spec.Output != "" && spec.Output != OutputChart && spec.Output != OutputTable {
				return fmt.Errorf("screen %s: invalid categorical output %q", id, spec.Output)
			}
		}
	}

	return nil
}
