// Package catalog loads and merges the JSON metadata that drives query building:
// table definitions, KPI definitions and time modifiers. Defaults live under
// <path>/defaults and per-tenant overrides under <path>/tenants/<tenant>.
package catalog

// Config holds metadata catalog configuration
type Config struct {
	// Path is the root directory containing defaults/ and tenants/
	Path string `yaml:"path" default:"metadata"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Path == "" {
		c.Path = "metadata"
	}

	return nil
}
