// Package warehouse executes SQL against per-tenant warehouse databases with
// health tracking. Connections are created and disposed per call; repeated
// failures open a per-tenant circuit breaker that short-circuits queries.
package warehouse

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// Define static errors
var (
	// ErrConnTemplateRequired is returned when no connection template is configured
	ErrConnTemplateRequired = errors.New("connection template is required")
	// ErrTenantBlocked is returned internally when the breaker is open
	ErrTenantBlocked = errors.New("tenant is blocked")
)

// Config holds warehouse executor configuration
type Config struct {
	// ConnTemplate is a text/template rendering the tenant DSN. The tenant
	// database name is available as {{ .Database }}; credentials can be pulled
	// from the environment with the env template function.
	ConnTemplate string `yaml:"connTemplate"`
	// Tenants optionally maps tenant ids to physical database names.
	// Unmapped tenants use the tenant id as the database name.
	Tenants map[string]string `yaml:"tenants,omitempty"`

	ConnectTimeout time.Duration `yaml:"connectTimeout" default:"3s"`
	QueryTimeout   time.Duration `yaml:"queryTimeout" default:"15s"`

	// MaxFails consecutive failures open the breaker for BlockFor
	MaxFails uint32        `yaml:"maxFails" default:"2"`
	BlockFor time.Duration `yaml:"blockFor" default:"30s"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ConnTemplate == "" {
		return ErrConnTemplateRequired
	}

	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 3 * time.Second
	}

	if c.QueryTimeout == 0 {
		c.QueryTimeout = 15 * time.Second
	}

	if c.MaxFails == 0 {
		c.MaxFails = 2
	}

	if c.BlockFor == 0 {
		c.BlockFor = 30 * time.Second
	}

	return nil
}

// Database maps a tenant id to its physical database name
func (c *Config) Database(tenantID string) string {
	if db, ok := c.Tenants[tenantID]; ok {
		return db
	}

	return tenantID
}

// DSN renders the connection string for a tenant
func (c *Config) DSN(tenantID string) (string, error) {
	tmpl, err := template.New("dsn").Funcs(sprig.TxtFuncMap()).Parse(c.ConnTemplate)
	if err != nil {
		return "", fmt.Errorf("invalid connection template: %w", err)
	}

	var buf bytes.Buffer

	data := struct {
		Tenant   string
		Database string
	}{Tenant: tenantID, Database: c.Database(tenantID)}

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render connection template: %w", err)
	}

	return buf.String(), nil
}
