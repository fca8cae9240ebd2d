package warehouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateDefaults(t *testing.T) {
	cfg := &Config{ConnTemplate: "sqlserver://localhost?database={{ .Database }}"}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 15*time.Second, cfg.QueryTimeout)
	assert.Equal(t, uint32(2), cfg.MaxFails)
	assert.Equal(t, 30*time.Second, cfg.BlockFor)
}

func TestConfigValidateRequiresTemplate(t *testing.T) {
	cfg := &Config{}
	require.ErrorIs(t, cfg.Validate(), ErrConnTemplateRequired)
}

func TestConfigDatabaseMapping(t *testing.T) {
	cfg := &Config{
		ConnTemplate: "x",
		Tenants:      map[string]string{"acme": "DW_ACME"},
	}

	assert.Equal(t, "DW_ACME", cfg.Database("acme"))
	assert.Equal(t, "globex", cfg.Database("globex"))
}

func TestConfigDSN(t *testing.T) {
	cfg := &Config{
		ConnTemplate: "sqlserver://app@db.internal:1433?database={{ .Database }}&tenant={{ .Tenant }}",
		Tenants:      map[string]string{"acme": "DW_ACME"},
	}

	dsn, err := cfg.DSN("acme")
	require.NoError(t, err)
	assert.Equal(t, "sqlserver://app@db.internal:1433?database=DW_ACME&tenant=acme", dsn)
}

func TestConfigDSNEnvFunction(t *testing.T) {
	t.Setenv("WAREHOUSE_PASSWORD", "hunter2")

	cfg := &Config{
		ConnTemplate: `sqlserver://app:{{ env "WAREHOUSE_PASSWORD" }}@db:1433?database={{ .Database }}`,
	}

	dsn, err := cfg.DSN("acme")
	require.NoError(t, err)
	assert.Equal(t, "sqlserver://app:hunter2@db:1433?database=acme", dsn)
}

func TestConfigDSNBadTemplate(t *testing.T) {
	cfg := &Config{ConnTemplate: "{{ .Database"}

	_, err := cfg.DSN("acme")
	require.Error(t, err)
}
