package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nexadash/dcx/pkg/catalog"
	"github.com/nexadash/dcx/pkg/warehouse"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	validateCfgFile string
	validateProbe   bool
)

//nolint:gochecknoglobals // Cobra commands are typically global
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and metadata catalogs",
	Long: `Loads the server configuration and the merged catalog for every
configured tenant, checking join targets, recipes and formula cycles.
With --probe each tenant database is also pinged.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateCfgFile, "config", "serve.yaml", "config file (default is serve.yaml)")
	validateCmd.Flags().BoolVar(&validateProbe, "probe", false, "probe tenant database connectivity")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	config, err := loadServeConfigFromFile(validateCfgFile)
	if err != nil {
		return err
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	catalogService, err := catalog.NewService(logger, config.Catalog)
	if err != nil {
		return err
	}

	tenants := []string{""}
	for id := range config.Warehouse.Tenants {
		tenants = append(tenants, id)
	}

	for _, tenant := range tenants {
		cat, catErr := catalogService.GetContext(tenant)
		if catErr != nil {
			return fmt.Errorf("tenant %q: %w", tenant, catErr)
		}

		name := tenant
		if name == "" {
			name = "(defaults)"
		}

		logger.WithFields(logrus.Fields{
			"tenant":      name,
			"tables":      len(cat.Tables),
			"metrics":     len(cat.Metrics),
			"fingerprint": cat.Fingerprint(),
		}).Info("Catalog valid")
	}

	if validateProbe {
		executor, execErr := warehouse.NewExecutor(logger, config.Warehouse)
		if execErr != nil {
			return execErr
		}

		for tenant := range config.Warehouse.Tenants {
			if probeErr := executor.Validate(cmd.Context(), tenant); probeErr != nil {
				return fmt.Errorf("tenant %q: %w", tenant, probeErr)
			}

			logger.WithField("tenant", tenant).Info("Tenant database reachable")
		}
	}

	logger.Info("Validation passed")

	return nil
}
