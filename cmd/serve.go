package cmd

import (
	"os"

	"github.com/creasty/defaults"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nexadash/dcx/pkg/refresher"
	"github.com/nexadash/dcx/pkg/server"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	serveCfgFile    string
	serveScreenFile string
)

//nolint:gochecknoglobals // Cobra commands are typically global
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dcx server",
	Long: `Starts the API server, the background refresh worker and the
refresh scheduler.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveCfgFile, "config", "serve.yaml", "config file (default is serve.yaml)")
	serveCmd.Flags().StringVar(&serveScreenFile, "screens", "", "screen registry file (overrides the refresher section)")
}

func loadServeConfigFromFile(file string) (*server.Config, error) {
	if file == "" {
		file = "serve.yaml"
	}

	config := &server.Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(file) //nolint:gosec // User-provided config file path
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}

func loadScreensFromFile(file string) (*refresher.Config, error) {
	config := &refresher.Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(file) //nolint:gosec // User-provided config file path
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config, err := loadServeConfigFromFile(serveCfgFile)
	if err != nil {
		return err
	}

	if serveScreenFile != "" {
		screens, loadErr := loadScreensFromFile(serveScreenFile)
		if loadErr != nil {
			return loadErr
		}

		config.Refresher = screens
	}

	level, err := logrus.ParseLevel(config.LoggingLevel)
	if err != nil {
		return err
	}

	logger.SetLevel(level)
	logger.Info("Configuration loaded")

	srv, err := server.NewServer(cmd.Context(), logger, config)
	if err != nil {
		return err
	}

	return srv.Start(cmd.Context())
}
