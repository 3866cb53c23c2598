package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/formweave/formweave/internal/config"
	"github.com/formweave/formweave/internal/engine"
	"github.com/formweave/formweave/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
	commit   = "none"
	date     = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "formweave",
	Short: "Schema-driven UI engine",
	Long: `Formweave manages versioned UI schema documents: validate drafts,
activate them for rendering clients, preview forms in the terminal, and
serve the registry over HTTP.`,
}

func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.formweave/formweave.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig reads the config file, falling back to built-in defaults
// when none exists and no explicit path was given.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		if cfgFile == "" && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// setup builds the logger and engine shared by the registry commands.
func setup(ctx context.Context) (*engine.Engine, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err := logging.Setup(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("setting up logging: %w", err)
	}

	eng := engine.New(cfg, logger)
	if err := eng.Open(ctx); err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return eng, logger, nil
}
