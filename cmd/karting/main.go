// Package main provides the karting command line: race imports, live timing,
// the API server and the crew's driver tools.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yesmonga/karting-sub000/internal/config"
	"github.com/yesmonga/karting-sub000/internal/database"
	"github.com/yesmonga/karting-sub000/internal/logger"
	"github.com/yesmonga/karting-sub000/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	mockMode   bool
	logLevel   string
)

// app holds the dependencies shared by the subcommands
type app struct {
	cfg   *config.Config
	log   *logrus.Logger
	db    *database.DB
	repos *repository.Repositories
}

var rootCmd = &cobra.Command{
	Use:           "karting",
	Short:         "Karting endurance race-data tools",
	Long:          `Imports endurance race results, follows the live timing feed and serves race analytics to the pit crew.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&mockMode, "mock", false, "Use in-memory repositories instead of PostgreSQL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newLiveCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newBallastCmd())
	rootCmd.AddCommand(newDriversCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadApp loads the configuration and opens the repositories
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if mockMode {
		cfg.Features.MockMode = true
		cfg.Database.MockMode = true
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}

	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &app{
		cfg: cfg,
		log: logger.NewLoggerWithOutput(cfg.App.LogLevel, cfg.App.Environment, os.Stderr),
	}

	if cfg.Features.MockMode {
		a.log.Info("Mock mode enabled, using in-memory repositories")
		a.repos = repository.NewMemoryRepositories()
		return a, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	a.db, err = database.Initialize(connectCtx, cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.repos, err = repository.NewRepositories(a.db)
	if err != nil {
		a.db.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}
	a.log.Info("Database connection established")
	return a, nil
}

// Close releases the database connection
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
