package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yesmonga/karting-sub000/internal/api"
	"github.com/yesmonga/karting-sub000/internal/health"
	"github.com/yesmonga/karting-sub000/internal/metrics"
	"github.com/yesmonga/karting-sub000/internal/service"
)

func newServeCmd() *cobra.Command {
	var withLive bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the race-data API",
		Long: `Starts the HTTP API, the health endpoints and, when a live input is
configured, follows the live timing feed until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, withLive)
		},
	}
	cmd.Flags().BoolVar(&withLive, "live", true, "Follow the configured live input")
	return cmd
}

func runServe(cmd *cobra.Command, withLive bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.log.WithFields(logrus.Fields{
		"environment": a.cfg.App.Environment,
		"version":     Version,
		"mock_mode":   a.cfg.Features.MockMode,
	}).Info("Karting race-data service starting")

	if a.cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	deps := api.Dependencies{
		Repos:   a.repos,
		Import:  service.NewImportService(a.repos.Race, a.repos.Result, a.cfg.Parser, a.log),
		Crew:    service.NewCrewService(a.repos, a.log),
		Ballast: service.NewBallastService(a.repos.Driver, a.cfg.Ballast),
		Logger:  a.log,
	}

	stopped := make(chan struct{})
	close(stopped)
	var liveDone <-chan struct{} = stopped
	if withLive {
		live := service.NewLiveService(a.repos.LiveSession, a.repos.OnboardMessage, a.log)
		feed, relay, err := buildFeed(a, live, true)
		if err != nil {
			a.log.WithError(err).Warn("Live timing disabled")
		} else {
			deps.Live = live
			liveDone = runLiveInBackground(ctx, a, live, feed, relay)
		}
	}

	healthCfg := health.Config{
		ServiceName: a.cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Address:     a.cfg.Health.Address,
		Logger:      a.log,
	}
	if a.db != nil {
		healthCfg.DB = a.db
	}
	healthServer := health.NewServer(healthCfg)
	if err := healthServer.Start(ctx); err != nil {
		return err
	}

	var grpcServer *health.GRPCServer
	if a.cfg.Health.GRPCAddress != "" {
		grpcServer = health.NewGRPCServer(a.cfg.Health.GRPCAddress, a.log)
		if err := grpcServer.Start(ctx); err != nil {
			return err
		}
	}

	server := api.NewServer(a.cfg, deps)
	if err := server.Start(ctx); err != nil {
		return err
	}

	healthServer.SetReady(true)
	if grpcServer != nil {
		grpcServer.SetServing("", true)
	}
	a.log.WithField("address", a.cfg.API.Address).Info("Service ready")

	<-ctx.Done()
	a.log.Info("Shutdown signal received")

	healthServer.SetReady(false)

	// the live session is ended before the database closes
	select {
	case <-liveDone:
	case <-time.After(15 * time.Second):
		a.log.Warn("Live timing did not stop in time")
	}
	return nil
}
