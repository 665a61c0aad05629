package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yesmonga/karting-sub000/internal/apex"
	"github.com/yesmonga/karting-sub000/internal/config"
	"github.com/yesmonga/karting-sub000/internal/datasource"
	"github.com/yesmonga/karting-sub000/internal/service"
)

type liveOptions struct {
	name       string
	feedURL    string
	relayURL   string
	replayFile string
	loop       bool
	every      time.Duration
}

func newLiveCmd() *cobra.Command {
	opts := &liveOptions{}
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Follow the live timing feed",
		Long: `Connects to the live timing WebSocket (or polls a relay, or replays a
capture) and prints the timing grid until interrupted. Flags override the
live section of the configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Session name")
	cmd.Flags().StringVar(&opts.feedURL, "feed", "", "Timing WebSocket URL")
	cmd.Flags().StringVar(&opts.relayURL, "relay", "", "Relay snapshot URL")
	cmd.Flags().StringVar(&opts.replayFile, "replay", "", "Replay a captured feed file")
	cmd.Flags().BoolVar(&opts.loop, "loop", false, "Loop the replay")
	cmd.Flags().DurationVar(&opts.every, "print-every", 10*time.Second, "Grid print interval, 0 disables")
	return cmd
}

func runLive(cmd *cobra.Command, opts *liveOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.feedURL != "" {
		a.cfg.Live.FeedURL = opts.feedURL
	}
	if opts.relayURL != "" {
		a.cfg.Live.RelayURL = opts.relayURL
	}
	if opts.replayFile != "" {
		a.cfg.Live.ReplayFile = opts.replayFile
	}

	live := service.NewLiveService(a.repos.LiveSession, a.repos.OnboardMessage, a.log)
	feed, relay, err := buildFeed(a, live, opts.loop)
	if err != nil {
		return err
	}

	if opts.every > 0 {
		go func() {
			ticker := time.NewTicker(opts.every)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					printLiveGrid(cmd.OutOrStdout(), live.State().Snapshot())
				}
			}
		}()
	}

	err = live.Run(ctx, feed, relay, liveRunOptions(a.cfg, opts.name))
	printLiveGrid(cmd.OutOrStdout(), live.State().Snapshot())
	return err
}

// buildFeed picks the live input from the configuration: a replay file
// first, then the WebSocket feed, the relay being polled alongside either
func buildFeed(a *app, live *service.LiveService, loop bool) (apex.Feed, *apex.RelayClient, error) {
	cfg := a.cfg.Live
	var feed apex.Feed

	switch {
	case cfg.ReplayFile != "":
		replay, err := apex.LoadReplayFile(cfg.ReplayFile, cfg.ReplayInterval, loop, live.HandleMessage)
		if err != nil {
			return nil, nil, err
		}
		feed = replay
	case cfg.FeedURL != "":
		streamCfg := apex.DefaultStreamConfig(cfg.FeedURL)
		streamCfg.ReconnectMax = cfg.ReconnectMax
		streamCfg.ReadTimeout = cfg.ReadTimeout
		feed = apex.NewStreamClient(streamCfg, live.HandleMessage, live.Logger())
	}

	var relay *apex.RelayClient
	if cfg.RelayURL != "" {
		client := datasource.NewRateLimitedHTTPClient(datasource.DefaultHTTPClientConfig(), a.log)
		relay = apex.NewRelayClient(cfg.RelayURL, client, live.State(), live.Logger())
	}

	if feed == nil && relay == nil {
		return nil, nil, fmt.Errorf("no live input: set live.feed_url, live.relay_url or live.replay_file")
	}
	return feed, relay, nil
}

func liveRunOptions(cfg *config.Config, name string) service.LiveOptions {
	return service.LiveOptions{
		Name:             name,
		FeedURL:          cfg.Live.FeedURL,
		SnapshotInterval: cfg.Live.SnapshotInterval,
		PollInterval:     cfg.Live.PollInterval,
		Persist:          cfg.Features.PersistLive,
	}
}

// runLiveInBackground follows the live input until ctx is cancelled,
// logging a failure instead of returning it. The returned channel is closed
// once the live session has ended.
func runLiveInBackground(ctx context.Context, a *app, live *service.LiveService, feed apex.Feed, relay *apex.RelayClient) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := live.Run(ctx, feed, relay, liveRunOptions(a.cfg, "")); err != nil {
			a.log.WithError(err).Error("Live timing stopped")
		}
	}()
	return done
}
