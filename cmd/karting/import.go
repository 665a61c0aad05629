package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yesmonga/karting-sub000/internal/datasource"
	"github.com/yesmonga/karting-sub000/internal/service"
)

type importOptions struct {
	name       string
	track      string
	date       string
	ranking    string
	pitStops   string
	lapHistory string
	dryRun     bool
	stints     bool
}

func newImportCmd() *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the result documents of a race",
		Long: `Parses the ranking, pit-stop and lap history documents of an endurance race
and stores the reconstructed team records. Each document may be a text file,
a PDF or an http(s) URL; at least one is required.`,
		Example: `  karting import --name "24H Lohéac" --track loheac --date 2026-06-13 \
    --ranking classement.pdf --pitstops arrets.pdf --laps tours.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Race name")
	cmd.Flags().StringVar(&opts.track, "track", "", "Track name")
	cmd.Flags().StringVar(&opts.date, "date", "", "Race date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&opts.ranking, "ranking", "", "Ranking document path or URL")
	cmd.Flags().StringVar(&opts.pitStops, "pitstops", "", "Pit-stop report path or URL")
	cmd.Flags().StringVar(&opts.lapHistory, "laps", "", "Lap history path or URL")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse and report without storing")
	cmd.Flags().BoolVar(&opts.stints, "stints", false, "Also print the stints of every team")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runImport(cmd *cobra.Command, opts *importOptions) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	req := service.ImportRequest{
		Name:   opts.name,
		Track:  opts.track,
		DryRun: opts.dryRun || a.cfg.Features.ImportDryRun,
	}
	if opts.date != "" {
		req.RaceDate, err = time.Parse("2006-01-02", opts.date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", opts.date)
		}
	}

	factory := datasource.NewFactory(a.cfg.DataSource, a.log)
	defer factory.HTTPClient().Close()
	req.Source, err = factory.FromLocations(map[datasource.DocumentKind]string{
		datasource.KindRanking:    opts.ranking,
		datasource.KindPitStops:   opts.pitStops,
		datasource.KindLapHistory: opts.lapHistory,
	})
	if err != nil {
		return err
	}

	importer := service.NewImportService(a.repos.Race, a.repos.Result, a.cfg.Parser, a.log)
	result, err := importer.Import(ctx, req)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	out := cmd.OutOrStdout()
	printImportSummary(out, result)
	printTeams(out, result.Teams)
	if opts.stints {
		for _, team := range result.Teams {
			printStints(out, team)
		}
	}
	printWarnings(out, result.Warnings)
	return nil
}
