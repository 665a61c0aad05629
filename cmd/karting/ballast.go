package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/yesmonga/karting-sub000/internal/service"
)

func newBallastCmd() *cobra.Command {
	var weight, driver, team string
	cmd := &cobra.Command{
		Use:   "ballast",
		Short: "Compute the ballast to reach the minimum weight",
		Example: `  karting ballast --weight 72.5
  karting ballast --team 3f0c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			svc := service.NewBallastService(a.repos.Driver, a.cfg.Ballast)
			out := cmd.OutOrStdout()

			switch {
			case weight != "":
				w, err := decimal.NewFromString(weight)
				if err != nil {
					return fmt.Errorf("invalid --weight %q: %w", weight, err)
				}
				fmt.Fprintf(out, "%s kg\n", svc.ForWeight(w).StringFixed(1))
				return nil
			case driver != "":
				id, err := uuid.Parse(driver)
				if err != nil {
					return fmt.Errorf("invalid --driver %q: %w", driver, err)
				}
				result, err := svc.ForDriver(cmd.Context(), id)
				if err != nil {
					return err
				}
				printBallast(out, []*service.BallastResult{result})
				return nil
			case team != "":
				id, err := uuid.Parse(team)
				if err != nil {
					return fmt.Errorf("invalid --team %q: %w", team, err)
				}
				results, err := svc.ForTeam(cmd.Context(), id)
				if err != nil {
					return err
				}
				printBallast(out, results)
				return nil
			}
			return fmt.Errorf("one of --weight, --driver or --team is required")
		},
	}
	cmd.Flags().StringVar(&weight, "weight", "", "Driver weight in kg")
	cmd.Flags().StringVar(&driver, "driver", "", "Driver ID")
	cmd.Flags().StringVar(&team, "team", "", "Team ID, for every driver of the team")
	cmd.MarkFlagsMutuallyExclusive("weight", "driver", "team")
	return cmd
}
