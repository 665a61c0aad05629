package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/yesmonga/karting-sub000/internal/service"
)

func newDriversCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "Manage the crew's teams and drivers",
	}
	cmd.AddCommand(newDriversListCmd())
	cmd.AddCommand(newTeamAddCmd())
	cmd.AddCommand(newDriverAddCmd())
	cmd.AddCommand(newDriverAssignCmd())
	return cmd
}

func newDriversListCmd() *cobra.Command {
	var team string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the teams, or the drivers of a team",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			crew := service.NewCrewService(a.repos, a.log)

			if team == "" {
				teams, err := crew.ListTeams(cmd.Context())
				if err != nil {
					return err
				}
				printTeamsList(cmd.OutOrStdout(), teams)
				return nil
			}

			id, err := uuid.Parse(team)
			if err != nil {
				return fmt.Errorf("invalid --team %q: %w", team, err)
			}
			t, err := crew.GetTeam(cmd.Context(), id)
			if err != nil {
				return err
			}
			drivers, err := crew.ListDrivers(cmd.Context(), id)
			if err != nil {
				return err
			}
			printDrivers(cmd.OutOrStdout(), t, drivers)
			return nil
		},
	}
	cmd.Flags().StringVar(&team, "team", "", "Team ID")
	return cmd
}

func newTeamAddCmd() *cobra.Command {
	var name string
	var kart int
	cmd := &cobra.Command{
		Use:   "add-team",
		Short: "Create a team",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var kartNumber *int
			if cmd.Flags().Changed("kart") {
				kartNumber = &kart
			}
			team, err := service.NewCrewService(a.repos, a.log).CreateTeam(cmd.Context(), name, kartNumber)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), team.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Team name")
	cmd.Flags().IntVar(&kart, "kart", 0, "Kart number raced by the team")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newDriverAddCmd() *cobra.Command {
	var team, name, code, color, weight string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a driver to a team",
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, err := uuid.Parse(team)
			if err != nil {
				return fmt.Errorf("invalid --team %q: %w", team, err)
			}
			in := service.DriverInput{Name: name, Code: code, Color: color}
			if weight != "" {
				in.WeightKg, err = decimal.NewFromString(weight)
				if err != nil {
					return fmt.Errorf("invalid --weight %q: %w", weight, err)
				}
			}

			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			driver, err := service.NewCrewService(a.repos, a.log).CreateDriver(cmd.Context(), teamID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", driver.ID, driver.Name, driver.Code)
			return nil
		},
	}
	cmd.Flags().StringVar(&team, "team", "", "Team ID")
	cmd.Flags().StringVar(&name, "name", "", "Driver name")
	cmd.Flags().StringVar(&code, "code", "", "Short code, derived from the name when empty")
	cmd.Flags().StringVar(&color, "color", "", "Chart color (#rrggbb)")
	cmd.Flags().StringVar(&weight, "weight", "", "Weight in kg")
	_ = cmd.MarkFlagRequired("team")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newDriverAssignCmd() *cobra.Command {
	var race, driver string
	var kart, stint int
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a driver to a stint of an imported race",
		Long: `Assigns a driver, given by ID, name or code, to a stint. The driver
"none" clears the stint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raceID, err := uuid.Parse(race)
			if err != nil {
				return fmt.Errorf("invalid --race %q: %w", race, err)
			}

			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			crew := service.NewCrewService(a.repos, a.log)

			var driverID *uuid.UUID
			if !strings.EqualFold(driver, "none") {
				d, err := crew.FindDriver(cmd.Context(), driver, kart)
				if err != nil {
					return fmt.Errorf("driver %q: %w", driver, err)
				}
				driverID = &d.ID
			}
			return crew.AssignDriver(cmd.Context(), raceID, kart, stint, driverID)
		},
	}
	cmd.Flags().StringVar(&race, "race", "", "Race ID")
	cmd.Flags().IntVar(&kart, "kart", 0, "Kart number")
	cmd.Flags().IntVar(&stint, "stint", 0, "Stint number")
	cmd.Flags().StringVar(&driver, "driver", "", `Driver ID, name or code, or "none"`)
	for _, f := range []string{"race", "kart", "stint", "driver"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
