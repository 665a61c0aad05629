package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/yesmonga/karting-sub000/internal/apex"
	"github.com/yesmonga/karting-sub000/internal/models"
	"github.com/yesmonga/karting-sub000/internal/parser"
	"github.com/yesmonga/karting-sub000/internal/service"
)

func newTable(out io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func printImportSummary(out io.Writer, result *service.ImportResult) {
	t := newTable(out, "Import")
	race := result.Race
	t.AppendRows([]table.Row{
		{"Race", race.Name},
		{"Track", race.Track},
		{"Date", race.RaceDate.Format("2006-01-02")},
		{"Teams", race.TeamCount},
		{"Dry run", result.DryRun},
		{"Duration", result.Duration.Round(time.Millisecond)},
	})
	if !result.DryRun {
		t.AppendRow(table.Row{"ID", race.ID})
	}
	if result.Placeholders {
		t.AppendRow(table.Row{"Ranking", text.FgYellow.Sprint("unreadable, placeholder teams")})
	}
	t.Render()
}

func printTeams(out io.Writer, teams []*models.TeamRecord) {
	t := newTable(out, "")
	t.AppendHeader(table.Row{"Pos", "Kart", "Team", "Laps", "Best", "Stints", "Pits"})
	for _, team := range teams {
		t.AppendRow(table.Row{
			team.Position,
			team.KartNumber,
			team.TeamName,
			team.TotalLaps,
			parser.FormatMs(team.BestLapMs),
			len(team.Stints),
			joinInts(team.PitStops),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
	})
	t.Render()
}

func printStints(out io.Writer, team *models.TeamRecord) {
	t := newTable(out, fmt.Sprintf("#%d %s", team.KartNumber, team.TeamName))
	t.AppendHeader(table.Row{"Stint", "Laps", "Range", "Best", "Average", "Source"})
	for _, st := range team.Stints {
		number := strconv.Itoa(st.StintNumber)
		if st.Finish {
			number += " (finish)"
		}
		t.AppendRow(table.Row{
			number,
			st.LapCount,
			fmt.Sprintf("%d-%d", st.StartLap, st.EndLap),
			parser.FormatMs(st.BestLapMs),
			parser.FormatMs(st.AvgLapMs),
			st.StatsSource,
		})
	}
	t.Render()
}

func printWarnings(out io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(out, text.FgYellow.Sprintf("%d warning(s):", len(warnings)))
	for _, w := range warnings {
		fmt.Fprintf(out, "  - %s\n", w)
	}
}

func printDrivers(out io.Writer, team *models.Team, drivers []*models.Driver) {
	t := newTable(out, team.Name)
	t.AppendHeader(table.Row{"ID", "Name", "Code", "Color", "Weight (kg)"})
	for _, d := range drivers {
		weight := "-"
		if d.HasWeight() {
			weight = d.WeightKg.StringFixed(1)
		}
		t.AppendRow(table.Row{d.ID, d.Name, d.Code, d.Color, weight})
	}
	t.Render()
}

func printTeamsList(out io.Writer, teams []*models.Team) {
	t := newTable(out, "Teams")
	t.AppendHeader(table.Row{"ID", "Name", "Kart"})
	for _, team := range teams {
		kart := "-"
		if team.KartNumber != nil {
			kart = strconv.Itoa(*team.KartNumber)
		}
		t.AppendRow(table.Row{team.ID, team.Name, kart})
	}
	t.Render()
}

func printBallast(out io.Writer, results []*service.BallastResult) {
	t := newTable(out, "Ballast")
	t.AppendHeader(table.Row{"Driver", "Weight (kg)", "Minimum (kg)", "Ballast (kg)"})
	for _, r := range results {
		t.AppendRow(table.Row{
			r.Name,
			r.WeightKg.StringFixed(1),
			r.MinWeightKg.StringFixed(1),
			r.BallastKg.StringFixed(1),
		})
	}
	t.Render()
}

func printLiveGrid(out io.Writer, snap apex.Snapshot) {
	title := strings.TrimSpace(snap.Title1 + " " + snap.Title2)
	t := newTable(out, fmt.Sprintf("%s [seq %d]", title, snap.Sequence))

	header := table.Row{"Pos"}
	for _, c := range snap.Columns {
		header = append(header, c.Label)
	}
	t.AppendHeader(header)
	for _, r := range snap.Rows {
		row := table.Row{r.Position}
		for _, c := range snap.Columns {
			key := c.Type
			if key == "" {
				key = c.ID
			}
			row = append(row, r.Cells[key])
		}
		t.AppendRow(row)
	}
	t.Render()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
