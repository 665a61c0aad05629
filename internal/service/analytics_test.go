package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yesmonga/karting-sub000/internal/models"
)

func TestLapChart(t *testing.T) {
	points := LapChart(threeStintTeam())

	require.Len(t, points, 7)
	assert.Equal(t, LapPoint{Lap: 1, Ms: 66000, Stint: 1}, points[0])
	assert.Equal(t, LapPoint{Lap: 4, Ms: 67000, Stint: 2}, points[3])
	assert.Equal(t, 3, points[6].Stint)

	assert.Empty(t, LapChart(&models.TeamRecord{KartNumber: 1}))
}

func TestStrategy(t *testing.T) {
	summary := Strategy(threeStintTeam())

	assert.Equal(t, 12, summary.KartNumber)
	assert.Equal(t, 2, summary.PitCount)
	assert.Equal(t, []int{3, 5}, summary.PitStops)
	require.Len(t, summary.Stints, 3)
	assert.Equal(t, 195000, summary.Stints[0].DurationMs)
	assert.Equal(t, 133000, summary.Stints[1].DurationMs)
	assert.Equal(t, 131000, summary.Stints[2].DurationMs)
	assert.Equal(t, 2, summary.ShortestStintLaps)
	assert.Equal(t, 3, summary.LongestStintLaps)
	assert.InDelta(t, 7.0/3.0, summary.AverageStintLaps, 1e-9)
	assert.Equal(t, 153000, summary.AverageStintMs)
	assert.InDelta(t, 2.0, summary.AveragePitGapLaps, 1e-9)
}

func TestStrategyDurationFallbacks(t *testing.T) {
	team := &models.TeamRecord{
		KartNumber: 19,
		TeamName:   "TEAM ALPHA",
		TotalLaps:  47,
		Laps:       []models.LapRecord{{LapNumber: 1, TotalMs: 68512}},
		Stints: []models.StintRecord{
			{StintNumber: 1, StartLap: 1, EndLap: 23, LapCount: 23, AvgLapMs: 67450, TrackTimeMs: intPtr(1513000)},
			{StintNumber: 2, StartLap: 24, EndLap: 47, LapCount: 24, AvgLapMs: 66900},
		},
		PitStops: []int{23},
	}

	summary := Strategy(team)
	require.Len(t, summary.Stints, 2)
	assert.Equal(t, 1513000, summary.Stints[0].DurationMs, "partial history uses the track time")
	assert.Equal(t, 66900*24, summary.Stints[1].DurationMs, "no history uses the average lap")
	assert.Zero(t, summary.AveragePitGapLaps)
}

func TestStrategyWithoutStints(t *testing.T) {
	summary := Strategy(&models.TeamRecord{KartNumber: 3, TeamName: "SOLO"})
	assert.Empty(t, summary.Stints)
	assert.Zero(t, summary.ShortestStintLaps)
	assert.Zero(t, summary.AverageStintMs)
	assert.NotNil(t, summary.PitStops)
}

func TestDriverStats(t *testing.T) {
	team := threeStintTeam()
	anna := &models.Driver{ID: uuid.New(), Name: "Anna", Code: "ANN"}
	bruno := &models.Driver{ID: uuid.New(), Name: "Bruno", Code: "BRU"}
	chloe := &models.Driver{ID: uuid.New(), Name: "Chloé", Code: "CHL"}
	team.Stints[0].DriverID = &anna.ID
	team.Stints[1].DriverID = &bruno.ID
	team.Stints[2].DriverID = &anna.ID

	stats := DriverStats(team, []*models.Driver{chloe, bruno, anna})
	require.Len(t, stats, 3)

	assert.Equal(t, "Anna", stats[0].Name)
	assert.Equal(t, 2, stats[0].Stints)
	assert.Equal(t, 5, stats[0].Laps)
	assert.Equal(t, 64000, stats[0].BestLapMs)
	assert.Equal(t, 65200, stats[0].AvgLapMs)
	assert.Equal(t, 326000, stats[0].DriveTimeMs)

	assert.Equal(t, "Bruno", stats[1].Name)
	assert.Equal(t, 1, stats[1].Stints)
	assert.Equal(t, 66500, stats[1].AvgLapMs)
	assert.Equal(t, 133000, stats[1].DriveTimeMs)

	assert.Equal(t, "Chloé", stats[2].Name)
	assert.Zero(t, stats[2].Stints)
	assert.Zero(t, stats[2].DriveTimeMs)
}

func TestDriverStatsIgnoresUnknownDrivers(t *testing.T) {
	team := threeStintTeam()
	stranger := uuid.New()
	team.Stints[0].DriverID = &stranger

	assert.Empty(t, DriverStats(team, nil))
}
