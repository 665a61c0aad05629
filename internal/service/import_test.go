package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yesmonga/karting-sub000/internal/datasource"
	"github.com/yesmonga/karting-sub000/internal/logger"
	"github.com/yesmonga/karting-sub000/internal/models"
	"github.com/yesmonga/karting-sub000/internal/parser"
	"github.com/yesmonga/karting-sub000/internal/repository"
)

func newImportService() (*ImportService, *repository.Repositories) {
	repos := repository.NewMemoryRepositories()
	svc := NewImportService(repos.Race, repos.Result, parser.DefaultOptions(), logger.NewNopLogger())
	return svc, repos
}

func TestImport(t *testing.T) {
	svc, repos := newImportService()
	ctx := context.Background()
	raceDate := time.Date(2026, 6, 13, 0, 0, 0, 0, time.UTC)

	result, err := svc.Import(ctx, ImportRequest{
		Name:     "  24 Heures   du Mans ",
		Track:    "le mans",
		RaceDate: raceDate,
		Source:   raceDocuments(),
	})
	require.NoError(t, err)

	require.NotNil(t, result.Race)
	assert.Equal(t, "24 Heures du Mans", result.Race.Name)
	assert.Equal(t, "Le Mans Karting International", result.Race.Track)
	assert.Equal(t, models.RaceStatusImported, result.Race.Status)
	assert.Equal(t, 2, result.Race.TeamCount)
	assert.False(t, result.DryRun)
	assert.False(t, result.Placeholders)
	assert.Contains(t, result.Warnings, "kart #7: no lap history found")

	stored, err := repos.Race.GetByID(ctx, result.Race.ID)
	require.NoError(t, err)
	assert.Equal(t, raceDate, stored.RaceDate)

	teams, err := repos.Result.GetTeams(ctx, result.Race.ID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, 7, teams[0].KartNumber)
	assert.Equal(t, 19, teams[1].KartNumber)
	assert.Equal(t, []int{23, 47}, teams[1].PitStops)
	assert.Len(t, teams[1].Laps, 3)

	stats := svc.Metrics().Stats()
	assert.Equal(t, 1, stats.TotalImports)
	assert.Equal(t, 1, stats.SuccessfulImports)
	assert.Equal(t, 2, stats.TotalTeams)
	assert.Zero(t, stats.Errors)
}

func TestImportDryRun(t *testing.T) {
	svc, repos := newImportService()
	ctx := context.Background()

	result, err := svc.Import(ctx, ImportRequest{Name: "Essai", Source: raceDocuments(), DryRun: true})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Len(t, result.Teams, 2)
	assert.False(t, result.Race.RaceDate.IsZero())

	races, err := repos.Race.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, races)
	assert.Equal(t, 1, svc.Metrics().Stats().DryRuns)
}

func TestImportFailures(t *testing.T) {
	tests := []struct {
		name string
		req  ImportRequest
	}{
		{name: "missing race name", req: ImportRequest{Source: raceDocuments()}},
		{name: "missing source", req: ImportRequest{Name: "Essai"}},
		{name: "no documents", req: ImportRequest{Name: "Essai", Source: datasource.NewMemorySource(nil)}},
		{
			name: "no team in documents",
			req: ImportRequest{Name: "Essai", Source: datasource.NewMemorySource(map[datasource.DocumentKind]datasource.Document{
				datasource.KindRanking: {Name: "classement.txt", Data: []byte("vide")},
			})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repos := newImportService()
			result, err := svc.Import(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, 1, svc.Metrics().Stats().Errors)

			races, err := repos.Race.List(context.Background(), 10)
			require.NoError(t, err)
			assert.Empty(t, races)
		})
	}
}

func TestImportRankingOnly(t *testing.T) {
	svc, _ := newImportService()

	result, err := svc.Import(context.Background(), ImportRequest{
		Name: "Sprint",
		Source: datasource.NewMemorySource(map[datasource.DocumentKind]datasource.Document{
			datasource.KindRanking: {Name: "classement.txt", Data: []byte(rankingReport)},
		}),
	})
	require.NoError(t, err)
	require.Len(t, result.Teams, 2)
	for _, team := range result.Teams {
		assert.Empty(t, team.Stints)
		assert.Empty(t, team.Laps)
	}
}

func TestReimportDropsDriverAssignments(t *testing.T) {
	svc, repos := newImportService()
	ctx := context.Background()

	first, err := svc.Import(ctx, ImportRequest{Name: "24 Heures", Source: raceDocuments()})
	require.NoError(t, err)

	driverID := uuid.New()
	require.NoError(t, repos.Result.AssignDriver(ctx, first.Race.ID, 19, 1, &driverID))

	second, err := svc.Reimport(ctx, first.Race.ID, raceDocuments())
	require.NoError(t, err)
	assert.Equal(t, first.Race.ID, second.Race.ID)
	assert.Equal(t, 2, second.Race.TeamCount)

	team, err := repos.Result.GetTeam(ctx, first.Race.ID, 19)
	require.NoError(t, err)
	require.NotEmpty(t, team.Stints)
	assert.Nil(t, team.Stints[0].DriverID)

	_, err = svc.Reimport(ctx, uuid.New(), raceDocuments())
	assert.ErrorIs(t, err, models.ErrNotFound)
}
