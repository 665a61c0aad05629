package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yesmonga/karting-sub000/internal/logger"
	"github.com/yesmonga/karting-sub000/internal/models"
	"github.com/yesmonga/karting-sub000/internal/repository"
)

func TestCrewTeamsAndDrivers(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	crew := NewCrewService(repos, logger.NewNopLogger())

	kart := 19
	team, err := crew.CreateTeam(ctx, "  TEAM   ALPHA ", &kart)
	require.NoError(t, err)
	assert.Equal(t, "TEAM ALPHA", team.Name)

	_, err = crew.CreateTeam(ctx, "   ", nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.ErrorIs(t, err, models.ErrTeamNameMissing)

	_, err = crew.CreateTeam(ctx, "COPY", &kart)
	assert.ErrorIs(t, err, models.ErrDuplicateKey)

	driver, err := crew.CreateDriver(ctx, team.ID, DriverInput{Name: "Jean Dupont", Color: "F00", WeightKg: decimal.NewFromInt(72)})
	require.NoError(t, err)
	assert.Equal(t, "DUP", driver.Code)
	assert.Equal(t, "#ff0000", driver.Color)

	_, err = crew.CreateDriver(ctx, team.ID, DriverInput{Name: "Anna", WeightKg: decimal.NewFromInt(-3)})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = crew.CreateDriver(ctx, uuid.New(), DriverInput{Name: "Ghost"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	updated, err := crew.UpdateDriver(ctx, driver.ID, DriverInput{Name: "Jean Dupont", Code: "JD", WeightKg: decimal.RequireFromString("74.5")})
	require.NoError(t, err)
	assert.Equal(t, "JD", updated.Code)

	drivers, err := crew.ListDrivers(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.True(t, decimal.RequireFromString("74.5").Equal(drivers[0].WeightKg))

	found, err := crew.FindDriver(ctx, "jd", 19)
	require.NoError(t, err)
	assert.Equal(t, driver.ID, found.ID)

	found, err = crew.FindDriver(ctx, driver.ID.String(), 0)
	require.NoError(t, err)
	assert.Equal(t, driver.ID, found.ID)

	_, err = crew.FindDriver(ctx, "nobody", 19)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCrewAssignDriver(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	crew := NewCrewService(repos, logger.NewNopLogger())
	importer := NewImportService(repos.Race, repos.Result, parserOptions(), logger.NewNopLogger())

	result, err := importer.Import(ctx, ImportRequest{Name: "24 Heures", Source: raceDocuments()})
	require.NoError(t, err)
	raceID := result.Race.ID

	kart := 19
	team, err := crew.CreateTeam(ctx, "TEAM ALPHA", &kart)
	require.NoError(t, err)
	anna, err := crew.CreateDriver(ctx, team.ID, DriverInput{Name: "Anna Martin", WeightKg: decimal.NewFromInt(60)})
	require.NoError(t, err)

	other, err := crew.CreateTeam(ctx, "GUESTS", nil)
	require.NoError(t, err)
	guest, err := crew.CreateDriver(ctx, other.ID, DriverInput{Name: "Guest Driver"})
	require.NoError(t, err)

	require.NoError(t, crew.AssignDriver(ctx, raceID, 19, 1, &anna.ID))
	require.NoError(t, crew.AssignDriver(ctx, raceID, 19, 2, &guest.ID))

	missing := uuid.New()
	assert.ErrorIs(t, crew.AssignDriver(ctx, raceID, 19, 3, &missing), models.ErrNotFound)
	assert.ErrorIs(t, crew.AssignDriver(ctx, raceID, 19, 9, &anna.ID), models.ErrNotFound)

	record, err := repos.Result.GetTeam(ctx, raceID, 19)
	require.NoError(t, err)
	drivers, err := crew.DriversForRecord(ctx, record)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, anna.ID, drivers[0].ID)
	assert.Equal(t, guest.ID, drivers[1].ID)

	stats := DriverStats(record, drivers)
	assert.Equal(t, 1, stats[0].Stints)

	require.NoError(t, crew.AssignDriver(ctx, raceID, 19, 2, nil))
	record, err = repos.Result.GetTeam(ctx, raceID, 19)
	require.NoError(t, err)
	assert.Nil(t, record.Stints[1].DriverID)
}
