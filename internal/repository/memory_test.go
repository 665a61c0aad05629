package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yesmonga/karting-sub000/internal/models"
)

func sampleRace(name string, date time.Time) *models.Race {
	return &models.Race{
		ID:         uuid.New(),
		Name:       name,
		Track:      "Lohéac",
		RaceDate:   date,
		Status:     models.RaceStatusImported,
		ImportedAt: time.Now().UTC(),
	}
}

func sampleTeams() []*models.TeamRecord {
	return []*models.TeamRecord{
		{
			Position: 2, KartNumber: 7, TeamName: "Les Fous du Volant", TotalLaps: 4, BestLapMs: 65800,
			Laps: []models.LapRecord{
				{LapNumber: 1, TotalMs: 66000}, {LapNumber: 2, TotalMs: 65800},
				{LapNumber: 3, TotalMs: 66200}, {LapNumber: 4, TotalMs: 66100},
			},
			Stints: []models.StintRecord{
				{StintNumber: 1, StartLap: 1, EndLap: 2, LapCount: 2, BestLapMs: 65800, AvgLapMs: 65900},
				{StintNumber: 2, StartLap: 3, EndLap: 4, LapCount: 2, BestLapMs: 66100, AvgLapMs: 66150, Finish: true},
			},
			PitStops: []int{2},
		},
		{
			Position: 1, KartNumber: 19, TeamName: "Speedy Kart", TotalLaps: 4, BestLapMs: 65100,
			Stints: []models.StintRecord{
				{StintNumber: 1, StartLap: 1, EndLap: 4, LapCount: 4, BestLapMs: 65100, AvgLapMs: 65500, Finish: true},
			},
		},
	}
}

func TestMemoryRaceRepository(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()

	older := sampleRace("6h de Printemps", time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC))
	newer := sampleRace("24h d'Été", time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repos.Race.Create(ctx, older))
	require.NoError(t, repos.Race.Create(ctx, newer))
	assert.ErrorIs(t, repos.Race.Create(ctx, older), models.ErrDuplicateKey)

	races, err := repos.Race.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, races, 2)
	assert.Equal(t, newer.ID, races[0].ID)

	races, err = repos.Race.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, races, 1)

	newer.Status = models.RaceStatusArchived
	require.NoError(t, repos.Race.Update(ctx, newer))
	got, err := repos.Race.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived())

	require.NoError(t, repos.Race.Delete(ctx, older.ID))
	_, err = repos.Race.GetByID(ctx, older.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repos.Race.Delete(ctx, older.ID), models.ErrNotFound)
	assert.ErrorIs(t, repos.Race.Update(ctx, older), models.ErrNotFound)
}

func TestMemoryResultRepository(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	race := sampleRace("6h", time.Now())
	teams := sampleTeams()

	require.NoError(t, repos.Result.ImportRace(ctx, race, teams))
	assert.ErrorIs(t, repos.Result.ImportRace(ctx, race, teams), models.ErrDuplicateKey)

	got, err := repos.Result.GetTeams(ctx, race.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 19, got[0].KartNumber)
	assert.Equal(t, 7, got[1].KartNumber)

	// returned records must not alias stored state
	got[1].Stints[0].BestLapMs = 1
	team, err := repos.Result.GetTeam(ctx, race.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 65800, team.Stints[0].BestLapMs)
	assert.Equal(t, []int{2}, team.PitStops)

	_, err = repos.Result.GetTeam(ctx, race.ID, 42)
	assert.ErrorIs(t, err, models.ErrNotFound)

	driverID := uuid.New()
	require.NoError(t, repos.Result.AssignDriver(ctx, race.ID, 7, 2, &driverID))
	team, err = repos.Result.GetTeam(ctx, race.ID, 7)
	require.NoError(t, err)
	require.NotNil(t, team.Stints[1].DriverID)
	assert.Equal(t, driverID, *team.Stints[1].DriverID)

	require.NoError(t, repos.Result.AssignDriver(ctx, race.ID, 7, 2, nil))
	team, err = repos.Result.GetTeam(ctx, race.ID, 7)
	require.NoError(t, err)
	assert.Nil(t, team.Stints[1].DriverID)

	assert.ErrorIs(t, repos.Result.AssignDriver(ctx, race.ID, 7, 9, &driverID), models.ErrNotFound)
	assert.ErrorIs(t, repos.Result.AssignDriver(ctx, race.ID, 42, 1, &driverID), models.ErrNotFound)

	require.NoError(t, repos.Result.SaveResults(ctx, race.ID, teams[:1]))
	got, err = repos.Result.GetTeams(ctx, race.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	stored, err := repos.Race.GetByID(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TeamCount)

	assert.ErrorIs(t, repos.Result.SaveResults(ctx, uuid.New(), teams), models.ErrNotFound)
}

func TestMemoryTeamAndDriverRepositories(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()

	kart := 7
	team := &models.Team{ID: uuid.New(), Name: "Les Fous du Volant", KartNumber: &kart}
	require.NoError(t, repos.Team.Create(ctx, team))

	other := &models.Team{ID: uuid.New(), Name: "Copycat", KartNumber: &kart}
	assert.ErrorIs(t, repos.Team.Create(ctx, other), models.ErrDuplicateKey)

	got, err := repos.Team.GetByKart(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, team.ID, got.ID)
	_, err = repos.Team.GetByKart(ctx, 8)
	assert.ErrorIs(t, err, models.ErrNotFound)

	driver := &models.Driver{
		ID: uuid.New(), TeamID: team.ID, Name: "Zoé", Code: "ZOE",
		WeightKg: decimal.RequireFromString("62.5"),
	}
	second := &models.Driver{ID: uuid.New(), TeamID: team.ID, Name: "Alex", Code: "ALX"}
	require.NoError(t, repos.Driver.Create(ctx, driver))
	require.NoError(t, repos.Driver.Create(ctx, second))

	orphan := &models.Driver{ID: uuid.New(), TeamID: uuid.New(), Name: "Nobody", Code: "NOB"}
	assert.ErrorIs(t, repos.Driver.Create(ctx, orphan), models.ErrNotFound)

	drivers, err := repos.Driver.GetByTeamID(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, "Alex", drivers[0].Name)
	assert.True(t, drivers[1].HasWeight())
	assert.False(t, drivers[0].HasWeight())

	second.WeightKg = decimal.NewFromInt(80)
	require.NoError(t, repos.Driver.Update(ctx, second))
	updated, err := repos.Driver.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, updated.WeightKg.Equal(decimal.NewFromInt(80)))

	require.NoError(t, repos.Team.Delete(ctx, team.ID))
	_, err = repos.Driver.GetByID(ctx, driver.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	teams, err := repos.Team.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestMemoryLiveRepositories(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()

	_, err := repos.LiveSession.GetActive(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)

	session := &models.LiveSession{ID: uuid.New(), Name: "24h", StartedAt: time.Now().UTC()}
	require.NoError(t, repos.LiveSession.Create(ctx, session))

	active, err := repos.LiveSession.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.ID, active.ID)

	require.NoError(t, repos.LiveSession.SaveSnapshot(ctx, session.ID, 5, "24h", "Lap 12", json.RawMessage(`{"rows":[]}`)))
	require.NoError(t, repos.LiveSession.SaveSnapshot(ctx, session.ID, 3, "stale", "", json.RawMessage(`{}`)))
	got, err := repos.LiveSession.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Sequence)
	assert.Equal(t, "Lap 12", got.Title2)
	assert.JSONEq(t, `{"rows":[]}`, string(got.Snapshot))

	for i, text := range []string{"BOX", "PUSH", "FUEL OK"} {
		msg := &models.OnboardMessage{
			ID: uuid.New(), SessionID: session.ID, KartNumber: 7, Text: text,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repos.OnboardMessage.Create(ctx, msg))
	}
	msgs, err := repos.OnboardMessage.ListBySession(ctx, session.ID, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "FUEL OK", msgs[0].Text)
	assert.Equal(t, "PUSH", msgs[1].Text)

	orphan := &models.OnboardMessage{ID: uuid.New(), SessionID: uuid.New(), KartNumber: 7, Text: "BOX"}
	assert.ErrorIs(t, repos.OnboardMessage.Create(ctx, orphan), models.ErrNotFound)

	require.NoError(t, repos.LiveSession.End(ctx, session.ID, time.Now().UTC()))
	_, err = repos.LiveSession.GetActive(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repos.LiveSession.End(ctx, uuid.New(), time.Now()), models.ErrNotFound)
}
