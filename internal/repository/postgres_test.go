package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yesmonga/karting-sub000/internal/database"
	"github.com/yesmonga/karting-sub000/internal/models"
)

func TestPostgresImportRoundTrip(t *testing.T) {
	db := database.SetupTestDB(t)

	repos, err := NewRepositories(db)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	race := sampleRace("integration "+uuid.NewString()[:8], time.Now().UTC().Truncate(24*time.Hour))
	race.TeamCount = 2
	require.NoError(t, repos.Result.ImportRace(ctx, race, sampleTeams()))
	defer func() { _ = repos.Race.Delete(ctx, race.ID) }()

	teams, err := repos.Result.GetTeams(ctx, race.ID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, 19, teams[0].KartNumber)

	team, err := repos.Result.GetTeam(ctx, race.ID, 7)
	require.NoError(t, err)
	assert.Len(t, team.Laps, 4)
	assert.Len(t, team.Stints, 2)
	assert.Equal(t, []int{2}, team.PitStops)

	_, err = repos.Result.GetTeam(ctx, race.ID, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestNewRepositoriesRequiresDB(t *testing.T) {
	_, err := NewRepositories(nil)
	assert.Error(t, err)
}
