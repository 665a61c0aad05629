package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/yesmonga/karting-sub000/internal/models"
)

// RaceRepository defines the interface for race data access
type RaceRepository interface {
	Create(ctx context.Context, race *models.Race) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Race, error)
	List(ctx context.Context, limit int) ([]*models.Race, error)
	Update(ctx context.Context, race *models.Race) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ResultRepository defines the interface for the reconstructed team records
// of a race (race_entries, stints, race_laps, pit_stops)
type ResultRepository interface {
	// ImportRace stores a new race together with its team records atomically
	ImportRace(ctx context.Context, race *models.Race, teams []*models.TeamRecord) error
	// SaveResults replaces every team record of an existing race atomically
	SaveResults(ctx context.Context, raceID uuid.UUID, teams []*models.TeamRecord) error
	GetTeams(ctx context.Context, raceID uuid.UUID) ([]*models.TeamRecord, error)
	GetTeam(ctx context.Context, raceID uuid.UUID, kartNumber int) (*models.TeamRecord, error)
	// AssignDriver sets the driver of a stint; a nil driver clears it
	AssignDriver(ctx context.Context, raceID uuid.UUID, kartNumber, stintNumber int, driverID *uuid.UUID) error
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetByKart(ctx context.Context, kartNumber int) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DriverRepository defines the interface for driver data access
type DriverRepository interface {
	Create(ctx context.Context, driver *models.Driver) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	GetByTeamID(ctx context.Context, teamID uuid.UUID) ([]*models.Driver, error)
	Update(ctx context.Context, driver *models.Driver) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// LiveSessionRepository defines the interface for live session data access
type LiveSessionRepository interface {
	Create(ctx context.Context, session *models.LiveSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LiveSession, error)
	GetActive(ctx context.Context) (*models.LiveSession, error)
	// SaveSnapshot stores a state snapshot unless a newer sequence is already stored
	SaveSnapshot(ctx context.Context, id uuid.UUID, sequence uint64, title1, title2 string, snapshot json.RawMessage) error
	End(ctx context.Context, id uuid.UUID, endedAt time.Time) error
}

// OnboardMessageRepository defines the interface for onboard message data access
type OnboardMessageRepository interface {
	Create(ctx context.Context, msg *models.OnboardMessage) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.OnboardMessage, error)
}
