package repository

import (
	"fmt"

	"github.com/yesmonga/karting-sub000/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Race           RaceRepository
	Result         ResultRepository
	Team           TeamRepository
	Driver         DriverRepository
	LiveSession    LiveSessionRepository
	OnboardMessage OnboardMessageRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Race:           NewPostgresRaceRepository(db),
		Result:         NewPostgresResultRepository(db),
		Team:           NewPostgresTeamRepository(db),
		Driver:         NewPostgresDriverRepository(db),
		LiveSession:    NewPostgresLiveSessionRepository(db),
		OnboardMessage: NewPostgresOnboardMessageRepository(db),
	}, nil
}

// NewMemoryRepositories returns in-memory repositories sharing one store,
// used in mock mode and tests
func NewMemoryRepositories() *Repositories {
	store := NewMemoryStore()
	return &Repositories{
		Race:           &MemoryRaceRepository{store: store},
		Result:         &MemoryResultRepository{store: store},
		Team:           &MemoryTeamRepository{store: store},
		Driver:         &MemoryDriverRepository{store: store},
		LiveSession:    &MemoryLiveSessionRepository{store: store},
		OnboardMessage: &MemoryOnboardMessageRepository{store: store},
	}
}
