package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yesmonga/karting-sub000/internal/models"
)

// MemoryStore holds the state shared by the in-memory repositories
type MemoryStore struct {
	mu       sync.RWMutex
	races    map[uuid.UUID]models.Race
	results  map[uuid.UUID][]*models.TeamRecord
	teams    map[uuid.UUID]models.Team
	drivers  map[uuid.UUID]models.Driver
	sessions map[uuid.UUID]models.LiveSession
	messages []models.OnboardMessage
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		races:    make(map[uuid.UUID]models.Race),
		results:  make(map[uuid.UUID][]*models.TeamRecord),
		teams:    make(map[uuid.UUID]models.Team),
		drivers:  make(map[uuid.UUID]models.Driver),
		sessions: make(map[uuid.UUID]models.LiveSession),
	}
}

// MemoryRaceRepository implements RaceRepository in memory
type MemoryRaceRepository struct {
	store *MemoryStore
}

// Create inserts a new race
func (r *MemoryRaceRepository) Create(_ context.Context, race *models.Race) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.createRace(race)
}

func (s *MemoryStore) createRace(race *models.Race) error {
	if _, ok := s.races[race.ID]; ok {
		return models.ErrDuplicateKey
	}
	s.races[race.ID] = *race
	return nil
}

// GetByID retrieves a race by ID
func (r *MemoryRaceRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Race, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	race, ok := r.store.races[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &race, nil
}

// List retrieves the most recent races, newest first
func (r *MemoryRaceRepository) List(_ context.Context, limit int) ([]*models.Race, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	races := make([]*models.Race, 0, len(r.store.races))
	for _, race := range r.store.races {
		race := race
		races = append(races, &race)
	}
	sort.Slice(races, func(i, j int) bool {
		if !races[i].RaceDate.Equal(races[j].RaceDate) {
			return races[i].RaceDate.After(races[j].RaceDate)
		}
		return races[i].ImportedAt.After(races[j].ImportedAt)
	})
	if limit > 0 && len(races) > limit {
		races = races[:limit]
	}
	return races, nil
}

// Update updates an existing race
func (r *MemoryRaceRepository) Update(_ context.Context, race *models.Race) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.races[race.ID]; !ok {
		return models.ErrNotFound
	}
	updated := *race
	updated.UpdatedAt = time.Now().UTC()
	r.store.races[race.ID] = updated
	return nil
}

// Delete deletes a race and its results
func (r *MemoryRaceRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.races[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.store.races, id)
	delete(r.store.results, id)
	return nil
}

// MemoryResultRepository implements ResultRepository in memory
type MemoryResultRepository struct {
	store *MemoryStore
}

// ImportRace stores a new race together with its team records
func (r *MemoryResultRepository) ImportRace(_ context.Context, race *models.Race, teams []*models.TeamRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.createRace(race); err != nil {
		return err
	}
	r.store.results[race.ID] = cloneTeams(teams)
	return nil
}

// SaveResults replaces every team record of a race
func (r *MemoryResultRepository) SaveResults(_ context.Context, raceID uuid.UUID, teams []*models.TeamRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	race, ok := r.store.races[raceID]
	if !ok {
		return models.ErrNotFound
	}
	race.TeamCount = len(teams)
	race.UpdatedAt = time.Now().UTC()
	r.store.races[raceID] = race
	r.store.results[raceID] = cloneTeams(teams)
	return nil
}

// GetTeams retrieves every team record of a race ordered by position then kart
func (r *MemoryResultRepository) GetTeams(_ context.Context, raceID uuid.UUID) ([]*models.TeamRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	teams := cloneTeams(r.store.results[raceID])
	sortTeams(teams)
	return teams, nil
}

// GetTeam retrieves the record of one kart
func (r *MemoryResultRepository) GetTeam(_ context.Context, raceID uuid.UUID, kartNumber int) (*models.TeamRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, t := range r.store.results[raceID] {
		if t.KartNumber == kartNumber {
			return cloneTeam(t), nil
		}
	}
	return nil, models.ErrNotFound
}

// AssignDriver sets the driver of a stint
func (r *MemoryResultRepository) AssignDriver(_ context.Context, raceID uuid.UUID, kartNumber, stintNumber int, driverID *uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.results[raceID] {
		if t.KartNumber != kartNumber {
			continue
		}
		stint, ok := t.Stint(stintNumber)
		if !ok {
			return models.ErrNotFound
		}
		if driverID == nil {
			stint.DriverID = nil
		} else {
			id := *driverID
			stint.DriverID = &id
		}
		return nil
	}
	return models.ErrNotFound
}

func cloneTeams(teams []*models.TeamRecord) []*models.TeamRecord {
	out := make([]*models.TeamRecord, len(teams))
	for i, t := range teams {
		out[i] = cloneTeam(t)
	}
	return out
}

func cloneTeam(t *models.TeamRecord) *models.TeamRecord {
	c := *t
	c.Laps = append([]models.LapRecord{}, t.Laps...)
	c.Stints = make([]models.StintRecord, len(t.Stints))
	for i, s := range t.Stints {
		if s.TrackTimeMs != nil {
			v := *s.TrackTimeMs
			s.TrackTimeMs = &v
		}
		if s.DriverID != nil {
			v := *s.DriverID
			s.DriverID = &v
		}
		c.Stints[i] = s
	}
	c.PitStops = append([]int{}, t.PitStops...)
	return &c
}

// MemoryTeamRepository implements TeamRepository in memory
type MemoryTeamRepository struct {
	store *MemoryStore
}

// Create inserts a new team
func (r *MemoryTeamRepository) Create(_ context.Context, team *models.Team) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.teams[team.ID]; ok {
		return models.ErrDuplicateKey
	}
	if team.KartNumber != nil && r.store.teamByKart(*team.KartNumber) != nil {
		return models.ErrDuplicateKey
	}
	r.store.teams[team.ID] = *team
	return nil
}

func (s *MemoryStore) teamByKart(kart int) *models.Team {
	for _, t := range s.teams {
		if t.KartNumber != nil && *t.KartNumber == kart {
			t := t
			return &t
		}
	}
	return nil
}

// GetByID retrieves a team by ID
func (r *MemoryTeamRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Team, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	team, ok := r.store.teams[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &team, nil
}

// GetByKart retrieves the team racing a kart number
func (r *MemoryTeamRepository) GetByKart(_ context.Context, kartNumber int) (*models.Team, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if team := r.store.teamByKart(kartNumber); team != nil {
		return team, nil
	}
	return nil, models.ErrNotFound
}

// List retrieves every team ordered by name
func (r *MemoryTeamRepository) List(_ context.Context) ([]*models.Team, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	teams := make([]*models.Team, 0, len(r.store.teams))
	for _, t := range r.store.teams {
		t := t
		teams = append(teams, &t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

// Update updates an existing team
func (r *MemoryTeamRepository) Update(_ context.Context, team *models.Team) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.teams[team.ID]; !ok {
		return models.ErrNotFound
	}
	updated := *team
	updated.UpdatedAt = time.Now().UTC()
	r.store.teams[team.ID] = updated
	return nil
}

// Delete deletes a team and its drivers
func (r *MemoryTeamRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.teams[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.store.teams, id)
	for driverID, d := range r.store.drivers {
		if d.TeamID == id {
			delete(r.store.drivers, driverID)
		}
	}
	return nil
}

// MemoryDriverRepository implements DriverRepository in memory
type MemoryDriverRepository struct {
	store *MemoryStore
}

// Create inserts a new driver
func (r *MemoryDriverRepository) Create(_ context.Context, driver *models.Driver) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.drivers[driver.ID]; ok {
		return models.ErrDuplicateKey
	}
	if _, ok := r.store.teams[driver.TeamID]; !ok {
		return models.ErrNotFound
	}
	r.store.drivers[driver.ID] = *driver
	return nil
}

// GetByID retrieves a driver by ID
func (r *MemoryDriverRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Driver, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	driver, ok := r.store.drivers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &driver, nil
}

// GetByTeamID retrieves the drivers of a team ordered by name
func (r *MemoryDriverRepository) GetByTeamID(_ context.Context, teamID uuid.UUID) ([]*models.Driver, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var drivers []*models.Driver
	for _, d := range r.store.drivers {
		if d.TeamID == teamID {
			d := d
			drivers = append(drivers, &d)
		}
	}
	sort.Slice(drivers, func(i, j int) bool { return drivers[i].Name < drivers[j].Name })
	return drivers, nil
}

// Update updates an existing driver
func (r *MemoryDriverRepository) Update(_ context.Context, driver *models.Driver) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.drivers[driver.ID]; !ok {
		return models.ErrNotFound
	}
	updated := *driver
	updated.UpdatedAt = time.Now().UTC()
	r.store.drivers[driver.ID] = updated
	return nil
}

// Delete deletes a driver
func (r *MemoryDriverRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.drivers[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.store.drivers, id)
	return nil
}

// MemoryLiveSessionRepository implements LiveSessionRepository in memory
type MemoryLiveSessionRepository struct {
	store *MemoryStore
}

// Create inserts a new live session
func (r *MemoryLiveSessionRepository) Create(_ context.Context, session *models.LiveSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.sessions[session.ID]; ok {
		return models.ErrDuplicateKey
	}
	r.store.sessions[session.ID] = *session
	return nil
}

// GetByID retrieves a live session by ID
func (r *MemoryLiveSessionRepository) GetByID(_ context.Context, id uuid.UUID) (*models.LiveSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	session, ok := r.store.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &session, nil
}

// GetActive retrieves the most recently started session that has not ended
func (r *MemoryLiveSessionRepository) GetActive(_ context.Context) (*models.LiveSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var active *models.LiveSession
	for _, s := range r.store.sessions {
		if !s.IsActive() {
			continue
		}
		if active == nil || s.StartedAt.After(active.StartedAt) {
			s := s
			active = &s
		}
	}
	if active == nil {
		return nil, models.ErrNotFound
	}
	return active, nil
}

// SaveSnapshot stores a state snapshot unless a newer one is already stored
func (r *MemoryLiveSessionRepository) SaveSnapshot(_ context.Context, id uuid.UUID, sequence uint64, title1, title2 string, snapshot json.RawMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	session, ok := r.store.sessions[id]
	if !ok {
		return models.ErrNotFound
	}
	if sequence < session.Sequence {
		return nil
	}
	session.Sequence = sequence
	session.Title1 = title1
	session.Title2 = title2
	session.Snapshot = append(json.RawMessage{}, snapshot...)
	r.store.sessions[id] = session
	return nil
}

// End marks a session as ended
func (r *MemoryLiveSessionRepository) End(_ context.Context, id uuid.UUID, endedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	session, ok := r.store.sessions[id]
	if !ok {
		return models.ErrNotFound
	}
	session.EndedAt = &endedAt
	r.store.sessions[id] = session
	return nil
}

// MemoryOnboardMessageRepository implements OnboardMessageRepository in memory
type MemoryOnboardMessageRepository struct {
	store *MemoryStore
}

// Create inserts a new onboard message
func (r *MemoryOnboardMessageRepository) Create(_ context.Context, msg *models.OnboardMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.sessions[msg.SessionID]; !ok {
		return models.ErrNotFound
	}
	r.store.messages = append(r.store.messages, *msg)
	return nil
}

// ListBySession retrieves the latest messages of a session, newest first
func (r *MemoryOnboardMessageRepository) ListBySession(_ context.Context, sessionID uuid.UUID, limit int) ([]*models.OnboardMessage, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*models.OnboardMessage
	for i := len(r.store.messages) - 1; i >= 0; i-- {
		msg := r.store.messages[i]
		if msg.SessionID != sessionID {
			continue
		}
		out = append(out, &msg)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
