package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yesmonga/karting-sub000/internal/logger"
	"github.com/yesmonga/karting-sub000/internal/models"
	"github.com/yesmonga/karting-sub000/internal/repository"
)

// DriverInput holds the editable fields of a driver
type DriverInput struct {
	Name     string          `json:"name"`
	Code     string          `json:"code"`
	Color    string          `json:"color"`
	WeightKg decimal.Decimal `json:"weight_kg"`
}

// CrewService manages the crew's teams and drivers and the assignment of
// drivers to the stints of imported races
type CrewService struct {
	teams      repository.TeamRepository
	drivers    repository.DriverRepository
	results    repository.ResultRepository
	validator  *DataValidator
	normalizer *DataNormalizer
	audit      *logger.AuditLogger
	now        func() time.Time
}

// NewCrewService creates a new crew service
func NewCrewService(repos *repository.Repositories, log *logrus.Logger) *CrewService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &CrewService{
		teams:      repos.Team,
		drivers:    repos.Driver,
		results:    repos.Result,
		validator:  NewDataValidator(log),
		normalizer: NewDataNormalizer(log),
		audit:      logger.NewAuditLogger(log),
		now:        time.Now,
	}
}

// CreateTeam creates a team, optionally bound to a kart number
func (s *CrewService) CreateTeam(ctx context.Context, name string, kartNumber *int) (*models.Team, error) {
	now := s.now().UTC()
	team := &models.Team{
		ID:         uuid.New(),
		Name:       collapseSpaces(RepairMojibake(name)),
		KartNumber: kartNumber,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if team.Name == "" {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidInput, models.ErrTeamNameMissing)
	}
	if err := s.validator.ValidateTeamEntity(team); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// ListTeams lists every team
func (s *CrewService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	return s.teams.List(ctx)
}

// GetTeam retrieves a team by ID
func (s *CrewService) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return s.teams.GetByID(ctx, id)
}

// CreateDriver adds a driver to a team
func (s *CrewService) CreateDriver(ctx context.Context, teamID uuid.UUID, in DriverInput) (*models.Driver, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	now := s.now().UTC()
	driver := &models.Driver{
		ID:        uuid.New(),
		TeamID:    teamID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(driver, in); err != nil {
		return nil, err
	}
	if err := s.drivers.Create(ctx, driver); err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	s.audit.LogDriverChange(teamID.String(), driver.ID.String(), driver.Name, driver.WeightKg.String())
	return driver, nil
}

// UpdateDriver replaces the editable fields of a driver
func (s *CrewService) UpdateDriver(ctx context.Context, id uuid.UUID, in DriverInput) (*models.Driver, error) {
	driver, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	if err := s.apply(driver, in); err != nil {
		return nil, err
	}
	driver.UpdatedAt = s.now().UTC()
	if err := s.drivers.Update(ctx, driver); err != nil {
		return nil, fmt.Errorf("failed to update driver: %w", err)
	}

	s.audit.LogDriverChange(driver.TeamID.String(), driver.ID.String(), driver.Name, driver.WeightKg.String())
	return driver, nil
}

func (s *CrewService) apply(driver *models.Driver, in DriverInput) error {
	driver.Name = in.Name
	driver.Code = in.Code
	driver.Color = in.Color
	driver.WeightKg = in.WeightKg
	if in.WeightKg.IsNegative() {
		return fmt.Errorf("%w: weight cannot be negative", models.ErrInvalidInput)
	}
	s.normalizer.NormalizeDriver(driver)
	if err := s.validator.ValidateDriver(driver); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// ListDrivers lists the drivers of a team
func (s *CrewService) ListDrivers(ctx context.Context, teamID uuid.UUID) ([]*models.Driver, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return s.drivers.GetByTeamID(ctx, teamID)
}

// FindDriver resolves a driver by ID, or by name or code within the team of
// a kart
func (s *CrewService) FindDriver(ctx context.Context, ref string, kartNumber int) (*models.Driver, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.drivers.GetByID(ctx, id)
	}

	team, err := s.teams.GetByKart(ctx, kartNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get team of kart %d: %w", kartNumber, err)
	}
	drivers, err := s.drivers.GetByTeamID(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	for _, d := range drivers {
		if strings.EqualFold(d.Name, ref) || strings.EqualFold(d.Code, ref) {
			return d, nil
		}
	}
	return nil, models.ErrNotFound
}

// AssignDriver sets the driver of a stint. A nil driver clears the stint.
func (s *CrewService) AssignDriver(ctx context.Context, raceID uuid.UUID, kartNumber, stintNumber int, driverID *uuid.UUID) error {
	if driverID != nil {
		if _, err := s.drivers.GetByID(ctx, *driverID); err != nil {
			return fmt.Errorf("failed to get driver: %w", err)
		}
	}
	if err := s.results.AssignDriver(ctx, raceID, kartNumber, stintNumber, driverID); err != nil {
		return fmt.Errorf("failed to assign driver: %w", err)
	}

	assigned := ""
	if driverID != nil {
		assigned = driverID.String()
	}
	s.audit.LogDriverAssignment(raceID.String(), kartNumber, stintNumber, assigned)
	return nil
}

// DriversForRecord returns the drivers relevant to a team record: the
// drivers of the crew team racing that kart plus every driver assigned to
// one of its stints
func (s *CrewService) DriversForRecord(ctx context.Context, record *models.TeamRecord) ([]*models.Driver, error) {
	var drivers []*models.Driver
	seen := make(map[uuid.UUID]bool)

	team, err := s.teams.GetByKart(ctx, record.KartNumber)
	switch {
	case err == nil:
		teamDrivers, err := s.drivers.GetByTeamID(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		for _, d := range teamDrivers {
			seen[d.ID] = true
			drivers = append(drivers, d)
		}
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	for _, st := range record.Stints {
		if st.DriverID == nil || seen[*st.DriverID] {
			continue
		}
		d, err := s.drivers.GetByID(ctx, *st.DriverID)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		seen[d.ID] = true
		drivers = append(drivers, d)
	}
	return drivers, nil
}
