package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yesmonga/karting-sub000/internal/config"
	"github.com/yesmonga/karting-sub000/internal/models"
	"github.com/yesmonga/karting-sub000/internal/repository"
)

// ErrWeightMissing is returned for a driver without a recorded weight
var ErrWeightMissing = errors.New("driver weight is not recorded")

// Ballast returns the weight to add to reach minWeight, rounded up to a
// multiple of step. It is never negative. A non-positive step disables
// rounding.
func Ballast(minWeight, driverWeight, step decimal.Decimal) decimal.Decimal {
	missing := minWeight.Sub(driverWeight)
	if !missing.IsPositive() {
		return decimal.Zero
	}
	if !step.IsPositive() {
		return missing
	}
	return missing.Div(step).Ceil().Mul(step)
}

// BallastResult is the ballast of one driver
type BallastResult struct {
	DriverID    uuid.UUID       `json:"driver_id"`
	Name        string          `json:"name"`
	WeightKg    decimal.Decimal `json:"weight_kg"`
	MinWeightKg decimal.Decimal `json:"min_weight_kg"`
	StepKg      decimal.Decimal `json:"step_kg"`
	BallastKg   decimal.Decimal `json:"ballast_kg"`
}

// BallastService computes driver ballast from the configured regulation
type BallastService struct {
	drivers   repository.DriverRepository
	minWeight decimal.Decimal
	step      decimal.Decimal
}

// NewBallastService creates a new ballast service
func NewBallastService(drivers repository.DriverRepository, cfg config.BallastConfig) *BallastService {
	return &BallastService{
		drivers:   drivers,
		minWeight: decimal.NewFromFloat(cfg.MinWeightKg),
		step:      decimal.NewFromFloat(cfg.StepKg),
	}
}

// ForDriver computes the ballast of a stored driver
func (s *BallastService) ForDriver(ctx context.Context, driverID uuid.UUID) (*BallastResult, error) {
	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return s.compute(driver)
}

// ForTeam computes the ballast of every driver of a team with a weight
func (s *BallastService) ForTeam(ctx context.Context, teamID uuid.UUID) ([]*BallastResult, error) {
	drivers, err := s.drivers.GetByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get drivers: %w", err)
	}
	results := make([]*BallastResult, 0, len(drivers))
	for _, d := range drivers {
		if !d.HasWeight() {
			continue
		}
		r, err := s.compute(d)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// ForWeight computes the ballast of an arbitrary weight
func (s *BallastService) ForWeight(weightKg decimal.Decimal) decimal.Decimal {
	return Ballast(s.minWeight, weightKg, s.step)
}

func (s *BallastService) compute(driver *models.Driver) (*BallastResult, error) {
	if !driver.HasWeight() {
		return nil, fmt.Errorf("driver %s: %w", driver.Name, ErrWeightMissing)
	}
	return &BallastResult{
		DriverID:    driver.ID,
		Name:        driver.Name,
		WeightKg:    driver.WeightKg,
		MinWeightKg: s.minWeight,
		StepKg:      s.step,
		BallastKg:   Ballast(s.minWeight, driver.WeightKg, s.step),
	}, nil
}
