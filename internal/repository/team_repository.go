package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yesmonga/karting-sub000/internal/database"
	"github.com/yesmonga/karting-sub000/internal/models"
)

const (
	errScanTeam   = "failed to scan team: %w"
	errScanDriver = "failed to scan driver: %w"

	teamColumns   = `id, name, kart_number, created_at, updated_at`
	driverColumns = `id, team_id, name, code, color, weight_kg, created_at, updated_at`
)

// PostgresTeamRepository implements TeamRepository for PostgreSQL
type PostgresTeamRepository struct {
	db *database.DB
}

// NewPostgresTeamRepository creates a new team repository
func NewPostgresTeamRepository(db *database.DB) TeamRepository {
	return &PostgresTeamRepository{db: db}
}

// Create inserts a new team
func (r *PostgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	_, err := r.db.GetPool().Exec(ctx, `
		INSERT INTO teams (id, name, kart_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		team.ID, team.Name, team.KartNumber, team.CreatedAt, team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", mapPgError(err))
	}
	return nil
}

// GetByID retrieves a team by ID
func (r *PostgresTeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team, err := scanTeam(r.db.GetPool().QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// GetByKart retrieves the team racing a kart number
func (r *PostgresTeamRepository) GetByKart(ctx context.Context, kartNumber int) (*models.Team, error) {
	team, err := scanTeam(r.db.GetPool().QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE kart_number = $1`, kartNumber))
	if isNoRows(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team by kart: %w", err)
	}
	return team, nil
}

// List retrieves every team ordered by name
func (r *PostgresTeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	rows, err := r.db.GetPool().Query(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanTeam, err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

// Update updates an existing team
func (r *PostgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	result, err := r.db.GetPool().Exec(ctx, `
		UPDATE teams SET name = $2, kart_number = $3, updated_at = NOW() WHERE id = $1`,
		team.ID, team.Name, team.KartNumber)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", mapPgError(err))
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete deletes a team
func (r *PostgresTeamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.GetPool().Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanTeam(row pgx.Row) (*models.Team, error) {
	team := &models.Team{}
	if err := row.Scan(&team.ID, &team.Name, &team.KartNumber, &team.CreatedAt, &team.UpdatedAt); err != nil {
		return nil, err
	}
	return team, nil
}

// PostgresDriverRepository implements DriverRepository for PostgreSQL
type PostgresDriverRepository struct {
	db *database.DB
}

// NewPostgresDriverRepository creates a new driver repository
func NewPostgresDriverRepository(db *database.DB) DriverRepository {
	return &PostgresDriverRepository{db: db}
}

// Create inserts a new driver
func (r *PostgresDriverRepository) Create(ctx context.Context, driver *models.Driver) error {
	_, err := r.db.GetPool().Exec(ctx, `
		INSERT INTO drivers (id, team_id, name, code, color, weight_kg, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		driver.ID, driver.TeamID, driver.Name, driver.Code, driver.Color, driver.WeightKg,
		driver.CreatedAt, driver.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", mapPgError(err))
	}
	return nil
}

// GetByID retrieves a driver by ID
func (r *PostgresDriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	driver, err := scanDriver(r.db.GetPool().QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return driver, nil
}

// GetByTeamID retrieves the drivers of a team ordered by name
func (r *PostgresDriverRepository) GetByTeamID(ctx context.Context, teamID uuid.UUID) ([]*models.Driver, error) {
	rows, err := r.db.GetPool().Query(ctx, `SELECT `+driverColumns+` FROM drivers WHERE team_id = $1 ORDER BY name`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query drivers: %w", err)
	}
	defer rows.Close()

	var drivers []*models.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanDriver, err)
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

// Update updates an existing driver
func (r *PostgresDriverRepository) Update(ctx context.Context, driver *models.Driver) error {
	result, err := r.db.GetPool().Exec(ctx, `
		UPDATE drivers SET name = $2, code = $3, color = $4, weight_kg = $5, updated_at = NOW()
		WHERE id = $1`,
		driver.ID, driver.Name, driver.Code, driver.Color, driver.WeightKg)
	if err != nil {
		return fmt.Errorf("failed to update driver: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete deletes a driver
func (r *PostgresDriverRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.GetPool().Exec(ctx, `DELETE FROM drivers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete driver: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanDriver(row pgx.Row) (*models.Driver, error) {
	driver := &models.Driver{}
	err := row.Scan(&driver.ID, &driver.TeamID, &driver.Name, &driver.Code, &driver.Color,
		&driver.WeightKg, &driver.CreatedAt, &driver.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return driver, nil
}
