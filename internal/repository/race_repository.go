package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yesmonga/karting-sub000/internal/database"
	"github.com/yesmonga/karting-sub000/internal/models"
)

const (
	errScanRace = "failed to scan race: %w"

	raceColumns = `id, name, track, race_date, status, team_count, imported_at, updated_at`
	insertRace  = `
		INSERT INTO races (id, name, track, race_date, status, team_count, imported_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
)

// PostgresRaceRepository implements RaceRepository for PostgreSQL
type PostgresRaceRepository struct {
	db *database.DB
}

// NewPostgresRaceRepository creates a new race repository
func NewPostgresRaceRepository(db *database.DB) RaceRepository {
	return &PostgresRaceRepository{db: db}
}

// Create inserts a new race
func (r *PostgresRaceRepository) Create(ctx context.Context, race *models.Race) error {
	_, err := r.db.GetPool().Exec(ctx, insertRace,
		race.ID, race.Name, race.Track, race.RaceDate, race.Status, race.TeamCount,
		race.ImportedAt, race.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create race: %w", mapPgError(err))
	}
	return nil
}

// CreateWithTx inserts a new race using a provided transaction
func (r *PostgresRaceRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, race *models.Race) error {
	_, err := tx.Exec(ctx, insertRace,
		race.ID, race.Name, race.Track, race.RaceDate, race.Status, race.TeamCount,
		race.ImportedAt, race.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create race within transaction: %w", mapPgError(err))
	}
	return nil
}

// GetByID retrieves a race by ID
func (r *PostgresRaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Race, error) {
	query := `SELECT ` + raceColumns + ` FROM races WHERE id = $1`

	race, err := scanRace(r.db.GetPool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get race: %w", err)
	}
	return race, nil
}

// List retrieves the most recent races, newest first
func (r *PostgresRaceRepository) List(ctx context.Context, limit int) ([]*models.Race, error) {
	query := `SELECT ` + raceColumns + ` FROM races ORDER BY race_date DESC, imported_at DESC LIMIT $1`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query races: %w", err)
	}
	defer rows.Close()

	var races []*models.Race
	for rows.Next() {
		race, err := scanRace(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanRace, err)
		}
		races = append(races, race)
	}
	return races, rows.Err()
}

// Update updates an existing race
func (r *PostgresRaceRepository) Update(ctx context.Context, race *models.Race) error {
	query := `
		UPDATE races
		SET name = $2, track = $3, race_date = $4, status = $5, team_count = $6, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.GetPool().Exec(ctx, query,
		race.ID, race.Name, race.Track, race.RaceDate, race.Status, race.TeamCount,
	)
	if err != nil {
		return fmt.Errorf("failed to update race: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete deletes a race and, through foreign keys, its results
func (r *PostgresRaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.GetPool().Exec(ctx, `DELETE FROM races WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete race: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanRace(row pgx.Row) (*models.Race, error) {
	race := &models.Race{}
	err := row.Scan(
		&race.ID, &race.Name, &race.Track, &race.RaceDate, &race.Status, &race.TeamCount,
		&race.ImportedAt, &race.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return race, nil
}
