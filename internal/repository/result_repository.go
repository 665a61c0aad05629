package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yesmonga/karting-sub000/internal/database"
	"github.com/yesmonga/karting-sub000/internal/models"
)

const (
	errScanEntry = "failed to scan race entry: %w"
	errScanStint = "failed to scan stint: %w"
	errScanLap   = "failed to scan lap: %w"
)

var lapColumns = []string{"race_id", "kart_number", "lap_number", "sector1_ms", "sector2_ms", "sector3_ms", "total_ms"}

// PostgresResultRepository implements ResultRepository for PostgreSQL
type PostgresResultRepository struct {
	db    *database.DB
	races *PostgresRaceRepository
}

// NewPostgresResultRepository creates a new result repository
func NewPostgresResultRepository(db *database.DB) ResultRepository {
	return &PostgresResultRepository{db: db, races: &PostgresRaceRepository{db: db}}
}

// ImportRace stores a new race together with its team records
func (r *PostgresResultRepository) ImportRace(ctx context.Context, race *models.Race, teams []*models.TeamRecord) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := r.races.CreateWithTx(ctx, tx, race); err != nil {
			return err
		}
		return insertResults(ctx, tx, race.ID, teams)
	})
}

// SaveResults replaces every team record of a race
func (r *PostgresResultRepository) SaveResults(ctx context.Context, raceID uuid.UUID, teams []*models.TeamRecord) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, table := range []string{"race_laps", "pit_stops", "stints", "race_entries"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE race_id = $1`, raceID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		if err := insertResults(ctx, tx, raceID, teams); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE races SET team_count = $2, updated_at = NOW() WHERE id = $1`, raceID, len(teams))
		if err != nil {
			return fmt.Errorf("failed to update race team count: %w", err)
		}
		return nil
	})
}

func insertResults(ctx context.Context, tx pgx.Tx, raceID uuid.UUID, teams []*models.TeamRecord) error {
	batch := &pgx.Batch{}
	var lapRows [][]interface{}

	for _, team := range teams {
		batch.Queue(`
			INSERT INTO race_entries (race_id, kart_number, position, team_name, total_laps, best_lap_ms)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			raceID, team.KartNumber, team.Position, team.TeamName, team.TotalLaps, team.BestLapMs)

		for _, s := range team.Stints {
			batch.Queue(`
				INSERT INTO stints (race_id, kart_number, stint_number, start_lap, end_lap, lap_count,
				                    best_lap_ms, avg_lap_ms, track_time_ms, finish, stats_source, driver_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				raceID, team.KartNumber, s.StintNumber, s.StartLap, s.EndLap, s.LapCount,
				s.BestLapMs, s.AvgLapMs, s.TrackTimeMs, s.Finish, s.StatsSource, s.DriverID)
		}

		for i, lap := range team.PitStops {
			batch.Queue(`
				INSERT INTO pit_stops (race_id, kart_number, stop_number, lap)
				VALUES ($1, $2, $3, $4)`,
				raceID, team.KartNumber, i+1, lap)
		}

		for _, lap := range team.Laps {
			lapRows = append(lapRows, []interface{}{
				raceID, team.KartNumber, lap.LapNumber, lap.Sector1Ms, lap.Sector2Ms, lap.Sector3Ms, lap.TotalMs,
			})
		}
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert race results: %w", mapPgError(err))
		}
	}

	if len(lapRows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"race_laps"}, lapColumns, pgx.CopyFromRows(lapRows)); err != nil {
			return fmt.Errorf("failed to copy race laps: %w", err)
		}
	}
	return nil
}

// GetTeams retrieves every team record of a race ordered by position then kart
func (r *PostgresResultRepository) GetTeams(ctx context.Context, raceID uuid.UUID) ([]*models.TeamRecord, error) {
	return r.loadTeams(ctx, raceID, 0)
}

// GetTeam retrieves the record of one kart
func (r *PostgresResultRepository) GetTeam(ctx context.Context, raceID uuid.UUID, kartNumber int) (*models.TeamRecord, error) {
	teams, err := r.loadTeams(ctx, raceID, kartNumber)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, models.ErrNotFound
	}
	return teams[0], nil
}

// loadTeams reads the records of a race, restricted to one kart when kart > 0
func (r *PostgresResultRepository) loadTeams(ctx context.Context, raceID uuid.UUID, kart int) ([]*models.TeamRecord, error) {
	pool := r.db.GetPool()
	filter := ` WHERE race_id = $1 AND ($2 = 0 OR kart_number = $2)`

	rows, err := pool.Query(ctx, `
		SELECT kart_number, position, team_name, total_laps, best_lap_ms
		FROM race_entries`+filter+`
		ORDER BY position, kart_number`, raceID, kart)
	if err != nil {
		return nil, fmt.Errorf("failed to query race entries: %w", err)
	}

	var teams []*models.TeamRecord
	byKart := make(map[int]*models.TeamRecord)
	for rows.Next() {
		t := &models.TeamRecord{Laps: []models.LapRecord{}, Stints: []models.StintRecord{}, PitStops: []int{}}
		if err := rows.Scan(&t.KartNumber, &t.Position, &t.TeamName, &t.TotalLaps, &t.BestLapMs); err != nil {
			rows.Close()
			return nil, fmt.Errorf(errScanEntry, err)
		}
		teams = append(teams, t)
		byKart[t.KartNumber] = t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return teams, nil
	}

	rows, err = pool.Query(ctx, `
		SELECT kart_number, stint_number, start_lap, end_lap, lap_count, best_lap_ms, avg_lap_ms,
		       track_time_ms, finish, stats_source, driver_id
		FROM stints`+filter+`
		ORDER BY kart_number, stint_number`, raceID, kart)
	if err != nil {
		return nil, fmt.Errorf("failed to query stints: %w", err)
	}
	for rows.Next() {
		var k int
		var s models.StintRecord
		err := rows.Scan(&k, &s.StintNumber, &s.StartLap, &s.EndLap, &s.LapCount, &s.BestLapMs, &s.AvgLapMs,
			&s.TrackTimeMs, &s.Finish, &s.StatsSource, &s.DriverID)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf(errScanStint, err)
		}
		if t, ok := byKart[k]; ok {
			t.Stints = append(t.Stints, s)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = pool.Query(ctx, `
		SELECT kart_number, lap_number, sector1_ms, sector2_ms, sector3_ms, total_ms
		FROM race_laps`+filter+`
		ORDER BY kart_number, lap_number`, raceID, kart)
	if err != nil {
		return nil, fmt.Errorf("failed to query laps: %w", err)
	}
	for rows.Next() {
		var k int
		var l models.LapRecord
		if err := rows.Scan(&k, &l.LapNumber, &l.Sector1Ms, &l.Sector2Ms, &l.Sector3Ms, &l.TotalMs); err != nil {
			rows.Close()
			return nil, fmt.Errorf(errScanLap, err)
		}
		if t, ok := byKart[k]; ok {
			t.Laps = append(t.Laps, l)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range teams {
		for i := 0; i+1 < len(t.Stints); i++ {
			t.PitStops = append(t.PitStops, t.Stints[i].EndLap)
		}
	}
	return teams, nil
}

// AssignDriver sets the driver of a stint
func (r *PostgresResultRepository) AssignDriver(ctx context.Context, raceID uuid.UUID, kartNumber, stintNumber int, driverID *uuid.UUID) error {
	result, err := r.db.GetPool().Exec(ctx, `
		UPDATE stints SET driver_id = $4
		WHERE race_id = $1 AND kart_number = $2 AND stint_number = $3`,
		raceID, kartNumber, stintNumber, driverID)
	if err != nil {
		return fmt.Errorf("failed to assign driver: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// sortTeams orders team records by position, then kart
func sortTeams(teams []*models.TeamRecord) {
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].Position != teams[j].Position {
			return teams[i].Position < teams[j].Position
		}
		return teams[i].KartNumber < teams[j].KartNumber
	})
}

// isNoRows reports whether err means no row matched
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
