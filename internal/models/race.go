package models

import (
	"time"

	"github.com/google/uuid"
)

// Race status values
const (
	RaceStatusImported = "imported"
	RaceStatusLive     = "live"
	RaceStatusArchived = "archived"
)

// Race represents one imported endurance race
type Race struct {
	ID         uuid.UUID `db:"id" json:"id" validate:"required"`
	Name       string    `db:"name" json:"name" validate:"required,max=255"`
	Track      string    `db:"track" json:"track"`
	RaceDate   time.Time `db:"race_date" json:"race_date" validate:"required"`
	Status     string    `db:"status" json:"status" validate:"oneof=imported live archived"`
	TeamCount  int       `db:"team_count" json:"team_count" validate:"gte=0"`
	ImportedAt time.Time `db:"imported_at" json:"imported_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// IsArchived checks if the race has been archived
func (r *Race) IsArchived() bool {
	return r.Status == RaceStatusArchived
}

// Age returns how long ago the race was imported
func (r *Race) Age() time.Duration {
	return time.Since(r.ImportedAt)
}
