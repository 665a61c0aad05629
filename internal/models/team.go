package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Team is the crew's own team, owner of its drivers
type Team struct {
	ID         uuid.UUID `db:"id" json:"id" validate:"required"`
	Name       string    `db:"name" json:"name" validate:"required,max=255"`
	KartNumber *int      `db:"kart_number" json:"kart_number,omitempty" validate:"omitempty,gte=1,lte=100"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Driver is a driver of a team
type Driver struct {
	ID        uuid.UUID       `db:"id" json:"id" validate:"required"`
	TeamID    uuid.UUID       `db:"team_id" json:"team_id" validate:"required"`
	Name      string          `db:"name" json:"name" validate:"required,max=255"`
	Code      string          `db:"code" json:"code" validate:"required,max=4"`
	Color     string          `db:"color" json:"color" validate:"omitempty,hexcolor"`
	WeightKg  decimal.Decimal `db:"weight_kg" json:"weight_kg"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// HasWeight reports whether a positive weight was recorded for the driver
func (d *Driver) HasWeight() bool {
	return d.WeightKg.IsPositive()
}
