package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LiveSession is one connection of the crew to a live timing feed
type LiveSession struct {
	ID        uuid.UUID       `db:"id" json:"id" validate:"required"`
	Name      string          `db:"name" json:"name" validate:"required"`
	FeedURL   string          `db:"feed_url" json:"feed_url"`
	Title1    string          `db:"title1" json:"title1"`
	Title2    string          `db:"title2" json:"title2"`
	Sequence  uint64          `db:"sequence" json:"sequence"`
	Snapshot  json.RawMessage `db:"snapshot" json:"snapshot,omitempty"`
	StartedAt time.Time       `db:"started_at" json:"started_at"`
	EndedAt   *time.Time      `db:"ended_at" json:"ended_at,omitempty"`
}

// IsActive checks if the session has not been ended
func (s *LiveSession) IsActive() bool {
	return s.EndedAt == nil
}

// OnboardMessage is a short pit-to-driver message shown on the kart display
type OnboardMessage struct {
	ID         uuid.UUID `db:"id" json:"id" validate:"required"`
	SessionID  uuid.UUID `db:"session_id" json:"session_id" validate:"required"`
	KartNumber int       `db:"kart_number" json:"kart_number" validate:"gte=1,lte=100"`
	Text       string    `db:"text" json:"text" validate:"required,max=64"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
