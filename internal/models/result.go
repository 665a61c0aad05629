package models

import (
	"sort"

	"github.com/google/uuid"
)

// Sources of a stint's best/average lap figures, in priority order
const (
	StatsSourceLaps     = "laps"
	StatsSourceLapsWide = "laps_wide"
	StatsSourceReport   = "report"
)

// LapRecord is one lap of a team's lap history
type LapRecord struct {
	LapNumber int `db:"lap_number" json:"lap_number" validate:"gt=0"`
	Sector1Ms int `db:"sector1_ms" json:"sector1_ms" validate:"gte=0"`
	Sector2Ms int `db:"sector2_ms" json:"sector2_ms" validate:"gte=0"`
	Sector3Ms int `db:"sector3_ms" json:"sector3_ms" validate:"gte=0"`
	TotalMs   int `db:"total_ms" json:"total_ms" validate:"gte=50000,lte=180000"`
}

// HasSectors reports whether sector splits were recovered for this lap
func (l LapRecord) HasSectors() bool {
	return l.Sector1Ms > 0 && l.Sector2Ms > 0 && l.Sector3Ms > 0
}

// StintRecord is a continuous driving segment between two pit stops
type StintRecord struct {
	StintNumber int        `db:"stint_number" json:"stint_number" validate:"gte=1,lte=20"`
	StartLap    int        `db:"start_lap" json:"start_lap" validate:"gte=1"`
	EndLap      int        `db:"end_lap" json:"end_lap" validate:"gtefield=StartLap"`
	LapCount    int        `db:"lap_count" json:"lap_count" validate:"gte=0"`
	BestLapMs   int        `db:"best_lap_ms" json:"best_lap_ms" validate:"gte=0"`
	AvgLapMs    int        `db:"avg_lap_ms" json:"avg_lap_ms" validate:"gte=0"`
	TrackTimeMs *int       `db:"track_time_ms" json:"track_time_ms,omitempty"`
	Finish      bool       `db:"finish" json:"finish"`
	StatsSource string     `db:"stats_source" json:"stats_source,omitempty"`
	DriverID    *uuid.UUID `db:"driver_id" json:"driver_id,omitempty"`
}

// Contains reports whether the lap number falls inside the stint
func (s StintRecord) Contains(lap int) bool {
	return lap >= s.StartLap && lap <= s.EndLap
}

// TeamRecord is the reconstructed race record of one kart
type TeamRecord struct {
	Position   int           `db:"position" json:"position" validate:"gte=0,lte=50"`
	KartNumber int           `db:"kart_number" json:"kart_number" validate:"gte=1,lte=100"`
	TeamName   string        `db:"team_name" json:"team_name" validate:"required"`
	TotalLaps  int           `db:"total_laps" json:"total_laps" validate:"gte=0"`
	BestLapMs  int           `db:"best_lap_ms" json:"best_lap_ms" validate:"gte=0"`
	Laps       []LapRecord   `json:"laps" validate:"dive"`
	Stints     []StintRecord `json:"stints" validate:"dive"`
	PitStops   []int         `json:"pit_stops"`
}

// Lap returns the lap with the given number
func (t *TeamRecord) Lap(number int) (LapRecord, bool) {
	i := sort.Search(len(t.Laps), func(i int) bool { return t.Laps[i].LapNumber >= number })
	if i < len(t.Laps) && t.Laps[i].LapNumber == number {
		return t.Laps[i], true
	}
	return LapRecord{}, false
}

// Stint returns the stint with the given number
func (t *TeamRecord) Stint(number int) (*StintRecord, bool) {
	for i := range t.Stints {
		if t.Stints[i].StintNumber == number {
			return &t.Stints[i], true
		}
	}
	return nil, false
}

// StintsContiguous reports whether the stints partition the lap range
// without gaps or overlaps.
func (t *TeamRecord) StintsContiguous() bool {
	for i := 1; i < len(t.Stints); i++ {
		if t.Stints[i].StartLap != t.Stints[i-1].EndLap+1 {
			return false
		}
	}
	return true
}
