package service

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yesmonga/karting-sub000/internal/models"
)

// LapPoint is one point of a lap chart
type LapPoint struct {
	Lap   int `json:"lap"`
	Ms    int `json:"ms"`
	Stint int `json:"stint,omitempty"`
}

// LapChart returns the retained laps of a team as a chart series, each lap
// tagged with the stint it belongs to
func LapChart(team *models.TeamRecord) []LapPoint {
	points := make([]LapPoint, 0, len(team.Laps))
	for _, lap := range team.Laps {
		point := LapPoint{Lap: lap.LapNumber, Ms: lap.TotalMs}
		for _, st := range team.Stints {
			if st.Contains(lap.LapNumber) {
				point.Stint = st.StintNumber
				break
			}
		}
		points = append(points, point)
	}
	return points
}

// StintLength is the length of one stint in laps and time
type StintLength struct {
	StintNumber int        `json:"stint_number"`
	StartLap    int        `json:"start_lap"`
	EndLap      int        `json:"end_lap"`
	Laps        int        `json:"laps"`
	DurationMs  int        `json:"duration_ms"`
	BestLapMs   int        `json:"best_lap_ms"`
	AvgLapMs    int        `json:"avg_lap_ms"`
	DriverID    *uuid.UUID `json:"driver_id,omitempty"`
}

// StrategySummary describes the pit strategy of a team
type StrategySummary struct {
	KartNumber        int           `json:"kart_number"`
	TeamName          string        `json:"team_name"`
	TotalLaps         int           `json:"total_laps"`
	PitCount          int           `json:"pit_count"`
	PitStops          []int         `json:"pit_stops"`
	Stints            []StintLength `json:"stints"`
	ShortestStintLaps int           `json:"shortest_stint_laps"`
	LongestStintLaps  int           `json:"longest_stint_laps"`
	AverageStintLaps  float64       `json:"average_stint_laps"`
	AverageStintMs    int           `json:"average_stint_ms"`
	AveragePitGapLaps float64       `json:"average_pit_gap_laps"`
}

// Strategy summarizes the stints and pit stops of a team
func Strategy(team *models.TeamRecord) StrategySummary {
	summary := StrategySummary{
		KartNumber: team.KartNumber,
		TeamName:   team.TeamName,
		TotalLaps:  team.TotalLaps,
		PitCount:   len(team.PitStops),
		PitStops:   append([]int{}, team.PitStops...),
		Stints:     make([]StintLength, 0, len(team.Stints)),
	}

	totalLaps, totalMs := 0, 0
	for i, st := range team.Stints {
		length := StintLength{
			StintNumber: st.StintNumber,
			StartLap:    st.StartLap,
			EndLap:      st.EndLap,
			Laps:        st.LapCount,
			DurationMs:  stintDuration(team, st),
			BestLapMs:   st.BestLapMs,
			AvgLapMs:    st.AvgLapMs,
			DriverID:    st.DriverID,
		}
		summary.Stints = append(summary.Stints, length)

		if i == 0 || length.Laps < summary.ShortestStintLaps {
			summary.ShortestStintLaps = length.Laps
		}
		if length.Laps > summary.LongestStintLaps {
			summary.LongestStintLaps = length.Laps
		}
		totalLaps += length.Laps
		totalMs += length.DurationMs
	}

	if n := len(summary.Stints); n > 0 {
		summary.AverageStintLaps = float64(totalLaps) / float64(n)
		summary.AverageStintMs = totalMs / n
	}
	if len(team.PitStops) > 1 {
		gaps := 0
		for i := 1; i < len(team.PitStops); i++ {
			gaps += team.PitStops[i] - team.PitStops[i-1]
		}
		summary.AveragePitGapLaps = float64(gaps) / float64(len(team.PitStops)-1)
	}
	return summary
}

// stintDuration returns the time spent in a stint: the sum of its laps when
// the lap history covers it, else the reported track time, else the average
// lap times the lap count
func stintDuration(team *models.TeamRecord, st models.StintRecord) int {
	sum, count := 0, 0
	for _, lap := range team.Laps {
		if st.Contains(lap.LapNumber) {
			sum += lap.TotalMs
			count++
		}
	}
	if count > 0 && count == st.LapCount {
		return sum
	}
	if st.TrackTimeMs != nil && *st.TrackTimeMs > 0 {
		return *st.TrackTimeMs
	}
	return st.AvgLapMs * st.LapCount
}

// DriverStat aggregates the stints driven by one driver
type DriverStat struct {
	DriverID    uuid.UUID `json:"driver_id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Color       string    `json:"color,omitempty"`
	Stints      int       `json:"stints"`
	Laps        int       `json:"laps"`
	BestLapMs   int       `json:"best_lap_ms"`
	AvgLapMs    int       `json:"avg_lap_ms"`
	DriveTimeMs int       `json:"drive_time_ms"`
}

// DriverStats aggregates the stints of a team per assigned driver. Every
// driver of the list is reported, drivers without a stint with zero values.
// Results are ordered by drive time, longest first, then name.
func DriverStats(team *models.TeamRecord, drivers []*models.Driver) []DriverStat {
	byID := make(map[uuid.UUID]*DriverStat, len(drivers))
	stats := make([]*DriverStat, 0, len(drivers))
	for _, d := range drivers {
		stat := &DriverStat{DriverID: d.ID, Name: d.Name, Code: d.Code, Color: d.Color}
		byID[d.ID] = stat
		stats = append(stats, stat)
	}

	strategy := Strategy(team)
	weighted := make(map[uuid.UUID]int, len(drivers))
	for i, st := range team.Stints {
		if st.DriverID == nil {
			continue
		}
		stat, ok := byID[*st.DriverID]
		if !ok {
			continue
		}
		stat.Stints++
		stat.Laps += st.LapCount
		stat.DriveTimeMs += strategy.Stints[i].DurationMs
		if st.BestLapMs > 0 && (stat.BestLapMs == 0 || st.BestLapMs < stat.BestLapMs) {
			stat.BestLapMs = st.BestLapMs
		}
		weighted[stat.DriverID] += st.AvgLapMs * st.LapCount
	}

	out := make([]DriverStat, 0, len(stats))
	for _, stat := range stats {
		if stat.Laps > 0 {
			stat.AvgLapMs = (weighted[stat.DriverID] + stat.Laps/2) / stat.Laps
		}
		out = append(out, *stat)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DriveTimeMs != out[j].DriveTimeMs {
			return out[i].DriveTimeMs > out[j].DriveTimeMs
		}
		return out[i].Name < out[j].Name
	})
	return out
}
