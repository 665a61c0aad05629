package parser

import (
	"sort"

	"github.com/yesmonga/karting-sub000/internal/models"
)

// Merge joins the ranking, the stint report and the lap history by kart.
// Inputs are not modified. When the ranking is empty, placeholder teams are
// built from the stint report, or from the lap history when that is empty
// too. Teams come out ordered by position, then kart.
func Merge(ranking []RankingEntry, stints map[int][]models.StintRecord, laps map[int][]models.LapRecord, opts Options) []*models.TeamRecord {
	opts = opts.withDefaults()
	if len(ranking) == 0 {
		ranking = placeholderEntries(stints, laps)
	}

	teams := make([]*models.TeamRecord, 0, len(ranking))
	for _, entry := range ranking {
		teamLaps := plausibleLaps(laps[entry.KartNumber], opts)
		teamStints := reconcileStints(stints[entry.KartNumber], teamLaps, opts)

		team := &models.TeamRecord{
			Position:   entry.Position,
			KartNumber: entry.KartNumber,
			TeamName:   entry.TeamName,
			BestLapMs:  entry.BestLapMs,
			Laps:       teamLaps,
			Stints:     teamStints,
			PitStops:   PitStopLaps(teamStints),
		}
		if n := len(teamStints); n > 0 {
			team.TotalLaps = teamStints[n-1].EndLap
		}
		if n := len(teamLaps); n > 0 && teamLaps[n-1].LapNumber > team.TotalLaps {
			team.TotalLaps = teamLaps[n-1].LapNumber
		}
		if team.BestLapMs == 0 {
			team.BestLapMs = fastestLap(teamLaps)
		}
		teams = append(teams, team)
	}

	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].Position != teams[j].Position {
			return teams[i].Position < teams[j].Position
		}
		return teams[i].KartNumber < teams[j].KartNumber
	})
	return teams
}

// reconcileStints rebuilds contiguous stint boundaries and takes best and
// average lap from the lap history when it covers the stint
func reconcileStints(stints []models.StintRecord, laps []models.LapRecord, opts Options) []models.StintRecord {
	out := make([]models.StintRecord, len(stints))
	copy(out, stints)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StintNumber < out[j].StintNumber })

	prevEnd := 0
	for i := range out {
		s := &out[i]
		s.StartLap = prevEnd + 1
		if s.EndLap < s.StartLap {
			s.EndLap = s.StartLap
		}
		s.LapCount = s.EndLap - s.StartLap + 1

		if best, avg, ok := lapStats(laps, s.StartLap, s.EndLap, opts.MinRealisticLapMs, opts.MaxRealisticLapMs); ok {
			s.BestLapMs, s.AvgLapMs, s.StatsSource = best, avg, models.StatsSourceLaps
		} else if best, avg, ok := lapStats(laps, s.StartLap, s.EndLap, opts.MinPlausibleLapMs, opts.MaxPlausibleLapMs); ok {
			s.BestLapMs, s.AvgLapMs, s.StatsSource = best, avg, models.StatsSourceLapsWide
		} else {
			s.StatsSource = models.StatsSourceReport
		}
		prevEnd = s.EndLap
	}
	return out
}

func lapStats(laps []models.LapRecord, from, to, min, max int) (best, avg int, ok bool) {
	var sum, n int
	for _, lap := range laps {
		if lap.LapNumber < from || lap.LapNumber > to {
			continue
		}
		if lap.TotalMs < min || lap.TotalMs > max {
			continue
		}
		if best == 0 || lap.TotalMs < best {
			best = lap.TotalMs
		}
		sum += lap.TotalMs
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return best, (sum + n/2) / n, true
}

func plausibleLaps(laps []models.LapRecord, opts Options) []models.LapRecord {
	out := make([]models.LapRecord, 0, len(laps))
	for _, lap := range laps {
		if lap.TotalMs >= opts.MinPlausibleLapMs && lap.TotalMs <= opts.MaxPlausibleLapMs {
			out = append(out, lap)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LapNumber < out[j].LapNumber })
	return out
}

func fastestLap(laps []models.LapRecord) int {
	best := 0
	for _, lap := range laps {
		if best == 0 || lap.TotalMs < best {
			best = lap.TotalMs
		}
	}
	return best
}

func placeholderEntries(stints map[int][]models.StintRecord, laps map[int][]models.LapRecord) []RankingEntry {
	var karts []int
	if len(stints) > 0 {
		for kart := range stints {
			karts = append(karts, kart)
		}
	} else {
		for kart := range laps {
			karts = append(karts, kart)
		}
	}
	sort.Ints(karts)

	entries := make([]RankingEntry, len(karts))
	for i, kart := range karts {
		entries[i] = RankingEntry{
			Position:   i + 1,
			KartNumber: kart,
			TeamName:   PlaceholderName(kart),
		}
	}
	return entries
}
