package parser

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/yesmonga/karting-sub000/internal/models"
)

// <start lap or -> <run of decimal time tokens>
var lapRunPattern = regexp.MustCompile(`(?:^|\s)(\d{1,3}|-)((?:\s+(?:\d{1,2}:\d{2}|\d{1,3})[.,]\d{3}\b)+)`)

const maxPendingSectors = 3

// ExtractLaps reads the lap history of one team section with the default
// plausibility window
func ExtractLaps(section string) []models.LapRecord {
	return ExtractLapsWithOptions(section, DefaultOptions())
}

// ExtractLapsWithOptions reads the lap history of one team section. Tokens
// at or above the minimum plausible lap time are laps and take consecutive
// lap numbers from the run's start lap; laps above the maximum are dropped
// but still use up their number. Shorter tokens are sector splits of the
// lap that follows them. The result is sorted by lap number and a lap
// number seen twice keeps its first value.
func ExtractLapsWithOptions(section string, opts Options) []models.LapRecord {
	text := Flatten(section)

	seen := make(map[int]bool)
	var laps []models.LapRecord
	for _, m := range lapRunPattern.FindAllStringSubmatch(text, -1) {
		start := 1
		if m[1] != "-" {
			start, _ = strconv.Atoi(m[1])
		}
		for _, lap := range lapsFromRun(start, lapTokens(m[2]), opts) {
			if seen[lap.LapNumber] {
				continue
			}
			seen[lap.LapNumber] = true
			laps = append(laps, lap)
		}
	}

	sort.Slice(laps, func(i, j int) bool { return laps[i].LapNumber < laps[j].LapNumber })
	return laps
}

// ExtractAllLaps splits a lap-history document into team sections and
// extracts the laps of each kart
func ExtractAllLaps(text string, opts Options) map[int][]models.LapRecord {
	out := make(map[int][]models.LapRecord)
	for _, section := range SplitSections(text) {
		if laps := ExtractLapsWithOptions(section.Text, opts); len(laps) > 0 {
			out[section.KartNumber] = laps
		}
	}
	return out
}

func lapsFromRun(start int, tokens []int, opts Options) []models.LapRecord {
	var laps []models.LapRecord
	var pending []int
	number := start
	for _, ms := range tokens {
		if ms <= 0 {
			continue
		}
		if ms < opts.MinPlausibleLapMs {
			pending = append(pending, ms)
			if len(pending) > maxPendingSectors {
				pending = pending[len(pending)-maxPendingSectors:]
			}
			continue
		}

		if ms <= opts.MaxPlausibleLapMs {
			lap := models.LapRecord{LapNumber: number, TotalMs: ms}
			lap.Sector1Ms, lap.Sector2Ms, lap.Sector3Ms = splitSectors(pending, ms, opts.CumulativeSectorRatio)
			laps = append(laps, lap)
		}
		pending = nil
		number++
	}
	return laps
}

// splitSectors turns the sector tokens preceding a lap into three sector
// times. Two tokens are cumulative when the second is at least ratio times
// the first. Any non-positive sector discards all three.
func splitSectors(pending []int, total int, ratio float64) (int, int, int) {
	var s1, s2, s3 int
	switch len(pending) {
	case 3:
		s1, s2, s3 = pending[0], pending[1], pending[2]
	case 2:
		if float64(pending[1]) >= ratio*float64(pending[0]) {
			s1, s2, s3 = pending[0], pending[1]-pending[0], total-pending[1]
		} else {
			s1, s2, s3 = pending[0], pending[1], total-pending[0]-pending[1]
		}
	default:
		return 0, 0, 0
	}
	if s1 <= 0 || s2 <= 0 || s3 <= 0 {
		return 0, 0, 0
	}
	return s1, s2, s3
}
