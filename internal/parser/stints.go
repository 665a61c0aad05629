package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yesmonga/karting-sub000/internal/models"
)

var (
	// <stint> <end lap> <track time>
	stintRowPattern = regexp.MustCompile(`(?:^|\s)(\d{1,2})\s+(\d{1,3})\s+(\d{1,2}:\d{2}:\d{2})\b`)

	// <time of day> <laps> <time of day>
	stintLapsPattern = regexp.MustCompile(`\d{1,2}:\d{2}:\d{2}\s+(\d{1,3})\s+\d{1,2}:\d{2}:\d{2}`)
)

const stintWindow = 250

var finishMarkers = []string{"ArrivÃ©e", "Arrivée"}

// ExtractStints reads the stint rows of one team section. Stint numbers
// outside 1-20 and end laps outside 1-300 are skipped, as are rows whose
// end lap does not advance past the previous stint.
func ExtractStints(section string) []models.StintRecord {
	text := Flatten(section)
	matches := stintRowPattern.FindAllStringSubmatchIndex(text, -1)

	seen := make(map[int]bool)
	var stints []models.StintRecord
	prevEnd := 0
	for i, m := range matches {
		number, _ := strconv.Atoi(text[m[2]:m[3]])
		endLap, _ := strconv.Atoi(text[m[4]:m[5]])
		if number < 1 || number > 20 || endLap < 1 || endLap > 300 {
			continue
		}
		if seen[number] || endLap <= prevEnd {
			continue
		}
		seen[number] = true

		windowEnd := m[1] + stintWindow
		if next := nextStart(matches, i, len(text)); next < windowEnd {
			windowEnd = next
		}
		if windowEnd > len(text) {
			windowEnd = len(text)
		}
		window := text[m[1]:windowEnd]

		stint := models.StintRecord{
			StintNumber: number,
			StartLap:    prevEnd + 1,
			EndLap:      endLap,
			LapCount:    endLap - prevEnd,
			Finish:      hasFinishMarker(window),
			StatsSource: models.StatsSourceReport,
		}
		if ms := ParseClockToMs(text[m[6]:m[7]]); ms > 0 {
			stint.TrackTimeMs = &ms
		}
		if lm := stintLapsPattern.FindStringSubmatch(window); lm != nil {
			if laps, err := strconv.Atoi(lm[1]); err == nil && laps > 0 {
				stint.LapCount = laps
			}
		}

		opts := DefaultOptions()
		var times []int
		for _, ms := range lapTokens(window) {
			if ms >= opts.MinPlausibleLapMs && ms <= opts.MaxPlausibleLapMs {
				times = append(times, ms)
			}
		}
		if len(times) > 0 {
			stint.BestLapMs = times[0]
		}
		if len(times) > 1 {
			stint.AvgLapMs = times[1]
		}

		stints = append(stints, stint)
		prevEnd = endLap
	}
	return stints
}

// ExtractAllStints splits a pit-stop report into team sections and extracts
// the stints of each kart
func ExtractAllStints(text string) map[int][]models.StintRecord {
	out := make(map[int][]models.StintRecord)
	for _, section := range SplitSections(text) {
		if stints := ExtractStints(section.Text); len(stints) > 0 {
			out[section.KartNumber] = stints
		}
	}
	return out
}

// PitStopLaps returns the end lap of every stint but the last
func PitStopLaps(stints []models.StintRecord) []int {
	if len(stints) < 2 {
		return []int{}
	}
	laps := make([]int, 0, len(stints)-1)
	for _, s := range stints[:len(stints)-1] {
		laps = append(laps, s.EndLap)
	}
	return laps
}

func hasFinishMarker(window string) bool {
	for _, marker := range finishMarkers {
		if strings.Contains(window, marker) {
			return true
		}
	}
	return false
}
