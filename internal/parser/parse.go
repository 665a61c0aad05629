package parser

import (
	"fmt"
	"sort"

	"github.com/yesmonga/karting-sub000/internal/models"
)

// Documents holds the extracted text of the three result documents
type Documents struct {
	Ranking    string
	PitStops   string
	LapHistory string
}

// Result is the outcome of parsing one race
type Result struct {
	Teams        []*models.TeamRecord
	Warnings     []string
	Placeholders bool
}

// Team returns the record of kart, or nil
func (r *Result) Team(kart int) *models.TeamRecord {
	for _, t := range r.Teams {
		if t.KartNumber == kart {
			return t
		}
	}
	return nil
}

// Parse extracts and merges the three documents into team records. It fails
// with a *MalformedDocumentError only when no team can be built from any of
// them; everything else that looks off is reported in Result.Warnings.
func Parse(docs Documents, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	ranking := ExtractTeams(docs.Ranking)
	stints := ExtractAllStints(docs.PitStops)
	laps := ExtractAllLaps(docs.LapHistory, opts)

	if len(ranking) == 0 && len(stints) == 0 && len(laps) == 0 {
		return nil, &MalformedDocumentError{
			Document: "ranking",
			Reason:   "no team row, stint section or lap section found",
			Err:      models.ErrNoTeams,
		}
	}

	result := &Result{
		Teams:        Merge(ranking, stints, laps, opts),
		Placeholders: len(ranking) == 0,
	}
	if result.Placeholders {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("ranking unreadable, %d placeholder teams created", len(result.Teams)))
	}

	known := make(map[int]bool, len(result.Teams))
	for _, team := range result.Teams {
		known[team.KartNumber] = true
		result.Warnings = append(result.Warnings, teamWarnings(team, stints[team.KartNumber], laps[team.KartNumber], opts)...)
	}
	result.Warnings = append(result.Warnings, orphanWarnings("pit-stop report", stintKarts(stints), known)...)
	result.Warnings = append(result.Warnings, orphanWarnings("lap history", lapKarts(laps), known)...)

	return result, nil
}

func teamWarnings(team *models.TeamRecord, rawStints []models.StintRecord, rawLaps []models.LapRecord, opts Options) []string {
	var warnings []string
	if len(team.Stints) == 0 {
		warnings = append(warnings, fmt.Sprintf("kart #%d: no stint found", team.KartNumber))
	}
	if len(rawLaps) == 0 {
		warnings = append(warnings, fmt.Sprintf("kart #%d: no lap history found", team.KartNumber))
	}
	for _, raw := range rawStints {
		merged, ok := team.Stint(raw.StintNumber)
		if ok && raw.LapCount != merged.LapCount {
			warnings = append(warnings, fmt.Sprintf("kart #%d: stint %d reports %d laps, boundaries give %d",
				team.KartNumber, raw.StintNumber, raw.LapCount, merged.LapCount))
		}
	}

	historyBest := fastestLap(team.Laps)
	if team.BestLapMs > 0 && historyBest > 0 && abs(team.BestLapMs-historyBest) > opts.AmbiguityToleranceMs {
		err := &AmbiguousFieldError{
			KartNumber: team.KartNumber,
			Field:      "best lap",
			Values:     []int{team.BestLapMs, historyBest},
		}
		warnings = append(warnings, err.Error())
	}
	return warnings
}

func orphanWarnings(document string, karts []int, known map[int]bool) []string {
	var warnings []string
	for _, kart := range karts {
		if !known[kart] {
			warnings = append(warnings, fmt.Sprintf("kart #%d in %s is not ranked, ignored", kart, document))
		}
	}
	return warnings
}

func stintKarts(m map[int][]models.StintRecord) []int {
	karts := make([]int, 0, len(m))
	for k := range m {
		karts = append(karts, k)
	}
	sort.Ints(karts)
	return karts
}

func lapKarts(m map[int][]models.LapRecord) []int {
	karts := make([]int, 0, len(m))
	for k := range m {
		karts = append(karts, k)
	}
	sort.Ints(karts)
	return karts
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
