package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	nameHead = `[A-ZÀ-ÖØ-Þ][\p{L}\p{N}'&.\-/]*`
	nameWord = `[\p{L}\p{N}][\p{L}\p{N}'&.\-/]*`
)

var (
	// <position> <kart> <capitalised name run> <first numeric or time token>
	rankingRowPattern = regexp.MustCompile(
		`(?:^|\s)(\d{1,2})\s+(\d{1,3})\s+(` + nameHead + `\s+(?:` + nameWord + `\s+)*?)` +
			`(\d{1,2}:\d{2}[.,]\d{3}|\d{1,3}[.,]\d{3}|\d+)\b`)

	// <kart> - <name>
	rankingFallbackPattern = regexp.MustCompile(
		`(?:^|\s)(\d{1,3})\s+[-–]\s+(` + nameHead + `(?:\s+` + nameHead + `)*)`)
)

const rankingWindow = 120

// RankingEntry is one row of the final ranking document
type RankingEntry struct {
	Position   int
	KartNumber int
	TeamName   string
	BestLapMs  int
}

// ExtractTeams returns the ranking rows found in text, in document order.
// Rows with an out-of-range position or kart are skipped and a kart listed
// twice keeps its first row. When no row matches, the looser
// "<kart> - <name>" layout is tried.
func ExtractTeams(text string) []RankingEntry {
	text = Flatten(text)
	matches := rankingRowPattern.FindAllStringSubmatchIndex(text, -1)

	seen := make(map[int]bool)
	entries := make([]RankingEntry, 0, len(matches))
	for i, m := range matches {
		position, _ := strconv.Atoi(text[m[2]:m[3]])
		kart, _ := strconv.Atoi(text[m[4]:m[5]])
		if !validPosition(position) || !validKart(kart) || seen[kart] {
			continue
		}
		seen[kart] = true

		nameEnd := m[7]
		entries = append(entries, RankingEntry{
			Position:   position,
			KartNumber: kart,
			TeamName:   strings.TrimSpace(text[m[6]:m[7]]),
			BestLapMs:  bestLapAfter(text, nameEnd, nextStart(matches, i, len(text))),
		})
	}

	if len(entries) == 0 {
		return extractTeamsFallback(text)
	}
	return entries
}

func extractTeamsFallback(text string) []RankingEntry {
	matches := rankingFallbackPattern.FindAllStringSubmatchIndex(text, -1)

	seen := make(map[int]bool)
	entries := make([]RankingEntry, 0, len(matches))
	for i, m := range matches {
		kart, _ := strconv.Atoi(text[m[2]:m[3]])
		if !validKart(kart) || seen[kart] {
			continue
		}
		seen[kart] = true

		entries = append(entries, RankingEntry{
			Position:   len(entries) + 1,
			KartNumber: kart,
			TeamName:   strings.TrimSpace(text[m[4]:m[5]]),
			BestLapMs:  bestLapAfter(text, m[5], nextStart(matches, i, len(text))),
		})
	}
	return entries
}

// PlaceholderName is the team name given to a kart missing from the ranking
func PlaceholderName(kart int) string {
	return fmt.Sprintf("Équipe #%d", kart)
}

func bestLapAfter(text string, from, to int) int {
	if to > from+rankingWindow {
		to = from + rankingWindow
	}
	if to > len(text) {
		to = len(text)
	}
	if to <= from {
		return 0
	}
	opts := DefaultOptions()
	return firstLapInWindow(text[from:to], opts.MinPlausibleLapMs, opts.MaxPlausibleLapMs)
}

func nextStart(matches [][]int, i, fallback int) int {
	if i+1 < len(matches) {
		return matches[i+1][0]
	}
	return fallback
}

func validPosition(p int) bool { return p >= 1 && p <= 50 }

func validKart(k int) bool { return k >= 1 && k <= 100 }
